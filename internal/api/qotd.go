package api

import (
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/tcp_snm/qotd/internal/service/leaderboard_service"
	"github.com/tcp_snm/qotd/internal/service/question_service"
	"github.com/tcp_snm/qotd/internal/service/user_service"
	"github.com/tcp_snm/qotd/internal/service/verification_service"
)

func (a *Api) HandlerLinkHandle(w http.ResponseWriter, r *http.Request) {
	var request user_service.LinkHandleRequest
	if err := decodeJsonBody(r.Body, &request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := a.UserService.LinkHandle(r.Context(), request)
	if err != nil {
		handlerError(err, w)
		return
	}

	marshalAndRespond(w, http.StatusOK, linkHandleResponse{
		Message: "Codeforces handle linked successfully",
		Success: true,
		User:    user,
	})
}

func (a *Api) HandlerGetHandle(w http.ResponseWriter, r *http.Request) {
	handle, err := a.UserService.GetHandle(r.Context())
	if err != nil {
		handlerError(err, w)
		return
	}
	marshalAndRespond(w, http.StatusOK, handleResponse{CodeforcesHandle: handle})
}

func (a *Api) HandlerGetTodaysQuestion(w http.ResponseWriter, r *http.Request) {
	question, err := a.QuestionService.GetTodaysQuestion(r.Context())
	if err != nil {
		handlerError(err, w)
		return
	}
	marshalAndRespond(w, http.StatusOK, questionResponse{Question: question})
}

// HandlerListQuestions serves the public archive, editorials left out.
func (a *Api) HandlerListQuestions(w http.ResponseWriter, r *http.Request) {
	a.listQuestions(w, r, false)
}

func (a *Api) listQuestions(w http.ResponseWriter, r *http.Request, withEditorials bool) {
	page, err := queryInt32(r, "page")
	if err != nil {
		handlerError(err, w)
		return
	}
	pageSize, err := queryInt32(r, "page_size")
	if err != nil {
		handlerError(err, w)
		return
	}

	result, err := a.QuestionService.ListQuestions(
		r.Context(),
		question_service.ListQuestionsRequest{
			Page:     page,
			PageSize: pageSize,
			Date:     r.URL.Query().Get("date"),
		},
		withEditorials,
	)
	if err != nil {
		handlerError(err, w)
		return
	}

	marshalAndRespond(w, http.StatusOK, questionsResponse{
		Questions:  result.Questions,
		Pagination: result.Pagination,
	})
}

func (a *Api) HandlerRecentSubmissions(w http.ResponseWriter, r *http.Request) {
	recent, err := a.UserService.RecentSubmissions(r.Context())
	if err != nil {
		handlerError(err, w)
		return
	}
	marshalAndRespond(w, http.StatusOK, recentSubmissionsResponse{RecentSubmissions: recent})
}

func (a *Api) HandlerLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := a.LeaderboardService.GetTop(r.Context(), leaderboard_service.MaxEntries)
	if err != nil {
		handlerError(err, w)
		return
	}
	marshalAndRespond(w, http.StatusOK, leaderboardResponse{Leaderboard: entries})
}

func (a *Api) HandlerUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var request verification_service.VerifyRequest
	if err := decodeJsonBody(r.Body, &request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	verdict, err := a.VerificationService.Verify(r.Context(), request.QuestionTitle, request.CodeforcesHandle)
	if err != nil {
		handlerError(err, w)
		return
	}

	log.WithFields(log.Fields{
		"handle":   request.CodeforcesHandle,
		"question": request.QuestionTitle,
		"verdict":  verdict,
	}).Info("verified submission")

	marshalAndRespond(w, http.StatusOK, verifyResponse{Status: verdict})
}

func (a *Api) HandlerEditorial(w http.ResponseWriter, r *http.Request) {
	var request question_service.EditorialRequest
	if err := decodeJsonBody(r.Body, &request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	editorial, err := a.QuestionService.GetEditorialIfAllowed(r.Context(), request)
	if err != nil {
		handlerError(err, w)
		return
	}
	marshalAndRespond(w, http.StatusOK, editorialResponse{Editorial: editorial})
}
