package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tcp_snm/qotd/internal/qotd_errors"
	"github.com/tcp_snm/qotd/internal/service"
	"github.com/tcp_snm/qotd/internal/service/question_service"
	"github.com/tcp_snm/qotd/internal/service/scheduler_service"
)

func questionIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w, invalid question id %q", qotd_errors.ErrInvalidRequest, raw)
	}
	return id, nil
}

func logAdminAction(r *http.Request, action string, questionID uuid.UUID) {
	fields := log.Fields{"action": action, "question_id": questionID}
	if claims, err := service.GetClaimsFromContext(r.Context()); err == nil {
		fields["admin_id"] = claims.UserId
	}
	log.WithFields(fields).Info("admin action")
}

func (a *Api) HandlerCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var request question_service.CreateQuestionRequest
	if err := decodeJsonBody(r.Body, &request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	question, err := a.QuestionService.CreateQuestion(r.Context(), request)
	if err != nil {
		handlerError(err, w)
		return
	}

	logAdminAction(r, "create_question", question.ID)
	marshalAndRespond(w, http.StatusCreated, questionResponse{Question: question})
}

// HandlerAdminListQuestions lists questions with their editorials.
func (a *Api) HandlerAdminListQuestions(w http.ResponseWriter, r *http.Request) {
	a.listQuestions(w, r, true)
}

func (a *Api) HandlerGetQuestionByID(w http.ResponseWriter, r *http.Request) {
	id, err := questionIDParam(r)
	if err != nil {
		handlerError(err, w)
		return
	}

	question, err := a.QuestionService.GetQuestionByID(r.Context(), id)
	if err != nil {
		handlerError(err, w)
		return
	}
	marshalAndRespond(w, http.StatusOK, questionResponse{Question: question})
}

func (a *Api) HandlerUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := questionIDParam(r)
	if err != nil {
		handlerError(err, w)
		return
	}

	var request question_service.UpdateQuestionRequest
	if err := decodeJsonBody(r.Body, &request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	question, err := a.QuestionService.UpdateQuestion(r.Context(), id, request)
	if err != nil {
		handlerError(err, w)
		return
	}

	logAdminAction(r, "update_question", id)
	marshalAndRespond(w, http.StatusOK, questionResponse{Question: question})
}

func (a *Api) HandlerDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := questionIDParam(r)
	if err != nil {
		handlerError(err, w)
		return
	}

	if err := a.QuestionService.DeleteQuestion(r.Context(), id); err != nil {
		handlerError(err, w)
		return
	}

	logAdminAction(r, "delete_question", id)
	marshalAndRespond(w, http.StatusOK, messageResponse{Message: "question deleted successfully"})
}

func (a *Api) HandlerSetQuestionOfTheDay(w http.ResponseWriter, r *http.Request) {
	var request question_service.SetQuestionRequest
	if err := decodeJsonBody(r.Body, &request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	question, err := a.QuestionService.SetQuestionOfTheDay(r.Context(), request)
	if err != nil {
		handlerError(err, w)
		return
	}

	logAdminAction(r, "set_qotd", question.ID)
	marshalAndRespond(w, http.StatusOK, questionResponse{Question: question})
}

func (a *Api) HandlerGetQuestionOfTheDay(w http.ResponseWriter, r *http.Request) {
	question, err := a.QuestionService.GetQuestionOfTheDay(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		handlerError(err, w)
		return
	}
	marshalAndRespond(w, http.StatusOK, questionResponse{Question: question})
}

// HandlerGenerateQuestion runs one publication cycle now. An existing
// question for today is returned unchanged.
func (a *Api) HandlerGenerateQuestion(w http.ResponseWriter, r *http.Request) {
	result, err := a.Scheduler.RunCycle(r.Context(), scheduler_service.TriggerManual)
	if err != nil {
		handlerError(err, w)
		return
	}

	question, err := a.QuestionService.GetQuestionByID(r.Context(), result.Question.ID)
	if err != nil {
		handlerError(err, w)
		return
	}

	statusCode := http.StatusOK
	if result.Created {
		statusCode = http.StatusCreated
		logAdminAction(r, "generate_qotd", question.ID)
	}
	marshalAndRespond(w, statusCode, generateResponse{Created: result.Created, Question: question})
}

func (a *Api) HandlerAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := a.QuestionService.GetAnalytics(r.Context())
	if err != nil {
		handlerError(err, w)
		return
	}
	marshalAndRespond(w, http.StatusOK, analytics)
}
