package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tcp_snm/qotd/internal/cache"
	"github.com/tcp_snm/qotd/internal/database"
	"github.com/tcp_snm/qotd/internal/database/memstore"
	"github.com/tcp_snm/qotd/internal/qotd_errors"
	"github.com/tcp_snm/qotd/internal/service"
	"github.com/tcp_snm/qotd/internal/service/codeforces_service"
	"github.com/tcp_snm/qotd/internal/service/leaderboard_service"
	"github.com/tcp_snm/qotd/internal/service/question_service"
	"github.com/tcp_snm/qotd/internal/service/scheduler_service"
	"github.com/tcp_snm/qotd/internal/service/user_service"
	"github.com/tcp_snm/qotd/internal/service/verification_service"
)

var testNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

type fakeJudge struct {
	handles  map[string]bool
	subs     []codeforces_service.Submission
	problems []codeforces_service.Problem
}

func (f *fakeJudge) UserExists(ctx context.Context, handle string) (bool, error) {
	return f.handles[handle], nil
}

func (f *fakeJudge) FetchUserStatus(ctx context.Context, handle string, count int) ([]codeforces_service.Submission, error) {
	return f.subs, nil
}

func (f *fakeJudge) FetchProblemset(ctx context.Context) ([]codeforces_service.Problem, error) {
	return f.problems, nil
}

type staticContent struct{}

func (staticContent) FetchStatement(ctx context.Context, contestID int32, index string) string {
	return "statement"
}

type staticEditorial struct{}

func (staticEditorial) Generate(ctx context.Context, statement, title string, rating int32) (string, bool) {
	return "# " + title + " - Editorial", true
}

type fixture struct {
	api   *Api
	store *memstore.Store
	judge *fakeJudge
	alice database.User
	bob   database.User
	admin database.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	clock := service.Clock(func() time.Time { return testNow })

	alice, err := store.AddUser(database.User{UserName: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	handle := "tourist"
	bob, err := store.AddUser(database.User{UserName: "bob", Email: "bob@example.com", CodeforcesHandle: &handle})
	require.NoError(t, err)
	admin, err := store.AddUser(database.User{UserName: "root", Email: "root@example.com", Role: service.RoleManager})
	require.NoError(t, err)

	judge := &fakeJudge{
		handles:  map[string]bool{"petr": true, "tourist": true},
		problems: []codeforces_service.Problem{{ContestID: 4, Index: "A", Name: "Watermelon", Rating: 800}},
	}

	qs := &question_service.QuestionService{DB: store, Location: time.UTC, Clock: clock}
	qs.Start()
	us := &user_service.UserService{DB: store, Judge: judge, Clock: clock}
	us.Start()
	ls := &leaderboard_service.LeaderboardService{DB: store, Cache: cache.NopCache{}}
	ls.Start()
	vs := &verification_service.VerificationService{DB: store, Judge: judge, Location: time.UTC, Clock: clock}
	vs.Start()
	scheduler := &scheduler_service.Scheduler{
		DB:        store,
		Judge:     judge,
		Content:   staticContent{},
		Editorial: staticEditorial{},
		MinRating: 800,
		MaxRating: 1200,
		Location:  time.UTC,
		Clock:     clock,
	}

	return &fixture{
		api: &Api{
			DB:                  store,
			Cache:               cache.NopCache{},
			QuestionService:     qs,
			UserService:         us,
			LeaderboardService:  ls,
			VerificationService: vs,
			Scheduler:           scheduler,
		},
		store: store,
		judge: judge,
		alice: alice,
		bob:   bob,
		admin: admin,
	}
}

func request(t *testing.T, method string, target string, body any, user *database.User) *http.Request {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if user != nil {
		req = req.WithContext(service.WithClaims(req.Context(), service.UserCredentialClaims{
			UserId:   user.ID,
			UserName: user.UserName,
			Role:     user.Role,
		}))
	}
	return req
}

func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func serve(handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (f *fixture) createToday(t *testing.T) question_service.Question {
	t.Helper()
	editorial := "# Watermelon - Editorial"
	rec := serve(f.api.HandlerCreateQuestion, request(t, http.MethodPost, "/v1/admin/questions", question_service.CreateQuestionRequest{
		Title:        "Watermelon",
		ContestID:    4,
		ProblemIndex: "A",
		Rating:       800,
		Editorial:    &editorial,
	}, &f.admin))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[questionResponse](t, rec).Question
}

func TestHandlerGetTodaysQuestion(t *testing.T) {
	f := newFixture(t)

	rec := serve(f.api.HandlerGetTodaysQuestion, request(t, http.MethodGet, "/v1/qotd/today", nil, &f.alice))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	created := f.createToday(t)

	rec = serve(f.api.HandlerGetTodaysQuestion, request(t, http.MethodGet, "/v1/qotd/today", nil, &f.alice))
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[questionResponse](t, rec).Question
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "2026-10-14", got.Date)
	assert.NotContains(t, rec.Body.String(), "editorial")
}

func TestHandlerLinkHandle(t *testing.T) {
	f := newFixture(t)

	rec := serve(f.api.HandlerLinkHandle, request(t, http.MethodPost, "/v1/qotd/link-cf", user_service.LinkHandleRequest{Handle: "petr"}, &f.alice))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	linked := decode[linkHandleResponse](t, rec)
	assert.True(t, linked.Success)
	require.NotNil(t, linked.User.CodeforcesHandle)
	assert.Equal(t, "petr", *linked.User.CodeforcesHandle)

	rec = serve(f.api.HandlerGetHandle, request(t, http.MethodGet, "/v1/qotd/cf-handle", nil, &f.alice))
	require.Equal(t, http.StatusOK, rec.Code)
	handle := decode[handleResponse](t, rec)
	require.NotNil(t, handle.CodeforcesHandle)
	assert.Equal(t, "petr", *handle.CodeforcesHandle)

	// owned by bob
	rec = serve(f.api.HandlerLinkHandle, request(t, http.MethodPost, "/v1/qotd/link-cf", user_service.LinkHandleRequest{Handle: "tourist"}, &f.admin))
	assert.Equal(t, http.StatusConflict, rec.Code)

	// unknown to the judge
	rec = serve(f.api.HandlerLinkHandle, request(t, http.MethodPost, "/v1/qotd/link-cf", user_service.LinkHandleRequest{Handle: "nobody"}, &f.admin))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(f.api.HandlerLinkHandle, request(t, http.MethodPost, "/v1/qotd/link-cf", user_service.LinkHandleRequest{Handle: "petr"}, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerUpdateStatusCreditsLeaderboard(t *testing.T) {
	f := newFixture(t)
	f.createToday(t)
	f.judge.subs = []codeforces_service.Submission{{
		ID:        10,
		ContestID: 4,
		Verdict:   codeforces_service.VerdictOK,
		Problem:   codeforces_service.SubmissionProblem{ContestID: 4, Index: "A"},
	}}

	body := verification_service.VerifyRequest{QuestionTitle: "Watermelon", CodeforcesHandle: "tourist"}
	for i := 0; i < 2; i++ {
		rec := serve(f.api.HandlerUpdateStatus, request(t, http.MethodPost, "/v1/qotd/update-status", body, nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, verification_service.VerdictAccepted, decode[verifyResponse](t, rec).Status)
	}

	rec := serve(f.api.HandlerLeaderboard, request(t, http.MethodGet, "/v1/qotd/leaderboard", nil, &f.alice))
	require.Equal(t, http.StatusOK, rec.Code)
	board := decode[leaderboardResponse](t, rec).Leaderboard
	require.Len(t, board, 1)
	assert.Equal(t, f.bob.ID, board[0].UserID)
	assert.Equal(t, int64(100), board[0].Points)

	rec = serve(f.api.HandlerUpdateStatus, request(t, http.MethodPost, "/v1/qotd/update-status",
		verification_service.VerifyRequest{QuestionTitle: "Unknown", CodeforcesHandle: "tourist"}, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(f.api.HandlerUpdateStatus, request(t, http.MethodPost, "/v1/qotd/update-status", map[string]string{}, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerEditorialGating(t *testing.T) {
	f := newFixture(t)
	f.createToday(t)
	body := question_service.EditorialRequest{CodeforcesHandle: "tourist", QuestionTitle: "Watermelon"}

	rec := serve(f.api.HandlerEditorial, request(t, http.MethodPost, "/v1/qotd/editorial", body, nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	f.judge.subs = []codeforces_service.Submission{{
		Verdict: codeforces_service.VerdictOK,
		Problem: codeforces_service.SubmissionProblem{ContestID: 4, Index: "A"},
	}}
	rec = serve(f.api.HandlerUpdateStatus, request(t, http.MethodPost, "/v1/qotd/update-status",
		verification_service.VerifyRequest{QuestionTitle: "Watermelon", CodeforcesHandle: "tourist"}, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(f.api.HandlerEditorial, request(t, http.MethodPost, "/v1/qotd/editorial", body, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# Watermelon - Editorial", decode[editorialResponse](t, rec).Editorial)
}

func TestHandlerListQuestions(t *testing.T) {
	f := newFixture(t)
	f.createToday(t)

	rec := serve(f.api.HandlerListQuestions, request(t, http.MethodGet, "/v1/qotd/all?page=1&page_size=5", nil, &f.alice))
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[questionsResponse](t, rec)
	require.Len(t, page.Questions, 1)
	assert.Nil(t, page.Questions[0].Editorial)
	assert.Equal(t, int64(1), page.Pagination.Total)

	rec = serve(f.api.HandlerAdminListQuestions, request(t, http.MethodGet, "/v1/admin/questions", nil, &f.admin))
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[questionsResponse](t, rec)
	require.Len(t, page.Questions, 1)
	assert.NotNil(t, page.Questions[0].Editorial)

	rec = serve(f.api.HandlerListQuestions, request(t, http.MethodGet, "/v1/qotd/all?page=abc", nil, &f.alice))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(f.api.HandlerListQuestions, request(t, http.MethodGet, "/v1/qotd/all?date=14-10-2026", nil, &f.alice))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerAdminQuestionLifecycle(t *testing.T) {
	f := newFixture(t)
	created := f.createToday(t)
	id := created.ID.String()

	rec := serve(f.api.HandlerGetQuestionByID, withID(request(t, http.MethodGet, "/", nil, &f.admin), "not-a-uuid"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(f.api.HandlerGetQuestionByID, withID(request(t, http.MethodGet, "/", nil, &f.admin), uuid.NewString()))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	title := "Watermelon Reloaded"
	rec = serve(f.api.HandlerUpdateQuestion, withID(request(t, http.MethodPut, "/",
		question_service.UpdateQuestionRequest{Title: &title}, &f.admin), id))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, title, decode[questionResponse](t, rec).Question.Title)

	rec = serve(f.api.HandlerDeleteQuestion, withID(request(t, http.MethodDelete, "/", nil, &f.admin), id))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(f.api.HandlerGetQuestionByID, withID(request(t, http.MethodGet, "/", nil, &f.admin), id))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerQuestionOfTheDay(t *testing.T) {
	f := newFixture(t)

	rec := serve(f.api.HandlerSetQuestionOfTheDay, request(t, http.MethodPost, "/v1/admin/qotd", question_service.SetQuestionRequest{
		Title:        "Way Too Long Words",
		ContestID:    71,
		ProblemIndex: "A",
		Date:         "2026-10-20",
	}, &f.admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(f.api.HandlerGetQuestionOfTheDay, request(t, http.MethodGet, "/v1/admin/qotd?date=2026-10-20", nil, &f.admin))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Way Too Long Words", decode[questionResponse](t, rec).Question.Title)

	rec = serve(f.api.HandlerGetQuestionOfTheDay, request(t, http.MethodGet, "/v1/admin/qotd?date=2026-10-21", nil, &f.admin))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerGenerateQuestion(t *testing.T) {
	f := newFixture(t)

	rec := serve(f.api.HandlerGenerateQuestion, request(t, http.MethodPost, "/v1/admin/qotd/generate", nil, &f.admin))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[generateResponse](t, rec)
	assert.True(t, first.Created)
	assert.Equal(t, "Watermelon", first.Question.Title)
	require.NotNil(t, first.Question.Editorial)

	rec = serve(f.api.HandlerGenerateQuestion, request(t, http.MethodPost, "/v1/admin/qotd/generate", nil, &f.admin))
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode[generateResponse](t, rec)
	assert.False(t, second.Created)
	assert.Equal(t, first.Question.ID, second.Question.ID)

	f2 := newFixture(t)
	f2.judge.problems = nil
	rec = serve(f2.api.HandlerGenerateQuestion, request(t, http.MethodPost, "/v1/admin/qotd/generate", nil, &f2.admin))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandlerAnalytics(t *testing.T) {
	f := newFixture(t)
	f.createToday(t)

	rec := serve(f.api.HandlerAnalytics, request(t, http.MethodGet, "/v1/admin/analytics", nil, &f.admin))
	require.Equal(t, http.StatusOK, rec.Code)
	analytics := decode[question_service.Analytics](t, rec)
	assert.Equal(t, int64(3), analytics.TotalUsers)
	assert.Equal(t, int64(1), analytics.TotalQuestions)
	assert.Equal(t, int64(1), analytics.UsersWithHandles)
}

func TestHandlerReadiness(t *testing.T) {
	f := newFixture(t)

	rec := serve(f.api.HandlerReadiness, request(t, http.MethodGet, "/v1/healthz", nil, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[healthResponse](t, rec).Status)

	f.store.PingErr = errors.New("connection refused")
	rec = serve(f.api.HandlerReadiness, request(t, http.MethodGet, "/v1/healthz", nil, nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	health := decode[healthResponse](t, rec)
	assert.Equal(t, "unhealthy", health.Database.Status)
	assert.Equal(t, "healthy", health.Cache.Status)
}

func TestHandlerError(t *testing.T) {
	cases := map[error]int{
		qotd_errors.ErrInvalidRequest:      http.StatusBadRequest,
		qotd_errors.ErrUnAuthenticated:     http.StatusUnauthorized,
		qotd_errors.ErrUnAuthorized:        http.StatusForbidden,
		qotd_errors.ErrNotFound:            http.StatusNotFound,
		qotd_errors.ErrEntityAlreadyExist:  http.StatusConflict,
		qotd_errors.ErrNoCandidateProblems: http.StatusServiceUnavailable,
		qotd_errors.ErrUpstreamUnavailable: http.StatusBadGateway,
		errors.New("boom"):                 http.StatusInternalServerError,
	}
	for err, code := range cases {
		rec := httptest.NewRecorder()
		handlerError(fmt.Errorf("%w, wrapped", err), rec)
		assert.Equal(t, code, rec.Code, err.Error())
	}
}
