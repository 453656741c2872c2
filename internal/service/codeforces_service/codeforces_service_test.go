package codeforces_service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tcp_snm/qotd/internal/qotd_errors"
	"golang.org/x/time/rate"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *CodeforcesService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := &CodeforcesService{
		ApiUrl:     srv.URL + "/api",
		HttpClient: &http.Client{Timeout: 2 * time.Second},
		Limiter:    rate.NewLimiter(rate.Inf, 1),
	}
	c.Start()
	return c
}

func TestFetchProblemset(t *testing.T) {
	c := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/problemset.problems", r.URL.Path)
		w.Write([]byte(`{"status":"OK","result":{"problems":[
			{"contestId":1,"index":"A","name":"Theatre Square","rating":1000},
			{"contestId":2,"index":"B","name":"No Rating"}
		]}}`))
	})

	problems, err := c.FetchProblemset(context.Background())
	require.NoError(t, err)
	require.Len(t, problems, 2)
	assert.Equal(t, Problem{ContestID: 1, Index: "A", Name: "Theatre Square", Rating: 1000}, problems[0])
	assert.Equal(t, int32(0), problems[1].Rating)
}

func TestFetchUserStatus(t *testing.T) {
	c := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/user.status", r.URL.Path)
		assert.Equal(t, "tourist", r.URL.Query().Get("handle"))
		assert.Equal(t, "5", r.URL.Query().Get("count"))
		w.Write([]byte(`{"status":"OK","result":[
			{"id":99,"contestId":1,"creationTimeSeconds":1700000000,"verdict":"OK",
			 "programmingLanguage":"GNU C++17","problem":{"contestId":1,"index":"A","name":"Theatre Square"}}
		]}`))
	})

	subs, err := c.FetchUserStatus(context.Background(), "tourist", 5)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, VerdictOK, subs[0].Verdict)
	assert.Equal(t, "A", subs[0].Problem.Index)
	assert.Equal(t, "https://codeforces.com/contest/1/submission/99", subs[0].Link())
	assert.Equal(t, int64(1700000000), subs[0].CreatedAt().Unix())
}

func TestFailedStatusIsUpstreamError(t *testing.T) {
	c := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"FAILED","comment":"handle: User with handle nobody not found"}`))
	})

	_, err := c.FetchUserStatus(context.Background(), "nobody", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, qotd_errors.ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, qotd_errors.ErrHttpResponse)

	var failed *FailedStatusError
	require.ErrorAs(t, err, &failed)
	assert.Contains(t, failed.Comment, "not found")
}

func TestMalformedBodyIsUpstreamError(t *testing.T) {
	c := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>cloudflare</html>`))
	})

	_, err := c.FetchProblemset(context.Background())
	assert.ErrorIs(t, err, qotd_errors.ErrUpstreamUnavailable)
}

func TestUnreachableIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := &CodeforcesService{
		ApiUrl:     addr,
		HttpClient: &http.Client{Timeout: time.Second},
		Limiter:    rate.NewLimiter(rate.Inf, 1),
	}
	c.Start()

	_, err := c.FetchProblemset(context.Background())
	assert.ErrorIs(t, err, qotd_errors.ErrUpstreamUnavailable)
}

func TestUserExists(t *testing.T) {
	c := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("handles") == "tourist" {
			w.Write([]byte(`{"status":"OK","result":[{"handle":"tourist","rating":3800}]}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"FAILED","comment":"handles: User with handle ghost not found"}`))
	})

	ok, err := c.UserExists(context.Background(), "tourist")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.UserExists(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProblemLink(t *testing.T) {
	assert.Equal(t, "https://codeforces.com/contest/1520/problem/B1", ProblemLink(1520, "B1"))
}
