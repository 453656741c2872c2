package scheduler_service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tcp_snm/qotd/internal/database"
	"github.com/tcp_snm/qotd/internal/database/memstore"
	"github.com/tcp_snm/qotd/internal/qotd_errors"
	"github.com/tcp_snm/qotd/internal/service/codeforces_service"
	"github.com/tcp_snm/qotd/internal/service/editorial_service"
)

type fakeJudge struct {
	problems []codeforces_service.Problem
	err      error
	calls    atomic.Int32
}

func (f *fakeJudge) FetchProblemset(ctx context.Context) ([]codeforces_service.Problem, error) {
	f.calls.Add(1)
	return f.problems, f.err
}

type fakeContent struct {
	statement string
}

func (f *fakeContent) FetchStatement(ctx context.Context, contestID int32, index string) string {
	return f.statement
}

type fakeEditorial struct {
	editorial string
	ok        bool
	calls     atomic.Int32
}

func (f *fakeEditorial) Generate(ctx context.Context, statement, title string, rating int32) (string, bool) {
	f.calls.Add(1)
	return f.editorial, f.ok
}

type fakeAlerter struct {
	mu       sync.Mutex
	subjects []string
}

func (f *fakeAlerter) AlertManagers(ctx context.Context, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	return nil
}

func (f *fakeAlerter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subjects)
}

var testNow = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

type fixture struct {
	scheduler *Scheduler
	store     *memstore.Store
	judge     *fakeJudge
	content   *fakeContent
	editorial *fakeEditorial
	alerter   *fakeAlerter
}

func newFixture(problems ...codeforces_service.Problem) *fixture {
	f := &fixture{
		store:     memstore.New(),
		judge:     &fakeJudge{problems: problems},
		content:   &fakeContent{statement: "You are given n integers."},
		editorial: &fakeEditorial{editorial: "# Generated - Editorial", ok: true},
		alerter:   &fakeAlerter{},
	}
	f.scheduler = &Scheduler{
		DB:           f.store,
		Judge:        f.judge,
		Content:      f.content,
		Editorial:    f.editorial,
		Alerter:      f.alerter,
		MinRating:    800,
		MaxRating:    1200,
		Location:     time.UTC,
		Clock:        func() time.Time { return testNow },
		CycleTimeout: 5 * time.Second,
		CronSchedule: "0 0 * * *",
	}
	return f
}

func problem(contestID int32, index string, rating int32) codeforces_service.Problem {
	return codeforces_service.Problem{
		ContestID: contestID,
		Index:     index,
		Name:      "Problem " + index,
		Rating:    rating,
	}
}

func TestFilterByRating(t *testing.T) {
	problems := []codeforces_service.Problem{
		problem(1, "A", 700),
		problem(2, "B", 800),
		problem(3, "C", 1300),
		problem(4, "D", 1100),
		problem(0, "E", 900),
		problem(5, "", 900),
	}

	got := FilterByRating(problems, 800, 1200)
	require.Len(t, got, 2)
	assert.Equal(t, int32(800), got[0].Rating)
	assert.Equal(t, int32(1100), got[1].Rating)
}

func TestEnsureTodaysQuestionPicksWithinRange(t *testing.T) {
	f := newFixture(problem(1, "A", 700), problem(2, "B", 800), problem(3, "C", 1300), problem(4, "D", 1100))

	var seen int
	f.scheduler.Pick = func(n int) (int, error) {
		seen = n
		return n - 1, nil
	}

	res, err := f.scheduler.EnsureTodaysQuestion(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, 2, seen)

	q := res.Question
	assert.Equal(t, int32(1100), q.Rating)
	assert.Equal(t, int32(4), q.ContestID)
	assert.Equal(t, "D", q.ProblemIndex)
	assert.Equal(t, "https://codeforces.com/contest/4/problem/D", q.Link)
	assert.Equal(t, time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), q.Date)
	require.NotNil(t, q.Editorial)
	assert.Equal(t, "# Generated - Editorial", *q.Editorial)
}

func TestEnsureTodaysQuestionIsIdempotent(t *testing.T) {
	f := newFixture(problem(1, "A", 800), problem(2, "B", 900))
	ctx := context.Background()

	first, err := f.scheduler.EnsureTodaysQuestion(ctx)
	require.NoError(t, err)
	require.True(t, first.Created)

	second, err := f.scheduler.EnsureTodaysQuestion(ctx)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Question.ID, second.Question.ID)

	assert.Len(t, f.store.Questions(), 1)
	assert.Equal(t, int32(1), f.judge.calls.Load())
}

func TestEnsureTodaysQuestionConcurrentCallers(t *testing.T) {
	f := newFixture(problem(1, "A", 800), problem(2, "B", 900), problem(3, "C", 1000))
	ctx := context.Background()

	const callers = 16
	var wg sync.WaitGroup
	var created atomic.Int32
	ids := make([]uuid.UUID, callers)
	errs := make([]error, callers)

	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			res, err := f.scheduler.EnsureTodaysQuestion(ctx)
			errs[i] = err
			ids[i] = res.Question.ID
			if res.Created {
				created.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, int32(1), created.Load())
	assert.Len(t, f.store.Questions(), 1)
}

func TestEnsureTodaysQuestionLosesInsertRace(t *testing.T) {
	f := newFixture(problem(1, "A", 800))
	ctx := context.Background()

	winnerID := uuid.New()
	f.store.OnInsertQuestion = func(arg database.InsertQuestionParams) {
		f.store.OnInsertQuestion = nil
		_, err := f.store.InsertQuestion(ctx, database.InsertQuestionParams{
			ID:           winnerID,
			Title:        "Winner",
			ContestID:    9,
			ProblemIndex: "Z",
			Date:         arg.Date,
		})
		require.NoError(t, err)
	}

	res, err := f.scheduler.EnsureTodaysQuestion(ctx)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, winnerID, res.Question.ID)
	assert.Len(t, f.store.Questions(), 1)
}

func TestEnsureTodaysQuestionFallbackWithoutStatement(t *testing.T) {
	f := newFixture(problem(4, "A", 800))
	f.content.statement = ""

	res, err := f.scheduler.EnsureTodaysQuestion(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.Question.Editorial)
	assert.Equal(t, editorial_service.Fallback("https://codeforces.com/contest/4/problem/A"), *res.Question.Editorial)
	assert.Equal(t, int32(0), f.editorial.calls.Load())
}

func TestEnsureTodaysQuestionFallbackWhenGenerationFails(t *testing.T) {
	f := newFixture(problem(4, "A", 800))
	f.editorial.ok = false

	res, err := f.scheduler.EnsureTodaysQuestion(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.Question.Editorial)
	assert.Contains(t, *res.Question.Editorial, "# Editorial Not Available")
	assert.Equal(t, int32(1), f.editorial.calls.Load())
}

func TestEnsureTodaysQuestionNoCandidates(t *testing.T) {
	f := newFixture(problem(1, "A", 700), problem(2, "B", 3000))

	_, err := f.scheduler.RunCycle(context.Background(), TriggerManual)
	assert.ErrorIs(t, err, qotd_errors.ErrNoCandidateProblems)
	assert.Empty(t, f.store.Questions())
	assert.Equal(t, 1, f.alerter.count())
}

func TestEnsureTodaysQuestionUpstreamFailure(t *testing.T) {
	f := newFixture()
	f.judge.err = qotd_errors.ErrUpstreamUnavailable

	_, err := f.scheduler.RunCycle(context.Background(), TriggerManual)
	assert.ErrorIs(t, err, qotd_errors.ErrUpstreamUnavailable)
	assert.Empty(t, f.store.Questions())
	assert.Equal(t, 1, f.alerter.count())
}

func TestCandidateFilter(t *testing.T) {
	f := newFixture(problem(1, "A", 800), problem(2, "B", 900))
	f.scheduler.CandidateFilter = func(ctx context.Context, c []codeforces_service.Problem) []codeforces_service.Problem {
		return c[1:]
	}

	res, err := f.scheduler.EnsureTodaysQuestion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "B", res.Question.ProblemIndex)
}

func TestDateFollowsLocation(t *testing.T) {
	f := newFixture(problem(1, "A", 800))
	f.scheduler.Location = time.FixedZone("IST", 5*3600+1800)
	f.scheduler.Clock = func() time.Time { return time.Date(2026, 10, 14, 20, 0, 0, 0, time.UTC) }

	res, err := f.scheduler.EnsureTodaysQuestion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), res.Question.Date)
}

func TestStartRunsStartupCheckWithoutTimer(t *testing.T) {
	f := newFixture(problem(1, "A", 800))

	f.scheduler.Start(context.Background())
	defer f.scheduler.Stop()

	assert.Len(t, f.store.Questions(), 1)
	assert.False(t, f.scheduler.TimerInstalled())
}

func TestStartInstallsTimerWhenEnabled(t *testing.T) {
	f := newFixture(problem(1, "A", 800))
	f.scheduler.Enabled = true

	f.scheduler.Start(context.Background())
	assert.Len(t, f.store.Questions(), 1)
	assert.True(t, f.scheduler.TimerInstalled())

	done := make(chan struct{})
	go func() {
		f.scheduler.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked")
	}
	assert.False(t, f.scheduler.TimerInstalled())
}

func TestTimerRunsCyclesUntilStopped(t *testing.T) {
	// nothing in range, so every cycle reaches the judge
	f := newFixture(problem(1, "A", 3000))
	f.scheduler.Enabled = true
	f.scheduler.CronSchedule = "@every 1s"

	f.scheduler.Start(context.Background())
	require.Equal(t, int32(1), f.judge.calls.Load())
	require.True(t, f.scheduler.TimerInstalled())

	assert.Eventually(t, func() bool {
		return f.judge.calls.Load() > 1
	}, 3*time.Second, 50*time.Millisecond)

	f.scheduler.Stop()
	// let a cycle that already fired finish
	time.Sleep(200 * time.Millisecond)
	afterStop := f.judge.calls.Load()

	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, afterStop, f.judge.calls.Load())
	assert.GreaterOrEqual(t, f.alerter.count(), 2)
	assert.Empty(t, f.store.Questions())
}

func TestStartWithInvalidSchedule(t *testing.T) {
	f := newFixture(problem(1, "A", 800))
	f.scheduler.Enabled = true
	f.scheduler.CronSchedule = "every day at noon"

	f.scheduler.Start(context.Background())
	defer f.scheduler.Stop()

	// the startup check still ran
	assert.Len(t, f.store.Questions(), 1)
	assert.False(t, f.scheduler.TimerInstalled())
}

func TestStopBeforeStartPreventsTimer(t *testing.T) {
	f := newFixture(problem(1, "A", 800))
	f.scheduler.Enabled = true

	f.scheduler.Stop()
	f.scheduler.Start(context.Background())

	assert.False(t, f.scheduler.TimerInstalled())
}
