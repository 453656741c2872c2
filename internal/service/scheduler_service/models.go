package scheduler_service

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/tcp_snm/qotd/internal/database"
	"github.com/tcp_snm/qotd/internal/service"
	"github.com/tcp_snm/qotd/internal/service/codeforces_service"
)

const (
	TriggerStartup = "startup"
	TriggerCron    = "cron"
	TriggerManual  = "manual"

	defaultCycleTimeout = 2 * time.Minute

	resultCreated      = "created"
	resultExisting     = "existing"
	resultNoCandidates = "no_candidates"
	resultFailed       = "failed"

	sourceGenerated = "generated"
	sourceFallback  = "fallback"
)

type ProblemSource interface {
	FetchProblemset(ctx context.Context) ([]codeforces_service.Problem, error)
}

type StatementFetcher interface {
	FetchStatement(ctx context.Context, contestID int32, index string) string
}

type EditorialGenerator interface {
	Generate(ctx context.Context, statement string, title string, rating int32) (string, bool)
}

// Alerter is told about cycles that ended without a question for today.
type Alerter interface {
	AlertManagers(ctx context.Context, subject string, body string) error
}

// CandidateFilter narrows the rating-filtered problems before the random
// pick, e.g. to avoid recently used problems.
type CandidateFilter func(ctx context.Context, candidates []codeforces_service.Problem) []codeforces_service.Problem

type EnsureResult struct {
	Created  bool
	Question database.Question
}

// Scheduler owns the publication of the daily question: the check at
// startup, the recurring cron timer and manual runs.
type Scheduler struct {
	DB        database.Store
	Judge     ProblemSource
	Content   StatementFetcher
	Editorial EditorialGenerator
	Alerter   Alerter

	MinRating int32
	MaxRating int32
	Location  *time.Location
	Clock     service.Clock

	CycleTimeout time.Duration
	Enabled      bool
	CronSchedule string

	CandidateFilter CandidateFilter
	// Pick returns an index in [0, n). Defaults to a crypto random pick.
	Pick func(n int) (int, error)

	initOnce sync.Once
	mu       sync.Mutex
	cron     *cron.Cron
	stopped  bool
	logger   *logrus.Entry
}
