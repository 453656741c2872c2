package leaderboard_service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tcp_snm/qotd/internal/cache"
	"github.com/tcp_snm/qotd/internal/database"
	"github.com/tcp_snm/qotd/internal/metrics"
	"github.com/tcp_snm/qotd/internal/qotd_errors"
	"golang.org/x/sync/singleflight"
)

const (
	CacheKey   = "leaderboard"
	MaxEntries = 10
	DefaultTTL = 5 * time.Minute
)

var (
	errMsgs = make(map[string]map[string]string)
)

type LeaderboardEntry struct {
	UserID           uuid.UUID `json:"user_id"`
	UserName         string    `json:"user_name"`
	CodeforcesHandle *string   `json:"codeforces_handle"`
	Points           int64     `json:"points"`
}

// LeaderboardService ranks users by the points of their accepted
// submissions. The ranking is cached for TTL and recomputed on a miss; it is
// not invalidated when new points are credited.
type LeaderboardService struct {
	DB    database.Store
	Cache cache.Cache
	TTL   time.Duration

	group  singleflight.Group
	logger *logrus.Entry
}

func (l *LeaderboardService) Start() {
	if l.DB == nil {
		panic("leaderboard service expects non-nil db")
	}
	if l.Cache == nil {
		l.Cache = cache.NopCache{}
	}
	if l.TTL <= 0 {
		l.TTL = DefaultTTL
	}
	l.logger = logrus.WithFields(logrus.Fields{
		"from": "leaderboard_service",
	})
}

// GetTop returns the first min(n, 10) entries of the ranking.
func (l *LeaderboardService) GetTop(ctx context.Context, n int) ([]LeaderboardEntry, error) {
	if n <= 0 || n > MaxEntries {
		n = MaxEntries
	}

	if entries, ok := l.fromCache(ctx); ok {
		metrics.LeaderboardCache.WithLabelValues("hit").Inc()
		return truncate(entries, n), nil
	}
	metrics.LeaderboardCache.WithLabelValues("miss").Inc()

	// concurrent misses share one recomputation, detached from the
	// cancellation of whichever caller started it
	shared := context.WithoutCancel(ctx)
	res, err, _ := l.group.Do(CacheKey, func() (any, error) {
		entries, err := l.compute(shared)
		if err != nil {
			return nil, err
		}
		l.toCache(shared, entries)
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return truncate(res.([]LeaderboardEntry), n), nil
}

func (l *LeaderboardService) compute(ctx context.Context) ([]LeaderboardEntry, error) {
	scores, err := l.DB.ListAcceptedSubmissionScores(ctx)
	if err != nil {
		return nil, qotd_errors.HandleDBErrors(err, errMsgs, "cannot load accepted submissions")
	}
	return Rank(scores), nil
}

// Rank sums scores per user, drops users without points and keeps the best
// MaxEntries in descending order. Ties keep their first-seen order.
func Rank(scores []database.AcceptedSubmissionScore) []LeaderboardEntry {
	index := make(map[uuid.UUID]int)
	entries := make([]LeaderboardEntry, 0)
	for _, score := range scores {
		i, ok := index[score.UserID]
		if !ok {
			i = len(entries)
			index[score.UserID] = i
			entries = append(entries, LeaderboardEntry{
				UserID:           score.UserID,
				UserName:         score.UserName,
				CodeforcesHandle: score.CodeforcesHandle,
			})
		}
		entries[i].Points += int64(score.Score)
	}

	ranked := make([]LeaderboardEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Points > 0 {
			ranked = append(ranked, entry)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Points > ranked[j].Points })

	return truncate(ranked, MaxEntries)
}

func (l *LeaderboardService) fromCache(ctx context.Context) ([]LeaderboardEntry, bool) {
	raw, ok := l.Cache.Get(ctx, CacheKey)
	if !ok {
		return nil, false
	}
	var entries []LeaderboardEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		l.logger.Debugf("dropping undecodable cached leaderboard, %v", err)
		l.Cache.Delete(ctx, CacheKey)
		return nil, false
	}
	return entries, true
}

func (l *LeaderboardService) toCache(ctx context.Context, entries []LeaderboardEntry) {
	raw, err := json.Marshal(entries)
	if err != nil {
		l.logger.Debugf("cannot encode leaderboard for cache, %v", err)
		return
	}
	l.Cache.Set(ctx, CacheKey, string(raw), l.TTL)
}

func truncate(entries []LeaderboardEntry, n int) []LeaderboardEntry {
	if len(entries) > n {
		return entries[:n]
	}
	return entries
}
