package scheduler_service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tcp_snm/qotd/internal/database"
	"github.com/tcp_snm/qotd/internal/metrics"
	"github.com/tcp_snm/qotd/internal/qotd_errors"
	"github.com/tcp_snm/qotd/internal/service"
	"github.com/tcp_snm/qotd/internal/service/codeforces_service"
	"github.com/tcp_snm/qotd/internal/service/editorial_service"
)

var (
	errMsgs = map[string]map[string]string{
		qotd_errors.CodeUniqueConstraint: {
			database.ConstraintQuestionsDate: "a question for this date already exists",
		},
	}
)

// EnsureTodaysQuestion publishes a question for today unless one exists.
// Concurrent callers are safe: the date unique constraint admits a single
// insert and every loser returns the winner's row with Created false.
func (s *Scheduler) EnsureTodaysQuestion(ctx context.Context) (EnsureResult, error) {
	s.init()

	today := service.DateOf(s.Clock.Now(), s.Location)
	logger := s.logger.WithField("date", today.Format(service.DateLayout))

	existing, err := s.DB.GetQuestionByDate(ctx, today)
	if err == nil {
		return EnsureResult{Created: false, Question: existing}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return EnsureResult{}, qotd_errors.HandleDBErrors(err, errMsgs, "cannot check today's question")
	}

	// select
	problem, err := s.pickProblem(ctx)
	if err != nil {
		return EnsureResult{}, err
	}
	logger = logger.WithField("problem", fmt.Sprintf("%d%s", problem.ContestID, problem.Index))
	logger.Infof("picked %q with rating %v", problem.Name, problem.Rating)

	link := codeforces_service.ProblemLink(problem.ContestID, problem.Index)

	// enrich
	editorial := s.buildEditorial(ctx, problem, link)

	// persist
	question, err := s.DB.InsertQuestion(ctx, database.InsertQuestionParams{
		ID:           uuid.New(),
		Title:        problem.Name,
		ContestID:    problem.ContestID,
		ProblemIndex: problem.Index,
		Link:         link,
		Rating:       problem.Rating,
		Date:         today,
		Editorial:    &editorial,
	})
	if qotd_errors.IsUniqueViolation(err, database.ConstraintQuestionsDate) {
		// another writer won the race for today
		logger.Info("today's question was inserted concurrently, using the stored one")
		winner, err := s.DB.GetQuestionByDate(ctx, today)
		if err != nil {
			return EnsureResult{}, qotd_errors.HandleDBErrors(err, errMsgs, "cannot read concurrently inserted question")
		}
		return EnsureResult{Created: false, Question: winner}, nil
	}
	if err != nil {
		return EnsureResult{}, qotd_errors.HandleDBErrors(err, errMsgs, "cannot insert today's question")
	}

	return EnsureResult{Created: true, Question: question}, nil
}

func (s *Scheduler) pickProblem(ctx context.Context) (codeforces_service.Problem, error) {
	problems, err := s.Judge.FetchProblemset(ctx)
	if err != nil {
		return codeforces_service.Problem{}, err
	}

	candidates := FilterByRating(problems, s.MinRating, s.MaxRating)
	if s.CandidateFilter != nil {
		candidates = s.CandidateFilter(ctx, candidates)
	}

	if len(candidates) == 0 {
		err = fmt.Errorf(
			"%w, none of %v problems is rated in [%v, %v]",
			qotd_errors.ErrNoCandidateProblems,
			len(problems),
			s.MinRating,
			s.MaxRating,
		)
		return codeforces_service.Problem{}, err
	}

	i, err := s.Pick(len(candidates))
	if err != nil {
		return codeforces_service.Problem{}, err
	}
	if i < 0 || i >= len(candidates) {
		err = fmt.Errorf("%w, pick %v out of range for %v candidates", qotd_errors.ErrInternal, i, len(candidates))
		s.logger.Error(err)
		return codeforces_service.Problem{}, err
	}
	return candidates[i], nil
}

// buildEditorial never fails: any missing piece falls back to the template.
func (s *Scheduler) buildEditorial(ctx context.Context, problem codeforces_service.Problem, link string) string {
	statement := s.Content.FetchStatement(ctx, problem.ContestID, problem.Index)
	if statement == "" {
		s.logger.Warnf("no statement for %v, using fallback editorial", link)
		metrics.EditorialSource.WithLabelValues(sourceFallback).Inc()
		return editorial_service.Fallback(link)
	}

	editorial, ok := s.Editorial.Generate(ctx, statement, problem.Name, problem.Rating)
	if !ok {
		s.logger.Warnf("editorial generation failed for %v, using fallback editorial", link)
		metrics.EditorialSource.WithLabelValues(sourceFallback).Inc()
		return editorial_service.Fallback(link)
	}

	metrics.EditorialSource.WithLabelValues(sourceGenerated).Inc()
	return editorial
}

// FilterByRating keeps problems rated within [minRating, maxRating] that
// carry both a contest id and an index.
func FilterByRating(
	problems []codeforces_service.Problem,
	minRating int32,
	maxRating int32,
) []codeforces_service.Problem {
	res := make([]codeforces_service.Problem, 0)
	for _, p := range problems {
		if p.ContestID == 0 || p.Index == "" {
			continue
		}
		if p.Rating < minRating || p.Rating > maxRating {
			continue
		}
		res = append(res, p)
	}
	return res
}
