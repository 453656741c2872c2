package question_service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tcp_snm/qotd/internal/database"
	"github.com/tcp_snm/qotd/internal/qotd_errors"
	"github.com/tcp_snm/qotd/internal/service"
	"github.com/tcp_snm/qotd/internal/service/codeforces_service"
)

// CreateQuestion adds a question for a date that has none yet.
func (q *QuestionService) CreateQuestion(
	ctx context.Context,
	request CreateQuestionRequest,
) (Question, error) {
	if err := service.ValidateInput(request); err != nil {
		return Question{}, err
	}

	date, err := q.resolveDate(request.Date)
	if err != nil {
		return Question{}, err
	}

	link := request.Link
	if link == "" {
		link = codeforces_service.ProblemLink(request.ContestID, request.ProblemIndex)
	}

	// uq_questions_date rejects a second question for the same date
	dbQuestion, err := q.DB.InsertQuestion(ctx, database.InsertQuestionParams{
		ID:           uuid.New(),
		Title:        request.Title,
		ContestID:    request.ContestID,
		ProblemIndex: request.ProblemIndex,
		Link:         link,
		Rating:       request.Rating,
		Date:         date,
		Editorial:    request.Editorial,
	})
	if err != nil {
		err = qotd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("cannot create question %q", request.Title),
		)
		return Question{}, err
	}

	q.logger.WithField("date", dbQuestion.Date.Format(service.DateLayout)).
		Infof("question %v created", dbQuestion.ID)
	return toQuestion(dbQuestion, true), nil
}

// SetQuestionOfTheDay creates or replaces the question of a date. The stored
// rating and editorial survive when the request leaves them out.
func (q *QuestionService) SetQuestionOfTheDay(
	ctx context.Context,
	request SetQuestionRequest,
) (Question, error) {
	if err := service.ValidateInput(request); err != nil {
		return Question{}, err
	}

	date, err := q.resolveDate(request.Date)
	if err != nil {
		return Question{}, err
	}

	link := request.Link
	if link == "" {
		link = codeforces_service.ProblemLink(request.ContestID, request.ProblemIndex)
	}

	var dbQuestion database.Question
	err = q.DB.ExecTx(ctx, func(qtx database.Querier) error {
		existing, err := qtx.GetQuestionByDate(ctx, date)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		exists := err == nil

		rating := int32(0)
		if request.Rating != nil {
			rating = *request.Rating
		} else if exists {
			rating = existing.Rating
		}

		editorial := request.Editorial
		if editorial == nil && exists {
			editorial = existing.Editorial
		}

		dbQuestion, err = qtx.UpsertQuestionByDate(ctx, database.InsertQuestionParams{
			ID:           uuid.New(),
			Title:        request.Title,
			ContestID:    request.ContestID,
			ProblemIndex: request.ProblemIndex,
			Link:         link,
			Rating:       rating,
			Date:         date,
			Editorial:    editorial,
		})
		return err
	})
	if err != nil {
		err = qotd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("cannot set question of the day for %s", date.Format(service.DateLayout)),
		)
		return Question{}, err
	}

	q.logger.WithField("date", dbQuestion.Date.Format(service.DateLayout)).
		Infof("question of the day set to %v", dbQuestion.ID)
	return toQuestion(dbQuestion, true), nil
}

// UpdateQuestion applies a partial update. Moving a question onto a date
// that already has one fails with ErrEntityAlreadyExist.
func (q *QuestionService) UpdateQuestion(
	ctx context.Context,
	id uuid.UUID,
	request UpdateQuestionRequest,
) (Question, error) {
	if err := service.ValidateInput(request); err != nil {
		return Question{}, err
	}

	var dbQuestion database.Question
	err := q.DB.ExecTx(ctx, func(qtx database.Querier) error {
		existing, err := qtx.GetQuestionByID(ctx, id)
		if err != nil {
			return err
		}

		params := database.UpdateQuestionParams{
			ID:           existing.ID,
			Title:        existing.Title,
			ContestID:    existing.ContestID,
			ProblemIndex: existing.ProblemIndex,
			Link:         existing.Link,
			Rating:       existing.Rating,
			Date:         existing.Date,
			Editorial:    existing.Editorial,
		}
		if request.Title != nil {
			params.Title = *request.Title
		}
		if request.ContestID != nil {
			params.ContestID = *request.ContestID
		}
		if request.ProblemIndex != nil {
			params.ProblemIndex = *request.ProblemIndex
		}
		if request.Link != nil {
			params.Link = *request.Link
		}
		if request.Rating != nil {
			params.Rating = *request.Rating
		}
		if request.Editorial != nil {
			params.Editorial = request.Editorial
		}
		if request.Date != nil {
			date, err := service.ParseDate(*request.Date)
			if err != nil {
				return err
			}
			params.Date = date
		}

		dbQuestion, err = qtx.UpdateQuestion(ctx, params)
		return err
	})
	if errors.Is(err, qotd_errors.ErrInvalidRequest) {
		return Question{}, err
	}
	if err != nil {
		err = qotd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("cannot update question with id %v", id),
		)
		return Question{}, err
	}

	q.logger.Infof("question %v updated", id)
	return toQuestion(dbQuestion, true), nil
}

// DeleteQuestion removes a question together with its submissions in one
// transaction.
func (q *QuestionService) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	var deletedSubs int64
	err := q.DB.ExecTx(ctx, func(qtx database.Querier) error {
		var err error
		deletedSubs, err = qtx.DeleteSubmissionsByQuestion(ctx, id)
		if err != nil {
			return err
		}

		count, err := qtx.DeleteQuestion(ctx, id)
		if err != nil {
			return err
		}
		if count == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
	if err != nil {
		err = qotd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("cannot delete question with id %v", id),
		)
		return err
	}

	q.logger.Infof("question %v deleted with %v submissions", id, deletedSubs)
	return nil
}
