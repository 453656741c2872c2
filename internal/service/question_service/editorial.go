package question_service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tcp_snm/qotd/internal/database"
	"github.com/tcp_snm/qotd/internal/qotd_errors"
	"github.com/tcp_snm/qotd/internal/service"
)

// GetEditorialIfAllowed unlocks the editorial of a question for a user who
// solved it. Editorials of past questions are open to everyone.
func (q *QuestionService) GetEditorialIfAllowed(
	ctx context.Context,
	request EditorialRequest,
) (string, error) {
	if err := service.ValidateInput(request); err != nil {
		return "", err
	}

	user, err := q.DB.GetUserByCodeforcesHandle(ctx, request.CodeforcesHandle)
	if err != nil {
		err = qotd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("user with handle %q not found", request.CodeforcesHandle),
		)
		return "", err
	}

	question, err := q.DB.GetQuestionByTitle(ctx, request.QuestionTitle, q.today())
	if err != nil {
		err = qotd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("question %q not found", request.QuestionTitle),
		)
		return "", err
	}

	solved := false
	sub, err := q.DB.GetSubmission(ctx, user.ID, question.ID)
	switch {
	case err == nil:
		solved = sub.Status == database.SubmissionStatusAccepted
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return "", qotd_errors.HandleDBErrors(err, errMsgs, "cannot get submission for editorial")
	}

	isToday := service.SameDate(question.Date, q.today())
	if !solved && isToday {
		err = fmt.Errorf(
			"%w, editorial locked, solve the question to view it",
			qotd_errors.ErrUnAuthorized,
		)
		q.logger.WithField("user_id", user.ID).Debug(err)
		return "", err
	}

	if question.Editorial == nil || *question.Editorial == "" {
		return NoEditorialMessage, nil
	}
	return *question.Editorial, nil
}
