package question_service

import (
	"context"
	"fmt"

	"github.com/tcp_snm/qotd/internal/database"
	"github.com/tcp_snm/qotd/internal/qotd_errors"
)

func (q *QuestionService) GetAnalytics(ctx context.Context) (Analytics, error) {
	var res Analytics
	var err error

	if res.TotalUsers, err = q.DB.CountUsers(ctx, false); err != nil {
		return Analytics{}, qotd_errors.HandleDBErrors(err, errMsgs, "cannot count users")
	}
	if res.UsersWithHandles, err = q.DB.CountUsers(ctx, true); err != nil {
		return Analytics{}, qotd_errors.HandleDBErrors(err, errMsgs, "cannot count users with handles")
	}
	if res.TotalQuestions, err = q.DB.CountQuestions(ctx, nil); err != nil {
		return Analytics{}, qotd_errors.HandleDBErrors(err, errMsgs, "cannot count questions")
	}
	if res.TotalSubmissions, err = q.DB.CountSubmissions(ctx, nil); err != nil {
		return Analytics{}, qotd_errors.HandleDBErrors(err, errMsgs, "cannot count submissions")
	}

	accepted := database.SubmissionStatusAccepted
	if res.AcceptedSubmissions, err = q.DB.CountSubmissions(ctx, &accepted); err != nil {
		return Analytics{}, qotd_errors.HandleDBErrors(err, errMsgs, "cannot count accepted submissions")
	}

	res.AcceptanceRate = acceptanceRate(res.AcceptedSubmissions, res.TotalSubmissions)
	return res, nil
}

func acceptanceRate(accepted, total int64) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", float64(accepted)*100/float64(total))
}
