package question_service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tcp_snm/qotd/internal/database"
	"github.com/tcp_snm/qotd/internal/qotd_errors"
	"github.com/tcp_snm/qotd/internal/service"
)

func (q *QuestionService) Start() {
	if q.DB == nil {
		panic("question service expects non-nil db")
	}
	if q.Location == nil {
		q.Location = time.Local
	}
	q.logger = logrus.WithFields(logrus.Fields{
		"from": "question_service",
	})
}

func (q *QuestionService) today() time.Time {
	return service.DateOf(q.Clock.Now(), q.Location)
}

// resolveDate parses an optional YYYY-MM-DD value, defaulting to today.
func (q *QuestionService) resolveDate(value string) (time.Time, error) {
	if value == "" {
		return q.today(), nil
	}
	return service.ParseDate(value)
}

func (q *QuestionService) GetTodaysQuestion(ctx context.Context) (Question, error) {
	today := q.today()
	dbQuestion, err := q.DB.GetQuestionByDate(ctx, today)
	if err != nil {
		err = qotd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("no question available for %s", today.Format(service.DateLayout)),
		)
		return Question{}, err
	}

	// the editorial is gated, see GetEditorialIfAllowed
	return toQuestion(dbQuestion, false), nil
}

func (q *QuestionService) GetQuestionByID(ctx context.Context, id uuid.UUID) (Question, error) {
	dbQuestion, err := q.DB.GetQuestionByID(ctx, id)
	if err != nil {
		err = qotd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("cannot get question with id %v", id),
		)
		return Question{}, err
	}
	return toQuestion(dbQuestion, true), nil
}

// GetQuestionOfTheDay returns the question scheduled for date, or today when
// date is empty.
func (q *QuestionService) GetQuestionOfTheDay(ctx context.Context, date string) (Question, error) {
	qotdDate, err := q.resolveDate(date)
	if err != nil {
		return Question{}, err
	}

	dbQuestion, err := q.DB.GetQuestionByDate(ctx, qotdDate)
	if err != nil {
		err = qotd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("no question of the day set for %s", qotdDate.Format(service.DateLayout)),
		)
		return Question{}, err
	}
	return toQuestion(dbQuestion, true), nil
}

// ListQuestions returns questions newest first. The editorials are left out
// unless withEditorials is set.
func (q *QuestionService) ListQuestions(
	ctx context.Context,
	request ListQuestionsRequest,
	withEditorials bool,
) (QuestionPage, error) {
	if err := service.ValidateInput(request); err != nil {
		return QuestionPage{}, err
	}

	page, pageSize := request.Page, request.PageSize
	if page == 0 {
		page = defaultPage
	}
	if pageSize == 0 {
		pageSize = defaultPageSize
	}

	var datePtr *time.Time
	if request.Date != "" {
		date, err := service.ParseDate(request.Date)
		if err != nil {
			return QuestionPage{}, err
		}
		datePtr = &date
	}

	dbQuestions, err := q.DB.ListQuestions(ctx, database.ListQuestionsParams{
		Date:   datePtr,
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		return QuestionPage{}, qotd_errors.HandleDBErrors(err, errMsgs, "cannot list questions")
	}

	total, err := q.DB.CountQuestions(ctx, datePtr)
	if err != nil {
		return QuestionPage{}, qotd_errors.HandleDBErrors(err, errMsgs, "cannot count questions")
	}

	questions := make([]Question, 0, len(dbQuestions))
	for _, dbQuestion := range dbQuestions {
		questions = append(questions, toQuestion(dbQuestion, withEditorials))
	}

	return QuestionPage{
		Questions: questions,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: (total + int64(pageSize) - 1) / int64(pageSize),
		},
	}, nil
}

func toQuestion(dbQuestion database.Question, withEditorial bool) Question {
	question := Question{
		ID:           dbQuestion.ID,
		Title:        dbQuestion.Title,
		ContestID:    dbQuestion.ContestID,
		ProblemIndex: dbQuestion.ProblemIndex,
		Link:         dbQuestion.Link,
		Rating:       dbQuestion.Rating,
		Date:         dbQuestion.Date.Format(service.DateLayout),
		CreatedAt:    dbQuestion.CreatedAt,
	}
	if withEditorial {
		question.Editorial = dbQuestion.Editorial
	}
	return question
}
