package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Querier interface {
	// questions
	GetQuestionByDate(ctx context.Context, date time.Time) (Question, error)
	GetQuestionByID(ctx context.Context, id uuid.UUID) (Question, error)
	GetQuestionByTitle(ctx context.Context, title string, today time.Time) (Question, error)
	InsertQuestion(ctx context.Context, arg InsertQuestionParams) (Question, error)
	UpsertQuestionByDate(ctx context.Context, arg InsertQuestionParams) (Question, error)
	UpdateQuestion(ctx context.Context, arg UpdateQuestionParams) (Question, error)
	DeleteQuestion(ctx context.Context, id uuid.UUID) (int64, error)
	ListQuestions(ctx context.Context, arg ListQuestionsParams) ([]Question, error)
	CountQuestions(ctx context.Context, date *time.Time) (int64, error)

	// submissions
	GetSubmission(ctx context.Context, userID uuid.UUID, questionID uuid.UUID) (Submission, error)
	CreditSubmission(ctx context.Context, arg CreditSubmissionParams) (bool, error)
	DeleteSubmissionsByQuestion(ctx context.Context, questionID uuid.UUID) (int64, error)
	ListAcceptedSubmissionScores(ctx context.Context) ([]AcceptedSubmissionScore, error)
	CountSubmissions(ctx context.Context, status *SubmissionStatus) (int64, error)

	// users
	GetUserByID(ctx context.Context, id uuid.UUID) (User, error)
	GetUserByCodeforcesHandle(ctx context.Context, handle string) (User, error)
	SetUserCodeforcesHandle(ctx context.Context, id uuid.UUID, handle string) (User, error)
	CountUsers(ctx context.Context, withHandle bool) (int64, error)
}

var _ Querier = (*Queries)(nil)
