package database

import (
	"time"

	"github.com/google/uuid"
)

type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "PENDING"
	SubmissionStatusAccepted SubmissionStatus = "ACCEPTED"
	SubmissionStatusRejected SubmissionStatus = "REJECTED"
)

const (
	ConstraintQuestionsDate           = "uq_questions_date"
	ConstraintSubmissionsUserQuestion = "uq_submissions_user_question"
	ConstraintUsersCodeforcesHandle   = "uq_users_codeforces_handle"
	ConstraintSubmissionsUser         = "fk_submissions_user"
	ConstraintSubmissionsQuestion     = "fk_submissions_question"
)

type Question struct {
	ID           uuid.UUID
	Title        string
	ContestID    int32
	ProblemIndex string
	Link         string
	Rating       int32
	Date         time.Time
	Editorial    *string
	CreatedAt    time.Time
}

type Submission struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	QuestionID  uuid.UUID
	Status      SubmissionStatus
	Score       int32
	SubmittedAt time.Time
}

type User struct {
	ID               uuid.UUID
	UserName         string
	Email            string
	Role             string
	CodeforcesHandle *string
	CreatedAt        time.Time
}
