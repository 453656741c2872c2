package question_service

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tcp_snm/qotd/internal/database"
	"github.com/tcp_snm/qotd/internal/qotd_errors"
	"github.com/tcp_snm/qotd/internal/service"
)

const (
	defaultPage     = 1
	defaultPageSize = 20

	NoEditorialMessage = "No editorial available."
)

var (
	errMsgs = map[string]map[string]string{
		qotd_errors.CodeUniqueConstraint: {
			database.ConstraintQuestionsDate: "a question for this date already exists, choose a different date or update the existing one",
		},
	}
)

type QuestionService struct {
	DB       database.Store
	Location *time.Location
	Clock    service.Clock

	logger *logrus.Entry
}

type Question struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	ContestID    int32     `json:"contest_id"`
	ProblemIndex string    `json:"problem_index"`
	Link         string    `json:"link"`
	Rating       int32     `json:"rating"`
	Date         string    `json:"date"`
	Editorial    *string   `json:"editorial,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// an empty Date means today
type CreateQuestionRequest struct {
	Title        string  `json:"title" validate:"required,max=200"`
	ContestID    int32   `json:"contest_id" validate:"required,gt=0"`
	ProblemIndex string  `json:"problem_index" validate:"required,max=5"`
	Link         string  `json:"link" validate:"omitempty,url"`
	Rating       int32   `json:"rating" validate:"gte=0"`
	Date         string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Editorial    *string `json:"editorial"`
}

// SetQuestionRequest carries pointers so that a missing rating or editorial
// keeps the value already stored for the date.
type SetQuestionRequest struct {
	Title        string  `json:"title" validate:"required,max=200"`
	ContestID    int32   `json:"contest_id" validate:"required,gt=0"`
	ProblemIndex string  `json:"problem_index" validate:"required,max=5"`
	Link         string  `json:"link" validate:"omitempty,url"`
	Rating       *int32  `json:"rating" validate:"omitempty,gte=0"`
	Date         string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Editorial    *string `json:"editorial"`
}

// only the non-nil fields are changed
type UpdateQuestionRequest struct {
	Title        *string `json:"title" validate:"omitempty,min=1,max=200"`
	ContestID    *int32  `json:"contest_id" validate:"omitempty,gt=0"`
	ProblemIndex *string `json:"problem_index" validate:"omitempty,min=1,max=5"`
	Link         *string `json:"link" validate:"omitempty,url"`
	Rating       *int32  `json:"rating" validate:"omitempty,gte=0"`
	Date         *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Editorial    *string `json:"editorial"`
}

type ListQuestionsRequest struct {
	Page     int32  `json:"page" validate:"gte=0"`
	PageSize int32  `json:"page_size" validate:"gte=0,lte=100"`
	Date     string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type Pagination struct {
	Page       int32 `json:"page"`
	PageSize   int32 `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

type QuestionPage struct {
	Questions  []Question `json:"questions"`
	Pagination Pagination `json:"pagination"`
}

type EditorialRequest struct {
	CodeforcesHandle string `json:"codeforces_handle" validate:"required"`
	QuestionTitle    string `json:"question_title" validate:"required"`
}

type Analytics struct {
	TotalUsers          int64  `json:"total_users"`
	TotalQuestions      int64  `json:"total_questions"`
	TotalSubmissions    int64  `json:"total_submissions"`
	AcceptedSubmissions int64  `json:"accepted_submissions"`
	UsersWithHandles    int64  `json:"users_with_handles"`
	AcceptanceRate      string `json:"acceptance_rate"`
}
