package user_service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tcp_snm/qotd/internal/database"
	"github.com/tcp_snm/qotd/internal/qotd_errors"
	"github.com/tcp_snm/qotd/internal/service"
	"github.com/tcp_snm/qotd/internal/service/codeforces_service"
)

const (
	recentWindow       = 24 * time.Hour
	recentFetchCount   = 100
	msgHandleLinked    = "this codeforces handle is already linked to another account"
	msgHandleImmutable = "a different codeforces handle is already linked to this account"
)

var (
	errMsgs = map[string]map[string]string{
		qotd_errors.CodeUniqueConstraint: {
			database.ConstraintUsersCodeforcesHandle: msgHandleLinked,
		},
	}
)

// Judge is the part of the codeforces client the user service needs.
type Judge interface {
	UserExists(ctx context.Context, handle string) (bool, error)
	FetchUserStatus(ctx context.Context, handle string, count int) ([]codeforces_service.Submission, error)
}

type UserService struct {
	DB    database.Store
	Judge Judge
	Clock service.Clock

	logger *logrus.Entry
}

type User struct {
	ID               uuid.UUID `json:"id"`
	UserName         string    `json:"user_name"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	CodeforcesHandle *string   `json:"codeforces_handle"`
	CreatedAt        time.Time `json:"created_at"`
}

type LinkHandleRequest struct {
	Handle string `json:"handle" validate:"required,min=3,max=24"`
}

type RecentSubmission struct {
	ID        int64     `json:"id"`
	ContestID int32     `json:"contest_id"`
	Index     string    `json:"index"`
	Name      string    `json:"name"`
	Verdict   string    `json:"verdict"`
	Language  string    `json:"language"`
	Time      time.Time `json:"time"`
	Link      string    `json:"link"`
}
