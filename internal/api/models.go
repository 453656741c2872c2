package api

import (
	"github.com/tcp_snm/qotd/internal/cache"
	"github.com/tcp_snm/qotd/internal/database"
	"github.com/tcp_snm/qotd/internal/service/leaderboard_service"
	"github.com/tcp_snm/qotd/internal/service/question_service"
	"github.com/tcp_snm/qotd/internal/service/scheduler_service"
	"github.com/tcp_snm/qotd/internal/service/user_service"
	"github.com/tcp_snm/qotd/internal/service/verification_service"
)

type Api struct {
	DB                  database.Store
	Cache               cache.Cache
	QuestionService     *question_service.QuestionService
	UserService         *user_service.UserService
	LeaderboardService  *leaderboard_service.LeaderboardService
	VerificationService *verification_service.VerificationService
	Scheduler           *scheduler_service.Scheduler
}

type questionResponse struct {
	Question question_service.Question `json:"question"`
}

type questionsResponse struct {
	Questions  []question_service.Question  `json:"questions"`
	Pagination question_service.Pagination `json:"pagination"`
}

type linkHandleResponse struct {
	Message string            `json:"message"`
	Success bool              `json:"success"`
	User    user_service.User `json:"updated_user"`
}

type handleResponse struct {
	CodeforcesHandle *string `json:"codeforces_handle"`
}

type recentSubmissionsResponse struct {
	RecentSubmissions []user_service.RecentSubmission `json:"recent_submissions"`
}

type leaderboardResponse struct {
	Leaderboard []leaderboard_service.LeaderboardEntry `json:"leaderboard"`
}

type verifyResponse struct {
	Status verification_service.Verdict `json:"status"`
}

type editorialResponse struct {
	Editorial string `json:"editorial"`
}

type generateResponse struct {
	Created  bool                      `json:"created"`
	Question question_service.Question `json:"question"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type componentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status   string          `json:"status"`
	Database componentHealth `json:"database"`
	Cache    componentHealth `json:"cache"`
}
