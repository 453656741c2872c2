package codeforces_service

import (
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	VerdictOK = "OK"

	statusOK     = "OK"
	statusFailed = "FAILED"

	methodProblemset = "problemset.problems"
	methodUserStatus = "user.status"
	methodUserInfo   = "user.info"

	problemLinkFormat    = "https://codeforces.com/contest/%d/problem/%s"
	submissionLinkFormat = "https://codeforces.com/contest/%d/submission/%d"
)

// CodeforcesService talks to the public Codeforces api. Calls are paced by
// Limiter because the api answers FAILED when a client calls too often.
type CodeforcesService struct {
	ApiUrl     string
	HttpClient *http.Client
	Limiter    *rate.Limiter

	baseUrl *url.URL
	logger  *logrus.Entry
}

type Problem struct {
	ContestID int32    `json:"contestId"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    int32    `json:"rating"`
	Tags      []string `json:"tags"`
}

type SubmissionProblem struct {
	ContestID int32  `json:"contestId"`
	Index     string `json:"index"`
	Name      string `json:"name"`
}

type Submission struct {
	ID                  int64             `json:"id"`
	ContestID           int32             `json:"contestId"`
	CreationTimeSeconds int64             `json:"creationTimeSeconds"`
	Verdict             string            `json:"verdict"`
	ProgrammingLanguage string            `json:"programmingLanguage"`
	Problem             SubmissionProblem `json:"problem"`
}

func (s Submission) CreatedAt() time.Time {
	return time.Unix(s.CreationTimeSeconds, 0)
}

// Link is the public url of the submission on codeforces.
func (s Submission) Link() string {
	return SubmissionLink(s.ContestID, s.ID)
}

type UserInfo struct {
	Handle string `json:"handle"`
	Rating int32  `json:"rating"`
	Rank   string `json:"rank"`
}

type apiResponse[T any] struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
	Result  T      `json:"result"`
}
