package verification_service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tcp_snm/qotd/internal/database"
	"github.com/tcp_snm/qotd/internal/metrics"
	"github.com/tcp_snm/qotd/internal/qotd_errors"
	"github.com/tcp_snm/qotd/internal/service"
	"github.com/tcp_snm/qotd/internal/service/codeforces_service"
)

type Verdict string

const (
	VerdictAccepted Verdict = "ACCEPTED"
	VerdictRejected Verdict = "REJECTED"
	VerdictExpired  Verdict = "EXPIRED"

	defaultSolveScore = 100
)

var (
	errMsgs = map[string]map[string]string{
		qotd_errors.CodeForeignKeyConstraint: {
			database.ConstraintSubmissionsUser:     "user no longer exists",
			database.ConstraintSubmissionsQuestion: "question no longer exists",
		},
	}
)

type Judge interface {
	FetchUserStatus(ctx context.Context, handle string, count int) ([]codeforces_service.Submission, error)
}

type VerificationService struct {
	DB         database.Store
	Judge      Judge
	SolveScore int32
	Location   *time.Location
	Clock      service.Clock

	logger *logrus.Entry
}

type VerifyRequest struct {
	QuestionTitle    string `json:"question_title" validate:"required"`
	CodeforcesHandle string `json:"codeforces_handle" validate:"required"`
}

func (v *VerificationService) Start() {
	if v.DB == nil {
		panic("verification service expects non-nil db")
	}
	if v.Judge == nil {
		panic("verification service expects non-nil judge")
	}
	if v.SolveScore <= 0 {
		v.SolveScore = defaultSolveScore
	}
	if v.Location == nil {
		v.Location = time.Local
	}
	v.logger = logrus.WithFields(logrus.Fields{
		"from": "verification_service",
	})
}

// Verify checks the judge history of handle for an accepted solve of the
// question and credits today's question at most once per user.
func (v *VerificationService) Verify(
	ctx context.Context,
	questionTitle string,
	handle string,
) (Verdict, error) {
	request := VerifyRequest{QuestionTitle: questionTitle, CodeforcesHandle: handle}
	if err := service.ValidateInput(request); err != nil {
		return "", err
	}

	today := service.DateOf(v.Clock.Now(), v.Location)
	question, err := v.DB.GetQuestionByTitle(ctx, request.QuestionTitle, today)
	if err != nil {
		err = qotd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("question %q not found", request.QuestionTitle),
		)
		return "", err
	}

	user, err := v.DB.GetUserByCodeforcesHandle(ctx, request.CodeforcesHandle)
	if err != nil {
		err = qotd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("user with handle %q not found", request.CodeforcesHandle),
		)
		return "", err
	}

	logger := v.logger.WithFields(logrus.Fields{
		"user_id":     user.ID,
		"question_id": question.ID,
	})

	subs, err := v.Judge.FetchUserStatus(ctx, request.CodeforcesHandle, 0)
	if err != nil {
		logger.Warnf("cannot fetch judge history, %v", err)
		return "", err
	}

	if !HasSolved(subs, question) {
		metrics.Verifications.WithLabelValues(string(VerdictRejected)).Inc()
		return VerdictRejected, nil
	}

	if !service.SameDate(question.Date, today) {
		metrics.Verifications.WithLabelValues(string(VerdictExpired)).Inc()
		return VerdictExpired, nil
	}

	// one conditional upsert, an already accepted row is left untouched
	credited, err := v.DB.CreditSubmission(ctx, database.CreditSubmissionParams{
		ID:         uuid.New(),
		UserID:     user.ID,
		QuestionID: question.ID,
		Score:      v.SolveScore,
	})
	if err != nil {
		return "", qotd_errors.HandleDBErrors(err, errMsgs, "cannot credit submission")
	}

	if credited {
		logger.Infof("credited %v points", v.SolveScore)
	} else {
		logger.Debug("already credited")
	}
	metrics.Verifications.WithLabelValues(string(VerdictAccepted)).Inc()
	return VerdictAccepted, nil
}

// HasSolved reports whether subs holds an OK verdict for the question's
// contest id and index.
func HasSolved(subs []codeforces_service.Submission, question database.Question) bool {
	for _, sub := range subs {
		if sub.Verdict != codeforces_service.VerdictOK {
			continue
		}
		if sub.Problem.ContestID == question.ContestID && sub.Problem.Index == question.ProblemIndex {
			return true
		}
	}
	return false
}
