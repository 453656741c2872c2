// Package memstore is an in-memory database.Store. It enforces the same
// unique constraints and cascades as the postgres schema and reports
// violations as *pgconn.PgError so callers exercise their real error paths.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tcp_snm/qotd/internal/database"
	"github.com/tcp_snm/qotd/internal/qotd_errors"
)

type Store struct {
	mu          sync.Mutex
	txMu        sync.Mutex
	questions   map[uuid.UUID]database.Question
	submissions map[uuid.UUID]database.Submission
	users       map[uuid.UUID]database.User

	// OnInsertQuestion runs before every InsertQuestion, outside the lock.
	OnInsertQuestion func(arg database.InsertQuestionParams)
	// PingErr is returned by Ping when set.
	PingErr error
}

var _ database.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		questions:   make(map[uuid.UUID]database.Question),
		submissions: make(map[uuid.UUID]database.Submission),
		users:       make(map[uuid.UUID]database.User),
	}
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{
		Code:           qotd_errors.CodeUniqueConstraint,
		ConstraintName: constraint,
		Detail:         "duplicate key value violates unique constraint " + constraint,
	}
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// AddUser seeds a user. A nil id gets a fresh one.
func (s *Store) AddUser(user database.User) (database.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = "role_user"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.CodeforcesHandle != nil {
		for _, u := range s.users {
			if u.CodeforcesHandle != nil && *u.CodeforcesHandle == *user.CodeforcesHandle {
				return database.User{}, uniqueViolation(database.ConstraintUsersCodeforcesHandle)
			}
		}
	}
	s.users[user.ID] = user
	return user, nil
}

// Questions returns every stored question ordered by date.
func (s *Store) Questions() []database.Question {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make([]database.Question, 0, len(s.questions))
	for _, q := range s.questions {
		res = append(res, q)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date.Before(res[j].Date) })
	return res
}

// Submissions returns every stored submission.
func (s *Store) Submissions() []database.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make([]database.Submission, 0, len(s.submissions))
	for _, sub := range s.submissions {
		res = append(res, sub)
	}
	return res
}

// SetSubmission writes a submission row as is, for seeding.
func (s *Store) SetSubmission(sub database.Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	for id, existing := range s.submissions {
		if existing.UserID == sub.UserID && existing.QuestionID == sub.QuestionID {
			delete(s.submissions, id)
		}
	}
	s.submissions[sub.ID] = sub
}

func (s *Store) ExecTx(ctx context.Context, fn func(database.Querier) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	// snapshot for rollback
	s.mu.Lock()
	questions := cloneMap(s.questions)
	submissions := cloneMap(s.submissions)
	users := cloneMap(s.users)
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.questions, s.submissions, s.users = questions, submissions, users
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.PingErr
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	res := make(map[K]V, len(m))
	for k, v := range m {
		res[k] = v
	}
	return res
}

// questions

func (s *Store) GetQuestionByDate(ctx context.Context, date time.Time) (database.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, q := range s.questions {
		if sameDate(q.Date, date) {
			return q, nil
		}
	}
	return database.Question{}, pgx.ErrNoRows
}

func (s *Store) GetQuestionByID(ctx context.Context, id uuid.UUID) (database.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[id]
	if !ok {
		return database.Question{}, pgx.ErrNoRows
	}
	return q, nil
}

func (s *Store) GetQuestionByTitle(ctx context.Context, title string, today time.Time) (database.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// today first, then the latest past date, then the nearest future date
	rank := func(q database.Question) int {
		switch {
		case q.Date.Equal(today):
			return 2
		case !q.Date.After(today):
			return 1
		}
		return 0
	}
	better := func(a, b database.Question) bool {
		ra, rb := rank(a), rank(b)
		if ra != rb {
			return ra > rb
		}
		if ra == 0 {
			return a.Date.Before(b.Date)
		}
		return a.Date.After(b.Date)
	}

	var (
		found database.Question
		ok    bool
	)
	for _, q := range s.questions {
		if q.Title != title {
			continue
		}
		if !ok || better(q, found) {
			found, ok = q, true
		}
	}
	if !ok {
		return database.Question{}, pgx.ErrNoRows
	}
	return found, nil
}

func (s *Store) InsertQuestion(ctx context.Context, arg database.InsertQuestionParams) (database.Question, error) {
	if s.OnInsertQuestion != nil {
		s.OnInsertQuestion(arg)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[arg.ID]; ok {
		return database.Question{}, uniqueViolation("questions_pkey")
	}
	for _, q := range s.questions {
		if sameDate(q.Date, arg.Date) {
			return database.Question{}, uniqueViolation(database.ConstraintQuestionsDate)
		}
	}

	q := database.Question{
		ID:           arg.ID,
		Title:        arg.Title,
		ContestID:    arg.ContestID,
		ProblemIndex: arg.ProblemIndex,
		Link:         arg.Link,
		Rating:       arg.Rating,
		Date:         arg.Date,
		Editorial:    arg.Editorial,
		CreatedAt:    time.Now(),
	}
	s.questions[q.ID] = q
	return q, nil
}

func (s *Store) UpsertQuestionByDate(ctx context.Context, arg database.InsertQuestionParams) (database.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, q := range s.questions {
		if !sameDate(q.Date, arg.Date) {
			continue
		}
		q.Title = arg.Title
		q.ContestID = arg.ContestID
		q.ProblemIndex = arg.ProblemIndex
		q.Link = arg.Link
		q.Rating = arg.Rating
		q.Editorial = arg.Editorial
		s.questions[id] = q
		return q, nil
	}

	q := database.Question{
		ID:           arg.ID,
		Title:        arg.Title,
		ContestID:    arg.ContestID,
		ProblemIndex: arg.ProblemIndex,
		Link:         arg.Link,
		Rating:       arg.Rating,
		Date:         arg.Date,
		Editorial:    arg.Editorial,
		CreatedAt:    time.Now(),
	}
	s.questions[q.ID] = q
	return q, nil
}

func (s *Store) UpdateQuestion(ctx context.Context, arg database.UpdateQuestionParams) (database.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[arg.ID]
	if !ok {
		return database.Question{}, pgx.ErrNoRows
	}
	for id, other := range s.questions {
		if id != arg.ID && sameDate(other.Date, arg.Date) {
			return database.Question{}, uniqueViolation(database.ConstraintQuestionsDate)
		}
	}

	q.Title = arg.Title
	q.ContestID = arg.ContestID
	q.ProblemIndex = arg.ProblemIndex
	q.Link = arg.Link
	q.Rating = arg.Rating
	q.Date = arg.Date
	q.Editorial = arg.Editorial
	s.questions[q.ID] = q
	return q, nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[id]; !ok {
		return 0, nil
	}
	delete(s.questions, id)

	// ON DELETE CASCADE
	for subID, sub := range s.submissions {
		if sub.QuestionID == id {
			delete(s.submissions, subID)
		}
	}
	return 1, nil
}

func (s *Store) ListQuestions(ctx context.Context, arg database.ListQuestionsParams) ([]database.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make([]database.Question, 0)
	for _, q := range s.questions {
		if arg.Date != nil && !sameDate(q.Date, *arg.Date) {
			continue
		}
		res = append(res, q)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date.After(res[j].Date) })

	start := int(arg.Offset)
	if start > len(res) {
		start = len(res)
	}
	end := start + int(arg.Limit)
	if end > len(res) {
		end = len(res)
	}
	return res[start:end], nil
}

func (s *Store) CountQuestions(ctx context.Context, date *time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, q := range s.questions {
		if date == nil || sameDate(q.Date, *date) {
			count++
		}
	}
	return count, nil
}

// submissions

func (s *Store) GetSubmission(ctx context.Context, userID uuid.UUID, questionID uuid.UUID) (database.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.submissions {
		if sub.UserID == userID && sub.QuestionID == questionID {
			return sub, nil
		}
	}
	return database.Submission{}, pgx.ErrNoRows
}

func (s *Store) CreditSubmission(ctx context.Context, arg database.CreditSubmissionParams) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// foreign keys
	if _, ok := s.users[arg.UserID]; !ok {
		return false, &pgconn.PgError{
			Code:           qotd_errors.CodeForeignKeyConstraint,
			ConstraintName: database.ConstraintSubmissionsUser,
		}
	}
	if _, ok := s.questions[arg.QuestionID]; !ok {
		return false, &pgconn.PgError{
			Code:           qotd_errors.CodeForeignKeyConstraint,
			ConstraintName: database.ConstraintSubmissionsQuestion,
		}
	}

	for id, sub := range s.submissions {
		if sub.UserID != arg.UserID || sub.QuestionID != arg.QuestionID {
			continue
		}
		if sub.Status == database.SubmissionStatusAccepted {
			return false, nil
		}
		sub.Status = database.SubmissionStatusAccepted
		sub.Score = arg.Score
		sub.SubmittedAt = time.Now()
		s.submissions[id] = sub
		return true, nil
	}

	s.submissions[arg.ID] = database.Submission{
		ID:          arg.ID,
		UserID:      arg.UserID,
		QuestionID:  arg.QuestionID,
		Status:      database.SubmissionStatusAccepted,
		Score:       arg.Score,
		SubmittedAt: time.Now(),
	}
	return true, nil
}

func (s *Store) DeleteSubmissionsByQuestion(ctx context.Context, questionID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for id, sub := range s.submissions {
		if sub.QuestionID == questionID {
			delete(s.submissions, id)
			count++
		}
	}
	return count, nil
}

func (s *Store) ListAcceptedSubmissionScores(ctx context.Context) ([]database.AcceptedSubmissionScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make([]database.AcceptedSubmissionScore, 0)
	for _, sub := range s.submissions {
		if sub.Status != database.SubmissionStatusAccepted {
			continue
		}
		user, ok := s.users[sub.UserID]
		if !ok {
			continue
		}
		res = append(res, database.AcceptedSubmissionScore{
			UserID:           user.ID,
			UserName:         user.UserName,
			CodeforcesHandle: user.CodeforcesHandle,
			Score:            sub.Score,
		})
	}
	return res, nil
}

func (s *Store) CountSubmissions(ctx context.Context, status *database.SubmissionStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, sub := range s.submissions {
		if status == nil || sub.Status == *status {
			count++
		}
	}
	return count, nil
}

// users

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return database.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (s *Store) GetUserByCodeforcesHandle(ctx context.Context, handle string) (database.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.CodeforcesHandle != nil && *u.CodeforcesHandle == handle {
			return u, nil
		}
	}
	return database.User{}, pgx.ErrNoRows
}

func (s *Store) SetUserCodeforcesHandle(ctx context.Context, id uuid.UUID, handle string) (database.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || u.CodeforcesHandle != nil {
		return database.User{}, pgx.ErrNoRows
	}
	for otherID, other := range s.users {
		if otherID != id && other.CodeforcesHandle != nil && *other.CodeforcesHandle == handle {
			return database.User{}, uniqueViolation(database.ConstraintUsersCodeforcesHandle)
		}
	}
	h := handle
	u.CodeforcesHandle = &h
	s.users[id] = u
	return u, nil
}

func (s *Store) CountUsers(ctx context.Context, withHandle bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, u := range s.users {
		if !withHandle || u.CodeforcesHandle != nil {
			count++
		}
	}
	return count, nil
}
