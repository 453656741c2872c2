package database

import (
	"context"

	"github.com/google/uuid"
)

const getSubmission = `-- name: GetSubmission :one
SELECT id, user_id, question_id, status, score, submitted_at
FROM submissions
WHERE user_id = $1 AND question_id = $2
`

func (q *Queries) GetSubmission(ctx context.Context, userID uuid.UUID, questionID uuid.UUID) (Submission, error) {
	row := q.db.QueryRow(ctx, getSubmission, userID, questionID)
	var i Submission
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.QuestionID,
		&i.Status,
		&i.Score,
		&i.SubmittedAt,
	)
	return i, err
}

const creditSubmission = `-- name: CreditSubmission :execrows
INSERT INTO submissions (id, user_id, question_id, status, score)
VALUES ($1, $2, $3, 'ACCEPTED', $4)
ON CONFLICT ON CONSTRAINT uq_submissions_user_question DO UPDATE SET
    status = 'ACCEPTED',
    score = EXCLUDED.score,
    submitted_at = NOW()
WHERE submissions.status <> 'ACCEPTED'
`

type CreditSubmissionParams struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	QuestionID uuid.UUID
	Score      int32
}

// CreditSubmission inserts an ACCEPTED submission or promotes a non-accepted
// one in a single statement. It reports false when the pair was already
// ACCEPTED and nothing changed.
func (q *Queries) CreditSubmission(ctx context.Context, arg CreditSubmissionParams) (bool, error) {
	result, err := q.db.Exec(ctx, creditSubmission,
		arg.ID,
		arg.UserID,
		arg.QuestionID,
		arg.Score,
	)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

const deleteSubmissionsByQuestion = `-- name: DeleteSubmissionsByQuestion :execrows
DELETE FROM submissions WHERE question_id = $1
`

func (q *Queries) DeleteSubmissionsByQuestion(ctx context.Context, questionID uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deleteSubmissionsByQuestion, questionID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listAcceptedSubmissionScores = `-- name: ListAcceptedSubmissionScores :many
SELECT u.id, u.user_name, u.codeforces_handle, s.score
FROM users u
JOIN submissions s ON s.user_id = u.id
WHERE s.status = 'ACCEPTED'
`

type AcceptedSubmissionScore struct {
	UserID           uuid.UUID
	UserName         string
	CodeforcesHandle *string
	Score            int32
}

func (q *Queries) ListAcceptedSubmissionScores(ctx context.Context) ([]AcceptedSubmissionScore, error) {
	rows, err := q.db.Query(ctx, listAcceptedSubmissionScores)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []AcceptedSubmissionScore{}
	for rows.Next() {
		var i AcceptedSubmissionScore
		if err := rows.Scan(
			&i.UserID,
			&i.UserName,
			&i.CodeforcesHandle,
			&i.Score,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countSubmissions = `-- name: CountSubmissions :one
SELECT COUNT(*) FROM submissions WHERE ($1::text IS NULL OR status = $1)
`

func (q *Queries) CountSubmissions(ctx context.Context, status *SubmissionStatus) (int64, error) {
	var statusArg *string
	if status != nil {
		s := string(*status)
		statusArg = &s
	}
	row := q.db.QueryRow(ctx, countSubmissions, statusArg)
	var count int64
	err := row.Scan(&count)
	return count, err
}
