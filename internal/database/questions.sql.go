package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const questionColumns = `id, title, contest_id, problem_index, link, rating, date, editorial, created_at`

func scanQuestion(row interface{ Scan(...any) error }) (Question, error) {
	var i Question
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.ContestID,
		&i.ProblemIndex,
		&i.Link,
		&i.Rating,
		&i.Date,
		&i.Editorial,
		&i.CreatedAt,
	)
	return i, err
}

const getQuestionByDate = `-- name: GetQuestionByDate :one
SELECT ` + questionColumns + ` FROM questions WHERE date = $1
`

func (q *Queries) GetQuestionByDate(ctx context.Context, date time.Time) (Question, error) {
	row := q.db.QueryRow(ctx, getQuestionByDate, date)
	return scanQuestion(row)
}

const getQuestionByID = `-- name: GetQuestionByID :one
SELECT ` + questionColumns + ` FROM questions WHERE id = $1
`

func (q *Queries) GetQuestionByID(ctx context.Context, id uuid.UUID) (Question, error) {
	row := q.db.QueryRow(ctx, getQuestionByID, id)
	return scanQuestion(row)
}

const getQuestionByTitle = `-- name: GetQuestionByTitle :one
SELECT ` + questionColumns + ` FROM questions WHERE title = $1
ORDER BY (date = $2) DESC, (date <= $2) DESC, date DESC
LIMIT 1
`

// GetQuestionByTitle prefers the row dated today, then the latest past row,
// then the nearest future one.
func (q *Queries) GetQuestionByTitle(ctx context.Context, title string, today time.Time) (Question, error) {
	row := q.db.QueryRow(ctx, getQuestionByTitle, title, today)
	return scanQuestion(row)
}

const insertQuestion = `-- name: InsertQuestion :one
INSERT INTO questions (
    id, title, contest_id, problem_index, link, rating, date, editorial
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8
)
RETURNING ` + questionColumns + `
`

type InsertQuestionParams struct {
	ID           uuid.UUID
	Title        string
	ContestID    int32
	ProblemIndex string
	Link         string
	Rating       int32
	Date         time.Time
	Editorial    *string
}

func (q *Queries) InsertQuestion(ctx context.Context, arg InsertQuestionParams) (Question, error) {
	row := q.db.QueryRow(ctx, insertQuestion,
		arg.ID,
		arg.Title,
		arg.ContestID,
		arg.ProblemIndex,
		arg.Link,
		arg.Rating,
		arg.Date,
		arg.Editorial,
	)
	return scanQuestion(row)
}

const upsertQuestionByDate = `-- name: UpsertQuestionByDate :one
INSERT INTO questions (
    id, title, contest_id, problem_index, link, rating, date, editorial
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8
)
ON CONFLICT ON CONSTRAINT uq_questions_date DO UPDATE SET
    title = EXCLUDED.title,
    contest_id = EXCLUDED.contest_id,
    problem_index = EXCLUDED.problem_index,
    link = EXCLUDED.link,
    rating = EXCLUDED.rating,
    editorial = EXCLUDED.editorial
RETURNING ` + questionColumns + `
`

// UpsertQuestionByDate keeps the id of an existing row for the same date.
func (q *Queries) UpsertQuestionByDate(ctx context.Context, arg InsertQuestionParams) (Question, error) {
	row := q.db.QueryRow(ctx, upsertQuestionByDate,
		arg.ID,
		arg.Title,
		arg.ContestID,
		arg.ProblemIndex,
		arg.Link,
		arg.Rating,
		arg.Date,
		arg.Editorial,
	)
	return scanQuestion(row)
}

const updateQuestion = `-- name: UpdateQuestion :one
UPDATE questions SET
    title = $2,
    contest_id = $3,
    problem_index = $4,
    link = $5,
    rating = $6,
    date = $7,
    editorial = $8
WHERE id = $1
RETURNING ` + questionColumns + `
`

type UpdateQuestionParams struct {
	ID           uuid.UUID
	Title        string
	ContestID    int32
	ProblemIndex string
	Link         string
	Rating       int32
	Date         time.Time
	Editorial    *string
}

func (q *Queries) UpdateQuestion(ctx context.Context, arg UpdateQuestionParams) (Question, error) {
	row := q.db.QueryRow(ctx, updateQuestion,
		arg.ID,
		arg.Title,
		arg.ContestID,
		arg.ProblemIndex,
		arg.Link,
		arg.Rating,
		arg.Date,
		arg.Editorial,
	)
	return scanQuestion(row)
}

const deleteQuestion = `-- name: DeleteQuestion :execrows
DELETE FROM questions WHERE id = $1
`

func (q *Queries) DeleteQuestion(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deleteQuestion, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listQuestions = `-- name: ListQuestions :many
SELECT ` + questionColumns + ` FROM questions
WHERE ($1::date IS NULL OR date = $1)
ORDER BY date DESC
LIMIT $2 OFFSET $3
`

type ListQuestionsParams struct {
	Date   *time.Time
	Limit  int32
	Offset int32
}

func (q *Queries) ListQuestions(ctx context.Context, arg ListQuestionsParams) ([]Question, error) {
	rows, err := q.db.Query(ctx, listQuestions, arg.Date, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Question{}
	for rows.Next() {
		i, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countQuestions = `-- name: CountQuestions :one
SELECT COUNT(*) FROM questions WHERE ($1::date IS NULL OR date = $1)
`

func (q *Queries) CountQuestions(ctx context.Context, date *time.Time) (int64, error) {
	row := q.db.QueryRow(ctx, countQuestions, date)
	var count int64
	err := row.Scan(&count)
	return count, err
}
