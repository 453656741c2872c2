package database

import (
	"context"

	"github.com/google/uuid"
)

const userColumns = `id, user_name, email, role, codeforces_handle, created_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.UserName,
		&i.Email,
		&i.Role,
		&i.CodeforcesHandle,
		&i.CreatedAt,
	)
	return i, err
}

const getUserByID = `-- name: GetUserByID :one
SELECT ` + userColumns + ` FROM users WHERE id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRow(ctx, getUserByID, id)
	return scanUser(row)
}

const getUserByCodeforcesHandle = `-- name: GetUserByCodeforcesHandle :one
SELECT ` + userColumns + ` FROM users WHERE codeforces_handle = $1
`

func (q *Queries) GetUserByCodeforcesHandle(ctx context.Context, handle string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByCodeforcesHandle, handle)
	return scanUser(row)
}

const setUserCodeforcesHandle = `-- name: SetUserCodeforcesHandle :one
UPDATE users SET codeforces_handle = $2
WHERE id = $1 AND codeforces_handle IS NULL
RETURNING ` + userColumns + `
`

// SetUserCodeforcesHandle only links a handle to a user without one. A user
// that already has a handle yields no rows.
func (q *Queries) SetUserCodeforcesHandle(ctx context.Context, id uuid.UUID, handle string) (User, error) {
	row := q.db.QueryRow(ctx, setUserCodeforcesHandle, id, handle)
	return scanUser(row)
}

const countUsers = `-- name: CountUsers :one
SELECT COUNT(*) FROM users WHERE (NOT $1::boolean OR codeforces_handle IS NOT NULL)
`

func (q *Queries) CountUsers(ctx context.Context, withHandle bool) (int64, error) {
	row := q.db.QueryRow(ctx, countUsers, withHandle)
	var count int64
	err := row.Scan(&count)
	return count, err
}
