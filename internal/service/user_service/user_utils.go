package user_service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tcp_snm/qotd/internal/database"
	"github.com/tcp_snm/qotd/internal/qotd_errors"
	"github.com/tcp_snm/qotd/internal/service"
)

func (u *UserService) Start() {
	if u.DB == nil {
		panic("user service expects non-nil db")
	}
	if u.Judge == nil {
		panic("user service expects non-nil judge")
	}
	u.logger = logrus.WithFields(logrus.Fields{
		"from": "user_service",
	})
}

func (u *UserService) FetchUserByID(ctx context.Context, userID uuid.UUID) (database.User, error) {
	dbUser, err := u.DB.GetUserByID(ctx, userID)
	if err != nil {
		err = qotd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("cannot fetch user with id %v from db", userID),
		)
		return database.User{}, err
	}
	return dbUser, nil
}

func (u *UserService) FetchUserByHandle(ctx context.Context, handle string) (database.User, error) {
	dbUser, err := u.DB.GetUserByCodeforcesHandle(ctx, handle)
	if err != nil {
		err = qotd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("user with codeforces handle %q not found", handle),
		)
		return database.User{}, err
	}
	return dbUser, nil
}

// fetchCaller loads the user behind the claims in ctx.
func (u *UserService) fetchCaller(ctx context.Context) (database.User, error) {
	claims, err := service.GetClaimsFromContext(ctx)
	if err != nil {
		return database.User{}, err
	}
	return u.FetchUserByID(ctx, claims.UserId)
}

func toUser(dbUser database.User) User {
	return User{
		ID:               dbUser.ID,
		UserName:         dbUser.UserName,
		Email:            dbUser.Email,
		Role:             dbUser.Role,
		CodeforcesHandle: dbUser.CodeforcesHandle,
		CreatedAt:        dbUser.CreatedAt,
	}
}
