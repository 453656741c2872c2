package user_service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tcp_snm/qotd/internal/qotd_errors"
	"github.com/tcp_snm/qotd/internal/service"
)

// LinkHandle links a codeforces handle to the caller. A handle can be linked
// once and never changed; relinking the same handle is a no-op.
func (u *UserService) LinkHandle(ctx context.Context, request LinkHandleRequest) (User, error) {
	if err := service.ValidateInput(request); err != nil {
		return User{}, err
	}

	caller, err := u.fetchCaller(ctx)
	if err != nil {
		return User{}, err
	}
	logger := u.logger.WithField("user_id", caller.ID)

	if caller.CodeforcesHandle != nil {
		if *caller.CodeforcesHandle == request.Handle {
			return toUser(caller), nil
		}
		err = fmt.Errorf("%w, %s", qotd_errors.ErrEntityAlreadyExist, msgHandleImmutable)
		logger.Debug(err)
		return User{}, err
	}

	// linked to someone else
	owner, err := u.DB.GetUserByCodeforcesHandle(ctx, request.Handle)
	if err == nil && owner.ID != caller.ID {
		err = fmt.Errorf("%w, %s", qotd_errors.ErrEntityAlreadyExist, msgHandleLinked)
		logger.Debug(err)
		return User{}, err
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return User{}, qotd_errors.HandleDBErrors(err, errMsgs, "cannot look up handle owner")
	}

	exists, err := u.Judge.UserExists(ctx, request.Handle)
	if err != nil {
		return User{}, err
	}
	if !exists {
		err = fmt.Errorf("%w, codeforces handle %q not found", qotd_errors.ErrNotFound, request.Handle)
		logger.Debug(err)
		return User{}, err
	}

	// the update only matches users without a handle, so a concurrent link
	// shows up as no rows
	updated, err := u.DB.SetUserCodeforcesHandle(ctx, caller.ID, request.Handle)
	if errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("%w, %s", qotd_errors.ErrEntityAlreadyExist, msgHandleImmutable)
		logger.Debug(err)
		return User{}, err
	}
	if err != nil {
		err = qotd_errors.HandleDBErrors(
			err,
			errMsgs,
			fmt.Sprintf("cannot link handle %q", request.Handle),
		)
		return User{}, err
	}

	logger.Infof("linked codeforces handle %s", request.Handle)
	return toUser(updated), nil
}

// GetHandle returns the handle linked to the caller, nil if none.
func (u *UserService) GetHandle(ctx context.Context) (*string, error) {
	caller, err := u.fetchCaller(ctx)
	if err != nil {
		return nil, err
	}
	return caller.CodeforcesHandle, nil
}

// RecentSubmissions lists the caller's codeforces submissions of the last
// 24 hours, newest first.
func (u *UserService) RecentSubmissions(ctx context.Context) ([]RecentSubmission, error) {
	caller, err := u.fetchCaller(ctx)
	if err != nil {
		return nil, err
	}
	if caller.CodeforcesHandle == nil {
		err = fmt.Errorf("%w, codeforces handle not linked", qotd_errors.ErrInvalidRequest)
		u.logger.WithField("user_id", caller.ID).Debug(err)
		return nil, err
	}

	subs, err := u.Judge.FetchUserStatus(ctx, *caller.CodeforcesHandle, recentFetchCount)
	if err != nil {
		return nil, err
	}

	since := u.Clock.Now().Add(-recentWindow)
	res := make([]RecentSubmission, 0)
	for _, sub := range subs {
		if sub.CreatedAt().Before(since) {
			continue
		}
		res = append(res, RecentSubmission{
			ID:        sub.ID,
			ContestID: sub.ContestID,
			Index:     sub.Problem.Index,
			Name:      sub.Problem.Name,
			Verdict:   sub.Verdict,
			Language:  sub.ProgrammingLanguage,
			Time:      sub.CreatedAt().UTC(),
			Link:      sub.Link(),
		})
	}
	return res, nil
}
