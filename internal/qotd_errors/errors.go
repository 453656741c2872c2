package qotd_errors

import (
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	log "github.com/sirupsen/logrus"
)

const (
	CodeUniqueConstraint     = "23505"
	CodeForeignKeyConstraint = "23503"
)

var (
	ErrInternal            = errors.New("internal service error. please try again later")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrUnAuthorized        = errors.New("user not allowed to perform this action")
	ErrUnAuthenticated     = errors.New("missing or invalid credentials")
	ErrNotFound            = errors.New("entity not found")
	ErrEntityAlreadyExist  = errors.New("entity with given key already exist")
	ErrHttpResponse        = errors.New("error occurred with http response")
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
	ErrNoCandidateProblems = errors.New("no candidate problems in the configured rating range")
	ErrComponentStart      = errors.New("cannot start component")
	ErrEmailServiceStopped = errors.New("email service is not running")
)

// IsUniqueViolation reports whether err is a unique constraint violation,
// optionally restricted to the given constraint names.
func IsUniqueViolation(err error, constraints ...string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != CodeUniqueConstraint {
		return false
	}
	if len(constraints) == 0 {
		return true
	}
	for _, c := range constraints {
		if pgErr.ConstraintName == c {
			return true
		}
	}
	return false
}

func HandleDBErrors(
	err error,
	errMsgs map[string]map[string]string,
	contextMessage string,
) error {
	if errors.Is(err, pgx.ErrNoRows) {
		log.Debug(fmt.Sprintf("%s, %v", contextMessage, ErrNotFound))
		return fmt.Errorf("%w, %s", ErrNotFound, contextMessage)
	}

	// check if its a pg error
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		// assume its an internal error
		err = fmt.Errorf("%w, %s, %w", ErrInternal, contextMessage, err)
		log.Error(err)
		return err
	}

	if errMsgs == nil {
		log.Warnf("got null errMsgs")
		errMsgs = map[string]map[string]string{}
	}

	switch pgErr.Code {
	case CodeForeignKeyConstraint:
		return HandleForeignKeyError(pgErr, errMsgs[CodeForeignKeyConstraint])
	case CodeUniqueConstraint:
		return HandleUniqueKeyError(pgErr, errMsgs[CodeUniqueConstraint])
	}

	// unknown error
	err = fmt.Errorf("%w, %s, %w", ErrInternal, contextMessage, err)
	log.Error(err)
	return err
}

func HandleForeignKeyError(pgErr *pgconn.PgError, msgForeignKey map[string]string) error {
	msg, ok := msgForeignKey[pgErr.ConstraintName]
	if !ok {
		log.Warnf("unknown foreign key violation, %s", pgErr.ConstraintName)
		msg = pgErr.Detail
	}
	err := fmt.Errorf(
		"%w, %s",
		ErrInvalidRequest,
		msg,
	)
	log.Error(err)
	return err
}

func HandleUniqueKeyError(pgErr *pgconn.PgError, msgUniqueConstraint map[string]string) error {
	msg, ok := msgUniqueConstraint[pgErr.ConstraintName]
	if !ok {
		log.Warnf("unknown unique key violation, %s", pgErr.ConstraintName)
		msg = pgErr.Detail
	}
	err := fmt.Errorf(
		"%w, %s",
		ErrEntityAlreadyExist,
		msg,
	)
	log.Error(err)
	return err
}

// handles inter process communication errors
func WrapIPCError(err error) error {
	var opError *net.OpError
	if errors.As(err, &opError) {
		return fmt.Errorf(
			"%w, \"%s\" error occurred during \"%s\" operation, network: %s, dest: %s",
			ErrUpstreamUnavailable,
			opError.Error(),
			opError.Op,
			opError.Net,
			opError.Addr,
		)
	}

	// unknown error
	return fmt.Errorf("%w, %w", ErrUpstreamUnavailable, err)
}
