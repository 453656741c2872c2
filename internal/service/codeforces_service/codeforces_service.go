package codeforces_service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tcp_snm/qotd/internal/metrics"
	"github.com/tcp_snm/qotd/internal/qotd_errors"
	"golang.org/x/time/rate"
)

// FailedStatusError is returned when the api answers with a non OK status.
type FailedStatusError struct {
	Method  string
	Status  string
	Comment string
}

func (e *FailedStatusError) Error() string {
	return fmt.Sprintf(
		"codeforces %s returned status %q, %s",
		e.Method,
		e.Status,
		e.Comment,
	)
}

func (e *FailedStatusError) Unwrap() []error {
	return []error{qotd_errors.ErrUpstreamUnavailable, qotd_errors.ErrHttpResponse}
}

func (c *CodeforcesService) Start() {
	c.logger = logrus.WithFields(logrus.Fields{
		"from": "codeforces_service",
	})

	parsedUrl, err := url.Parse(strings.TrimRight(c.ApiUrl, "/"))
	if err != nil || c.ApiUrl == "" {
		panic("cannot parse codeforces api url: " + c.ApiUrl)
	}
	c.baseUrl = parsedUrl

	if c.HttpClient == nil {
		panic("codeforces service expects non-nil http client")
	}

	// 1 call per 2 seconds is the documented limit
	if c.Limiter == nil {
		c.Limiter = rate.NewLimiter(rate.Every(2*time.Second), 5)
	}

	c.logger.Infof("codeforces service started with api %v", c.baseUrl)
}

// FetchProblemset returns the whole problem catalog.
func (c *CodeforcesService) FetchProblemset(ctx context.Context) ([]Problem, error) {
	var result struct {
		Problems []Problem `json:"problems"`
	}
	if err := c.query(ctx, methodProblemset, url.Values{}, &result); err != nil {
		return nil, err
	}
	c.logger.Debugf("fetched %v problems from problemset", len(result.Problems))
	return result.Problems, nil
}

// FetchUserStatus returns the submissions of handle, newest first. A count
// of 0 or less returns the full history.
func (c *CodeforcesService) FetchUserStatus(
	ctx context.Context,
	handle string,
	count int,
) ([]Submission, error) {
	params := url.Values{}
	params.Add("handle", handle)
	if count > 0 {
		params.Add("from", "1")
		params.Add("count", strconv.Itoa(count))
	}

	var subs []Submission
	if err := c.query(ctx, methodUserStatus, params, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// UserExists reports whether handle is a registered codeforces account.
func (c *CodeforcesService) UserExists(ctx context.Context, handle string) (bool, error) {
	params := url.Values{}
	params.Add("handles", handle)

	var users []UserInfo
	err := c.query(ctx, methodUserInfo, params, &users)
	if err != nil {
		var failed *FailedStatusError
		if errors.As(err, &failed) && strings.Contains(failed.Comment, "not found") {
			return false, nil
		}
		return false, err
	}
	return len(users) > 0, nil
}

func (c *CodeforcesService) query(
	ctx context.Context,
	method string,
	params url.Values,
	result any,
) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveUpstream("codeforces", start, err) }()

	if err = c.Limiter.Wait(ctx); err != nil {
		err = fmt.Errorf(
			"%w, waiting for codeforces rate limiter, %w",
			qotd_errors.ErrUpstreamUnavailable,
			err,
		)
		c.logger.Warn(err)
		return err
	}

	queryUrl := c.baseUrl.JoinPath(method)
	queryUrl.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryUrl.String(), nil)
	if err != nil {
		err = fmt.Errorf("%w, failed to create http request with ctx, %w", qotd_errors.ErrInternal, err)
		c.logger.Error(err)
		return err
	}

	res, err := c.HttpClient.Do(req)
	if err != nil {
		// timeout from the context or a network issue
		err = fmt.Errorf("failed to get response from codeforces %s, %w", method, qotd_errors.WrapIPCError(err))
		c.logger.Error(err)
		return err
	}
	defer res.Body.Close()
	c.logger.Debugf("received response from %v with code %v", method, res.StatusCode)

	// codeforces reports errors with 4xx codes and a FAILED body, so decode first
	resJson := apiResponse[json.RawMessage]{}
	if err = json.NewDecoder(res.Body).Decode(&resJson); err != nil {
		err = fmt.Errorf(
			"%w, %w, cannot decode %s response with code %v, %w",
			qotd_errors.ErrUpstreamUnavailable,
			qotd_errors.ErrHttpResponse,
			method,
			res.StatusCode,
			err,
		)
		c.logger.Error(err)
		return err
	}

	if resJson.Status != statusOK {
		err = &FailedStatusError{
			Method:  method,
			Status:  resJson.Status,
			Comment: resJson.Comment,
		}
		if resJson.Status == statusFailed {
			c.logger.Warn(err)
		} else {
			c.logger.WithField("code", res.StatusCode).Error(err)
		}
		return err
	}

	if err = json.Unmarshal(resJson.Result, result); err != nil {
		err = fmt.Errorf(
			"%w, %w, cannot decode %s result to %T, %w",
			qotd_errors.ErrUpstreamUnavailable,
			qotd_errors.ErrHttpResponse,
			method,
			result,
			err,
		)
		c.logger.Error(err)
		return err
	}

	return nil
}

func ProblemLink(contestID int32, index string) string {
	return fmt.Sprintf(problemLinkFormat, contestID, index)
}

func SubmissionLink(contestID int32, submissionID int64) string {
	return fmt.Sprintf(submissionLinkFormat, contestID, submissionID)
}
