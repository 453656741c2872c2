package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/tcp_snm/qotd/internal/qotd_errors"
)

const maxRequestBodyBytes = 1 << 20

func decodeJsonBody(body io.ReadCloser, v any) error {
	defer body.Close()
	decoder := json.NewDecoder(io.LimitReader(body, maxRequestBodyBytes))
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("invalid request payload, %w", err)
	}
	return nil
}

func respondWithJson(w http.ResponseWriter, statusCode int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		log.Errorf("cannot write response, %v", err)
	}
}

func marshalAndRespond(w http.ResponseWriter, statusCode int, v any) {
	responseBytes, err := json.Marshal(v)
	if err != nil {
		log.Errorf("unable to marshal %T, %v", v, err)
		http.Error(w, qotd_errors.ErrInternal.Error(), http.StatusInternalServerError)
		return
	}
	respondWithJson(w, statusCode, responseBytes)
}

func handlerError(err error, w http.ResponseWriter) {
	switch {
	case errors.Is(err, qotd_errors.ErrInvalidRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, qotd_errors.ErrUnAuthenticated):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, qotd_errors.ErrUnAuthorized):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, qotd_errors.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, qotd_errors.ErrEntityAlreadyExist):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, qotd_errors.ErrNoCandidateProblems):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, qotd_errors.ErrUpstreamUnavailable):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		log.Error(err)
		http.Error(w, qotd_errors.ErrInternal.Error(), http.StatusInternalServerError)
	}
}

// queryInt32 reads an optional non-negative integer query parameter.
func queryInt32(r *http.Request, name string) (int32, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%w, %s must be a non-negative integer", qotd_errors.ErrInvalidRequest, name)
	}
	return int32(value), nil
}
