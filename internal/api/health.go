package api

import (
	"context"
	"net/http"
	"time"
)

const healthCheckTimeout = 3 * time.Second

// HandlerReadiness reports 503 when the database is unreachable. A broken
// cache only degrades the status.
func (a *Api) HandlerReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	response := healthResponse{
		Status:   "healthy",
		Database: componentHealth{Status: "healthy"},
		Cache:    componentHealth{Status: "healthy"},
	}
	statusCode := http.StatusOK

	if err := a.DB.Ping(ctx); err != nil {
		response.Status = "unhealthy"
		response.Database = componentHealth{Status: "unhealthy", Message: err.Error()}
		statusCode = http.StatusServiceUnavailable
	}

	if a.Cache != nil {
		if err := a.Cache.Ping(ctx); err != nil {
			if statusCode == http.StatusOK {
				response.Status = "degraded"
			}
			response.Cache = componentHealth{Status: "unhealthy", Message: err.Error()}
		}
	}

	marshalAndRespond(w, statusCode, response)
}
