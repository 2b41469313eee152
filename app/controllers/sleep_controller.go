package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foorest/sleep/pkg/logger"
	"github.com/foorest/sleep/pkg/metrics"
	"github.com/foorest/sleep/pkg/response"
)

var sleepRequests = metrics.NewCounter("sleep", "requests_total",
	"Sleep requests by outcome.", []string{"outcome"}) // "ok" | "invalid" | "cancelled"

// SleepController answers after a caller-chosen delay. Testing tools use it
// to exercise their request timeouts.
type SleepController struct {
	maxMs int
}

// NewSleepController accepts delays from 0 to maxMs milliseconds.
func NewSleepController(maxMs int) *SleepController {
	return &SleepController{maxMs: maxMs}
}

type sleepResult struct {
	SleptMs int `json:"sleptMs"`
}

// Sleep handles GET /api/sleep/{ms}.
func (c *SleepController) Sleep(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "ms")
	ms, err := strconv.Atoi(raw)
	if err != nil || ms < 0 {
		sleepRequests.WithLabelValues("invalid").Inc()
		response.BadRequest(w, "ms must be a non-negative integer")
		return
	}
	if ms > c.maxMs {
		sleepRequests.WithLabelValues("invalid").Inc()
		response.BadRequest(w, "ms must not exceed "+strconv.Itoa(c.maxMs))
		return
	}

	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-r.Context().Done():
		sleepRequests.WithLabelValues("cancelled").Inc()
		logger.WithCtx(r.Context()).Info("sleep cancelled", "ms", ms, "error", r.Context().Err())
		return
	}

	sleepRequests.WithLabelValues("ok").Inc()
	response.Success(w, sleepResult{SleptMs: ms})
}
