package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dishom/opsboard/internal/pkg/errors"
	"github.com/dishom/opsboard/internal/pkg/logger"
	"github.com/dishom/opsboard/internal/pkg/utils"
	"github.com/dishom/opsboard/internal/services"
)

// defaultTrendRange is used when the range parameter is absent.
const defaultTrendRange = 7 * 24 * time.Hour

type MetricsHandler struct {
	service *services.MetricsService
	logger  *logger.Logger
}

func NewMetricsHandler(service *services.MetricsService, log *logger.Logger) *MetricsHandler {
	return &MetricsHandler{service: service, logger: log}
}

// Trends returns current-vs-previous values for every available metric
// @Summary Metric trends
// @Description Get each registered metric's value over the requested range alongside the preceding range, with percentage change
// @Tags Metrics
// @Produce json
// @Param range query string false "Lookback range, <n>h or <n>d (default: 7d)"
// @Success 200 {object} utils.SuccessResponse{data=map[string]metric.Trend} "Trends keyed by metric name"
// @Failure 400 {object} utils.ErrorResponse "Invalid range"
// @Security BearerAuth
// @Router /metrics [get]
func (h *MetricsHandler) Trends(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r.URL.Query().Get("range"))
	if err != nil {
		utils.WriteError(w, errors.BadRequest(err.Error()))
		return
	}

	utils.WriteSuccess(w, http.StatusOK, h.service.Compute(r.Context(), rng))
}

// parseRange parses "<n>h" or "<n>d" lookback strings. Empty input
// falls back to the default range.
func parseRange(s string) (time.Duration, error) {
	if s == "" {
		return defaultTrendRange, nil
	}
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid range: %s", s)
	}

	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid range: %s", s)
	}

	switch s[len(s)-1] {
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("invalid range: %s", s)
}
