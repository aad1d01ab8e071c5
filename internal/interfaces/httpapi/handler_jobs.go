package httpapi

import (
	"fmt"
	"net/http"

	"github.com/challengefit/workout-challenge/internal/usecase"
)

// RunRecalcJob drains the pending recalculation markers synchronously and
// returns the run report. The debounced background drain covers normal
// operation; this endpoint exists for schedulers and operators.
func (h *Handler) RunRecalcJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRecalcJob")
	defer span.End()

	if h.recalcService == nil {
		writeError(ctx, w, fmt.Errorf("%w: recalc service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	report, err := h.recalcService.Run(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "recalc job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "recalc job finished",
		"skipped", report.Skipped,
		"marker_count", report.MarkerCount,
		"group_count", report.GroupCount,
		"failed_count", report.FailedCount,
		"duration_ms", report.DurationMs,
	)
	writeSuccess(ctx, w, http.StatusOK, report)
}
