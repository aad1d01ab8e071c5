package httpapi

import (
	"net/http"
)

type updateScalingRequest struct {
	ScalingKcal     *float64 `json:"scalingKcal" validate:"omitempty,gt=0"`
	ScalingDistance *float64 `json:"scalingDistance" validate:"omitempty,gt=0"`
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMe")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	item, err := h.userService.Ensure(ctx, principal)
	if err != nil {
		h.logger.WarnContext(ctx, "ensure user failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, userToDTO(item))
}

func (h *Handler) UpdateMyScaling(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateMyScaling")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	var req updateScalingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if _, err := h.userService.Ensure(ctx, principal); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.userService.UpdateScaling(ctx, principal.UserID, req.ScalingKcal, req.ScalingDistance)
	if err != nil {
		h.logger.WarnContext(ctx, "update scaling failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, userToDTO(item))
}
