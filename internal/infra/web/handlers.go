package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"telegram-yoga-subscription/internal/domain"
)

type ctxKey string

const ctxAdminID ctxKey = "admin_id"

func withAdminID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxAdminID, id)
}

func adminIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxAdminID).(string); ok && v != "" {
		return v
	}
	return "admin"
}

type subscriptionActionRequest struct {
	Action string `json:"action"` // "extend" | "revoke"
}

func (s *Server) handleSubscriptionAction(w http.ResponseWriter, r *http.Request) {
	subID := chi.URLParam(r, "id")

	var req subscriptionActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	ctx := r.Context()
	adminID := adminIDFrom(ctx)

	var err error
	switch req.Action {
	case "extend":
		_, err = s.adminUC.Extend(ctx, subID, adminID)
	case "revoke":
		_, err = s.adminUC.Revoke(ctx, subID, adminID)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown action"})
		return
	}

	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "subscription not found"})
			return
		}
		s.log.Error().Err(err).Str("subscription_id", subID).Str("action", req.Action).Msg("subscription action failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleJobTrigger(w http.ResponseWriter, r *http.Request) {
	run, err := s.lifecycleUC.RunOnce(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("manual sweep failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runId":          run.ID,
		"status":         run.Status,
		"processedCount": run.ProcessedCount,
		"errors":         run.Errors,
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
