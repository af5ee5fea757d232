package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ai-newsletter/subscription-api/internal/app/subscriptions"
	"github.com/ai-newsletter/subscription-api/internal/platform/logging"
)

// envelope is the {success, message} shape every failure (and a successful
// subscribe) is reported in.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

// writeAppError maps an application error onto the envelope. Anything that is
// not a *subscriptions.Error becomes the generic 500.
func writeAppError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	if ae := (*subscriptions.Error)(nil); errors.As(err, &ae) {
		writeFailure(w, ae.Status, ae.Message)
		return
	}
	logging.WithRequest(r.Context(), log).Error("unhandled error", zap.Error(err))
	writeFailure(w, http.StatusInternalServerError, subscriptions.MsgServerError)
}
