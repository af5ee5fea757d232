package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ai-newsletter/subscription-api/internal/app/subscriptions"
	"github.com/ai-newsletter/subscription-api/internal/domain"
	"github.com/ai-newsletter/subscription-api/internal/platform/logging"
	"github.com/ai-newsletter/subscription-api/internal/platform/metrics"
)

const (
	apiName    = "AI Newsletter Subscription API is running"
	apiVersion = "1.0.0"

	maxSubscribeBody = 1 << 20
)

// Server holds the HTTP handlers. It owns no state beyond the injected service.
type Server struct {
	Subscriptions *subscriptions.Service
	Log           *zap.Logger
}

func NewServer(svc *subscriptions.Service, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{Subscriptions: svc, Log: log}
}

type infoResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

type subscriberJSON struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status"`
}

type listResponse struct {
	Success bool             `json:"success"`
	Data    []subscriberJSON `json:"data"`
	Count   int              `json:"count"`
}

func (s *Server) Info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, infoResponse{
		Message: apiName,
		Version: apiVersion,
		Endpoints: map[string]string{
			"subscribe":   "POST /subscribe",
			"subscribers": "GET /subscribers",
			"health":      "GET /",
		},
	})
}

func (s *Server) Subscribe(w http.ResponseWriter, r *http.Request) {
	log := logging.WithRequest(r.Context(), s.Log)

	email, ok := decodeSubscribeRequest(r.Body)
	if !ok {
		log.Debug("subscribe body rejected")
		metrics.IncrementSubscribe(metrics.OutcomeInvalid)
		writeFailure(w, http.StatusBadRequest, subscriptions.MsgInvalidEmail)
		return
	}

	if _, err := s.Subscriptions.Subscribe(r.Context(), email); err != nil {
		switch {
		case subscriptions.IsInvalid(err):
			metrics.IncrementSubscribe(metrics.OutcomeInvalid)
		case subscriptions.IsConflict(err):
			metrics.IncrementSubscribe(metrics.OutcomeConflict)
		default:
			metrics.IncrementSubscribe(metrics.OutcomeError)
		}
		writeAppError(w, r, s.Log, err)
		return
	}

	metrics.IncrementSubscribe(metrics.OutcomeCreated)
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: subscriptions.MsgSubscribed})
}

// decodeSubscribeRequest accepts exactly one JSON object. The email is read from
// the exact key "email" and must be a string when present; a missing key yields
// "" so the syntax check rejects it. Anything else is reported as not ok.
func decodeSubscribeRequest(body io.Reader) (string, bool) {
	dec := json.NewDecoder(io.LimitReader(body, maxSubscribeBody))
	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return "", false
	}
	var trailing json.RawMessage
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		return "", false
	}

	raw, ok := fields["email"]
	if !ok {
		return "", true
	}
	var email string
	if err := json.Unmarshal(raw, &email); err != nil {
		return "", false
	}
	return email, true
}

func (s *Server) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	subs, err := s.Subscriptions.ListSubscribers(r.Context())
	if err != nil {
		writeAppError(w, r, s.Log, err)
		return
	}
	out := make([]subscriberJSON, 0, len(subs))
	for _, sub := range subs {
		out = append(out, toSubscriberJSON(sub))
	}
	writeJSON(w, http.StatusOK, listResponse{Success: true, Data: out, Count: len(out)})
}

func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	if err := s.Subscriptions.Ready(r.Context()); err != nil {
		logging.WithRequest(r.Context(), s.Log).Warn("readiness check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "store_not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) NotFound(w http.ResponseWriter, _ *http.Request) {
	writeFailure(w, http.StatusNotFound, subscriptions.MsgEndpointNotFound)
}

func toSubscriberJSON(s domain.Subscriber) subscriberJSON {
	return subscriberJSON{
		ID:        string(s.ID),
		Email:     s.Email,
		CreatedAt: s.CreatedAt.UTC(),
		Status:    string(s.Status),
	}
}
