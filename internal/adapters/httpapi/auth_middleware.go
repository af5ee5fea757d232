package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ai-newsletter/subscription-api/internal/app/subscriptions"
	"github.com/ai-newsletter/subscription-api/internal/platform/auth/jwtverifier"
	"github.com/ai-newsletter/subscription-api/internal/platform/logging"
)

// AuthOptions configures the admin auth middlewares.
type AuthOptions struct {
	// AdminSubjects, when non-empty, restricts access to these subjects.
	AdminSubjects []string
	Logger        *zap.Logger
}

func (o AuthOptions) allow(sub string) bool {
	if len(o.AdminSubjects) == 0 {
		return true
	}
	for _, s := range o.AdminSubjects {
		if s == sub {
			return true
		}
	}
	return false
}

func (o AuthOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// NewAuthMiddleware enforces Authorization: Bearer <JWT> on the routes it wraps.
//
// On success, it stores the authenticated subjectID (JWT `sub`) in request context.
func NewAuthMiddleware(v *jwtverifier.Verifier, opts AuthOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logging.WithRequest(r.Context(), opts.logger())

			authz := r.Header.Get("Authorization")
			if authz == "" {
				log.Debug("auth rejected", zap.String("reason", "missing Authorization header"))
				writeFailure(w, http.StatusUnauthorized, subscriptions.MsgUnauthorized)
				return
			}
			const prefix = "Bearer "
			if !strings.HasPrefix(authz, prefix) {
				log.Debug("auth rejected", zap.String("reason", "malformed Authorization header"))
				writeFailure(w, http.StatusUnauthorized, subscriptions.MsgUnauthorized)
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, prefix))
			if raw == "" {
				log.Debug("auth rejected", zap.String("reason", "missing bearer token"))
				writeFailure(w, http.StatusUnauthorized, subscriptions.MsgUnauthorized)
				return
			}

			sub, err := v.Verify(r.Context(), raw)
			if err != nil {
				log.Info("auth rejected", zap.String("reason", "invalid token"), zap.Error(err))
				writeFailure(w, http.StatusUnauthorized, subscriptions.MsgUnauthorized)
				return
			}
			if !opts.allow(sub) {
				log.Info("auth rejected", zap.String("reason", "subject not an admin"), zap.String("subject", sub))
				writeFailure(w, http.StatusUnauthorized, subscriptions.MsgUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), sub)))
		})
	}
}

// NewDevAuthMiddleware is a local/dev-only auth shim.
//
// It accepts an explicit subject via X-Debug-Subject and stores it in request context.
// If the header is absent, it falls back to defaultSubject (if provided).
//
// Do NOT use this in production deployments.
func NewDevAuthMiddleware(defaultSubject string, opts AuthOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub := strings.TrimSpace(r.Header.Get("X-Debug-Subject"))
			if sub == "" {
				sub = strings.TrimSpace(defaultSubject)
			}
			if sub == "" || !opts.allow(sub) {
				logging.WithRequest(r.Context(), opts.logger()).Debug("dev auth rejected", zap.String("subject", sub))
				writeFailure(w, http.StatusUnauthorized, subscriptions.MsgUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), sub)))
		})
	}
}
