package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/procwise/procwise/auth"
)

// claims is the token payload minted by the external session layer.
type claims struct {
	jwt.RegisteredClaims
	Name  string `json:"name,omitempty"`
	Admin bool   `json:"admin,omitempty"`
}

// authenticate resolves the bearer token into a Caller and rejects
// unauthenticated requests.
func (a *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			a.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")
		parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return a.secret, nil
		})
		if err != nil || !parsed.Valid {
			a.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token"})
			return
		}
		tokenClaims, ok := parsed.Claims.(*claims)
		if !ok || tokenClaims.Subject == "" {
			a.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token"})
			return
		}
		caller := auth.Caller{
			UserID:  tokenClaims.Subject,
			Name:    tokenClaims.Name,
			IsAdmin: tokenClaims.Admin,
		}
		next.ServeHTTP(w, r.WithContext(auth.WithCaller(r.Context(), caller)))
	})
}

// statusRecorder captures the response code for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument logs each request and feeds the prometheus counters.
func (a *API) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		a.metrics.observe(r.Method, routeName(r), recorder.status, time.Since(started))
		a.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", recorder.status),
			zap.Duration("elapsed", time.Since(started)),
		)
	})
}
