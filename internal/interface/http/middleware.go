package http

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type ctxKey struct{}

var ctxUserKey = ctxKey{}

type authUser struct {
	UserID string
}

// tokenFromRequest reads the credential from the "token" header, falling
// back to a bearer Authorization header.
func tokenFromRequest(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get("token")); token != "" {
		return token
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

func (a *API) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.authSvc.Authenticate(tokenFromRequest(r))
		if err != nil {
			a.logger.Debug("request not authenticated",
				zap.String("path", r.URL.Path),
				zap.Error(err))
			a.handleDomainError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), ctxUserKey, &authUser{UserID: claims.UserID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *API) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.adminKey != "" {
			key := r.Header.Get("X-Admin-Key")
			if subtle.ConstantTimeCompare([]byte(key), []byte(a.adminKey)) != 1 {
				respondError(w, http.StatusForbidden, codeForbidden, "Forbidden")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			a.logger.Info("http request",
				zap.String("request_id", chimw.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)))
		}()
		next.ServeHTTP(ww, r)
	})
}

func getAuthUser(ctx context.Context) *authUser {
	val := ctx.Value(ctxUserKey)
	if user, ok := val.(*authUser); ok {
		return user
	}
	return nil
}
