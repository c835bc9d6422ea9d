package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// UserIDHeader заголовок, который проставляет шлюз аутентификации
const UserIDHeader = "X-User-ID"

type contextKey string

const userIDKey contextKey = "userID"

// OptionalAuth кладёт X-User-ID в контекст, если он есть и корректен.
// Гостевые запросы проходят без него, некорректный заголовок отклоняется
func OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := uuid.Parse(raw)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":401,"message":"invalid X-User-ID header"}`))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// WithUserID кладёт ID пользователя в контекст
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID достаёт ID пользователя из контекста
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userIDKey).(uuid.UUID)
	return userID, ok
}

// UserIDPtr nil для гостя
func UserIDPtr(ctx context.Context) *uuid.UUID {
	userID, ok := GetUserID(ctx)
	if !ok {
		return nil
	}
	return &userID
}
