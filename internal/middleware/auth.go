// Package middleware содержит HTTP middleware сервиса заказа напитков.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/mmeshcher/beverages-system/internal/access"
	"github.com/mmeshcher/beverages-system/internal/model"
	"github.com/mmeshcher/beverages-system/internal/token"
)

var errInactiveUser = errors.New("user is inactive")

type contextKey string

const identityKey contextKey = "identity"

const tokenQueryParam = "token"

// TokenValidator проверяет токен сессии.
type TokenValidator interface {
	Validate(raw string) (*token.Identity, error)
}

// UserResolver загружает актуальную запись пользователя.
type UserResolver interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// AuthMiddleware определяет пользователя по токену и проверяет права на операции.
type AuthMiddleware struct {
	tokens TokenValidator
	users  UserResolver
}

// NewAuthMiddleware создаёт middleware аутентификации. Если users не nil, роль и активность
// берутся из хранилища, а не из токена.
func NewAuthMiddleware(tokens TokenValidator, users UserResolver) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Middleware добавляет в контекст личность владельца токена из заголовка Authorization
// или параметра token. Запрос без токена, с непригодным токеном или от удалённого
// либо отключённого пользователя проходит дальше как анонимный.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		id, err := a.tokens.Validate(raw)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		if a.users != nil {
			id, err = a.resolve(r.Context(), id)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func (a *AuthMiddleware) resolve(ctx context.Context, id *token.Identity) (*token.Identity, error) {
	u, err := a.users.GetUserByID(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, errInactiveUser
	}
	return &token.Identity{UserID: u.ID, Email: u.Email, Role: u.Role, Name: u.Name}, nil
}

// Require пропускает запрос, только если роль пользователя разрешает операцию.
// Анонимный запрос получает 401, запрос с недостаточной ролью получает 403.
func Require(op access.Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				writeDenied(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if !access.Allowed(id.Role, op) {
				writeDenied(w, http.StatusForbidden, "You don't have permission to access this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithIdentity возвращает контекст с личностью пользователя.
func WithIdentity(ctx context.Context, id *token.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext извлекает личность пользователя из контекста запроса.
func IdentityFromContext(ctx context.Context) (*token.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*token.Identity)
	return id, ok && id != nil
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, value, found := strings.Cut(h, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(value)
		}
		return ""
	}
	return r.URL.Query().Get(tokenQueryParam)
}

func writeDenied(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":     http.StatusText(status),
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
