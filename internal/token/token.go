// Package token выпускает и проверяет подписанные токены сессии.
package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmeshcher/beverages-system/internal/model"
)

// ErrInvalidToken возвращается для любого непригодного токена: повреждённого, просроченного,
// с чужой подписью или неподдерживаемым алгоритмом.
var ErrInvalidToken = errors.New("invalid token")

// Identity содержит данные пользователя, извлечённые из токена.
type Identity struct {
	UserID string
	Email  string
	Role   model.Role
	Name   string
}

// Claims описывает полезную нагрузку токена.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Manager подписывает токены симметричным ключом, заданным при запуске.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager создаёт менеджер токенов. При пустом секрете генерируется случайный ключ,
// и выданные токены перестают действовать после перезапуска процесса.
func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 64)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	return &Manager{
		secret: key,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL возвращает время жизни выдаваемых токенов.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue выпускает токен для пользователя.
func (m *Manager) Issue(u *model.User) (string, error) {
	now := m.now()
	claims := &Claims{
		Email: u.Email,
		Role:  string(u.Role),
		Name:  u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate проверяет подпись и срок действия токена и возвращает личность владельца.
func (m *Manager) Validate(raw string) (*Identity, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" || !model.Role(claims.Role).Valid() {
		return nil, ErrInvalidToken
	}

	return &Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   model.Role(claims.Role),
		Name:   claims.Name,
	}, nil
}
