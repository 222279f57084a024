package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/beverages-system/internal/model"
	"github.com/mmeshcher/beverages-system/internal/repository"
	"github.com/mmeshcher/beverages-system/internal/validation"
)

const defaultQuota = 10

var passwordCost = bcrypt.DefaultCost

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// RegisterInput содержит данные новой учётной записи.
type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	Role       model.Role
	Department string
	EmployeeID string
	Quota      *int
}

// AuthResult возвращается после входа или регистрации.
type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Login проверяет учётные данные и выпускает токен.
// Неизвестный email, отключённая учётная запись и неверный пароль дают одну и ту же ошибку.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var v validation.Validator
	v.Check(validation.NotBlank(email), "email", "Email is required")
	v.Check(validation.NotBlank(password), "password", "Password is required")
	if err := v.Err(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("get user by email: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(fallbackHash(), []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.Active {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("user logged in", zap.String("userID", u.ID))
	return &AuthResult{Token: token, User: u}, nil
}

// Register создаёт учётную запись и сразу выпускает для неё токен.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.EmployeeID = strings.TrimSpace(in.EmployeeID)
	if in.Role == "" {
		in.Role = model.RoleEmployee
	}
	quota := defaultQuota
	if in.Quota != nil {
		quota = *in.Quota
	}

	var v validation.Validator
	v.Check(validation.NotBlank(in.Name), "name", "Name is required")
	v.Check(validation.NotBlank(in.Email), "email", "Email is required")
	v.Check(in.Email == "" || validation.IsValidEmail(in.Email), "email", "Invalid email format")
	v.Check(len(in.Password) >= validation.MinPasswordLength, "password", "Password must be at least 6 characters")
	v.Check(in.Role.Valid(), "role", "Unknown role")
	v.Check(quota >= 0, "quota", "Quota must not be negative")
	if err := v.Err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), passwordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	u := &model.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		Department:   strings.TrimSpace(in.Department),
		EmployeeID:   in.EmployeeID,
		Quota:        quota,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrDuplicateEmail
		case errors.Is(err, repository.ErrDuplicateEmployeeID):
			return nil, ErrDuplicateEmployeeID
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("user registered", zap.String("userID", u.ID), zap.String("role", string(u.Role)))
	return &AuthResult{Token: token, User: u}, nil
}

// Me возвращает профиль пользователя.
func (s *Service) Me(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// fallbackHash используется для сравнения, когда пользователь не найден.
func fallbackHash() []byte {
	dummyHashOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), passwordCost)
		if err == nil {
			dummyHash = h
		}
	})
	return dummyHash
}
