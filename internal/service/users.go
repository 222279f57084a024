package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/beverages-system/internal/model"
	"github.com/mmeshcher/beverages-system/internal/repository"
	"github.com/mmeshcher/beverages-system/internal/validation"
)

// ListUsers возвращает страницу пользователей.
func (s *Service) ListUsers(ctx context.Context, page model.PageRequest) (model.Page[model.User], error) {
	return s.repo.ListUsers(ctx, page)
}

// SetUserRole меняет роль пользователя.
func (s *Service) SetUserRole(ctx context.Context, userID string, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, &validation.Error{Fields: []validation.FieldError{{Field: "role", Message: "Unknown role"}}}
	}
	return s.updateUser(ctx, userID, func(u *model.User) {
		u.Role = role
	})
}

// SetUserActive включает или отключает учётную запись. Пользователи не удаляются.
func (s *Service) SetUserActive(ctx context.Context, userID string, active bool) (*model.User, error) {
	return s.updateUser(ctx, userID, func(u *model.User) {
		u.Active = active
	})
}

func (s *Service) updateUser(ctx context.Context, userID string, mutate func(u *model.User)) (*model.User, error) {
	u, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	mutate(u)
	u.UpdatedAt = s.now()

	if err := s.repo.UpdateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("user updated",
		zap.String("userID", u.ID),
		zap.String("role", string(u.Role)),
		zap.Bool("active", u.Active),
	)
	return u, nil
}
