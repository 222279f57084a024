package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/beverages-system/internal/model"
	"github.com/mmeshcher/beverages-system/internal/repository"
	"github.com/mmeshcher/beverages-system/internal/validation"
)

// BeverageInput содержит редактируемые поля напитка.
type BeverageInput struct {
	Name          string          `json:"name"`
	NameAr        string          `json:"nameAr"`
	Description   string          `json:"description"`
	DescriptionAr string          `json:"descriptionAr"`
	Category      model.Category  `json:"category"`
	Price         decimal.Decimal `json:"price"`
	Image         string          `json:"image"`
	Available     *bool           `json:"available"`
}

// priceScale задаёт число знаков после запятой в цене напитка.
const priceScale = 2

func (in BeverageInput) validate() error {
	var v validation.Validator
	v.Check(validation.NotBlank(in.Name), "name", "Name is required")
	v.Check(validation.NotBlank(in.NameAr), "nameAr", "Arabic name is required")
	v.Check(in.Category.Valid(), "category", "Unknown category")
	v.Check(in.Price.IsPositive(), "price", "Price must be positive")
	v.Check(in.Price.Equal(in.Price.Round(priceScale)), "price", "Price must have at most 2 decimal places")
	return v.Err()
}

func (in BeverageInput) apply(b *model.Beverage) {
	b.Name = strings.TrimSpace(in.Name)
	b.NameAr = strings.TrimSpace(in.NameAr)
	b.Description = in.Description
	b.DescriptionAr = in.DescriptionAr
	b.Category = in.Category
	b.Price = in.Price
	b.Image = in.Image
	if in.Available != nil {
		b.Available = *in.Available
	}
}

// ListBeverages возвращает страницу каталога.
func (s *Service) ListBeverages(ctx context.Context, f model.BeverageFilter, page model.PageRequest) (model.Page[model.Beverage], error) {
	if f.Category != "" && !f.Category.Valid() {
		return model.Page[model.Beverage]{}, &validation.Error{Fields: []validation.FieldError{
			{Field: "category", Message: "Unknown category"},
		}}
	}
	f.Search = strings.TrimSpace(f.Search)
	return s.repo.ListBeverages(ctx, f, page)
}

// GetBeverage возвращает напиток по идентификатору.
func (s *Service) GetBeverage(ctx context.Context, id string) (*model.Beverage, error) {
	b, err := s.repo.GetBeverage(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBeverageNotFound
		}
		return nil, fmt.Errorf("get beverage: %w", err)
	}
	return b, nil
}

// CreateBeverage добавляет напиток в каталог. Без явного флага напиток доступен.
func (s *Service) CreateBeverage(ctx context.Context, in BeverageInput) (*model.Beverage, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	b := &model.Beverage{
		ID:        uuid.NewString(),
		Available: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.apply(b)

	if err := s.repo.CreateBeverage(ctx, b); err != nil {
		return nil, fmt.Errorf("create beverage: %w", err)
	}

	s.logger.Info("beverage created", zap.String("beverageID", b.ID), zap.String("name", b.Name))
	return b, nil
}

// UpdateBeverage изменяет напиток. Счётчики заказов и рейтинга не меняются.
func (s *Service) UpdateBeverage(ctx context.Context, id string, in BeverageInput) (*model.Beverage, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	b, err := s.GetBeverage(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(b)
	b.UpdatedAt = s.now()

	if err := s.repo.UpdateBeverage(ctx, b); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBeverageNotFound
		}
		return nil, fmt.Errorf("update beverage: %w", err)
	}

	s.logger.Info("beverage updated", zap.String("beverageID", b.ID))
	return b, nil
}
