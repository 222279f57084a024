package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/beverages-system/internal/model"
)

type seedUser struct {
	name, email, password string
	role                  model.Role
	department            string
	employeeID            string
	quota                 int
}

var seedUsers = []seedUser{
	{"Admin User", "admin@company.com", "admin123", model.RoleAdmin, "IT", "EMP001", 100},
	{"John Employee", "employee@company.com", "employee123", model.RoleEmployee, "Sales", "EMP002", 10},
	{"Worker Staff", "worker@company.com", "worker123", model.RoleWorker, "Kitchen", "EMP003", 5},
	{"Manager Boss", "manager@company.com", "manager123", model.RoleManagement, "Management", "EMP004", 20},
	{"Sarah Employee", "sarah@company.com", "sarah123", model.RoleEmployee, "Marketing", "EMP005", 10},
}

type seedBeverage struct {
	name, nameAr, description, descriptionAr string
	category                                 model.Category
	price                                    string
}

var seedBeverages = []seedBeverage{
	{"Espresso", "اسبريسو", "Strong black coffee", "قهوة سوداء قوية", model.CategoryHotDrinks, "3.50"},
	{"Cappuccino", "كابتشينو", "Espresso with steamed milk and foam", "اسبريسو مع حليب مبخر ورغوة", model.CategoryHotDrinks, "4.50"},
	{"Latte", "لاتيه", "Espresso with steamed milk", "اسبريسو مع حليب مبخر", model.CategoryHotDrinks, "4.00"},
	{"Green Tea", "شاي أخضر", "Fresh green tea", "شاي أخضر طازج", model.CategoryHotDrinks, "2.50"},
	{"Iced Coffee", "قهوة مثلجة", "Cold brewed coffee with ice", "قهوة باردة مع ثلج", model.CategoryColdDrinks, "4.00"},
	{"Iced Latte", "لاتيه مثلج", "Cold latte with ice", "لاتيه بارد مع ثلج", model.CategoryColdDrinks, "4.50"},
	{"Iced Tea", "شاي مثلج", "Refreshing iced tea", "شاي مثلج منعش", model.CategoryColdDrinks, "3.00"},
	{"Orange Juice", "عصير برتقال", "Fresh squeezed orange juice", "عصير برتقال طازج", model.CategoryJuices, "5.00"},
	{"Apple Juice", "عصير تفاح", "Pure apple juice", "عصير تفاح نقي", model.CategoryJuices, "4.50"},
	{"Mango Juice", "عصير مانجو", "Tropical mango juice", "عصير مانجو استوائي", model.CategoryJuices, "5.50"},
	{"Berry Smoothie", "سموذي التوت", "Mixed berries smoothie", "سموذي التوت المشكل", model.CategorySmoothies, "6.50"},
	{"Banana Smoothie", "سموذي الموز", "Creamy banana smoothie", "سموذي الموز الكريمي", model.CategorySmoothies, "6.00"},
	{"Mocha", "موكا", "Chocolate flavored coffee", "قهوة بنكهة الشوكولاتة", model.CategorySpecialty, "5.50"},
	{"Caramel Macchiato", "ماكياتو كراميل", "Espresso with caramel", "اسبريسو مع الكراميل", model.CategorySpecialty, "5.50"},
}

// Seed заполняет пустое хранилище демонстрационными пользователями и напитками.
// Если пользователи уже есть, ничего не делает.
func (s *Service) Seed(ctx context.Context) error {
	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		s.logger.Info("store already contains data, skipping seeding")
		return nil
	}

	now := s.now()
	for _, su := range seedUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(su.password), passwordCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		u := &model.User{
			ID:           uuid.NewString(),
			Name:         su.name,
			Email:        su.email,
			PasswordHash: string(hash),
			Role:         su.role,
			Department:   su.department,
			EmployeeID:   su.employeeID,
			Quota:        su.quota,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.repo.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", su.email, err)
		}
	}

	for _, sb := range seedBeverages {
		b := &model.Beverage{
			ID:            uuid.NewString(),
			Name:          sb.name,
			NameAr:        sb.nameAr,
			Description:   sb.description,
			DescriptionAr: sb.descriptionAr,
			Category:      sb.category,
			Price:         decimal.RequireFromString(sb.price),
			Available:     true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.repo.CreateBeverage(ctx, b); err != nil {
			return fmt.Errorf("seed beverage %s: %w", sb.name, err)
		}
	}

	s.logger.Info("store seeded",
		zap.Int("users", len(seedUsers)),
		zap.Int("beverages", len(seedBeverages)),
	)
	return nil
}
