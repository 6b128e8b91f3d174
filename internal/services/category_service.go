package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/models"
)

// defaultCategories is the reference set seeded on first start.
var defaultCategories = []models.Category{
	{Name: "Food & Drinks", Icon: "restaurant", Color: "#ff9800", IsDefault: true},
	{Name: "Shopping", Icon: "shopping_bag", Color: "#2196f3", IsDefault: true},
	{Name: "Transportation", Icon: "directions_car", Color: "#3f51b5", IsDefault: true},
	{Name: "Bills & Utilities", Icon: "receipt", Color: "#f44336", IsDefault: true},
	{Name: "Entertainment", Icon: "movie", Color: "#9c27b0", IsDefault: true},
	{Name: "Health", Icon: "favorite", Color: "#4caf50", IsDefault: true},
	{Name: "Salary", Icon: "payments", Color: "#4caf50", IsDefault: true},
}

// categoryService handles the global category reference data.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// ListCategories returns all categories.
func (s *categoryService) ListCategories() ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.Order("id").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// GetCategoryByID retrieves a category by ID.
func (s *categoryService) GetCategoryByID(id uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// CreateCategory adds a category to the reference set.
func (s *categoryService) CreateCategory(name, icon, color string, isDefault bool) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	category := &models.Category{
		Name:      name,
		Icon:      icon,
		Color:     color,
		IsDefault: isDefault,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// SeedDefaults inserts the default category set if no defaults exist yet.
// Safe to call on every start.
func (s *categoryService) SeedDefaults() error {
	var count int64
	if err := s.db.Model(&models.Category{}).Where("is_default = ?", true).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil
	}

	for i := range defaultCategories {
		category := defaultCategories[i]
		if err := s.db.Create(&category).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return nil
}
