package services

import (
	"testing"

	"budgetwise/internal/models"
	"budgetwise/internal/testutil"
)

func TestSeedDefaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCategoryService(db)

	testutil.AssertNoError(t, svc.SeedDefaults())

	categories, err := svc.ListCategories()
	testutil.AssertNoError(t, err)
	if len(categories) != 7 {
		t.Fatalf("expected 7 default categories, got %d", len(categories))
	}

	// Seeding again must not duplicate.
	testutil.AssertNoError(t, svc.SeedDefaults())
	var count int64
	testutil.AssertNoError(t, db.Model(&models.Category{}).Count(&count).Error)
	if count != 7 {
		t.Errorf("expected 7 categories after reseed, got %d", count)
	}
}

func TestCreateCategory(t *testing.T) {
	t.Run("creates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)

		category, err := svc.CreateCategory("Pets", "pets", "#795548", false)
		testutil.AssertNoError(t, err)
		if category.ID == 0 {
			t.Fatal("expected non-zero category ID")
		}
		if category.IsDefault {
			t.Error("user-created categories should not be defaults")
		}
	})

	t.Run("requires_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)

		_, err := svc.CreateCategory("", "x", "#000000", false)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetCategoryByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCategoryService(db)

	created, err := svc.CreateCategory("Travel", "flight", "#00bcd4", false)
	testutil.AssertNoError(t, err)

	category, err := svc.GetCategoryByID(created.ID)
	testutil.AssertNoError(t, err)
	if category.Name != "Travel" {
		t.Errorf("expected Travel, got %s", category.Name)
	}

	_, err = svc.GetCategoryByID(99999)
	testutil.AssertAppError(t, err, "NOT_FOUND")
}
