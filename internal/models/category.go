package models

// Category is global reference data shared by all users. Transactions and
// budgets reference categories weakly: a missing category id simply means
// uncategorized.
type Category struct {
	Base
	Name      string `gorm:"not null" json:"name"`
	Icon      string `gorm:"not null" json:"icon"`
	Color     string `gorm:"not null" json:"color"`
	IsDefault bool   `gorm:"default:false" json:"is_default"`
}
