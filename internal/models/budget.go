package models

import "time"

// BudgetPeriod represents the period type for a budget
type BudgetPeriod string

const (
	BudgetPeriodWeekly  BudgetPeriod = "weekly"
	BudgetPeriodMonthly BudgetPeriod = "monthly"
	BudgetPeriodYearly  BudgetPeriod = "yearly"
)

// Budget represents a spending plan for a category over a period. Budgets are
// reference data; they never affect wallet balances.
type Budget struct {
	Base
	UserID     uint         `gorm:"not null;index" json:"user_id"`
	CategoryID *uint        `json:"category_id,omitempty"`
	Amount     int64        `gorm:"not null" json:"amount"`
	Period     BudgetPeriod `gorm:"not null;default:'monthly'" json:"period"`
	StartDate  time.Time    `gorm:"not null" json:"start_date"`
	EndDate    *time.Time   `json:"end_date,omitempty"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
