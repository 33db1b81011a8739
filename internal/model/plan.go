package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
)

func (b BillingCycle) Valid() bool {
	return b == BillingCycleMonthly || b == BillingCycleYearly
}

// Plan bir abonelik planını temsil eder. Soft delete: IsActive false yapılır,
// satır asla silinmez (eski aboneliklerin referansları korunur).
type Plan struct {
	gorm.Model
	Name         string         `json:"name" gorm:"not null;index"`
	Amount       float64        `json:"amount" gorm:"not null"`
	Currency     string         `json:"currency" gorm:"default:'NGN'"`
	BillingCycle BillingCycle   `json:"billing_cycle" gorm:"default:'monthly'"`
	Features     datatypes.JSON `json:"features"`
	// Varsayılanlar plan adına göre servis katmanında doldurulur
	Quality    string `json:"quality"`
	Resolution string `json:"resolution"`
	Screens    int    `json:"screens"`
	Devices    string `json:"devices"`
	IsActive   bool   `json:"is_active" gorm:"default:true"`

	// İlişkiler
	UserSubscriptions []UserSubscription `json:"-"`
}
