package model

import (
	"time"

	"gorm.io/gorm"
)

type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// UserSubscription bir kullanıcının satın aldığı abonelik dönemini temsil eder.
// PlanName/Amount/Currency plan satın alındığı andaki halinin kopyasıdır;
// plan sonradan güncellense bile mevcut dönem değişmez.
type UserSubscription struct {
	gorm.Model
	UserID       uint               `json:"user_id" gorm:"not null;index:idx_user_status"`
	PlanID       uint               `json:"plan_id" gorm:"not null"`
	PlanName     string             `json:"plan_name" gorm:"not null"`
	Amount       float64            `json:"amount" gorm:"not null"`
	Currency     string             `json:"currency" gorm:"default:'NGN'"`
	BillingCycle BillingCycle       `json:"billing_cycle" gorm:"default:'monthly'"`
	Status       SubscriptionStatus `json:"status" gorm:"default:'pending';index:idx_user_status"`
	StartDate    time.Time          `json:"start_date"`
	EndDate      time.Time          `json:"end_date" gorm:"index"`
	CancelledAt  *time.Time         `json:"cancelled_at"`
	AutoRenew    bool               `json:"auto_renew"`

	PaymentMethod string `json:"payment_method" gorm:"default:'paystack'"`

	// Paystack korelasyon verileri
	Reference         string `json:"reference" gorm:"index"`
	AccessCode        string `json:"access_code"`
	AuthorizationURL  string `json:"authorization_url"`
	AuthorizationCode string `json:"-"`
	CardType          string `json:"card_type"`
	Last4             string `json:"last4"`
	ExpMonth          string `json:"exp_month"`
	ExpYear           string `json:"exp_year"`
	Bank              string `json:"bank"`
	AccountName       string `json:"account_name"`

	// İlişkiler
	User           User            `json:"-" gorm:"foreignKey:UserID"`
	Plan           Plan            `json:"plan,omitempty" gorm:"foreignKey:PlanID"`
	PaymentHistory []PaymentRecord `json:"payment_history,omitempty"`
}

// PaymentRecord abonelik başına append-only ödeme geçmişi satırıdır.
// Hiçbir kayıt güncellenmez veya silinmez.
type PaymentRecord struct {
	gorm.Model
	UserSubscriptionID uint      `json:"user_subscription_id" gorm:"not null;index"`
	Amount             float64   `json:"amount"`
	Reference          string    `json:"reference" gorm:"index"`
	Status             string    `json:"status"`
	PaidAt             time.Time `json:"paid_at"`
}
