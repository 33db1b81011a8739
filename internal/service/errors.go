package service

import "errors"

// Servis katmanının hata taksonomisi. Controller'lar errors.Is ile HTTP
// durum koduna çevirir.
var (
	// NotFound
	ErrPlanNotFound         = errors.New("subscription plan not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrNoActiveSubscription = errors.New("no active subscription found")

	// Conflict
	ErrDuplicatePlanName           = errors.New("a subscription plan with this name already exists")
	ErrDuplicateActiveSubscription = errors.New("user already has an active subscription")

	// InvalidState
	ErrInvalidState = errors.New("subscription is not in a valid state for this action")

	// ValidationError
	ErrInvalidBillingCycle = errors.New("billing cycle must be monthly or yearly")

	// GatewayFailure
	ErrPaymentFailed = errors.New("payment provider request failed")
)
