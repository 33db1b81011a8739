package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidstream_backend/internal/model"
)

func TestCreatePlanFillsKnownDefaults(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPlanService(db)

	plan, err := svc.Create(PlanInput{Name: "Basic", Amount: 500})
	require.NoError(t, err)

	assert.Equal(t, "NGN", plan.Currency)
	assert.Equal(t, model.BillingCycleMonthly, plan.BillingCycle)
	assert.Equal(t, "Good", plan.Quality)
	assert.Equal(t, "720p", plan.Resolution)
	assert.Equal(t, 1, plan.Screens)
	assert.Equal(t, "Phone + Tablet", plan.Devices)

	var features []string
	require.NoError(t, json.Unmarshal(plan.Features, &features))
	assert.NotEmpty(t, features)
}

func TestCreatePlanUnknownNameNoDefaults(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPlanService(db)

	plan, err := svc.Create(PlanInput{Name: "Family", Amount: 900})
	require.NoError(t, err)

	assert.Empty(t, plan.Quality)
	assert.Empty(t, plan.Resolution)
	assert.Zero(t, plan.Screens)
}

func TestCreatePlanExplicitValuesWinOverDefaults(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPlanService(db)

	plan, err := svc.Create(PlanInput{
		Name:       "Basic",
		Amount:     500,
		Resolution: "1080p",
		Screens:    3,
	})
	require.NoError(t, err)

	assert.Equal(t, "1080p", plan.Resolution)
	assert.Equal(t, 3, plan.Screens)
	assert.Equal(t, "Good", plan.Quality, "missing fields still come from the bundle")
}

func TestCreatePlanRejectsDuplicateActiveName(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPlanService(db)

	_, err := svc.Create(PlanInput{Name: "Basic", Amount: 500})
	require.NoError(t, err)

	_, err = svc.Create(PlanInput{Name: "Basic", Amount: 550})
	assert.ErrorIs(t, err, ErrDuplicatePlanName)
}

func TestCreatePlanAllowsNameOfDeactivatedPlan(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPlanService(db)

	first, err := svc.Create(PlanInput{Name: "Basic", Amount: 500})
	require.NoError(t, err)

	_, err = svc.Deactivate(first.ID)
	require.NoError(t, err)

	_, err = svc.Create(PlanInput{Name: "Basic", Amount: 550})
	assert.NoError(t, err)
}

func TestCreatePlanRejectsInvalidCycle(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPlanService(db)

	_, err := svc.Create(PlanInput{Name: "Basic", Amount: 500, BillingCycle: "weekly"})
	assert.ErrorIs(t, err, ErrInvalidBillingCycle)
}

func TestListActiveSortedByPrice(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPlanService(db)

	premium, err := svc.Create(PlanInput{Name: "Premium", Amount: 700})
	require.NoError(t, err)
	_, err = svc.Create(PlanInput{Name: "Basic", Amount: 500})
	require.NoError(t, err)
	_, err = svc.Create(PlanInput{Name: "Standard", Amount: 600})
	require.NoError(t, err)

	_, err = svc.Deactivate(premium.ID)
	require.NoError(t, err)

	plans, err := svc.ListActive()
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "Basic", plans[0].Name)
	assert.Equal(t, "Standard", plans[1].Name)

	all, err := svc.ListAll()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGetPlanNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPlanService(db)

	_, err := svc.Get(42)
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestUpdatePlanSkipsZeroFields(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPlanService(db)

	plan, err := svc.Create(PlanInput{Name: "Basic", Amount: 500})
	require.NoError(t, err)

	updated, err := svc.Update(plan.ID, PlanInput{Amount: 650})
	require.NoError(t, err)

	assert.Equal(t, 650.0, updated.Amount)
	assert.Equal(t, "Basic", updated.Name)
	assert.Equal(t, "720p", updated.Resolution)
}

func TestUpdatePlanRejectsNameCollision(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPlanService(db)

	_, err := svc.Create(PlanInput{Name: "Basic", Amount: 500})
	require.NoError(t, err)
	standard, err := svc.Create(PlanInput{Name: "Standard", Amount: 600})
	require.NoError(t, err)

	_, err = svc.Update(standard.ID, PlanInput{Name: "Basic"})
	assert.ErrorIs(t, err, ErrDuplicatePlanName)
}

func TestUpdatePlanDoesNotTouchExistingSubscriptions(t *testing.T) {
	db := setupTestDB(t)
	plans := NewPlanService(db)
	subs := NewSubscriptionService(db, &stubGateway{})
	user := createTestUser(t, db, "viewer@example.com")

	plan, err := plans.Create(PlanInput{Name: "Basic", Amount: 500})
	require.NoError(t, err)

	sub, err := subs.Subscribe(user.ID, plan.ID, "", "", true)
	require.NoError(t, err)

	_, err = plans.Update(plan.ID, PlanInput{Amount: 800})
	require.NoError(t, err)

	// Abonelik plan kopyasıyla çalışır; fiyat değişikliği geriye yürümez
	var after model.UserSubscription
	require.NoError(t, db.First(&after, sub.ID).Error)
	assert.Equal(t, 500.0, after.Amount)
}

func TestDeactivateAndReactivatePlan(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPlanService(db)

	plan, err := svc.Create(PlanInput{Name: "Basic", Amount: 500})
	require.NoError(t, err)

	deactivated, err := svc.Deactivate(plan.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	// Satır silinmedi, hâlâ okunabilir
	got, err := svc.Get(plan.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	reactivated, err := svc.Reactivate(plan.ID)
	require.NoError(t, err)
	assert.True(t, reactivated.IsActive)
}

func TestReactivateRejectsWhenNameTaken(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPlanService(db)

	first, err := svc.Create(PlanInput{Name: "Basic", Amount: 500})
	require.NoError(t, err)
	_, err = svc.Deactivate(first.ID)
	require.NoError(t, err)

	_, err = svc.Create(PlanInput{Name: "Basic", Amount: 550})
	require.NoError(t, err)

	_, err = svc.Reactivate(first.ID)
	assert.ErrorIs(t, err, ErrDuplicatePlanName)
}
