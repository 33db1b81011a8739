package service

import (
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"vidstream_backend/internal/model"
	"vidstream_backend/pkg/subscription"
)

type PlanService struct {
	DB *gorm.DB
}

func NewPlanService(db *gorm.DB) *PlanService {
	return &PlanService{DB: db}
}

type PlanInput struct {
	Name         string             `json:"name"`
	Amount       float64            `json:"amount"`
	Currency     string             `json:"currency"`
	BillingCycle model.BillingCycle `json:"billing_cycle"`
	Features     []string           `json:"features"`
	Quality      string             `json:"quality"`
	Resolution   string             `json:"resolution"`
	Screens      int                `json:"screens"`
	Devices      string             `json:"devices"`
}

// ListActive aktif planları fiyata göre artan sırada döner.
func (s *PlanService) ListActive() ([]model.Plan, error) {
	var plans []model.Plan
	if err := s.DB.Where("is_active = ?", true).Order("amount asc").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (s *PlanService) ListAll() ([]model.Plan, error) {
	var plans []model.Plan
	if err := s.DB.Order("amount asc").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (s *PlanService) Get(id uint) (*model.Plan, error) {
	var plan model.Plan
	if err := s.DB.First(&plan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// Create yeni bir plan oluşturur. Aynı isimde aktif bir plan varsa reddedilir.
// Tanınan plan adlarında eksik bırakılan alanlar varsayılan paketten doldurulur;
// tanınmayan adlarda yalnızca açıkça verilen değerler kullanılır.
func (s *PlanService) Create(input PlanInput) (*model.Plan, error) {
	if input.BillingCycle != "" && !input.BillingCycle.Valid() {
		return nil, ErrInvalidBillingCycle
	}

	// Aynı isimde aktif plan kontrolü
	var existing model.Plan
	if err := s.DB.Where("name = ? AND is_active = ?", input.Name, true).First(&existing).Error; err == nil {
		return nil, ErrDuplicatePlanName
	}

	plan := model.Plan{
		Name:         input.Name,
		Amount:       input.Amount,
		Currency:     input.Currency,
		BillingCycle: input.BillingCycle,
		Quality:      input.Quality,
		Resolution:   input.Resolution,
		Screens:      input.Screens,
		Devices:      input.Devices,
		IsActive:     true,
	}
	if plan.Currency == "" {
		plan.Currency = "NGN"
	}
	if plan.BillingCycle == "" {
		plan.BillingCycle = model.BillingCycleMonthly
	}

	features := input.Features
	if defaults, ok := subscription.GetPlanDefaults(input.Name); ok {
		if len(features) == 0 {
			features = defaults.Features
		}
		if plan.Quality == "" {
			plan.Quality = defaults.Quality
		}
		if plan.Resolution == "" {
			plan.Resolution = defaults.Resolution
		}
		if plan.Screens == 0 {
			plan.Screens = defaults.Screens
		}
		if plan.Devices == "" {
			plan.Devices = defaults.Devices
		}
	}

	featuresJSON, err := json.Marshal(features)
	if err != nil {
		return nil, err
	}
	plan.Features = featuresJSON

	if err := s.DB.Create(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// Update plan şartlarını günceller. Sıfır değerli alanlar atlanır; mevcut
// abonelikler plan kopyası üzerinden çalıştığı için etkilenmez.
func (s *PlanService) Update(id uint, input PlanInput) (*model.Plan, error) {
	plan, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if input.BillingCycle != "" && !input.BillingCycle.Valid() {
		return nil, ErrInvalidBillingCycle
	}

	if input.Name != "" && input.Name != plan.Name {
		var existing model.Plan
		if err := s.DB.Where("name = ? AND is_active = ? AND id <> ?", input.Name, true, id).
			First(&existing).Error; err == nil {
			return nil, ErrDuplicatePlanName
		}
		plan.Name = input.Name
	}
	if input.Amount > 0 {
		plan.Amount = input.Amount
	}
	if input.Currency != "" {
		plan.Currency = input.Currency
	}
	if input.BillingCycle != "" {
		plan.BillingCycle = input.BillingCycle
	}
	if input.Quality != "" {
		plan.Quality = input.Quality
	}
	if input.Resolution != "" {
		plan.Resolution = input.Resolution
	}
	if input.Screens > 0 {
		plan.Screens = input.Screens
	}
	if input.Devices != "" {
		plan.Devices = input.Devices
	}
	if input.Features != nil {
		featuresJSON, err := json.Marshal(input.Features)
		if err != nil {
			return nil, err
		}
		plan.Features = featuresJSON
	}

	if err := s.DB.Save(plan).Error; err != nil {
		return nil, err
	}
	return plan, nil
}

// Deactivate soft delete: satır silinmez, isActive false yapılır.
func (s *PlanService) Deactivate(id uint) (*model.Plan, error) {
	plan, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	plan.IsActive = false
	if err := s.DB.Save(plan).Error; err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *PlanService) Reactivate(id uint) (*model.Plan, error) {
	plan, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	// Aynı isimde başka bir aktif plan varsa tekrar aktifleştirilemez
	var existing model.Plan
	if err := s.DB.Where("name = ? AND is_active = ? AND id <> ?", plan.Name, true, id).
		First(&existing).Error; err == nil {
		return nil, ErrDuplicatePlanName
	}

	plan.IsActive = true
	if err := s.DB.Save(plan).Error; err != nil {
		return nil, err
	}
	return plan, nil
}
