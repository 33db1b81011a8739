package seed

import (
	"encoding/json"
	"log"

	"gorm.io/gorm"

	"vidstream_backend/internal/model"
	"vidstream_backend/pkg/subscription"
)

// SeedSubscriptionPlans varsayılan planları oluşturur. Var olan isimler
// atlanır; tekrar çalıştırmak güvenlidir.
func SeedSubscriptionPlans(db *gorm.DB) (int, error) {
	seeds := []struct {
		Name     string
		Amount   float64
		Currency string
	}{
		{Name: string(subscription.BasicPlan), Amount: 500, Currency: "NGN"},
		{Name: string(subscription.StandardPlan), Amount: 600, Currency: "NGN"},
		{Name: string(subscription.PremiumPlan), Amount: 700, Currency: "NGN"},
	}

	created := 0
	for _, s := range seeds {
		var existing model.Plan
		if err := db.Where("name = ?", s.Name).First(&existing).Error; err == nil {
			continue
		}

		defaults, _ := subscription.GetPlanDefaults(s.Name)
		features, err := json.Marshal(defaults.Features)
		if err != nil {
			return created, err
		}

		plan := model.Plan{
			Name:         s.Name,
			Amount:       s.Amount,
			Currency:     s.Currency,
			BillingCycle: model.BillingCycleMonthly,
			Features:     features,
			Quality:      defaults.Quality,
			Resolution:   defaults.Resolution,
			Screens:      defaults.Screens,
			Devices:      defaults.Devices,
			IsActive:     true,
		}
		if err := db.Create(&plan).Error; err != nil {
			log.Printf("Error creating plan %s: %v", s.Name, err)
			return created, err
		}
		created++
	}

	log.Printf("Subscription plans seeded: %d created", created)
	return created, nil
}
