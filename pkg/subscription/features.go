package subscription

type PlanName string

const (
	BasicPlan    PlanName = "Basic"
	StandardPlan PlanName = "Standard"
	PremiumPlan  PlanName = "Premium"
)

// PlanDefaults bir plan adının ima ettiği varsayılan özellik paketidir.
// Plan oluşturulurken eksik bırakılan alanlar buradan doldurulur.
type PlanDefaults struct {
	Features   []string
	Quality    string
	Resolution string
	Screens    int
	Devices    string
}

var planDefaults = map[PlanName]PlanDefaults{
	BasicPlan: {
		Features:   []string{"Watch on 1 screen", "Good video quality", "720p resolution"},
		Quality:    "Good",
		Resolution: "720p",
		Screens:    1,
		Devices:    "Phone + Tablet",
	},
	StandardPlan: {
		Features:   []string{"Watch on 2 screens", "Better video quality", "1080p resolution", "Download on 2 devices"},
		Quality:    "Better",
		Resolution: "1080p",
		Screens:    2,
		Devices:    "Phone + Tablet + TV",
	},
	PremiumPlan: {
		Features:   []string{"Watch on 4 screens", "Best video quality", "4K+HDR resolution", "Download on 4 devices", "Dolby Atmos"},
		Quality:    "Best",
		Resolution: "4K+HDR",
		Screens:    4,
		Devices:    "All Devices",
	},
}

// GetPlanDefaults tanınan plan adları için varsayılanları döner. Tanınmayan
// adlarda ok=false döner ve çağıran yalnızca açıkça verilen değerleri kullanır.
func GetPlanDefaults(name string) (PlanDefaults, bool) {
	defaults, ok := planDefaults[PlanName(name)]
	return defaults, ok
}
