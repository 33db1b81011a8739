package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"vidstream_backend/internal/controller"
	"vidstream_backend/internal/middleware"
	"vidstream_backend/internal/model"
	"vidstream_backend/internal/service"
	"vidstream_backend/pkg/config"
	"vidstream_backend/pkg/cron"
	"vidstream_backend/pkg/database"
	"vidstream_backend/pkg/email"
	"vidstream_backend/pkg/paystack"
	"vidstream_backend/pkg/seed"
	"vidstream_backend/pkg/utils/jwt"
)

type controllers struct {
	auth          *controller.AuthController
	plans         *controller.PlanController
	subscriptions *controller.SubscriptionController
	downloads     *controller.DownloadController
	ledger        *service.SubscriptionService
	tokens        *jwt.Manager
}

func setupRoutes(app *fiber.App, c controllers) {
	api := app.Group("/api")

	// Auth Routes
	auth := api.Group("/auth")
	auth.Post("/register", c.auth.Register)
	auth.Post("/login", c.auth.Login)

	protected := api.Group("/", middleware.AuthMiddleware(c.tokens))
	protected.Get("/me", c.auth.GetMe)

	// Plan Routes (public okuma, admin yazma)
	plans := api.Group("/plans")
	plans.Get("/", c.plans.ListPlans)
	plans.Get("/:id", c.plans.GetPlan)

	adminPlans := plans.Group("/", middleware.AuthMiddleware(c.tokens), middleware.AdminOnly())
	adminPlans.Post("/", c.plans.CreatePlan)
	adminPlans.Patch("/:id", c.plans.UpdatePlan)
	adminPlans.Delete("/:id", c.plans.DeactivatePlan)
	adminPlans.Patch("/:id/activate", c.plans.ReactivatePlan)
	adminPlans.Get("/admin/all", c.plans.ListAllPlans)
	adminPlans.Post("/seed/default", c.plans.SeedPlans)

	// Subscription Routes
	subs := api.Group("/subscriptions")

	subProtected := subs.Group("/", middleware.AuthMiddleware(c.tokens))
	subProtected.Post("/subscribe", c.subscriptions.Subscribe)
	subProtected.Post("/initialize", c.subscriptions.InitializePayment)
	subProtected.Get("/verify/:reference", c.subscriptions.VerifyPayment)
	subProtected.Get("/my", c.subscriptions.GetMySubscription)
	subProtected.Get("/history", c.subscriptions.GetMyHistory)
	subProtected.Post("/:id/cancel", c.subscriptions.CancelSubscription)
	subProtected.Patch("/:id/auto-renew", c.subscriptions.ToggleAutoRenew)
	subProtected.Post("/change-plan", c.subscriptions.ChangePlan)
	subProtected.Post("/:id/renew", c.subscriptions.RenewSubscription)

	adminSubs := subs.Group("/admin", middleware.AuthMiddleware(c.tokens), middleware.AdminOnly())
	adminSubs.Get("/all", c.subscriptions.ListSubscriptions)
	adminSubs.Get("/user/:userId", c.subscriptions.ListUserSubscriptions)
	adminSubs.Post("/:id/expire", c.subscriptions.ForceExpire)

	// Paystack webhook (imza gateway tarafında; her durumda 200 dönülür)
	api.Post("/webhook/paystack", c.subscriptions.HandlePaystackWebhook)

	// Download Routes: auth + aktif abonelik kapısı
	downloads := api.Group("/downloads", middleware.AuthMiddleware(c.tokens), middleware.RequireActiveSubscription(c.ledger))
	downloads.Post("/movie/:movieId", c.downloads.DownloadMovie)
	downloads.Get("/my", c.downloads.GetMyDownloads)
	downloads.Delete("/:downloadId", c.downloads.RemoveDownload)
	downloads.Patch("/:downloadId/progress", c.downloads.UpdatePlayProgress)
	downloads.Get("/check/:movieId", c.downloads.CheckDownloadStatus)
}

func main() {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is not set in .env")
	}

	db, err := database.InitDB(cfg.Database.URL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	err = database.MigrateDatabase(db,
		&model.User{},
		&model.Plan{},
		&model.UserSubscription{},
		&model.PaymentRecord{},
		&model.Download{},
	)
	if err != nil {
		log.Printf("Migration warning: %v", err)
	}

	if _, err := seed.SeedSubscriptionPlans(db); err != nil {
		log.Printf("Seed warning: %v", err)
	}

	var emailService *email.EmailService
	if cfg.Email.ResendAPIKey != "" {
		emailService, err = email.NewEmailService(cfg.Email.ResendAPIKey)
		if err != nil {
			log.Fatal("Could not initialize email service:", err)
		}
	} else {
		log.Println("RESEND_API_KEY not set, email notifications disabled")
	}

	gateway := paystack.NewClient(cfg.Paystack.SecretKey, cfg.Paystack.BaseURL, cfg.Paystack.CallbackURL)
	tokens := jwt.NewManager(cfg.JWT.Secret)

	planService := service.NewPlanService(db)
	subscriptionService := service.NewSubscriptionService(db, gateway)

	scanner := cron.NewExpiryScanner(subscriptionService, emailService)
	if _, err := scanner.Start(cfg.Scanner.CronSpec); err != nil {
		log.Fatal("Could not start expiry scanner:", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New())

	setupRoutes(app, controllers{
		auth:          controller.NewAuthController(db, tokens, emailService),
		plans:         controller.NewPlanController(planService, db),
		subscriptions: controller.NewSubscriptionController(subscriptionService, emailService),
		downloads:     controller.NewDownloadController(db),
		ledger:        subscriptionService,
		tokens:        tokens,
	})

	log.Printf("Server is running on port %s", cfg.Server.Port)
	log.Fatal(app.Listen(":" + cfg.Server.Port))
}
