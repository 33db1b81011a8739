package controller

import (
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"

	"vidstream_backend/internal/model"
	"vidstream_backend/internal/service"
	"vidstream_backend/pkg/email"
	"vidstream_backend/pkg/paystack"
	"vidstream_backend/pkg/utils/jwt"
)

type SubscriptionController struct {
	Subscriptions *service.SubscriptionService
	Emails        *email.EmailService // nil olabilir
}

func NewSubscriptionController(subs *service.SubscriptionService, emails *email.EmailService) *SubscriptionController {
	return &SubscriptionController{Subscriptions: subs, Emails: emails}
}

type SubscribeInput struct {
	PlanID        uint               `json:"plan_id"`
	BillingCycle  model.BillingCycle `json:"billing_cycle"`
	PaymentMethod string             `json:"payment_method"`
	AutoRenew     *bool              `json:"auto_renew"`
}

type InitializePaymentInput struct {
	PlanID       uint               `json:"plan_id"`
	BillingCycle model.BillingCycle `json:"billing_cycle"`
	AutoRenew    *bool              `json:"auto_renew"`
}

type ToggleAutoRenewInput struct {
	AutoRenew *bool `json:"auto_renew"`
}

type ChangePlanInput struct {
	PlanID       uint               `json:"plan_id"`
	BillingCycle model.BillingCycle `json:"billing_cycle"`
}

// Subscribe gateway'e gitmeden doğrudan aktif abonelik açar (güvenilir/manuel
// ödeme akışı).
func (sc *SubscriptionController) Subscribe(c *fiber.Ctx) error {
	input := new(SubscribeInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	claims := c.Locals("user").(*jwt.Claims)

	autoRenew := true
	if input.AutoRenew != nil {
		autoRenew = *input.AutoRenew
	}

	sub, err := sc.Subscriptions.Subscribe(claims.UserID, input.PlanID, input.BillingCycle, input.PaymentMethod, autoRenew)
	if err != nil {
		return errorResponse(c, err)
	}

	sc.sendStartedEmail(claims.Email, sub, false)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      "Subscription created successfully",
		"subscription": sub,
	})
}

// InitializePayment Paystack üzerinden ödeme başlatır; kullanıcı dönen
// authorization_url'de ödemeyi tamamlar.
func (sc *SubscriptionController) InitializePayment(c *fiber.Ctx) error {
	input := new(InitializePaymentInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	claims := c.Locals("user").(*jwt.Claims)

	autoRenew := true
	if input.AutoRenew != nil {
		autoRenew = *input.AutoRenew
	}

	sub, err := sc.Subscriptions.InitializePayment(c.Context(), claims.UserID, claims.Email, input.PlanID, input.BillingCycle, autoRenew)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"message":           "Payment initialized",
		"reference":         sub.Reference,
		"authorization_url": sub.AuthorizationURL,
		"access_code":       sub.AccessCode,
	})
}

// VerifyPayment referansı gateway'den doğrular. Sonuç gateway'in dediğidir;
// başarısızsa kayıt expired olur.
func (sc *SubscriptionController) VerifyPayment(c *fiber.Ctx) error {
	reference := c.Params("reference")
	claims := c.Locals("user").(*jwt.Claims)

	sub, err := sc.Subscriptions.VerifyPayment(c.Context(), claims.UserID, reference)
	if err != nil {
		return errorResponse(c, err)
	}

	sc.sendStartedEmail(claims.Email, sub, false)

	return c.JSON(fiber.Map{
		"message":      "Payment verified successfully",
		"subscription": sub,
	})
}

// paystackWebhookPayload gateway'in push bildirimi. Tutarlar kobo cinsindendir.
type paystackWebhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference     string                 `json:"reference"`
		Amount        int64                  `json:"amount"`
		Metadata      map[string]interface{} `json:"metadata"`
		Authorization paystack.Authorization `json:"authorization"`
	} `json:"data"`
}

// HandlePaystackWebhook her durumda 200 döner; aksi halde gateway sonsuza
// kadar tekrar dener. İç hatalar loglanır, çağırana yansıtılmaz.
func (sc *SubscriptionController) HandlePaystackWebhook(c *fiber.Ctx) error {
	var payload paystackWebhookPayload
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		log.Printf("Could not parse Paystack webhook payload: %v", err)
		return c.SendStatus(fiber.StatusOK)
	}

	log.Printf("Processing Paystack webhook event: %s", payload.Event)

	if payload.Event != "charge.success" {
		return c.SendStatus(fiber.StatusOK)
	}

	event := service.WebhookEvent{
		Event:         payload.Event,
		Reference:     payload.Data.Reference,
		Amount:        float64(payload.Data.Amount) / 100,
		Authorization: payload.Data.Authorization,
	}

	if err := sc.Subscriptions.HandleChargeSuccess(event); err != nil {
		log.Printf("Could not process charge.success for reference %s: %v", event.Reference, err)
		return c.SendStatus(fiber.StatusOK)
	}

	log.Printf("Subscription activated for reference %s", event.Reference)
	return c.SendStatus(fiber.StatusOK)
}

func (sc *SubscriptionController) CancelSubscription(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid subscription id",
		})
	}

	claims := c.Locals("user").(*jwt.Claims)

	sub, err := sc.Subscriptions.Cancel(claims.UserID, uint(id))
	if err != nil {
		return errorResponse(c, err)
	}

	if sc.Emails != nil {
		if err := sc.Emails.SendSubscriptionCancelledEmail(claims.Email, "", sub.PlanName, sub.EndDate); err != nil {
			log.Printf("Could not send subscription cancellation email: %v", err)
		}
	}

	return c.JSON(fiber.Map{
		"message":      "Subscription cancelled successfully",
		"subscription": sub,
	})
}

func (sc *SubscriptionController) ToggleAutoRenew(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid subscription id",
		})
	}

	input := new(ToggleAutoRenewInput)
	if err := c.BodyParser(input); err != nil || input.AutoRenew == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "auto_renew is required",
		})
	}

	claims := c.Locals("user").(*jwt.Claims)

	sub, err := sc.Subscriptions.ToggleAutoRenew(claims.UserID, uint(id), *input.AutoRenew)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"message":      "Auto-renew updated",
		"subscription": sub,
	})
}

// ChangePlan mevcut aboneliği iptal edip yeni plan için tam dönem açar.
// Kalan süre için mahsup yoktur; cevap bunu açıkça söyler.
func (sc *SubscriptionController) ChangePlan(c *fiber.Ctx) error {
	input := new(ChangePlanInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	claims := c.Locals("user").(*jwt.Claims)

	previous, current, err := sc.Subscriptions.ChangePlan(claims.UserID, input.PlanID, input.BillingCycle)
	if err != nil {
		return errorResponse(c, err)
	}

	sc.sendStartedEmail(claims.Email, current, false)

	return c.JSON(fiber.Map{
		"message":  "Plan changed successfully. The new billing period starts today; unused time on the previous plan is not credited.",
		"previous": previous,
		"current":  current,
	})
}

func (sc *SubscriptionController) RenewSubscription(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid subscription id",
		})
	}

	claims := c.Locals("user").(*jwt.Claims)

	sub, err := sc.Subscriptions.Renew(c.Context(), claims.UserID, uint(id))
	if err != nil {
		return errorResponse(c, err)
	}

	sc.sendStartedEmail(claims.Email, sub, true)

	return c.JSON(fiber.Map{
		"message":      "Subscription renewed successfully",
		"subscription": sub,
	})
}

func (sc *SubscriptionController) GetMySubscription(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	sub, err := sc.Subscriptions.GetCurrent(claims.UserID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(sub)
}

func (sc *SubscriptionController) GetMyHistory(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	subs, err := sc.Subscriptions.History(claims.UserID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"results":       len(subs),
		"subscriptions": subs,
	})
}

// Admin uçları

func (sc *SubscriptionController) ListSubscriptions(c *fiber.Ctx) error {
	var (
		subs []model.UserSubscription
		err  error
	)

	if status := c.Query("status"); status != "" {
		subs, err = sc.Subscriptions.ListByStatus(model.SubscriptionStatus(status))
	} else {
		subs, err = sc.Subscriptions.ListAll()
	}
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"results":       len(subs),
		"subscriptions": subs,
	})
}

func (sc *SubscriptionController) ListUserSubscriptions(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user id",
		})
	}

	subs, err := sc.Subscriptions.ListByUser(uint(userID))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"results":       len(subs),
		"subscriptions": subs,
	})
}

// ForceExpire admin/test aracı: tüm kontrolleri atlayarak kaydı expire eder.
func (sc *SubscriptionController) ForceExpire(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid subscription id",
		})
	}

	sub, err := sc.Subscriptions.ExpireOne(uint(id))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"message":      "Subscription expired",
		"subscription": sub,
	})
}

func (sc *SubscriptionController) sendStartedEmail(to string, sub *model.UserSubscription, isRenewal bool) {
	if sc.Emails == nil || to == "" {
		return
	}

	err := sc.Emails.SendSubscriptionStartedEmail(
		to,
		"",
		sub.PlanName,
		string(sub.BillingCycle),
		sub.Amount,
		sub.Currency,
		sub.Plan.Resolution,
		sub.Plan.Screens,
		sub.EndDate,
		isRenewal,
	)
	if err != nil {
		log.Printf("Could not send subscription email: %v", err)
	}
}
