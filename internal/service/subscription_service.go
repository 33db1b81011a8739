package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vidstream_backend/internal/model"
	"vidstream_backend/pkg/paystack"
)

// PaymentGateway ödeme sağlayıcısının sözleşmesi. Testlerde stub'lanır.
type PaymentGateway interface {
	Initialize(ctx context.Context, email string, amount float64, metadata map[string]interface{}) (*paystack.InitializeResponse, error)
	Verify(ctx context.Context, reference string) (*paystack.VerifyResponse, error)
	ChargeAuthorization(ctx context.Context, authorizationCode, email string, amount float64, metadata map[string]interface{}) (*paystack.ChargeResponse, error)
}

type SubscriptionService struct {
	DB      *gorm.DB
	Gateway PaymentGateway
}

func NewSubscriptionService(db *gorm.DB, gateway PaymentGateway) *SubscriptionService {
	return &SubscriptionService{DB: db, Gateway: gateway}
}

// WebhookEvent gateway'den gelen push bildirimi.
type WebhookEvent struct {
	Event         string
	Reference     string
	Amount        float64
	Authorization paystack.Authorization
}

// addBillingInterval takvim aralığı ekler: tam bir ay veya tam bir yıl,
// sabit 30/365 gün değil.
func addBillingInterval(t time.Time, cycle model.BillingCycle) time.Time {
	if cycle == model.BillingCycleYearly {
		return t.AddDate(1, 0, 0)
	}
	return t.AddDate(0, 1, 0)
}

func (s *SubscriptionService) activePlan(planID uint) (*model.Plan, error) {
	var plan model.Plan
	if err := s.DB.First(&plan, planID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if !plan.IsActive {
		return nil, ErrPlanNotFound
	}
	return &plan, nil
}

func (s *SubscriptionService) findActive(userID uint) (*model.UserSubscription, error) {
	var sub model.UserSubscription
	err := s.DB.Where("user_id = ? AND status = ?", userID, model.SubscriptionStatusActive).
		Preload("Plan").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveSubscription
		}
		return nil, err
	}
	return &sub, nil
}

func (s *SubscriptionService) rejectDuplicateActive(userID uint) error {
	var count int64
	if err := s.DB.Model(&model.UserSubscription{}).
		Where("user_id = ? AND status = ?", userID, model.SubscriptionStatusActive).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateActiveSubscription
	}
	return nil
}

func resolveCycle(requested model.BillingCycle, plan *model.Plan) (model.BillingCycle, error) {
	if requested == "" {
		return plan.BillingCycle, nil
	}
	if !requested.Valid() {
		return "", ErrInvalidBillingCycle
	}
	return requested, nil
}

// Subscribe gateway'e gitmeden doğrudan aktif abonelik açar (manuel akış).
func (s *SubscriptionService) Subscribe(userID, planID uint, cycle model.BillingCycle, paymentMethod string, autoRenew bool) (*model.UserSubscription, error) {
	plan, err := s.activePlan(planID)
	if err != nil {
		return nil, err
	}

	cycle, err = resolveCycle(cycle, plan)
	if err != nil {
		return nil, err
	}

	if err := s.rejectDuplicateActive(userID); err != nil {
		return nil, err
	}

	if paymentMethod == "" {
		paymentMethod = "paystack"
	}

	now := time.Now()
	sub := model.UserSubscription{
		UserID:        userID,
		PlanID:        plan.ID,
		PlanName:      plan.Name,
		Amount:        plan.Amount,
		Currency:      plan.Currency,
		BillingCycle:  cycle,
		Status:        model.SubscriptionStatusActive,
		StartDate:     now,
		EndDate:       addBillingInterval(now, cycle),
		AutoRenew:     autoRenew,
		PaymentMethod: paymentMethod,
		Reference:     "sub_" + uuid.NewString(),
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}
		record := model.PaymentRecord{
			UserSubscriptionID: sub.ID,
			Amount:             plan.Amount,
			Reference:          sub.Reference,
			Status:             "success",
			PaidAt:             now,
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, err
	}

	sub.Plan = *plan
	return &sub, nil
}

// InitializePayment gateway üzerinden ödeme başlatır ve pending kayıt açar.
// Pending kayıt ödeme tamamlanmadan ÖNCE oluşturulur: sonradan gelen webhook
// veya verify çağrısının eşleşeceği bir satır her zaman bulunur.
func (s *SubscriptionService) InitializePayment(ctx context.Context, userID uint, email string, planID uint, cycle model.BillingCycle, autoRenew bool) (*model.UserSubscription, error) {
	plan, err := s.activePlan(planID)
	if err != nil {
		return nil, err
	}

	cycle, err = resolveCycle(cycle, plan)
	if err != nil {
		return nil, err
	}

	if err := s.rejectDuplicateActive(userID); err != nil {
		return nil, err
	}

	metadata := map[string]interface{}{
		"user_id":       userID,
		"plan_id":       plan.ID,
		"plan_name":     plan.Name,
		"billing_cycle": string(cycle),
		"amount":        plan.Amount,
		"auto_renew":    autoRenew,
	}

	initResp, err := s.Gateway.Initialize(ctx, email, plan.Amount, metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	sub := model.UserSubscription{
		UserID:           userID,
		PlanID:           plan.ID,
		PlanName:         plan.Name,
		Amount:           plan.Amount,
		Currency:         plan.Currency,
		BillingCycle:     cycle,
		Status:           model.SubscriptionStatusPending,
		StartDate:        time.Now(),
		AutoRenew:        autoRenew,
		PaymentMethod:    "paystack",
		Reference:        initResp.Reference,
		AccessCode:       initResp.AccessCode,
		AuthorizationURL: initResp.AuthorizationURL,
	}

	if err := s.DB.Create(&sub).Error; err != nil {
		return nil, err
	}

	sub.Plan = *plan
	return &sub, nil
}

// VerifyPayment pending kaydı gateway'den doğrular. Gateway'in verdiği sonuç
// esas alınır; başarılıysa aktifleşir, aksi halde expired'a düşer.
func (s *SubscriptionService) VerifyPayment(ctx context.Context, userID uint, reference string) (*model.UserSubscription, error) {
	var sub model.UserSubscription
	err := s.DB.Where("reference = ? AND user_id = ?", reference, userID).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	// Webhook verify'dan önce gelmiş olabilir
	if sub.Status == model.SubscriptionStatusActive {
		return s.reload(sub.ID)
	}
	if sub.Status != model.SubscriptionStatusPending {
		return nil, ErrInvalidState
	}

	// Gateway hatasında kayıt pending kalır; tekrar denenebilir
	verifyResp, err := s.Gateway.Verify(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	if verifyResp.Status != "success" {
		s.DB.Model(&model.UserSubscription{}).
			Where("id = ? AND status = ?", sub.ID, model.SubscriptionStatusPending).
			Update("status", model.SubscriptionStatusExpired)
		return nil, fmt.Errorf("%w: payment status %q", ErrPaymentFailed, verifyResp.Status)
	}

	if err := s.activate(&sub, verifyResp.Authorization, verifyResp.Amount); err != nil {
		return nil, err
	}
	return s.reload(sub.ID)
}

// HandleChargeSuccess webhook'tan gelen charge.success olayını yerel pending
// kayıtla eşleştirir. Aynı olayın tekrar teslimi referans üzerinden ayıklanır.
func (s *SubscriptionService) HandleChargeSuccess(event WebhookEvent) error {
	var sub model.UserSubscription
	err := s.DB.Where("reference = ?", event.Reference).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("no subscription for reference %s: %w", event.Reference, ErrSubscriptionNotFound)
		}
		return err
	}

	amount := event.Amount
	if amount == 0 {
		amount = sub.Amount
	}

	return s.activate(&sub, event.Authorization, amount)
}

// activate pending -> active geçişini koşullu güncellemeyle yapar ve ödeme
// geçmişine tek bir kayıt ekler. Aynı referansla ikinci kez çağrılması
// geçmişe yeni satır eklemez. Kullanıcının başka bir aktif aboneliği varsa
// geçiş reddedilir: pending kayıt expired'a düşürülür ve tek aktif abonelik
// kuralı korunur.
func (s *SubscriptionService) activate(sub *model.UserSubscription, auth paystack.Authorization, amount float64) error {
	now := time.Now()

	var refused error
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var otherActive int64
		if err := tx.Model(&model.UserSubscription{}).
			Where("user_id = ? AND status = ? AND id <> ?", sub.UserID, model.SubscriptionStatusActive, sub.ID).
			Count(&otherActive).Error; err != nil {
			return err
		}
		if otherActive > 0 {
			refused = ErrDuplicateActiveSubscription
			return tx.Model(&model.UserSubscription{}).
				Where("id = ? AND status = ?", sub.ID, model.SubscriptionStatusPending).
				Update("status", model.SubscriptionStatusExpired).Error
		}

		result := tx.Model(&model.UserSubscription{}).
			Where("id = ? AND status = ?", sub.ID, model.SubscriptionStatusPending).
			Updates(map[string]interface{}{
				"status":             model.SubscriptionStatusActive,
				"start_date":         now,
				"end_date":           addBillingInterval(now, sub.BillingCycle),
				"authorization_code": auth.AuthorizationCode,
				"card_type":          auth.CardType,
				"last4":              auth.Last4,
				"exp_month":          auth.ExpMonth,
				"exp_year":           auth.ExpYear,
				"bank":               auth.Bank,
				"account_name":       auth.AccountName,
			})
		if result.Error != nil {
			return result.Error
		}

		// CAS 0 satır etkilediyse kayıt pending değildi. Zaten aktifse bu bir
		// tekrar teslimdir ve aşağıdaki referans ayıklamasına düşer; aksi halde
		// (örn. başarısız verify ile expire edilmiş kayıt) geçmişe satır
		// eklenmeden reddedilir.
		if result.RowsAffected == 0 {
			var current model.UserSubscription
			if err := tx.First(&current, sub.ID).Error; err != nil {
				return err
			}
			if current.Status != model.SubscriptionStatusActive {
				return ErrInvalidState
			}
		}

		// Referans bazlı tekrar teslim ayıklaması: aynı referans için ikinci
		// kayıt açılmaz.
		var count int64
		if err := tx.Model(&model.PaymentRecord{}).
			Where("user_subscription_id = ? AND reference = ?", sub.ID, sub.Reference).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		record := model.PaymentRecord{
			UserSubscriptionID: sub.ID,
			Amount:             amount,
			Reference:          sub.Reference,
			Status:             "success",
			PaidAt:             now,
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return err
	}
	return refused
}

// Cancel yalnızca çağıranın kendi aktif aboneliğinde geçerlidir. İkinci
// çağrı (ya da yabancı/bitmiş kayıt) NotFound ile reddedilir.
func (s *SubscriptionService) Cancel(userID, subscriptionID uint) (*model.UserSubscription, error) {
	now := time.Now()
	result := s.DB.Model(&model.UserSubscription{}).
		Where("id = ? AND user_id = ? AND status = ?", subscriptionID, userID, model.SubscriptionStatusActive).
		Updates(map[string]interface{}{
			"status":       model.SubscriptionStatusCancelled,
			"cancelled_at": now,
			"auto_renew":   false,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNoActiveSubscription
	}

	return s.reload(subscriptionID)
}

func (s *SubscriptionService) ToggleAutoRenew(userID, subscriptionID uint, value bool) (*model.UserSubscription, error) {
	result := s.DB.Model(&model.UserSubscription{}).
		Where("id = ? AND user_id = ? AND status = ?", subscriptionID, userID, model.SubscriptionStatusActive).
		Update("auto_renew", value)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNoActiveSubscription
	}

	return s.reload(subscriptionID)
}

// ChangePlan mevcut aktif aboneliği iptal edip yeni plan için sıfırdan tam
// dönem açar. Kalan süre için mahsup yapılmaz.
func (s *SubscriptionService) ChangePlan(userID, newPlanID uint, cycle model.BillingCycle) (previous, current *model.UserSubscription, err error) {
	existing, err := s.findActive(userID)
	if err != nil {
		return nil, nil, err
	}

	plan, err := s.activePlan(newPlanID)
	if err != nil {
		return nil, nil, err
	}

	cycle, err = resolveCycle(cycle, plan)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	replacement := model.UserSubscription{
		UserID:        userID,
		PlanID:        plan.ID,
		PlanName:      plan.Name,
		Amount:        plan.Amount,
		Currency:      plan.Currency,
		BillingCycle:  cycle,
		Status:        model.SubscriptionStatusActive,
		StartDate:     now,
		EndDate:       addBillingInterval(now, cycle),
		AutoRenew:     existing.AutoRenew,
		PaymentMethod: existing.PaymentMethod,
		Reference:     "sub_" + uuid.NewString(),

		// Yenileme tahsilatları çalışmaya devam etsin diye kart bilgileri taşınır
		AuthorizationCode: existing.AuthorizationCode,
		CardType:          existing.CardType,
		Last4:             existing.Last4,
		ExpMonth:          existing.ExpMonth,
		ExpYear:           existing.ExpYear,
		Bank:              existing.Bank,
		AccountName:       existing.AccountName,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.UserSubscription{}).
			Where("id = ? AND status = ?", existing.ID, model.SubscriptionStatusActive).
			Updates(map[string]interface{}{
				"status":       model.SubscriptionStatusCancelled,
				"cancelled_at": now,
				"auto_renew":   false,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNoActiveSubscription
		}
		return tx.Create(&replacement).Error
	})
	if err != nil {
		return nil, nil, err
	}

	previous, err = s.reload(existing.ID)
	if err != nil {
		return nil, nil, err
	}
	replacement.Plan = *plan
	return previous, &replacement, nil
}

// Renew çağıranın kendi aboneliği için tekrarlayan tahsilat dener.
func (s *SubscriptionService) Renew(ctx context.Context, userID, subscriptionID uint) (*model.UserSubscription, error) {
	var sub model.UserSubscription
	err := s.DB.Where("id = ? AND user_id = ?", subscriptionID, userID).
		Preload("User").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	if err := s.RenewInstance(ctx, &sub); err != nil {
		return nil, err
	}
	return s.reload(sub.ID)
}

// RenewInstance saklı yetkilendirme koduyla tahsilat yapar ve başarılıysa
// dönem sonunu şimdiden itibaren bir aralık ileri taşır. Tahsilat hatası
// aboneliği expire ETMEZ; kayıt mevcut endDate ile aktif kalır.
func (s *SubscriptionService) RenewInstance(ctx context.Context, sub *model.UserSubscription) error {
	if sub.Status != model.SubscriptionStatusActive || !sub.AutoRenew {
		return ErrInvalidState
	}
	if sub.AuthorizationCode == "" {
		return ErrInvalidState
	}

	email := sub.User.Email
	if email == "" {
		var user model.User
		if err := s.DB.First(&user, sub.UserID).Error; err != nil {
			return err
		}
		email = user.Email
	}

	metadata := map[string]interface{}{
		"user_id":         sub.UserID,
		"subscription_id": sub.ID,
		"plan_name":       sub.PlanName,
		"renewal":         true,
	}

	chargeResp, err := s.Gateway.ChargeAuthorization(ctx, sub.AuthorizationCode, email, sub.Amount, metadata)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	if chargeResp.Status != "success" {
		return fmt.Errorf("%w: charge status %q", ErrPaymentFailed, chargeResp.Status)
	}

	now := time.Now()
	return s.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.UserSubscription{}).
			Where("id = ? AND status = ?", sub.ID, model.SubscriptionStatusActive).
			Update("end_date", addBillingInterval(now, sub.BillingCycle))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInvalidState
		}

		record := model.PaymentRecord{
			UserSubscriptionID: sub.ID,
			Amount:             sub.Amount,
			Reference:          chargeResp.Reference,
			Status:             "success",
			PaidAt:             now,
		}
		return tx.Create(&record).Error
	})
}

// ExpireOne admin/test aracı: diğer tüm kontrolleri atlayarak kaydı expired
// yapar ve dönem sonunu şimdiye çeker.
func (s *SubscriptionService) ExpireOne(subscriptionID uint) (*model.UserSubscription, error) {
	result := s.DB.Model(&model.UserSubscription{}).
		Where("id = ?", subscriptionID).
		Updates(map[string]interface{}{
			"status":   model.SubscriptionStatusExpired,
			"end_date": time.Now(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrSubscriptionNotFound
	}

	return s.reload(subscriptionID)
}

// CheckAccess içerik sunan kodun kullandığı kapı. Süresi geçmiş aktif kayıt
// okuma anında expire edilir (lazy expiry) ve erişim reddedilir.
func (s *SubscriptionService) CheckAccess(userID uint) (*model.UserSubscription, error) {
	sub, err := s.findActive(userID)
	if err != nil {
		return nil, err
	}

	if sub.EndDate.Before(time.Now()) {
		s.DB.Model(&model.UserSubscription{}).
			Where("id = ? AND status = ?", sub.ID, model.SubscriptionStatusActive).
			Update("status", model.SubscriptionStatusExpired)
		return nil, ErrNoActiveSubscription
	}

	return sub, nil
}

func (s *SubscriptionService) GetCurrent(userID uint) (*model.UserSubscription, error) {
	return s.findActive(userID)
}

func (s *SubscriptionService) History(userID uint) ([]model.UserSubscription, error) {
	var subs []model.UserSubscription
	err := s.DB.Where("user_id = ?", userID).
		Order("created_at desc").
		Preload("PaymentHistory").
		Find(&subs).Error
	return subs, err
}

// Admin listeleri

func (s *SubscriptionService) ListAll() ([]model.UserSubscription, error) {
	var subs []model.UserSubscription
	err := s.DB.Order("created_at desc").Find(&subs).Error
	return subs, err
}

func (s *SubscriptionService) ListByStatus(status model.SubscriptionStatus) ([]model.UserSubscription, error) {
	var subs []model.UserSubscription
	err := s.DB.Where("status = ?", status).Order("created_at desc").Find(&subs).Error
	return subs, err
}

func (s *SubscriptionService) ListByUser(userID uint) ([]model.UserSubscription, error) {
	return s.History(userID)
}

// Tarama yardımcıları

// ExpireOverdue süresi geçmiş, auto-renew kapalı aktif kayıtları topluca
// expired'a çevirir. İki kez çalıştırmak ikinci seferde 0 satır etkiler.
func (s *SubscriptionService) ExpireOverdue() (int64, error) {
	result := s.DB.Model(&model.UserSubscription{}).
		Where("status = ? AND auto_renew = ? AND end_date < ?", model.SubscriptionStatusActive, false, time.Now()).
		Update("status", model.SubscriptionStatusExpired)
	return result.RowsAffected, result.Error
}

// ClearAutoRenew tahsilat şansı olmayan kayıtlarda (saklı yetkilendirme kodu
// yok) bayrağı kapatır; kayıt bir sonraki turda ExpireOverdue kapsamına girer.
func (s *SubscriptionService) ClearAutoRenew(subscriptionID uint) error {
	return s.DB.Model(&model.UserSubscription{}).
		Where("id = ? AND status = ?", subscriptionID, model.SubscriptionStatusActive).
		Update("auto_renew", false).Error
}

// ListOverdueAutoRenew yenileme denemesi bekleyen kayıtları döner.
func (s *SubscriptionService) ListOverdueAutoRenew() ([]model.UserSubscription, error) {
	var subs []model.UserSubscription
	err := s.DB.Where("status = ? AND auto_renew = ? AND end_date < ?", model.SubscriptionStatusActive, true, time.Now()).
		Preload("User").
		Preload("Plan").
		Find(&subs).Error
	return subs, err
}

// ListExpiringOn verilen güne kadar süresi dolacak aktif kayıtları döner
// (uyarı e-postaları için).
func (s *SubscriptionService) ListExpiringOn(day time.Time) ([]model.UserSubscription, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var subs []model.UserSubscription
	err := s.DB.Where("status = ? AND end_date >= ? AND end_date < ?", model.SubscriptionStatusActive, start, end).
		Preload("User").
		Find(&subs).Error
	return subs, err
}

func (s *SubscriptionService) reload(id uint) (*model.UserSubscription, error) {
	var sub model.UserSubscription
	err := s.DB.Preload("Plan").Preload("PaymentHistory").First(&sub, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}
