package cron

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"vidstream_backend/internal/model"
	"vidstream_backend/internal/service"
	"vidstream_backend/pkg/email"
)

// ExpiryScanner periyodik süpürme: süresi dolan abonelikleri expire eder,
// auto-renew açık olanlar için tahsilat dener. Aynı kayıt üzerinde kullanıcı
// işlemleriyle yarışabilir; her yazma koşullu olduğundan iki taraf da aynı
// uç duruma yakınsar.
type ExpiryScanner struct {
	Subscriptions *service.SubscriptionService
	Emails        *email.EmailService // nil olabilir
}

func NewExpiryScanner(subs *service.SubscriptionService, emails *email.EmailService) *ExpiryScanner {
	return &ExpiryScanner{Subscriptions: subs, Emails: emails}
}

func (s *ExpiryScanner) Start(spec string) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(spec, func() {
		s.RunSweep()
	})
	if err != nil {
		log.Printf("Could not initialize subscription expiry cron: %v", err)
		return nil, err
	}

	c.Start()
	return c, nil
}

// RunSweep tek bir tarama turudur. Arka plan hataları loglanır ve yutulur;
// tek bir kayıttaki hata diğer kayıtların işlenmesini engellemez. İki kez
// çalıştırmak ek etki yaratmaz.
func (s *ExpiryScanner) RunSweep() {
	log.Println("Running subscription expiry sweep...")

	expired, err := s.Subscriptions.ExpireOverdue()
	if err != nil {
		log.Printf("Error expiring overdue subscriptions: %v", err)
	} else if expired > 0 {
		log.Printf("Expired %d overdue subscriptions", expired)
	}

	s.renewOverdue()
	s.sendExpiryWarnings()
}

func (s *ExpiryScanner) renewOverdue() {
	subs, err := s.Subscriptions.ListOverdueAutoRenew()
	if err != nil {
		log.Printf("Error fetching renewable subscriptions: %v", err)
		return
	}

	for i := range subs {
		sub := &subs[i]

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := s.Subscriptions.RenewInstance(ctx, sub)
		cancel()

		if err != nil {
			switch {
			// Tahsilat hatası kaydı expire etmez; bir sonraki turda tekrar denenir
			case errors.Is(err, service.ErrPaymentFailed):
				log.Printf("Renewal charge failed for subscription %d: %v", sub.ID, err)
			// Yetkilendirme kodu olmayan kayıt asla yenilenemez; bayrak
			// kapatılır ki bir sonraki tur kaydı expire edebilsin
			case errors.Is(err, service.ErrInvalidState):
				log.Printf("Subscription %d cannot be renewed, disabling auto-renew: %v", sub.ID, err)
				if err := s.Subscriptions.ClearAutoRenew(sub.ID); err != nil {
					log.Printf("Error disabling auto-renew for subscription %d: %v", sub.ID, err)
				}
			default:
				log.Printf("Error renewing subscription %d: %v", sub.ID, err)
			}
			continue
		}

		log.Printf("Renewed subscription %d for user %d", sub.ID, sub.UserID)

		newEnd := time.Now().AddDate(0, 1, 0)
		if sub.BillingCycle == model.BillingCycleYearly {
			newEnd = time.Now().AddDate(1, 0, 0)
		}

		if s.Emails != nil && sub.User.Email != "" {
			if err := s.Emails.SendSubscriptionStartedEmail(
				sub.User.Email,
				sub.User.GetFullName(),
				sub.PlanName,
				string(sub.BillingCycle),
				sub.Amount,
				sub.Currency,
				sub.Plan.Resolution,
				sub.Plan.Screens,
				newEnd,
				true,
			); err != nil {
				log.Printf("Could not send renewal email to %s: %v", sub.User.Email, err)
			}
		}
	}
}

func (s *ExpiryScanner) sendExpiryWarnings() {
	if s.Emails == nil {
		return
	}

	warningDays := []int{7, 3}

	for _, days := range warningDays {
		subs, err := s.Subscriptions.ListExpiringOn(time.Now().AddDate(0, 0, days))
		if err != nil {
			log.Printf("Error fetching expiring subscriptions: %v", err)
			continue
		}

		for _, sub := range subs {
			// Yenilenecek kayıtlara uyarı gönderilmez
			if sub.AutoRenew || sub.User.Email == "" {
				continue
			}

			err := s.Emails.SendSubscriptionExpiryWarning(
				sub.User.Email,
				sub.User.GetFullName(),
				sub.PlanName,
				sub.EndDate,
				days,
			)
			if err != nil {
				log.Printf("Error sending expiry warning to %s: %v", sub.User.Email, err)
			}
		}
	}
}
