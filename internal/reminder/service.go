// Package reminder sends payment reminder emails for invoices, either on
// demand or through a daily sweep over upcoming due dates.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"billmate-backend/internal/config"
	"billmate-backend/internal/logger"
	"billmate-backend/internal/models"

	"gopkg.in/gomail.v2"
	"gorm.io/gorm"
)

var (
	ErrNoCustomerEmail = errors.New("invoice customer has no email address")
	ErrMailerDisabled  = errors.New("smtp is not configured")
)

// Mailer sends one email. Split out so the service can be exercised without a
// live SMTP server.
type Mailer interface {
	Send(to, subject, body string) error
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

func (m *smtpMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}

// NewMailer builds the SMTP mailer, or nil when SMTP is not configured.
func NewMailer(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		return nil
	}
	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.SMTPFrom,
	}
}

type Service struct {
	db       *gorm.DB
	mailer   Mailer
	leadDays int
}

func NewService(db *gorm.DB, mailer Mailer, leadDays int) *Service {
	return &Service{db: db, mailer: mailer, leadDays: leadDays}
}

// SendForInvoice dispatches one reminder immediately. The invoice must carry a
// customer with an email address.
func (s *Service) SendForInvoice(ctx context.Context, ownerID, invoiceID uint) error {
	if s.mailer == nil {
		return ErrMailerDisabled
	}

	var inv models.Invoice
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Where("owner_id = ?", ownerID).
		First(&inv, "id = ?", invoiceID).Error
	if err != nil {
		return err
	}
	if inv.Customer.Email == "" {
		return ErrNoCustomerEmail
	}

	return s.mailer.Send(inv.Customer.Email, Subject(&inv), Body(&inv))
}

// Sweep sends reminders for every invoice due exactly leadDays from now whose
// status is still unpaid or sent. Per-invoice failures are logged and skipped;
// the sweep keeps going. Returns the number of reminders sent.
func (s *Service) Sweep(ctx context.Context, now time.Time) (int, error) {
	if s.mailer == nil {
		return 0, ErrMailerDisabled
	}

	from, to := SweepWindow(now, s.leadDays)

	var invoices []models.Invoice
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Where("due_date >= ? AND due_date < ?", from, to).
		Where("status IN ?", []models.DocumentStatus{models.StatusUnpaid, models.StatusSent}).
		Find(&invoices).Error
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range invoices {
		inv := &invoices[i]
		if inv.Customer.Email == "" {
			logger.Log.Warn().Str("number", inv.Number).Msg("reminder skipped, customer has no email")
			continue
		}
		if err := s.mailer.Send(inv.Customer.Email, Subject(inv), Body(inv)); err != nil {
			logger.Log.Error().Err(err).Str("number", inv.Number).Msg("reminder dispatch failed")
			continue
		}
		sent++
	}
	return sent, nil
}

// RunDaily runs one sweep immediately and then once a day until ctx is done.
func (s *Service) RunDaily(ctx context.Context) {
	if s.mailer == nil {
		logger.Log.Info().Msg("reminder sweep disabled, smtp not configured")
		return
	}

	run := func() {
		sent, err := s.Sweep(ctx, time.Now())
		if err != nil {
			logger.Log.Error().Err(err).Msg("reminder sweep failed")
			return
		}
		logger.Log.Info().Int("sent", sent).Msg("reminder sweep complete")
	}

	run()
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}

// SweepWindow is the [from, to) due-date interval matched by a sweep at the
// given time: the whole calendar day exactly leadDays ahead.
func SweepWindow(now time.Time, leadDays int) (time.Time, time.Time) {
	target := now.AddDate(0, 0, leadDays)
	from := time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, target.Location())
	return from, from.AddDate(0, 0, 1)
}

// Subject renders the reminder email subject.
func Subject(inv *models.Invoice) string {
	return fmt.Sprintf("Payment reminder for invoice %s", inv.Number)
}

// Body renders the plain-text reminder email.
func Body(inv *models.Invoice) string {
	due := "due soon"
	if inv.DueDate != nil {
		due = "due on " + inv.DueDate.Format("02 Jan 2006")
	}
	return fmt.Sprintf(
		"Dear %s,\n\nThis is a friendly reminder that invoice %s for %.2f is %s.\n\nThank you for your business.\n",
		inv.CustomerName, inv.Number, inv.GrandTotal, due,
	)
}
