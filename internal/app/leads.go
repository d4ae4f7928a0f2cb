package app

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"imoveis/internal/domain"
)

type LeadService struct {
	repo        domain.PropertyRepository
	notifier    domain.LeadNotifier // nil when no API credentials are configured
	brokerPhone string
}

func NewLeadService(r domain.PropertyRepository, n domain.LeadNotifier, brokerPhone string) *LeadService {
	return &LeadService{repo: r, notifier: n, brokerPhone: digits(brokerPhone)}
}

// Submit validates a lead and returns the WhatsApp link that opens a chat
// with the broker. When a notifier is configured the text is also pushed
// to the broker; a failed push is logged and does not fail the lead.
func (s *LeadService) Submit(ctx context.Context, l domain.Lead) (domain.LeadReceipt, error) {
	l.Name = strings.TrimSpace(l.Name)
	l.Phone = strings.TrimSpace(l.Phone)
	if l.Name == "" {
		return domain.LeadReceipt{}, &domain.ValidationError{Field: "name", Message: "is required"}
	}
	if n := len(digits(l.Phone)); n < 8 || n > 15 {
		return domain.LeadReceipt{}, &domain.ValidationError{Field: "phone", Message: "must have between 8 and 15 digits"}
	}
	if s.brokerPhone == "" {
		return domain.LeadReceipt{}, errors.New("broker whatsapp number is not configured")
	}

	var title string
	if code := strings.TrimSpace(l.PropertyCode); code != "" {
		if p, err := s.repo.GetPropertyByCode(ctx, code); err == nil {
			title = p.Title
		} else if !errors.Is(err, domain.ErrNotFound) {
			log.Warn().Err(err).Str("code", code).Msg("lead property lookup failed")
		}
	}

	text := leadText(l, title)
	out := domain.LeadReceipt{WhatsAppURL: whatsappLink(s.brokerPhone, text)}
	if s.notifier != nil {
		if err := s.notifier.SendText(ctx, s.brokerPhone, text); err != nil {
			log.Error().Err(err).Str("lead_phone", l.Phone).Msg("lead notification failed")
		} else {
			out.Notified = true
		}
	}
	return out, nil
}

func leadText(l domain.Lead, title string) string {
	var b strings.Builder
	b.WriteString("Olá! Meu nome é " + l.Name + ".")
	if code := strings.TrimSpace(l.PropertyCode); code != "" {
		b.WriteString(" Tenho interesse no imóvel " + code)
		if title != "" {
			b.WriteString(" (" + title + ")")
		}
		b.WriteString(".")
	}
	b.WriteString("\nTelefone: " + l.Phone)
	if e := strings.TrimSpace(l.Email); e != "" {
		b.WriteString("\nE-mail: " + e)
	}
	if m := strings.TrimSpace(l.Message); m != "" {
		b.WriteString("\n\n" + m)
	}
	return b.String()
}

func whatsappLink(phone, text string) string {
	return "https://wa.me/" + phone + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
