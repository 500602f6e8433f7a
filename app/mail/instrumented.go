package mail

import (
	"context"

	"github.com/vibast-solutions/ms-go-contacts/app/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, username, link string) error
	SendPasswordResetEmail(ctx context.Context, to, username, link string) error
}

// InstrumentedMailer counts deliveries by kind and result.
type InstrumentedMailer struct {
	next       Mailer
	deliveries *prometheus.CounterVec
}

func NewInstrumentedMailer(next Mailer, deliveries *prometheus.CounterVec) *InstrumentedMailer {
	return &InstrumentedMailer{next: next, deliveries: deliveries}
}

func (m *InstrumentedMailer) SendVerificationEmail(ctx context.Context, to, username, link string) error {
	err := m.next.SendVerificationEmail(ctx, to, username, link)
	m.deliveries.WithLabelValues(KindVerification, metrics.Result(err)).Inc()
	return err
}

func (m *InstrumentedMailer) SendPasswordResetEmail(ctx context.Context, to, username, link string) error {
	err := m.next.SendPasswordResetEmail(ctx, to, username, link)
	m.deliveries.WithLabelValues(KindPasswordReset, metrics.Result(err)).Inc()
	return err
}
