// Package notify sends overdue and upcoming-due reminders to members over
// SMTP. It is a consumer of the overdue calculator, never a dependency of it.
package notify

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/koperasi-dev/simpan-pinjam-go/internal/domain"
)

// SMTPConfig carries the sender's SMTP settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Sender   string
}

// Sender sends reminder e-mails via SMTP.
type Sender struct {
	cfg    SMTPConfig
	logger *zap.Logger
}

// NewSender creates a new e-mail sender.
func NewSender(cfg SMTPConfig, logger *zap.Logger) *Sender {
	return &Sender{cfg: cfg, logger: logger}
}

// SendOverdueNotice mails a member that a loan is past due, including the
// accrued penalty.
func (s *Sender) SendOverdueNotice(to, memberName string, rec domain.OverdueRecord) error {
	e := email.NewEmail()
	e.From = s.cfg.Sender
	e.To = []string{to}
	e.Subject = "Pemberitahuan Pinjaman Jatuh Tempo"

	body := fmt.Sprintf(
		"Yth. %s,\n\n"+
			"Pinjaman Anda sebesar %s jatuh tempo pada %s dan kini terlambat %d hari.\n",
		memberName,
		formatRupiah(rec.LoanEntry.Amount),
		rec.DueDate.Format("2006-01-02"),
		rec.DaysOverdue,
	)
	if rec.PenaltyAmount.IsPositive() {
		body += fmt.Sprintf("Denda sebesar %s telah dikenakan.\n", formatRupiah(rec.PenaltyAmount))
	}
	body += "Mohon segera melakukan pembayaran.\n\nHormat kami,\nKoperasi Simpan Pinjam"
	e.Text = []byte(body)

	return s.send(e)
}

// SendUpcomingDueNotice mails a member that a loan is due soon.
func (s *Sender) SendUpcomingDueNotice(to, memberName string, up domain.UpcomingDue) error {
	e := email.NewEmail()
	e.From = s.cfg.Sender
	e.To = []string{to}
	e.Subject = "Pengingat Pinjaman Akan Jatuh Tempo"

	body := fmt.Sprintf(
		"Yth. %s,\n\n"+
			"Pinjaman Anda sebesar %s akan jatuh tempo pada %s (%d hari lagi).\n"+
			"Mohon mempersiapkan pelunasan.\n\nHormat kami,\nKoperasi Simpan Pinjam",
		memberName,
		formatRupiah(up.LoanEntry.Amount),
		up.DueDate.Format("2006-01-02"),
		up.DaysUntilDue,
	)
	e.Text = []byte(body)

	return s.send(e)
}

func (s *Sender) send(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if err := e.Send(addr, auth); err != nil {
		s.logger.Error("failed to send email",
			zap.Strings("to", e.To),
			zap.String("subject", e.Subject),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info("email sent",
		zap.Strings("to", e.To),
		zap.String("subject", e.Subject),
	)
	return nil
}

func formatRupiah(amount decimal.Decimal) string {
	return "Rp " + amount.StringFixed(0)
}
