package di

import (
	"fmt"
	"log/slog"
	"time"

	"petserver/internal/config"
	"petserver/internal/feature/auth/usecase"
	"petserver/internal/platform/mail"
	"petserver/internal/shared/ratelimiter"
)

// NewMailSender creates the MailSender selected by cfg.Driver, throttled when
// cfg.RatePerMinute is set.
func NewMailSender(cfg config.MailConfig, logger *slog.Logger) (usecase.MailSender, error) {
	sender, err := newTransport(cfg, logger)
	if err != nil {
		return nil, err
	}
	if cfg.RatePerMinute > 0 {
		return mail.NewThrottledSender(sender, ratelimiter.NewRateLimiter(cfg.RatePerMinute, time.Minute)), nil
	}
	return sender, nil
}

func newTransport(cfg config.MailConfig, logger *slog.Logger) (mail.Sender, error) {
	switch cfg.Driver {
	case config.DriverSMTP:
		return mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Username: cfg.Username,
			Password: cfg.Password,
			From:     cfg.Address,
		}), nil
	case config.DriverLog:
		return mail.NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unsupported mail driver %q", cfg.Driver)
	}
}
