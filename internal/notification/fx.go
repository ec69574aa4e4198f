package notification

import (
	"github.com/smallbiznis/ledgerline/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Notifier {
	if cfg.SMTPHost == "" {
		log.Named("notification").Info("smtp not configured, notifications disabled")
		return NewNoop()
	}
	return NewEmail(SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, log)
}

var Module = fx.Module("notification",
	fx.Provide(NewFromConfig),
)
