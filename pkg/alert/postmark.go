package alert

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/mrz1836/postmark"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Config holds the email alert channel configuration. AdminEmail is the
// single recipient for all escalated alerts; AppName prefixes every
// subject line.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"ALERT_SENDER_EMAIL"`
	AdminEmail           string `env:"ALERT_ADMIN_EMAIL"`
	AppName              string `env:"ALERT_APP_NAME" envDefault:"TranslationHub"`
}

type postmarkNotifier struct {
	client *postmark.Client
	cfg    Config
}

// NewPostmarkNotifier creates a Postmark-backed email notifier. All
// fields are required: a half-configured alert channel should fail at
// startup, not silently drop alerts in production.
func NewPostmarkNotifier(cfg Config) (Notifier, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: PostmarkAccountToken is required", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.AdminEmail) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, ErrNoRecipient)
	}
	if cfg.AppName == "" {
		cfg.AppName = "TranslationHub"
	}

	return &postmarkNotifier{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		cfg:    cfg,
	}, nil
}

// Notify sends the alert as a plain-text transactional email.
func (n *postmarkNotifier) Notify(ctx context.Context, a Alert) error {
	if a.Category == "" {
		return ErrEmptyAlert
	}

	resp, err := n.client.SendEmail(ctx, postmark.Email{
		From:     n.cfg.SenderEmail,
		To:       n.cfg.AdminEmail,
		Subject:  a.Subject(n.cfg.AppName),
		TextBody: a.Body(),
		Tag:      string(a.Category),
	})
	if err != nil {
		return errors.Join(ErrDeliveryFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrDeliveryFailed,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}
