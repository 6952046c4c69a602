package internal_notify

import (
	"context"

	"github.com/go-resty/resty/v2"

	"github.com/teachermoments/moments/config"
	"github.com/teachermoments/moments/pkg/commons"
)

// Notifier pushes short operational messages to the team channel. Failures
// are logged and never surfaced: a missed notification must not affect the
// evidence write path.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

type slackNotifier struct {
	client     *resty.Client
	webhookURL string
	logger     commons.Logger
}

// NewSlackNotifier posts to a Slack incoming webhook. With no webhook URL
// configured it degrades to log-only.
func NewSlackNotifier(cfg *config.AppConfig, logger commons.Logger) Notifier {
	return &slackNotifier{
		client:     resty.New(),
		webhookURL: cfg.SlackWebhookURL,
		logger:     logger,
	}
}

func (n *slackNotifier) Notify(ctx context.Context, text string) {
	if n.webhookURL == "" {
		n.logger.Debug("slack integration not enabled")
		return
	}

	_, err := n.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetBody(map[string]string{
			"username":   "robo-coach",
			"icon_emoji": ":robot_face:",
			"text":       text,
		}).
		Post(n.webhookURL)
	if err != nil {
		n.logger.Warnf("slack notification failed: %v", err)
	}
}
