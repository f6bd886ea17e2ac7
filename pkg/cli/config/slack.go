package config

import (
	"log/slog"

	"github.com/urfave/cli/v3"
)

// Slack holds CLI flags for the Slack Events API webhook
type Slack struct {
	signingSecret string
	rmUserIDs     []string
}

// Flags returns CLI flags for Slack webhook configuration
func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-signing-secret",
			Usage:       "Slack signing secret for webhook verification (webhook is disabled when empty)",
			Category:    "Slack",
			Sources:     cli.EnvVars("DOCKET_SLACK_SIGNING_SECRET"),
			Destination: &x.signingSecret,
		},
		&cli.StringSliceFlag{
			Name:        "slack-rm-user",
			Usage:       "Slack user ID treated as the RM side of conversations (repeatable)",
			Category:    "Slack",
			Sources:     cli.EnvVars("DOCKET_SLACK_RM_USERS"),
			Destination: &x.rmUserIDs,
		},
	}
}

// LogValue renders the configuration for startup logging
func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("webhook_enabled", x.signingSecret != ""),
		slog.Int("rm_users", len(x.rmUserIDs)),
	)
}

// IsWebhookConfigured reports whether the Slack webhook endpoint should be
// registered
func (x *Slack) IsWebhookConfigured() bool {
	return x.signingSecret != ""
}

// SigningSecret returns the configured signing secret
func (x *Slack) SigningSecret() string {
	return x.signingSecret
}

// RMUserIDs returns the Slack user IDs treated as RM senders
func (x *Slack) RMUserIDs() []string {
	return x.rmUserIDs
}
