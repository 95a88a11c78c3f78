package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/jhillyerd/enmime"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"labqc/internal"
	"labqc/internal/config"
	"labqc/internal/notify"
)

type Notifier struct {
	service *gmail.Service
	sender  string
}

func NewNotifier(cfg config.Config) (*Notifier, error) {
	if err := cfg.Require("GMAIL_CLIENT_ID", cfg.GmailClientID); err != nil {
		return nil, err
	}
	if err := cfg.Require("GMAIL_CLIENT_SECRET", cfg.GmailClientSecret); err != nil {
		return nil, err
	}
	if err := cfg.Require("GMAIL_REFRESH_TOKEN", cfg.GmailRefreshToken); err != nil {
		return nil, err
	}
	if err := cfg.Require("NOTIFY_SENDER", cfg.NotifySender); err != nil {
		return nil, err
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GmailClientID,
		ClientSecret: cfg.GmailClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.GmailRedirectURI,
		Scopes:       []string{gmail.GmailSendScope},
	}

	tokenSource := oauthCfg.TokenSource(context.Background(), &oauth2.Token{RefreshToken: cfg.GmailRefreshToken})
	svc, err := gmail.NewService(context.Background(), option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, err
	}

	return &Notifier{service: svc, sender: cfg.NotifySender}, nil
}

func (n *Notifier) Send(ctx context.Context, alert notify.Alert) error {
	if strings.TrimSpace(alert.Recipient) == "" {
		return fmt.Errorf("alert recipient is empty")
	}

	part, err := enmime.Builder().
		From("", n.sender).
		To("", alert.Recipient).
		Subject(alert.Subject).
		Text([]byte(alertBody(alert.Rows))).
		Build()
	if err != nil {
		return fmt.Errorf("build alert mime: %w", err)
	}

	var raw bytes.Buffer
	if err := part.Encode(&raw); err != nil {
		return fmt.Errorf("encode alert mime: %w", err)
	}

	message := &gmail.Message{Raw: base64.RawURLEncoding.EncodeToString(raw.Bytes())}
	if _, err := n.service.Users.Messages.Send("me", message).Context(ctx).Do(); err != nil {
		return fmt.Errorf("send alert: %w", err)
	}
	return nil
}

func alertBody(rows []internal.NonConformityRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Échantillons non-conformes détectés: %d\n\n", countSamples(rows))
	for _, row := range rows {
		fmt.Fprintf(&b, "- %s (%s / %s): %s = %v (règle %s %s)\n",
			row.SampleNumber, row.ProductFamily, row.ProductType,
			row.Analyte, row.Measurement, row.Operator, boundText(row))
	}
	return b.String()
}

func boundText(row internal.NonConformityRow) string {
	switch {
	case row.LowerBound != nil && row.UpperBound != nil:
		return fmt.Sprintf("%v..%v", *row.LowerBound, *row.UpperBound)
	case row.UpperBound != nil:
		return fmt.Sprintf("%v", *row.UpperBound)
	case row.LowerBound != nil:
		return fmt.Sprintf("%v", *row.LowerBound)
	default:
		return "?"
	}
}

func countSamples(rows []internal.NonConformityRow) int {
	seen := map[string]struct{}{}
	for _, row := range rows {
		seen[row.SampleNumber] = struct{}{}
	}
	return len(seen)
}
