package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/directory"
	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/directory/mailchimp"
	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/directory/resend"
	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/subscriber"
	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/subscriber/entity"
	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/subscriber/repo"
	"github.com/ovaphlow/pitchfork/service-subscribe-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-subscribe-go/pkg/utilities"
)

// newDirectory builds the adapter selected by DIRECTORY_PROVIDER.
func newDirectory(cfg config.Config, hc *http.Client) (directory.Directory, error) {
	switch cfg.Provider {
	case config.ProviderMailchimp:
		return mailchimp.New(mailchimp.Config{
			APIKey:       cfg.Mailchimp.APIKey,
			ServerPrefix: cfg.Mailchimp.ServerPrefix,
			ListID:       cfg.Mailchimp.AudienceID,
			HTTPClient:   hc,
		})
	case config.ProviderResend:
		return resend.New(resend.Config{
			APIKey:     cfg.Resend.APIKey,
			AudienceID: cfg.Resend.AudienceID,
			HTTPClient: hc,
		})
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// buildService wires the directory, the optional welcome mailer and, when
// withAudit is set and DATABASE_URL is present, the audit store. cleanup
// releases the database pool.
func buildService(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger, withAudit bool) (*subscriber.Service, func(), error) {
	cleanup := func() {}
	hc := &http.Client{Timeout: cfg.ProviderTimeout}

	dir, err := newDirectory(cfg, hc)
	if err != nil {
		return nil, cleanup, err
	}
	svc := subscriber.NewService(dir, logger)

	if cfg.Resend.WelcomeFrom != "" {
		m, err := resend.NewWelcomeMailer(cfg.Resend.APIKey, cfg.Resend.WelcomeFrom, hc)
		if err != nil {
			logger.Warnw("welcome email disabled", "err", err)
		} else {
			svc.Welcome = m
		}
	}

	dbCfg := database.ConfigFromEnv()
	if !withAudit || !dbCfg.Enabled() {
		return svc, cleanup, nil
	}
	db, err := database.Connect(ctx, dbCfg)
	if err != nil {
		return nil, cleanup, fmt.Errorf("db connect: %w", err)
	}
	events := repo.NewEventRepo(db)
	if err := events.EnsureTable(ctx); err != nil {
		db.Close()
		return nil, cleanup, fmt.Errorf("ensure audit table: %w", err)
	}
	svc.Audit = events
	logger.Info("submission audit enabled")
	return svc, func() { _ = db.Close() }, nil
}

type subscribeResult struct {
	Email   string `json:"email"`
	Outcome string `json:"outcome"`
}

// runSubscribe reconciles one subscriber under a fresh request id and prints
// the outcome as a JSON line.
func runSubscribe(ctx context.Context, out io.Writer, svc subscriber.Reconciler, in entity.Subscriber) error {
	ctx = utilities.WithRequestID(ctx, utilities.NewRequestID())
	outcome, err := svc.Subscribe(ctx, in)
	if err != nil {
		return err
	}
	return json.NewEncoder(out).Encode(subscribeResult{Email: in.Normalize().Email, Outcome: outcome.String()})
}
