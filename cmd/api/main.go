package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/subscriber"
	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/subscriber/entity"
	"github.com/ovaphlow/pitchfork/service-subscribe-go/pkg/utilities"
)

var (
	lg  *zap.Logger
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:           "subscribe-api",
	Short:         "Subscription endpoint for the Angular Voices of Asia site",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// load .env file if present so os.Getenv picks values from it
		_ = godotenv.Load()

		var err error
		lg, err = utilities.Init(utilities.ConfigFromEnv())
		if err != nil {
			return fmt.Errorf("failed to init logger: %w", err)
		}

		cfg = config.FromEnv()
		if err := cfg.Validate(); err != nil {
			lg.Sugar().Errorw("invalid configuration", "err", err)
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if lg != nil {
			_ = lg.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

// subscribeInput is filled from the subscribe command's flags.
var subscribeInput entity.Subscriber

var subscribeCmd = &cobra.Command{
	Use:   "subscribe",
	Short: "Reconcile a single subscriber against the directory and print the outcome",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := buildService(cmd.Context(), cfg, lg.Sugar(), false)
		if err != nil {
			return err
		}
		defer cleanup()
		return runSubscribe(cmd.Context(), cmd.OutOrStdout(), svc, subscribeInput)
	},
}

func init() {
	f := subscribeCmd.Flags()
	f.StringVar(&subscribeInput.Email, "email", "", "subscriber email (required)")
	f.StringVar(&subscribeInput.FirstName, "first-name", "", "first name")
	f.StringVar(&subscribeInput.LastName, "last-name", "", "last name")
	f.StringVar(&subscribeInput.Name, "name", "", "full name, used in the welcome email")
	f.StringVar(&subscribeInput.Country, "country", "", "country")
	f.BoolVar(&subscribeInput.InterestedInSpeaking, "speaking", false, "interested in speaking")
	f.BoolVar(&subscribeInput.WantToVolunteer, "volunteer", false, "wants to volunteer")
	_ = subscribeCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(serveCmd, subscribeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func serve() error {
	sugar := lg.Sugar()
	sugar.Infow("starting subscribe-api", "provider", cfg.Provider, "addr", cfg.Addr, "path", cfg.SubscribePath)

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, cleanup, err := buildService(ctx, cfg, sugar, true)
	if err != nil {
		return err
	}
	defer cleanup()

	handler := router.RegisterRoutes(sugar, subscriber.NewHandler(svc, sugar), router.Options{
		SubscribePath: cfg.SubscribePath,
		CORSOrigin:    cfg.CORSOrigin,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sugar.Info("service is running; press Ctrl+C to stop")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	}

	sugar.Info("shutting down")

	// give a short grace period for in-flight submissions
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
	return nil
}
