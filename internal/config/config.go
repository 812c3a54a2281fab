package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	ProviderMailchimp = "mailchimp"
	ProviderResend    = "resend"
)

// Config is built once at startup and passed to the components that need it.
type Config struct {
	Addr            string
	SubscribePath   string
	CORSOrigin      string
	Provider        string
	ProviderTimeout time.Duration

	Mailchimp MailchimpConfig
	Resend    ResendConfig
}

type MailchimpConfig struct {
	APIKey       string
	ServerPrefix string
	AudienceID   string
}

type ResendConfig struct {
	APIKey     string
	AudienceID string
	// WelcomeFrom enables the welcome email when non-empty.
	WelcomeFrom string
}

// MissingError lists required environment variables that were empty. It is
// meant for server-side logs only.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return "missing required configuration: " + strings.Join(e.Keys, ", ")
}

// FromEnv reads the configuration from environment variables and applies
// defaults. Call Validate before using it.
func FromEnv() Config {
	cfg := Config{
		Addr:            envOr("HTTP_ADDR", "0.0.0.0:8431"),
		SubscribePath:   envOr("SUBSCRIBE_PATH", "/api/subscribe"),
		CORSOrigin:      envOr("CORS_ORIGIN", "*"),
		Provider:        strings.ToLower(envOr("DIRECTORY_PROVIDER", ProviderMailchimp)),
		ProviderTimeout: 10 * time.Second,
		Mailchimp: MailchimpConfig{
			APIKey:       strings.TrimSpace(os.Getenv("MAILCHIMP_API_KEY")),
			ServerPrefix: strings.TrimSpace(os.Getenv("MAILCHIMP_SERVER_PREFIX")),
			AudienceID:   strings.TrimSpace(os.Getenv("MAILCHIMP_AUDIENCE_ID")),
		},
		Resend: ResendConfig{
			APIKey:      strings.TrimSpace(os.Getenv("RESEND_API_KEY")),
			AudienceID:  strings.TrimSpace(os.Getenv("RESEND_AUDIENCE_ID")),
			WelcomeFrom: strings.TrimSpace(os.Getenv("WELCOME_EMAIL_FROM")),
		},
	}
	if v := os.Getenv("PROVIDER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ProviderTimeout = d
		}
	}
	return cfg
}

// Validate fails fast when the selected provider lacks credentials.
func (c Config) Validate() error {
	var missing []string
	switch c.Provider {
	case ProviderMailchimp:
		if c.Mailchimp.APIKey == "" {
			missing = append(missing, "MAILCHIMP_API_KEY")
		}
		if c.Mailchimp.ServerPrefix == "" {
			missing = append(missing, "MAILCHIMP_SERVER_PREFIX")
		}
		if c.Mailchimp.AudienceID == "" {
			missing = append(missing, "MAILCHIMP_AUDIENCE_ID")
		}
	case ProviderResend:
		if c.Resend.APIKey == "" {
			missing = append(missing, "RESEND_API_KEY")
		}
		if c.Resend.AudienceID == "" {
			missing = append(missing, "RESEND_AUDIENCE_ID")
		}
	default:
		return fmt.Errorf("unknown DIRECTORY_PROVIDER %q", c.Provider)
	}
	if err := validatePath(c.SubscribePath); err != nil {
		return err
	}
	if len(missing) > 0 {
		return &MissingError{Keys: missing}
	}
	return nil
}

// validatePath rejects values the mux would read as a wildcard or a subtree.
func validatePath(p string) error {
	switch {
	case !strings.HasPrefix(p, "/"):
		return fmt.Errorf("SUBSCRIBE_PATH must start with '/': %q", p)
	case strings.ContainsAny(p, "{} \t\r\n"):
		return fmt.Errorf("SUBSCRIBE_PATH must not contain braces or whitespace: %q", p)
	case p != "/" && strings.HasSuffix(p, "/"):
		return fmt.Errorf("SUBSCRIBE_PATH must not end with '/': %q", p)
	}
	return nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
