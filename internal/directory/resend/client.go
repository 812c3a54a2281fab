// Package resend adapts Resend audiences (contacts) to the directory
// capability and sends the welcome email through Resend's email API.
package resend

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/directory"
	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/subscriber/entity"
)

const (
	providerName   = "resend"
	defaultBaseURL = "https://api.resend.com"
)

type Config struct {
	APIKey     string
	AudienceID string
	HTTPClient *http.Client
}

type Client struct {
	apiKey     string
	audienceID string
	baseURL    string
	http       *http.Client
}

// Contact is the body of create and update calls. Resend has no pending
// state, so both calls clear the unsubscribed flag.
type Contact struct {
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Unsubscribed bool   `json:"unsubscribed"`
}

func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &directory.ConfigError{Provider: providerName, Field: "api key"}
	}
	if cfg.AudienceID == "" {
		return nil, &directory.ConfigError{Provider: providerName, Field: "audience id"}
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{apiKey: cfg.APIKey, audienceID: cfg.AudienceID, baseURL: defaultBaseURL, http: hc}, nil
}

func (c *Client) Name() string { return providerName }

func (c *Client) contactsURL() string {
	return c.baseURL + "/audiences/" + url.PathEscape(c.audienceID) + "/contacts"
}

func (c *Client) contactURL(email string) string {
	return c.contactsURL() + "/" + url.PathEscape(email)
}

func (c *Client) Exists(ctx context.Context, email string) (bool, error) {
	const op = "get contact"
	req, err := directory.NewJSONRequest(ctx, http.MethodGet, c.contactURL(email), c.apiKey, nil)
	if err != nil {
		return false, err
	}
	status, body, err := directory.Send(c.http, req, providerName, op)
	if err != nil {
		return false, err
	}
	if status == http.StatusNotFound {
		return false, nil
	}
	if err := directory.CheckStatus(providerName, op, status, body); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) Create(ctx context.Context, s entity.Subscriber) error {
	return c.write(ctx, http.MethodPost, c.contactsURL(), "create contact", contactFrom(s))
}

func (c *Client) Update(ctx context.Context, s entity.Subscriber) error {
	return c.write(ctx, http.MethodPatch, c.contactURL(s.Email), "update contact", contactFrom(s))
}

func (c *Client) write(ctx context.Context, method, u, op string, body any) error {
	req, err := directory.NewJSONRequest(ctx, method, u, c.apiKey, body)
	if err != nil {
		return err
	}
	status, raw, err := directory.Send(c.http, req, providerName, op)
	if err != nil {
		return err
	}
	return directory.CheckStatus(providerName, op, status, raw)
}

func contactFrom(s entity.Subscriber) Contact {
	return Contact{Email: s.Email, FirstName: s.FirstName, LastName: s.LastName}
}
