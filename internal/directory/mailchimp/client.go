// Package mailchimp adapts the Mailchimp Marketing API list members endpoints
// to the directory capability.
package mailchimp

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/directory"
	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/subscriber/entity"
)

const providerName = "mailchimp"

const (
	StatusPending    = "pending"
	StatusSubscribed = "subscribed"
)

type Config struct {
	APIKey       string
	ServerPrefix string
	ListID       string
	// HTTPClient defaults to a client with a 10s timeout.
	HTTPClient *http.Client
}

type Client struct {
	apiKey  string
	listID  string
	baseURL string
	http    *http.Client
}

// MergeFields are the list's custom attributes.
type MergeFields struct {
	FirstName string `json:"FNAME"`
	LastName  string `json:"LNAME"`
	Country   string `json:"COUNTRY"`
}

// Member is the body of create and update calls.
type Member struct {
	EmailAddress string      `json:"email_address"`
	MergeFields  MergeFields `json:"merge_fields"`
	Status       string      `json:"status"`
}

func New(cfg Config) (*Client, error) {
	switch {
	case cfg.APIKey == "":
		return nil, &directory.ConfigError{Provider: providerName, Field: "api key"}
	case cfg.ServerPrefix == "":
		return nil, &directory.ConfigError{Provider: providerName, Field: "server prefix"}
	case cfg.ListID == "":
		return nil, &directory.ConfigError{Provider: providerName, Field: "list id"}
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		apiKey:  cfg.APIKey,
		listID:  cfg.ListID,
		baseURL: "https://" + cfg.ServerPrefix + ".api.mailchimp.com/3.0",
		http:    hc,
	}, nil
}

func (c *Client) Name() string { return providerName }

func (c *Client) membersURL() string {
	return c.baseURL + "/lists/" + url.PathEscape(c.listID) + "/members"
}

func (c *Client) memberURL(email string) string {
	return c.membersURL() + "/" + directory.MemberKey(email)
}

// Exists probes the member by its hashed email. 404 means absent; any other
// non-success status is reported as a provider error so outages are not
// mistaken for new members.
func (c *Client) Exists(ctx context.Context, email string) (bool, error) {
	const op = "get member"
	req, err := directory.NewJSONRequest(ctx, http.MethodGet, c.memberURL(email), c.apiKey, nil)
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

// Create adds the member as pending; Mailchimp sends the double opt-in email.
func (c *Client) Create(ctx context.Context, s entity.Subscriber) error {
	return c.write(ctx, http.MethodPost, c.membersURL(), "create member", memberFrom(s, StatusPending))
}

// Update addresses the same key as Exists and forces the subscribed status,
// which also reactivates pending or unsubscribed contacts.
func (c *Client) Update(ctx context.Context, s entity.Subscriber) error {
	return c.write(ctx, http.MethodPatch, c.memberURL(s.Email), "update member", memberFrom(s, StatusSubscribed))
}

func (c *Client) write(ctx context.Context, method, u, op string, m Member) error {
	req, err := directory.NewJSONRequest(ctx, method, u, c.apiKey, m)
	if err != nil {
		return err
	}
	status, body, err := directory.Send(c.http, req, providerName, op)
	if err != nil {
		return err
	}
	return directory.CheckStatus(providerName, op, status, body)
}

func memberFrom(s entity.Subscriber, status string) Member {
	return Member{
		EmailAddress: s.Email,
		MergeFields: MergeFields{
			FirstName: s.FirstName,
			LastName:  s.LastName,
			Country:   s.Country,
		},
		Status: status,
	}
}
