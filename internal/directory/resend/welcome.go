package resend

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/directory"
	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/subscriber/entity"
)

const welcomeSubject = "Welcome to Angular Voices of Asia!"

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="text-align: center; margin-bottom: 30px;">
    <h1 style="color: #9c27b0; margin: 0;">Angular Voices of Asia</h1>
    <p style="color: #666; margin: 10px 0;">Uniting the Angular community across Asia</p>
  </div>
  <div style="background: #f8f9fa; padding: 20px; border-radius: 8px; margin-bottom: 20px;">
    <h2 style="color: #333; margin-top: 0;">Welcome aboard!</h2>
    <p style="color: #555; line-height: 1.6;">Thank you for subscribing to Angular Voices of Asia! We're excited to have you join our community.</p>
    {{- if .Name}}
    <p style="color: #555;"><strong>Name:</strong> {{.Name}}</p>
    {{- end}}
    {{- if .Country}}
    <p style="color: #555;"><strong>Country:</strong> {{.Country}}</p>
    {{- end}}
  </div>
  <div style="background: #e3f2fd; padding: 20px; border-radius: 8px; margin-bottom: 20px;">
    <h3 style="color: #1976d2; margin-top: 0;">What's Next?</h3>
    <ul style="color: #555; line-height: 1.6;">
      <li>We'll keep you updated on conference announcements</li>
      <li>You'll receive information about speaker calls</li>
      <li>Get early access to registration when it opens</li>
      {{- if .Speaking}}
      <li>We'll reach out about speaking opportunities</li>
      {{- end}}
      {{- if .Volunteer}}
      <li>We'll contact you about volunteer opportunities</li>
      {{- end}}
    </ul>
  </div>
  <div style="text-align: center; margin-top: 30px;">
    <p style="color: #666; font-size: 14px;">
      Conference coming Winter 2025 &bull;
      <a href="mailto:team@angularasia.dev" style="color: #9c27b0;">Contact us</a>
    </p>
  </div>
</div>
`))

type welcomeData struct {
	Name      string
	Country   string
	Speaking  bool
	Volunteer bool
}

type email struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// WelcomeMailer sends the conference welcome email to new members.
type WelcomeMailer struct {
	apiKey  string
	from    string
	baseURL string
	http    *http.Client
}

func NewWelcomeMailer(apiKey, from string, hc *http.Client) (*WelcomeMailer, error) {
	if apiKey == "" {
		return nil, &directory.ConfigError{Provider: providerName, Field: "api key"}
	}
	if from == "" {
		return nil, &directory.ConfigError{Provider: providerName, Field: "sender"}
	}
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &WelcomeMailer{apiKey: apiKey, from: from, baseURL: defaultBaseURL, http: hc}, nil
}

func (m *WelcomeMailer) SendWelcome(ctx context.Context, s entity.Subscriber) error {
	const op = "send email"
	html, err := renderWelcome(s)
	if err != nil {
		return err
	}
	msg := email{From: m.from, To: []string{s.Email}, Subject: welcomeSubject, HTML: html}
	req, err := directory.NewJSONRequest(ctx, http.MethodPost, m.baseURL+"/emails", m.apiKey, msg)
	if err != nil {
		return err
	}
	status, body, err := directory.Send(m.http, req, providerName, op)
	if err != nil {
		return err
	}
	return directory.CheckStatus(providerName, op, status, body)
}

func renderWelcome(s entity.Subscriber) (string, error) {
	data := welcomeData{
		Name:      s.DisplayName(),
		Country:   s.Country,
		Speaking:  s.InterestedInSpeaking,
		Volunteer: s.WantToVolunteer,
	}
	var buf bytes.Buffer
	if err := welcomeTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
