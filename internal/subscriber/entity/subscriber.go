package entity

import (
	"strings"
	"time"
)

// Subscriber is the record submitted by the subscription form. Email is the
// only identity key; the other fields are descriptive merge data.
//
// Name, InterestedInSpeaking and WantToVolunteer only shape the welcome email
// and are never written to the directory.
type Subscriber struct {
	Email                string `json:"email"`
	FirstName            string `json:"firstName"`
	LastName             string `json:"lastName"`
	Name                 string `json:"name"`
	Country              string `json:"country"`
	InterestedInSpeaking bool   `json:"interestedInSpeaking"`
	WantToVolunteer      bool   `json:"wantToVolunteer"`
}

// DisplayName is the single-field name when the form sent one, otherwise the
// first and last names joined.
func (s Subscriber) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Normalize lower-cases and trims the email so that case never distinguishes
// two submissions.
func (s Subscriber) Normalize() Subscriber {
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	return s
}

// Outcome is the result of reconciling one submission against the directory.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeCreated
	OutcomeUpdated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	default:
		return "failed"
	}
}

// Event is one row of the submission audit log. It holds the hashed member key,
// never the email or names.
type Event struct {
	ID        string    `db:"id"`
	RequestID string    `db:"request_id"`
	MemberKey string    `db:"member_key"`
	Provider  string    `db:"provider"`
	Outcome   string    `db:"outcome"`
	CreatedAt time.Time `db:"created_at"`
}
