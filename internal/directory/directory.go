// Package directory defines the mailing-list directory capability used by the
// subscription flow and the errors its adapters report.
package directory

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/subscriber/entity"
)

// Directory is an external subscriber database keyed by email.
type Directory interface {
	// Name identifies the provider in logs and audit rows.
	Name() string
	// Exists reports whether a member with this email is already present.
	// A not-found answer is (false, nil), never an error.
	Exists(ctx context.Context, email string) (bool, error)
	// Create adds the member in a pending state.
	Create(ctx context.Context, s entity.Subscriber) error
	// Update marks an existing member as subscribed.
	Update(ctx context.Context, s entity.Subscriber) error
}

// MemberKey returns the hex MD5 of the lower-cased email. Providers use it as
// the member id in URL paths.
func MemberKey(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

var (
	ErrProvider  = errors.New("directory provider error")
	ErrTransport = errors.New("directory transport error")
)

// ProviderError is a non-success HTTP status from the provider. Body holds the
// raw response text and must only reach server-side logs.
type ProviderError struct {
	Provider string
	Op       string
	Status   int
	Body     string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Provider, e.Op, e.Status)
}

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// TransportError wraps a failure to reach the provider at all.
type TransportError struct {
	Provider string
	Op       string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// ConfigError is returned by adapter constructors when a credential is empty.
type ConfigError struct {
	Provider string
	Field    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s is required", e.Provider, e.Field)
}
