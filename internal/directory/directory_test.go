package directory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemberKey(t *testing.T) {
	assert.Equal(t, "55502f40dc8b7c769880b10874abc9d0", MemberKey("test@example.com"))
	assert.Equal(t, MemberKey("test@example.com"), MemberKey("Test@Example.COM"))
	assert.Equal(t, MemberKey("test@example.com"), MemberKey("  test@example.com "))
	assert.NotEqual(t, MemberKey("a@b.com"), MemberKey("b@a.com"))
	assert.Len(t, MemberKey("a@b.com"), 32)
}

func TestErrors(t *testing.T) {
	var err error = fmt.Errorf("update: %w", &ProviderError{Provider: "mailchimp", Op: "update member", Status: 400, Body: `{"title":"Invalid Resource"}`})
	assert.True(t, errors.Is(err, ErrProvider))
	assert.False(t, errors.Is(err, ErrTransport))
	assert.NotContains(t, err.Error(), "Invalid Resource")

	var pe *ProviderError
	if assert.True(t, errors.As(err, &pe)) {
		assert.Equal(t, 400, pe.Status)
	}

	err = &TransportError{Provider: "resend", Op: "get contact", Err: context.DeadlineExceeded}
	assert.True(t, errors.Is(err, ErrTransport))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
