package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_WrappedError(t *testing.T) {
	err := fmt.Errorf("loading issue: %w", NewNotFound("fetch_issue", "issue", 42))

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(err, KindConnection))
}

func TestKindOf_PlainErrorIsInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindInternal))
}

func TestError_UnwrapsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewConnection("fetch_activities", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "fetch_activities: CONNECTION: dial tcp: connection refused", err.Error())
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), "boom"},
		{"explicit message", NewPrecondition("start", "no issue loaded"), "no issue loaded"},
		{"cause only", NewConnection("reconnect", errors.New("timeout")), "timeout"},
		{"not found", NewNotFound("fetch_issue", "issue", 7), "issue #7 not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.err))
		})
	}
}

func TestNewUnauthorized_IsConnectionKind(t *testing.T) {
	err := NewUnauthorized("fetch_issue", 401)

	assert.Equal(t, KindConnection, err.Kind)
	assert.Equal(t, 401, err.Status)
	assert.Contains(t, err.Error(), "API key")
}
