package toolerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "message only",
			err:  New(KindValidation, "address is malformed"),
			want: "validation_error: address is malformed",
		},
		{
			name: "wrapped cause",
			err:  Wrap(KindTransport, "dial imap.example.com:993", errors.New("connection refused")),
			want: "transport_error: dial imap.example.com:993: connection refused",
		},
		{
			name: "formatted",
			err:  Newf(KindInvalidArgument, "count must be at least 1, got %d", 0),
			want: "invalid_argument: count must be at least 1, got 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestIsMatchesOnKind(t *testing.T) {
	err := fmt.Errorf("summarize: %w", New(KindEmptyInput, "no keywords"))

	assert.True(t, errors.Is(err, ErrEmptyInput))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, New(KindEmptyInput, "other message")))
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("fetch: %w", New(KindTransport, "connection reset"))

	assert.True(t, Is(err, KindTransport))
	assert.False(t, Is(err, KindAuth))
	assert.True(t, Is(errors.New("boom"), KindInternal))
	assert.False(t, Is(nil, KindInternal))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindAuth, KindOf(fmt.Errorf("fetch: %w", New(KindAuth, "login rejected"))))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("eof")
	err := Wrap(KindParse, "read header", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrParse))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "no keywords", Message(New(KindEmptyInput, "no keywords")))
	assert.Equal(t, "read header: eof", Message(Wrap(KindParse, "read header", errors.New("eof"))))
	assert.Equal(t, "plain", Message(errors.New("plain")))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(New(KindTransport, "connection reset")))
	assert.False(t, Retryable(New(KindAuth, "invalid credentials")))
	assert.False(t, Retryable(New(KindValidation, "bad address")))
	assert.False(t, Retryable(errors.New("unclassified")))
}
