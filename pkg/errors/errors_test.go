package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "none"},
		{"unknown key", Newf(ErrUnknownKey, "key %q", "US-1-A"), "unknown_key"},
		{"wrapped unknown term", fmt.Errorf("searching: %w", New(ErrUnknownTerm, "ti:foo")), "unknown_term"},
		{"malformed", ErrMalformedQuery, "malformed_query"},
		{"sink", fmt.Errorf("publish: %w", ErrSinkUnavailable), "sink_unavailable"},
		{"other", errors.New("disk full"), "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := Newf(ErrUnknownTerm, "term %q", "ab:widget")
	assert.Equal(t, `unknown term: term "ab:widget"`, err.Error())
	assert.ErrorIs(t, err, ErrUnknownTerm)
}
