package identity

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderResolver(t *testing.T) {
	t.Parallel()

	resolver := NewHeaderResolver("X-User-ID")

	tests := []struct {
		name    string
		value   string
		want    string
		wantErr bool
	}{
		{"plain id", "alice", "alice", false},
		{"trims whitespace", "  bob ", "bob", false},
		{"missing", "", "", true},
		{"blank", "   ", "", true},
		{"too long", strings.Repeat("a", MaxOwnerIDLength+1), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
			if tt.value != "" {
				req.Header.Set("X-User-ID", tt.value)
			}

			owner, err := resolver.Resolve(req)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnauthenticated)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, owner)
		})
	}
}

func TestTokenResolver(t *testing.T) {
	t.Parallel()

	tokens := map[string]string{"abc": "alice", "def": "bob"}
	resolver := NewTokenResolver(tokens)
	tokens["ghi"] = "mallory"

	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"known token", "Bearer abc", "alice", false},
		{"scheme is case-insensitive", "bearer def", "bob", false},
		{"unknown token", "Bearer nope", "", true},
		{"added after construction", "Bearer ghi", "", true},
		{"wrong scheme", "Basic abc", "", true},
		{"no token", "Bearer ", "", true},
		{"missing header", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			owner, err := resolver.Resolve(req)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnauthenticated)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, owner)
		})
	}
}

func TestResolversImplementInterface(t *testing.T) {
	t.Parallel()

	var _ Resolver = (*HeaderResolver)(nil)
	var _ Resolver = (*TokenResolver)(nil)
}
