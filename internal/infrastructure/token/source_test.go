package token

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadsync/internal/shared/logger"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func sign(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("not-our-secret"))
	require.NoError(t, err)
	return raw
}

func newSource(t *testing.T, content string) (*Source, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "token")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	s := NewFileSource(path, logger.NewNopLogger())
	s.now = func() time.Time { return fixedNow }
	return s, path
}

func TestSource_Token(t *testing.T) {
	valid := sign(t, jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(fixedNow.Add(time.Hour)),
	})
	expired := sign(t, jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(fixedNow.Add(-time.Second)),
	})
	noExp := sign(t, jwt.RegisteredClaims{Subject: "42"})

	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{name: "valid", content: valid + "\n", want: true},
		{name: "expired", content: expired, want: false},
		{name: "no exp", content: noExp, want: true},
		{name: "missing file", content: "", want: false},
		{name: "garbage", content: "definitely-not-a-jwt", want: false},
		{name: "blank", content: "   \n", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newSource(t, tt.content)
			got, ok := s.Token()
			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.NotEmpty(t, got)
				assert.NotContains(t, got, "\n")
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestSource_PicksUpRewrites(t *testing.T) {
	first := sign(t, jwt.RegisteredClaims{Subject: "1"})
	second := sign(t, jwt.RegisteredClaims{Subject: "2"})
	s, path := newSource(t, first)

	got, ok := s.Token()
	require.True(t, ok)
	assert.Equal(t, first, got)

	require.NoError(t, os.WriteFile(path, []byte(second), 0o600))
	got, ok = s.Token()
	require.True(t, ok)
	assert.Equal(t, second, got)

	require.NoError(t, os.Remove(path))
	_, ok = s.Token()
	assert.False(t, ok)
}

func TestSource_SubjectUserID(t *testing.T) {
	tests := []struct {
		name   string
		claims jwt.Claims
		want   int64
		ok     bool
	}{
		{name: "numeric sub", claims: jwt.RegisteredClaims{Subject: "42"}, want: 42, ok: true},
		{name: "user_id claim wins", claims: &Claims{UserID: 9, RegisteredClaims: jwt.RegisteredClaims{Subject: "42"}}, want: 9, ok: true},
		{name: "non numeric sub", claims: jwt.RegisteredClaims{Subject: "alice"}, ok: false},
		{name: "expired still identifies", claims: jwt.RegisteredClaims{Subject: "5", ExpiresAt: jwt.NewNumericDate(fixedNow.Add(-time.Hour))}, want: 5, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newSource(t, sign(t, tt.claims))
			id, ok := s.SubjectUserID()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("token-a")
	assert.Len(t, a, 12)
	assert.Equal(t, a, Fingerprint("token-a"))
	assert.NotEqual(t, a, Fingerprint("token-b"))
}
