package logutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateForLog(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short string kept", "salut", 10, "salut"},
		{"exact length kept", "salut", 5, "salut"},
		{"ascii truncated", "bună ziua", 3, "bun..."},
		{"runes not split", "❗️❗️❗️Mesajul", 2, "❗️..."},
		{"zero max", "x", 0, "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateForLog(tt.input, tt.maxLen))
		})
	}
}
