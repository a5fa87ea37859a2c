package utils_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/luckyroll/casino/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "Alice", want: "Alice"},
		{name: "whitespace", input: "  Alice \n  Smith ", want: "Alice Smith"},
		{name: "fullwidth", input: "Ａｌｉｃｅ", want: "Alice"},
		{name: "zero width", input: "Al​ice", want: "Alice"},
		{name: "control", input: "Al\x07ice", want: "Alice"},
		{name: "empty", input: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, utils.SanitizeName(tt.input))
		})
	}
}

func TestSanitizeNameTruncates(t *testing.T) {
	t.Parallel()

	got := utils.SanitizeName(strings.Repeat("я", 50))
	assert.Equal(t, utils.MaxNameLength, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Alice Smith", utils.DisplayName("Alice", "Smith", "alice", "id1"))
	assert.Equal(t, "Alice", utils.DisplayName("Alice", "", "", "id1"))
	assert.Equal(t, "@alice", utils.DisplayName("", "", "alice", "id1"))
	assert.Equal(t, "id1", utils.DisplayName("", "", "", "id1"))
}
