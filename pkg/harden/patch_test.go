package harden

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMissingTokens(t *testing.T) {
	tokens := []string{"rotate=seq", "compress", "file_max=50M", "size_only", "ttl=365"}

	assert.Equal(t, tokens, MissingTokens("* file /var/log/install.log", tokens))
	assert.Equal(t, []string{"size_only", "ttl=365"},
		MissingTokens("* file /var/log/install.log format='$((Time)(JZ)) $Host $(Sender)[$(PID)] <$((Level)(str))>: $Message' rotate=seq compress file_max=50M", tokens))
	assert.Empty(t, MissingTokens("rotate=seq compress file_max=50M size_only ttl=365", tokens))
}

func TestNewLine(t *testing.T) {
	tests := []struct {
		name        string
		current     string
		patch       Patch
		wantLine    string
		wantChanged bool
	}{
		{
			name:        "tokens appended in declared order",
			current:     "flags:-fm,ad",
			patch:       Patch{Mode: PatchTokens, Tokens: []string{"-fm,ad", "-ex,aa"}},
			wantLine:    "flags:-fm,ad -ex,aa",
			wantChanged: true,
		},
		{
			name:        "all tokens present",
			current:     "flags:lo,-ex,aa,-fm,ad",
			patch:       Patch{Mode: PatchTokens, Tokens: []string{"-fm,ad", "-ex,aa"}},
			wantLine:    "flags:lo,-ex,aa,-fm,ad",
			wantChanged: false,
		},
		{
			name:        "replace differing line",
			current:     "expire-after:10M",
			patch:       Patch{Mode: PatchReplace, Line: "expire-after:60d"},
			wantLine:    "expire-after:60d",
			wantChanged: true,
		},
		{
			name:        "replace equal line",
			current:     "flags:-fm,ad,-ex,aa,-fr,lo,-fw",
			patch:       Patch{Mode: PatchReplace, Line: "flags:-fm,ad,-ex,aa,-fr,lo,-fw"},
			wantLine:    "flags:-fm,ad,-ex,aa,-fr,lo,-fw",
			wantChanged: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, changed := NewLine(tt.current, tt.patch)
			assert.Equal(t, tt.wantLine, line)
			assert.Equal(t, tt.wantChanged, changed)
		})
	}
}

func TestSubstitutionExpr(t *testing.T) {
	tests := []struct {
		name        string
		current     string
		replacement string
		expected    string
	}{
		{
			name:        "plain",
			current:     "expire-after:10M",
			replacement: "expire-after:60d",
			expected:    `s|^expire-after:10M$|expire-after:60d|`,
		},
		{
			name:        "regex metacharacters in current",
			current:     "* file /var/log/install.log [x] $a^b.c",
			replacement: "* file /var/log/install.log ttl=365",
			expected:    `s|^\* file /var/log/install\.log \[x\] \$a\^b\.c$|* file /var/log/install.log ttl=365|`,
		},
		{
			name:        "delimiter and ampersand",
			current:     "a|b",
			replacement: `a|b & c\d`,
			expected:    `s|^a\|b$|a\|b \& c\\d|`,
		},
		{
			name:        "carriage return kept",
			current:     "expire-after:10M\r",
			replacement: "expire-after:60d\r",
			expected:    "s|^expire-after:10M\r$|expire-after:60d\r|",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SubstitutionExpr(tt.current, tt.replacement))
		})
	}
}
