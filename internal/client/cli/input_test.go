package cli

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestReadLine(t *testing.T) {
	got, err := readLine(rdr("  hello world  \n"), "Name?")
	require.NoError(t, err)
	require.Equal(t, "hello world", got)
}

func TestReadLine_EOF(t *testing.T) {
	_, err := readLine(rdr(""), "Name?")
	require.Error(t, err)
}

func TestReadMultiline(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "stops on empty line",
			input:    "a\nb\n\nc\n",
			expected: "a\nb",
		},
		{
			name:     "Windows CRLF",
			input:    "a\r\nb\r\n\r\n",
			expected: "a\nb",
		},
		{
			name:     "immediate blank line",
			input:    "\n",
			expected: "",
		},
		{
			name:     "EOF without trailing blank line",
			input:    "a\nb",
			expected: "a\nb",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := readMultiline(rdr(tc.input), "Enter text")
			require.NoError(t, err)
			require.Equal(t, tc.expected, got)
		})
	}
}

func TestReadYesNo(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"y\n", true},
		{"Yes\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tc := range tests {
		got := readYesNo(rdr(tc.input), "Sure?")
		require.Equal(t, tc.expected, got, "input %q", tc.input)
	}
}

func TestWithPromptedPassword(t *testing.T) {
	tests := []struct {
		name     string
		dsn      string
		input    string
		expected string
	}{
		{
			name:     "password already present",
			dsn:      "postgres://alice:secret@db:5432/jot",
			input:    "ignored\n",
			expected: "postgres://alice:secret@db:5432/jot",
		},
		{
			name:     "no user info passes through",
			dsn:      "postgres://db:5432/jot",
			input:    "ignored\n",
			expected: "postgres://db:5432/jot",
		},
		{
			name:     "password read from reader",
			dsn:      "postgres://alice@db:5432/jot",
			input:    "secret\n",
			expected: "postgres://alice:secret@db:5432/jot",
		},
		{
			name:     "empty password keeps DSN",
			dsn:      "postgres://alice@db:5432/jot",
			input:    "\n",
			expected: "postgres://alice@db:5432/jot",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := withPromptedPassword(tc.dsn, rdr(tc.input))
			require.Equal(t, tc.expected, got)
		})
	}
}
