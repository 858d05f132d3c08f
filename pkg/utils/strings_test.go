package utils

import (
	"reflect"
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("Got %q", got)
	}
	if got := Truncate("hello world", 5); got != "hello..." {
		t.Errorf("Got %q", got)
	}
	if got := Truncate("héllo wörld", 5); got != "héllo..." {
		t.Errorf("Rune truncation wrong: %q", got)
	}
}

func TestSplitChunks(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"A|||B|||  |||C", []string{"A", "B", "C"}},
		{"single message", []string{"single message"}},
		{"  padded  |||  also padded  ", []string{"padded", "also padded"}},
		{"||||||", nil},
		{"", nil},
	}
	for _, tt := range tests {
		if got := SplitChunks(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitChunks(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSplitMessagePrefersNewlines(t *testing.T) {
	content := strings.Repeat("line one\n", 3) + "tail"
	chunks := SplitMessage(content, 20)
	if len(chunks) < 2 {
		t.Fatalf("Expected multiple chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0], "\n") {
		t.Errorf("Chunk should break at newline: %q", chunks[0])
	}
	if strings.Join(chunks, "") != content {
		t.Error("Chunks do not reassemble to the original content")
	}
}

func TestSplitMessageShortContent(t *testing.T) {
	chunks := SplitMessage("short", 100)
	if len(chunks) != 1 || chunks[0] != "short" {
		t.Errorf("Got %v", chunks)
	}
}
