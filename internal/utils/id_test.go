package utils

import (
	"strings"
	"testing"
)

func TestNewTicketIDFormat(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewTicketID()
		if !strings.HasPrefix(id, "TICKET-") {
			t.Fatalf("missing prefix: %q", id)
		}
		suffix := strings.TrimPrefix(id, "TICKET-")
		if len(suffix) != 8 {
			t.Fatalf("expected 8 hex chars, got %q", suffix)
		}
		for _, r := range suffix {
			if !strings.ContainsRune("0123456789ABCDEF", r) {
				t.Fatalf("non-uppercase-hex char %q in %q", r, id)
			}
		}
		seen[id] = struct{}{}
	}
	if len(seen) < 2 {
		t.Fatal("ticket IDs are not random")
	}
}

func TestSanitizeChannelName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Alice", "alice"},
		{"bob_42!", "bob42"},
		{"Ünïcode Näme", "ncodenme"},
		{"---", ""},
	}

	for _, tt := range tests {
		if got := SanitizeChannelName(tt.in); got != tt.want {
			t.Errorf("SanitizeChannelName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
