package roomcode

import (
	"strings"
	"testing"
)

func TestGenerateFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := Generate()
		if len(code) != Length {
			t.Fatalf("code %q has length %d, want %d", code, len(code), Length)
		}
		for _, r := range code {
			if !strings.ContainsRune(alphabet, r) {
				t.Fatalf("code %q contains %q, not in alphabet", code, r)
			}
		}
		seen[code] = true
	}
	// Not a collision guarantee, just a sanity check the generator varies.
	if len(seen) < 90 {
		t.Fatalf("only %d distinct codes out of 100", len(seen))
	}
}
