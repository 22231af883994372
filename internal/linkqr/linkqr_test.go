package linkqr

import (
	"bytes"
	"strings"
	"testing"
)

const testLink = "https://link.echochat.io/invitation#/?v=1&smp=smp%3A%2F%2Fabc"

func TestPNG(t *testing.T) {
	png, err := PNG(testLink, 256)
	if err != nil {
		t.Fatalf("PNG() error = %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Errorf("PNG() output missing png signature")
	}
}

func TestASCII(t *testing.T) {
	out, err := ASCII(testLink)
	if err != nil {
		t.Fatalf("ASCII() error = %v", err)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) < 10 {
		t.Errorf("ASCII() produced %d lines, want a plausible qr grid", len(lines))
	}
	for i := 1; i < len(lines); i++ {
		if len([]rune(lines[i])) != len([]rune(lines[0])) {
			t.Fatalf("line %d width %d != line 0 width %d", i, len([]rune(lines[i])), len([]rune(lines[0])))
		}
	}
}
