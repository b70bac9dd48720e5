package utils

import (
	"strings"
	"testing"
)

func TestSplitText_ShortTextIsOneChunk(t *testing.T) {
	got := SplitText("short text", 100, 10)
	if len(got) != 1 || got[0] != "short text" {
		t.Errorf("SplitText = %v, want single original chunk", got)
	}
}

func TestSplitText_RespectsChunkSize(t *testing.T) {
	text := strings.Repeat("word ", 200) // 1000 runes
	chunks := SplitText(text, 300, 50)

	if len(chunks) < 3 {
		t.Fatalf("chunks = %d, want at least 3", len(chunks))
	}
	for i, c := range chunks {
		if n := len([]rune(c)); n > 300 {
			t.Errorf("chunk %d is %d runes, exceeds 300", i, n)
		}
	}
}

func TestSplitText_BreaksOnWordBoundaries(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta ", 50)
	chunks := SplitText(text, 120, 20)

	for i, c := range chunks {
		for _, word := range strings.Fields(c) {
			switch word {
			case "alpha", "beta", "gamma", "delta":
			default:
				t.Errorf("chunk %d contains split word %q", i, word)
			}
		}
	}
}

func TestSplitText_CoversAllContent(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta ", 50)
	chunks := SplitText(text, 120, 20)

	if len(chunks) == 0 {
		t.Fatal("no chunks produced")
	}
	last := chunks[len(chunks)-1]
	if !strings.HasSuffix(strings.TrimSpace(text), last) {
		t.Error("last chunk does not end where the text ends")
	}
}

func TestSplitText_OverlapLargerThanChunkStillTerminates(t *testing.T) {
	text := strings.Repeat("x", 500)
	chunks := SplitText(text, 100, 100)
	if len(chunks) == 0 || len(chunks) > 10 {
		t.Errorf("unexpected chunk count %d", len(chunks))
	}
}
