package utils

import (
	"strings"
	"unicode"
)

// SplitText splits a long string into chunks of at most chunkSize runes with
// an overlap between consecutive chunks so context survives the boundary.
// The cut point is moved back to the nearest whitespace when one exists in
// the last quarter of the window, so words are not split in half.
func SplitText(text string, chunkSize int, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	for start := 0; start < len(runes); {
		end := start + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, strings.TrimSpace(string(runes[start:])))
			break
		}

		cut := end
		for i := end; i > end-chunkSize/4 && i > start+1; i-- {
			if unicode.IsSpace(runes[i-1]) {
				cut = i
				break
			}
		}

		chunks = append(chunks, strings.TrimSpace(string(runes[start:cut])))

		next := cut - overlap
		if next < 0 {
			next = 0
		}
		// Re-enter at a word start so the overlapped region never begins
		// mid-word.
		for next < cut && next > 0 && !unicode.IsSpace(runes[next-1]) {
			next++
		}
		if next <= start {
			next = cut
		}
		start = next
	}

	return chunks
}
