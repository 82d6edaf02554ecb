package knowledge

import "strings"

// ChunkSize is the maximum chunk length, in runes, used when splitting
// document content for prompt assembly and ingestion.
const ChunkSize = 1000

// SplitText splits text into consecutive chunks of at most maxLen runes.
// Returns nil for empty text. Splitting is rune-safe: multi-byte characters
// are never cut in half.
func SplitText(text string, maxLen int) []string {
	if text == "" || maxLen <= 0 {
		return nil
	}

	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+maxLen-1)/maxLen)
	for start := 0; start < len(runes); start += maxLen {
		end := min(start+maxLen, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// NormalizeChunks splits content at ChunkSize and rejoins the chunks with
// single spaces, bounding any single unbroken run of text before it is
// substituted into a prompt.
func NormalizeChunks(content string) string {
	return strings.Join(SplitText(content, ChunkSize), " ")
}
