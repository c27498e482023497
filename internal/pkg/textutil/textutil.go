// Package textutil provides text processing helpers for the RAG pipeline.
package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strings"
	"unicode/utf8"
)

// DefaultSeparators is the ordered separator list tried by SplitText, from
// coarsest to finest, so semantic boundaries win over arbitrary cuts.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// SplitText splits text into overlapping chunks of at most chunkSize
// characters using DefaultSeparators. The result is deterministic for a
// given input and configuration.
func SplitText(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return splitRecursive(text, chunkSize, overlap, DefaultSeparators)
}

func splitRecursive(text string, chunkSize, overlap int, separators []string) []string {
	if utf8.RuneCountInString(text) <= chunkSize {
		return []string{text}
	}

	// Pick the coarsest separator that occurs in the text. The empty
	// separator always matches and falls back to a hard rune window.
	sep := ""
	var remaining []string
	for i, s := range separators {
		if s == "" || strings.Contains(text, s) {
			sep = s
			remaining = separators[i+1:]
			break
		}
	}

	if sep == "" {
		return SplitIntoChunks(text, chunkSize, overlap)
	}

	var pieces []string
	for _, part := range strings.Split(text, sep) {
		if part == "" {
			continue
		}
		if utf8.RuneCountInString(part) > chunkSize {
			pieces = append(pieces, splitRecursive(part, chunkSize, overlap, remaining)...)
		} else {
			pieces = append(pieces, part)
		}
	}

	return mergePieces(pieces, sep, chunkSize, overlap)
}

// mergePieces greedily joins pieces with sep into chunks of at most
// chunkSize characters, carrying whole trailing pieces of up to overlap
// characters into the next chunk.
func mergePieces(pieces []string, sep string, chunkSize, overlap int) []string {
	sepLen := utf8.RuneCountInString(sep)

	var chunks []string
	var current []string
	currentLen := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunk := strings.TrimSpace(strings.Join(current, sep))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		// Keep the tail pieces as overlap for the next chunk.
		var kept []string
		keptLen := 0
		for i := len(current) - 1; i >= 0; i-- {
			pieceLen := utf8.RuneCountInString(current[i])
			if keptLen+pieceLen+sepLen > overlap {
				break
			}
			kept = append([]string{current[i]}, kept...)
			keptLen += pieceLen + sepLen
		}
		current = kept
		currentLen = keptLen
	}

	for _, piece := range pieces {
		pieceLen := utf8.RuneCountInString(piece)
		if currentLen+pieceLen+sepLen > chunkSize && len(current) > 0 {
			flush()
		}
		current = append(current, piece)
		currentLen += pieceLen + sepLen
	}
	if len(current) > 0 {
		chunk := strings.TrimSpace(strings.Join(current, sep))
		if chunk != "" && (len(chunks) == 0 || chunk != chunks[len(chunks)-1]) {
			chunks = append(chunks, chunk)
		}
	}

	return chunks
}

// SplitIntoChunks splits text into a fixed overlapping rune window. Used as
// the last-resort splitter when no separator matches.
func SplitIntoChunks(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	step := chunkSize - overlap
	for i := 0; i < len(runes); i += step {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// CosineSimilarity computes the cosine similarity of two vectors in [-1, 1].
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// HashString returns the hex SHA-256 of s.
func HashString(s string) string {
	hash := sha256.Sum256([]byte(s))
	return hex.EncodeToString(hash[:])
}

// TruncateString truncates s to at most maxLen Unicode characters.
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen])
}
