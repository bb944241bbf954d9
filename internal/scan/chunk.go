package scan

import (
	"fmt"

	"piiscan/internal/models"
)

// Split cuts text into overlapping fixed-size windows. Consecutive chunks
// overlap by exactly overlap characters and their union covers the whole
// text with no gap; the final chunk may be shorter. A text no longer than
// size yields exactly one chunk equal to the text. Sizes are measured in
// runes so a window never cuts a UTF-8 sequence.
func Split(text string, size, overlap int) ([]models.Chunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("overlap %d must be in [0, %d)", overlap, size)
	}

	runes := []rune(text)
	step := size - overlap

	var chunks []models.Chunk
	for start := 0; ; start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, models.Chunk{
			Index:  len(chunks),
			Offset: start,
			Text:   string(runes[start:end]),
		})
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}
