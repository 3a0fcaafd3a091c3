package codec

import (
	"bytes"
	"strconv"

	"github.com/yanun0323/errors"

	"main/internal/schema"
)

// AppendSentiment appends the score as ASCII decimal digits.
func AppendSentiment(dst []byte, score int) []byte {
	return strconv.AppendInt(dst, int64(score), 10)
}

// ParseSentiment parses an ASCII decimal score and enforces the
// published range.
func ParseSentiment(src []byte) (int, error) {
	score, err := strconv.Atoi(string(bytes.TrimSpace(src)))
	if err != nil {
		return 0, errors.Wrap(err, "parse sentiment")
	}
	if score < schema.SentimentMin || score > schema.SentimentMax {
		return 0, errors.Errorf("sentiment out of range: %d", score)
	}
	return score, nil
}
