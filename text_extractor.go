package capture

import (
	"context"
	"image"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// tokenPairPattern keeps two adjacent alphanumeric tokens of at least three
// characters each. Single short tokens are OCR noise on camera captures.
// The separator covers unicode whitespace, word boundaries are checked in
// FilterExtractedText because RE2's \b only knows ASCII word characters.
var (
	tokenPairPattern = regexp.MustCompile(`[a-zA-Z0-9]{3,}[\s\v\x{1c}-\x{1f}\x{85}\p{Z}]+[a-zA-Z0-9]{3,}`)
	tokenPattern     = regexp.MustCompile(`[a-zA-Z0-9]+`)
)

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// FilterExtractedText reduces raw OCR output to the token pairs it contains,
// joined by single spaces. It returns "" when no pair qualifies. A pair glued
// to another word character, eg "éABC DEF" or "ABC DEF_", does not qualify.
func FilterExtractedText(text string) string {
	var words []string
	for pos := 0; pos < len(text); {
		loc := tokenPairPattern.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if (start > 0 && isWordRune(before)) || (end < len(text) && isWordRune(after)) {
			_, size := utf8.DecodeRuneInString(text[start:])
			pos = start + size
			continue
		}
		words = append(words, tokenPattern.FindAllString(text[start:end], -1)...)
		pos = end
	}
	return strings.Join(words, " ")
}

// TextExtractor runs OCR over a preprocessed image and filters the result.
type TextExtractor struct {
	engine       OcrEngine
	engineConfig EngineConfig
}

func NewTextExtractor(engine OcrEngine, engineConfig EngineConfig) *TextExtractor {
	return &TextExtractor{engine: engine, engineConfig: engineConfig}
}

func (x *TextExtractor) Extract(ctx context.Context, img *image.Gray) (string, error) {
	if img == nil || img.Bounds().Empty() {
		return "", errors.New("empty image buffer")
	}
	raw, err := x.engine.Recognize(ctx, img, x.engineConfig)
	if err != nil {
		return "", err
	}
	return FilterExtractedText(strings.TrimSpace(raw)), nil
}
