package postprocess

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRun    = regexp.MustCompile(`\s+`)
	spaceBeforeStop  = regexp.MustCompile(`\s+([.!?])`)
	letterAfterStop  = regexp.MustCompile(`([.!?])\s*(\p{L})`)
	sentenceEndRunes = ".!?"
)

// Options control which postprocessing steps run.
type Options struct {
	AddPunctuation bool
	Capitalize     bool
}

// DefaultOptions enables every step.
func DefaultOptions() Options {
	return Options{AddPunctuation: true, Capitalize: true}
}

// Clean collapses whitespace, strips decoding artifacts, and canonicalizes
// Vietnamese diacritics to NFC so visually identical text compares equal.
func Clean(text string) string {
	text = norm.NFC.String(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) ||
			r == '_' || strings.ContainsRune(".,!?;:()-", r) {
			b.WriteRune(r)
		}
	}

	// Collapse whitespace after stripping so removed characters do not leave
	// double spaces behind.
	text = whitespaceRun.ReplaceAllString(b.String(), " ")
	return strings.TrimSpace(text)
}

// AddPunctuation ensures the text ends with a sentence stop and fixes spacing
// around existing stops: no space before, exactly one space after when more
// text follows.
func AddPunctuation(text string) string {
	if text == "" {
		return text
	}
	runes := []rune(text)
	if !strings.ContainsRune(sentenceEndRunes, runes[len(runes)-1]) {
		text += "."
	}
	text = spaceBeforeStop.ReplaceAllString(text, "$1")
	text = letterAfterStop.ReplaceAllString(text, "$1 $2")
	return text
}

// CapitalizeSentences upper-cases the first letter of the text and of every
// sentence that follows a stop. Spacing is preserved.
func CapitalizeSentences(text string) string {
	runes := []rune(text)
	capitalizeNext := true
	for i, r := range runes {
		switch {
		case strings.ContainsRune(sentenceEndRunes, r):
			capitalizeNext = true
		case unicode.IsSpace(r):
			// Carry the flag across whitespace.
		case capitalizeNext && unicode.IsLetter(r):
			runes[i] = unicode.ToUpper(r)
			capitalizeNext = false
		default:
			capitalizeNext = false
		}
	}
	return string(runes)
}

// Process runs the full postprocessing pipeline with the given options. The
// result is stable: processing already-processed text returns it unchanged.
func Process(text string, opts Options) string {
	text = Clean(text)
	if text == "" {
		return text
	}
	if opts.AddPunctuation {
		text = AddPunctuation(text)
	}
	if opts.Capitalize {
		text = CapitalizeSentences(text)
	}
	return text
}
