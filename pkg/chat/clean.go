package chat

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// Parenthetical fragments that look like citations, e.g.
	// "(see Chunk 2)" or "(Source: guide.pdf, page 3)".
	citationPattern = regexp.MustCompile(`\s*\([^)]*(?i:source|page|file|section|chunk|see)\b[^)]*\)`)

	whitespacePattern      = regexp.MustCompile(`\s+`)
	spaceBeforePunctuation = regexp.MustCompile(`\s+([.!?,;:])`)
)

// CleanAnswer normalizes a generated answer: citation-style parentheticals
// are dropped, whitespace runs collapse to single spaces, stray spaces before
// punctuation are removed, the text is guaranteed to end with a sentence
// terminator, and each sentence starts with a capital letter.
func CleanAnswer(answer string) string {
	answer = citationPattern.ReplaceAllString(answer, "")
	answer = whitespacePattern.ReplaceAllString(answer, " ")
	answer = spaceBeforePunctuation.ReplaceAllString(answer, "$1")
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return ""
	}

	if !strings.ContainsRune(".!?", rune(answer[len(answer)-1])) {
		answer += "."
	}
	return capitalizeSentences(answer)
}

func capitalizeSentences(text string) string {
	runes := []rune(text)
	atSentenceStart := true
	for i, r := range runes {
		switch {
		case atSentenceStart && unicode.IsLetter(r):
			runes[i] = unicode.ToUpper(r)
			atSentenceStart = false
		case r == '.' || r == '!' || r == '?':
			atSentenceStart = true
		case !unicode.IsSpace(r):
			atSentenceStart = false
		}
	}
	return string(runes)
}
