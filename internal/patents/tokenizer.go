package patents

import "math"

// stopWords are dropped from every free-text section.
var stopWords = map[string]struct{}{
	"an": {}, "by": {}, "if": {}, "is": {}, "no": {}, "of": {}, "on": {}, "to": {},
	"and": {}, "are": {}, "for": {}, "not": {}, "the": {}, "was": {},
	"into": {}, "such": {}, "that": {}, "then": {}, "they": {}, "this": {}, "will": {},
	"their": {}, "there": {}, "these": {},
}

func isWordChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_'
}

func toLower(ch byte) byte {
	if ch >= 'A' && ch <= 'Z' {
		return ch + ('a' - 'A')
	}
	return ch
}

// ExtractTokens splits text into lowercased tokens. A token is a run of
// [A-Za-z0-9_]; a '.' continues a token in progress only when the next
// byte is a word character. Single-character tokens, plain numbers with at
// most one period, and stop words are dropped.
func ExtractTokens(text string) []string {
	var tokens []string
	block := make([]byte, 0, 64)

	flush := func() {
		if len(block) > 1 && len(block) <= math.MaxUint16 {
			token := string(block)
			if !isForbidden(token) {
				tokens = append(tokens, token)
			}
		}
		block = block[:0]
	}

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if isWordChar(ch) || (len(block) > 0 && ch == '.' && i+1 < len(text) && isWordChar(text[i+1])) {
			block = append(block, toLower(ch))
			continue
		}
		flush()
	}
	flush()
	return tokens
}

// CountTokens tokenizes text and collapses duplicates into counts,
// saturating at the uint16 limit of the record format.
func CountTokens(text string) map[string]uint16 {
	counts := make(map[string]uint16)
	for _, token := range ExtractTokens(text) {
		if counts[token] < math.MaxUint16 {
			counts[token]++
		}
	}
	return counts
}

func isForbidden(token string) bool {
	numeric := true
	periods := 0
	for i := 0; i < len(token); i++ {
		switch ch := token[i]; {
		case ch == '.':
			periods++
		case ch < '0' || ch > '9':
			numeric = false
		}
		if !numeric {
			break
		}
	}
	if numeric && periods < 2 {
		return true
	}
	_, stop := stopWords[token]
	return stop
}
