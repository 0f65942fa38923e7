package keys

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/hazard-query/internal/core/model"
)

const prefix = "hazard:feed"

// FeedKey names the cached body of one resolved feed request. The readable
// segments are for operators; the hash over path and encoded params is what
// makes the key unique.
func FeedKey(fr model.FeedRequest) string {
	path := strings.TrimLeft(strings.TrimSpace(fr.Path), "/")
	query := fr.Params.Encode() // sorted by key

	sum := xxhash.Sum64String(path + "?" + query)

	return fmt.Sprintf("%s:%s:%s:f=%016x", prefix, sanitize(fr.Feed), sanitize(path), sum)
}

func sanitize(s string) string {
	if s == "" {
		return "-"
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == '_' || r == '-' || r == '.':
			out = r
		default:
			// includes ':' so segments stay unambiguous
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r < unicode.MaxASCII && unicode.IsDigit(r))
}
