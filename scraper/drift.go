package scraper

import (
	"hash/fnv"
	"math/bits"
	"strings"

	"golang.org/x/net/html"
)

// driftThreshold is the Hamming distance above which two listing layouts are
// reported as different.
const driftThreshold = 12

// LayoutSignature is a 64-bit SimHash of a page's element structure: tag
// names joined with their classes, in document order, shingled in threes.
// Text, scripts and styles do not contribute, so the signature moves when
// the template changes but not when the listing's data does.
func LayoutSignature(doc string) uint64 {
	tokens := layoutTokens(doc)
	if len(tokens) == 0 {
		return 0
	}
	const n = 3
	if len(tokens) < n {
		return simhash([]string{strings.Join(tokens, "_")})
	}
	shingles := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		shingles = append(shingles, strings.Join(tokens[i:i+n], "_"))
	}
	return simhash(shingles)
}

// LayoutDistance returns the Hamming distance between two signatures.
func LayoutDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// LayoutDrifted reports whether b differs from baseline a beyond the
// threshold. A zero baseline never drifts.
func LayoutDrifted(a, b uint64) bool {
	return a != 0 && LayoutDistance(a, b) > driftThreshold
}

func layoutTokens(doc string) []string {
	z := html.NewTokenizer(strings.NewReader(doc))
	var tokens []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			return tokens
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			// The tokenizer already treats script and style bodies as text.
			switch tag := string(name); tag {
			case "script", "style", "link", "meta":
			default:
				tokens = append(tokens, tag+classSuffix(z, hasAttr))
			}
		}
	}
}

// classSuffix returns the element's classes as ".a.b", or "" without any.
func classSuffix(z *html.Tokenizer, more bool) string {
	for more {
		var key, val []byte
		key, val, more = z.TagAttr()
		if string(key) == "class" {
			fields := strings.Fields(string(val))
			if len(fields) == 0 {
				return ""
			}
			return "." + strings.Join(fields, ".")
		}
	}
	return ""
}

func simhash(features []string) uint64 {
	var vector [64]int
	for _, f := range features {
		h := fnv.New64a()
		h.Write([]byte(f))
		sum := h.Sum64()
		for i := 0; i < 64; i++ {
			if sum&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}
	var fp uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}
