// Package lex implements the lexical normalization shared by brand search and
// registrant owner matching. Every function here is pure and deterministic:
// the same input always folds to the same token space, so both matching paths
// agree on what "looks like" a brand.
package lex

import (
	"errors"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"

	"github.com/mailcred/mailcred/internal/core"
)

// foldTable maps visually confusable characters onto their letter
// counterparts so obfuscated labels ("g00gle", "b4nco") land on the same
// n-grams as the legitimate spelling.
var foldTable = map[rune]rune{
	'0': 'o',
	'1': 'i',
	'3': 'e',
	'4': 'a',
	'5': 's',
	'7': 't',
	'8': 'b',
}

// NGramWindows are the fixed n-gram sizes used by fuzzy matching.
var NGramWindows = []int{2, 3, 4}

// Normalize converts a raw hostname into its canonical Domain form:
// lowercased, trailing dot stripped, IDN labels converted to their
// ASCII-compatible encoding. Idempotent: Normalize(Normalize(h).Normalized)
// yields the same Domain.
func Normalize(host string) (core.Domain, error) {
	raw := host
	value := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	if value == "" {
		return core.Domain{}, errors.New("domain is required")
	}

	ascii, err := idna.Lookup.ToASCII(value)
	if err != nil {
		// Already-punycoded or oddly formed labels still normalize by
		// lowercase; reject only hosts with no usable labels.
		ascii = value
	}

	parts := strings.Split(ascii, ".")
	if len(parts) < 2 {
		return core.Domain{}, errors.New("domain must include a tld")
	}
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			return core.Domain{}, errors.New("domain has an empty label")
		}
	}

	// Split on the public suffix, not the last label: "santander.co.uk"
	// has base "santander" and tld "co.uk". Hosts that are themselves a
	// public suffix have no registrable name and are rejected.
	suffix, _ := publicsuffix.PublicSuffix(ascii)
	registrable, err := publicsuffix.EffectiveTLDPlusOne(ascii)
	if err != nil {
		return core.Domain{}, errors.New("domain must include a registrable name")
	}

	return core.Domain{
		Raw:        raw,
		Normalized: ascii,
		Base:       strings.TrimSuffix(registrable, "."+suffix),
		TLD:        suffix,
		Category:   core.TLDCategoryGeneric,
	}, nil
}

// Fold applies the visual-normalization table and removes hyphens.
// "g00gle" and "google" fold to the same string.
func Fold(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if r == '-' {
			continue
		}
		if folded, ok := foldTable[r]; ok {
			r = folded
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Tokenize splits a label on non-alphanumeric separators and lowercases the
// parts. Empty tokens are dropped.
func Tokenize(label string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(label), func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= '0' && r <= '9':
			return false
		default:
			return true
		}
	})
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// NGrams returns the contiguous substrings of length n over the folded text.
// Inputs shorter than n yield the whole input as a single gram so very short
// labels still participate in matching.
func NGrams(text string, n int) []string {
	runes := []rune(text)
	if len(runes) == 0 || n <= 0 {
		return nil
	}
	if len(runes) <= n {
		return []string{string(runes)}
	}
	grams := make([]string, 0, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+n]))
	}
	return grams
}

// GramSet returns the n-grams of the folded text as a presence set. Matching
// is boolean: a gram either appears or it does not, frequency is ignored.
func GramSet(text string, n int) map[string]struct{} {
	grams := NGrams(text, n)
	set := make(map[string]struct{}, len(grams))
	for _, g := range grams {
		set[g] = struct{}{}
	}
	return set
}

// SearchKey strips the public suffix, tokenizes the remaining labels, drops
// omit words, and folds the result into the query string fed to fuzzy brand
// search. "emailing.b4ncosntand3r-mail.eus" with omit words {emailing, mail}
// becomes "bancosntander" (folded).
func SearchKey(d core.Domain, omit map[string]struct{}) string {
	name := d.Normalized
	if d.TLD != "" && strings.HasSuffix(name, "."+d.TLD) {
		name = strings.TrimSuffix(name, "."+d.TLD)
	}
	labels := strings.Split(name, ".")

	var kept []string
	for _, label := range labels {
		if label == "www" {
			continue
		}
		for _, token := range Tokenize(label) {
			if _, skip := omit[token]; skip {
				continue
			}
			kept = append(kept, token)
		}
	}

	// Everything filtered out: fall back to the base label so there is
	// always something to search for.
	if len(kept) == 0 {
		return Fold(d.Base)
	}
	return Fold(strings.Join(kept, ""))
}

// OwnerKey normalizes a registrant owner string into the same folded token
// space used for domains, so owner matching shares one matching semantic with
// brand search.
func OwnerKey(owner string) string {
	return Fold(strings.Join(Tokenize(owner), ""))
}
