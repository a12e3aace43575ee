// Package relevance derives candidate seed paths from free-text requests.
package relevance

import (
	"context"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/stellarlink/repochat/internal/repo"
)

const (
	maxKeywords = 3
	maxSeeds    = 5

	searchTimeout = 10 * time.Second
)

// structureNouns is the fixed vocabulary of code-structure nouns. An
// identifier adjacent to one of these in the request is a likely code symbol.
var structureNouns = map[string]bool{
	"bug":       true,
	"page":      true,
	"component": true,
	"button":    true,
	"form":      true,
	"modal":     true,
	"screen":    true,
	"view":      true,
	"function":  true,
	"class":     true,
	"module":    true,
	"endpoint":  true,
	"route":     true,
	"handler":   true,
	"test":      true,
	"error":     true,
	"feature":   true,
}

var (
	filenamePattern  = regexp.MustCompile(`[A-Za-z0-9_][A-Za-z0-9_./-]*\.(?:tsx?|jsx?|css|scss|json|md|html|ya?ml)\b`)
	camelCasePattern = regexp.MustCompile(`\b[A-Z][a-z0-9]*(?:[A-Z][a-z0-9]*)+\b`)
	wordPattern      = regexp.MustCompile(`[A-Za-z0-9_.]+`)
)

// Selector turns request text into a small seed set of repository paths.
type Selector struct {
	accessor repo.Accessor
}

// New creates a selector searching through the given accessor.
func New(accessor repo.Accessor) *Selector {
	return &Selector{accessor: accessor}
}

// SelectSeeds extracts up to three keywords from the request, searches the
// repository for each concurrently and returns the deduplicated union of
// matching paths, capped at five. A failing search contributes an empty
// result instead of aborting the others; no keywords yields an empty set.
func (s *Selector) SelectSeeds(ctx context.Context, requestText string) []string {
	keywords := ExtractKeywords(requestText)
	if len(keywords) == 0 {
		return nil
	}

	results := make([][]string, len(keywords))
	var wg sync.WaitGroup

	for i, kw := range keywords {
		wg.Add(1)
		go func(i int, kw string) {
			defer wg.Done()

			searchCtx, cancel := context.WithTimeout(ctx, searchTimeout)
			defer cancel()

			paths, err := s.accessor.Search(searchCtx, kw)
			if err != nil {
				log.Printf("[Relevance] Search for %q failed: %v", kw, err)
				return
			}
			results[i] = paths
		}(i, kw)
	}
	wg.Wait()

	seen := make(map[string]bool)
	var seeds []string
	for _, paths := range results {
		for _, p := range paths {
			if seen[p] {
				continue
			}
			seen[p] = true
			seeds = append(seeds, p)
			if len(seeds) == maxSeeds {
				return seeds
			}
		}
	}

	return seeds
}

// ExtractKeywords derives up to three deduplicated keyword candidates using
// three independent lexical extractors: identifiers adjacent to
// code-structure nouns, filenames with a known extension, and multi-word
// capitalized identifiers.
func ExtractKeywords(text string) []string {
	seen := make(map[string]bool)
	var keywords []string

	add := func(kw string) {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[kw] || len(keywords) >= maxKeywords {
			return
		}
		seen[kw] = true
		keywords = append(keywords, kw)
	}

	for _, kw := range nounAdjacentIdentifiers(text) {
		add(kw)
	}
	for _, kw := range filenamePattern.FindAllString(text, -1) {
		add(kw)
	}
	for _, kw := range camelCasePattern.FindAllString(text, -1) {
		add(kw)
	}

	return keywords
}

// nounAdjacentIdentifiers finds identifier-looking words immediately before
// or after a structure noun.
func nounAdjacentIdentifiers(text string) []string {
	words := wordPattern.FindAllString(text, -1)

	var out []string
	for i, w := range words {
		if !structureNouns[strings.ToLower(w)] {
			continue
		}
		if i > 0 && looksLikeIdentifier(words[i-1]) {
			out = append(out, words[i-1])
		}
		if i+1 < len(words) && looksLikeIdentifier(words[i+1]) {
			out = append(out, words[i+1])
		}
	}

	return out
}

// looksLikeIdentifier reports whether a word resembles a code symbol rather
// than prose: capitalized, snake_case or dotted.
func looksLikeIdentifier(w string) bool {
	if len(w) < 2 {
		return false
	}
	if structureNouns[strings.ToLower(w)] {
		return false
	}
	if w[0] >= 'A' && w[0] <= 'Z' {
		return true
	}
	return strings.ContainsAny(w, "_.")
}
