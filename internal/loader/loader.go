package loader

import (
	"context"
	"log"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/stellarlink/repochat/internal/repo"
)

const defaultFetchTimeout = 15 * time.Second

// Candidate spellings tried for an unresolved reference, in priority order
// after the literal path. The first spelling that resolves to an existing
// file wins.
var (
	sourceSuffixes = []string{".ts", ".tsx", ".js", ".jsx"}
	indexSpellings = []string{"/index.ts", "/index.tsx", "/index.js"}
)

// LoadedContext is the assembled context for one turn: the rendered
// repository tree plus every loaded file in discovery order, deduplicated
// by resolved path.
type LoadedContext struct {
	TreeRendering string
	Files         []repo.FileRecord
}

// Loader performs bounded-depth expansion over the import graph.
type Loader struct {
	accessor     repo.Accessor
	branch       string
	fetchTimeout time.Duration
}

// New creates a loader reading from the given branch.
func New(accessor repo.Accessor, branch string) *Loader {
	return &Loader{
		accessor:     accessor,
		branch:       branch,
		fetchTimeout: defaultFetchTimeout,
	}
}

// Load fetches the seed paths and their transitive local imports up to
// maxDepth. Sibling fetches run concurrently; a path is fetched at most once
// regardless of how many reference edges reach it. Individual failures are
// treated as file-not-found and never abort sibling work, so Load always
// returns a usable context. Files appear in fetch-completion order.
func (l *Loader) Load(ctx context.Context, seeds []string, maxDepth int) *LoadedContext {
	t := &traversal{
		loader:   l,
		ctx:      ctx,
		maxDepth: maxDepth,
		visited:  make(map[string]bool),
	}

	// The authoritative tree is a separate fetch, concurrent with expansion.
	treeCh := make(chan string, 1)
	go func() {
		entries, err := l.accessor.GetTree(ctx, l.branch)
		if err != nil {
			log.Printf("[Loader] Tree fetch failed, rendering empty tree: %v", err)
			treeCh <- ""
			return
		}
		treeCh <- RenderTree(BuildTree(entries))
	}()

	for _, seed := range seeds {
		if p, ok := normalizePath(seed); ok {
			t.schedule(p, 0)
		}
	}
	t.wg.Wait()

	return &LoadedContext{
		TreeRendering: <-treeCh,
		Files:         t.files,
	}
}

// traversal holds the state of one Load call. The visited set is shared
// across every concurrent branch; a path is claimed under the lock before
// any fetch so two branches discovering it simultaneously cannot both
// fetch it.
type traversal struct {
	loader   *Loader
	ctx      context.Context
	maxDepth int

	mu      sync.Mutex
	visited map[string]bool
	files   []repo.FileRecord

	wg sync.WaitGroup
}

// claim marks a path as visited, returning false if it already was.
func (t *traversal) claim(path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.visited[path] {
		return false
	}
	t.visited[path] = true
	return true
}

// schedule starts loading a path at the given depth unless it was already
// claimed by another branch.
func (t *traversal) schedule(path string, depth int) {
	if !t.claim(path) {
		return
	}

	t.wg.Add(1)
	go t.loadPath(path, depth)
}

func (t *traversal) loadPath(path string, depth int) {
	defer t.wg.Done()

	rec, ok := t.resolve(path)
	if !ok {
		return
	}

	t.mu.Lock()
	t.files = append(t.files, *rec)
	t.mu.Unlock()

	// A file loaded at the depth bound has its references ignored entirely.
	if depth >= t.maxDepth {
		return
	}

	for _, ref := range ExtractReferences(rec.Content, rec.Path) {
		t.schedule(ref, depth+1)
	}
}

// resolve probes the candidate spellings of an unresolved path in priority
// order and returns the first that fetches successfully. Every probed
// spelling is claimed so no other branch re-fetches it; any fetch error is
// treated as not-found.
func (t *traversal) resolve(p string) (*repo.FileRecord, bool) {
	for _, candidate := range candidatePaths(p) {
		if candidate != p && !t.claim(candidate) {
			continue
		}

		fetchCtx, cancel := context.WithTimeout(t.ctx, t.loader.fetchTimeout)
		rec, err := t.loader.accessor.GetFile(fetchCtx, candidate, t.loader.branch)
		cancel()
		if err != nil {
			continue
		}

		return rec, true
	}

	return nil, false
}

// candidatePaths returns the literal path, the source-extension suffixes and
// the directory-index spellings, in priority order.
func candidatePaths(p string) []string {
	out := make([]string, 0, 1+len(sourceSuffixes)+len(indexSpellings))
	out = append(out, p)
	for _, s := range sourceSuffixes {
		out = append(out, p+s)
	}
	for _, s := range indexSpellings {
		out = append(out, p+s)
	}
	return out
}

// normalizePath cleans a seed path into repository-root-relative form.
// Paths escaping the root are rejected.
func normalizePath(p string) (string, bool) {
	cleaned := path.Clean(strings.TrimPrefix(strings.TrimSpace(p), "/"))
	if cleaned == "." || cleaned == "" || strings.HasPrefix(cleaned, "..") {
		return "", false
	}
	return cleaned, true
}
