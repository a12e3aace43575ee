package loader

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/stellarlink/repochat/internal/repo"
)

// fileMapAccessor returns a mock accessor serving the given path→content map.
func fileMapAccessor(files map[string]string) *repo.MockAccessor {
	return &repo.MockAccessor{
		GetFileFunc: func(ctx context.Context, path, branch string) (*repo.FileRecord, error) {
			content, ok := files[path]
			if !ok {
				return nil, repo.ErrNotFound
			}
			return &repo.FileRecord{Path: path, Content: content, RevisionID: "rev-" + path}, nil
		},
	}
}

func loadedPaths(lc *LoadedContext) []string {
	var paths []string
	for _, f := range lc.Files {
		paths = append(paths, f.Path)
	}
	sort.Strings(paths)
	return paths
}

func TestLoadCycleFetchesEachFileOnce(t *testing.T) {
	mock := fileMapAccessor(map[string]string{
		"src/a.ts": `import { b } from "./b"`,
		"src/b.ts": `import { a } from "./a"`,
	})

	lc := New(mock, "main").Load(context.Background(), []string{"src/a.ts"}, 3)

	want := []string{"src/a.ts", "src/b.ts"}
	if got := loadedPaths(lc); !equalStrings(got, want) {
		t.Fatalf("loaded paths = %v, want %v", got, want)
	}

	if n := mock.FetchCount("src/a.ts"); n != 1 {
		t.Errorf("src/a.ts fetched %d times, want 1", n)
	}
	if n := mock.FetchCount("src/b.ts"); n != 1 {
		t.Errorf("src/b.ts fetched %d times, want 1", n)
	}
}

func TestLoadDepthBound(t *testing.T) {
	mock := fileMapAccessor(map[string]string{
		"src/a.ts": `import { b } from "./b"`,
		"src/b.ts": `import { c } from "./c"`,
		"src/c.ts": `export const c = 1`,
	})

	lc := New(mock, "main").Load(context.Background(), []string{"src/a.ts"}, 1)

	want := []string{"src/a.ts", "src/b.ts"}
	if got := loadedPaths(lc); !equalStrings(got, want) {
		t.Fatalf("loaded paths = %v, want %v", got, want)
	}

	// The file at the depth bound must not have its imports expanded.
	if n := mock.FetchCount("src/c.ts"); n != 0 {
		t.Errorf("src/c.ts fetched %d times, want 0", n)
	}
}

func TestLoadCandidateProbing(t *testing.T) {
	tests := []struct {
		name string
		file string // actual file existing in the repo
	}{
		{"literal path", "src/pricing"},
		{"ts suffix", "src/pricing.ts"},
		{"tsx suffix", "src/pricing.tsx"},
		{"directory index", "src/pricing/index.ts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := fileMapAccessor(map[string]string{
				"src/checkout.ts": `import { price } from "./pricing"`,
				tt.file:           `export const price = 1`,
			})

			lc := New(mock, "main").Load(context.Background(), []string{"src/checkout.ts"}, 2)

			want := []string{"src/checkout.ts", tt.file}
			if got := loadedPaths(lc); !equalStrings(got, want) {
				t.Fatalf("loaded paths = %v, want %v", got, want)
			}
		})
	}
}

func TestLoadSeedEndToEnd(t *testing.T) {
	mock := fileMapAccessor(map[string]string{
		"src/checkout.ts": `import { price } from "./pricing"`,
		"src/pricing.ts":  `import { round } from "./round"`,
		"src/round.ts":    `import { deep } from "./deep"`,
		"src/deep.ts":     `export const deep = 1`,
	})

	lc := New(mock, "main").Load(context.Background(), []string{"src/checkout.ts"}, 2)

	// Depth 0 seed, depth 1 pricing, depth 2 round; nothing deeper.
	want := []string{"src/checkout.ts", "src/pricing.ts", "src/round.ts"}
	if got := loadedPaths(lc); !equalStrings(got, want) {
		t.Fatalf("loaded paths = %v, want %v", got, want)
	}
}

func TestLoadFailureIsolation(t *testing.T) {
	mock := fileMapAccessor(map[string]string{
		"src/a.ts": `import { b } from "./b"
import { c } from "./c"`,
		"src/c.ts": `export const c = 1`,
	})
	inner := mock.GetFileFunc
	mock.GetFileFunc = func(ctx context.Context, path, branch string) (*repo.FileRecord, error) {
		if strings.HasPrefix(path, "src/b") {
			return nil, errors.New("remote unavailable")
		}
		return inner(ctx, path, branch)
	}

	lc := New(mock, "main").Load(context.Background(), []string{"src/a.ts"}, 2)

	// The failing branch is skipped; its sibling still loads.
	want := []string{"src/a.ts", "src/c.ts"}
	if got := loadedPaths(lc); !equalStrings(got, want) {
		t.Fatalf("loaded paths = %v, want %v", got, want)
	}
}

func TestLoadEmptySeeds(t *testing.T) {
	mock := fileMapAccessor(nil)
	mock.GetTreeFunc = func(ctx context.Context, branch string) ([]repo.TreeEntry, error) {
		return []repo.TreeEntry{
			{Path: "src", Type: "tree"},
			{Path: "src/app.ts", Type: "blob"},
		}, nil
	}

	lc := New(mock, "main").Load(context.Background(), nil, 2)

	if len(lc.Files) != 0 {
		t.Errorf("expected no files, got %d", len(lc.Files))
	}
	if !strings.Contains(lc.TreeRendering, "src/") {
		t.Errorf("tree rendering missing directory entry: %q", lc.TreeRendering)
	}
}

func TestLoadTreeFetchFailureDegrades(t *testing.T) {
	mock := fileMapAccessor(map[string]string{"src/a.ts": "export {}"})
	mock.GetTreeFunc = func(ctx context.Context, branch string) ([]repo.TreeEntry, error) {
		return nil, errors.New("remote unavailable")
	}

	lc := New(mock, "main").Load(context.Background(), []string{"src/a.ts"}, 1)

	if lc.TreeRendering != "" {
		t.Errorf("expected empty tree rendering, got %q", lc.TreeRendering)
	}
	if got := loadedPaths(lc); !equalStrings(got, []string{"src/a.ts"}) {
		t.Errorf("loaded paths = %v, want [src/a.ts]", got)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
