package repo

import (
	"context"
	"sync"
)

// MockAccessor is a mock Accessor implementation for testing.
// Call records are guarded by a mutex because the context loader and the
// relevance selector invoke the accessor from multiple goroutines.
type MockAccessor struct {
	GetTreeFunc   func(ctx context.Context, branch string) ([]TreeEntry, error)
	GetFileFunc   func(ctx context.Context, path, branch string) (*FileRecord, error)
	WriteFileFunc func(ctx context.Context, path, content, message, branch, expectedRevision string) error
	SearchFunc    func(ctx context.Context, term string) ([]string, error)

	mu sync.Mutex

	// Track calls
	GetTreeCalls []string
	GetFileCalls []string
	WriteCalls   []WriteCall
	SearchCalls  []string
}

// WriteCall records one WriteFile invocation.
type WriteCall struct {
	Path             string
	Content          string
	Message          string
	Branch           string
	ExpectedRevision string
}

func (m *MockAccessor) GetTree(ctx context.Context, branch string) ([]TreeEntry, error) {
	m.mu.Lock()
	m.GetTreeCalls = append(m.GetTreeCalls, branch)
	m.mu.Unlock()

	if m.GetTreeFunc != nil {
		return m.GetTreeFunc(ctx, branch)
	}
	return nil, nil
}

func (m *MockAccessor) GetFile(ctx context.Context, path, branch string) (*FileRecord, error) {
	m.mu.Lock()
	m.GetFileCalls = append(m.GetFileCalls, path)
	m.mu.Unlock()

	if m.GetFileFunc != nil {
		return m.GetFileFunc(ctx, path, branch)
	}
	return nil, ErrNotFound
}

func (m *MockAccessor) WriteFile(ctx context.Context, path, content, message, branch, expectedRevision string) error {
	m.mu.Lock()
	m.WriteCalls = append(m.WriteCalls, WriteCall{
		Path:             path,
		Content:          content,
		Message:          message,
		Branch:           branch,
		ExpectedRevision: expectedRevision,
	})
	m.mu.Unlock()

	if m.WriteFileFunc != nil {
		return m.WriteFileFunc(ctx, path, content, message, branch, expectedRevision)
	}
	return nil
}

func (m *MockAccessor) Search(ctx context.Context, term string) ([]string, error) {
	m.mu.Lock()
	m.SearchCalls = append(m.SearchCalls, term)
	m.mu.Unlock()

	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, term)
	}
	return nil, nil
}

// FetchCount returns how many times a path was fetched via GetFile.
func (m *MockAccessor) FetchCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, p := range m.GetFileCalls {
		if p == path {
			n++
		}
	}
	return n
}
