package modelmgmt

import (
	"context"
	"sync"

	"github.com/ollm-cli/ollm/internal/provider"
)

// fakeAdapter is a deterministic, in-memory provider.Adapter for tests.
type fakeAdapter struct {
	mu sync.Mutex

	models       []provider.ModelInfo
	listErr      error
	pullErr      error
	deleteErr    error
	showErr      error
	keepAliveErr error
	unloadErr    error

	keepAliveCalls int
	unloadCalls    int
	deleteCalls    []string
}

func (f *fakeAdapter) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]provider.ModelInfo(nil), f.models...), nil
}

func (f *fakeAdapter) PullModel(ctx context.Context, name string, onProgress func(provider.ProgressUpdate)) error {
	if f.pullErr != nil {
		return f.pullErr
	}
	if onProgress != nil {
		onProgress(provider.ProgressUpdate{Status: "success", Completed: 1, Total: 1})
	}
	f.mu.Lock()
	f.models = append(f.models, provider.ModelInfo{Name: name})
	f.mu.Unlock()
	return nil
}

func (f *fakeAdapter) DeleteModel(ctx context.Context, name string) error {
	f.mu.Lock()
	f.deleteCalls = append(f.deleteCalls, name)
	f.mu.Unlock()
	return f.deleteErr
}

func (f *fakeAdapter) ShowModel(ctx context.Context, name string) (provider.ModelInfo, error) {
	if f.showErr != nil {
		return provider.ModelInfo{}, f.showErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.models {
		if m.Name == name {
			return m, nil
		}
	}
	return provider.ModelInfo{}, nil
}

func (f *fakeAdapter) KeepAlive(ctx context.Context, name string) error {
	f.mu.Lock()
	f.keepAliveCalls++
	f.mu.Unlock()
	return f.keepAliveErr
}

func (f *fakeAdapter) Unload(ctx context.Context, name string) error {
	f.mu.Lock()
	f.unloadCalls++
	f.mu.Unlock()
	return f.unloadErr
}

var _ provider.Adapter = (*fakeAdapter)(nil)
