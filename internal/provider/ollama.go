package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/ollm-cli/ollm/internal/ollmerr"
)

// keepAliveDuration is how long a keep-alive Generate call asks the
// daemon to hold the model resident; the model management service's own
// timer (not this duration) governs when the next ping fires.
const keepAliveDuration = 10 * time.Minute

// OllamaAdapter is the concrete Adapter backed by a local Ollama daemon.
type OllamaAdapter struct {
	client *api.Client
}

// NewOllamaAdapter builds an adapter talking to the daemon at hostURL
// (e.g. "http://localhost:11434"). An invalid hostURL falls back to that
// default, matching the teacher's defensive parsing.
func NewOllamaAdapter(hostURL string) *OllamaAdapter {
	parsed, err := url.Parse(hostURL)
	if err != nil || parsed.Host == "" {
		parsed, _ = url.Parse("http://localhost:11434")
	}
	return &OllamaAdapter{client: api.NewClient(parsed, http.DefaultClient)}
}

// ListModels lists every model the daemon currently has on disk.
func (o *OllamaAdapter) ListModels(ctx context.Context) ([]ModelInfo, error) {
	resp, err := o.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list models: %v", ollmerr.ErrProvider, err)
	}

	out := make([]ModelInfo, 0, len(resp.Models))
	for _, m := range resp.Models {
		out = append(out, ModelInfo{
			Name:       m.Name,
			Size:       m.Size,
			ModifiedAt: m.ModifiedAt,
			Family:     m.Details.Family,
		})
	}
	return out, nil
}

// PullModel streams a model download, forwarding progress to onProgress.
// Cancellation via ctx surfaces as ollmerr.ErrCancelled.
func (o *OllamaAdapter) PullModel(ctx context.Context, name string, onProgress func(ProgressUpdate)) error {
	req := &api.PullRequest{Model: name}
	err := o.client.Pull(ctx, req, func(resp api.ProgressResponse) error {
		if onProgress != nil {
			onProgress(ProgressUpdate{Status: resp.Status, Completed: resp.Completed, Total: resp.Total})
		}
		return ctx.Err()
	})
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: pull %s", ollmerr.ErrCancelled, name)
		}
		return fmt.Errorf("%w: pull %s: %v", ollmerr.ErrProvider, name, err)
	}
	return nil
}

// DeleteModel removes a model's blob from the daemon.
func (o *OllamaAdapter) DeleteModel(ctx context.Context, name string) error {
	if err := o.client.Delete(ctx, &api.DeleteRequest{Model: name}); err != nil {
		return fmt.Errorf("%w: delete %s: %v", ollmerr.ErrProvider, name, err)
	}
	return nil
}

// ShowModel returns provider-reported detail for a single model.
func (o *OllamaAdapter) ShowModel(ctx context.Context, name string) (ModelInfo, error) {
	resp, err := o.client.Show(ctx, &api.ShowRequest{Model: name})
	if err != nil {
		return ModelInfo{}, fmt.Errorf("%w: show %s: %v", ollmerr.ErrNotFound, name, err)
	}

	info := ModelInfo{
		Name:       name,
		ModifiedAt: resp.ModifiedAt,
		Family:     resp.Details.Family,
	}
	for _, cap := range resp.Capabilities {
		switch cap {
		case "tools":
			info.Capabilities.ToolCalling = true
		case "vision":
			info.Capabilities.Vision = true
		case "completion":
			info.Capabilities.Streaming = true
		}
	}
	return info, nil
}

// KeepAlive pings the daemon to hold name resident without generating
// output: an empty-prompt Generate request with a non-zero KeepAlive
// duration, the idiom the daemon itself uses for this purpose.
func (o *OllamaAdapter) KeepAlive(ctx context.Context, name string) error {
	keepAlive := api.Duration{Duration: keepAliveDuration}
	req := &api.GenerateRequest{Model: name, KeepAlive: &keepAlive}
	err := o.client.Generate(ctx, req, func(api.GenerateResponse) error { return nil })
	if err != nil {
		return fmt.Errorf("%w: keepalive %s: %v", ollmerr.ErrProvider, name, err)
	}
	return nil
}

// Unload asks the daemon to evict name from memory immediately: an
// empty-prompt Generate request with KeepAlive set to zero.
func (o *OllamaAdapter) Unload(ctx context.Context, name string) error {
	zero := api.Duration{}
	req := &api.GenerateRequest{Model: name, KeepAlive: &zero}
	err := o.client.Generate(ctx, req, func(api.GenerateResponse) error { return nil })
	if err != nil {
		return fmt.Errorf("%w: unload %s: %v", ollmerr.ErrProvider, name, err)
	}
	return nil
}

var _ Adapter = (*OllamaAdapter)(nil)
