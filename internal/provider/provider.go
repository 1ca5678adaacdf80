// Package provider adapts the core services layer to a local inference
// daemon (Ollama). It is the only package in the module that imports the
// daemon's client library; everything above it speaks in terms of this
// package's Adapter interface.
package provider

import (
	"context"
	"time"
)

// Capabilities is what the provider reports a model can do. The model
// database (internal/modelrouter) may disagree; for routing decisions the
// database wins, this is purely what showModel/listModels surfaces to
// callers.
type Capabilities struct {
	ToolCalling bool
	Vision      bool
	Streaming   bool
}

// ModelInfo mirrors the spec's ModelInfo: a provider-reported model
// listing entry.
type ModelInfo struct {
	Name          string
	Size          int64
	ModifiedAt    time.Time
	Family        string
	ContextWindow int
	Capabilities  Capabilities
}

// ProgressUpdate is one increment of a pull's progress stream.
type ProgressUpdate struct {
	Status    string
	Completed int64
	Total     int64
}

// Adapter is the provider-transport contract the model management
// service drives. Exactly one concrete implementation exists (Ollama);
// callers depend on this interface so tests can substitute a fake.
type Adapter interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
	PullModel(ctx context.Context, name string, onProgress func(ProgressUpdate)) error
	DeleteModel(ctx context.Context, name string) error
	ShowModel(ctx context.Context, name string) (ModelInfo, error)
	KeepAlive(ctx context.Context, name string) error
	Unload(ctx context.Context, name string) error
}
