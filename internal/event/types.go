package event

// MemoryRememberedData is the data for memory.remembered events.
type MemoryRememberedData struct {
	Key      string `json:"key"`
	Category string `json:"category"`
}

// MemoryForgottenData is the data for memory.forgotten events.
type MemoryForgottenData struct {
	Key string `json:"key"`
}

// ContextAddedData is the data for context.added events.
type ContextAddedData struct {
	Key      string `json:"key"`
	Priority int    `json:"priority"`
}

// ContextRemovedData is the data for context.removed events.
type ContextRemovedData struct {
	Key string `json:"key"`
}

// SessionCompactedData is the data for session.compacted events.
type SessionCompactedData struct {
	Strategy             string `json:"strategy"`
	OriginalTokenCount   int    `json:"originalTokenCount"`
	CompressedTokenCount int    `json:"compressedTokenCount"`
}

// ModelLoadedData is the data for model.loaded events.
type ModelLoadedData struct {
	Name string `json:"name"`
}

// ModelUnloadedData is the data for model.unloaded events.
type ModelUnloadedData struct {
	Name   string `json:"name"`
	Reason string `json:"reason"` // "manual" | "idle" | "delete"
}

// ModelPulledData is the data for model.pulled events.
type ModelPulledData struct {
	Name string `json:"name"`
}

// ModelDeletedData is the data for model.deleted events.
type ModelDeletedData struct {
	Name string `json:"name"`
}

// ProjectInitializedData is the data for project.initialized events.
type ProjectInitializedData struct {
	WorkspaceDir string `json:"workspaceDir"`
	Profile      string `json:"profile"`
}
