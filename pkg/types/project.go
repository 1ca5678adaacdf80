package types

// ProjectProfile is a named bundle of defaults applied to a workspace:
// model/routing preferences, an optional system prompt, and tool
// enable/disable lists.
type ProjectProfile struct {
	Name         string            `json:"name"`
	Model        string            `json:"model,omitempty"`
	SystemPrompt string            `json:"systemPrompt,omitempty" yaml:"systemPrompt,omitempty"`
	Tools        ProjectToolConfig `json:"tools"`
	Routing      ProjectRouting    `json:"routing"`
}

// ProjectToolConfig scopes which tools are available for a profile.
// Enabled/Disabled are replaced wholesale on merge, never appended to.
type ProjectToolConfig struct {
	Enabled  []string `json:"enabled,omitempty"`
	Disabled []string `json:"disabled,omitempty"`
}

// ProjectRouting carries the profile's preferred model-router profile.
type ProjectRouting struct {
	DefaultProfile string `json:"defaultProfile,omitempty" yaml:"defaultProfile,omitempty"`
}
