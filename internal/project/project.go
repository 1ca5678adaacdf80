// Package project implements the project profile service (C9): it
// auto-detects a workspace's project type from marker files, resolves a
// merged profile across project/global/built-in layers, and initializes
// a workspace's `.ollm/project.yaml`.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ollm-cli/ollm/internal/config"
	"github.com/ollm-cli/ollm/internal/event"
	"github.com/ollm-cli/ollm/internal/ollmerr"
	"github.com/ollm-cli/ollm/pkg/types"
	"gopkg.in/yaml.v3"
)

const (
	ProfileTypeScript    = "typescript"
	ProfilePython        = "python"
	ProfileRust          = "rust"
	ProfileGo            = "go"
	ProfileDocumentation = "documentation"
)

// builtinProfiles holds the five built-in profiles keyed by name. It is
// read-only after package init.
var builtinProfiles = map[string]types.ProjectProfile{
	ProfileRust: {
		Name:         ProfileRust,
		SystemPrompt: "You are assisting with a Rust project. Favor idiomatic, safe Rust and cargo-based workflows.",
		Routing:      types.ProjectRouting{DefaultProfile: "code"},
	},
	ProfileGo: {
		Name:         ProfileGo,
		SystemPrompt: "You are assisting with a Go project. Favor idiomatic, simple Go and the standard toolchain.",
		Routing:      types.ProjectRouting{DefaultProfile: "code"},
	},
	ProfilePython: {
		Name:         ProfilePython,
		SystemPrompt: "You are assisting with a Python project. Favor idiomatic Python and common packaging conventions.",
		Routing:      types.ProjectRouting{DefaultProfile: "code"},
	},
	ProfileTypeScript: {
		Name:         ProfileTypeScript,
		SystemPrompt: "You are assisting with a TypeScript project. Favor type-safe, idiomatic TypeScript.",
		Tools:        types.ProjectToolConfig{Enabled: []string{"code-search", "type-check", "lint"}},
		Routing:      types.ProjectRouting{DefaultProfile: "code"},
	},
	ProfileDocumentation: {
		Name:         ProfileDocumentation,
		SystemPrompt: "You are assisting with documentation or prose. Favor clarity and tone over code-aware tooling.",
		Routing:      types.ProjectRouting{DefaultProfile: "creative"},
	},
}

// ListBuiltInProfiles returns the built-in profile names.
func ListBuiltInProfiles() []string {
	return []string{ProfileTypeScript, ProfilePython, ProfileRust, ProfileGo, ProfileDocumentation}
}

// BuiltinProfile returns the built-in profile by name.
func BuiltinProfile(name string) (types.ProjectProfile, bool) {
	p, ok := builtinProfiles[name]
	return p, ok
}

// Service is the project profile service. It owns the optional manual
// profile override; detection otherwise is a pure function of the
// workspace's filesystem contents.
type Service struct {
	mu            sync.RWMutex
	manualProfile string // "" means unset
}

// NewService returns a Service with no manual override.
func NewService() *Service {
	return &Service{}
}

// SetManualProfile pins detection to name regardless of workspace
// contents. Returns ollmerr.ErrNotFound if name is not a built-in
// profile.
func (s *Service) SetManualProfile(name string) error {
	if _, ok := builtinProfiles[name]; !ok {
		return fmt.Errorf("%w: profile %q", ollmerr.ErrNotFound, name)
	}
	s.mu.Lock()
	s.manualProfile = name
	s.mu.Unlock()
	return nil
}

// ClearManualProfile reverts to filesystem-based detection.
func (s *Service) ClearManualProfile() {
	s.mu.Lock()
	s.manualProfile = ""
	s.mu.Unlock()
}

// DetectProfile resolves the project profile for workspaceDir. If a
// manual override is set, it wins outright with no filesystem check.
// Otherwise workspaceDir is probed for marker files in the spec's fixed
// precedence order; the first match wins, and an unrecognised workspace
// defaults to the documentation profile. ok is false only when
// workspaceDir does not exist.
func (s *Service) DetectProfile(workspaceDir string) (profile types.ProjectProfile, ok bool) {
	s.mu.RLock()
	manual := s.manualProfile
	s.mu.RUnlock()

	if manual != "" {
		return builtinProfiles[manual], true
	}

	if _, err := os.Stat(workspaceDir); err != nil {
		return types.ProjectProfile{}, false
	}

	name := detectProfileName(workspaceDir)
	return builtinProfiles[name], true
}

// ResolveProfile is DetectProfile followed by the project/global/builtin
// merge: it detects the workspace's builtin profile, reads the
// project-layer override at <workspaceDir>/.ollm/project.yaml (if any)
// and the global-layer override at the user's config directory (if
// any), and applies them with ApplyProfile's project > global > builtin
// precedence. ok is false only when workspaceDir does not exist.
func (s *Service) ResolveProfile(workspaceDir string) (profile types.ProjectProfile, ok bool, err error) {
	builtin, ok := s.DetectProfile(workspaceDir)
	if !ok {
		return types.ProjectProfile{}, false, nil
	}

	projectLayer, err := LoadProjectProfile(ProjectProfilePath(workspaceDir))
	if err != nil {
		return types.ProjectProfile{}, false, err
	}
	globalLayer, err := LoadProjectProfile(GlobalProjectProfilePath())
	if err != nil {
		return types.ProjectProfile{}, false, err
	}

	return ApplyProfile(projectLayer, globalLayer, builtin), true, nil
}

// ProjectProfilePath returns the path InitializeProject writes to and
// LoadProjectProfile reads from for a given workspace.
func ProjectProfilePath(workspaceDir string) string {
	return filepath.Join(workspaceDir, ".ollm", "project.yaml")
}

// GlobalProjectProfilePath returns the user-wide project.yaml override
// path, parallel to config.GlobalConfigPath for the services config.
func GlobalProjectProfilePath() string {
	return filepath.Join(config.GetPaths().Config, "project.yaml")
}

// LoadProjectProfile reads and parses the project profile override at
// path. A missing file is not an error: it returns (nil, nil), meaning
// "this layer contributes nothing." InitializeProject writes this file
// as JSON bytes, but any real YAML document is also accepted, since
// that is the whole point of making the file .yaml-suffixed; malformed
// content fails with ollmerr.ErrCorruptState.
func LoadProjectProfile(path string) (*types.ProjectProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", ollmerr.ErrIO, path, err)
	}

	var profile types.ProjectProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ollmerr.ErrCorruptState, path, err)
	}
	return &profile, nil
}

// detectProfileName runs the marker-file probe, in fixed precedence
// order, returning the documentation profile's name if nothing matches.
func detectProfileName(dir string) string {
	if exists(filepath.Join(dir, "Cargo.toml")) {
		return ProfileRust
	}
	if exists(filepath.Join(dir, "go.mod")) {
		return ProfileGo
	}
	if exists(filepath.Join(dir, "pyproject.toml")) ||
		exists(filepath.Join(dir, "requirements.txt")) ||
		exists(filepath.Join(dir, "setup.py")) {
		return ProfilePython
	}
	if packageJSONMentionsTypeScript(filepath.Join(dir, "package.json")) {
		return ProfileTypeScript
	}
	return ProfileDocumentation
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func packageJSONMentionsTypeScript(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.Contains(string(data), "typescript")
}

// ApplyProfile resolves the merged profile for a workspace:
// project > global > builtin, field by field. tools.enabled/disabled
// are replaced wholesale by the first layer that sets them, never
// merged across layers.
func ApplyProfile(project, global *types.ProjectProfile, builtin types.ProjectProfile) types.ProjectProfile {
	merged := builtin

	if global != nil {
		applyLayer(&merged, global)
	}
	if project != nil {
		applyLayer(&merged, project)
	}
	return merged
}

func applyLayer(merged *types.ProjectProfile, layer *types.ProjectProfile) {
	if layer.Name != "" {
		merged.Name = layer.Name
	}
	if layer.Model != "" {
		merged.Model = layer.Model
	}
	if layer.SystemPrompt != "" {
		merged.SystemPrompt = layer.SystemPrompt
	}
	if layer.Tools.Enabled != nil {
		merged.Tools.Enabled = layer.Tools.Enabled
	}
	if layer.Tools.Disabled != nil {
		merged.Tools.Disabled = layer.Tools.Disabled
	}
	if layer.Routing.DefaultProfile != "" {
		merged.Routing.DefaultProfile = layer.Routing.DefaultProfile
	}
}

// InitializeProject creates <workspaceDir>/.ollm/project.yaml containing
// the named built-in profile's default settings as JSON bytes (valid
// JSON is a YAML document too, so the file is parseable by either
// reader). Parent directories are created as needed.
func InitializeProject(workspaceDir, profileName string) error {
	profile, ok := builtinProfiles[profileName]
	if !ok {
		return fmt.Errorf("%w: profile %q", ollmerr.ErrNotFound, profileName)
	}

	dir := filepath.Join(workspaceDir, ".ollm")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %v", ollmerr.ErrIO, dir, err)
	}

	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profile %q: %w", profileName, err)
	}

	path := filepath.Join(dir, "project.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ollmerr.ErrIO, path, err)
	}

	event.Publish(event.Event{Type: event.ProjectInitialized, Data: event.ProjectInitializedData{WorkspaceDir: workspaceDir, Profile: profileName}})
	return nil
}
