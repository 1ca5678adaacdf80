package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/ollm-cli/ollm/internal/ollmerr"
)

// CompressionStrategy names one of the chat-compression engine's
// strategies, also used as the config default.
type CompressionStrategy string

const (
	StrategySummarize CompressionStrategy = "summarize"
	StrategyTruncate  CompressionStrategy = "truncate"
	StrategyHybrid    CompressionStrategy = "hybrid"
)

// SessionConfig controls session persistence.
type SessionConfig struct {
	DataDir     string `json:"dataDir"`
	MaxSessions int    `json:"maxSessions"`
	AutoSave    bool   `json:"autoSave"`
}

// CompressionConfig controls the chat compression engine's defaults.
type CompressionConfig struct {
	Enabled        bool                `json:"enabled"`
	Threshold      float64             `json:"threshold"`
	Strategy       CompressionStrategy `json:"strategy"`
	PreserveRecent int                 `json:"preserveRecent"`
}

// LoopDetectionConfig controls repeated-turn detection.
type LoopDetectionConfig struct {
	Enabled         bool `json:"enabled"`
	MaxTurns        int  `json:"maxTurns"`
	RepeatThreshold int  `json:"repeatThreshold"`
}

// FileDiscoveryConfig controls workspace file probing.
type FileDiscoveryConfig struct {
	MaxDepth       int      `json:"maxDepth"`
	FollowSymlinks bool     `json:"followSymlinks"`
	BuiltinIgnores []string `json:"builtinIgnores"`
}

// EnvironmentConfig controls which host environment variables are
// visible to tools and which are redacted.
type EnvironmentConfig struct {
	AllowList    []string `json:"allowList"`
	DenyPatterns []string `json:"denyPatterns"`
}

// ServicesConfig is the fully-resolved configuration consumed by the
// core services.
type ServicesConfig struct {
	Session       SessionConfig       `json:"session"`
	Compression   CompressionConfig   `json:"compression"`
	LoopDetection LoopDetectionConfig `json:"loopDetection"`
	FileDiscovery FileDiscoveryConfig `json:"fileDiscovery"`
	Environment   EnvironmentConfig   `json:"environment"`
}

// Patch types mirror ServicesConfig but with pointer/nil-able scalar
// fields, so a partial user document can be told apart from one that
// explicitly sets a zero value.

type SessionPatch struct {
	DataDir     *string `json:"dataDir,omitempty"`
	MaxSessions *int    `json:"maxSessions,omitempty"`
	AutoSave    *bool   `json:"autoSave,omitempty"`
}

type CompressionPatch struct {
	Enabled        *bool                `json:"enabled,omitempty"`
	Threshold      *float64             `json:"threshold,omitempty"`
	Strategy       *CompressionStrategy `json:"strategy,omitempty"`
	PreserveRecent *int                 `json:"preserveRecent,omitempty"`
}

type LoopDetectionPatch struct {
	Enabled         *bool `json:"enabled,omitempty"`
	MaxTurns        *int  `json:"maxTurns,omitempty"`
	RepeatThreshold *int  `json:"repeatThreshold,omitempty"`
}

type FileDiscoveryPatch struct {
	MaxDepth       *int     `json:"maxDepth,omitempty"`
	FollowSymlinks *bool    `json:"followSymlinks,omitempty"`
	BuiltinIgnores []string `json:"builtinIgnores,omitempty"`
}

type EnvironmentPatch struct {
	AllowList    []string `json:"allowList,omitempty"`
	DenyPatterns []string `json:"denyPatterns,omitempty"`
}

// ServicesConfigPatch is the shape of a partial, user-supplied config
// document: every field is optional.
type ServicesConfigPatch struct {
	Session       *SessionPatch       `json:"session,omitempty"`
	Compression   *CompressionPatch   `json:"compression,omitempty"`
	LoopDetection *LoopDetectionPatch `json:"loopDetection,omitempty"`
	FileDiscovery *FileDiscoveryPatch `json:"fileDiscovery,omitempty"`
	Environment   *EnvironmentPatch   `json:"environment,omitempty"`
}

// DefaultServicesConfig returns the built-in defaults.
func DefaultServicesConfig() ServicesConfig {
	return ServicesConfig{
		Session: SessionConfig{
			DataDir:     filepath.Join("~", ".ollm", "session-data"),
			MaxSessions: 100,
			AutoSave:    true,
		},
		Compression: CompressionConfig{
			Enabled:        true,
			Threshold:      0.8,
			Strategy:       StrategyHybrid,
			PreserveRecent: 4096,
		},
		LoopDetection: LoopDetectionConfig{
			Enabled:         true,
			MaxTurns:        50,
			RepeatThreshold: 3,
		},
		FileDiscovery: FileDiscoveryConfig{
			MaxDepth:       10,
			FollowSymlinks: false,
			BuiltinIgnores: []string{"node_modules", ".git", "dist", "build", ".next", ".cache"},
		},
		Environment: EnvironmentConfig{
			AllowList:    []string{"PATH", "HOME", "USER", "SHELL", "TERM", "LANG"},
			DenyPatterns: []string{"*_KEY", "*_SECRET", "*_TOKEN", "*_PASSWORD", "*_CREDENTIAL", "AWS_*", "GITHUB_*"},
		},
	}
}

// ParseServicesConfigPatch parses a JSON (or JSONC) document into a
// ServicesConfigPatch, rejecting unknown fields.
func ParseServicesConfigPatch(data []byte) (*ServicesConfigPatch, error) {
	data = stripJSONComments(data)

	var patch ServicesConfigPatch
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		return nil, fmt.Errorf("%w: %s", ollmerr.ErrInvalidConfig, err)
	}
	return &patch, nil
}

// ValidateServicesConfig enforces the schema's range and enum
// constraints against a user patch. Missing fields are not violations.
func ValidateServicesConfig(user *ServicesConfigPatch) error {
	if user == nil {
		return nil
	}

	if s := user.Session; s != nil {
		if s.DataDir != nil && *s.DataDir == "" {
			return fmt.Errorf("%w: session.dataDir must be non-empty", ollmerr.ErrInvalidConfig)
		}
		if s.MaxSessions != nil && *s.MaxSessions < 1 {
			return fmt.Errorf("%w: session.maxSessions must be >= 1", ollmerr.ErrInvalidConfig)
		}
	}

	if c := user.Compression; c != nil {
		if c.Threshold != nil && (*c.Threshold < 0 || *c.Threshold > 1) {
			return fmt.Errorf("%w: compression.threshold must be in [0,1]", ollmerr.ErrInvalidConfig)
		}
		if c.Strategy != nil {
			switch *c.Strategy {
			case StrategySummarize, StrategyTruncate, StrategyHybrid:
			default:
				return fmt.Errorf("%w: compression.strategy %q is not a valid strategy", ollmerr.ErrInvalidConfig, *c.Strategy)
			}
		}
		if c.PreserveRecent != nil && *c.PreserveRecent < 0 {
			return fmt.Errorf("%w: compression.preserveRecent must be >= 0", ollmerr.ErrInvalidConfig)
		}
	}

	if l := user.LoopDetection; l != nil {
		if l.MaxTurns != nil && *l.MaxTurns < 1 {
			return fmt.Errorf("%w: loopDetection.maxTurns must be >= 1", ollmerr.ErrInvalidConfig)
		}
		if l.RepeatThreshold != nil && *l.RepeatThreshold < 1 {
			return fmt.Errorf("%w: loopDetection.repeatThreshold must be >= 1", ollmerr.ErrInvalidConfig)
		}
	}

	if f := user.FileDiscovery; f != nil {
		if f.MaxDepth != nil && *f.MaxDepth < 0 {
			return fmt.Errorf("%w: fileDiscovery.maxDepth must be >= 0", ollmerr.ErrInvalidConfig)
		}
	}

	return nil
}

// MergeServicesConfig deep-merges user over the built-in defaults.
// Scalar fields are overwritten when the user sets them; the three list
// fields (fileDiscovery.builtinIgnores, environment.allowList,
// environment.denyPatterns) are appended to the defaults instead.
func MergeServicesConfig(user *ServicesConfigPatch) ServicesConfig {
	merged := DefaultServicesConfig()
	if user == nil {
		return merged
	}

	if s := user.Session; s != nil {
		if s.DataDir != nil {
			merged.Session.DataDir = *s.DataDir
		}
		if s.MaxSessions != nil {
			merged.Session.MaxSessions = *s.MaxSessions
		}
		if s.AutoSave != nil {
			merged.Session.AutoSave = *s.AutoSave
		}
	}

	if c := user.Compression; c != nil {
		if c.Enabled != nil {
			merged.Compression.Enabled = *c.Enabled
		}
		if c.Threshold != nil {
			merged.Compression.Threshold = *c.Threshold
		}
		if c.Strategy != nil {
			merged.Compression.Strategy = *c.Strategy
		}
		if c.PreserveRecent != nil {
			merged.Compression.PreserveRecent = *c.PreserveRecent
		}
	}

	if l := user.LoopDetection; l != nil {
		if l.Enabled != nil {
			merged.LoopDetection.Enabled = *l.Enabled
		}
		if l.MaxTurns != nil {
			merged.LoopDetection.MaxTurns = *l.MaxTurns
		}
		if l.RepeatThreshold != nil {
			merged.LoopDetection.RepeatThreshold = *l.RepeatThreshold
		}
	}

	if f := user.FileDiscovery; f != nil {
		if f.MaxDepth != nil {
			merged.FileDiscovery.MaxDepth = *f.MaxDepth
		}
		if f.FollowSymlinks != nil {
			merged.FileDiscovery.FollowSymlinks = *f.FollowSymlinks
		}
		if len(f.BuiltinIgnores) > 0 {
			merged.FileDiscovery.BuiltinIgnores = append(append([]string{}, merged.FileDiscovery.BuiltinIgnores...), f.BuiltinIgnores...)
		}
	}

	if e := user.Environment; e != nil {
		if len(e.AllowList) > 0 {
			merged.Environment.AllowList = append(append([]string{}, merged.Environment.AllowList...), e.AllowList...)
		}
		if len(e.DenyPatterns) > 0 {
			merged.Environment.DenyPatterns = append(append([]string{}, merged.Environment.DenyPatterns...), e.DenyPatterns...)
		}
	}

	return merged
}

// Load reads the global config file, then the project config file (if
// directory is non-empty), validating and merging each over the
// defaults in turn so project settings win over global ones.
func Load(directory string) (ServicesConfig, error) {
	merged := DefaultServicesConfig()

	apply := func(path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil // missing file is not an error
		}
		patch, err := ParseServicesConfigPatch(data)
		if err != nil {
			return err
		}
		if err := ValidateServicesConfig(patch); err != nil {
			return err
		}
		merged = mergeOnto(merged, patch)
		return nil
	}

	if err := apply(GlobalConfigPath()); err != nil {
		return ServicesConfig{}, err
	}
	if directory != "" {
		if err := apply(ProjectConfigPath(directory)); err != nil {
			return ServicesConfig{}, err
		}
	}

	return merged, nil
}

// mergeOnto applies patch over base, the running merge so far, so a
// later layer (project) wins over an earlier one (global) scalar for
// scalar while the two list fields keep accumulating across layers.
func mergeOnto(base ServicesConfig, patch *ServicesConfigPatch) ServicesConfig {
	result := base
	if patch == nil {
		return result
	}

	if s := patch.Session; s != nil {
		if s.DataDir != nil {
			result.Session.DataDir = *s.DataDir
		}
		if s.MaxSessions != nil {
			result.Session.MaxSessions = *s.MaxSessions
		}
		if s.AutoSave != nil {
			result.Session.AutoSave = *s.AutoSave
		}
	}

	if c := patch.Compression; c != nil {
		if c.Enabled != nil {
			result.Compression.Enabled = *c.Enabled
		}
		if c.Threshold != nil {
			result.Compression.Threshold = *c.Threshold
		}
		if c.Strategy != nil {
			result.Compression.Strategy = *c.Strategy
		}
		if c.PreserveRecent != nil {
			result.Compression.PreserveRecent = *c.PreserveRecent
		}
	}

	if l := patch.LoopDetection; l != nil {
		if l.Enabled != nil {
			result.LoopDetection.Enabled = *l.Enabled
		}
		if l.MaxTurns != nil {
			result.LoopDetection.MaxTurns = *l.MaxTurns
		}
		if l.RepeatThreshold != nil {
			result.LoopDetection.RepeatThreshold = *l.RepeatThreshold
		}
	}

	if f := patch.FileDiscovery; f != nil {
		if f.MaxDepth != nil {
			result.FileDiscovery.MaxDepth = *f.MaxDepth
		}
		if f.FollowSymlinks != nil {
			result.FileDiscovery.FollowSymlinks = *f.FollowSymlinks
		}
		if len(f.BuiltinIgnores) > 0 {
			result.FileDiscovery.BuiltinIgnores = append(append([]string{}, result.FileDiscovery.BuiltinIgnores...), f.BuiltinIgnores...)
		}
	}

	if e := patch.Environment; e != nil {
		if len(e.AllowList) > 0 {
			result.Environment.AllowList = append(append([]string{}, result.Environment.AllowList...), e.AllowList...)
		}
		if len(e.DenyPatterns) > 0 {
			result.Environment.DenyPatterns = append(append([]string{}, result.Environment.DenyPatterns...), e.DenyPatterns...)
		}
	}

	return result
}

// Save writes config to path as indented JSON, creating parent
// directories as needed.
func Save(cfg ServicesConfig, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: %s", ollmerr.ErrIO, err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%w: %s", ollmerr.ErrIO, err)
	}
	return nil
}

// stripJSONComments removes // and /* */ comments, accepting JSONC
// documents alongside plain JSON.
func stripJSONComments(data []byte) []byte {
	singleLine := regexp.MustCompile(`//.*$`)
	lines := bytes.Split(data, []byte("\n"))
	for i, line := range lines {
		lines[i] = singleLine.ReplaceAll(line, nil)
	}
	data = bytes.Join(lines, []byte("\n"))

	multiLine := regexp.MustCompile(`/\*[\s\S]*?\*/`)
	data = multiLine.ReplaceAll(data, nil)

	return data
}

// GetLoopDetectionConfig projects cfg onto the loop-detection consumer's
// shape.
func GetLoopDetectionConfig(cfg ServicesConfig) LoopDetectionConfig {
	return cfg.LoopDetection
}

// SanitizationConfig is the environment-variable exposure policy handed
// to tool-execution sandboxes.
type SanitizationConfig struct {
	AllowList    []string
	DenyPatterns []string
}

// GetSanitizationConfig projects cfg onto the environment-sanitization
// consumer's shape.
func GetSanitizationConfig(cfg ServicesConfig) SanitizationConfig {
	return SanitizationConfig{
		AllowList:    cfg.Environment.AllowList,
		DenyPatterns: cfg.Environment.DenyPatterns,
	}
}
