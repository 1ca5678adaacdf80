package project

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ollm-cli/ollm/internal/ollmerr"
	"github.com/ollm-cli/ollm/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateHome points HOME/XDG_CONFIG_HOME at a fresh temp dir so
// GlobalProjectProfilePath never touches the real user's config.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	return home
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDetectProfileRust(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Cargo.toml", "[package]\nname=\"x\"")

	svc := NewService()
	profile, ok := svc.DetectProfile(dir)
	require.True(t, ok)
	assert.Equal(t, ProfileRust, profile.Name)
}

func TestDetectProfileGo(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module x\n")

	svc := NewService()
	profile, ok := svc.DetectProfile(dir)
	require.True(t, ok)
	assert.Equal(t, ProfileGo, profile.Name)
}

func TestDetectProfilePythonVariants(t *testing.T) {
	for _, marker := range []string{"pyproject.toml", "requirements.txt", "setup.py"} {
		dir := t.TempDir()
		writeFile(t, dir, marker, "")

		svc := NewService()
		profile, ok := svc.DetectProfile(dir)
		require.True(t, ok)
		assert.Equal(t, ProfilePython, profile.Name, "marker %s", marker)
	}
}

func TestDetectProfileTypeScriptRequiresMention(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{"name":"x","devDependencies":{"typescript":"^5.0.0"}}`)

	svc := NewService()
	profile, ok := svc.DetectProfile(dir)
	require.True(t, ok)
	assert.Equal(t, ProfileTypeScript, profile.Name)
}

func TestDetectProfilePackageJSONWithoutTypeScriptFallsBackToDocumentation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{"name":"x"}`)

	svc := NewService()
	profile, ok := svc.DetectProfile(dir)
	require.True(t, ok)
	assert.Equal(t, ProfileDocumentation, profile.Name)
}

func TestDetectProfileEmptyDirFallsBackToDocumentation(t *testing.T) {
	dir := t.TempDir()

	svc := NewService()
	profile, ok := svc.DetectProfile(dir)
	require.True(t, ok)
	assert.Equal(t, ProfileDocumentation, profile.Name)
}

func TestDetectProfilePrecedenceOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module x\n")
	writeFile(t, dir, "pyproject.toml", "")

	svc := NewService()
	profile, ok := svc.DetectProfile(dir)
	require.True(t, ok)
	assert.Equal(t, ProfileGo, profile.Name, "go.mod precedes pyproject.toml")
}

func TestDetectProfileNonexistentDirReturnsFalse(t *testing.T) {
	svc := NewService()
	_, ok := svc.DetectProfile(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.False(t, ok)
}

func TestDetectProfileManualOverrideShortCircuitsFilesystem(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Cargo.toml", "")

	svc := NewService()
	require.NoError(t, svc.SetManualProfile(ProfilePython))

	profile, ok := svc.DetectProfile(dir)
	require.True(t, ok)
	assert.Equal(t, ProfilePython, profile.Name)
}

func TestSetManualProfileRejectsUnknownName(t *testing.T) {
	svc := NewService()
	err := svc.SetManualProfile("cobol")
	assert.Error(t, err)
}

func TestClearManualProfileRevertsToDetection(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module x\n")

	svc := NewService()
	require.NoError(t, svc.SetManualProfile(ProfilePython))
	svc.ClearManualProfile()

	profile, ok := svc.DetectProfile(dir)
	require.True(t, ok)
	assert.Equal(t, ProfileGo, profile.Name)
}

// TestS6ProfileDetectionScenario reconstructs spec scenario S6.
func TestS6ProfileDetectionScenario(t *testing.T) {
	rustDir := t.TempDir()
	writeFile(t, rustDir, "Cargo.toml", "")
	svc := NewService()
	profile, ok := svc.DetectProfile(rustDir)
	require.True(t, ok)
	assert.Equal(t, ProfileRust, profile.Name)

	tsDir := t.TempDir()
	writeFile(t, tsDir, "package.json", `{"dependencies":{"typescript":"^5.0.0"}}`)
	profile, ok = svc.DetectProfile(tsDir)
	require.True(t, ok)
	assert.Equal(t, ProfileTypeScript, profile.Name)

	require.NoError(t, svc.SetManualProfile(ProfilePython))
	profile, ok = svc.DetectProfile(tsDir)
	require.True(t, ok)
	assert.Equal(t, ProfilePython, profile.Name)
}

func TestApplyProfilePrecedenceAndArrayReplace(t *testing.T) {
	builtin, _ := BuiltinProfile(ProfileTypeScript)

	global := &types.ProjectProfile{
		Model: "llama3.1:8b",
		Tools: types.ProjectToolConfig{Enabled: []string{"global-tool"}},
	}
	project := &types.ProjectProfile{
		SystemPrompt: "custom prompt",
	}

	merged := ApplyProfile(project, global, builtin)

	assert.Equal(t, "llama3.1:8b", merged.Model, "global overrides builtin, project doesn't set it")
	assert.Equal(t, "custom prompt", merged.SystemPrompt, "project wins over builtin")
	assert.Equal(t, []string{"global-tool"}, merged.Tools.Enabled, "global replaces builtin wholesale")
	assert.Equal(t, ProfileTypeScript, merged.Name)
}

func TestApplyProfileNilLayersFallBackToBuiltin(t *testing.T) {
	builtin, _ := BuiltinProfile(ProfileGo)
	merged := ApplyProfile(nil, nil, builtin)
	assert.Equal(t, builtin, merged)
}

func TestInitializeProjectWritesJSONParseableFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, InitializeProject(dir, ProfilePython))

	path := filepath.Join(dir, ".ollm", "project.yaml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var profile types.ProjectProfile
	require.NoError(t, json.Unmarshal(data, &profile))
	assert.Equal(t, ProfilePython, profile.Name)
}

func TestInitializeProjectCreatesParentDirs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "workspace")
	require.NoError(t, InitializeProject(dir, ProfileGo))

	_, err := os.Stat(filepath.Join(dir, ".ollm", "project.yaml"))
	assert.NoError(t, err)
}

func TestInitializeProjectUnknownProfileFails(t *testing.T) {
	dir := t.TempDir()
	err := InitializeProject(dir, "cobol")
	assert.Error(t, err)
}

func TestLoadProjectProfileMissingFileReturnsNilWithoutError(t *testing.T) {
	profile, err := LoadProjectProfile(filepath.Join(t.TempDir(), "project.yaml"))
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestLoadProjectProfileParsesInitializedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, InitializeProject(dir, ProfileRust))

	profile, err := LoadProjectProfile(ProjectProfilePath(dir))
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, ProfileRust, profile.Name)
}

func TestLoadProjectProfileParsesRealYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".ollm"), 0o755))
	writeFile(t, filepath.Join(dir, ".ollm"), "project.yaml", "name: go\nmodel: llama3.1:8b\ntools:\n  enabled:\n    - lint\n")

	profile, err := LoadProjectProfile(ProjectProfilePath(dir))
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "llama3.1:8b", profile.Model)
	assert.Equal(t, []string{"lint"}, profile.Tools.Enabled)
}

func TestLoadProjectProfileMalformedFailsWithCorruptState(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "project.yaml", "not: [valid: yaml")

	_, err := LoadProjectProfile(filepath.Join(dir, "project.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ollmerr.ErrCorruptState))
}

func TestResolveProfileMergesProjectLayerOverBuiltin(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module x\n")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".ollm"), 0o755))
	writeFile(t, filepath.Join(dir, ".ollm"), "project.yaml", `{"systemPrompt":"custom go prompt"}`)

	svc := NewService()
	profile, ok, err := svc.ResolveProfile(dir)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ProfileGo, profile.Name)
	assert.Equal(t, "custom go prompt", profile.SystemPrompt, "project layer overrides the builtin default")
}

func TestResolveProfileFallsBackToBuiltinWithNoOverrideFiles(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()
	writeFile(t, dir, "Cargo.toml", "")

	svc := NewService()
	profile, ok, err := svc.ResolveProfile(dir)
	require.NoError(t, err)
	require.True(t, ok)
	builtin, _ := BuiltinProfile(ProfileRust)
	assert.Equal(t, builtin, profile)
}

func TestResolveProfileNonexistentWorkspaceReturnsNotOK(t *testing.T) {
	isolateHome(t)
	svc := NewService()
	_, ok, err := svc.ResolveProfile(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListBuiltInProfilesIncludesAllFive(t *testing.T) {
	names := ListBuiltInProfiles()
	assert.Len(t, names, 5)
	assert.Contains(t, names, ProfileTypeScript)
	assert.Contains(t, names, ProfileDocumentation)
}
