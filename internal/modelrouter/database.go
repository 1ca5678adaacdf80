// Package modelrouter implements the static model capability database
// (C6) and the profile-based model router (C7) built on top of it.
package modelrouter

import "strings"

// Capabilities is a model's claimed feature set, used by the router's
// hard predicates.
type Capabilities struct {
	Streaming    bool
	ToolCalling  bool
	VisionInput  bool
}

// ModelCapabilities is what the database knows about one model: its
// family, context window, and capability flags.
type ModelCapabilities struct {
	Family        string
	ContextWindow int
	Capabilities  Capabilities
	SizeBillions  float64
}

// database is the static, in-memory lookup table. Entries are
// representative of commonly pulled Ollama models; it is not an
// exhaustive catalogue.
var database = map[string]ModelCapabilities{
	"llama3.1:8b": {
		Family: "llama", ContextWindow: 128000, SizeBillions: 8,
		Capabilities: Capabilities{Streaming: true, ToolCalling: true},
	},
	"llama3.1:70b": {
		Family: "llama", ContextWindow: 128000, SizeBillions: 70,
		Capabilities: Capabilities{Streaming: true, ToolCalling: true},
	},
	"llama3.1": {
		Family: "llama", ContextWindow: 128000, SizeBillions: 8,
		Capabilities: Capabilities{Streaming: true, ToolCalling: true},
	},
	"phi3:mini": {
		Family: "phi", ContextWindow: 4096, SizeBillions: 3.8,
		Capabilities: Capabilities{Streaming: true},
	},
	"codellama:7b": {
		Family: "codellama", ContextWindow: 16384, SizeBillions: 7,
		Capabilities: Capabilities{Streaming: true},
	},
	"codellama:13b": {
		Family: "codellama", ContextWindow: 16384, SizeBillions: 13,
		Capabilities: Capabilities{Streaming: true},
	},
	"qwen2.5-coder:7b": {
		Family: "qwen", ContextWindow: 32768, SizeBillions: 7,
		Capabilities: Capabilities{Streaming: true, ToolCalling: true},
	},
	"mistral:7b": {
		Family: "mistral", ContextWindow: 32768, SizeBillions: 7,
		Capabilities: Capabilities{Streaming: true},
	},
	"gemma2:9b": {
		Family: "gemma", ContextWindow: 8192, SizeBillions: 9,
		Capabilities: Capabilities{Streaming: true},
	},
	"command-r:35b": {
		Family: "command-r", ContextWindow: 128000, SizeBillions: 35,
		Capabilities: Capabilities{Streaming: true, ToolCalling: true},
	},
}

// Lookup returns the model's claimed capabilities. Exact matches win
// first; failing that, if exactly one database key is a prefix of
// name, that entry is returned. Otherwise ok is false, meaning "no
// capabilities claimed" — the caller must not treat this as "model
// does not exist".
func Lookup(name string) (caps ModelCapabilities, ok bool) {
	if c, found := database[name]; found {
		return c, true
	}

	var match ModelCapabilities
	matches := 0
	for key, c := range database {
		if strings.HasPrefix(name, key) {
			matches++
			match = c
		}
	}
	if matches == 1 {
		return match, true
	}
	return ModelCapabilities{}, false
}

// Score returns a synthetic, profile-independent desirability score:
// the context window in thousands of tokens, plus 10 for tool calling
// and 5 for streaming. Larger is more preferred. Unknown models score 0.
// SelectModel does not use it; it ranks candidates by each profile's own
// preference function.
func Score(name string) float64 {
	caps, ok := Lookup(name)
	if !ok {
		return 0
	}
	score := float64(caps.ContextWindow) / 1000
	if caps.Capabilities.ToolCalling {
		score += 10
	}
	if caps.Capabilities.Streaming {
		score += 5
	}
	return score
}
