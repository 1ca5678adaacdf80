package modelrouter

import "sort"

// Profile names the router's built-in routing profiles.
type Profile string

const (
	ProfileFast     Profile = "fast"
	ProfileGeneral  Profile = "general"
	ProfileCode     Profile = "code"
	ProfileCreative Profile = "creative"
)

// Config is the router's configuration: whether routing is active, the
// profile used when the caller doesn't name one, and per-profile model
// overrides that bypass scoring entirely.
type Config struct {
	Enabled        bool
	DefaultProfile Profile
	Overrides      map[Profile]string
}

// midSizeBillions is the "general" profile's preferred parameter count;
// candidates are scored by closeness to it.
const midSizeBillions = 13.0

// predicate is a profile's hard filter: models failing it are never
// selected regardless of score.
type predicate func(name string, caps ModelCapabilities, known bool) bool

// preference scores a model that already passed its profile's
// predicate; higher wins.
type preference func(name string, caps ModelCapabilities, known bool) float64

var predicates = map[Profile]predicate{
	ProfileFast: func(_ string, caps ModelCapabilities, known bool) bool {
		return known && caps.Capabilities.Streaming
	},
	ProfileGeneral: func(_ string, caps ModelCapabilities, known bool) bool {
		return known && caps.Capabilities.Streaming
	},
	ProfileCode: func(_ string, caps ModelCapabilities, _ bool) bool {
		return caps.ContextWindow >= 16384
	},
	ProfileCreative: func(_ string, _ ModelCapabilities, _ bool) bool {
		return true
	},
}

var preferences = map[Profile]preference{
	ProfileFast: func(_ string, caps ModelCapabilities, known bool) float64 {
		if !known {
			return 0
		}
		return -caps.SizeBillions
	},
	ProfileGeneral: func(_ string, caps ModelCapabilities, known bool) float64 {
		if !known {
			return 0
		}
		diff := caps.SizeBillions - midSizeBillions
		if diff < 0 {
			diff = -diff
		}
		return -diff
	},
	ProfileCode: func(_ string, caps ModelCapabilities, _ bool) float64 {
		score := float64(caps.ContextWindow)
		switch caps.Family {
		case "llama", "codellama", "qwen":
			score += 1_000_000 // family preference dominates context comparisons
		}
		return score
	},
	ProfileCreative: func(_ string, caps ModelCapabilities, _ bool) float64 {
		return float64(caps.ContextWindow)
	},
}

// SelectModel picks the best available model for profile, or reports
// false if none qualify.
//
//  1. If cfg.Overrides[profile] is set and present in availableModels,
//     that override wins outright.
//  2. Otherwise availableModels is filtered by the profile's hard
//     predicate.
//  3. The filtered set is scored by the profile's preference function;
//     the highest score wins, ties broken lexicographically by name.
//
// Determinism: identical (profile, availableModels) input always
// produces identical output.
func (cfg Config) SelectModel(profile Profile, availableModels []string) (string, bool) {
	if override, ok := cfg.Overrides[profile]; ok {
		for _, m := range availableModels {
			if m == override {
				return override, true
			}
		}
	}

	pred, ok := predicates[profile]
	if !ok {
		return "", false
	}
	pref := preferences[profile]

	var candidates []string
	for _, m := range availableModels {
		caps, known := Lookup(m)
		if pred(m, caps, known) {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}

	sort.Slice(candidates, func(i, j int) bool {
		ci, knownI := Lookup(candidates[i])
		cj, knownJ := Lookup(candidates[j])
		si := pref(candidates[i], ci, knownI)
		sj := pref(candidates[j], cj, knownJ)
		if si != sj {
			return si > sj
		}
		return candidates[i] < candidates[j]
	})

	return candidates[0], true
}
