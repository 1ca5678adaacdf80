// Package config defines the services configuration schema, its built-in
// defaults, and the deep-merge and validation rules applied to user input.
//
// # Sections
//
// ServicesConfig has five sections: session, compression, loopDetection,
// fileDiscovery, and environment. Every field has a built-in default; a
// caller-supplied partial config only needs to specify the fields it wants
// to override.
//
// # Merging
//
// MergeServicesConfig deep-merges a user config over the built-in
// defaults. Scalar fields are overwritten by the user value when present.
// The three list-valued fields — fileDiscovery.builtinIgnores,
// environment.allowList, environment.denyPatterns — are the exception:
// user entries are appended to the defaults rather than replacing them.
//
// # Validation
//
// ValidateServicesConfig enforces the schema's range and enum
// constraints. A violation returns an error wrapping ollmerr.ErrInvalidConfig.
// Missing fields are not violations; unknown fields are rejected.
//
// # Projections
//
// GetLoopDetectionConfig and GetSanitizationConfig project a merged
// ServicesConfig onto the narrower shapes their respective consumers
// need, so callers don't have to know the full schema.
package config
