// Package config defines the Tiller configuration model and its YAML
// loading, defaulting, and validation logic.
//
// Configuration loads from a YAML file, then environment variables of the
// form TILLER_SECTION_FIELD override individual values, and finally the
// result is validated. A zero-value file (or no file at all) yields a
// fully-defaulted, valid configuration.
package config
