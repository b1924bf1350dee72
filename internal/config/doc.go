// Package config defines the roguesave configuration structure.
//
// Configuration is loaded by confloader from a YAML file and ROGUESAVE_*
// environment variables, then checked with Verify before use. Sanitize
// masks inline key material for logging.
package config
