// Package confloader provides the configuration loading mechanism.
//
// It uses koanf to merge configuration from several sources and
// fsnotify to watch the configuration file for edits.
//
// Priority (highest to lowest):
//
//  1. Maps loaded with LoadMap after Load (command-line flags)
//  2. Environment variables (ROGUESAVE_ prefix, "__" between sections)
//  3. The YAML configuration file
//  4. Values already present in the target struct
package confloader
