// Package output renders command results for the roguesave CLI.
//
// Three formats are supported: an aligned table for terminals and
// indented JSON or YAML for scripting. Commands hand a value to the
// Formatter returned by NewFormatter; a *Table is rendered as-is and
// other values are flattened by reflection, honoring json tags for
// column names.
package output
