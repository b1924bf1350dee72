// Package logger provides structured logging for roguesave.
//
// It wraps the standard library log/slog:
//
//   - logger.go: Logger construction, level control and package defaults
//   - context.go: Context-aware logging with a per-run identifier
//   - redact.go: Redaction of signing key material
//
// Features:
//
//   - JSON and text output formats
//   - Dynamic log level (SetLevel)
//   - Automatic masking of inline keys (hex: and base64: values)
//   - Slog() hands the redacting *slog.Logger to the persistence engine
package logger
