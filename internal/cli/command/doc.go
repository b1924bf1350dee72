// Package command defines the roguesave command tree on urfave/cli/v2.
//
// Every command resolves the configuration once (file, ROGUESAVE_*
// environment, then global flags), opens the configured store and binds a
// persist.Manager to a fresh game state before doing its work. Results go
// through internal/cli/output so that -o json and -o yaml work everywhere.
package command
