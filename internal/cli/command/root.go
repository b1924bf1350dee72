package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/roguesave/internal/infra/buildinfo"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:                 "roguesave",
		Usage:                "Inspect, verify and exercise versioned save files",
		Version:              buildinfo.String(),
		Flags:                globalFlags(),
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			ListCommand(),
			NewCommand(),
			LoadCommand(),
			InspectCommand(),
			VerifyCommand(),
			DiffCommand(),
			ExportCommand(),
			BackupCommand(),
			DeleteCommand(),
			SimulateCommand(),
			VersionCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
			EnvVars: []string{"ROGUESAVE_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "dir",
			Aliases: []string{"d"},
			Usage:   "save directory (storage.dir)",
		},
		&cli.StringFlag{
			Name:  "engine",
			Usage: "storage engine: file or badger (storage.engine)",
		},
		&cli.StringFlag{
			Name:  "signer",
			Usage: "signature provider: hmac-sha256, blake2b-256 or ed25519 (signer.provider)",
		},
		&cli.StringFlag{
			Name:  "key",
			Usage: "signer key as hex:... or base64:... (signer.key)",
		},
		&cli.StringFlag{
			Name:  "key-file",
			Usage: "file holding raw signer key bytes (signer.key_file)",
		},
		&cli.BoolFlag{
			Name:  "require-signature",
			Usage: "reject unsigned files (signer.require)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	ConfigFile string
	Output     string
	Wide       bool
	Verbose    bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		ConfigFile: c.String("config"),
		Output:     c.String("output"),
		Wide:       c.Bool("wide"),
		Verbose:    c.Bool("verbose"),
	}
}

// overrides maps explicitly set global flags onto configuration keys.
func overrides(c *cli.Context) map[string]any {
	out := map[string]any{}
	set := func(section, key string, v any) {
		m, ok := out[section].(map[string]any)
		if !ok {
			m = map[string]any{}
			out[section] = m
		}
		m[key] = v
	}
	if c.IsSet("dir") {
		set("storage", "dir", c.String("dir"))
	}
	if c.IsSet("engine") {
		set("storage", "engine", c.String("engine"))
	}
	if c.IsSet("signer") {
		set("signer", "provider", c.String("signer"))
	}
	if c.IsSet("key") {
		set("signer", "key", c.String("key"))
	}
	if c.IsSet("key-file") {
		set("signer", "key_file", c.String("key-file"))
	}
	if c.IsSet("require-signature") {
		set("signer", "require", c.Bool("require-signature"))
	}
	if c.Bool("verbose") {
		set("log", "level", "debug")
	}
	return out
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
