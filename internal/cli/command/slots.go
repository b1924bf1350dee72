package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/roguesave/internal/infra/buildinfo"
	"github.com/yndnr/roguesave/internal/persist"
)

// saveSummary describes the state held by a slot after a save or load.
type saveSummary struct {
	Slot           int    `json:"slot"`
	Seed           uint32 `json:"seed"`
	Level          int32  `json:"level"`
	XPTotal        uint64 `json:"xp_total"`
	Items          int    `json:"items"`
	Recovered      bool   `json:"recovered"`
	MigrationSteps int    `json:"migration_steps"`
	SHA256         string `json:"sha256,omitempty" table:"wide"`
}

func (r *runtime) summary(slot int) saveSummary {
	return saveSummary{
		Slot:           slot,
		Seed:           r.state.World.Seed,
		Level:          r.state.Player.Level,
		XPTotal:        r.state.Player.XPTotal,
		Items:          len(r.state.Inventory),
		Recovered:      r.mgr.RecoveryUsed(),
		MigrationSteps: r.mgr.LastMigrationSteps(),
		SHA256:         r.mgr.LastSHA256Hex(),
	}
}

// NewCommand returns the new command.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:      "new",
		Usage:     "Create a fresh game in a slot",
		ArgsUsage: "SLOT",
		Flags: []cli.Flag{
			&cli.UintFlag{Name: "seed", Usage: "world seed", Value: 1},
			&cli.IntFlag{Name: "ticks", Usage: "simulation ticks to run before saving"},
		},
		Action: func(c *cli.Context) error {
			r, err := open(c, runtimeOptions{seed: uint32(c.Uint("seed"))})
			if err != nil {
				return err
			}
			defer r.Close()

			slot, err := slotArg(c, 0)
			if err != nil {
				return err
			}
			for tick := int64(1); tick <= int64(c.Int("ticks")); tick++ {
				r.state.Step(tick)
			}
			if err := r.mgr.Save(slot); err != nil {
				return err
			}
			r.log.Info("slot created", "slot", slot, "seed", r.state.World.Seed)
			return r.print(r.summary(slot))
		},
	}
}

// LoadCommand returns the load command.
func LoadCommand() *cli.Command {
	return &cli.Command{
		Name:      "load",
		Usage:     "Load a slot (migrating older formats) and summarize it",
		ArgsUsage: "SLOT",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "recover", Usage: "fall back to the newest valid autosave or quicksave"},
			&cli.BoolFlag{Name: "resave", Usage: "write the slot back in the current format after loading"},
		},
		Action: withRuntime(func(c *cli.Context, r *runtime) error {
			slot, err := slotArg(c, 0)
			if err != nil {
				return err
			}
			if c.Bool("recover") {
				recovered, err := r.mgr.LoadWithRecovery(slot)
				if err != nil {
					return err
				}
				if recovered {
					r.log.Warn("slot recovered from fallback", "slot", slot,
						"tamper", r.mgr.LastTamperFlags().String())
				}
			} else if err := r.mgr.Load(slot); err != nil {
				return err
			}
			if c.Bool("resave") {
				if err := r.mgr.Save(slot); err != nil {
					return err
				}
			}
			return r.print(r.summary(slot))
		}),
	}
}

// BackupCommand returns the backup command.
func BackupCommand() *cli.Command {
	return &cli.Command{
		Name:      "backup",
		Usage:     "Copy a slot to a timestamped backup and prune old backups",
		ArgsUsage: "SLOT",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "keep", Usage: "backups to keep (default save.backup_keep)"},
		},
		Action: withRuntime(func(c *cli.Context, r *runtime) error {
			slot, err := slotArg(c, 0)
			if err != nil {
				return err
			}
			keep := r.cfg.Save.BackupKeep
			if c.IsSet("keep") {
				keep = c.Int("keep")
			}
			name, err := r.mgr.BackupRotate(slot, keep)
			if err != nil {
				return err
			}
			return r.print(map[string]any{"slot": slot, "backup": name, "keep": keep})
		}),
	}
}

// DeleteCommand returns the delete command.
func DeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Remove a slot and its JSON export",
		ArgsUsage: "SLOT",
		Action: withRuntime(func(c *cli.Context, r *runtime) error {
			slot, err := slotArg(c, 0)
			if err != nil {
				return err
			}
			if err := r.mgr.DeleteSlot(slot); err != nil {
				return err
			}
			fmt.Fprintf(r.w, "deleted %s\n", persist.SlotName(slot))
			return nil
		}),
	}
}

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build and save format information",
		Action: func(c *cli.Context) error {
			format, err := outputFormat(c)
			if err != nil {
				return err
			}
			return format.Format(c.App.Writer, buildinfo.Get())
		},
	}
}
