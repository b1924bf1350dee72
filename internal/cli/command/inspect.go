package command

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/roguesave/internal/cli/output"
	"github.com/yndnr/roguesave/internal/persist"
)

// fileRow is one line of the ls output.
type fileRow struct {
	Name     string    `json:"name"`
	Kind     string    `json:"kind"`
	Size     int64     `json:"size"`
	Version  uint32    `json:"version"`
	Modified time.Time `json:"modified"`
	Status   string    `json:"status"`
}

// ListCommand returns the ls command.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:    "ls",
		Aliases: []string{"list"},
		Usage:   "List save files in the store and validate each one",
		Action: withRuntime(func(c *cli.Context, r *runtime) error {
			entries, err := r.store.List("")
			if err != nil {
				return err
			}
			rows := make([]fileRow, 0, len(entries))
			for _, e := range entries {
				row := fileRow{Name: e.Name, Kind: persist.TargetKind(e.Name), Size: e.Size}
				if e.ModTime > 0 {
					row.Modified = time.UnixMilli(e.ModTime)
				}
				data, err := r.store.Read(e.Name)
				if err != nil {
					row.Status = err.Error()
					rows = append(rows, row)
					continue
				}
				info, flags, err := persist.Verify(data, r.signer)
				switch {
				case err == nil:
					row.Version = info.Version
					row.Status = "ok"
				case flags != 0:
					row.Status = "tampered: " + flags.String()
				default:
					row.Status = fmt.Sprintf("invalid [%d]", persist.CodeOf(err))
				}
				rows = append(rows, row)
			}
			if _, ok := r.out.(*output.TableFormatter); !ok {
				return r.print(rows)
			}

			t := output.NewTable("NAME", "KIND", "SIZE", "VERSION", "MODIFIED", "STATUS")
			for _, row := range rows {
				version, modified := "-", "-"
				if row.Version > 0 {
					version = strconv.FormatUint(uint64(row.Version), 10)
				}
				if !row.Modified.IsZero() {
					modified = humanize.Time(row.Modified)
				}
				t.AddRow(row.Name, row.Kind, humanize.IBytes(uint64(row.Size)), version, modified, row.Status)
			}
			return r.print(t)
		}),
	}
}

// InspectCommand returns the inspect command.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Show the descriptor and section layout of a slot",
		ArgsUsage: "SLOT",
		Action: withRuntime(func(c *cli.Context, r *runtime) error {
			slot, err := slotArg(c, 0)
			if err != nil {
				return err
			}
			info, err := r.mgr.Inspect(slot)
			if err != nil {
				return err
			}
			if _, ok := r.out.(*output.TableFormatter); !ok {
				return r.print(info)
			}

			hdr := output.NewTable("FIELD", "VALUE")
			hdr.AddRow("version", strconv.FormatUint(uint64(info.Version), 10))
			hdr.AddRow("timestamp", time.Unix(int64(info.Timestamp), 0).UTC().Format(time.RFC3339))
			hdr.AddRow("component_mask", fmt.Sprintf("%#08x", info.ComponentMask))
			hdr.AddRow("sections", strconv.FormatUint(uint64(info.SectionCount), 10))
			hdr.AddRow("total_size", fmt.Sprintf("%d (%s)", info.TotalSize, humanize.IBytes(info.TotalSize)))
			hdr.AddRow("checksum", info.Checksum)
			hdr.AddRow("sha256", info.SHA256)
			hdr.AddRow("signed", strconv.FormatBool(info.Signed))
			if err := r.print(hdr); err != nil {
				return err
			}
			fmt.Fprintln(r.w)
			return r.print(info.Sections)
		}),
	}
}

// verifyRow is one line of the verify output.
type verifyRow struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Code   int    `json:"code"`
	Tamper string `json:"tamper"`
	SHA256 string `json:"sha256,omitempty" table:"wide"`
	Error  string `json:"error,omitempty" table:"wide"`
}

// VerifyCommand returns the verify command.
func VerifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Check integrity of save files without loading them",
		ArgsUsage: "SLOT|FILE...",
		Action: withRuntime(func(c *cli.Context, r *runtime) error {
			if c.NArg() == 0 {
				return errors.New("verify needs at least one slot or file name")
			}
			var rows []verifyRow
			failed := 0
			for i := 0; i < c.NArg(); i++ {
				name, err := fileArg(c, i)
				if err != nil {
					return err
				}
				row := verifyRow{Name: name, Status: "ok", Tamper: persist.TamperFlags(0).String()}
				data, err := r.store.Read(name)
				if err != nil {
					row.Status, row.Code, row.Error = "missing", persist.ErrIO.Code, err.Error()
					rows = append(rows, row)
					failed++
					continue
				}
				info, flags, err := persist.Verify(data, r.signer)
				if err == nil && r.cfg.Signer.Require && r.signer != nil && !info.Signed {
					err = persist.ErrSignature.WithDetails("file is unsigned")
				}
				if err != nil {
					row.Status, row.Code, row.Error = "failed", persist.CodeOf(err), err.Error()
					row.Tamper = flags.String()
					failed++
				} else {
					row.SHA256 = info.SHA256
				}
				rows = append(rows, row)
			}
			if err := r.print(rows); err != nil {
				return err
			}
			if failed > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d files failed verification", failed, len(rows)), 1)
			}
			return nil
		}),
	}
}

// DiffCommand returns the diff command.
func DiffCommand() *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "Compare the sections of two save files by payload fingerprint",
		ArgsUsage: "LEFT RIGHT",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "changed", Usage: "show only sections that differ"},
		},
		Action: withRuntime(func(c *cli.Context, r *runtime) error {
			if c.NArg() != 2 {
				return errors.New("diff needs exactly two slots or file names")
			}
			var blobs [2][]byte
			for i := range blobs {
				name, err := fileArg(c, i)
				if err != nil {
					return err
				}
				if blobs[i], err = r.store.Read(name); err != nil {
					return persist.ErrIO.WithDetails("read %s", name).Wrap(err)
				}
			}
			diffs, err := persist.DiffFiles(blobs[0], blobs[1])
			if err != nil {
				return err
			}
			if c.Bool("changed") {
				kept := diffs[:0]
				for _, d := range diffs {
					if d.Status != persist.DiffSame {
						kept = append(kept, d)
					}
				}
				diffs = kept
			}
			return r.print(diffs)
		}),
	}
}

// ExportCommand returns the export-json command.
func ExportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export-json",
		Usage:     "Write the validated layout of a slot as JSON",
		ArgsUsage: "SLOT",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Usage: "write to a file instead of stdout"},
		},
		Action: withRuntime(func(c *cli.Context, r *runtime) error {
			slot, err := slotArg(c, 0)
			if err != nil {
				return err
			}
			js, err := r.mgr.ExportJSON(slot)
			if err != nil {
				return err
			}
			js = append(js, '\n')
			if path := c.String("out"); path != "" {
				return os.WriteFile(path, js, 0o644)
			}
			_, err = r.w.Write(js)
			return err
		}),
	}
}
