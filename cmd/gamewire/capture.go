package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/gamewire/internal/errors"
	"github.com/vango-dev/gamewire/pkg/capture"
	"github.com/vango-dev/gamewire/pkg/protocol"
)

func captureCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Manage reference captures",
		Long: `Store, list and verify reference captures.

The store is chosen by the capture section of gamewire.json: a
directory of .gwc files, a bbolt database or an S3 bucket.`,
	}
	cmd.AddCommand(
		capturePutCmd(flags),
		captureGetCmd(flags),
		captureListCmd(flags),
		captureVerifyCmd(flags),
	)
	return cmd
}

func capturePutCmd(flags *globalFlags) *cobra.Command {
	var (
		note   string
		source string
		file   string
	)

	cmd := &cobra.Command{
		Use:   "put [opcode] [payload-hex]",
		Short: "Store frames",
		Long: `Store frames as reference captures and print one key per frame.

With --file every frame in the file is stored.

Examples:
  gamewire capture put SMSG_CHARACTER_RENAME_RESULT 0130417274686173 --note "rename ok"
  gamewire capture put --file frame.bin --source realm-eu-1`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.configDir)
			if err != nil {
				return err
			}
			reg := newRegistry(cfg, cfg.Logger(cmd.ErrOrStderr()))

			var frames []*protocol.Frame
			switch {
			case file != "":
				if frames, err = readFrameFile(file); err != nil {
					return err
				}
			case len(args) == 2:
				op, err := parseOpcode(reg, args[0])
				if err != nil {
					return err
				}
				payload, err := parseHex(args[1])
				if err != nil {
					return err
				}
				frames = append(frames, protocol.NewFrame(op, payload))
			default:
				return fmt.Errorf("need an opcode and payload, or --file")
			}

			store, closer, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			for _, f := range frames {
				rec := capture.NewRecord(f.Opcode, f.Payload, source)
				rec.Note = note
				key, err := store.Put(cmd.Context(), rec)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "Free-form note stored with the frame")
	cmd.Flags().StringVar(&source, "source", "cli", "Where the frame came from")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read binary frames from a file")

	return cmd
}

func captureGetCmd(flags *globalFlags) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "get <key>...",
		Short: "Export stored frames",
		Long: `Write stored frames back to back as binary frames, ready for
'gamewire decode --file'. A key may be shortened to any unique prefix.

Examples:
  gamewire capture get 3f2a9c41d0b7e815 -o rename.bin
  gamewire capture get 3f2a9c41 77d0e1ab > both.bin`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.configDir)
			if err != nil {
				return err
			}
			store, closer, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx := cmd.Context()
			keys, err := store.List(ctx)
			if err != nil {
				return err
			}
			frames := make([]*protocol.Frame, 0, len(args))
			for _, prefix := range args {
				key, err := resolveKey(keys, prefix)
				if err != nil {
					return err
				}
				rec, err := store.Get(ctx, key)
				if err != nil {
					return err
				}
				frames = append(frames, rec.Frame())
			}
			return writeFrameFile(cmd.OutOrStdout(), out, frames...)
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "Write to a file instead of stdout")

	return cmd
}

// resolveKey expands a key prefix against the stored keys.
func resolveKey(keys []string, prefix string) (string, error) {
	var match string
	for _, key := range keys {
		if !strings.HasPrefix(key, strings.ToLower(prefix)) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("capture key prefix %q is ambiguous", prefix)
		}
		match = key
	}
	if match == "" {
		return "", fmt.Errorf("capture %q: %w", prefix, capture.ErrNotFound)
	}
	return match, nil
}

func captureListCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored frames",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.configDir)
			if err != nil {
				return err
			}
			reg := newRegistry(cfg, cfg.Logger(cmd.ErrOrStderr()))
			store, closer, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx := cmd.Context()
			keys, err := store.List(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tNAME\tSIZE\tSOURCE\tNOTE")
			for _, key := range keys {
				rec, err := store.Get(ctx, key)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", key[:16], reg.Name(rec.Opcode), len(rec.Payload), rec.Source, rec.Note)
			}
			return w.Flush()
		},
	}
}

func captureVerifyCmd(flags *globalFlags) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Replay every capture through the codec",
		Long: `Decode every stored frame and encode it again.

A frame fails when it does not decode or when the re-encoded bytes
differ from the capture. The command exits non-zero if any frame fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.configDir)
			if err != nil {
				return err
			}
			logger := cfg.Logger(cmd.ErrOrStderr())
			reg := newRegistry(cfg, logger)
			store, closer, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			out := cmd.OutOrStdout()
			sum, err := capture.Verify(cmd.Context(), store, reg, logger, func(r capture.Result) {
				if r.OK() {
					if !quiet {
						success(out, "%s %s", r.Key[:16], r.Name)
					}
					return
				}
				warn(out, "%s %s: %s", r.Key[:16], r.Name, r.Err)
				if code := errors.Code(r.Err); code != "" {
					info(out, "see 'gamewire explain %s'", code)
				}
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d frames, %d passed, %d failed\n", sum.Total, sum.Passed, sum.Failed)
			if sum.Failed > 0 {
				return fmt.Errorf("%d of %d captures failed verification", sum.Failed, sum.Total)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print failures")

	return cmd
}
