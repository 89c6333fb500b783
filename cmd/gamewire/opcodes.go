package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func opcodesCmd(flags *globalFlags) *cobra.Command {
	var direction string

	cmd := &cobra.Command{
		Use:   "opcodes",
		Short: "List the message catalog",
		Long: `List every message in the catalog with its opcode.

Examples:
  gamewire opcodes
  gamewire opcodes --direction=server`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.configDir)
			if err != nil {
				return err
			}
			reg := newRegistry(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

			prefix := ""
			switch direction {
			case "", "all":
			case "client":
				prefix = "CMSG_"
			case "server":
				prefix = "SMSG_"
			default:
				return fmt.Errorf("unknown direction %q (want client, server or all)", direction)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "OPCODE\tNAME")
			for _, e := range reg.Entries() {
				if strings.HasPrefix(e.Name, prefix) {
					fmt.Fprintf(w, "%s\t%s\n", e.Opcode, e.Name)
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&direction, "direction", "d", "all", "Filter by direction: client, server or all")

	return cmd
}
