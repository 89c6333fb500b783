package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/gamewire/internal/errors"
	"github.com/vango-dev/gamewire/pkg/protocol"
)

func decodeCmd(flags *globalFlags) *cobra.Command {
	var (
		frameHex string
		file     string
	)

	cmd := &cobra.Command{
		Use:   "decode [opcode] [payload-hex]",
		Short: "Decode a payload and print it as JSON",
		Long: `Decode one payload with the catalog schema for its opcode.

The opcode is a catalog name or a number. The payload is hex; spaces
and colons are ignored. With --frame or --file the input is a complete
frame (6 byte header plus payload) and the opcode comes from the header.
A file may hold several frames back to back; each is printed in turn.
Bytes after the last complete frame are an error.

Reference limits (e.g. BattlePetSpecies) come from gamewire.json.

Examples:
  gamewire decode SMSG_MOTD "01 00 00 00 48 69 00"
  gamewire decode 0x2743 0130417274686173
  gamewire decode --frame 0800000043270130417274686173
  gamewire decode --file capture.bin`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.configDir)
			if err != nil {
				return err
			}
			logger := cfg.Logger(cmd.ErrOrStderr())
			reg := newRegistry(cfg, logger)

			var (
				frames []*protocol.Frame
				source = "argv"
			)
			switch {
			case file != "":
				if frames, err = readFrameFile(file); err != nil {
					return err
				}
				source = file
			case frameHex != "":
				data, err := parseHex(frameHex)
				if err != nil {
					return err
				}
				f, err := protocol.DecodeFrame(data)
				if err != nil {
					return errors.FromDecodeError(err).WithSource(source).WithPayload(data)
				}
				frames = append(frames, f)
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
				return fmt.Errorf("need an opcode and payload, --frame or --file")
			}

			for i, f := range frames {
				msg, err := reg.DecodeFrame(f)
				if err != nil {
					src := source
					if len(frames) > 1 {
						src = fmt.Sprintf("%s frame %d", source, i)
					}
					return errors.FromDecodeError(err).WithSource(src).WithPayload(f.Payload)
				}

				out, err := json.MarshalIndent(struct {
					Opcode  string `json:"opcode"`
					Name    string `json:"name"`
					Size    int    `json:"size"`
					Message any    `json:"message"`
				}{f.Opcode.String(), reg.Name(f.Opcode), len(f.Payload), msg}, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&frameHex, "frame", "", "Complete frame as hex")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read binary frames from a file")

	return cmd
}
