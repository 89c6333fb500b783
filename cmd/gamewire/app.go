package main

import (
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vango-dev/gamewire/internal/config"
	"github.com/vango-dev/gamewire/internal/errors"
	"github.com/vango-dev/gamewire/pkg/capture"
	"github.com/vango-dev/gamewire/pkg/messages"
	"github.com/vango-dev/gamewire/pkg/protocol"
)

// loadConfig reads the config in dir, falling back to defaults when the
// directory has none.
func loadConfig(dir string) (*config.Config, error) {
	if !config.Exists(dir) {
		return config.New(), nil
	}
	return config.Load(dir)
}

func newRegistry(cfg *config.Config, logger *slog.Logger, opts ...messages.RegistryOption) *messages.Registry {
	opts = append([]messages.RegistryOption{
		messages.WithLimits(cfg.ReferenceLimits()),
		messages.WithLogger(logger),
	}, opts...)
	return messages.NewRegistry(opts...)
}

// openStore opens the configured capture store. The returned closer is
// never nil.
func openStore(cfg *config.Config) (capture.Store, io.Closer, error) {
	comp := cfg.CaptureCompression()
	switch cfg.Capture.Backend {
	case config.BackendS3:
		s3cfg := cfg.Capture.S3
		client := capture.NewS3Client(capture.S3ClientOptions{
			Region:       s3cfg.Region,
			Endpoint:     s3cfg.Endpoint,
			UsePathStyle: s3cfg.UsePathStyle,
		})
		return capture.NewS3Store(client, s3cfg.Bucket, s3cfg.Prefix, comp), nopCloser{}, nil
	case config.BackendBolt:
		store, err := capture.OpenBoltStore(filepath.Join(cfg.CapturePath(), "captures.db"), comp, capture.BoltOptions{})
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		store, err := capture.NewFileStore(cfg.CapturePath(), comp)
		if err != nil {
			return nil, nil, err
		}
		return store, nopCloser{}, nil
	}
}

// parseOpcode accepts a catalog name or a number ("0x2BC5", "11205").
func parseOpcode(reg *messages.Registry, s string) (protocol.Opcode, error) {
	for _, e := range reg.Entries() {
		if strings.EqualFold(e.Name, s) {
			return e.Opcode, nil
		}
	}
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, errors.New("W003").
			WithDetail("\"" + s + "\" is neither a catalog name nor a 16-bit number").
			WithSuggestion("Run 'gamewire opcodes' to list known opcodes")
	}
	return protocol.Opcode(v), nil
}

// parseHex decodes hex with optional spaces, colons or a 0x prefix.
func parseHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	s = strings.NewReplacer(" ", "", ":", "", "\n", "", "\t", "").Replace(s)
	return hex.DecodeString(s)
}

// readFrameFile reads every frame stored back to back in path. A file
// that ends inside a frame is a W001 error naming the frame index.
func readFrameFile(path string) ([]*protocol.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var frames []*protocol.Frame
	for {
		frame, err := protocol.ReadFrame(f)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.FromDecodeError(err).
				WithDetail(path + ": frame " + strconv.Itoa(len(frames)) + ": " + err.Error())
		}
		frames = append(frames, frame)
	}
	if len(frames) == 0 {
		return nil, errors.New("W001").WithDetail(path + ": file holds no frames")
	}
	return frames, nil
}

// writeFrameFile writes frames back to back, to stdout when path is
// empty or "-".
func writeFrameFile(stdout io.Writer, path string, frames ...*protocol.Frame) error {
	if path == "" || path == "-" {
		return writeFrames(stdout, frames)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeFrames(f, frames); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeFrames(w io.Writer, frames []*protocol.Frame) error {
	for _, frame := range frames {
		if err := protocol.WriteFrame(w, frame); err != nil {
			return err
		}
	}
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
