package capture

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/vango-dev/gamewire/pkg/protocol"
)

// Compression selects how a container body is stored.
type Compression uint8

const (
	// CompressionNone stores the body as-is.
	CompressionNone Compression = 0

	// CompressionLZ4 favours speed. Good for bulk capture while a
	// session is live.
	CompressionLZ4 Compression = 1

	// CompressionZstd favours ratio. Good for archived captures.
	CompressionZstd Compression = 2
)

// String returns the name used in configuration and on the command line.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression converts a name from String back into a Compression.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("capture: unknown compression %q", name)
	}
}

const (
	containerMagic      = "GWC1"
	containerHeaderSize = len(containerMagic) + 1 + 4

	// maxBodySize bounds the declared body size so a corrupt header
	// cannot force a large allocation. A record is one frame plus a few
	// short provenance strings.
	maxBodySize = protocol.FrameHeaderSize + protocol.MaxPayloadSize + 64*1024
)

// Container errors.
var (
	ErrNotContainer = errors.New("capture: not a capture container")
	ErrCorrupt      = errors.New("capture: corrupt container")
)

// errIncompressible is returned by compressBody when the compressed form
// is no smaller than the input. Callers store the body uncompressed.
var errIncompressible = errors.New("incompressible")

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("capture: creating zstd encoder: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxBodySize))
	if err != nil {
		panic("capture: creating zstd decoder: " + err.Error())
	}
}

// Marshal serializes r into a container, compressing the body with c.
// Bodies that do not shrink are stored uncompressed and tagged as such.
func Marshal(r *Record, c Compression) ([]byte, error) {
	body, err := encodeRecord(r)
	if err != nil {
		return nil, err
	}

	stored, err := compressBody(body, c)
	if errors.Is(err, errIncompressible) {
		stored, c = body, CompressionNone
	} else if err != nil {
		return nil, err
	}

	e := protocol.NewEncoderWithCap(containerHeaderSize + len(stored))
	e.WriteString(containerMagic)
	e.WriteUint8(uint8(c))
	e.WriteUint32(uint32(len(body)))
	e.WriteBytes(stored)
	return e.Bytes(), nil
}

// Unmarshal parses a container produced by Marshal.
func Unmarshal(data []byte) (*Record, error) {
	d := protocol.NewDecoder(data)
	magic, err := d.ReadString(len(containerMagic))
	if err != nil || magic != containerMagic {
		return nil, ErrNotContainer
	}
	tag, err := d.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	size, err := d.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if size > maxBodySize {
		return nil, fmt.Errorf("%w: body size %d exceeds %d", ErrCorrupt, size, maxBodySize)
	}
	stored, err := d.ReadBytes(d.Remaining())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	body, err := decompressBody(stored, Compression(tag), int(size))
	if err != nil {
		return nil, err
	}
	return decodeRecord(body)
}

func encodeRecord(r *Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	defer msgpack.PutEncoder(enc)
	enc.Reset(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("capture: encoding record: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeRecord(body []byte) (*Record, error) {
	dec := msgpack.GetDecoder()
	defer msgpack.PutDecoder(dec)
	dec.Reset(bytes.NewReader(body))
	var r Record
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &r, nil
}

func compressBody(body []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return body, nil
	case CompressionZstd:
		out := zstdEncoder.EncodeAll(body, make([]byte, 0, len(body)))
		if len(out) >= len(body) {
			return nil, errIncompressible
		}
		return out, nil
	case CompressionLZ4:
		out := make([]byte, lz4.CompressBlockBound(len(body)))
		n, err := lz4.CompressBlock(body, out, nil)
		if err != nil {
			return nil, fmt.Errorf("capture: lz4 compress: %w", err)
		}
		// CompressBlock reports 0 for input it cannot shrink.
		if n == 0 || n >= len(body) {
			return nil, errIncompressible
		}
		return out[:n], nil
	default:
		return nil, fmt.Errorf("capture: unknown compression %s", c)
	}
}

func decompressBody(stored []byte, c Compression, size int) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(stored) != size {
			return nil, fmt.Errorf("%w: body is %d bytes, header says %d", ErrCorrupt, len(stored), size)
		}
		return stored, nil
	case CompressionZstd:
		out, err := zstdDecoder.DecodeAll(stored, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrCorrupt, err)
		}
		if len(out) != size {
			return nil, fmt.Errorf("%w: zstd produced %d bytes, header says %d", ErrCorrupt, len(out), size)
		}
		return out, nil
	case CompressionLZ4:
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(stored, out)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %v", ErrCorrupt, err)
		}
		if n != size {
			return nil, fmt.Errorf("%w: lz4 produced %d bytes, header says %d", ErrCorrupt, n, size)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown compression tag %d", ErrCorrupt, uint8(c))
	}
}
