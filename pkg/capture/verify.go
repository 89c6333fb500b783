package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vango-dev/gamewire/pkg/messages"
	"github.com/vango-dev/gamewire/pkg/protocol"
)

// ErrMismatch is reported when a decoded record encodes to different bytes.
var ErrMismatch = errors.New("capture: re-encoded payload differs")

// Result is the outcome of verifying one record.
type Result struct {
	Key    string
	Opcode protocol.Opcode
	Name   string
	Source string

	// Err is nil for a record that decoded and re-encoded to identical
	// bytes.
	Err error
}

// OK reports whether the record round-tripped.
func (r Result) OK() bool {
	return r.Err == nil
}

// Summary counts verification outcomes.
type Summary struct {
	Total  int
	Passed int
	Failed int
}

// Verify replays every record in store through reg. fn, if non-nil, is
// called once per record in key order. Only store failures abort the
// run; a record that fails to decode is counted and reported through fn.
func Verify(ctx context.Context, store Store, reg *messages.Registry, logger *slog.Logger, fn func(Result)) (Summary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	keys, err := store.List(ctx)
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	for _, key := range keys {
		rec, err := store.Get(ctx, key)
		if err != nil {
			return sum, err
		}
		res := Check(reg, rec)
		res.Key = key

		sum.Total++
		if res.OK() {
			sum.Passed++
		} else {
			sum.Failed++
			logger.Warn("capture mismatch", "key", key, "opcode", rec.Opcode.String(), "error", res.Err)
		}
		if fn != nil {
			fn(res)
		}
	}
	logger.Info("capture verified", "total", sum.Total, "passed", sum.Passed, "failed", sum.Failed)
	return sum, nil
}

// Check decodes rec with reg and encodes the result again.
func Check(reg *messages.Registry, rec *Record) Result {
	res := Result{
		Key:    rec.Key(),
		Opcode: rec.Opcode,
		Name:   reg.Name(rec.Opcode),
		Source: rec.Source,
	}
	msg, err := reg.Decode(rec.Opcode, rec.Payload)
	if err != nil {
		res.Err = err
		return res
	}
	out, err := reg.Encode(msg)
	if err != nil {
		res.Err = err
		return res
	}
	if !bytes.Equal(out, rec.Payload) {
		res.Err = fmt.Errorf("%w at byte %d (%d bytes captured, %d encoded)",
			ErrMismatch, firstDiff(out, rec.Payload), len(rec.Payload), len(out))
	}
	return res
}

func firstDiff(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
