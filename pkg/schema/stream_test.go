package schema

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/vango-dev/gamewire/pkg/protocol"
)

// headerMsg carries an optional uint32 and two flags in one bit group.
type headerMsg struct {
	Field *uint32
	Flag1 bool
	Flag2 bool
}

func (m *headerMsg) Serialize(s *Stream) {
	Present(s, &m.Field)
	s.Bit(&m.Flag1)
	s.Bit(&m.Flag2)
	s.Flush()
	if m.Field != nil {
		s.Uint32(m.Field)
	}
}

type pair struct {
	A, B uint8
}

func (p *pair) Serialize(s *Stream) {
	s.Uint8(&p.A)
	s.Uint8(&p.B)
}

// pairList holds at most seven pairs behind a 3-bit count.
type pairList struct {
	Items []pair
}

func (m *pairList) Serialize(s *Stream) {
	Count(s, &m.Items, "items", 3, 7)
	s.Flush()
	EachNested(s, m.Items)
}

func TestHeaderScenario(t *testing.T) {
	v := uint32(42)
	msg := &headerMsg{Field: &v, Flag1: true, Flag2: false}

	data, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	want := []byte{0x03, 0x2A, 0x00, 0x00, 0x00}
	if !bytes.Equal(data, want) {
		t.Fatalf("Encode() = % x, want % x", data, want)
	}

	var got headerMsg
	if err := Decode(data, &got, nil); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !reflect.DeepEqual(&got, msg) {
		t.Errorf("Decode() = %+v, want %+v", got, msg)
	}
}

func TestOptionalAbsent(t *testing.T) {
	msg := &headerMsg{Flag2: true}
	data, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !bytes.Equal(data, []byte{0x04}) {
		t.Fatalf("Encode() = % x, want 04", data)
	}

	got := headerMsg{Field: new(uint32)}
	if err := Decode(data, &got, nil); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Field != nil || got.Flag1 || !got.Flag2 {
		t.Errorf("Decode() = %+v", got)
	}
}

func TestRepeatedScenario(t *testing.T) {
	msg := &pairList{}
	for i := 0; i < 7; i++ {
		msg.Items = append(msg.Items, pair{A: uint8(i), B: uint8(0xF0 + i)})
	}

	data, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(data) != 1+7*2 || data[0] != 0x07 {
		t.Fatalf("Encode() = % x", data)
	}

	var got pairList
	if err := Decode(data, &got, nil); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !reflect.DeepEqual(got.Items, msg.Items) {
		t.Errorf("Items = %v, want %v", got.Items, msg.Items)
	}

	// Count claims 7, bytes for 5 elements.
	short := data[:1+5*2]
	if err := Decode(short, &pairList{}, nil); !errors.Is(err, protocol.ErrTruncated) {
		t.Errorf("Decode(short) error = %v, want ErrTruncated", err)
	}
}

func TestTruncationAtEveryOffset(t *testing.T) {
	v := uint32(0xDEADBEEF)
	msgs := []Composite{
		&headerMsg{Field: &v, Flag1: true},
		&pairList{Items: []pair{{1, 2}, {3, 4}, {5, 6}}},
		&sectionMsg{Before: 1, Inner: inner{Flag: true, Value: 7}, After: 9},
	}

	for _, msg := range msgs {
		data, err := Encode(msg)
		if err != nil {
			t.Fatalf("Encode(%T) error = %v", msg, err)
		}
		for cut := 0; cut < len(data); cut++ {
			fresh := reflect.New(reflect.TypeOf(msg).Elem()).Interface().(Composite)
			err := Decode(data[:cut], fresh, nil)
			if !errors.Is(err, protocol.ErrTruncated) {
				t.Errorf("%T cut at %d: error = %v, want ErrTruncated", msg, cut, err)
			}
		}
	}
}

type boundedList struct {
	Items []pair
}

func (m *boundedList) Serialize(s *Stream) {
	Count(s, &m.Items, "items", 6, 4)
	s.Flush()
	EachNested(s, m.Items)
}

type wideList struct {
	Items []pair
}

func (m *wideList) Serialize(s *Stream) {
	ByteCount(s, &m.Items, "items", 64)
	EachNested(s, m.Items)
}

func TestBoundedCountRejection(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		msg  interface {
			Composite
			items() []pair
		}
	}{
		{name: "bit_count_over_schema_max", data: []byte{0x3F}, msg: &boundedList{}},
		{name: "bit_count_just_over", data: []byte{0x28}, msg: &boundedList{}},
		{name: "byte_count_hostile", data: []byte{0xFF, 0xFF, 0xFF, 0xFF}, msg: &wideList{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Decode(tc.data, tc.msg, nil)
			if !errors.Is(err, protocol.ErrBoundViolation) {
				t.Fatalf("Decode() error = %v, want ErrBoundViolation", err)
			}
			if errors.Is(err, protocol.ErrTruncated) {
				t.Error("bound violation reported as truncation")
			}
			if tc.msg.items() != nil {
				t.Errorf("items allocated despite bound violation: len %d", len(tc.msg.items()))
			}
		})
	}
}

func (m *boundedList) items() []pair { return m.Items }
func (m *wideList) items() []pair    { return m.Items }

func TestEncodeRejectsOverflow(t *testing.T) {
	tooMany := &pairList{Items: make([]pair, 8)}
	if _, err := Encode(tooMany); !errors.Is(err, protocol.ErrBoundViolation) {
		t.Errorf("Encode(8 items in 3 bits) error = %v, want ErrBoundViolation", err)
	}

	var n uint32 = 8
	s := NewWriter(protocol.NewEncoder())
	s.Bits(&n, 3)
	if !errors.Is(s.Err(), ErrFieldOverflow) {
		t.Errorf("Bits(8, 3) error = %v, want ErrFieldOverflow", s.Err())
	}
}

func TestTrailingData(t *testing.T) {
	err := Decode([]byte{0x00, 0xAA}, &headerMsg{}, nil)
	if !errors.Is(err, ErrTrailingData) {
		t.Errorf("Decode() error = %v, want ErrTrailingData", err)
	}
}

// named carries a bit-packed string length and a zero-terminated string.
type named struct {
	Kind    uint8
	Name    string
	Channel string
	Raw     []byte
}

func (m *named) Serialize(s *Stream) {
	BitsOf(s, &m.Kind, 3)
	n := StringLength(s, m.Name, 6)
	s.Flush()
	s.String(&m.Name, n)
	s.CString(&m.Channel, 32)
	s.Bytes(&m.Raw, 2)
}

func TestStrings(t *testing.T) {
	msg := &named{Kind: 5, Name: "Thrall", Channel: "General", Raw: []byte{0xCA, 0xFE}}
	data, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	var got named
	if err := Decode(data, &got, nil); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !reflect.DeepEqual(&got, msg) {
		t.Errorf("Decode() = %+v, want %+v", got, msg)
	}

	long := &named{Name: string(make([]byte, 64)), Raw: []byte{0, 0}}
	if _, err := Encode(long); !errors.Is(err, ErrFieldOverflow) {
		t.Errorf("Encode(64-byte name in 6 bits) error = %v, want ErrFieldOverflow", err)
	}

	badRaw := &named{Raw: []byte{1}}
	if _, err := Encode(badRaw); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("Encode(short raw) error = %v, want ErrLengthMismatch", err)
	}
}

type inner struct {
	Flag  bool
	Value uint16
}

func (m *inner) Serialize(s *Stream) {
	s.Bit(&m.Flag)
	s.Flush()
	s.Uint16(&m.Value)
}

type sectionMsg struct {
	Before uint8
	Inner  inner
	After  uint8
}

func (m *sectionMsg) Serialize(s *Stream) {
	s.Uint8(&m.Before)
	s.Section(func(s *Stream) {
		s.Nested(&m.Inner)
	})
	s.Uint8(&m.After)
}

func TestSection(t *testing.T) {
	msg := &sectionMsg{Before: 0x11, Inner: inner{Flag: true, Value: 0x0203}, After: 0x22}
	data, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	want := []byte{0x11, 0x01, 0x03, 0x02, 0x22}
	if !bytes.Equal(data, want) {
		t.Fatalf("Encode() = % x, want % x", data, want)
	}

	var got sectionMsg
	if err := Decode(data, &got, nil); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got != *msg {
		t.Errorf("Decode() = %+v, want %+v", got, *msg)
	}
}

// maskMsg sizes a bitmask from reference data.
type maskMsg struct {
	Mask []uint8
}

func (m *maskMsg) Serialize(s *Stream) {
	max := protocol.BitmaskBytes(s.Bound("species"))
	Count(s, &m.Mask, "mask", 16, max)
	s.Flush()
	Each(s, m.Mask, func(s *Stream, b *uint8) { s.Uint8(b) })
}

func TestReferenceLimitsReadFresh(t *testing.T) {
	data, err := Encode(&maskMsg{Mask: []uint8{0xFF, 0x01, 0x80}})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	rows := uint64(24)
	calls := 0
	limits := LimitsFunc(func(table string) (uint64, bool) {
		calls++
		return rows, table == "species"
	})

	if err := Decode(data, &maskMsg{}, limits); err != nil {
		t.Fatalf("Decode() with 24 rows error = %v", err)
	}

	rows = 16
	if err := Decode(data, &maskMsg{}, limits); !errors.Is(err, protocol.ErrBoundViolation) {
		t.Fatalf("Decode() with 16 rows error = %v, want ErrBoundViolation", err)
	}
	if calls != 2 {
		t.Errorf("Bound consulted %d times, want 2", calls)
	}

	if err := Decode(data, &maskMsg{}, nil); !errors.Is(err, ErrMissingLimit) {
		t.Errorf("Decode() without limits error = %v, want ErrMissingLimit", err)
	}
	if err := Decode(data, &maskMsg{}, StaticLimits{"species": 17}); err != nil {
		t.Errorf("Decode() with StaticLimits error = %v", err)
	}
}

func TestStickyError(t *testing.T) {
	s := NewReader(protocol.NewDecoder(nil), nil)
	var a uint32
	b := uint8(9)
	s.Uint32(&a)
	s.Uint8(&b)
	if !errors.Is(s.Err(), protocol.ErrTruncated) {
		t.Fatalf("Err() = %v, want ErrTruncated", s.Err())
	}
	if b != 9 {
		t.Errorf("read after failure modified value: %d", b)
	}
}
