package capture

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vango-dev/gamewire/pkg/messages"
	"github.com/vango-dev/gamewire/pkg/protocol"
)

func testRecord(payload []byte) *Record {
	return &Record{
		Opcode:     messages.SMSGCharacterRenameResult,
		Payload:    payload,
		Source:     "realm-eu-1",
		CapturedAt: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		Note:       "rename ok",
	}
}

// renamePayload is CharacterRenameResult{Result: 1, Name: "Arthas"}.
var renamePayload = append([]byte{0x01, 0x30}, "Arthas"...)

func assertSameRecord(t *testing.T, got, want *Record) {
	t.Helper()
	if got.Opcode != want.Opcode || !bytes.Equal(got.Payload, want.Payload) {
		t.Errorf("frame = %s %x, want %s %x", got.Opcode, got.Payload, want.Opcode, want.Payload)
	}
	if got.Source != want.Source || got.Note != want.Note {
		t.Errorf("provenance = %q %q, want %q %q", got.Source, got.Note, want.Source, want.Note)
	}
	if !got.CapturedAt.Equal(want.CapturedAt) {
		t.Errorf("CapturedAt = %v, want %v", got.CapturedAt, want.CapturedAt)
	}
}

func TestRecordKey(t *testing.T) {
	a := testRecord(renamePayload)
	b := testRecord(renamePayload)
	b.Source, b.Note = "elsewhere", ""
	b.CapturedAt = time.Now()

	if a.Key() != b.Key() {
		t.Error("Key() should ignore provenance")
	}
	if !validKey(a.Key()) {
		t.Errorf("Key() = %q is not a 64 char hex digest", a.Key())
	}

	c := testRecord(renamePayload)
	c.Opcode = messages.SMSGMotd
	if a.Key() == c.Key() {
		t.Error("Key() should depend on the opcode")
	}
	d := testRecord(append([]byte{0x02}, renamePayload[1:]...))
	if a.Key() == d.Key() {
		t.Error("Key() should depend on the payload")
	}
}

func TestContainerRoundTrip(t *testing.T) {
	big := bytes.Repeat([]byte("Welcome to the realm. "), 200)
	tests := []struct {
		name    string
		payload []byte
		c       Compression
		wantTag Compression
	}{
		{"none", renamePayload, CompressionNone, CompressionNone},
		{"zstd_small_falls_back", renamePayload, CompressionZstd, CompressionNone},
		{"lz4_small_falls_back", renamePayload, CompressionLZ4, CompressionNone},
		{"zstd", big, CompressionZstd, CompressionZstd},
		{"lz4", big, CompressionLZ4, CompressionLZ4},
		{"empty_payload", nil, CompressionZstd, CompressionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testRecord(tt.payload)
			data, err := Marshal(rec, tt.c)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(data[:4]) != "GWC1" {
				t.Fatalf("magic = %q", data[:4])
			}
			if got := Compression(data[4]); got != tt.wantTag {
				t.Errorf("compression tag = %s, want %s", got, tt.wantTag)
			}
			if tt.wantTag != CompressionNone && len(data) >= len(tt.payload) {
				t.Errorf("compressed container is %d bytes for a %d byte payload", len(data), len(tt.payload))
			}

			got, err := Unmarshal(data)
			if err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			assertSameRecord(t, got, rec)
		})
	}
}

func TestUnmarshalRejects(t *testing.T) {
	good, err := Marshal(testRecord(renamePayload), CompressionNone)
	if err != nil {
		t.Fatal(err)
	}
	big, err := Marshal(testRecord(bytes.Repeat([]byte{7}, 4096)), CompressionZstd)
	if err != nil {
		t.Fatal(err)
	}

	mutate := func(data []byte, f func([]byte)) []byte {
		out := append([]byte(nil), data...)
		f(out)
		return out
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrNotContainer},
		{"bad_magic", mutate(good, func(b []byte) { b[0] = 'X' }), ErrNotContainer},
		{"short_header", good[:6], ErrCorrupt},
		{"unknown_tag", mutate(good, func(b []byte) { b[4] = 9 }), ErrCorrupt},
		{"size_mismatch", mutate(good, func(b []byte) { b[5]++ }), ErrCorrupt},
		{"oversized", mutate(good, func(b []byte) { b[8] = 0xFF }), ErrCorrupt},
		{"truncated_body", good[:len(good)-3], ErrCorrupt},
		{"zstd_garbage", mutate(big, func(b []byte) { copy(b[9:], "garbage!") }), ErrCorrupt},
		{"not_msgpack", append([]byte("GWC1\x00\x01\x00\x00\x00"), 0xC1), ErrCorrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unmarshal(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("Unmarshal() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		got, err := ParseCompression(c.String())
		if err != nil || got != c {
			t.Errorf("ParseCompression(%q) = %v, %v", c.String(), got, err)
		}
	}
	if _, err := ParseCompression("brotli"); err == nil {
		t.Error("ParseCompression(brotli) should fail")
	}
	if got := Compression(7).String(); got != "unknown(7)" {
		t.Errorf("String() = %q", got)
	}
}

// fakeS3 is an in-memory bucket. List pages hold two objects so the
// paginator is exercised.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	f.puts++
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Prefix)
	var names []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			names = append(names, strings.TrimPrefix(k, aws.ToString(in.Bucket)+"/"))
		}
	}
	sort.Strings(names)

	start := 0
	if tok := aws.ToString(in.ContinuationToken); tok != "" {
		start = sort.SearchStrings(names, tok)
	}
	end := min(start+2, len(names))

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(names))}
	for _, name := range names[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(name)})
	}
	if end < len(names) {
		out.NextContinuationToken = aws.String(names[end])
	}
	return out, nil
}

func storeImplementations(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	files, err := NewFileStore(filepath.Join(dir, "files"), CompressionZstd)
	if err != nil {
		t.Fatal(err)
	}
	bolt, err := OpenBoltStore(filepath.Join(dir, "captures.db"), CompressionLZ4, BoltOptions{NoSync: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { bolt.Close() })

	fake := newFakeS3()
	// An unrelated object under a sibling prefix must not be listed.
	fake.objects["wire/other/readme.txt"] = []byte("hi")

	return map[string]Store{
		"file": files,
		"bolt": bolt,
		"s3":   NewS3Store(fake, "wire", "eu/", CompressionNone),
	}
}

func TestStores(t *testing.T) {
	ctx := context.Background()

	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			keys, err := store.List(ctx)
			if err != nil || len(keys) != 0 {
				t.Fatalf("List() on empty store = %v, %v", keys, err)
			}

			var want []string
			recs := map[string]*Record{}
			for i := 0; i < 5; i++ {
				rec := testRecord([]byte{byte(i), 0x30, 'A'})
				key, err := store.Put(ctx, rec)
				if err != nil {
					t.Fatalf("Put() error = %v", err)
				}
				if key != rec.Key() {
					t.Errorf("Put() key = %s, want %s", key, rec.Key())
				}
				want = append(want, key)
				recs[key] = rec
			}
			sort.Strings(want)

			// Same content again is a no-op.
			if _, err := store.Put(ctx, recs[want[0]]); err != nil {
				t.Fatalf("second Put() error = %v", err)
			}

			keys, err = store.List(ctx)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if strings.Join(keys, ",") != strings.Join(want, ",") {
				t.Errorf("List() = %v, want %v", keys, want)
			}

			for _, key := range keys {
				got, err := store.Get(ctx, key)
				if err != nil {
					t.Fatalf("Get(%s) error = %v", key, err)
				}
				assertSameRecord(t, got, recs[key])
			}

			missing := testRecord([]byte("never stored")).Key()
			if _, err := store.Get(ctx, missing); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
			}
			if _, err := store.Get(ctx, "../../etc/passwd"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get(invalid key) error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStoreDetectsTampering(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	store := NewS3Store(fake, "wire", "", CompressionNone)

	key, err := store.Put(ctx, testRecord(renamePayload))
	if err != nil {
		t.Fatal(err)
	}
	other, err := Marshal(testRecord([]byte("swapped")), CompressionNone)
	if err != nil {
		t.Fatal(err)
	}
	fake.objects["wire/"+key+".gwc"] = other

	if _, err := store.Get(ctx, key); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Get() error = %v, want ErrCorrupt", err)
	}
}

func TestFileStoreCanceled(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), CompressionNone)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Put(ctx, testRecord(renamePayload)); !errors.Is(err, context.Canceled) {
		t.Errorf("Put() error = %v, want context.Canceled", err)
	}
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir(), CompressionNone)
	if err != nil {
		t.Fatal(err)
	}

	// Same fields as renamePayload with the unused padding bit set. It
	// decodes, but encodes back with the padding cleared.
	padded := append([]byte{0x01, 0xB0}, "Arthas"...)
	unknown := &Record{Opcode: protocol.Opcode(0x0001), Payload: []byte{1}}

	for _, rec := range []*Record{testRecord(renamePayload), testRecord(padded), unknown} {
		if _, err := store.Put(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	reg := messages.NewRegistry()
	results := map[string]Result{}
	sum, err := Verify(ctx, store, reg, nil, func(r Result) { results[r.Key] = r })
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if sum != (Summary{Total: 3, Passed: 1, Failed: 2}) {
		t.Errorf("Summary = %+v", sum)
	}

	if r := results[testRecord(renamePayload).Key()]; !r.OK() || r.Name != "SMSG_CHARACTER_RENAME_RESULT" {
		t.Errorf("good record result = %+v", r)
	}
	if r := results[testRecord(padded).Key()]; !errors.Is(r.Err, ErrMismatch) || !strings.Contains(r.Err.Error(), "at byte 1") {
		t.Errorf("padded record result = %+v", r)
	}
	if r := results[unknown.Key()]; !errors.Is(r.Err, messages.ErrUnknownOpcode) {
		t.Errorf("unknown opcode result = %+v", r)
	}
}
