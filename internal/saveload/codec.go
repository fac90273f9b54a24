package saveload

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/nlupugla/saveload/internal/variant"
)

// Format versions of the file form.
const (
	// FormatVersionLegacy is the unversioned form written by the original
	// addon: a little-endian uint32 body length, then the encoded structured
	// form.
	FormatVersionLegacy uint32 = 0

	// FormatVersion is the current version: Magic, a little-endian uint32
	// version, then the encoded structured form.
	FormatVersion uint32 = 1
)

// Magic opens every versioned blob. A legacy blob starts with its body
// length instead; only a body of exactly 0x444c5653 bytes could be mistaken
// for the magic.
var Magic = []byte("SVLD")

const (
	headerSize       = 8
	legacyHeaderSize = 4
)

// ErrUnknownVersion is wrapped by format errors for blobs written by a newer
// format.
var ErrUnknownVersion = errors.New("unknown format version")

// EncodeState returns the file form of s at the given format version.
func EncodeState(s *State, version uint32) ([]byte, error) {
	body, err := variant.Marshal(ToStructured(s))
	if err != nil {
		return nil, &Error{Code: ErrCodeType, Message: "snapshot contains a non-serializable value", Err: err}
	}
	switch version {
	case FormatVersionLegacy:
		out := make([]byte, 0, legacyHeaderSize+len(body))
		out = binary.LittleEndian.AppendUint32(out, uint32(len(body)))
		return append(out, body...), nil
	case FormatVersion:
		out := make([]byte, 0, headerSize+len(body))
		out = append(out, Magic...)
		out = binary.LittleEndian.AppendUint32(out, version)
		return append(out, body...), nil
	}
	return nil, &Error{Code: ErrCodeFormat, Message: fmt.Sprintf("cannot write version %d", version), Err: ErrUnknownVersion}
}

// DecodeState parses a blob in any supported format version. Every failure
// is a format error: a blob that fails to decode cannot be partly trusted.
func DecodeState(blob []byte) (*State, uint32, error) {
	version := FormatVersionLegacy
	var body []byte
	if bytes.HasPrefix(blob, Magic) {
		if len(blob) < headerSize {
			return nil, 0, &Error{Code: ErrCodeFormat, Message: "truncated header", Err: variant.ErrTruncated}
		}
		version = binary.LittleEndian.Uint32(blob[len(Magic):])
		body = blob[headerSize:]
	} else {
		var err error
		if body, err = legacyBody(blob); err != nil {
			return nil, version, err
		}
	}
	if version > FormatVersion {
		return nil, version, &Error{Code: ErrCodeFormat, Message: fmt.Sprintf("version %d", version), Err: ErrUnknownVersion}
	}

	v, err := variant.Unmarshal(body)
	if err != nil {
		return nil, version, &Error{Code: ErrCodeFormat, Message: "corrupt or incompatible snapshot", Err: err}
	}
	d, ok := v.(variant.Dictionary)
	if !ok {
		return nil, version, &Error{Code: ErrCodeFormat, Message: fmt.Sprintf("top level must be Dictionary, got %s", v.Kind())}
	}
	s, err := FromStructured(d)
	if err != nil {
		return nil, version, err
	}
	return s, version, nil
}

// legacyBody strips the length prefix of a legacy blob. The length must
// cover the rest of the blob exactly.
func legacyBody(blob []byte) ([]byte, error) {
	if len(blob) < legacyHeaderSize {
		return nil, &Error{Code: ErrCodeFormat, Message: "truncated length prefix", Err: variant.ErrTruncated}
	}
	n := uint64(binary.LittleEndian.Uint32(blob))
	body := blob[legacyHeaderSize:]
	switch {
	case n > uint64(len(body)):
		return nil, &Error{Code: ErrCodeFormat, Message: fmt.Sprintf("length prefix %d exceeds %d byte body", n, len(body)), Err: variant.ErrTruncated}
	case n < uint64(len(body)):
		return nil, &Error{Code: ErrCodeFormat, Message: fmt.Sprintf("%d bytes after a %d byte body", uint64(len(body))-n, n), Err: variant.ErrTrailingData}
	}
	return body, nil
}

// Serialize builds a snapshot and returns its file form. payload is an
// opaque, caller-defined value carried for format options; it is not
// interpreted.
func (s *Saveload) Serialize(payload any) ([]byte, *Report, error) {
	if payload != nil {
		s.logger.Debug("serialize payload ignored", "type", fmt.Sprintf("%T", payload))
	}
	state, r := s.Build()
	blob, err := EncodeState(state, s.version)
	if err != nil {
		return nil, r, err
	}
	return blob, r, nil
}

// Deserialize decodes blob and applies it. Nothing is applied when the blob
// does not decode.
func (s *Saveload) Deserialize(blob []byte, payload any) (*Report, error) {
	if payload != nil {
		s.logger.Debug("deserialize payload ignored", "type", fmt.Sprintf("%T", payload))
	}
	state, version, err := DecodeState(blob)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("snapshot decoded", "version", version, "bytes", len(blob))
	return s.Apply(state), nil
}

// Save serializes a snapshot to path. The blob is written to a temporary
// file in the same directory and renamed over path, so an interrupted save
// leaves any previous file intact.
func (s *Saveload) Save(path string, payload any) (*Report, error) {
	blob, r, err := s.Serialize(payload)
	if err != nil {
		return r, err
	}
	if err := s.writeFile(path, blob); err != nil {
		return r, err
	}
	s.logger.Info("snapshot saved", "path", path, "bytes", len(blob), "digest", variant.SnapshotDigest(blob))
	return r, nil
}

// Load reads path and applies the snapshot it holds.
func (s *Saveload) Load(path string, payload any) (*Report, error) {
	blob, err := s.readFile(path)
	if err != nil {
		return nil, err
	}
	r, err := s.Deserialize(blob, payload)
	if err != nil {
		var se *Error
		if errors.As(err, &se) && se.Path == "" {
			se.Path = path
		}
		return nil, err
	}
	s.logger.Info("snapshot loaded", "path", path, "bytes", len(blob), "warnings", r.Len())
	return r, nil
}

// resolve makes relative paths absolute against the working directory when
// the default host filesystem is in use.
func (s *Saveload) resolve(path string) string {
	if !s.hostFS || filepath.IsAbs(path) {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func (s *Saveload) writeFile(path string, blob []byte) (err error) {
	path = s.resolve(path)
	ioErr := func(msg string, cause error) error {
		return &Error{Code: ErrCodeIO, Message: msg, Path: path, Err: cause}
	}

	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return ioErr("cannot create directory", err)
	}
	tmp, err := s.fs.TempFile(dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return ioErr("cannot create temporary file", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = s.fs.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(blob); err != nil {
		_ = tmp.Close()
		return ioErr("write failed", err)
	}
	if err := tmp.Close(); err != nil {
		return ioErr("close failed", err)
	}
	if err := s.fs.Rename(tmpName, path); err != nil {
		return ioErr("rename failed", err)
	}
	return nil
}

func (s *Saveload) readFile(path string) ([]byte, error) {
	path = s.resolve(path)
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, &Error{Code: ErrCodeIO, Message: "cannot open snapshot", Path: path, Err: err}
	}
	defer f.Close()

	blob, err := io.ReadAll(f)
	if err != nil {
		return nil, &Error{Code: ErrCodeIO, Message: "read failed", Path: path, Err: err}
	}
	return blob, nil
}

// BlobStore persists serialized snapshots under named slots.
type BlobStore interface {
	// Put stores blob as the newest snapshot of slot and returns its digest.
	Put(ctx context.Context, slot string, blob []byte) (string, error)

	// Get returns the newest snapshot of slot.
	Get(ctx context.Context, slot string) ([]byte, error)
}

// SaveTo serializes a snapshot into slot of store.
func (s *Saveload) SaveTo(ctx context.Context, store BlobStore, slot string, payload any) (*Report, error) {
	blob, r, err := s.Serialize(payload)
	if err != nil {
		return r, err
	}
	digest, err := store.Put(ctx, slot, blob)
	if err != nil {
		return r, &Error{Code: ErrCodeIO, Message: "store write failed", Path: slot, Err: err}
	}
	s.logger.Info("snapshot stored", "slot", slot, "bytes", len(blob), "digest", digest)
	return r, nil
}

// LoadFrom applies the newest snapshot of slot.
func (s *Saveload) LoadFrom(ctx context.Context, store BlobStore, slot string, payload any) (*Report, error) {
	blob, err := store.Get(ctx, slot)
	if err != nil {
		return nil, &Error{Code: ErrCodeIO, Message: "store read failed", Path: slot, Err: err}
	}
	return s.Deserialize(blob, payload)
}
