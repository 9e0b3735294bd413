package model

import (
	"encoding/binary"
	"encoding/json"

	"github.com/pkg/errors"
)

// Kind discriminates the payload carried by a PluginData value.
type Kind uint8

const (
	// KindBytes is a raw in-memory buffer.
	KindBytes Kind = iota + 1
	// KindPath is a reference to a file on disk.
	KindPath
	// KindStructured is a JSON-like structured value.
	KindStructured
	// KindList is an ordered list of PluginData, used by multi-output stages.
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindBytes:
		return "bytes"
	case KindPath:
		return "path"
	case KindStructured:
		return "structured"
	case KindList:
		return "list"
	}

	return "unknown"
}

// PluginData is the tagged value handed between stages and stored in the
// result cache. Payloads are treated as immutable once wrapped: Clone shares
// the underlying buffers, which is what makes every stage-to-stage hand-off
// and cache write cheap.
type PluginData struct {
	kind  Kind
	bytes []byte
	path  string
	value any
	list  []PluginData
}

// NewBytes wraps a raw buffer. The caller must not mutate b afterwards.
func NewBytes(b []byte) PluginData {
	return PluginData{kind: KindBytes, bytes: b}
}

// NewPath wraps a reference to a file on disk.
func NewPath(path string) PluginData {
	return PluginData{kind: KindPath, path: path}
}

// NewStructured wraps a JSON-like value (maps, slices, strings, numbers).
// The value must round-trip through encoding/json.
func NewStructured(v any) PluginData {
	return PluginData{kind: KindStructured, value: v}
}

// NewList wraps an ordered list of values, one per output of a
// multi-output stage.
func NewList(items ...PluginData) PluginData {
	return PluginData{kind: KindList, list: items}
}

// Kind reports which variant the value holds. The zero PluginData has
// kind 0 and holds nothing.
func (d PluginData) Kind() Kind { return d.kind }

// IsZero reports whether the value holds no payload at all.
func (d PluginData) IsZero() bool { return d.kind == 0 }

// Bytes returns the raw buffer when the value holds one.
func (d PluginData) Bytes() ([]byte, bool) {
	return d.bytes, d.kind == KindBytes
}

// Path returns the file reference when the value holds one.
func (d PluginData) Path() (string, bool) {
	return d.path, d.kind == KindPath
}

// Structured returns the structured value when the value holds one.
func (d PluginData) Structured() (any, bool) {
	return d.value, d.kind == KindStructured
}

// List returns the contained values when the value holds a list.
func (d PluginData) List() ([]PluginData, bool) {
	return d.list, d.kind == KindList
}

// Clone returns an independent handle on the same payload. Buffers and
// structured values are shared, not copied; list headers are duplicated so
// the clone cannot observe later appends.
func (d PluginData) Clone() PluginData {
	if d.kind != KindList {
		return d
	}

	items := make([]PluginData, len(d.list))
	for i, item := range d.list {
		items[i] = item.Clone()
	}

	return PluginData{kind: KindList, list: items}
}

var errUnknownKind = errors.New("plugin data holds no payload")

// AppendCanonical appends a deterministic byte encoding of the value to dst.
// Two structurally equal values always produce the same encoding, which is
// what cache keys are hashed over. Structured values go through
// encoding/json, whose map-key ordering is stable.
func (d PluginData) AppendCanonical(dst []byte) ([]byte, error) {
	dst = append(dst, byte(d.kind))

	switch d.kind {
	case KindBytes:
		dst = binary.BigEndian.AppendUint64(dst, uint64(len(d.bytes)))
		dst = append(dst, d.bytes...)
	case KindPath:
		dst = binary.BigEndian.AppendUint64(dst, uint64(len(d.path)))
		dst = append(dst, d.path...)
	case KindStructured:
		enc, err := json.Marshal(d.value)
		if err != nil {
			return nil, errors.Wrap(err, "unable to encode structured value")
		}
		dst = binary.BigEndian.AppendUint64(dst, uint64(len(enc)))
		dst = append(dst, enc...)
	case KindList:
		dst = binary.BigEndian.AppendUint64(dst, uint64(len(d.list)))
		for _, item := range d.list {
			var err error
			dst, err = item.AppendCanonical(dst)
			if err != nil {
				return nil, err
			}
		}
	default:
		return nil, errUnknownKind
	}

	return dst, nil
}

// Canonical returns the deterministic byte encoding of the value.
func (d PluginData) Canonical() ([]byte, error) {
	return d.AppendCanonical(nil)
}
