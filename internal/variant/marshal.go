package variant

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	headerKindMask = 0xFFFF
	flag64         = 1 << 16

	nodePathNewFormat = 0x80000000
	nodePathAbsolute  = 1

	// MaxDepth bounds container nesting on both encode and decode.
	MaxDepth = 256
)

var (
	// ErrTruncated is returned when the input ends inside a value.
	ErrTruncated = errors.New("variant: truncated input")

	// ErrCorrupt is returned for malformed headers, payloads or counts.
	ErrCorrupt = errors.New("variant: corrupt input")

	// ErrMaxDepth is returned when containers nest deeper than MaxDepth.
	ErrMaxDepth = errors.New("variant: maximum nesting depth exceeded")

	// ErrTrailingData is returned by Unmarshal when bytes remain after the value.
	ErrTrailingData = errors.New("variant: trailing data after value")
)

// Marshal returns the binary form of v. Values containing an RID or object
// reference are rejected with a *NonSerializableError and nothing is produced.
func Marshal(v Value) ([]byte, error) {
	e := &encoder{}
	if err := e.encode(v, 0); err != nil {
		return nil, err
	}
	return e.buf, nil
}

// Encoder writes binary values to a stream.
type Encoder struct {
	w io.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes the binary form of v. Nothing is written on error.
func (enc *Encoder) Encode(v Value) error {
	data, err := Marshal(v)
	if err != nil {
		return err
	}
	_, err = enc.w.Write(data)
	return err
}

type encoder struct {
	buf []byte
}

func (e *encoder) u32(n uint32)  { e.buf = binary.LittleEndian.AppendUint32(e.buf, n) }
func (e *encoder) u64(n uint64)  { e.buf = binary.LittleEndian.AppendUint64(e.buf, n) }
func (e *encoder) f32(f float32) { e.u32(math.Float32bits(f)) }

func (e *encoder) str(s string) {
	e.u32(uint32(len(s)))
	e.buf = append(e.buf, s...)
	for len(e.buf)%4 != 0 {
		e.buf = append(e.buf, 0)
	}
}

func (e *encoder) header(k Kind, wide bool) {
	h := uint32(k)
	if wide {
		h |= flag64
	}
	e.u32(h)
}

func (e *encoder) encode(v Value, depth int) error {
	if depth > MaxDepth {
		return ErrMaxDepth
	}
	if v == nil {
		v = Nil{}
	}
	if c, ok := floatComponents(v); ok {
		e.header(v.Kind(), false)
		for _, f := range c {
			e.f32(f)
		}
		return nil
	}
	if c, ok := intComponents(v); ok {
		e.header(v.Kind(), false)
		for _, n := range c {
			e.u32(uint32(n))
		}
		return nil
	}

	switch x := v.(type) {
	case Nil:
		e.header(KindNil, false)
	case Bool:
		e.header(KindBool, false)
		if x {
			e.u32(1)
		} else {
			e.u32(0)
		}
	case Int:
		if int64(int32(x)) == int64(x) {
			e.header(KindInt, false)
			e.u32(uint32(int32(x)))
		} else {
			e.header(KindInt, true)
			e.u64(uint64(x))
		}
	case Float:
		f := float64(x)
		if math.Float64bits(float64(float32(f))) == math.Float64bits(f) {
			e.header(KindFloat, false)
			e.f32(float32(f))
		} else {
			e.header(KindFloat, true)
			e.u64(math.Float64bits(f))
		}
	case String:
		e.header(KindString, false)
		e.str(string(x))
	case StringName:
		e.header(KindStringName, false)
		e.str(string(x))
	case NodePath:
		e.header(KindNodePath, false)
		e.u32(uint32(len(x.names)) | nodePathNewFormat)
		e.u32(uint32(len(x.subnames)))
		var flags uint32
		if x.absolute {
			flags |= nodePathAbsolute
		}
		e.u32(flags)
		for _, s := range x.names {
			e.str(s)
		}
		for _, s := range x.subnames {
			e.str(s)
		}
	case RID, ObjectRef:
		return &NonSerializableError{Kind: v.Kind()}
	case Dictionary:
		e.header(KindDictionary, false)
		e.u32(uint32(len(x)))
		for _, entry := range x {
			if err := e.encode(entry.Key, depth+1); err != nil {
				return err
			}
			if err := e.encode(entry.Value, depth+1); err != nil {
				return err
			}
		}
	case Array:
		e.header(KindArray, false)
		e.u32(uint32(len(x)))
		for _, elem := range x {
			if err := e.encode(elem, depth+1); err != nil {
				return err
			}
		}
	case PackedByteArray:
		e.header(KindPackedByteArray, false)
		e.u32(uint32(len(x)))
		e.buf = append(e.buf, x...)
		for len(e.buf)%4 != 0 {
			e.buf = append(e.buf, 0)
		}
	case PackedInt32Array:
		e.header(KindPackedInt32Array, false)
		e.u32(uint32(len(x)))
		for _, n := range x {
			e.u32(uint32(n))
		}
	case PackedInt64Array:
		e.header(KindPackedInt64Array, false)
		e.u32(uint32(len(x)))
		for _, n := range x {
			e.u64(uint64(n))
		}
	case PackedFloat32Array:
		e.header(KindPackedFloat32Array, false)
		e.u32(uint32(len(x)))
		for _, f := range x {
			e.f32(f)
		}
	case PackedFloat64Array:
		e.header(KindPackedFloat64Array, false)
		e.u32(uint32(len(x)))
		for _, f := range x {
			e.u64(math.Float64bits(f))
		}
	case PackedStringArray:
		e.header(KindPackedStringArray, false)
		e.u32(uint32(len(x)))
		for _, s := range x {
			e.str(s)
		}
	case PackedVector2Array:
		e.header(KindPackedVector2Array, false)
		e.u32(uint32(len(x)))
		for _, p := range x {
			e.f32(p.X)
			e.f32(p.Y)
		}
	case PackedVector3Array:
		e.header(KindPackedVector3Array, false)
		e.u32(uint32(len(x)))
		for _, p := range x {
			e.f32(p.X)
			e.f32(p.Y)
			e.f32(p.Z)
		}
	case PackedColorArray:
		e.header(KindPackedColorArray, false)
		e.u32(uint32(len(x)))
		for _, c := range x {
			e.f32(c.R)
			e.f32(c.G)
			e.f32(c.B)
			e.f32(c.A)
		}
	case PackedVector4Array:
		e.header(KindPackedVector4Array, false)
		e.u32(uint32(len(x)))
		for _, p := range x {
			e.f32(p.X)
			e.f32(p.Y)
			e.f32(p.Z)
			e.f32(p.W)
		}
	default:
		return fmt.Errorf("variant: cannot encode %T", v)
	}
	return nil
}

// Unmarshal decodes exactly one value from data. Bytes left over after the
// value are an error.
func Unmarshal(data []byte) (Value, error) {
	v, n, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingData, len(data)-n)
	}
	return v, nil
}

// Decode decodes one value from the front of data and reports how many bytes
// it consumed.
func Decode(data []byte) (Value, int, error) {
	d := &decoder{data: data}
	v, err := d.decode(0)
	if err != nil {
		return nil, 0, err
	}
	return v, d.off, nil
}

type decoder struct {
	data []byte
	off  int
}

func (d *decoder) remaining() int { return len(d.data) - d.off }

func (d *decoder) u32() (uint32, error) {
	if d.remaining() < 4 {
		return 0, ErrTruncated
	}
	n := binary.LittleEndian.Uint32(d.data[d.off:])
	d.off += 4
	return n, nil
}

func (d *decoder) u64() (uint64, error) {
	if d.remaining() < 8 {
		return 0, ErrTruncated
	}
	n := binary.LittleEndian.Uint64(d.data[d.off:])
	d.off += 8
	return n, nil
}

func (d *decoder) f32() (float32, error) {
	n, err := d.u32()
	return math.Float32frombits(n), err
}

func (d *decoder) raw(n int) ([]byte, error) {
	padded := (n + 3) &^ 3
	if n < 0 || d.remaining() < padded {
		return nil, ErrTruncated
	}
	b := d.data[d.off : d.off+n]
	d.off += padded
	return b, nil
}

func (d *decoder) str() (string, error) {
	n, err := d.u32()
	if err != nil {
		return "", err
	}
	if int64(n) > int64(d.remaining()) {
		return "", ErrTruncated
	}
	b, err := d.raw(int(n))
	return string(b), err
}

// count reads an element count and rejects counts that cannot fit in the
// remaining input given a minimum element size.
func (d *decoder) count(minSize int) (int, error) {
	n, err := d.u32()
	if err != nil {
		return 0, err
	}
	if int64(n)*int64(minSize) > int64(d.remaining()) {
		return 0, fmt.Errorf("%w: count %d exceeds remaining input", ErrCorrupt, n)
	}
	return int(n), nil
}

func (d *decoder) decode(depth int) (Value, error) {
	if depth > MaxDepth {
		return nil, ErrMaxDepth
	}
	h, err := d.u32()
	if err != nil {
		return nil, err
	}
	k := Kind(h & headerKindMask)
	flags := h &^ headerKindMask
	if !k.Serializable() {
		return nil, &UnsupportedKindError{Tag: uint16(k)}
	}
	if flags&^flag64 != 0 || (flags != 0 && k != KindInt && k != KindFloat) {
		return nil, fmt.Errorf("%w: header flags %#x for %s", ErrCorrupt, flags, k)
	}
	wide := flags&flag64 != 0

	if w, ok := floatWidth[k]; ok {
		c := make([]float32, w)
		for i := range c {
			if c[i], err = d.f32(); err != nil {
				return nil, err
			}
		}
		return floatValue(k, c), nil
	}
	if w, ok := intWidth[k]; ok {
		c := make([]int32, w)
		for i := range c {
			n, err := d.u32()
			if err != nil {
				return nil, err
			}
			c[i] = int32(n)
		}
		return intValue(k, c), nil
	}

	switch k {
	case KindNil:
		return Nil{}, nil
	case KindBool:
		n, err := d.u32()
		if err != nil {
			return nil, err
		}
		if n > 1 {
			return nil, fmt.Errorf("%w: bool payload %d", ErrCorrupt, n)
		}
		return Bool(n == 1), nil
	case KindInt:
		if wide {
			n, err := d.u64()
			return Int(int64(n)), err
		}
		n, err := d.u32()
		return Int(int32(n)), err
	case KindFloat:
		if wide {
			n, err := d.u64()
			return Float(math.Float64frombits(n)), err
		}
		f, err := d.f32()
		return Float(f), err
	case KindString:
		s, err := d.str()
		return String(s), err
	case KindStringName:
		s, err := d.str()
		return StringName(s), err
	case KindNodePath:
		return d.nodePath()
	case KindDictionary:
		n, err := d.count(8)
		if err != nil {
			return nil, err
		}
		dict := make(Dictionary, 0, n)
		for i := 0; i < n; i++ {
			key, err := d.decode(depth + 1)
			if err != nil {
				return nil, err
			}
			val, err := d.decode(depth + 1)
			if err != nil {
				return nil, err
			}
			dict = append(dict, DictEntry{Key: key, Value: val})
		}
		return dict, nil
	case KindArray:
		n, err := d.count(4)
		if err != nil {
			return nil, err
		}
		arr := make(Array, n)
		for i := range arr {
			if arr[i], err = d.decode(depth + 1); err != nil {
				return nil, err
			}
		}
		return arr, nil
	}
	return d.packed(k)
}

func (d *decoder) nodePath() (Value, error) {
	nc, err := d.u32()
	if err != nil {
		return nil, err
	}
	if nc&nodePathNewFormat == 0 {
		return nil, fmt.Errorf("%w: legacy node path encoding", ErrCorrupt)
	}
	nc &^= nodePathNewFormat
	sc, err := d.u32()
	if err != nil {
		return nil, err
	}
	flags, err := d.u32()
	if err != nil {
		return nil, err
	}
	if flags&^nodePathAbsolute != 0 {
		return nil, fmt.Errorf("%w: node path flags %#x", ErrCorrupt, flags)
	}
	if (int64(nc)+int64(sc))*4 > int64(d.remaining()) {
		return nil, fmt.Errorf("%w: node path segment count", ErrCorrupt)
	}
	p := NodePath{absolute: flags&nodePathAbsolute != 0}
	for i := uint32(0); i < nc+sc; i++ {
		s, err := d.str()
		if err != nil {
			return nil, err
		}
		if i < nc {
			p.names = append(p.names, s)
		} else {
			p.subnames = append(p.subnames, s)
		}
	}
	return p, nil
}

func (d *decoder) packed(k Kind) (Value, error) {
	switch k {
	case KindPackedByteArray:
		n, err := d.count(1)
		if err != nil {
			return nil, err
		}
		b, err := d.raw(n)
		if err != nil {
			return nil, err
		}
		return PackedByteArray(append([]byte{}, b...)), nil
	case KindPackedInt32Array:
		n, err := d.count(4)
		if err != nil {
			return nil, err
		}
		out := make(PackedInt32Array, n)
		for i := range out {
			v, _ := d.u32()
			out[i] = int32(v)
		}
		return out, nil
	case KindPackedInt64Array:
		n, err := d.count(8)
		if err != nil {
			return nil, err
		}
		out := make(PackedInt64Array, n)
		for i := range out {
			v, _ := d.u64()
			out[i] = int64(v)
		}
		return out, nil
	case KindPackedFloat32Array:
		n, err := d.count(4)
		if err != nil {
			return nil, err
		}
		out := make(PackedFloat32Array, n)
		for i := range out {
			out[i], _ = d.f32()
		}
		return out, nil
	case KindPackedFloat64Array:
		n, err := d.count(8)
		if err != nil {
			return nil, err
		}
		out := make(PackedFloat64Array, n)
		for i := range out {
			v, _ := d.u64()
			out[i] = math.Float64frombits(v)
		}
		return out, nil
	case KindPackedStringArray:
		n, err := d.count(4)
		if err != nil {
			return nil, err
		}
		out := make(PackedStringArray, n)
		for i := range out {
			if out[i], err = d.str(); err != nil {
				return nil, err
			}
		}
		return out, nil
	case KindPackedVector2Array, KindPackedVector3Array, KindPackedColorArray, KindPackedVector4Array:
		return d.packedVectors(k)
	}
	return nil, &UnsupportedKindError{Tag: uint16(k)}
}

var packedElemWidth = map[Kind]int{
	KindPackedVector2Array: 2,
	KindPackedVector3Array: 3,
	KindPackedColorArray:   4,
	KindPackedVector4Array: 4,
}

func (d *decoder) packedVectors(k Kind) (Value, error) {
	w := packedElemWidth[k]
	n, err := d.count(4 * w)
	if err != nil {
		return nil, err
	}
	c := make([]float32, n*w)
	for i := range c {
		c[i], _ = d.f32()
	}
	switch k {
	case KindPackedVector2Array:
		out := make(PackedVector2Array, n)
		for i := range out {
			out[i] = Vector2{c[2*i], c[2*i+1]}
		}
		return out, nil
	case KindPackedVector3Array:
		out := make(PackedVector3Array, n)
		for i := range out {
			out[i] = Vector3{c[3*i], c[3*i+1], c[3*i+2]}
		}
		return out, nil
	case KindPackedColorArray:
		out := make(PackedColorArray, n)
		for i := range out {
			out[i] = Color{c[4*i], c[4*i+1], c[4*i+2], c[4*i+3]}
		}
		return out, nil
	default:
		out := make(PackedVector4Array, n)
		for i := range out {
			out[i] = Vector4{c[4*i], c[4*i+1], c[4*i+2], c[4*i+3]}
		}
		return out, nil
	}
}
