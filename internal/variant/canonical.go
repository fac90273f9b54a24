package variant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical renders v as deterministic JSON for inspection, golden
// files and digests.
//
// Nil, Bool, Int, String and Array map to their JSON counterparts. Float is a
// JSON number that always carries a fraction or exponent, so it never reads
// back as Int; NaN and infinities become {"float":"NaN"} and friends. Every
// other kind is a single-key object naming the kind, e.g. {"Vector2":[1,2]}.
// Dictionaries keep insertion order: {"Dictionary":[[key,value],...]}.
//
// Strings are NFC normalised and not HTML escaped.
func MarshalCanonical(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v Value, depth int) error {
	if depth > MaxDepth {
		return ErrMaxDepth
	}
	if v == nil {
		v = Nil{}
	}
	if c, ok := floatComponents(v); ok {
		return writeTagged(buf, v.Kind(), func() error {
			writeList(buf, len(c), func(i int) { buf.WriteString(formatFloat32(c[i])) })
			return nil
		})
	}
	if c, ok := intComponents(v); ok {
		return writeTagged(buf, v.Kind(), func() error {
			writeList(buf, len(c), func(i int) { buf.WriteString(strconv.FormatInt(int64(c[i]), 10)) })
			return nil
		})
	}

	switch x := v.(type) {
	case Nil:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(x)))
	case Int:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	case Float:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			buf.WriteString(`{"float":`)
			writeString(buf, strconv.FormatFloat(f, 'g', -1, 64))
			buf.WriteByte('}')
			return nil
		}
		buf.WriteString(withFraction(strconv.FormatFloat(f, 'g', -1, 64)))
	case String:
		writeString(buf, string(x))
	case StringName:
		return writeTagged(buf, KindStringName, func() error { writeString(buf, string(x)); return nil })
	case NodePath:
		return writeTagged(buf, KindNodePath, func() error { writeString(buf, x.String()); return nil })
	case RID, ObjectRef:
		return &NonSerializableError{Kind: v.Kind()}
	case Array:
		buf.WriteByte('[')
		for i, elem := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem, depth+1); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case Dictionary:
		return writeTagged(buf, KindDictionary, func() error {
			buf.WriteByte('[')
			for i, e := range x {
				if i > 0 {
					buf.WriteByte(',')
				}
				buf.WriteByte('[')
				if err := writeCanonical(buf, e.Key, depth+1); err != nil {
					return fmt.Errorf("dictionary key %d: %w", i, err)
				}
				buf.WriteByte(',')
				if err := writeCanonical(buf, e.Value, depth+1); err != nil {
					return fmt.Errorf("dictionary value %d: %w", i, err)
				}
				buf.WriteByte(']')
			}
			buf.WriteByte(']')
			return nil
		})
	case PackedByteArray:
		return writePacked(buf, x.Kind(), len(x), func(i int) { buf.WriteString(strconv.Itoa(int(x[i]))) })
	case PackedInt32Array:
		return writePacked(buf, x.Kind(), len(x), func(i int) { buf.WriteString(strconv.FormatInt(int64(x[i]), 10)) })
	case PackedInt64Array:
		return writePacked(buf, x.Kind(), len(x), func(i int) { buf.WriteString(strconv.FormatInt(x[i], 10)) })
	case PackedFloat32Array:
		return writePacked(buf, x.Kind(), len(x), func(i int) { buf.WriteString(formatFloat32(x[i])) })
	case PackedFloat64Array:
		return writePacked(buf, x.Kind(), len(x), func(i int) { buf.WriteString(formatFloat64(x[i])) })
	case PackedStringArray:
		return writePacked(buf, x.Kind(), len(x), func(i int) { writeString(buf, x[i]) })
	case PackedVector2Array:
		return writePackedVectors(buf, x.Kind(), len(x), func(i int) Value { return x[i] })
	case PackedVector3Array:
		return writePackedVectors(buf, x.Kind(), len(x), func(i int) Value { return x[i] })
	case PackedColorArray:
		return writePackedVectors(buf, x.Kind(), len(x), func(i int) Value { return x[i] })
	case PackedVector4Array:
		return writePackedVectors(buf, x.Kind(), len(x), func(i int) Value { return x[i] })
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

func writeTagged(buf *bytes.Buffer, k Kind, body func() error) error {
	buf.WriteByte('{')
	writeString(buf, k.String())
	buf.WriteByte(':')
	if err := body(); err != nil {
		return err
	}
	buf.WriteByte('}')
	return nil
}

func writeList(buf *bytes.Buffer, n int, elem func(int)) {
	buf.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		elem(i)
	}
	buf.WriteByte(']')
}

func writePacked(buf *bytes.Buffer, k Kind, n int, elem func(int)) error {
	return writeTagged(buf, k, func() error {
		writeList(buf, n, elem)
		return nil
	})
}

func writePackedVectors(buf *bytes.Buffer, k Kind, n int, elem func(int) Value) error {
	return writePacked(buf, k, n, func(i int) {
		c, _ := floatComponents(elem(i))
		writeList(buf, len(c), func(j int) { buf.WriteString(formatFloat32(c[j])) })
	})
}

// formatFloat32 renders a component. Non-finite components are quoted so the
// output stays valid JSON.
func formatFloat32(f float32) string {
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return strconv.Quote(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	return withFraction(strconv.FormatFloat(float64(f), 'g', -1, 32))
}

func formatFloat64(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.Quote(strconv.FormatFloat(f, 'g', -1, 64))
	}
	return withFraction(strconv.FormatFloat(f, 'g', -1, 64))
}

func withFraction(s string) string {
	if strings.ContainsAny(s, ".e") {
		return s
	}
	return s + ".0"
}

// writeString writes a JSON string: NFC normalised, no HTML escaping, and
// U+2028/U+2029 left literal.
func writeString(buf *bytes.Buffer, s string) {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(norm.NFC.String(s))
	out := bytes.TrimSuffix(tmp.Bytes(), []byte("\n"))
	buf.Write(unescapeLineSeparators(out))
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes emitted by
// encoding/json back into literal characters. An escape preceded by an odd
// number of backslashes is literal text and is kept.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+5 < len(data) && string(data[i+1:i+5]) == "u202" &&
			(data[i+5] == '8' || data[i+5] == '9') && trailingBackslashes(out)%2 == 0 {
			if data[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		out = append(out, data[i])
	}
	return out
}

func trailingBackslashes(b []byte) int {
	n := 0
	for i := len(b) - 1; i >= 0 && b[i] == '\\'; i-- {
		n++
	}
	return n
}

// SortPaths sorts path strings by UTF-16 code units, the order used for
// every emitted path listing.
func SortPaths(paths []string) {
	slices.SortFunc(paths, ComparePaths)
}

// ComparePaths orders strings by UTF-16 code units. Go's native string
// comparison orders by UTF-8 bytes, which differs for supplementary
// characters.
func ComparePaths(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
