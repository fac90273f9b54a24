package variant

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// Equal reports structural identity. Floats compare by bit pattern, so NaN
// equals an identical NaN and -0 differs from +0. Dictionaries compare in
// order.
func Equal(a, b Value) bool {
	if KindOf(a) != KindOf(b) {
		return false
	}
	if a == nil || b == nil {
		return true // both Nil kind
	}
	if fa, ok := floatComponents(a); ok {
		fb, _ := floatComponents(b)
		return slices.EqualFunc(fa, fb, sameFloat32)
	}
	if ia, ok := intComponents(a); ok {
		ib, _ := intComponents(b)
		return slices.Equal(ia, ib)
	}
	switch x := a.(type) {
	case Nil:
		return true
	case Float:
		return math.Float64bits(float64(x)) == math.Float64bits(float64(b.(Float)))
	case NodePath:
		return x.Equal(b.(NodePath))
	case Array:
		return slices.EqualFunc(x, b.(Array), Equal)
	case Dictionary:
		return slices.EqualFunc(x, b.(Dictionary), func(p, q DictEntry) bool {
			return Equal(p.Key, q.Key) && Equal(p.Value, q.Value)
		})
	case PackedByteArray:
		return slices.Equal(x, b.(PackedByteArray))
	case PackedInt32Array:
		return slices.Equal(x, b.(PackedInt32Array))
	case PackedInt64Array:
		return slices.Equal(x, b.(PackedInt64Array))
	case PackedFloat32Array:
		return slices.EqualFunc(x, b.(PackedFloat32Array), sameFloat32)
	case PackedFloat64Array:
		return slices.EqualFunc(x, b.(PackedFloat64Array), func(p, q float64) bool {
			return math.Float64bits(p) == math.Float64bits(q)
		})
	case PackedStringArray:
		return slices.Equal(x, b.(PackedStringArray))
	case PackedVector2Array:
		return slices.EqualFunc(x, b.(PackedVector2Array), func(p, q Vector2) bool { return Equal(p, q) })
	case PackedVector3Array:
		return slices.EqualFunc(x, b.(PackedVector3Array), func(p, q Vector3) bool { return Equal(p, q) })
	case PackedColorArray:
		return slices.EqualFunc(x, b.(PackedColorArray), func(p, q Color) bool { return Equal(p, q) })
	case PackedVector4Array:
		return slices.EqualFunc(x, b.(PackedVector4Array), func(p, q Vector4) bool { return Equal(p, q) })
	}
	// Remaining kinds are comparable scalars.
	return a == b
}

func sameFloat32(p, q float32) bool {
	return math.Float32bits(p) == math.Float32bits(q)
}

var (
	// ErrNonSerializable is matched by every NonSerializableError.
	ErrNonSerializable = errors.New("value kind is not serializable")

	// ErrUnsupportedKind is matched by every UnsupportedKindError.
	ErrUnsupportedKind = errors.New("unsupported value kind")
)

// NonSerializableError reports an excluded kind found at Path inside the
// checked value. Path is empty for the top level.
type NonSerializableError struct {
	Kind Kind
	Path string
}

func (e *NonSerializableError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s is not serializable", e.Kind)
	}
	return fmt.Sprintf("%s at %s is not serializable", e.Kind, e.Path)
}

func (e *NonSerializableError) Unwrap() error { return ErrNonSerializable }

// UnsupportedKindError reports a wire tag the decoder does not accept.
type UnsupportedKindError struct {
	Tag uint16
}

func (e *UnsupportedKindError) Error() string {
	return fmt.Sprintf("unsupported value kind %s (tag %d)", Kind(e.Tag), e.Tag)
}

func (e *UnsupportedKindError) Unwrap() error { return ErrUnsupportedKind }

// CheckSerializable walks v and returns a *NonSerializableError for the
// first RID or object reference found, including inside containers.
func CheckSerializable(v Value) error {
	return checkSerializable(v, "")
}

func checkSerializable(v Value, path string) error {
	switch x := v.(type) {
	case RID, ObjectRef:
		return &NonSerializableError{Kind: x.Kind(), Path: path}
	case Array:
		for i, e := range x {
			if err := checkSerializable(e, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case Dictionary:
		for i, e := range x {
			if err := checkSerializable(e.Key, fmt.Sprintf("%s{key %d}", path, i)); err != nil {
				return err
			}
			if err := checkSerializable(e.Value, fmt.Sprintf("%s{%d}", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}
