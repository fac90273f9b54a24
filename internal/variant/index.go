package variant

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNoMember is returned when a value has no member with the given name.
	ErrNoMember = errors.New("no such member")

	// ErrMemberType is returned when a member cannot hold the assigned value.
	ErrMemberType = errors.New("member type mismatch")
)

// componentSlot maps a member name to the index of a scalar component of a
// vector, quaternion or color.
func componentSlot(v Value, name string) (int, bool) {
	var names string
	switch v.(type) {
	case Vector2, Vector2i:
		names = "xy"
	case Vector3, Vector3i:
		names = "xyz"
	case Vector4, Vector4i, Quaternion:
		names = "xyzw"
	case Color:
		names = "rgba"
	default:
		return 0, false
	}
	if len(name) != 1 {
		return 0, false
	}
	i := strings.IndexByte(names, name[0])
	return i, i >= 0
}

// fields returns the compound members of v by name.
func fields(v Value) map[string]Value {
	switch x := v.(type) {
	case Rect2:
		return map[string]Value{"position": x.Position, "size": x.Size}
	case Rect2i:
		return map[string]Value{"position": x.Position, "size": x.Size}
	case AABB:
		return map[string]Value{"position": x.Position, "size": x.Size}
	case Plane:
		return map[string]Value{"normal": x.Normal, "d": Float(x.D)}
	case Transform2D:
		return map[string]Value{"x": x.X, "y": x.Y, "origin": x.Origin}
	case Basis:
		return map[string]Value{"x": x.X, "y": x.Y, "z": x.Z}
	case Transform3D:
		return map[string]Value{"basis": x.Basis, "origin": x.Origin}
	case Projection:
		return map[string]Value{"x": x.X, "y": x.Y, "z": x.Z, "w": x.W}
	}
	return nil
}

// GetNamed reads a named member of v: vector and quaternion components
// (x y z w), color channels (r g b a), the fields of rectangles, boxes,
// planes and transforms, dictionary entries keyed by String or StringName,
// and array elements by decimal index.
func GetNamed(v Value, name string) (Value, bool) {
	if i, ok := componentSlot(v, name); ok {
		if c, ok := floatComponents(v); ok {
			return Float(c[i]), true
		}
		c, _ := intComponents(v)
		return Int(c[i]), true
	}
	if f := fields(v); f != nil {
		m, ok := f[name]
		return m, ok
	}
	switch x := v.(type) {
	case Dictionary:
		if e, ok := x.Get(String(name)); ok {
			return e, true
		}
		return x.Get(StringName(name))
	case Array:
		i, err := strconv.Atoi(name)
		if err != nil || i < 0 || i >= len(x) {
			return nil, false
		}
		return x[i], true
	}
	return nil, false
}

// SetNamed returns a copy of v with the named member replaced by m. Numeric
// components accept Int and Float. A dictionary gains a String key when
// name is not present yet.
func SetNamed(v Value, name string, m Value) (Value, error) {
	if i, ok := componentSlot(v, name); ok {
		if c, ok := floatComponents(v); ok {
			f, ok := asFloat(m)
			if !ok {
				return nil, memberTypeError(v, name, m)
			}
			c[i] = float32(f)
			return floatValue(v.Kind(), c), nil
		}
		c, _ := intComponents(v)
		n, ok := m.(Int)
		if !ok {
			return nil, memberTypeError(v, name, m)
		}
		c[i] = int32(n)
		return intValue(v.Kind(), c), nil
	}
	if f := fields(v); f != nil {
		if _, ok := f[name]; !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrNoMember, v.Kind(), name)
		}
		return setField(v, name, m)
	}
	switch x := v.(type) {
	case Dictionary:
		out := append(Dictionary(nil), x...)
		if !out.Has(String(name)) && out.Has(StringName(name)) {
			return out.Set(StringName(name), m), nil
		}
		return out.Set(String(name), m), nil
	case Array:
		i, err := strconv.Atoi(name)
		if err != nil || i < 0 || i >= len(x) {
			return nil, fmt.Errorf("%w: %s[%s]", ErrNoMember, v.Kind(), name)
		}
		out := append(Array(nil), x...)
		out[i] = m
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrNoMember, KindOf(v), name)
}

func setField(v Value, name string, m Value) (Value, error) {
	bad := func() (Value, error) { return nil, memberTypeError(v, name, m) }
	switch x := v.(type) {
	case Rect2:
		p, ok := m.(Vector2)
		if !ok {
			return bad()
		}
		if name == "position" {
			x.Position = p
		} else {
			x.Size = p
		}
		return x, nil
	case Rect2i:
		p, ok := m.(Vector2i)
		if !ok {
			return bad()
		}
		if name == "position" {
			x.Position = p
		} else {
			x.Size = p
		}
		return x, nil
	case AABB:
		p, ok := m.(Vector3)
		if !ok {
			return bad()
		}
		if name == "position" {
			x.Position = p
		} else {
			x.Size = p
		}
		return x, nil
	case Plane:
		if name == "d" {
			f, ok := asFloat(m)
			if !ok {
				return bad()
			}
			x.D = float32(f)
			return x, nil
		}
		n, ok := m.(Vector3)
		if !ok {
			return bad()
		}
		x.Normal = n
		return x, nil
	case Transform2D:
		p, ok := m.(Vector2)
		if !ok {
			return bad()
		}
		switch name {
		case "x":
			x.X = p
		case "y":
			x.Y = p
		default:
			x.Origin = p
		}
		return x, nil
	case Basis:
		p, ok := m.(Vector3)
		if !ok {
			return bad()
		}
		switch name {
		case "x":
			x.X = p
		case "y":
			x.Y = p
		default:
			x.Z = p
		}
		return x, nil
	case Transform3D:
		if name == "basis" {
			b, ok := m.(Basis)
			if !ok {
				return bad()
			}
			x.Basis = b
			return x, nil
		}
		p, ok := m.(Vector3)
		if !ok {
			return bad()
		}
		x.Origin = p
		return x, nil
	case Projection:
		p, ok := m.(Vector4)
		if !ok {
			return bad()
		}
		switch name {
		case "x":
			x.X = p
		case "y":
			x.Y = p
		case "z":
			x.Z = p
		default:
			x.W = p
		}
		return x, nil
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrNoMember, KindOf(v), name)
}

func asFloat(v Value) (float64, bool) {
	switch x := v.(type) {
	case Float:
		return float64(x), true
	case Int:
		return float64(x), true
	}
	return 0, false
}

func memberTypeError(v Value, name string, m Value) error {
	return fmt.Errorf("%w: cannot assign %s to %s.%s", ErrMemberType, KindOf(m), v.Kind(), name)
}
