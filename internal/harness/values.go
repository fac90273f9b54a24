package harness

import (
	"fmt"
	"sort"

	"github.com/nlupugla/saveload/internal/variant"
)

// convertToValue converts a YAML-parsed value to a variant.Value.
//
// Scalars map to Nil, Bool, Int, Float and String; sequences to Array. A
// mapping with a single key naming a kind builds that kind:
//
//	{Vector2: [1, 2]}   {Vector3i: [1, 2, 3]}   {Color: [1, 0, 0, 1]}
//	{StringName: hp}    {NodePath: "Sprite:modulate"}
//
// Any other mapping becomes a Dictionary with String keys in sorted order.
func convertToValue(val interface{}) (variant.Value, error) {
	switch v := val.(type) {
	case nil:
		return variant.Nil{}, nil
	case bool:
		return variant.Bool(v), nil
	case int:
		return variant.Int(v), nil
	case int64:
		return variant.Int(v), nil
	case uint64:
		return variant.Int(int64(v)), nil
	case float64:
		return variant.Float(v), nil
	case string:
		return variant.String(v), nil
	case []interface{}:
		return convertArray(v)
	case map[string]interface{}:
		if len(v) == 1 {
			for name, inner := range v {
				if k, ok := variant.KindFromName(name); ok {
					return convertTagged(k, inner)
				}
			}
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		d := make(variant.Dictionary, 0, len(v))
		for _, k := range keys {
			elem, err := convertToValue(v[k])
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			d = append(d, variant.DictEntry{Key: variant.String(k), Value: elem})
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", val)
	}
}

func convertArray(in []interface{}) (variant.Array, error) {
	arr := make(variant.Array, len(in))
	for i, elem := range in {
		v, err := convertToValue(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		arr[i] = v
	}
	return arr, nil
}

func convertTagged(k variant.Kind, inner interface{}) (variant.Value, error) {
	switch k {
	case variant.KindStringName, variant.KindNodePath:
		s, ok := inner.(string)
		if !ok {
			return nil, fmt.Errorf("%s: want a string, got %T", k, inner)
		}
		if k == variant.KindStringName {
			return variant.StringName(s), nil
		}
		return variant.ParseNodePath(s), nil
	case variant.KindVector2, variant.KindVector3, variant.KindVector4, variant.KindColor:
		f, err := floats(k, inner)
		if err != nil {
			return nil, err
		}
		switch k {
		case variant.KindVector2:
			return variant.Vector2{X: f[0], Y: f[1]}, nil
		case variant.KindVector3:
			return variant.Vector3{X: f[0], Y: f[1], Z: f[2]}, nil
		case variant.KindVector4:
			return variant.Vector4{X: f[0], Y: f[1], Z: f[2], W: f[3]}, nil
		default:
			return variant.Color{R: f[0], G: f[1], B: f[2], A: f[3]}, nil
		}
	case variant.KindVector2i, variant.KindVector3i, variant.KindVector4i:
		n, err := ints(k, inner)
		if err != nil {
			return nil, err
		}
		switch k {
		case variant.KindVector2i:
			return variant.Vector2i{X: n[0], Y: n[1]}, nil
		case variant.KindVector3i:
			return variant.Vector3i{X: n[0], Y: n[1], Z: n[2]}, nil
		default:
			return variant.Vector4i{X: n[0], Y: n[1], Z: n[2], W: n[3]}, nil
		}
	case variant.KindArray:
		list, ok := inner.([]interface{})
		if !ok {
			return nil, fmt.Errorf("Array: want a list, got %T", inner)
		}
		return convertArray(list)
	}
	return nil, fmt.Errorf("kind %s is not supported in scenarios", k)
}

// componentCount is the number of scalars each vector-like kind takes.
var componentCount = map[variant.Kind]int{
	variant.KindVector2:  2,
	variant.KindVector2i: 2,
	variant.KindVector3:  3,
	variant.KindVector3i: 3,
	variant.KindVector4:  4,
	variant.KindVector4i: 4,
	variant.KindColor:    4,
}

func components(k variant.Kind, inner interface{}) ([]interface{}, error) {
	list, ok := inner.([]interface{})
	if !ok || len(list) != componentCount[k] {
		return nil, fmt.Errorf("%s: want %d components", k, componentCount[k])
	}
	return list, nil
}

func floats(k variant.Kind, inner interface{}) ([]float32, error) {
	list, err := components(k, inner)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(list))
	for i, c := range list {
		switch x := c.(type) {
		case int:
			out[i] = float32(x)
		case float64:
			out[i] = float32(x)
		default:
			return nil, fmt.Errorf("%s[%d]: want a number, got %T", k, i, c)
		}
	}
	return out, nil
}

func ints(k variant.Kind, inner interface{}) ([]int32, error) {
	list, err := components(k, inner)
	if err != nil {
		return nil, err
	}
	out := make([]int32, len(list))
	for i, c := range list {
		x, ok := c.(int)
		if !ok {
			return nil, fmt.Errorf("%s[%d]: want an integer, got %T", k, i, c)
		}
		out[i] = int32(x)
	}
	return out, nil
}
