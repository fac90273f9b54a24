package variant

import "fmt"

// Kind identifies the type of a Value. The numeric value is the wire tag.
type Kind uint16

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindVector2
	KindVector2i
	KindRect2
	KindRect2i
	KindVector3
	KindVector3i
	KindTransform2D
	KindVector4
	KindVector4i
	KindPlane
	KindQuaternion
	KindAABB
	KindBasis
	KindTransform3D
	KindProjection
	KindColor
	KindStringName
	KindNodePath
	KindRID
	KindObject
	kindCallable // reserved, never produced
	kindSignal   // reserved, never produced
	KindDictionary
	KindArray
	KindPackedByteArray
	KindPackedInt32Array
	KindPackedInt64Array
	KindPackedFloat32Array
	KindPackedFloat64Array
	KindPackedStringArray
	KindPackedVector2Array
	KindPackedVector3Array
	KindPackedColorArray
	KindPackedVector4Array

	kindCount
)

var kindNames = [kindCount]string{
	KindNil:                "Nil",
	KindBool:               "bool",
	KindInt:                "int",
	KindFloat:              "float",
	KindString:             "String",
	KindVector2:            "Vector2",
	KindVector2i:           "Vector2i",
	KindRect2:              "Rect2",
	KindRect2i:             "Rect2i",
	KindVector3:            "Vector3",
	KindVector3i:           "Vector3i",
	KindTransform2D:        "Transform2D",
	KindVector4:            "Vector4",
	KindVector4i:           "Vector4i",
	KindPlane:              "Plane",
	KindQuaternion:         "Quaternion",
	KindAABB:               "AABB",
	KindBasis:              "Basis",
	KindTransform3D:        "Transform3D",
	KindProjection:         "Projection",
	KindColor:              "Color",
	KindStringName:         "StringName",
	KindNodePath:           "NodePath",
	KindRID:                "RID",
	KindObject:             "Object",
	kindCallable:           "Callable",
	kindSignal:             "Signal",
	KindDictionary:         "Dictionary",
	KindArray:              "Array",
	KindPackedByteArray:    "PackedByteArray",
	KindPackedInt32Array:   "PackedInt32Array",
	KindPackedInt64Array:   "PackedInt64Array",
	KindPackedFloat32Array: "PackedFloat32Array",
	KindPackedFloat64Array: "PackedFloat64Array",
	KindPackedStringArray:  "PackedStringArray",
	KindPackedVector2Array: "PackedVector2Array",
	KindPackedVector3Array: "PackedVector3Array",
	KindPackedColorArray:   "PackedColorArray",
	KindPackedVector4Array: "PackedVector4Array",
}

// String returns the type name used in diagnostics and canonical JSON.
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint16(k))
}

// Serializable reports whether values of this kind may appear in a snapshot.
// It does not look inside containers; use CheckSerializable for that.
func (k Kind) Serializable() bool {
	switch k {
	case KindRID, KindObject, kindCallable, kindSignal:
		return false
	}
	return k < kindCount
}

// KindFromName maps a type name back to its kind.
func KindFromName(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}
