package variant

// Value is a sealed interface over the closed set of snapshot value types.
// Only the types in this package implement it.
type Value interface {
	Kind() Kind
	variant() // sealed
}

// Nil is the empty value. It is also the placeholder for properties that
// could not be resolved at capture time.
type Nil struct{}

type Bool bool

// Int is a signed integer. The binary form uses 32 bits when the value fits.
type Int int64

// Float is a double. The binary form uses 32 bits when the value round-trips.
type Float float64

type String string

// StringName is an interned identifier. It compares unequal to a String
// holding the same text.
type StringName string

type Vector2 struct{ X, Y float32 }

type Vector2i struct{ X, Y int32 }

type Rect2 struct{ Position, Size Vector2 }

type Rect2i struct{ Position, Size Vector2i }

type Vector3 struct{ X, Y, Z float32 }

type Vector3i struct{ X, Y, Z int32 }

// Transform2D is a 2x3 matrix: two basis columns and an origin.
type Transform2D struct{ X, Y, Origin Vector2 }

type Vector4 struct{ X, Y, Z, W float32 }

type Vector4i struct{ X, Y, Z, W int32 }

type Plane struct {
	Normal Vector3
	D      float32
}

type Quaternion struct{ X, Y, Z, W float32 }

type AABB struct{ Position, Size Vector3 }

// Basis is a 3x3 matrix stored as rows.
type Basis struct{ X, Y, Z Vector3 }

type Transform3D struct {
	Basis  Basis
	Origin Vector3
}

// Projection is a 4x4 matrix stored as columns.
type Projection struct{ X, Y, Z, W Vector4 }

type Color struct{ R, G, B, A float32 }

// RID is an opaque engine resource handle. Not serializable.
type RID uint64

// ObjectRef refers to a live object by instance id. Not serializable.
type ObjectRef struct{ ID uint64 }

// Array is an ordered list of heterogeneous values.
type Array []Value

type PackedByteArray []byte

type PackedInt32Array []int32

type PackedInt64Array []int64

type PackedFloat32Array []float32

type PackedFloat64Array []float64

type PackedStringArray []string

type PackedVector2Array []Vector2

type PackedVector3Array []Vector3

type PackedColorArray []Color

type PackedVector4Array []Vector4

func (Nil) Kind() Kind                { return KindNil }
func (Bool) Kind() Kind               { return KindBool }
func (Int) Kind() Kind                { return KindInt }
func (Float) Kind() Kind              { return KindFloat }
func (String) Kind() Kind             { return KindString }
func (StringName) Kind() Kind         { return KindStringName }
func (Vector2) Kind() Kind            { return KindVector2 }
func (Vector2i) Kind() Kind           { return KindVector2i }
func (Rect2) Kind() Kind              { return KindRect2 }
func (Rect2i) Kind() Kind             { return KindRect2i }
func (Vector3) Kind() Kind            { return KindVector3 }
func (Vector3i) Kind() Kind           { return KindVector3i }
func (Transform2D) Kind() Kind        { return KindTransform2D }
func (Vector4) Kind() Kind            { return KindVector4 }
func (Vector4i) Kind() Kind           { return KindVector4i }
func (Plane) Kind() Kind              { return KindPlane }
func (Quaternion) Kind() Kind         { return KindQuaternion }
func (AABB) Kind() Kind               { return KindAABB }
func (Basis) Kind() Kind              { return KindBasis }
func (Transform3D) Kind() Kind        { return KindTransform3D }
func (Projection) Kind() Kind         { return KindProjection }
func (Color) Kind() Kind              { return KindColor }
func (NodePath) Kind() Kind           { return KindNodePath }
func (RID) Kind() Kind                { return KindRID }
func (ObjectRef) Kind() Kind          { return KindObject }
func (Dictionary) Kind() Kind         { return KindDictionary }
func (Array) Kind() Kind              { return KindArray }
func (PackedByteArray) Kind() Kind    { return KindPackedByteArray }
func (PackedInt32Array) Kind() Kind   { return KindPackedInt32Array }
func (PackedInt64Array) Kind() Kind   { return KindPackedInt64Array }
func (PackedFloat32Array) Kind() Kind { return KindPackedFloat32Array }
func (PackedFloat64Array) Kind() Kind { return KindPackedFloat64Array }
func (PackedStringArray) Kind() Kind  { return KindPackedStringArray }
func (PackedVector2Array) Kind() Kind { return KindPackedVector2Array }
func (PackedVector3Array) Kind() Kind { return KindPackedVector3Array }
func (PackedColorArray) Kind() Kind   { return KindPackedColorArray }
func (PackedVector4Array) Kind() Kind { return KindPackedVector4Array }

func (Nil) variant()                {}
func (Bool) variant()               {}
func (Int) variant()                {}
func (Float) variant()              {}
func (String) variant()             {}
func (StringName) variant()         {}
func (Vector2) variant()            {}
func (Vector2i) variant()           {}
func (Rect2) variant()              {}
func (Rect2i) variant()             {}
func (Vector3) variant()            {}
func (Vector3i) variant()           {}
func (Transform2D) variant()        {}
func (Vector4) variant()            {}
func (Vector4i) variant()           {}
func (Plane) variant()              {}
func (Quaternion) variant()         {}
func (AABB) variant()               {}
func (Basis) variant()              {}
func (Transform3D) variant()        {}
func (Projection) variant()         {}
func (Color) variant()              {}
func (NodePath) variant()           {}
func (RID) variant()                {}
func (ObjectRef) variant()          {}
func (Dictionary) variant()         {}
func (Array) variant()              {}
func (PackedByteArray) variant()    {}
func (PackedInt32Array) variant()   {}
func (PackedInt64Array) variant()   {}
func (PackedFloat32Array) variant() {}
func (PackedFloat64Array) variant() {}
func (PackedStringArray) variant()  {}
func (PackedVector2Array) variant() {}
func (PackedVector3Array) variant() {}
func (PackedColorArray) variant()   {}
func (PackedVector4Array) variant() {}

// KindOf returns the kind of v, treating a nil interface as Nil.
func KindOf(v Value) Kind {
	if v == nil {
		return KindNil
	}
	return v.Kind()
}
