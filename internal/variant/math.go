package variant

// floatWidth is the number of float32 components of each float math kind, in
// wire order.
var floatWidth = map[Kind]int{
	KindVector2:     2,
	KindRect2:       4,
	KindVector3:     3,
	KindTransform2D: 6,
	KindVector4:     4,
	KindPlane:       4,
	KindQuaternion:  4,
	KindAABB:        6,
	KindBasis:       9,
	KindTransform3D: 12,
	KindProjection:  16,
	KindColor:       4,
}

// intWidth is the number of int32 components of each integer vector kind.
var intWidth = map[Kind]int{
	KindVector2i: 2,
	KindRect2i:   4,
	KindVector3i: 3,
	KindVector4i: 4,
}

// floatComponents flattens a float math value. ok is false for other kinds.
func floatComponents(v Value) (c []float32, ok bool) {
	switch t := v.(type) {
	case Vector2:
		return []float32{t.X, t.Y}, true
	case Rect2:
		return []float32{t.Position.X, t.Position.Y, t.Size.X, t.Size.Y}, true
	case Vector3:
		return []float32{t.X, t.Y, t.Z}, true
	case Transform2D:
		return []float32{t.X.X, t.X.Y, t.Y.X, t.Y.Y, t.Origin.X, t.Origin.Y}, true
	case Vector4:
		return []float32{t.X, t.Y, t.Z, t.W}, true
	case Plane:
		return []float32{t.Normal.X, t.Normal.Y, t.Normal.Z, t.D}, true
	case Quaternion:
		return []float32{t.X, t.Y, t.Z, t.W}, true
	case AABB:
		return []float32{t.Position.X, t.Position.Y, t.Position.Z, t.Size.X, t.Size.Y, t.Size.Z}, true
	case Basis:
		return []float32{t.X.X, t.X.Y, t.X.Z, t.Y.X, t.Y.Y, t.Y.Z, t.Z.X, t.Z.Y, t.Z.Z}, true
	case Transform3D:
		b, _ := floatComponents(t.Basis)
		return append(b, t.Origin.X, t.Origin.Y, t.Origin.Z), true
	case Projection:
		c := make([]float32, 0, 16)
		for _, col := range []Vector4{t.X, t.Y, t.Z, t.W} {
			c = append(c, col.X, col.Y, col.Z, col.W)
		}
		return c, true
	case Color:
		return []float32{t.R, t.G, t.B, t.A}, true
	}
	return nil, false
}

// floatValue rebuilds a float math value from its components.
// len(c) must equal floatWidth[k].
func floatValue(k Kind, c []float32) Value {
	v2 := func(i int) Vector2 { return Vector2{c[i], c[i+1]} }
	v3 := func(i int) Vector3 { return Vector3{c[i], c[i+1], c[i+2]} }
	v4 := func(i int) Vector4 { return Vector4{c[i], c[i+1], c[i+2], c[i+3]} }
	basis := func(i int) Basis { return Basis{v3(i), v3(i + 3), v3(i + 6)} }
	switch k {
	case KindVector2:
		return v2(0)
	case KindRect2:
		return Rect2{v2(0), v2(2)}
	case KindVector3:
		return v3(0)
	case KindTransform2D:
		return Transform2D{v2(0), v2(2), v2(4)}
	case KindVector4:
		return v4(0)
	case KindPlane:
		return Plane{v3(0), c[3]}
	case KindQuaternion:
		return Quaternion{c[0], c[1], c[2], c[3]}
	case KindAABB:
		return AABB{v3(0), v3(3)}
	case KindBasis:
		return basis(0)
	case KindTransform3D:
		return Transform3D{basis(0), v3(9)}
	case KindProjection:
		return Projection{v4(0), v4(4), v4(8), v4(12)}
	case KindColor:
		return Color{c[0], c[1], c[2], c[3]}
	}
	return nil
}

func intComponents(v Value) ([]int32, bool) {
	switch t := v.(type) {
	case Vector2i:
		return []int32{t.X, t.Y}, true
	case Rect2i:
		return []int32{t.Position.X, t.Position.Y, t.Size.X, t.Size.Y}, true
	case Vector3i:
		return []int32{t.X, t.Y, t.Z}, true
	case Vector4i:
		return []int32{t.X, t.Y, t.Z, t.W}, true
	}
	return nil, false
}

func intValue(k Kind, c []int32) Value {
	switch k {
	case KindVector2i:
		return Vector2i{c[0], c[1]}
	case KindRect2i:
		return Rect2i{Vector2i{c[0], c[1]}, Vector2i{c[2], c[3]}}
	case KindVector3i:
		return Vector3i{c[0], c[1], c[2]}
	case KindVector4i:
		return Vector4i{c[0], c[1], c[2], c[3]}
	}
	return nil
}
