package variant

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	var _ Value = Nil{}
	var _ Value = Int(1)
	var _ Value = Vector3{}
	var _ Value = NodePath{}
	var _ Value = Dictionary{}
	var _ Value = PackedVector4Array{}
	var _ Value = RID(1)
	var _ Value = ObjectRef{}
}

func TestKindNames(t *testing.T) {
	assert.Equal(t, "Vector2", KindVector2.String())
	assert.Equal(t, "PackedVector4Array", KindPackedVector4Array.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())

	k, ok := KindFromName("Transform3D")
	require.True(t, ok)
	assert.Equal(t, KindTransform3D, k)

	_, ok = KindFromName("Callable2")
	assert.False(t, ok)
}

func TestKindTagsAreStable(t *testing.T) {
	// Wire tags must never move.
	assert.EqualValues(t, 0, KindNil)
	assert.EqualValues(t, 4, KindString)
	assert.EqualValues(t, 20, KindColor)
	assert.EqualValues(t, 22, KindNodePath)
	assert.EqualValues(t, 23, KindRID)
	assert.EqualValues(t, 24, KindObject)
	assert.EqualValues(t, 27, KindDictionary)
	assert.EqualValues(t, 28, KindArray)
	assert.EqualValues(t, 38, KindPackedVector4Array)
}

func TestKindSerializable(t *testing.T) {
	assert.True(t, KindNil.Serializable())
	assert.True(t, KindPackedColorArray.Serializable())
	assert.False(t, KindRID.Serializable())
	assert.False(t, KindObject.Serializable())
	assert.False(t, Kind(25).Serializable())
	assert.False(t, Kind(200).Serializable())
}

func TestKindOfNil(t *testing.T) {
	assert.Equal(t, KindNil, KindOf(nil))
	assert.Equal(t, KindFloat, KindOf(Float(1)))
}

func TestEqual(t *testing.T) {
	nan := Float(math.Float64frombits(0x7ff8000000000001))

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nil interface vs Nil", nil, Nil{}, true},
		{"int", Int(3), Int(3), true},
		{"int vs float", Int(3), Float(3), false},
		{"string vs string name", String("a"), StringName("a"), false},
		{"nan same payload", nan, nan, true},
		{"signed zero", Float(0), Float(math.Copysign(0, -1)), false},
		{"vector", Vector2{1, 2}, Vector2{1, 2}, true},
		{"vector differs", Vector2{1, 2}, Vector2{1, 3}, false},
		{"transform", Transform3D{Origin: Vector3{1, 2, 3}}, Transform3D{Origin: Vector3{1, 2, 3}}, true},
		{"rect2i", Rect2i{Size: Vector2i{4, 4}}, Rect2i{Size: Vector2i{4, 5}}, false},
		{"node path", ParseNodePath("a/b:c"), NewNodePath([]string{"a", "b"}, []string{"c"}, false), true},
		{"array nested", Array{Int(1), Array{String("x")}}, Array{Int(1), Array{String("x")}}, true},
		{"array order", Array{Int(1), Int(2)}, Array{Int(2), Int(1)}, false},
		{"dictionary order matters", NewDictionary(Int(1), Nil{}, Int(2), Nil{}), NewDictionary(Int(2), Nil{}, Int(1), Nil{}), false},
		{"packed bytes", PackedByteArray{1, 2}, PackedByteArray{1, 2}, true},
		{"packed colors", PackedColorArray{{1, 0, 0, 1}}, PackedColorArray{{1, 0, 0, 0.5}}, false},
		{"rid", RID(7), RID(7), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
			assert.Equal(t, tt.want, Equal(tt.b, tt.a))
		})
	}
}

func TestDictionaryOperations(t *testing.T) {
	d := NewDictionary(String("hp"), Int(10), StringName("hp"), Int(20))
	require.Equal(t, 2, d.Len())

	v, ok := d.Get(String("hp"))
	require.True(t, ok)
	assert.Equal(t, Int(10), v)

	d = d.Set(String("hp"), Int(11))
	d = d.Set(String("mp"), Int(5))
	assert.Equal(t, []Value{String("hp"), StringName("hp"), String("mp")}, d.Keys())
	v, _ = d.Get(String("hp"))
	assert.Equal(t, Int(11), v)

	d = d.Delete(StringName("hp"))
	assert.False(t, d.Has(StringName("hp")))
	assert.Equal(t, []Value{String("hp"), String("mp")}, d.Keys())

	_, ok = d.Get(Int(1))
	assert.False(t, ok)
}

func TestNewDictionaryOddArgsPanics(t *testing.T) {
	assert.Panics(t, func() { NewDictionary(Int(1)) })
}

func TestCheckSerializable(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		kind Kind
		path string
	}{
		{"rid", RID(1), KindRID, ""},
		{"object", ObjectRef{ID: 3}, KindObject, ""},
		{"array of rids", Array{Int(1), RID(2)}, KindRID, "[1]"},
		{"dictionary value", NewDictionary(String("k"), ObjectRef{}), KindObject, "{0}"},
		{"dictionary key", NewDictionary(RID(1), Int(1)), KindRID, "{key 0}"},
		{"nested", Array{Array{NewDictionary(String("a"), RID(1))}}, KindRID, "[0][0]{0}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSerializable(tt.v)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNonSerializable))

			var nse *NonSerializableError
			require.ErrorAs(t, err, &nse)
			assert.Equal(t, tt.kind, nse.Kind)
			assert.Equal(t, tt.path, nse.Path)
		})
	}

	assert.NoError(t, CheckSerializable(Array{Int(1), NewDictionary(String("a"), Vector2{})}))
	assert.NoError(t, CheckSerializable(nil))
}
