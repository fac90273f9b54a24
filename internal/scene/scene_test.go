package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlupugla/saveload/internal/variant"
)

type enemy struct {
	*Node
	kind string
}

func np(s string) variant.NodePath { return variant.ParseNodePath(s) }

// buildTree creates /root/World/{Player/Sprite, Enemies}.
func buildTree(t *testing.T) (*Tree, map[string]*Node) {
	t.Helper()
	nodes := map[string]*Node{}
	for _, name := range []string{"root", "World", "Player", "Sprite", "Enemies"} {
		nodes[name] = NewNode(name)
	}
	tree := NewTree(nodes["root"])
	require.NoError(t, nodes["root"].AddChild(nodes["World"]))
	require.NoError(t, nodes["World"].AddChild(nodes["Player"]))
	require.NoError(t, nodes["Player"].AddChild(nodes["Sprite"]))
	require.NoError(t, nodes["World"].AddChild(nodes["Enemies"]))
	return tree, nodes
}

func TestAddChildRegistersSubtree(t *testing.T) {
	tree, nodes := buildTree(t)
	assert.Equal(t, 5, tree.Len())

	got, ok := tree.Lookup(nodes["Sprite"].ID())
	require.True(t, ok)
	assert.Same(t, nodes["Sprite"], got.AsNode())
	assert.Same(t, tree, nodes["Sprite"].Tree())
}

func TestAddChildKeepsOuterType(t *testing.T) {
	tree, nodes := buildTree(t)
	e := &enemy{Node: NewNode("Bat"), kind: "bat"}
	require.NoError(t, nodes["Enemies"].AddChild(e))

	got, ok := nodes["World"].GetNode(np("Enemies/Bat"))
	require.True(t, ok)
	assert.Same(t, e, got)

	byID, ok := tree.Lookup(e.ID())
	require.True(t, ok)
	assert.Equal(t, "bat", byID.(*enemy).kind)
}

func TestAddChildErrors(t *testing.T) {
	_, nodes := buildTree(t)

	err := nodes["World"].AddChild(NewNode("Player"))
	assert.ErrorIs(t, err, ErrNameConflict)

	err = nodes["World"].AddChild(nodes["Sprite"])
	assert.ErrorIs(t, err, ErrHasParent)

	err = nodes["World"].AddChild(NewNode("a/b"))
	assert.ErrorIs(t, err, ErrInvalidName)

	err = nodes["Sprite"].AddChild(nodes["root"])
	assert.ErrorIs(t, err, ErrCycle)
}

func TestAddChildGeneratesName(t *testing.T) {
	_, nodes := buildTree(t)
	e := &enemy{Node: NewNode("")}
	require.NoError(t, nodes["Enemies"].AddChild(e))
	assert.Contains(t, e.Name(), "@enemy@")
}

func TestRemoveChildAndFree(t *testing.T) {
	tree, nodes := buildTree(t)
	player := nodes["Player"]
	id := player.ID()
	spriteID := nodes["Sprite"].ID()

	require.NoError(t, nodes["World"].RemoveChild(player))
	assert.False(t, player.IsInTree())
	_, ok := tree.Lookup(spriteID)
	assert.False(t, ok)

	require.NoError(t, nodes["Enemies"].AddChild(player))
	_, ok = tree.Lookup(id)
	assert.True(t, ok)

	player.Free()
	assert.True(t, player.IsFreed())
	assert.True(t, nodes["Sprite"].IsFreed())
	_, ok = tree.Lookup(id)
	assert.False(t, ok)
	assert.Equal(t, 0, nodes["Enemies"].ChildCount())

	assert.ErrorIs(t, nodes["Enemies"].AddChild(player), ErrFreed)
	assert.ErrorIs(t, nodes["Enemies"].RemoveChild(player), ErrNotChild)
}

func TestEnterExitOrder(t *testing.T) {
	tree, nodes := buildTree(t)
	var events []string
	tree.OnEnter(func(n Noder) { events = append(events, "enter "+n.AsNode().Name()) })
	tree.OnExit(func(n Noder) { events = append(events, "exit "+n.AsNode().Name()) })

	require.NoError(t, nodes["World"].RemoveChild(nodes["Player"]))
	require.NoError(t, nodes["World"].AddChild(nodes["Player"]))

	assert.Equal(t, []string{
		"exit Sprite", "exit Player",
		"enter Player", "enter Sprite",
	}, events)
}

func TestGetNode(t *testing.T) {
	_, nodes := buildTree(t)
	player := nodes["Player"]

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{".", "Player", true},
		{"", "Player", true},
		{"Sprite", "Sprite", true},
		{"..", "World", true},
		{"../Enemies", "Enemies", true},
		{"/root/World/Player/Sprite", "Sprite", true},
		{"Sprite:modulate", "Sprite", true},
		{"Missing", "", false},
		{"../../..", "", false},
		{"/other/World", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := player.GetNode(np(tt.path))
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got.AsNode().Name())
			}
		})
	}
}

func TestPaths(t *testing.T) {
	_, nodes := buildTree(t)

	assert.Equal(t, "/root/World/Player/Sprite", nodes["Sprite"].Path().String())

	p, err := nodes["Sprite"].PathTo(nodes["Enemies"])
	require.NoError(t, err)
	assert.Equal(t, "../../Enemies", p.String())

	p, err = nodes["root"].PathTo(nodes["Sprite"])
	require.NoError(t, err)
	assert.Equal(t, "World/Player/Sprite", p.String())

	p, err = nodes["Player"].PathTo(nodes["Player"])
	require.NoError(t, err)
	assert.Equal(t, ".", p.String())

	_, err = nodes["Player"].PathTo(NewNode("Detached"))
	assert.ErrorIs(t, err, ErrNotInTree)
}

func TestPathRoundTrip(t *testing.T) {
	_, nodes := buildTree(t)
	for _, from := range nodes {
		for _, to := range nodes {
			p, err := from.PathTo(to)
			require.NoError(t, err)
			got, ok := from.GetNode(p)
			require.True(t, ok, "%s -> %s via %s", from.Name(), to.Name(), p)
			assert.Same(t, to, got.AsNode())
		}
	}
}

func TestIndexedAccess(t *testing.T) {
	n := NewNode("Player")
	n.Set("position", variant.Vector2{X: 1, Y: 2})
	n.Set("stats", variant.NewDictionary(variant.String("hp"), variant.Int(10)))
	n.Set("xform", variant.Transform2D{Origin: variant.Vector2{X: 5, Y: 5}})

	v, ok := n.GetIndexed(np(":position:y"))
	require.True(t, ok)
	assert.Equal(t, variant.Float(2), v)

	v, ok = n.GetIndexed(np(":stats:hp"))
	require.True(t, ok)
	assert.Equal(t, variant.Int(10), v)

	_, ok = n.GetIndexed(np(":position:z"))
	assert.False(t, ok)
	_, ok = n.GetIndexed(np(":missing"))
	assert.False(t, ok)
	_, ok = n.GetIndexed(np("NoSubnames"))
	assert.False(t, ok)

	require.NoError(t, n.SetIndexed(np(":position:x"), variant.Float(9)))
	got, _ := n.Get("position")
	assert.Equal(t, variant.Vector2{X: 9, Y: 2}, got)

	require.NoError(t, n.SetIndexed(np(":xform:origin:y"), variant.Int(7)))
	got, _ = n.Get("xform")
	assert.Equal(t, variant.Transform2D{Origin: variant.Vector2{X: 5, Y: 7}}, got)

	require.NoError(t, n.SetIndexed(np(":stats:mp"), variant.Int(3)))
	v, _ = n.GetIndexed(np(":stats:mp"))
	assert.Equal(t, variant.Int(3), v)

	assert.ErrorIs(t, n.SetIndexed(np(":missing"), variant.Int(1)), ErrNotFound)
	assert.ErrorIs(t, n.SetIndexed(np(":position:z"), variant.Int(1)), ErrNotFound)
	assert.ErrorIs(t, n.SetIndexed(np(":xform:nope:x"), variant.Int(1)), ErrNotFound)
	assert.ErrorIs(t, n.SetIndexed(np(":position:x"), variant.String("s")), variant.ErrMemberType)
}

func TestProperties(t *testing.T) {
	n := NewNode("N")
	n.Set("b", variant.Int(1))
	n.Set("a", variant.Int(2))
	assert.Equal(t, []string{"a", "b"}, n.Properties())
}

func TestSetName(t *testing.T) {
	_, nodes := buildTree(t)
	assert.ErrorIs(t, nodes["Player"].SetName("Enemies"), ErrNameConflict)
	assert.ErrorIs(t, nodes["Player"].SetName(".."), ErrInvalidName)
	require.NoError(t, nodes["Player"].SetName("Hero"))
	_, ok := nodes["World"].Child("Hero")
	assert.True(t, ok)
}

func TestNamesAreNFC(t *testing.T) {
	tree, nodes := buildTree(t)
	decomposed := "Cafe\u0301"
	composed := "Caf\u00e9"

	n := NewNode(decomposed)
	assert.Equal(t, composed, n.Name())
	require.NoError(t, nodes["World"].AddChild(n))

	got, ok := tree.Root().GetNode(np("World/" + decomposed))
	require.True(t, ok)
	assert.Same(t, n, got.AsNode())
	_, ok = nodes["World"].Child(composed)
	assert.True(t, ok)

	p, err := tree.Root().PathTo(n)
	require.NoError(t, err)
	assert.Equal(t, "World/"+composed, p.String())

	assert.ErrorIs(t, nodes["World"].AddChild(NewNode(composed)), ErrNameConflict)

	require.NoError(t, nodes["Player"].SetName("Zoe\u0308"))
	assert.Equal(t, "Zo\u00eb", nodes["Player"].Name())

	n.Set(decomposed, variant.Int(7))
	v, ok := n.Get(composed)
	require.True(t, ok)
	assert.Equal(t, variant.Int(7), v)
	v, ok = n.GetIndexed(np(":" + decomposed))
	require.True(t, ok)
	assert.Equal(t, variant.Int(7), v)
}
