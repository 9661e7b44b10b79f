package spaghetti

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// chain builds root -> a -> b -> c, each with a transform at the given
// local positions.
func chain(t *testing.T, positions ...mgl64.Vec3) (*Scene, []*TransformComponent) {
	t.Helper()
	s := NewScene("test")
	var parent *Entity
	var ts []*TransformComponent
	for i, p := range positions {
		e := s.CreateEntity(string(rune('a'+i)), parent)
		ts = append(ts, AddComponent(e, NewTransformAt(p)))
		parent = e
	}
	return s, ts
}

// --- Local matrix ---

func TestLocalMatrixIdentity(t *testing.T) {
	tr := NewTransform()
	assertMat4(t, "identity", tr.LocalMatrix(), mgl64.Ident4())
	if !tr.IsDirty() {
		t.Error("new transform should start dirty")
	}
}

func TestLocalMatrixTRS(t *testing.T) {
	tr := NewTransformAt(mgl64.Vec3{1, 2, 3})
	tr.SetLocalScale(mgl64.Vec3{2, 2, 2})
	tr.SetLocalRotation(mgl64.QuatRotate(math.Pi/2, axisY))

	// Scale first, then rotate, then translate.
	got := tr.LocalMatrix().Mul4x1(mgl64.Vec4{1, 0, 0, 1}).Vec3()
	assertVec3(t, "point", got, mgl64.Vec3{1, 2, 1})

	want := mgl64.Translate3D(1, 2, 3).
		Mul4(mgl64.HomogRotate3DY(math.Pi / 2)).
		Mul4(mgl64.Scale3D(2, 2, 2))
	assertMat4(t, "matrix", tr.LocalMatrix(), want)
}

// --- World matrix ---

func TestWorldPositionChild(t *testing.T) {
	_, ts := chain(t, mgl64.Vec3{5, 0, 0}, mgl64.Vec3{1, 1, 0})
	assertVec3(t, "child world", ts[1].WorldPosition(), mgl64.Vec3{6, 1, 0})
}

func TestWorldMatrixComposition(t *testing.T) {
	_, ts := chain(t, mgl64.Vec3{1, -2, 3}, mgl64.Vec3{0.5, 4, -1})
	ts[0].SetLocalEulerAngles(mgl64.Vec3{10, 20, 30})
	ts[0].SetLocalScale(mgl64.Vec3{1, 2, 3})
	ts[1].SetLocalEulerAngles(mgl64.Vec3{-40, 15, 70})

	want := ts[0].GetWorldMatrix().Mul4(ts[1].LocalMatrix())
	assertMat4(t, "world", ts[1].GetWorldMatrix(), want)
}

func TestWorldMatrixRootIsLocal(t *testing.T) {
	_, ts := chain(t, mgl64.Vec3{3, 4, 5})
	assertMat4(t, "world", ts[0].GetWorldMatrix(), ts[0].LocalMatrix())
}

func TestWorldMatrixWithoutParentTransform(t *testing.T) {
	// Only the direct parent's transform is composed.
	s := NewScene("test")
	a := s.CreateEntity("a", nil)
	ta := AddComponent(a, NewTransformAt(mgl64.Vec3{5, 0, 0}))
	mid := s.CreateEntity("mid", a)
	c := s.CreateEntity("c", mid)
	tc := AddComponent(c, NewTransformAt(mgl64.Vec3{1, 0, 0}))

	assertVec3(t, "world", tc.WorldPosition(), mgl64.Vec3{1, 0, 0})
	assertMat4(t, "matrix", tc.GetWorldMatrix(), tc.LocalMatrix())

	ta.Translate(mgl64.Vec3{0, 0, 2})
	if tc.IsDirty() {
		t.Fatal("transform below an entity without a transform does not depend on a")
	}
	assertVec3(t, "unmoved", tc.WorldPosition(), mgl64.Vec3{1, 0, 0})
}

func TestGrandchildFollowsTranslatedRoot(t *testing.T) {
	s := NewScene("test")
	r := s.CreateEntity("R", nil)
	tr := AddComponent(r, NewTransform())
	c := s.CreateEntity("C", r)
	AddComponent(c, NewTransformAt(mgl64.Vec3{1, 0, 0}))
	g := s.CreateEntity("G", c)
	tg := AddComponent(g, NewTransformAt(mgl64.Vec3{0, 1, 0}))

	assertVec3(t, "before", tg.WorldPosition(), mgl64.Vec3{1, 1, 0})

	tr.Translate(mgl64.Vec3{5, 0, 0})
	assertVec3(t, "after", tg.WorldPosition(), mgl64.Vec3{6, 1, 0})
}

// --- Dirty propagation ---

func TestMarkDirtyPropagates(t *testing.T) {
	_, ts := chain(t, mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{})
	ts[2].GetWorldMatrix()
	for i, tr := range ts {
		if tr.IsDirty() {
			t.Fatalf("transform %d dirty after recompute", i)
		}
	}

	ts[1].SetLocalPosition(mgl64.Vec3{1, 0, 0})
	if ts[0].IsDirty() {
		t.Error("parent should stay clean")
	}
	if !ts[1].IsDirty() || !ts[2].IsDirty() {
		t.Error("mutated transform and descendant should be dirty")
	}
}

func TestWorldMatrixRecomputedLazily(t *testing.T) {
	_, ts := chain(t, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0})
	ts[1].GetWorldMatrix()
	ts[1].GetWorldMatrix()
	ts[1].WorldPosition()
	if got := ts[1].Recomputes(); got != 1 {
		t.Errorf("recomputes = %d, want 1", got)
	}
	if got := ts[0].Recomputes(); got != 1 {
		t.Errorf("parent recomputes = %d, want 1", got)
	}

	// Several writes, one recompute.
	ts[0].SetLocalPosition(mgl64.Vec3{2, 0, 0})
	ts[0].SetLocalPosition(mgl64.Vec3{3, 0, 0})
	ts[0].Translate(mgl64.Vec3{1, 0, 0})
	if got := ts[1].Recomputes(); got != 1 {
		t.Errorf("recomputes after writes = %d, want 1", got)
	}
	assertVec3(t, "world", ts[1].WorldPosition(), mgl64.Vec3{4, 1, 0})
	if got := ts[1].Recomputes(); got != 2 {
		t.Errorf("recomputes after read = %d, want 2", got)
	}
}

func TestMarkDirtyStopsAtDirtyDescendant(t *testing.T) {
	_, ts := chain(t, mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{1, 0, 0})
	assertVec3(t, "before", ts[2].WorldPosition(), mgl64.Vec3{2, 0, 0})

	ts[1].SetLocalPosition(mgl64.Vec3{2, 0, 0})
	ts[0].SetLocalPosition(mgl64.Vec3{0, 5, 0})
	if !ts[2].IsDirty() {
		t.Fatal("leaf should be dirty")
	}
	assertVec3(t, "after", ts[2].WorldPosition(), mgl64.Vec3{3, 5, 0})
}

func TestReparentMarksDirty(t *testing.T) {
	s := NewScene("test")
	a := s.CreateEntity("a", nil)
	AddComponent(a, NewTransformAt(mgl64.Vec3{1, 0, 0}))
	b := s.CreateEntity("b", nil)
	AddComponent(b, NewTransformAt(mgl64.Vec3{0, 0, 7}))
	c := s.CreateEntity("c", a)
	tc := AddComponent(c, NewTransformAt(mgl64.Vec3{0, 1, 0}))

	assertVec3(t, "under a", tc.WorldPosition(), mgl64.Vec3{1, 1, 0})
	if err := c.SetParent(b); err != nil {
		t.Fatal(err)
	}
	if !tc.IsDirty() {
		t.Fatal("reparented transform should be dirty")
	}
	assertVec3(t, "under b", tc.WorldPosition(), mgl64.Vec3{0, 1, 7})
}

func TestAttachTransformMarksSubtreeDirty(t *testing.T) {
	s := NewScene("test")
	a := s.CreateEntity("a", nil)
	c := s.CreateEntity("c", a)
	tc := AddComponent(c, NewTransformAt(mgl64.Vec3{0, 1, 0}))
	assertVec3(t, "no parent transform", tc.WorldPosition(), mgl64.Vec3{0, 1, 0})

	AddComponent(a, NewTransformAt(mgl64.Vec3{4, 0, 0}))
	assertVec3(t, "with parent transform", tc.WorldPosition(), mgl64.Vec3{4, 1, 0})
}

func TestRemoveParentTransformMarksChildDirty(t *testing.T) {
	s := NewScene("test")
	a := s.CreateEntity("a", nil)
	ta := AddComponent(a, NewTransformAt(mgl64.Vec3{4, 0, 0}))
	c := s.CreateEntity("c", a)
	tc := AddComponent(c, NewTransformAt(mgl64.Vec3{0, 1, 0}))
	assertVec3(t, "composed", tc.WorldPosition(), mgl64.Vec3{4, 1, 0})

	a.RemoveComponent(ta)
	if !tc.IsDirty() {
		t.Fatal("child should be dirty once its parent transform is gone")
	}
	assertVec3(t, "local only", tc.WorldPosition(), mgl64.Vec3{0, 1, 0})
}

// --- Rotation ---

func TestRotatePrependsRotation(t *testing.T) {
	tr := NewTransform()
	tr.Rotate(math.Pi/2, mgl64.Vec3{0, 1, 0})
	tr.Rotate(math.Pi/2, mgl64.Vec3{1, 0, 0})

	want := mgl64.QuatRotate(math.Pi/2, axisX).Mul(mgl64.QuatRotate(math.Pi/2, axisY))
	if !tr.LocalRotation().ApproxEqualThreshold(want, 1e-9) {
		t.Errorf("rotation = %v, want %v", tr.LocalRotation(), want)
	}
}

func TestRotateNormalizesAxis(t *testing.T) {
	a := NewTransform()
	a.Rotate(1, mgl64.Vec3{0, 10, 0})
	b := NewTransform()
	b.Rotate(1, mgl64.Vec3{0, 1, 0})
	if !a.LocalRotation().ApproxEqualThreshold(b.LocalRotation(), 1e-12) {
		t.Errorf("scaled axis rotation = %v, want %v", a.LocalRotation(), b.LocalRotation())
	}
}

func TestRotateZeroAxisIgnored(t *testing.T) {
	tr := NewTransform()
	tr.GetWorldMatrix()
	tr.Rotate(1, mgl64.Vec3{})
	if tr.IsDirty() {
		t.Error("zero axis rotate should not mark dirty")
	}
	if tr.LocalRotation() != mgl64.QuatIdent() {
		t.Errorf("rotation = %v, want identity", tr.LocalRotation())
	}
}

func TestRotateAround(t *testing.T) {
	_, ts := chain(t, mgl64.Vec3{1, 0, 0})
	ts[0].RotateAround(mgl64.Vec3{}, math.Pi/2, axisY)
	assertVec3(t, "position", ts[0].WorldPosition(), mgl64.Vec3{0, 0, -1})
	assertVec3(t, "forward", ts[0].Forward(), mgl64.Vec3{-1, 0, 0})
}

func TestRotateAroundUnderParent(t *testing.T) {
	_, ts := chain(t, mgl64.Vec3{10, 0, 0}, mgl64.Vec3{1, 0, 0})
	ts[1].RotateAround(mgl64.Vec3{10, 0, 0}, math.Pi/2, axisY)
	// The orbited point becomes the local position as is.
	assertVec3(t, "local", ts[1].LocalPosition(), mgl64.Vec3{10, 0, -1})
	assertVec3(t, "world", ts[1].WorldPosition(), mgl64.Vec3{20, 0, -1})
}

func TestEulerRoundTrip(t *testing.T) {
	tests := []mgl64.Vec3{
		{0, 0, 0},
		{30, 45, 60},
		{-80, 10, 170},
		{90, 0, 0},
		{0, 0, -90},
	}
	for _, deg := range tests {
		tr := NewTransform()
		tr.SetLocalEulerAngles(deg)
		assertVec3(t, "euler", tr.LocalEulerAngles(), deg)
	}
}

func TestEulerOrder(t *testing.T) {
	// X is applied first, then Y, then Z.
	tr := NewTransform()
	tr.SetLocalEulerAngles(mgl64.Vec3{90, 90, 0})
	got := tr.LocalMatrix().Mul4x1(mgl64.Vec4{0, 1, 0, 0}).Vec3()
	// +Y -> (X 90) +Z -> (Y 90) +X
	assertVec3(t, "rotated", got, mgl64.Vec3{1, 0, 0})
}

func TestEulerGimbal(t *testing.T) {
	tr := NewTransform()
	tr.SetLocalEulerAngles(mgl64.Vec3{0, 90, 0})
	got := tr.LocalEulerAngles()
	// asin loses precision next to 1.
	if math.Abs(got[1]-90) > 1e-4 {
		t.Errorf("y = %v, want 90", got[1])
	}
	assertNear(t, "z", got[2], 0)
}

func TestLookAt(t *testing.T) {
	_, ts := chain(t, mgl64.Vec3{})
	tr := ts[0]

	tr.LookAt(mgl64.Vec3{0, 0, -5}, mgl64.Vec3{})
	assertVec3(t, "forward -z", tr.Forward(), mgl64.Vec3{0, 0, -1})
	assertVec3(t, "up", tr.Up(), mgl64.Vec3{0, 1, 0})

	tr.LookAt(mgl64.Vec3{5, 0, 0}, mgl64.Vec3{0, 1, 0})
	assertVec3(t, "forward +x", tr.Forward(), mgl64.Vec3{1, 0, 0})
	assertVec3(t, "right", tr.Right(), mgl64.Vec3{0, 0, 1})

	// Straight up falls back to another perpendicular instead of NaN.
	tr.LookAt(mgl64.Vec3{0, 3, 0}, mgl64.Vec3{0, 1, 0})
	assertVec3(t, "forward +y", tr.Forward(), mgl64.Vec3{0, 1, 0})
}

func TestLookAtUnderRotatedParent(t *testing.T) {
	_, ts := chain(t, mgl64.Vec3{}, mgl64.Vec3{0, 0, 0})
	ts[0].SetLocalEulerAngles(mgl64.Vec3{0, 90, 0})
	ts[1].LookAt(mgl64.Vec3{0, 0, -3}, mgl64.Vec3{0, 1, 0})
	assertVec3(t, "forward", ts[1].Forward(), mgl64.Vec3{0, 0, -1})
}

func TestLookAtSelfIgnored(t *testing.T) {
	tr := NewTransformAt(mgl64.Vec3{1, 1, 1})
	tr.LookAt(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{})
	if tr.LocalRotation() != mgl64.QuatIdent() {
		t.Errorf("rotation = %v, want identity", tr.LocalRotation())
	}
}

// --- World accessors ---

func TestWorldScaleAndRotation(t *testing.T) {
	_, ts := chain(t, mgl64.Vec3{}, mgl64.Vec3{1, 0, 0})
	ts[0].SetLocalScale(mgl64.Vec3{2, 3, 4})
	ts[1].SetLocalEulerAngles(mgl64.Vec3{0, 0, 90})

	assertVec3(t, "child world", ts[1].WorldPosition(), mgl64.Vec3{2, 0, 0})
	q := ts[0].WorldRotation()
	if !q.ApproxEqualThreshold(mgl64.QuatIdent(), 1e-9) {
		t.Errorf("parent rotation = %v, want identity", q)
	}
	s := ts[0].WorldScale()
	assertVec3(t, "parent scale", s, mgl64.Vec3{2, 3, 4})
}

func TestDefaultAxes(t *testing.T) {
	tr := NewTransform()
	assertVec3(t, "right", tr.Right(), mgl64.Vec3{1, 0, 0})
	assertVec3(t, "up", tr.Up(), mgl64.Vec3{0, 1, 0})
	assertVec3(t, "forward", tr.Forward(), mgl64.Vec3{0, 0, -1})
}
