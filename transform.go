package spaghetti

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	axisX = mgl64.Vec3{1, 0, 0}
	axisY = mgl64.Vec3{0, 1, 0}
	axisZ = mgl64.Vec3{0, 0, 1}
)

// TransformComponent holds an entity's local position, rotation and scale
// and caches the world matrix derived from them.
//
// The cache is valid while the transform is not dirty. Every local mutation
// marks this transform and every descendant transform dirty; the world
// matrix is recomputed on the next GetWorldMatrix call, never on write.
// Only the direct parent's transform is composed: a transform whose parent
// entity has none uses its local matrix as the world matrix.
//
// Create transforms with NewTransform; the zero value has a zero scale.
type TransformComponent struct {
	BaseComponent

	position mgl64.Vec3
	rotation mgl64.Quat
	scale    mgl64.Vec3

	world      mgl64.Mat4
	dirty      bool
	recomputes uint64
}

// NewTransform returns an identity transform.
func NewTransform() *TransformComponent {
	return &TransformComponent{
		rotation: mgl64.QuatIdent(),
		scale:    mgl64.Vec3{1, 1, 1},
		world:    mgl64.Ident4(),
		dirty:    true,
	}
}

// NewTransformAt returns a transform with the given local position.
func NewTransformAt(position mgl64.Vec3) *TransformComponent {
	t := NewTransform()
	t.position = position
	return t
}

// --- Local state ---

// LocalPosition returns the position relative to the parent.
func (t *TransformComponent) LocalPosition() mgl64.Vec3 { return t.position }

// LocalRotation returns the rotation relative to the parent.
func (t *TransformComponent) LocalRotation() mgl64.Quat { return t.rotation }

// LocalScale returns the scale relative to the parent.
func (t *TransformComponent) LocalScale() mgl64.Vec3 { return t.scale }

// SetLocalPosition sets the local position and marks the transform dirty.
func (t *TransformComponent) SetLocalPosition(p mgl64.Vec3) {
	t.position = p
	t.MarkDirty()
}

// SetLocalRotation sets the local rotation. q is normalized.
func (t *TransformComponent) SetLocalRotation(q mgl64.Quat) {
	t.rotation = q.Normalize()
	t.MarkDirty()
}

// SetLocalScale sets the local scale and marks the transform dirty.
func (t *TransformComponent) SetLocalScale(s mgl64.Vec3) {
	t.scale = s
	t.MarkDirty()
}

// SetLocalEulerAngles sets the local rotation from angles in degrees,
// applied about X, then Y, then Z.
func (t *TransformComponent) SetLocalEulerAngles(degrees mgl64.Vec3) {
	t.rotation = eulerToQuat(degrees)
	t.MarkDirty()
}

// LocalEulerAngles returns the local rotation as degrees about X, Y and Z.
func (t *TransformComponent) LocalEulerAngles() mgl64.Vec3 {
	return quatToEuler(t.rotation)
}

// Translate moves the local position by delta.
func (t *TransformComponent) Translate(delta mgl64.Vec3) {
	t.position = t.position.Add(delta)
	t.MarkDirty()
}

// Rotate prepends a rotation of radians about axis to the local rotation:
// rotation = angleAxis(radians, axis) * rotation. A zero axis is ignored.
func (t *TransformComponent) Rotate(radians float64, axis mgl64.Vec3) {
	if axis.Len() == 0 {
		return
	}
	q := mgl64.QuatRotate(radians, axis.Normalize())
	t.rotation = q.Mul(t.rotation).Normalize()
	t.MarkDirty()
}

// RotateAround orbits the transform about pivot and spins it by the same
// rotation. The offset from pivot to the world position is rotated and
// pivot plus that offset becomes the local position. A zero axis is ignored.
func (t *TransformComponent) RotateAround(pivot mgl64.Vec3, radians float64, axis mgl64.Vec3) {
	if axis.Len() == 0 {
		return
	}
	q := mgl64.QuatRotate(radians, axis.Normalize())
	offset := t.WorldPosition().Sub(pivot)
	t.position = pivot.Add(q.Rotate(offset))
	t.rotation = q.Mul(t.rotation).Normalize()
	t.MarkDirty()
}

// LookAt orients the transform so its forward axis (-Z) points at a
// world-space target. up defaults to +Y when zero or parallel to the view
// direction.
func (t *TransformComponent) LookAt(target, up mgl64.Vec3) {
	dir := target.Sub(t.WorldPosition())
	if dir.Len() < 1e-12 {
		return
	}
	world := lookRotation(dir.Normalize(), up)
	if p := t.parentTransform(); p != nil {
		world = p.WorldRotation().Inverse().Mul(world)
	}
	t.rotation = world.Normalize()
	t.MarkDirty()
}

// LocalMatrix returns translation * rotation * scale.
func (t *TransformComponent) LocalMatrix() mgl64.Mat4 {
	tr := mgl64.Translate3D(t.position[0], t.position[1], t.position[2])
	sc := mgl64.Scale3D(t.scale[0], t.scale[1], t.scale[2])
	return tr.Mul4(t.rotation.Mat4()).Mul4(sc)
}

// --- Dirty propagation ---

// MarkDirty invalidates this transform's cached world matrix and those of
// the child transforms composed with it. Recursion stops at a child that is
// already dirty, since its subtree is dirty too.
func (t *TransformComponent) MarkDirty() {
	t.dirty = true
	if t.owner != nil && t.owner.transform == t {
		markChildrenDirty(t.owner)
	}
}

func markChildrenDirty(e *Entity) {
	for _, id := range e.children {
		c := e.scene.Lookup(id)
		if c == nil || c.transform == nil || c.transform.dirty {
			continue
		}
		c.transform.dirty = true
		markChildrenDirty(c)
	}
}

// IsDirty reports whether the cached world matrix is stale.
func (t *TransformComponent) IsDirty() bool { return t.dirty }

// Recomputes returns how many times the world matrix has been recomputed.
func (t *TransformComponent) Recomputes() uint64 { return t.recomputes }

// GetWorldMatrix returns parentWorld * local, recomputing it only when
// dirty. Without a parent transform the local matrix is the world matrix.
func (t *TransformComponent) GetWorldMatrix() mgl64.Mat4 {
	if !t.dirty {
		return t.world
	}
	local := t.LocalMatrix()
	if p := t.parentTransform(); p != nil {
		t.world = p.GetWorldMatrix().Mul4(local)
	} else {
		t.world = local
	}
	t.dirty = false
	t.recomputes++
	return t.world
}

// parentTransform returns the parent entity's primary transform, or nil.
func (t *TransformComponent) parentTransform() *TransformComponent {
	if t.owner == nil {
		return nil
	}
	if p := t.owner.Parent(); p != nil {
		return p.transform
	}
	return nil
}

// --- World accessors ---

// WorldPosition returns the translation column of the world matrix.
func (t *TransformComponent) WorldPosition() mgl64.Vec3 {
	return t.GetWorldMatrix().Col(3).Vec3()
}

// WorldScale returns the lengths of the world matrix basis columns.
func (t *TransformComponent) WorldScale() mgl64.Vec3 {
	m := t.GetWorldMatrix()
	return mgl64.Vec3{m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()}
}

// WorldRotation returns the rotation part of the world matrix.
func (t *TransformComponent) WorldRotation() mgl64.Quat {
	m := t.GetWorldMatrix()
	s := t.WorldScale()
	var r mgl64.Mat4
	for c := 0; c < 3; c++ {
		col := m.Col(c).Vec3()
		if s[c] != 0 {
			col = col.Mul(1 / s[c])
		}
		r.SetCol(c, col.Vec4(0))
	}
	r.SetCol(3, mgl64.Vec4{0, 0, 0, 1})
	return mgl64.Mat4ToQuat(r).Normalize()
}

// Right returns the world-space +X axis.
func (t *TransformComponent) Right() mgl64.Vec3 { return t.worldAxis(0, false) }

// Up returns the world-space +Y axis.
func (t *TransformComponent) Up() mgl64.Vec3 { return t.worldAxis(1, false) }

// Forward returns the world-space -Z axis.
func (t *TransformComponent) Forward() mgl64.Vec3 { return t.worldAxis(2, true) }

func (t *TransformComponent) worldAxis(col int, negate bool) mgl64.Vec3 {
	v := t.GetWorldMatrix().Col(col).Vec3()
	if l := v.Len(); l > 0 {
		v = v.Mul(1 / l)
	}
	if negate {
		v = v.Mul(-1)
	}
	return v
}

// --- Rotation helpers ---

// eulerToQuat converts degrees about X, Y, Z into Rz * Ry * Rx.
func eulerToQuat(deg mgl64.Vec3) mgl64.Quat {
	qx := mgl64.QuatRotate(mgl64.DegToRad(deg[0]), axisX)
	qy := mgl64.QuatRotate(mgl64.DegToRad(deg[1]), axisY)
	qz := mgl64.QuatRotate(mgl64.DegToRad(deg[2]), axisZ)
	return qz.Mul(qy).Mul(qx).Normalize()
}

// quatToEuler inverts eulerToQuat. At +-90 degrees about Y the Z angle is
// reported as zero.
func quatToEuler(q mgl64.Quat) mgl64.Vec3 {
	m := q.Normalize().Mat4()
	sy := -m.At(2, 0)
	if sy > 1 {
		sy = 1
	} else if sy < -1 {
		sy = -1
	}
	y := math.Asin(sy)
	var x, z float64
	if math.Abs(sy) < 1-1e-9 {
		x = math.Atan2(m.At(2, 1), m.At(2, 2))
		z = math.Atan2(m.At(1, 0), m.At(0, 0))
	} else {
		x = math.Atan2(-m.At(1, 2), m.At(1, 1))
	}
	return mgl64.Vec3{mgl64.RadToDeg(x), mgl64.RadToDeg(y), mgl64.RadToDeg(z)}
}

// lookRotation builds the rotation whose -Z axis points along forward.
func lookRotation(forward, up mgl64.Vec3) mgl64.Quat {
	if up.Len() == 0 {
		up = axisY
	}
	right := forward.Cross(up)
	if right.Len() < 1e-9 {
		// forward is parallel to up; pick any perpendicular
		right = forward.Cross(axisZ)
		if right.Len() < 1e-9 {
			right = forward.Cross(axisX)
		}
	}
	right = right.Normalize()
	trueUp := right.Cross(forward).Normalize()
	m := mgl64.Mat4FromCols(
		right.Vec4(0),
		trueUp.Vec4(0),
		forward.Mul(-1).Vec4(0),
		mgl64.Vec4{0, 0, 0, 1},
	)
	return mgl64.Mat4ToQuat(m).Normalize()
}
