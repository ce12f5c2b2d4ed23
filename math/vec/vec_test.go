package vec

import (
	"testing"
)

var (
	NULL = Vec3{}
)

func TestBasics(t *testing.T) {
	v := Vec3{1, 2, 3}
	if v[0] != 1 || v[1] != 2 || v[2] != 3 {
		t.Errorf("Vector construction is not obvious")
	}
}

func TestLength(t *testing.T) {
	if NULL.Length() != 0 {
		t.Errorf("Null vector has not 0 length")
	}
	v := Vec3{2, 2, 1}
	if v.Length() != 3 {
		t.Errorf("%v Length is not 3", v)
	}
	v = Vec3{2, 1, 2}
	if v.Length() != 3 {
		t.Errorf("%v Length is not 3", v)
	}
	v = Vec3{1, 2, 2}
	if v.Length() != 3 {
		t.Errorf("%v Length is not 3", v)
	}
}

func TestAdd(t *testing.T) {
	v := Vec3{1, 2, 3}
	got := Add(NULL, v)
	if v != got {
		t.Errorf("Adding a null vector changed the vector")
	}
	got = Add(v, NULL)
	if v != got {
		t.Errorf("Adding a null vector changed the vector")
	}
	got = Add(v, v)
	want := Vec3{2, 4, 6}
	if got != want {
		t.Errorf("Add(%v,%v) = %v want %v", v, v, got, want)
	}
}

func TestSub(t *testing.T) {
	v := Vec3{1, 2, 3}
	got := Sub(v, NULL)
	if v != got {
		t.Errorf("Substracting a null vector changed the vector")
	}
	got = Sub(v, v)
	if got != NULL {
		t.Errorf("Sub(%v,%v) = %v want %v", v, v, got, NULL)
	}
	v2 := Vec3{9, 7, 5}
	got = Sub(v2, v)
	want := Vec3{8, 5, 2}
	if got != want {
		t.Errorf("Sub(%v,%v) = %v want %v", v2, v, got, want)
	}
}

func TestScale(t *testing.T) {
	v := Vec3{1, 2, 3}
	got := v.Scale(2)
	want := Vec3{2, 4, 6}
	if got != want {
		t.Errorf("Scale(%v,2) = %v want %v", v, got, want)
	}
	got = v.Scale(0)
	if got != NULL {
		t.Errorf("Scale(%v,0) = %v want %v", v, got, NULL)
	}
}

func TestNormalize(t *testing.T) {
	got := NULL.Normalize()
	if got != NULL {
		t.Errorf("Normalizing the null vector should keep the null vector")
	}
	v := Vec3{0, 3, 0}
	got = v.Normalize()
	want := Vec3{0, 1, 0}
	if got != want {
		t.Errorf("Normalize(%v) = %v want %v", v, got, want)
	}
}

func TestDot(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}
	if got := Dot(a, b); got != 32 {
		t.Errorf("Dot(%v,%v) = %v want %v", a, b, got, 32)
	}
	if got := Dot(a, NULL); got != 0 {
		t.Errorf("Dot(%v,%v) = %v want %v", a, NULL, got, 0)
	}
}

func TestCross(t *testing.T) {
	a := Vec3{1, 0, 0}
	b := Vec3{0, 1, 0}
	want := Vec3{0, 0, 1}
	if got := Cross(a, b); got != want {
		t.Errorf("Cross(%v,%v) = %v want %v", a, b, got, want)
	}
}

func TestMinMax(t *testing.T) {
	a := Vec3{1, 5, 3}
	b := Vec3{4, 2, 6}
	gmin, gmax := MinMax(a, b)
	wmin := Vec3{1, 2, 3}
	wmax := Vec3{4, 5, 6}
	if gmin != wmin || gmax != wmax {
		t.Errorf("MinMax(%v,%v) = %v,%v want %v,%v", a, b, gmin, gmax, wmin, wmax)
	}
}

func TestRadiusFromBounds(t *testing.T) {
	mins := Vec3{-1, -2, 2}
	maxs := Vec3{2, 1, -2}
	// corner is {2,2,2}
	corner := Vec3{2, 2, 2}
	want := corner.Length()
	if got := RadiusFromBounds(mins, maxs); got != want {
		t.Errorf("RadiusFromBounds(%v,%v) = %v want %v", mins, maxs, got, want)
	}
}
