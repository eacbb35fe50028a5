package physics

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

func TestStumpffNearZero(t *testing.T) {
	// C2(0) = 1/2, C3(0) = 1/6 exactly.
	if !floats.EqualWithinAbs(StumpffC2(0), 0.5, 1e-9) {
		t.Fatalf("C2(0) = %f, want 0.5", StumpffC2(0))
	}
	if !floats.EqualWithinAbs(StumpffC3(0), 1./6., 1e-9) {
		t.Fatalf("C3(0) = %f, want 1/6", StumpffC3(0))
	}
}

func TestStumpffContinuity(t *testing.T) {
	// The analytic branches just outside seriesε (and at ±1e-3) must stay
	// finite; the values are not compared against the series.
	for _, ψ := range []float64{1e-5, -1e-5, 1e-3, -1e-3} {
		c2 := StumpffC2(ψ)
		c3 := StumpffC3(ψ)
		if math.IsNaN(c2) || math.IsNaN(c3) {
			t.Fatalf("NaN at ψ=%g", ψ)
		}
	}
}

func TestSolveKeplerRoundTrip(t *testing.T) {
	for _, e := range []float64{0.0, 0.1, 0.5, 0.8, 0.95} {
		for _, M := range []float64{0.1, 1.0, 3.0, 5.5} {
			E, err := SolveKepler(M, e)
			if err != nil {
				t.Fatalf("e=%f M=%f: %s", e, M, err)
			}
			gotM := math.Mod(E-e*math.Sin(E), 2*math.Pi)
			wantM := math.Mod(M, 2*math.Pi)
			if !floats.EqualWithinAbs(gotM, wantM, 1e-9) {
				t.Errorf("e=%f M=%f: E-e*sinE = %f, want %f", e, M, gotM, wantM)
			}
		}
	}
}

func TestPropagateZeroDt(t *testing.T) {
	r0 := []float64{7000, 0, 0}
	v0 := []float64{0, 7.5, 0}
	r, v, err := Propagate(r0, v0, 398600.4418, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualApprox(r, r0, 1e-9) || !floats.EqualApprox(v, v0, 1e-9) {
		t.Fatalf("zero-dt propagation must be identity: got r=%v v=%v", r, v)
	}
}

func TestPropagateCircularQuarterPeriod(t *testing.T) {
	mu := 398600.4418
	r0n := 7000.0
	vCirc := math.Sqrt(mu / r0n)
	r0 := []float64{r0n, 0, 0}
	v0 := []float64{0, vCirc, 0}
	period := 2 * math.Pi * math.Sqrt(math.Pow(r0n, 3)/mu)

	r, v, err := Propagate(r0, v0, mu, period/4)
	if err != nil {
		t.Fatal(err)
	}
	// A quarter period on a circular orbit moves from (r,0,0) to (0,r,0).
	if !floats.EqualWithinAbs(Norm(r), r0n, 1.0) {
		t.Errorf("radius drifted: got %f want %f", Norm(r), r0n)
	}
	if math.Abs(r[0]) > 50 || r[1] < r0n*0.9 {
		t.Errorf("expected quarter-period position near (0,r,0), got %v", r)
	}
	if !floats.EqualWithinAbs(Norm(v), vCirc, 1e-3) {
		t.Errorf("speed drifted on circular orbit: got %f want %f", Norm(v), vCirc)
	}
}

func TestPropagateFullPeriodReturnsHome(t *testing.T) {
	mu := 398600.4418
	r0 := []float64{7000, 0, 0}
	vCirc := math.Sqrt(mu / Norm(r0))
	v0 := []float64{0, vCirc, 0}
	period := 2 * math.Pi * math.Sqrt(math.Pow(Norm(r0), 3)/mu)

	r, v, err := Propagate(r0, v0, mu, period)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualApprox(r, r0, 1.0) {
		t.Errorf("full-period propagation: got r=%v want %v", r, r0)
	}
	if !floats.EqualApprox(v, v0, 1e-3) {
		t.Errorf("full-period propagation: got v=%v want %v", v, v0)
	}
}

func TestParkingBurnMonotonic(t *testing.T) {
	mu := 398600.4418
	rPark := 6778.0
	dv1 := ParkingBurn(1.0, rPark, mu)
	dv2 := ParkingBurn(2.0, rPark, mu)
	if dv2 <= dv1 {
		t.Fatalf("ParkingBurn should increase with v∞: dv(1)=%f dv(2)=%f", dv1, dv2)
	}
}
