// Package lambert implements a two-point boundary-value solver for the
// Lambert problem with multi-revolution support. The universal-variable
// formulation is the primary method; a Bate-Mueller-White p-iteration
// (bisection on the semi-latus rectum, not a chord/semi-perimeter
// continued-fraction solver) covers transfer angles near 180°, where the universal
// formulation's A-parameter collapses toward zero and the bracketed
// search becomes ill-conditioned, and a fixed-p eccentricity iteration
// covers the exactly antipodal case.
package lambert

import (
	"errors"
	"math"

	"github.com/guarzo/wanderer-transfercore/physics"
)

// PathKind distinguishes the short-path and long-path branches of a
// Lambert solution at a given revolution count.
type PathKind int

const (
	Short PathKind = iota
	Long
)

func (k PathKind) String() string {
	if k == Long {
		return "long"
	}
	return "short"
}

// Solution is one branch of a Lambert solve: terminal velocities, the
// number of complete revolutions on the transfer arc, and which of the
// short/long path pair it is.
type Solution struct {
	V1, V2      []float64
	Revolutions int
	Kind        PathKind
}

const (
	tolRel          = 1e-8 // convergence: |TOF(ψ)-tof|/tof
	maxIterations   = 60
	minRevScanSteps = 200
	nearCollinearε  = 1e-8
	// antipodalSinε bounds |sin Δν| below which r1, r2 are treated as
	// exactly antiparallel and the fixed-p eccentricity iteration in
	// antipodal.go takes over (the p-iteration's bracket collapses there:
	// at Δν = π the semi-latus rectum is fully determined by r1, r2).
	antipodalSinε = 1e-6
)

// Solve solves the Lambert problem between r1 and r2 (km) for a given time
// of flight (seconds) about a body of gravitational parameter mu
// (km³/s²), returning zero or more branches for revolution counts 0 through
// maxRevs. retrograde flips which rotational sense is treated as "prograde"
// when resolving the sign of the transfer angle. If no branch converges,
// Solve returns a nil slice with a nil error: infeasibility is a normal
// outcome, not an error.
func Solve(r1, r2 []float64, tof, mu float64, maxRevs int, retrograde bool) ([]Solution, error) {
	if tof <= 0 || mu <= 0 {
		return nil, errors.New("lambert: tof and mu must be positive")
	}
	rI := physics.Norm(r1)
	rF := physics.Norm(r2)
	if rI == 0 || rF == 0 {
		return nil, errors.New("lambert: radii must be non-zero")
	}

	cosΔν := clamp(physics.Dot(r1, r2)/(rI*rF), -1, 1)
	cross := physics.Cross(r1, r2)
	crossZ := cross[2]
	sinRaw := physics.Norm(cross) / (rI * rF)

	if sinRaw < antipodalSinε && cosΔν < 0 {
		// Δν = π (numerically): the transfer plane is not determined by
		// r1×r2, and the semi-latus rectum is fixed by the two radii, so
		// neither the ψ-bisection nor the p-iteration applies. Pick the
		// plane closest to the ecliptic and iterate on eccentricity
		// instead; a finite Δv must still come back here.
		nHat := antipodalNormal(r1, rI)
		if retrograde {
			nHat = physics.Scale(nHat, -1)
		}
		sol, ok := solveAntipodal(r1, r2, rI, rF, tof, mu, nHat)
		if !ok {
			return nil, nil
		}
		return []Solution{sol}, nil
	}

	if physics.Norm(cross) < nearCollinearε {
		// Δν ≈ 0: regularize the plane choice so the sign logic below
		// stays well defined.
		ref := physics.Cross(r1, []float64{0, 0, 1})
		if physics.Norm(ref) < nearCollinearε {
			ref = physics.Cross(r1, []float64{0, 1, 0})
		}
		crossZ = ref[2]
		if crossZ == 0 {
			crossZ = 1
		}
	}
	prograde := crossZ >= 0
	if retrograde {
		prograde = !prograde
	}
	sinΔν := math.Sqrt(math.Max(0, 1-cosΔν*cosΔν))
	if sinΔν < nearCollinearε {
		sinΔν = nearCollinearε
	}
	if !prograde {
		sinΔν = -sinΔν
	}

	if cosΔν < -0.95 {
		sol, ok := solveBattin(r1, r2, rI, rF, cosΔν, sinΔν, tof, mu)
		if !ok {
			return nil, nil
		}
		return []Solution{sol}, nil
	}

	var out []Solution
	if sol, ok := solveZeroRev(r1, r2, rI, rF, cosΔν, sinΔν, tof, mu); ok {
		out = append(out, sol)
	}
	for n := 1; n <= maxRevs; n++ {
		if sol, ok := solveMultiRev(r1, r2, rI, rF, cosΔν, sinΔν, tof, mu, n, Short); ok {
			out = append(out, sol)
		}
		if sol, ok := solveMultiRev(r1, r2, rI, rF, cosΔν, sinΔν, tof, mu, n, Long); ok {
			out = append(out, sol)
		}
	}
	return out, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// transferA computes the geometric parameter
// A = sin(Δν)·√(r1·r2 / (1 - cos(Δν))).
func transferA(rI, rF, cosΔν, sinΔν float64) float64 {
	denom := 1 - cosΔν
	if denom < 1e-12 {
		denom = 1e-12
	}
	return sinΔν * math.Sqrt(rI*rF/denom)
}

// timeOfFlight evaluates the universal-variable TOF equation at a given ψ.
func timeOfFlight(ψ, A, rI, rF, mu float64) (tof, y float64, ok bool) {
	c2 := physics.StumpffC2(ψ)
	c3 := physics.StumpffC3(ψ)
	if c2 <= 0 {
		return 0, 0, false
	}
	y = rI + rF + A*(ψ*c3-1)/math.Sqrt(c2)
	if y < 0 {
		return 0, y, false
	}
	χ := math.Sqrt(y / c2)
	tof = (math.Pow(χ, 3)*c3 + A*math.Sqrt(y)) / math.Sqrt(mu)
	return tof, y, true
}

// bisect finds ψ in [ψlow, ψup] such that timeOfFlight(ψ,...) == target,
// assuming the TOF residual changes sign across the bracket (it need not
// be monotonic in a particular direction; only a single sign change is
// required within the bracket). When y < 0 at ψlow (A > 0 with strongly
// hyperbolic ψ), ψlow is first raised to the edge of the region where y ≥ 0.
func bisect(A, rI, rF, mu, target, ψlow, ψup float64) (y, ψ float64, ok bool) {
	fLow, _, okLow := timeOfFlight(ψlow, A, rI, rF, mu)
	if !okLow {
		hi := ψup
		for iter := 0; iter < maxIterations; iter++ {
			mid := (ψlow + hi) / 2
			if _, _, okMid := timeOfFlight(mid, A, rI, rF, mu); okMid {
				hi = mid
			} else {
				ψlow = mid
			}
		}
		ψlow = hi
		fLow, _, okLow = timeOfFlight(ψlow, A, rI, rF, mu)
	}
	fUp, _, okUp := timeOfFlight(ψup, A, rI, rF, mu)
	if !okLow || !okUp {
		return 0, 0, false
	}
	fLow -= target
	fUp -= target
	if fLow == 0 {
		y, _, _ = timeOfFlight(ψlow, A, rI, rF, mu)
		return y, ψlow, true
	}
	if fUp == 0 {
		y, _, _ = timeOfFlight(ψup, A, rI, rF, mu)
		return y, ψup, true
	}
	if fLow*fUp > 0 {
		return 0, 0, false
	}
	for iter := 0; iter < maxIterations; iter++ {
		ψ = (ψlow + ψup) / 2
		tof, yMid, okMid := timeOfFlight(ψ, A, rI, rF, mu)
		if !okMid {
			ψup = ψ
			continue
		}
		y = yMid
		f := tof - target
		if target != 0 && math.Abs(f)/target < tolRel {
			return y, ψ, true
		}
		if (f > 0) == (fUp > 0) {
			ψup = ψ
			fUp = f
		} else {
			ψlow = ψ
			fLow = f
		}
	}
	return 0, 0, false
}

func buildSolution(r1, r2 []float64, rI, rF, A, y, mu float64, revs int, kind PathKind) (Solution, bool) {
	if y <= 0 {
		return Solution{}, false
	}
	g := A * math.Sqrt(y/mu)
	if math.Abs(g) < 1e-12 {
		return Solution{}, false
	}
	f := 1 - y/rI
	gDot := 1 - y/rF

	v1 := make([]float64, 3)
	v2 := make([]float64, 3)
	for i := 0; i < 3; i++ {
		v1[i] = (r2[i] - f*r1[i]) / g
		v2[i] = (gDot*r2[i] - r1[i]) / g
	}
	return Solution{V1: v1, V2: v2, Revolutions: revs, Kind: kind}, true
}

// solveZeroRev solves the single (no-revolution) branch.
func solveZeroRev(r1, r2 []float64, rI, rF, cosΔν, sinΔν, tof, mu float64) (Solution, bool) {
	A := transferA(rI, rF, cosΔν, sinΔν)
	if math.Abs(A) < 1e-9 {
		return Solution{}, false
	}
	ψlow := -4 * math.Pi * math.Pi
	ψup := math.Pi * math.Pi // (2π·0+π)², the initial upper bound
	// Zero-rev arcs whose eccentric-anomaly sweep exceeds π lie above it;
	// widen toward 4π², where C2 vanishes.
	if t, _, okUp := timeOfFlight(ψup, A, rI, rF, mu); okUp && t < tof {
		ψup = 4*math.Pi*math.Pi - 1e-3
	}
	y, _, ok := bisect(A, rI, rF, mu, tof, ψlow, ψup)
	if !ok {
		return Solution{}, false
	}
	return buildSolution(r1, r2, rI, rF, A, y, mu, 0, Short)
}

// solveMultiRev solves one revolution-N branch (short or long), splitting
// the [ψ_low(N), ψ_high(N)] window at the TOF-minimizing ψ found by scan.
func solveMultiRev(r1, r2 []float64, rI, rF, cosΔν, sinΔν, tof, mu float64, n int, kind PathKind) (Solution, bool) {
	A := transferA(rI, rF, cosΔν, sinΔν)
	if math.Abs(A) < 1e-9 {
		return Solution{}, false
	}
	ψLowWindow := math.Pow(2*math.Pi*float64(n-1)+math.Pi, 2)
	ψHighWindow := math.Pow(2*math.Pi*float64(n)+math.Pi, 2)

	ψMin, tofMin, found := findMinimumTOF(A, rI, rF, mu, ψLowWindow, ψHighWindow)
	if !found || tofMin > tof {
		return Solution{}, false
	}

	var y float64
	var ok bool
	if kind == Short {
		y, _, ok = bisect(A, rI, rF, mu, tof, ψLowWindow, ψMin)
	} else {
		y, _, ok = bisect(A, rI, rF, mu, tof, ψMin, ψHighWindow)
	}
	if !ok {
		return Solution{}, false
	}
	return buildSolution(r1, r2, rI, rF, A, y, mu, n, kind)
}

func findMinimumTOF(A, rI, rF, mu, ψLow, ψHigh float64) (ψMin, tofMin float64, found bool) {
	tofMin = math.Inf(1)
	step := (ψHigh - ψLow) / minRevScanSteps
	for i := 0; i <= minRevScanSteps; i++ {
		ψ := ψLow + step*float64(i)
		t, _, ok := timeOfFlight(ψ, A, rI, rF, mu)
		if ok && t < tofMin {
			tofMin = t
			ψMin = ψ
			found = true
		}
	}
	return
}
