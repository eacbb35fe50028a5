package lambert

import (
	"math"

	"github.com/guarzo/wanderer-transfercore/physics"
)

// antipodalNormal picks an orbit normal for a Δν = π transfer, where r1×r2
// no longer determines the plane. Any unit vector orthogonal to r1 is
// admissible; the ecliptic z-axis projected out of r1 is preferred so the
// chosen plane is the one closest to the ecliptic, with the y-axis as a
// second choice when the transfer line itself runs along z.
func antipodalNormal(r1 []float64, rI float64) []float64 {
	rHat := physics.Scale(r1, 1/rI)
	n := physics.Sub([]float64{0, 0, 1}, physics.Scale(rHat, rHat[2]))
	if physics.Norm(n) < 1e-8 {
		n = physics.Sub([]float64{0, 1, 0}, physics.Scale(rHat, rHat[1]))
	}
	return physics.Unit(n)
}

// solveAntipodal solves the Lambert problem for exactly antiparallel
// endpoints. At Δν = π the semi-latus rectum of every connecting conic is
// fixed at p = 2·r1·r2/(r1+r2), so the family is parameterized by
// eccentricity alone: e ranges from e_min = |r2−r1|/(r1+r2) (the Hohmann
// ellipse, tangential at both ends) upward, and the time of flight varies
// with e along two branches: the arc through apoapsis and the arc through
// periapsis. Each branch is bisected on e against the target TOF; terminal
// velocities come from the radial/transverse closed form, which stays
// finite where the f/g identities (∝ 1/sin Δν) do not.
func solveAntipodal(r1, r2 []float64, rI, rF, tof, mu float64, nHat []float64) (Solution, bool) {
	p := 2 * rI * rF / (rI + rF)
	eMin := math.Abs(rF-rI) / (rI + rF)

	eLo := eMin + 1e-12
	eHi := 0.999999

	// The Hohmann/circular member itself: both branches collapse onto it
	// as e → e_min, so accept it directly when the target TOF matches.
	if tHoh, ok := antipodalTOF(eLo, 1, p, rI, mu); ok && math.Abs(tHoh-tof)/tof < 1e-6 {
		return antipodalSolution(r1, r2, rI, rF, eLo, p, mu, nHat, 1), true
	}

	for _, sign := range []float64{1, -1} {
		e, ok := bisectAntipodal(sign, p, rI, mu, tof, eLo, eHi)
		if !ok {
			continue
		}
		return antipodalSolution(r1, r2, rI, rF, e, p, mu, nHat, sign), true
	}
	return Solution{}, false
}

// antipodalTOF evaluates the time of flight of the antipodal-family member
// with eccentricity e. sign selects the branch: +1 places the departure
// true anomaly in [0, π] (the arc crosses apoapsis), −1 in [−π, 0] (the
// arc crosses periapsis).
func antipodalTOF(e, sign, p, rI, mu float64) (float64, bool) {
	if e <= 0 || e >= 1 {
		return 0, false
	}
	a := p / (1 - e*e)
	cosν1 := clamp((p/rI-1)/e, -1, 1)
	ν1 := sign * math.Acos(cosν1)
	ν2 := ν1 + math.Pi

	E1 := eccentricFromTrue(ν1, e)
	E2 := eccentricFromTrue(ν2, e)
	M1 := E1 - e*math.Sin(E1)
	M2 := E2 - e*math.Sin(E2)
	dM := M2 - M1
	for dM < 0 {
		dM += 2 * math.Pi
	}
	t := dM * math.Sqrt(a*a*a/mu)
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, false
	}
	return t, true
}

func eccentricFromTrue(ν, e float64) float64 {
	return 2 * math.Atan2(math.Sqrt(1-e)*math.Sin(ν/2), math.Sqrt(1+e)*math.Cos(ν/2))
}

func bisectAntipodal(sign, p, rI, mu, target, eLo, eHi float64) (float64, bool) {
	fLo, okLo := antipodalTOF(eLo, sign, p, rI, mu)
	fHi, okHi := antipodalTOF(eHi, sign, p, rI, mu)
	if !okLo || !okHi {
		return 0, false
	}
	fLo -= target
	fHi -= target
	if fLo*fHi > 0 {
		return 0, false
	}
	var e float64
	for iter := 0; iter < maxIterations; iter++ {
		e = (eLo + eHi) / 2
		t, ok := antipodalTOF(e, sign, p, rI, mu)
		if !ok {
			eHi = e
			continue
		}
		f := t - target
		if math.Abs(f)/target < tolRel {
			return e, true
		}
		if (f > 0) == (fHi > 0) {
			eHi = e
			fHi = f
		} else {
			eLo = e
			fLo = f
		}
	}
	return 0, false
}

// antipodalSolution builds the terminal velocities of the converged family
// member from the radial/transverse decomposition
// v = √(μ/p)·e·sin ν · r̂ + √(μ/p)·(1 + e·cos ν) · (n̂ × r̂).
func antipodalSolution(r1, r2 []float64, rI, rF, e, p, mu float64, nHat []float64, sign float64) Solution {
	cosν1 := clamp((p/rI-1)/e, -1, 1)
	ν1 := sign * math.Acos(cosν1)
	ν2 := ν1 + math.Pi

	k := math.Sqrt(mu / p)
	rHat1 := physics.Scale(r1, 1/rI)
	rHat2 := physics.Scale(r2, 1/rF)
	tHat1 := physics.Cross(nHat, rHat1)
	tHat2 := physics.Cross(nHat, rHat2)

	v1 := physics.Add(
		physics.Scale(rHat1, k*e*math.Sin(ν1)),
		physics.Scale(tHat1, k*(1+e*math.Cos(ν1))),
	)
	v2 := physics.Add(
		physics.Scale(rHat2, k*e*math.Sin(ν2)),
		physics.Scale(tHat2, k*(1+e*math.Cos(ν2))),
	)
	return Solution{V1: v1, V2: v2, Revolutions: 0, Kind: Short}
}
