// Package physics implements the L0 layer: vector algebra, the Stumpff
// functions, the Kepler-equation solver, and the universal-variable f/g
// propagator shared by the ephemeris, Lambert, and transfer-planning
// layers above it.
package physics

import (
	"math"

	"github.com/gonum/matrix/mat64"
)

// Norm returns the Euclidean norm of a 3-vector.
func Norm(v []float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Unit returns the unit vector of a, or the zero vector if a is (numerically) zero.
func Unit(a []float64) []float64 {
	n := Norm(a)
	if n < 1e-12 {
		return []float64{0, 0, 0}
	}
	b := make([]float64, len(a))
	for i, val := range a {
		b[i] = val / n
	}
	return b
}

// Dot performs the inner product via mat64/BLAS.
func Dot(a, b []float64) float64 {
	return mat64.Dot(mat64.NewVector(len(a), a), mat64.NewVector(len(b), b))
}

// Cross performs the cross product a × b for 3-vectors.
func Cross(a, b []float64) []float64 {
	return []float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Sign returns the sign of v, treating values within 1e-12 of zero as positive.
func Sign(v float64) float64 {
	if math.Abs(v) < 1e-12 {
		return 1
	}
	return v / math.Abs(v)
}

// Scale returns a scaled by s.
func Scale(a []float64, s float64) []float64 {
	b := make([]float64, len(a))
	for i := range a {
		b[i] = a[i] * s
	}
	return b
}

// Add returns a+b element-wise.
func Add(a, b []float64) []float64 {
	c := make([]float64, len(a))
	for i := range a {
		c[i] = a[i] + b[i]
	}
	return c
}

// Sub returns a-b element-wise.
func Sub(a, b []float64) []float64 {
	c := make([]float64, len(a))
	for i := range a {
		c[i] = a[i] - b[i]
	}
	return c
}

// Rot313 performs a 3-1-3 Euler-angle rotation of a vector, used to rotate
// the perifocal (PQW) frame of a Keplerian orbit into the inertial frame.
func Rot313(Ω, i, ω float64, v []float64) []float64 {
	return mulVec(r3r1r3(Ω, i, ω), v)
}

// r3r1r3 builds the composed 3-1-3 Euler rotation matrix (Schaub & Junkins form).
func r3r1r3(θ1, θ2, θ3 float64) *mat64.Dense {
	sθ1, cθ1 := math.Sincos(θ1)
	sθ2, cθ2 := math.Sincos(θ2)
	sθ3, cθ3 := math.Sincos(θ3)
	return mat64.NewDense(3, 3, []float64{
		cθ3*cθ1 - sθ3*cθ2*sθ1, cθ3*sθ1 + sθ3*cθ2*cθ1, sθ3 * sθ2,
		-sθ3*cθ1 - cθ3*cθ2*sθ1, -sθ3*sθ1 + cθ3*cθ2*cθ1, cθ3 * sθ2,
		sθ2 * sθ1, -sθ2 * cθ1, cθ2,
	})
}

func mulVec(m *mat64.Dense, v []float64) []float64 {
	var dst mat64.Vector
	dst.MulVec(m, mat64.NewVector(len(v), v))
	out := make([]float64, dst.Len())
	for i := range out {
		out[i] = dst.At(i, 0)
	}
	return out
}

const deg2rad = math.Pi / 180

// Deg2rad converts degrees to radians. Configuration documents express
// inclination, RAAN, argument of periapsis, and mean anomaly in degrees;
// the ephemeris layer works in radians throughout.
func Deg2rad(a float64) float64 {
	return a * deg2rad
}

// Rad2deg converts radians to degrees in [0, 360).
func Rad2deg(a float64) float64 {
	d := math.Mod(a/deg2rad, 360)
	if d < 0 {
		d += 360
	}
	return d
}
