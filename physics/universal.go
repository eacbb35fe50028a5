package physics

import "math"

const (
	universalTol     = 1e-8 // relative tolerance on the time residual
	universalMaxIter = 100
)

// Propagate advances a two-body state (r0, v0) under gravitational
// parameter μ by a duration Δt (seconds, may be negative), using the
// universal-variable formulation so that elliptic, parabolic, and
// hyperbolic arcs are all handled uniformly. It solves the universal
// Kepler equation for χ via Newton-Raphson with a tolerance of 10⁻⁸ on
// the time residual, capped at 100 iterations.
func Propagate(r0, v0 []float64, mu, dt float64) (r, v []float64, err error) {
	if dt == 0 {
		return append([]float64{}, r0...), append([]float64{}, v0...), nil
	}
	r0n := Norm(r0)
	v0n := Norm(v0)
	if r0n <= 0 || mu <= 0 {
		return nil, nil, &NonConvergenceError{Routine: "Propagate", Iterations: 0, Residual: math.NaN()}
	}
	rv0 := Dot(r0, v0)
	alpha := 2/r0n - (v0n*v0n)/mu

	sqrtMu := math.Sqrt(mu)
	χ := initialChi(r0n, rv0, alpha, mu, dt)

	var rNorm float64
	converged := false
	for i := 0; i < universalMaxIter; i++ {
		ψ := χ * χ * alpha
		c2 := StumpffC2(ψ)
		c3 := StumpffC3(ψ)

		t := (math.Pow(χ, 3)*c3 + rv0/sqrtMu*χ*χ*c2 + r0n*χ*(1-ψ*c3)) / sqrtMu
		rNorm = χ*χ*c2 + rv0/sqrtMu*χ*(1-ψ*c3) + r0n*(1-ψ*c2)
		if rNorm == 0 {
			return nil, nil, &NonConvergenceError{Routine: "Propagate", Iterations: i, Residual: 0}
		}
		residual := dt - t
		χ += (residual * sqrtMu) / rNorm
		if math.Abs(residual)/math.Max(math.Abs(dt), 1) < universalTol {
			converged = true
			break
		}
	}
	if !converged {
		return nil, nil, &NonConvergenceError{Routine: "Propagate", Iterations: universalMaxIter, Residual: math.NaN()}
	}

	ψ := χ * χ * alpha
	c2 := StumpffC2(ψ)
	c3 := StumpffC3(ψ)

	f := 1 - (χ*χ/r0n)*c2
	g := dt - (math.Pow(χ, 3)/sqrtMu)*c3

	r = make([]float64, 3)
	for i := 0; i < 3; i++ {
		r[i] = f*r0[i] + g*v0[i]
	}
	rNewNorm := Norm(r)
	if rNewNorm == 0 {
		return nil, nil, &NonConvergenceError{Routine: "Propagate", Iterations: universalMaxIter, Residual: 0}
	}
	gdot := 1 - (χ*χ/rNewNorm)*c2
	fdot := (sqrtMu / (rNewNorm * r0n)) * χ * (ψ*c3 - 1)

	v = make([]float64, 3)
	for i := 0; i < 3; i++ {
		v[i] = fdot*r0[i] + gdot*v0[i]
	}
	return r, v, nil
}

// initialChi seeds the universal-variable Newton iteration depending on
// orbit type, following Vallado's algorithm 8.3.
func initialChi(r0n, rv0, alpha, mu, dt float64) float64 {
	sqrtMu := math.Sqrt(mu)
	switch {
	case alpha > 1e-6:
		// Ellipse: χ0 = √μ·Δt·α
		return sqrtMu * dt * alpha
	case alpha < -1e-6:
		// Hyperbola.
		a := 1 / alpha
		denom := rv0 + Sign(dt)*math.Sqrt(-mu*a)*(1-r0n*alpha)
		if denom == 0 {
			denom = 1e-10
		}
		return Sign(dt) * math.Sqrt(-a) * math.Log((-2*mu*alpha*dt)/denom)
	default:
		// Near-parabolic: fall back to a simple linear seed.
		return sqrtMu * dt / r0n
	}
}
