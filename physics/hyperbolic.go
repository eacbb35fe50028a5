package physics

import "math"

// TurnAngle computes the hyperbolic turn angle for a flyby/departure at
// radius of periapsis rP with hyperbolic excess speed vInf about a body of
// gravitational parameter mu.
func TurnAngle(vInf, rP, mu float64) float64 {
	ρ := math.Acos(1 / (1 + vInf*vInf*(rP/mu)))
	return math.Pi - 2*ρ
}

// HyperbolicExcessSpeed returns |v - vBody|, the hyperbolic excess speed
// (v∞) of a heliocentric transfer velocity relative to a body's own
// heliocentric velocity.
func HyperbolicExcessSpeed(vTransfer, vBody []float64) float64 {
	return Norm(Sub(vTransfer, vBody))
}

// ParkingBurn returns the impulsive Δv (km/s) needed to go from a circular
// parking orbit of radius rPark about a body of parameter mu onto (or from)
// a hyperbolic escape/capture asymptote with excess speed vInf:
//
//	Δv = √(v∞² + 2μ/r_park) − √(μ/r_park)
func ParkingBurn(vInf, rPark, mu float64) float64 {
	vCirc := math.Sqrt(mu / rPark)
	vHyp := math.Sqrt(vInf*vInf + 2*mu/rPark)
	return vHyp - vCirc
}
