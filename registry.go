package transfercore

import (
	"math"

	kitlog "github.com/go-kit/kit/log"

	"github.com/guarzo/wanderer-transfercore/physics"
)

// Registry is the immutable body/location/edge graph built once from a
// configuration document (L6) and consulted by every layer above L1. A
// reload builds a new Registry and atomically swaps it in; readers never
// synchronize.
type Registry struct {
	bodies    map[string]Body
	locations map[string]Location
	edges     []Edge
	gateways  map[string]string // body id -> preferred orbit-node location id

	logger kitlog.Logger
}

// NewRegistry freezes the given bodies, locations, and edges into an
// immutable Registry, deriving the per-body gateway table.
func NewRegistry(bodies []Body, locations []Location, edges []Edge) *Registry {
	r := &Registry{
		bodies:    make(map[string]Body, len(bodies)),
		locations: make(map[string]Location, len(locations)),
		edges:     append([]Edge{}, edges...),
		gateways:  make(map[string]string),
		logger:    componentLogger("registry"),
	}
	for _, b := range bodies {
		r.bodies[b.ID] = b
	}
	for _, l := range locations {
		r.locations[l.ID] = l
	}
	r.deriveGateways()
	return r
}

// deriveGateways picks, for every body with a non-absent SOI, the lowest-
// altitude orbit-node location as its default gateway, unless the body
// names an explicit GatewayLocationID.
func (r *Registry) deriveGateways() {
	best := make(map[string]Location)
	for _, loc := range r.locations {
		if loc.Kind != LocationOrbitNode {
			continue
		}
		cur, ok := best[loc.BodyID]
		if !ok || loc.RadiusKmFromCenter < cur.RadiusKmFromCenter {
			best[loc.BodyID] = loc
		}
	}
	for id, b := range r.bodies {
		if !b.HasSOI {
			continue
		}
		if b.GatewayLocationID != "" {
			r.gateways[id] = b.GatewayLocationID
			continue
		}
		if loc, ok := best[id]; ok {
			r.gateways[id] = loc.ID
		}
	}
}

// Body looks up a body by id.
func (r *Registry) Body(id string) (Body, error) {
	b, ok := r.bodies[id]
	if !ok {
		return Body{}, &UnknownBody{BodyID: id}
	}
	return b, nil
}

// Location looks up a location by id.
func (r *Registry) Location(id string) (Location, error) {
	l, ok := r.locations[id]
	if !ok {
		return Location{}, &UnknownLocation{LocationID: id}
	}
	return l, nil
}

// Edges returns the full configured/auto-generated edge set.
func (r *Registry) Edges() []Edge {
	return append([]Edge{}, r.edges...)
}

// Gateway returns the preferred orbit-node location id for a body, if any.
func (r *Registry) Gateway(bodyID string) (string, bool) {
	id, ok := r.gateways[bodyID]
	return id, ok
}

// EdgeBetween returns the configured edge connecting the two location ids,
// in either orientation.
func (r *Registry) EdgeBetween(a, b string) (Edge, bool) {
	for _, e := range r.edges {
		if (e.A == a && e.B == b) || (e.A == b && e.B == a) {
			return e, true
		}
	}
	return Edge{}, false
}

// ResolveLocationBody resolves a location to its owning body id and its
// park radius (body mean radius + orbit-node altitude, or body radius
// alone for surface sites). LagrangePoint locations resolve to their
// primary body.
func (r *Registry) ResolveLocationBody(locID string) (bodyID string, parkRadiusKm float64, err error) {
	loc, err := r.Location(locID)
	if err != nil {
		return "", 0, err
	}
	switch loc.Kind {
	case LocationOrbitNode:
		b, err := r.Body(loc.BodyID)
		if err != nil {
			return "", 0, err
		}
		return loc.BodyID, b.RadiusKm + loc.RadiusKmFromCenter, nil
	case LocationMarker:
		b, err := r.Body(loc.BodyID)
		if err != nil {
			return "", 0, err
		}
		return loc.BodyID, b.RadiusKm, nil
	case LocationSurfaceSite:
		b, err := r.Body(loc.BodyID)
		if err != nil {
			return "", 0, err
		}
		return loc.BodyID, b.RadiusKm, nil
	case LocationLagrangePoint:
		b, err := r.Body(loc.PrimaryBodyID)
		if err != nil {
			return "", 0, err
		}
		return loc.PrimaryBodyID, b.RadiusKm, nil
	default:
		return "", 0, &UnknownLocation{LocationID: locID}
	}
}

// BodyState returns the heliocentric (position, velocity) of body id at
// epochS, walking the parent chain so a moon's state is the sum of its
// planet's state and its own state relative to that planet. Keplerian
// orbits propagate in closed form (Vallado 4th ed. p.118); there is no
// external ephemeris fetch.
func (r *Registry) BodyState(id string, epochS float64) (State, error) {
	b, err := r.Body(id)
	if err != nil {
		return State{}, err
	}
	return r.bodyStateRec(b, epochS, 0)
}

const maxParentChainDepth = 16

func (r *Registry) bodyStateRec(b Body, epochS float64, depth int) (State, error) {
	if depth > maxParentChainDepth {
		return State{}, &InvalidConfig{Path: b.ID, Reason: "parent chain too deep or cyclic"}
	}
	switch b.Orbit.Kind {
	case OrbitFixed:
		return State{R: []float64{b.Orbit.X, b.Orbit.Y, b.Orbit.Z}, V: []float64{0, 0, 0}}, nil

	case OrbitKeplerian:
		parent, err := r.Body(b.Orbit.ParentBodyID)
		if err != nil {
			return State{}, err
		}
		parentState, err := r.bodyStateRec(parent, epochS, depth+1)
		if err != nil {
			return State{}, err
		}
		rRel, vRel, err := keplerianState(b.Orbit, parent.Mu, epochS)
		if err != nil {
			logError(r.logger, "keplerian propagation failed", "body", b.ID, "err", err)
			return State{}, err
		}
		return State{
			R: physics.Add(parentState.R, rRel),
			V: physics.Add(parentState.V, vRel),
		}, nil

	case OrbitPolarFromBody:
		parent, err := r.Body(b.Orbit.PolarParentBodyID)
		if err != nil {
			return State{}, err
		}
		parentState, err := r.bodyStateRec(parent, epochS, depth+1)
		if err != nil {
			return State{}, err
		}
		sθ, cθ := math.Sincos(b.Orbit.PolarTheta)
		offset := []float64{b.Orbit.PolarR * cθ, b.Orbit.PolarR * sθ, 0}
		return State{
			R: physics.Add(parentState.R, offset),
			V: parentState.V,
		}, nil

	default:
		return State{}, &InvalidConfig{Path: b.ID, Reason: "unknown orbit kind"}
	}
}

// LagrangeState returns the heliocentric state of a lagrange-point
// location at epochS, in the circular-restricted-three-body approximation
// built from both primaries' instantaneous states. The collinear points
// L1-L3 use the first-order mass-ratio expansions; L4/L5
// sit at ±60° along the secondary's orbit. Velocities follow the rigid
// rotation of the primary-secondary line.
func (r *Registry) LagrangeState(locID string, epochS float64) (State, error) {
	loc, err := r.Location(locID)
	if err != nil {
		return State{}, err
	}
	if loc.Kind != LocationLagrangePoint {
		return State{}, &InvalidRequest{Reason: "location " + locID + " is not a lagrange point"}
	}
	primary, err := r.Body(loc.PrimaryBodyID)
	if err != nil {
		return State{}, err
	}
	pState, err := r.BodyState(loc.PrimaryBodyID, epochS)
	if err != nil {
		return State{}, err
	}
	secondary, err := r.Body(loc.SecondaryBodyID)
	if err != nil {
		return State{}, err
	}
	sState, err := r.BodyState(loc.SecondaryBodyID, epochS)
	if err != nil {
		return State{}, err
	}
	if primary.Mu <= 0 {
		return State{}, &InvalidConfig{Path: primary.ID, Reason: "lagrange primary has non-positive mu"}
	}

	rel := physics.Sub(sState.R, pState.R)
	relV := physics.Sub(sState.V, pState.V)
	q := secondary.Mu / primary.Mu
	γ := math.Cbrt(q / 3)

	switch loc.Point {
	case L1:
		return State{
			R: physics.Add(pState.R, physics.Scale(rel, 1-γ)),
			V: physics.Add(pState.V, physics.Scale(relV, 1-γ)),
		}, nil
	case L2:
		return State{
			R: physics.Add(pState.R, physics.Scale(rel, 1+γ)),
			V: physics.Add(pState.V, physics.Scale(relV, 1+γ)),
		}, nil
	case L3:
		scale := -(1 + 5*q/12)
		return State{
			R: physics.Add(pState.R, physics.Scale(rel, scale)),
			V: physics.Add(pState.V, physics.Scale(relV, scale)),
		}, nil
	case L4, L5:
		angle := math.Pi / 3
		if loc.Point == L5 {
			angle = -angle
		}
		n := physics.Unit(physics.Cross(rel, relV))
		if physics.Norm(n) < 1e-12 {
			n = []float64{0, 0, 1}
		}
		return State{
			R: physics.Add(pState.R, rotateAbout(rel, n, angle)),
			V: physics.Add(pState.V, rotateAbout(relV, n, angle)),
		}, nil
	default:
		return State{}, &InvalidConfig{Path: locID, Reason: "unknown lagrange point"}
	}
}

// rotateAbout rotates v about unit axis n by angle (Rodrigues form).
func rotateAbout(v, n []float64, angle float64) []float64 {
	sinA, cosA := math.Sincos(angle)
	term1 := physics.Scale(v, cosA)
	term2 := physics.Scale(physics.Cross(n, v), sinA)
	term3 := physics.Scale(n, physics.Dot(n, v)*(1-cosA))
	return physics.Add(physics.Add(term1, term2), term3)
}

// keplerianState computes the body-relative-to-parent (r, v) for a
// Keplerian orbit spec at epochS, following Vallado's COE2RV (4th ed.
// p.118): mean anomaly from the epoch delta, Kepler's equation for
// eccentric anomaly, perifocal closed form, then a 3-1-3 Euler rotation
// into the parent-centered inertial frame.
func keplerianState(o OrbitSpec, parentMu, epochS float64) (r, v []float64, err error) {
	epochJDSeconds := o.EpochJD * 86400.0
	n := 2 * math.Pi / o.PeriodS
	M := o.MeanAnomaly0 + n*(epochS-epochJDSeconds)
	M = math.Mod(M, 2*math.Pi)

	e := o.E
	E, kerr := physics.SolveKepler(M, e)
	if kerr != nil {
		return nil, nil, &NumericalNonConvergence{Routine: "keplerianState", Cause: kerr}
	}

	p := o.A * (1 - e*e)
	sinE, cosE := math.Sincos(E)
	// True anomaly via the half-angle-free atan2 form to avoid quadrant
	// ambiguity near E=0 and E=π.
	ν := math.Atan2(math.Sqrt(1-e*e)*sinE, cosE-e)
	rNorm := o.A * (1 - e*cosE)

	μOverP := math.Sqrt(parentMu / p)
	sinν, cosν := math.Sincos(ν)
	rPQW := []float64{rNorm * cosν, rNorm * sinν, 0}
	vPQW := []float64{-μOverP * sinν, μOverP * (e + cosν), 0}

	r = physics.Rot313(-o.ArgPeriapsis, -o.I, -o.RAAN, rPQW)
	v = physics.Rot313(-o.ArgPeriapsis, -o.I, -o.RAAN, vPQW)
	return r, v, nil
}
