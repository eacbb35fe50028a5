// Package transfercore implements the interplanetary transfer-planning
// core: a patched-conic trajectory engine over a registry of Solar System
// bodies and named locations, exposing Lambert-based leg solving, porkchop
// grid scans, and Dijkstra route composition.
package transfercore

import "github.com/guarzo/wanderer-transfercore/lambert"

// OrbitKind tags the variant held by an OrbitSpec. Orbit is a closed sum
// type per the data model: implementations pattern-match rather than
// subtype.
type OrbitKind int

const (
	OrbitFixed OrbitKind = iota
	OrbitKeplerian
	OrbitPolarFromBody
)

// OrbitSpec describes how a body's heliocentric state is derived. Exactly
// one of the Fixed/Keplerian/PolarFromBody field groups is meaningful,
// selected by Kind.
type OrbitSpec struct {
	Kind OrbitKind

	// OrbitFixed
	X, Y, Z float64

	// OrbitKeplerian
	A, E, I, RAAN, ArgPeriapsis, MeanAnomaly0 float64 // radians, except A (km)
	EpochJD                                   float64
	PeriodS                                   float64
	ParentBodyID                              string

	// OrbitPolarFromBody
	PolarParentBodyID string
	PolarR            float64 // km from parent center
	PolarTheta        float64 // radians
}

// Body is an immutable record describing one gravitating or kinematic
// object in the registry.
type Body struct {
	ID                string
	Name              string
	MassKg            float64
	Mu                float64 // km^3/s^2
	RadiusKm          float64
	GravityMS2        float64
	HasSOI            bool
	SOIRadiusKm       float64
	GatewayLocationID string
	Orbit             OrbitSpec
}

// State is a heliocentric position/velocity pair, km and km/s.
type State struct {
	R, V []float64
}

// LagrangePointID names one of the five libration points of a two-primary
// system.
type LagrangePointID int

const (
	L1 LagrangePointID = iota + 1
	L2
	L3
	L4
	L5
)

// LocationKind tags the variant held by a Location.
type LocationKind int

const (
	LocationOrbitNode LocationKind = iota
	LocationMarker
	LocationSurfaceSite
	LocationLagrangePoint
)

// Location is a named point in the transfer graph. Exactly one field
// group is meaningful, selected by Kind. Every Location resolves to
// exactly one BodyID (for LagrangePoint, the primary).
type Location struct {
	ID   string
	Kind LocationKind

	// LocationOrbitNode / LocationMarker / LocationSurfaceSite
	BodyID string

	// LocationOrbitNode
	RadiusKmFromCenter float64

	// LocationSurfaceSite
	LandingDvMS       float64
	LandingTofS       float64
	SurfaceGravityMS2 float64

	// LocationLagrangePoint
	PrimaryBodyID   string
	SecondaryBodyID string
	Point           LagrangePointID
}

// EdgeKind tags the transfer mechanism connecting two locations.
type EdgeKind int

const (
	EdgeLocal EdgeKind = iota
	EdgeLanding
	EdgeLagrange
	EdgeInterplanetary
)

// Edge is an undirected pair of location ids tagged with a transfer
// mechanism, optionally carrying fallback Δv/TOF metadata (the
// configuration's dv_m_s/tof_s) for callers to fall back on when the exact
// leg cannot be solved. The planner itself reads it only as the static
// cost of a lagrange edge. Auto-generated interplanetary edges carry no
// fallback values.
type Edge struct {
	A, B         string
	Kind         EdgeKind
	FallbackDvMS float64
	FallbackTofS float64
}

// LegSolution is the result of evaluating one edge at one epoch.
type LegSolution struct {
	DvTotalMS       float64
	DvDepartMS      float64
	DvArriveMS      float64
	TofS            float64
	DepartureEpochS float64
	ArrivalEpochS   float64
	Revolutions     int
	PathKind        lambert.PathKind
	QualityScore    float64

	// Populated for interplanetary legs so callers may sample the arc.
	HelioR1, HelioV1 []float64
	HelioMu          float64
	VInfDepartKmS    float64
	VInfArriveKmS    float64

	// Trajectory is an optional sampled heliocentric polyline. Nothing in
	// this package fills it: ComputeTrajectoryPoints returns the points to
	// its caller.
	Trajectory [][3]float64
}

// PorkchopResult is a rectangular grid of Δv (m/s) indexed by
// (departure_epoch_i, tof_j), alongside the best N leg solutions sorted
// by quality score. Infeasible cells hold math.NaN and are excluded from
// TopN.
type PorkchopResult struct {
	DepartureEpochsS []float64
	TofsS            []float64
	Dv               [][]float64
	TopN             []LegSolution
}

// Quality-score weights. Named constants rather than magic numbers,
// since they are a game-design tuning rather than a physical quantity.
const (
	qualityTofWeightPerDay = 1.0
	qualityRevWeightPerRev = 50.0
	secondsPerDay          = 86400.0
)

func qualityScore(dvMS, tofS float64, revs int) float64 {
	return dvMS + qualityTofWeightPerDay*(tofS/secondsPerDay) + qualityRevWeightPerRev*float64(revs)
}
