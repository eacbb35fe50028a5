package transfercore

import (
	"math"
	"sync/atomic"

	kitlog "github.com/go-kit/kit/log"

	"github.com/guarzo/wanderer-transfercore/lambert"
	"github.com/guarzo/wanderer-transfercore/physics"
)

// tofSweepCount is the number of geometrically spaced TOF candidates
// tried for a single-leg interplanetary solve.
const tofSweepCount = 14

// muSun is the fallback heliocentric gravitational parameter used only
// when the registry carries no body with id "sun"; overridden by that
// body's Mu when present. See DESIGN.md open question (a).
const muSun = 1.32712440018e11

// Planner is the transfer planner: location->body resolution, the
// Hohmann closed form for same-body legs, the Lambert-based sweep for
// interplanetary legs, and the LRU memoization layer. The registry is held
// behind an atomic pointer so Reload is an immutable-snapshot swap and
// readers never synchronize.
type Planner struct {
	reg    atomic.Pointer[Registry]
	cache  *legCache
	logger kitlog.Logger
}

// NewPlanner builds a Planner bound to reg, with a fresh 1024-entry LRU.
func NewPlanner(reg *Registry) *Planner {
	p := &Planner{
		cache:  newLegCache(1024),
		logger: componentLogger("planner"),
	}
	p.reg.Store(reg)
	return p
}

// registry returns the current immutable registry snapshot. Each request
// resolves it once and threads it through, so a concurrent Reload never
// mixes two registries within one solve.
func (p *Planner) registry() *Registry {
	return p.reg.Load()
}

// CacheStats exposes the LRU's hit/miss counters for observability.
func (p *Planner) CacheStats() CacheStats {
	return p.cache.stats()
}

// Reload atomically replaces the registry and clears the cache. Stale
// entries keyed against the old registry must never serve a request
// against the new one.
func (p *Planner) Reload(reg *Registry) {
	p.reg.Store(reg)
	p.cache.clear()
	logInfo(p.logger, "registry reloaded, cache cleared")
}

// SolveLeg evaluates the edge connecting fromLoc and toLoc at departureS,
// with an additional fixed extraDvMS applied on top of the computed burn.
// Same-body pairs take the closed-form Hohmann branch (or the fixed
// landing/lagrange values when the pair is connected by such an edge);
// different-parent pairs take the Lambert sweep. Results are memoized by
// (fromLoc, toLoc, departure bucket, extra-dv bucket).
func (p *Planner) SolveLeg(fromLoc, toLoc string, departureS, extraDvMS float64) (LegSolution, error) {
	return p.solveLegRevs(fromLoc, toLoc, departureS, extraDvMS, 0)
}

// SolveLegWithRevs is SolveLeg with an explicit Lambert revolution budget.
// The porkchop scanner passes a non-zero budget per cell, richer than a
// direct leg solve's 0.
func (p *Planner) SolveLegWithRevs(fromLoc, toLoc string, departureS, extraDvMS float64, maxRevs int) (LegSolution, error) {
	return p.solveLegRevs(fromLoc, toLoc, departureS, extraDvMS, maxRevs)
}

func (p *Planner) solveLegRevs(fromLoc, toLoc string, departureS, extraDvMS float64, maxRevs int) (LegSolution, error) {
	key := cacheKey{
		fromLoc:   fromLoc,
		toLoc:     toLoc,
		depBucket: int64(math.Floor(departureS / 3600)),
		dvBucket:  int64(math.Round(extraDvMS / 10)),
		maxRevs:   maxRevs,
	}
	if sol, ok := p.cache.get(key); ok {
		return sol, nil
	}

	reg := p.registry()
	fromL, err := reg.Location(fromLoc)
	if err != nil {
		return LegSolution{}, err
	}
	toL, err := reg.Location(toLoc)
	if err != nil {
		return LegSolution{}, err
	}
	fromBody, fromParkR, err := reg.ResolveLocationBody(fromLoc)
	if err != nil {
		return LegSolution{}, err
	}
	toBody, toParkR, err := reg.ResolveLocationBody(toLoc)
	if err != nil {
		return LegSolution{}, err
	}

	var sol LegSolution
	switch {
	case fromBody == toBody && (fromL.Kind == LocationSurfaceSite || toL.Kind == LocationSurfaceSite):
		sol = landingLeg(fromL, toL, departureS)
	case lagrangeEdgeApplies(reg, fromL, toL):
		sol = lagrangeLeg(reg, fromL, toL, departureS)
	case fromBody == toBody:
		sol, err = solveLocalLeg(reg, fromBody, fromParkR, toParkR, departureS)
	default:
		sol, err = p.solveInterplanetaryLeg(reg, fromBody, toBody, fromParkR, toParkR, departureS, maxRevs)
		if nft, ok := err.(*NoFeasibleTransfer); ok {
			nft.FromLocationID, nft.ToLocationID = fromLoc, toLoc
		}
	}
	if err != nil {
		return LegSolution{}, err
	}
	sol.DvTotalMS += extraDvMS
	sol.QualityScore = qualityScore(sol.DvTotalMS, sol.TofS, sol.Revolutions)
	p.cache.put(key, sol)
	return sol, nil
}

// lagrangeEdgeApplies reports whether the pair is connected by a
// configured lagrange edge carrying static low-energy Δv/TOF metadata.
func lagrangeEdgeApplies(reg *Registry, a, b Location) bool {
	if a.Kind != LocationLagrangePoint && b.Kind != LocationLagrangePoint {
		return false
	}
	e, ok := reg.EdgeBetween(a.ID, b.ID)
	return ok && e.Kind == EdgeLagrange && e.FallbackDvMS > 0
}

// landingLeg evaluates a fixed-cost landing/ascent: Δv and TOF are pulled
// from the surface-site endpoint, never computed.
func landingLeg(a, b Location, departureS float64) LegSolution {
	site := a
	if b.Kind == LocationSurfaceSite {
		site = b
	}
	return fixedLeg(site.LandingDvMS, site.LandingTofS, departureS)
}

// lagrangeLeg evaluates a low-energy static leg from the configured edge
// metadata.
func lagrangeLeg(reg *Registry, a, b Location, departureS float64) LegSolution {
	e, _ := reg.EdgeBetween(a.ID, b.ID)
	return fixedLeg(e.FallbackDvMS, e.FallbackTofS, departureS)
}

func fixedLeg(dvMS, tofS, departureS float64) LegSolution {
	return LegSolution{
		DvTotalMS:       dvMS,
		DvDepartMS:      dvMS,
		TofS:            tofS,
		DepartureEpochS: departureS,
		ArrivalEpochS:   departureS + tofS,
		Revolutions:     0,
		PathKind:        lambert.Short,
	}
}

// solveLocalLeg computes a coplanar Hohmann transfer between circular
// radii r1, r2 about the shared parent body. Closed form, not
// time-dependent.
func solveLocalLeg(reg *Registry, bodyID string, r1, r2, departureS float64) (LegSolution, error) {
	body, err := reg.Body(bodyID)
	if err != nil {
		return LegSolution{}, err
	}
	mu := body.Mu
	dv1 := math.Abs(math.Sqrt(mu/r1) * (math.Sqrt(2*r2/(r1+r2)) - 1))
	dv2 := math.Abs(math.Sqrt(mu/r2) * (1 - math.Sqrt(2*r1/(r1+r2))))
	tof := math.Pi * math.Sqrt(math.Pow(r1+r2, 3)/(8*mu))

	return LegSolution{
		DvTotalMS:       (dv1 + dv2) * 1000,
		DvDepartMS:      dv1 * 1000,
		DvArriveMS:      dv2 * 1000,
		TofS:            tof,
		DepartureEpochS: departureS,
		ArrivalEpochS:   departureS + tof,
		Revolutions:     0,
		PathKind:        lambert.Short,
	}, nil
}

// solveInterplanetaryLeg sweeps geometrically spaced TOF candidates on
// [0.3, 2.5]x the Hohmann estimate, solving Lambert at each and keeping
// the best-quality patched-conic result. maxRevs selects the Lambert
// revolution budget: 0 for a direct leg solve, higher when invoked from
// the porkchop scanner.
func (p *Planner) solveInterplanetaryLeg(reg *Registry, fromBodyID, toBodyID string, parkR1, parkR2, departureS float64, maxRevs int) (LegSolution, error) {
	fromBody, err := reg.Body(fromBodyID)
	if err != nil {
		return LegSolution{}, err
	}
	toBody, err := reg.Body(toBodyID)
	if err != nil {
		return LegSolution{}, err
	}
	mu := heliocentricMu(reg)

	fromState, err := reg.BodyState(fromBodyID, departureS)
	if err != nil {
		return LegSolution{}, err
	}
	aFrom := physics.Norm(fromState.R)
	aTo := hohmannAnchorSMA(reg, toBodyID, departureS)

	tHohmann := math.Pi * math.Sqrt(math.Pow(aFrom+aTo, 3)/(8*mu))
	// Closed-form heliocentric Hohmann estimate (same form as solveLocalLeg),
	// used only as the NoFeasibleTransfer fallback floor.
	hohmannDvMS := (math.Abs(math.Sqrt(mu/aFrom)*(math.Sqrt(2*aTo/(aFrom+aTo))-1)) +
		math.Abs(math.Sqrt(mu/aTo)*(1-math.Sqrt(2*aFrom/(aFrom+aTo))))) * 1000

	tofLow := 0.3 * tHohmann
	tofHigh := 2.5 * tHohmann
	ratio := math.Pow(tofHigh/tofLow, 1.0/float64(tofSweepCount-1))

	var best LegSolution
	haveBest := false

	tof := tofLow
	for i := 0; i < tofSweepCount; i++ {
		candidate, ok, err := evalInterplanetaryAtTOF(reg, fromBody, toBody, fromState, parkR1, parkR2, mu, departureS, tof, maxRevs)
		if err != nil {
			return LegSolution{}, &NumericalNonConvergence{Routine: "solveInterplanetaryLeg", Cause: err}
		}
		if ok && (!haveBest || candidate.QualityScore < best.QualityScore) {
			best = candidate
			haveBest = true
		}
		tof *= ratio
	}

	if !haveBest {
		logError(p.logger, "no feasible interplanetary leg", "from", fromBodyID, "to", toBodyID, "departure_s", departureS)
		return LegSolution{}, &NoFeasibleTransfer{
			FromLocationID: fromBodyID,
			ToLocationID:   toBodyID,
			FallbackDvMS:   hohmannDvMS,
			FallbackTofS:   tHohmann,
		}
	}
	return best, nil
}

// heliocentricMu returns the central gravitational parameter for
// interplanetary arcs: the configured "sun" body's Mu when present, the
// hardcoded fallback otherwise (DESIGN.md open question (a)).
func heliocentricMu(reg *Registry) float64 {
	if sun, err := reg.Body("sun"); err == nil {
		return sun.Mu
	}
	return muSun
}

// evalInterplanetaryAtTOF evaluates a single departure/TOF pair, picking
// the best-quality Lambert branch among the revolutions returned (there
// may be several short/long candidates at a given revolution count).
// ok is false when no branch is numerically valid for this pair (the
// caller treats that as an infeasible cell, not an error).
func evalInterplanetaryAtTOF(reg *Registry, fromBody, toBody Body, fromState State, parkR1, parkR2, mu, departureS, tof float64, maxRevs int) (LegSolution, bool, error) {
	arrivalS := departureS + tof
	toState, err := reg.BodyState(toBody.ID, arrivalS)
	if err != nil {
		return LegSolution{}, false, err
	}
	sols, err := lambert.Solve(fromState.R, toState.R, tof, mu, maxRevs, false)
	if err != nil {
		return LegSolution{}, false, err
	}
	var best LegSolution
	haveBest := false
	for _, s := range sols {
		vInfDep := physics.HyperbolicExcessSpeed(s.V1, fromState.V)
		vInfArr := physics.HyperbolicExcessSpeed(s.V2, toState.V)
		dvDepart := physics.ParkingBurn(vInfDep, parkR1, fromBody.Mu) * 1000
		dvArrive := physics.ParkingBurn(vInfArr, parkR2, toBody.Mu) * 1000
		dvTotal := dvDepart + dvArrive

		candidate := LegSolution{
			DvTotalMS:       dvTotal,
			DvDepartMS:      dvDepart,
			DvArriveMS:      dvArrive,
			TofS:            tof,
			DepartureEpochS: departureS,
			ArrivalEpochS:   arrivalS,
			Revolutions:     s.Revolutions,
			PathKind:        s.Kind,
			HelioR1:         fromState.R,
			HelioV1:         s.V1,
			HelioMu:         mu,
			VInfDepartKmS:   vInfDep,
			VInfArriveKmS:   vInfArr,
		}
		candidate.QualityScore = qualityScore(candidate.DvTotalMS, candidate.TofS, candidate.Revolutions)
		if !haveBest || candidate.QualityScore < best.QualityScore {
			best = candidate
			haveBest = true
		}
	}
	return best, haveBest, nil
}

// SolveLegAtTOF evaluates a single fixed departure/TOF pair directly,
// bypassing the adaptive sweep SolveLeg performs. The porkchop grid
// indexes departure epoch and TOF independently, so each cell must be
// evaluated at its own fixed TOF rather than letting the planner pick
// its preferred window. Only meaningful for interplanetary
// (different-body) location pairs; same-body pairs fall back to the
// closed-form Hohmann leg, which ignores tof entirely.
func (p *Planner) SolveLegAtTOF(fromLoc, toLoc string, departureS, tof, extraDvMS float64, maxRevs int) (LegSolution, error) {
	reg := p.registry()
	fromBodyID, parkR1, err := reg.ResolveLocationBody(fromLoc)
	if err != nil {
		return LegSolution{}, err
	}
	toBodyID, parkR2, err := reg.ResolveLocationBody(toLoc)
	if err != nil {
		return LegSolution{}, err
	}
	if fromBodyID == toBodyID {
		sol, err := solveLocalLeg(reg, fromBodyID, parkR1, parkR2, departureS)
		if err != nil {
			return LegSolution{}, err
		}
		sol.DvTotalMS += extraDvMS
		sol.QualityScore = qualityScore(sol.DvTotalMS, sol.TofS, sol.Revolutions)
		return sol, nil
	}

	fromBody, err := reg.Body(fromBodyID)
	if err != nil {
		return LegSolution{}, err
	}
	toBody, err := reg.Body(toBodyID)
	if err != nil {
		return LegSolution{}, err
	}
	mu := heliocentricMu(reg)
	fromState, err := reg.BodyState(fromBodyID, departureS)
	if err != nil {
		return LegSolution{}, err
	}

	sol, ok, err := evalInterplanetaryAtTOF(reg, fromBody, toBody, fromState, parkR1, parkR2, mu, departureS, tof, maxRevs)
	if err != nil {
		return LegSolution{}, &NumericalNonConvergence{Routine: "SolveLegAtTOF", Cause: err}
	}
	if !ok {
		return LegSolution{}, &NoFeasibleTransfer{FromLocationID: fromLoc, ToLocationID: toLoc}
	}
	sol.DvTotalMS += extraDvMS
	sol.QualityScore = qualityScore(sol.DvTotalMS, sol.TofS, sol.Revolutions)
	return sol, nil
}

// hohmannAnchorSMA returns a semi-major-axis scale anchor for the
// destination body, used only to size the TOF sweep window; it does not
// need to be the instantaneous radius, just a stable order-of-magnitude
// anchor, so it is evaluated once at the departure epoch.
func hohmannAnchorSMA(reg *Registry, bodyID string, departureS float64) float64 {
	st, err := reg.BodyState(bodyID, departureS)
	if err != nil {
		return 1
	}
	return physics.Norm(st.R)
}

// ComputeTrajectoryPoints uniformly samples n points in time along the
// heliocentric arc (r1, v1, mu) over duration tof, using the
// universal-variable propagator. The first and last points agree with r1
// and the propagated endpoint to numerical tolerance.
func ComputeTrajectoryPoints(r1, v1 []float64, mu, tof float64, n int) ([][3]float64, error) {
	if n < 2 {
		return nil, &InvalidRequest{Reason: "n must be at least 2"}
	}
	pts := make([][3]float64, n)
	step := tof / float64(n-1)
	for i := 0; i < n; i++ {
		dt := step * float64(i)
		r, _, err := physics.Propagate(r1, v1, mu, dt)
		if err != nil {
			return nil, &NumericalNonConvergence{Routine: "ComputeTrajectoryPoints", Cause: err}
		}
		pts[i] = [3]float64{r[0], r[1], r[2]}
	}
	return pts, nil
}
