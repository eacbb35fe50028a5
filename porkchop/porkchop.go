// Package porkchop implements the L4 porkchop grid scanner: a 2-D sweep
// over departure epoch and time-of-flight, evaluating one interplanetary
// leg per cell and extracting the top-N candidates by quality score.
package porkchop

import (
	"context"
	"math"
	"sort"

	transfercore "github.com/guarzo/wanderer-transfercore"
)

const (
	minGridSize = 4
	maxGridSize = 100
	topN        = 10
)

// DefaultMaxRevs is the Lambert revolution budget conventionally used per
// cell: richer than a direct leg solve's 0, cheaper than an exhaustive
// search, since the grid already pays for departure/TOF coverage.
const DefaultMaxRevs = 2

// Request bounds a porkchop scan: a departure-epoch window, a TOF window,
// a square grid_size x grid_size resolution, and the per-cell Lambert
// revolution budget (hosts conventionally pass DefaultMaxRevs; 0 restricts
// every cell to the zero-revolution branch).
type Request struct {
	FromLocationID  string
	ToLocationID    string
	DepartureStartS float64
	DepartureEndS   float64
	TofMinS         float64
	TofMaxS         float64
	GridSize        int
	MaxRevs         int
	ExtraDvMS       float64
}

// Compute runs the grid scan described by req, calling planner once per
// cell (no inner TOF sweep, unlike SolveLeg's direct path). Returns a
// PorkchopResult with the full Dv grid and the top-N candidates, sorted
// by quality score then Δv then TOF then revolutions. If ctx is
// cancelled mid-scan, returns a partial grid alongside
// transfercore.Cancelled.
func Compute(ctx context.Context, planner *transfercore.Planner, req Request) (transfercore.PorkchopResult, error) {
	if req.GridSize < minGridSize || req.GridSize > maxGridSize {
		return transfercore.PorkchopResult{}, &transfercore.InvalidRequest{
			Reason: "grid_size must be within [4, 100]",
		}
	}
	if req.DepartureEndS <= req.DepartureStartS {
		return transfercore.PorkchopResult{}, &transfercore.InvalidRequest{
			Reason: "departure window end must be after start",
		}
	}
	if req.TofMaxS <= req.TofMinS || req.TofMinS <= 0 {
		return transfercore.PorkchopResult{}, &transfercore.InvalidRequest{
			Reason: "tof window must be positive and increasing",
		}
	}
	if req.MaxRevs < 0 {
		return transfercore.PorkchopResult{}, &transfercore.InvalidRequest{
			Reason: "max_revs must be non-negative",
		}
	}

	n := req.GridSize
	depEpochs := make([]float64, n)
	tofs := make([]float64, n)
	depStep := (req.DepartureEndS - req.DepartureStartS) / float64(n-1)
	tofStep := (req.TofMaxS - req.TofMinS) / float64(n-1)
	for i := 0; i < n; i++ {
		depEpochs[i] = req.DepartureStartS + depStep*float64(i)
		tofs[i] = req.TofMinS + tofStep*float64(i)
	}

	dv := make([][]float64, n)
	for i := range dv {
		dv[i] = make([]float64, n)
		for j := range dv[i] {
			dv[i][j] = math.NaN() // unfilled/infeasible marker
		}
	}

	var candidates []transfercore.LegSolution
	for i, depS := range depEpochs {
		for j, tof := range tofs {
			// Cancellation is cooperative at cell granularity; a context
			// deadline acts as the soft wall-clock deadline.
			select {
			case <-ctx.Done():
				return assemble(depEpochs, tofs, dv, candidates), &transfercore.Cancelled{Cause: ctx.Err()}
			default:
			}
			sol, err := planner.SolveLegAtTOF(req.FromLocationID, req.ToLocationID, depS, tof, req.ExtraDvMS, req.MaxRevs)
			if err != nil {
				continue // infeasible cell: leave grid marker at NaN
			}
			dv[i][j] = sol.DvTotalMS
			candidates = append(candidates, sol)
		}
	}

	result := assemble(depEpochs, tofs, dv, candidates)
	if len(candidates) == 0 {
		// Every cell failed: surface NoFeasibleTransfer alongside the
		// all-NaN grid so callers can distinguish "empty window" from a
		// scan that simply found expensive transfers.
		return result, &transfercore.NoFeasibleTransfer{
			FromLocationID: req.FromLocationID,
			ToLocationID:   req.ToLocationID,
		}
	}
	return result, nil
}

// assemble packs the (possibly partially filled) grid and the ranked
// candidate list into a PorkchopResult.
func assemble(depEpochs, tofs []float64, dv [][]float64, candidates []transfercore.LegSolution) transfercore.PorkchopResult {
	sortCandidates(candidates)
	top := candidates
	if len(top) > topN {
		top = top[:topN]
	}
	return transfercore.PorkchopResult{
		DepartureEpochsS: depEpochs,
		TofsS:            tofs,
		Dv:               dv,
		TopN:             top,
	}
}

// sortCandidates orders by quality score, breaking ties by lower Δv, then
// lower TOF, then fewer revolutions.
func sortCandidates(c []transfercore.LegSolution) {
	sort.Slice(c, func(i, j int) bool {
		a, b := c[i], c[j]
		if a.QualityScore != b.QualityScore {
			return a.QualityScore < b.QualityScore
		}
		if a.DvTotalMS != b.DvTotalMS {
			return a.DvTotalMS < b.DvTotalMS
		}
		if a.TofS != b.TofS {
			return a.TofS < b.TofS
		}
		return a.Revolutions < b.Revolutions
	})
}
