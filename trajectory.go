package transfercore

import (
	"encoding/json"
	"fmt"
	"math"
)

// trajectoryVerifyTolKm is the per-point agreement tolerance for sampled
// trajectories.
const trajectoryVerifyTolKm = 1.0

// TrajectoryPayload is the persistence contract with the host: per
// in-flight trajectory the engine emits this payload, and accepts the
// same payload back to recompute or verify state. The engine itself owns
// no storage.
type TrajectoryPayload struct {
	Points [][3]float64 `json:"points"`
	Mu     float64      `json:"mu"`
	R1     []float64    `json:"r1"`
	V1     []float64    `json:"v1"`
	TofS   float64      `json:"tof_s"`
}

// NewTrajectoryPayload samples n points along a solved interplanetary
// leg's heliocentric arc and packages them with the arc parameters needed
// to reconstruct it. The leg must carry HelioR1/HelioV1/HelioMu (an
// interplanetary solve populates them; a local Hohmann leg does not).
func NewTrajectoryPayload(sol LegSolution, n int) (TrajectoryPayload, error) {
	if len(sol.HelioR1) != 3 || len(sol.HelioV1) != 3 || sol.HelioMu <= 0 {
		return TrajectoryPayload{}, &InvalidRequest{Reason: "leg solution carries no heliocentric arc to sample"}
	}
	pts, err := ComputeTrajectoryPoints(sol.HelioR1, sol.HelioV1, sol.HelioMu, sol.TofS, n)
	if err != nil {
		return TrajectoryPayload{}, err
	}
	return TrajectoryPayload{
		Points: pts,
		Mu:     sol.HelioMu,
		R1:     append([]float64{}, sol.HelioR1...),
		V1:     append([]float64{}, sol.HelioV1...),
		TofS:   sol.TofS,
	}, nil
}

// Recompute re-samples the arc from the payload's (r1, v1, mu, tof) at the
// same resolution as the stored polyline.
func (p TrajectoryPayload) Recompute() ([][3]float64, error) {
	return ComputeTrajectoryPoints(p.R1, p.V1, p.Mu, p.TofS, len(p.Points))
}

// Verify recomputes the arc and checks every stored point against it to
// within the endpoint tolerance, catching payloads whose polyline no
// longer matches their arc parameters (e.g. after host-side corruption).
func (p TrajectoryPayload) Verify() error {
	if len(p.Points) < 2 {
		return &InvalidRequest{Reason: "trajectory payload holds fewer than 2 points"}
	}
	pts, err := p.Recompute()
	if err != nil {
		return err
	}
	for i := range pts {
		var d2 float64
		for k := 0; k < 3; k++ {
			diff := pts[i][k] - p.Points[i][k]
			d2 += diff * diff
		}
		if math.Sqrt(d2) > trajectoryVerifyTolKm {
			return &InvalidRequest{
				Reason: fmt.Sprintf("trajectory point %d deviates %.3f km from its arc", i, math.Sqrt(d2)),
			}
		}
	}
	return nil
}

// EncodeTrajectoryJSON serializes the payload in the trajectory_json shape
// the host persists.
func EncodeTrajectoryJSON(p TrajectoryPayload) ([]byte, error) {
	return json.Marshal(p)
}

// DecodeTrajectoryJSON parses a trajectory_json payload handed back by the
// host.
func DecodeTrajectoryJSON(data []byte) (TrajectoryPayload, error) {
	var p TrajectoryPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return TrajectoryPayload{}, &InvalidRequest{Reason: "malformed trajectory payload: " + err.Error()}
	}
	return p, nil
}
