package transfercore

import "testing"

func sampleLeg() LegSolution {
	return LegSolution{
		TofS:    86400.0 * 60,
		HelioR1: []float64{149598023, 0, 0},
		HelioV1: []float64{0, 31.5, 0},
		HelioMu: 1.32712440018e11,
	}
}

func TestTrajectoryPayloadRoundTrip(t *testing.T) {
	payload, err := NewTrajectoryPayload(sampleLeg(), 16)
	if err != nil {
		t.Fatalf("NewTrajectoryPayload: %v", err)
	}
	if len(payload.Points) != 16 {
		t.Fatalf("len(Points) = %d, want 16", len(payload.Points))
	}

	data, err := EncodeTrajectoryJSON(payload)
	if err != nil {
		t.Fatalf("EncodeTrajectoryJSON: %v", err)
	}
	back, err := DecodeTrajectoryJSON(data)
	if err != nil {
		t.Fatalf("DecodeTrajectoryJSON: %v", err)
	}
	if err := back.Verify(); err != nil {
		t.Fatalf("Verify after round-trip: %v", err)
	}
}

func TestTrajectoryPayloadVerifyDetectsCorruption(t *testing.T) {
	payload, err := NewTrajectoryPayload(sampleLeg(), 8)
	if err != nil {
		t.Fatalf("NewTrajectoryPayload: %v", err)
	}
	payload.Points[3][0] += 50 // 50 km off the arc
	if err := payload.Verify(); err == nil {
		t.Fatal("expected Verify to reject a corrupted point")
	}
}

func TestTrajectoryPayloadRequiresHelioArc(t *testing.T) {
	local := LegSolution{TofS: 3600} // no HelioR1/V1/Mu: a local Hohmann leg
	if _, err := NewTrajectoryPayload(local, 8); err == nil {
		t.Fatal("expected InvalidRequest for a leg without a heliocentric arc")
	}
}

func TestDecodeTrajectoryJSONMalformed(t *testing.T) {
	_, err := DecodeTrajectoryJSON([]byte("{not json"))
	if err == nil {
		t.Fatal("expected error for malformed payload")
	}
	if _, ok := err.(*InvalidRequest); !ok {
		t.Fatalf("got %T, want *InvalidRequest", err)
	}
}
