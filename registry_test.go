package transfercore

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

func earthSunRegistry() *Registry {
	sun := Body{
		ID: "sun", Name: "Sun", Mu: 1.32712440018e11, RadiusKm: 695700,
		HasSOI: true,
		Orbit:  OrbitSpec{Kind: OrbitFixed},
	}
	earth := Body{
		ID: "earth", Name: "Earth", Mu: 398600.4418, RadiusKm: 6378.137,
		HasSOI: true, SOIRadiusKm: 924000,
		Orbit: OrbitSpec{
			Kind: OrbitKeplerian, A: 149598023, E: 0.0167086, I: 0,
			RAAN: 0, ArgPeriapsis: 0, MeanAnomaly0: 0,
			EpochJD: 2451545.0, PeriodS: 365.256363004 * 86400,
			ParentBodyID: "sun",
		},
	}
	leoNode := Location{ID: "leo", Kind: LocationOrbitNode, BodyID: "earth", RadiusKmFromCenter: 400}
	return NewRegistry([]Body{sun, earth}, []Location{leoNode}, nil)
}

func TestRegistryBodyStateFixed(t *testing.T) {
	reg := earthSunRegistry()
	st, err := reg.BodyState("sun", 0)
	if err != nil {
		t.Fatalf("BodyState(sun): %v", err)
	}
	if !floats.EqualApprox(st.R, []float64{0, 0, 0}, 1e-9) {
		t.Fatalf("sun R = %v, want origin", st.R)
	}
}

func TestRegistryBodyStateKeplerianAtEpoch(t *testing.T) {
	reg := earthSunRegistry()
	epochS := 2451545.0 * 86400.0
	st, err := reg.BodyState("earth", epochS)
	if err != nil {
		t.Fatalf("BodyState(earth): %v", err)
	}
	r := math.Sqrt(st.R[0]*st.R[0] + st.R[1]*st.R[1] + st.R[2]*st.R[2])
	// At epoch (M0=0, e small), Earth should sit near perihelion distance.
	perihelion := 149598023 * (1 - 0.0167086)
	if math.Abs(r-perihelion)/perihelion > 1e-3 {
		t.Fatalf("|R| = %f, want near perihelion %f", r, perihelion)
	}
}

func TestRegistryUnknownBody(t *testing.T) {
	reg := earthSunRegistry()
	if _, err := reg.Body("mars"); err == nil {
		t.Fatal("expected UnknownBody error")
	} else if _, ok := err.(*UnknownBody); !ok {
		t.Fatalf("got %T, want *UnknownBody", err)
	}
}

func TestRegistryResolveLocationBody(t *testing.T) {
	reg := earthSunRegistry()
	bodyID, parkR, err := reg.ResolveLocationBody("leo")
	if err != nil {
		t.Fatalf("ResolveLocationBody: %v", err)
	}
	if bodyID != "earth" {
		t.Fatalf("bodyID = %s, want earth", bodyID)
	}
	want := 6378.137 + 400
	if math.Abs(parkR-want) > 1e-6 {
		t.Fatalf("parkR = %f, want %f", parkR, want)
	}
}

func TestRegistryGatewayDerivation(t *testing.T) {
	reg := earthSunRegistry()
	gw, ok := reg.Gateway("earth")
	if !ok || gw != "leo" {
		t.Fatalf("Gateway(earth) = (%s, %v), want (leo, true)", gw, ok)
	}
}

func TestRegistryBodyStatePeriodRoundTrip(t *testing.T) {
	reg := earthSunRegistry()
	periodS := 365.256363004 * 86400
	epochS := 2451545.0*86400.0 + 12345678.9

	st1, err := reg.BodyState("earth", epochS)
	if err != nil {
		t.Fatalf("BodyState: %v", err)
	}
	st2, err := reg.BodyState("earth", epochS+periodS)
	if err != nil {
		t.Fatalf("BodyState(+period): %v", err)
	}
	for i := 0; i < 3; i++ {
		if math.Abs(st1.R[i]-st2.R[i]) > 1.0 {
			t.Fatalf("position drifted over one period: %v vs %v", st1.R, st2.R)
		}
		if math.Abs(st1.V[i]-st2.V[i]) > 1e-6 {
			t.Fatalf("velocity drifted over one period: %v vs %v", st1.V, st2.V)
		}
	}
}

func TestRegistryPolarFromBodyInheritsParentVelocity(t *testing.T) {
	sun := Body{ID: "sun", Mu: 1.32712440018e11, Orbit: OrbitSpec{Kind: OrbitFixed}}
	earth := Body{
		ID: "earth", Mu: 398600.4418, RadiusKm: 6378.137,
		Orbit: OrbitSpec{Kind: OrbitKeplerian, A: 149598023, PeriodS: 365.25 * 86400, EpochJD: 2451545.0, ParentBodyID: "sun"},
	}
	ring := Body{
		ID: "ring", Mu: 0,
		Orbit: OrbitSpec{Kind: OrbitPolarFromBody, PolarParentBodyID: "earth", PolarR: 50000, PolarTheta: 0},
	}
	reg := NewRegistry([]Body{sun, earth, ring}, nil, nil)

	epochS := 2451545.0 * 86400.0
	earthSt, err := reg.BodyState("earth", epochS)
	if err != nil {
		t.Fatalf("BodyState(earth): %v", err)
	}
	ringSt, err := reg.BodyState("ring", epochS)
	if err != nil {
		t.Fatalf("BodyState(ring): %v", err)
	}
	offset := math.Sqrt(
		(ringSt.R[0]-earthSt.R[0])*(ringSt.R[0]-earthSt.R[0]) +
			(ringSt.R[1]-earthSt.R[1])*(ringSt.R[1]-earthSt.R[1]) +
			(ringSt.R[2]-earthSt.R[2])*(ringSt.R[2]-earthSt.R[2]))
	if math.Abs(offset-50000) > 1e-6 {
		t.Fatalf("polar offset = %f km, want 50000", offset)
	}
	if !floats.EqualApprox(ringSt.V, earthSt.V, 1e-9) {
		t.Fatalf("polar child velocity %v, want parent's %v", ringSt.V, earthSt.V)
	}
}

func TestRegistryLagrangeStateL1Distance(t *testing.T) {
	sun := Body{ID: "sun", Mu: 1.32712440018e11, Orbit: OrbitSpec{Kind: OrbitFixed}}
	earth := Body{
		ID: "earth", Mu: 398600.4418, RadiusKm: 6378.137,
		Orbit: OrbitSpec{Kind: OrbitKeplerian, A: 149598023, PeriodS: 365.25 * 86400, EpochJD: 2451545.0, ParentBodyID: "sun"},
	}
	sel1 := Location{
		ID: "sun-earth-l1", Kind: LocationLagrangePoint,
		PrimaryBodyID: "sun", SecondaryBodyID: "earth", Point: L1,
	}
	reg := NewRegistry([]Body{sun, earth}, []Location{sel1}, nil)

	epochS := 2451545.0 * 86400.0
	lSt, err := reg.LagrangeState("sun-earth-l1", epochS)
	if err != nil {
		t.Fatalf("LagrangeState: %v", err)
	}
	earthSt, err := reg.BodyState("earth", epochS)
	if err != nil {
		t.Fatalf("BodyState(earth): %v", err)
	}
	dx := lSt.R[0] - earthSt.R[0]
	dy := lSt.R[1] - earthSt.R[1]
	dz := lSt.R[2] - earthSt.R[2]
	dist := math.Sqrt(dx*dx + dy*dy + dz*dz)
	// Sun-Earth L1 sits about 1.5 million km sunward of Earth.
	if math.Abs(dist-1.5e6)/1.5e6 > 0.05 {
		t.Fatalf("L1 distance from Earth = %f km, want ~1.5e6", dist)
	}
}

func TestRegistryLagrangeStateL4LeadsBy60Degrees(t *testing.T) {
	sun := Body{ID: "sun", Mu: 1.32712440018e11, Orbit: OrbitSpec{Kind: OrbitFixed}}
	earth := Body{
		ID: "earth", Mu: 398600.4418, RadiusKm: 6378.137,
		Orbit: OrbitSpec{Kind: OrbitKeplerian, A: 149598023, PeriodS: 365.25 * 86400, EpochJD: 2451545.0, ParentBodyID: "sun"},
	}
	sel4 := Location{
		ID: "sun-earth-l4", Kind: LocationLagrangePoint,
		PrimaryBodyID: "sun", SecondaryBodyID: "earth", Point: L4,
	}
	reg := NewRegistry([]Body{sun, earth}, []Location{sel4}, nil)

	epochS := 2451545.0 * 86400.0
	lSt, err := reg.LagrangeState("sun-earth-l4", epochS)
	if err != nil {
		t.Fatalf("LagrangeState: %v", err)
	}
	earthSt, err := reg.BodyState("earth", epochS)
	if err != nil {
		t.Fatalf("BodyState(earth): %v", err)
	}
	rL := math.Sqrt(lSt.R[0]*lSt.R[0] + lSt.R[1]*lSt.R[1] + lSt.R[2]*lSt.R[2])
	rE := math.Sqrt(earthSt.R[0]*earthSt.R[0] + earthSt.R[1]*earthSt.R[1] + earthSt.R[2]*earthSt.R[2])
	if math.Abs(rL-rE)/rE > 1e-6 {
		t.Fatalf("L4 heliocentric radius %f, want Earth's %f", rL, rE)
	}
	cosSep := (lSt.R[0]*earthSt.R[0] + lSt.R[1]*earthSt.R[1] + lSt.R[2]*earthSt.R[2]) / (rL * rE)
	if math.Abs(cosSep-0.5) > 1e-6 {
		t.Fatalf("cos(L4-Earth separation) = %f, want 0.5 (60 degrees)", cosSep)
	}
}

func TestRegistryParentChainCycleGuard(t *testing.T) {
	a := Body{ID: "a", Mu: 1, Orbit: OrbitSpec{Kind: OrbitKeplerian, A: 1, PeriodS: 1, ParentBodyID: "b"}}
	b := Body{ID: "b", Mu: 1, Orbit: OrbitSpec{Kind: OrbitKeplerian, A: 1, PeriodS: 1, ParentBodyID: "a"}}
	reg := NewRegistry([]Body{a, b}, nil, nil)
	if _, err := reg.BodyState("a", 0); err == nil {
		t.Fatal("expected InvalidConfig for cyclic parent chain")
	}
}
