package config

import "testing"

const sampleTOML = `
[[bodies]]
id = "sun"
name = "Sun"
mu_km3_s2 = 1.32712440018e11
radius_km = 695700
[bodies.position]
type = "fixed"
x = 0
y = 0
z = 0

[[bodies]]
id = "earth"
name = "Earth"
mu_km3_s2 = 398600.4418
radius_km = 6378.137
soi_radius_km = 924000
[bodies.position]
type = "keplerian"
a = 149598023
e = 0.0167086
i = 0
raan = 0
arg_periapsis = 0
m0 = 0
epoch_jd = 2451545.0
period_s = 31558149.7635
parent_body_id = "sun"

[locations]
[[locations.orbit_nodes]]
id = "leo"
body_id = "earth"
radius_km_from_center = 400

[[locations.orbit_nodes]]
id = "geo"
body_id = "earth"
radius_km_from_center = 35786

[[transfer_edges]]
a = "leo"
b = "geo"
type = "local"
`

func TestLoadBytesParsesBodiesLocationsEdges(t *testing.T) {
	reg, err := LoadBytes("toml", []byte(sampleTOML))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	sun, err := reg.Body("sun")
	if err != nil {
		t.Fatalf("Body(sun): %v", err)
	}
	if sun.Mu != 1.32712440018e11 {
		t.Fatalf("sun.Mu = %v", sun.Mu)
	}
	earth, err := reg.Body("earth")
	if err != nil {
		t.Fatalf("Body(earth): %v", err)
	}
	if !earth.HasSOI || earth.SOIRadiusKm != 924000 {
		t.Fatalf("earth SOI = (%v, %v)", earth.HasSOI, earth.SOIRadiusKm)
	}
	if _, err := reg.Location("leo"); err != nil {
		t.Fatalf("Location(leo): %v", err)
	}
	edges := reg.Edges()
	if len(edges) != 1 || edges[0].A != "leo" || edges[0].B != "geo" {
		t.Fatalf("edges = %+v", edges)
	}
}

func TestLoadBytesMissingPositionIsInvalidConfig(t *testing.T) {
	bad := `
[[bodies]]
id = "sun"
`
	_, err := LoadBytes("toml", []byte(bad))
	if err == nil {
		t.Fatal("expected InvalidConfig for missing position table")
	}
}

func TestParseCalendarDate(t *testing.T) {
	epochS, err := ParseCalendarDate("2006-01-02", "2000-01-01")
	if err != nil {
		t.Fatalf("ParseCalendarDate: %v", err)
	}
	if epochS <= 0 {
		t.Fatalf("epochS = %f, want positive", epochS)
	}
}

func TestAutoInterplanetaryEdges(t *testing.T) {
	withAuto := sampleTOML + "\nauto_interplanetary_edges = true\n"
	reg, err := LoadBytes("toml", []byte(withAuto))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	// Only one SOI-bearing body (earth) in this fixture, so no pairs to
	// connect; this should not error even though 0 edges are generated.
	_ = reg.Edges()
}
