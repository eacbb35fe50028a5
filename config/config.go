// Package config parses a declarative bodies/locations/edges
// configuration document into an immutable transfercore.Registry, using
// viper so TOML, JSON, and YAML documents are all accepted.
package config

import (
	"fmt"
	"strings"

	"github.com/soniakeys/meeus/julian"
	"github.com/spf13/viper"

	transfercore "github.com/guarzo/wanderer-transfercore"
	"github.com/guarzo/wanderer-transfercore/physics"
)

// Load reads a configuration document (TOML, JSON, or YAML: viper
// detects the format from the extension or an explicit SetConfigType)
// from path and builds an immutable Registry. On any parse or validation
// error, the previous registry (owned by the caller) is left untouched:
// Load never mutates existing state, it only ever returns a new one or
// an error.
func Load(path string) (*transfercore.Registry, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, &transfercore.InvalidConfig{Path: path, Reason: "could not read config file", Cause: err}
	}
	return build(v, path)
}

// LoadBytes parses an in-memory document of the given viper config type
// ("toml", "json", "yaml"). Used by tests and by hosts that already hold
// the document in memory.
func LoadBytes(configType string, data []byte) (*transfercore.Registry, error) {
	v := viper.New()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytesReader(data)); err != nil {
		return nil, &transfercore.InvalidConfig{Path: "<memory>", Reason: "could not parse config", Cause: err}
	}
	return build(v, "<memory>")
}

func build(v *viper.Viper, path string) (*transfercore.Registry, error) {
	bodies, err := parseBodies(v, path)
	if err != nil {
		return nil, err
	}
	locations, err := parseLocations(v, path)
	if err != nil {
		return nil, err
	}
	edges, err := parseEdges(v, path)
	if err != nil {
		return nil, err
	}
	if v.GetBool("auto_interplanetary_edges") {
		edges = append(edges, autoInterplanetaryEdges(bodies, locations)...)
	}
	return transfercore.NewRegistry(bodies, locations, edges), nil
}

func parseBodies(v *viper.Viper, path string) ([]transfercore.Body, error) {
	raw := v.Get("bodies")
	items, ok := raw.([]interface{})
	if !ok {
		return nil, &transfercore.InvalidConfig{Path: path, Reason: "missing or malformed `bodies` section"}
	}
	bodies := make([]transfercore.Body, 0, len(items))
	for idx, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, &transfercore.InvalidConfig{Path: path, Reason: fmt.Sprintf("bodies[%d] is not a table", idx)}
		}
		b, err := parseBody(m, path, idx)
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, b)
	}
	return bodies, nil
}

func parseBody(m map[string]interface{}, path string, idx int) (transfercore.Body, error) {
	id, _ := m["id"].(string)
	if id == "" {
		return transfercore.Body{}, &transfercore.InvalidConfig{Path: path, Reason: fmt.Sprintf("bodies[%d] missing id", idx)}
	}
	b := transfercore.Body{
		ID:                id,
		Name:              stringOr(m, "name", id),
		MassKg:            floatOr(m, "mass_kg", 0),
		Mu:                floatOr(m, "mu_km3_s2", 0),
		RadiusKm:          floatOr(m, "radius_km", 0),
		GravityMS2:        floatOr(m, "gravity_m_s2", 0),
		GatewayLocationID: stringOr(m, "gateway_location_id", ""),
	}
	if soi, ok := m["soi_radius_km"]; ok {
		b.HasSOI = true
		b.SOIRadiusKm = toFloat(soi)
	}
	posRaw, ok := m["position"].(map[string]interface{})
	if !ok {
		return transfercore.Body{}, &transfercore.InvalidConfig{Path: path, Reason: fmt.Sprintf("body %q missing position", id)}
	}
	orbit, err := parseOrbitSpec(posRaw, path, id)
	if err != nil {
		return transfercore.Body{}, err
	}
	b.Orbit = orbit
	return b, nil
}

func parseOrbitSpec(m map[string]interface{}, path, bodyID string) (transfercore.OrbitSpec, error) {
	switch strings.ToLower(stringOr(m, "type", "")) {
	case "fixed":
		return transfercore.OrbitSpec{
			Kind: transfercore.OrbitFixed,
			X:    floatOr(m, "x", 0),
			Y:    floatOr(m, "y", 0),
			Z:    floatOr(m, "z", 0),
		}, nil
	case "keplerian":
		epochJD := floatOr(m, "epoch_jd", 0)
		return transfercore.OrbitSpec{
			Kind:          transfercore.OrbitKeplerian,
			A:             floatOr(m, "a", 0),
			E:             floatOr(m, "e", 0),
			I:             physics.Deg2rad(floatOr(m, "i", 0)),
			RAAN:          physics.Deg2rad(floatOr(m, "raan", 0)),
			ArgPeriapsis:  physics.Deg2rad(floatOr(m, "arg_periapsis", 0)),
			MeanAnomaly0:  physics.Deg2rad(floatOr(m, "m0", 0)),
			EpochJD:       epochJD,
			PeriodS:       floatOr(m, "period_s", 0),
			ParentBodyID:  stringOr(m, "parent_body_id", ""),
		}, nil
	case "polar_from_body":
		return transfercore.OrbitSpec{
			Kind:              transfercore.OrbitPolarFromBody,
			PolarParentBodyID: stringOr(m, "parent_body_id", ""),
			PolarR:            floatOr(m, "r", 0),
			PolarTheta:        physics.Deg2rad(floatOr(m, "theta", 0)),
		}, nil
	default:
		return transfercore.OrbitSpec{}, &transfercore.InvalidConfig{Path: path, Reason: fmt.Sprintf("body %q: unknown position type", bodyID)}
	}
}

func parseLocations(v *viper.Viper, path string) ([]transfercore.Location, error) {
	var locations []transfercore.Location
	sub := v.Sub("locations")
	if sub == nil {
		return locations, nil
	}
	appendKind := func(key string, kind transfercore.LocationKind, fill func(map[string]interface{}, *transfercore.Location)) error {
		items, _ := sub.Get(key).([]interface{})
		for idx, item := range items {
			m, ok := item.(map[string]interface{})
			if !ok {
				return &transfercore.InvalidConfig{Path: path, Reason: fmt.Sprintf("locations.%s[%d] is not a table", key, idx)}
			}
			id, _ := m["id"].(string)
			if id == "" {
				return &transfercore.InvalidConfig{Path: path, Reason: fmt.Sprintf("locations.%s[%d] missing id", key, idx)}
			}
			loc := transfercore.Location{ID: id, Kind: kind, BodyID: stringOr(m, "body_id", "")}
			fill(m, &loc)
			locations = append(locations, loc)
		}
		return nil
	}
	if err := appendKind("orbit_nodes", transfercore.LocationOrbitNode, func(m map[string]interface{}, l *transfercore.Location) {
		l.RadiusKmFromCenter = floatOr(m, "radius_km_from_center", 0)
	}); err != nil {
		return nil, err
	}
	if err := appendKind("markers", transfercore.LocationMarker, func(m map[string]interface{}, l *transfercore.Location) {}); err != nil {
		return nil, err
	}
	if err := appendKind("surface_sites", transfercore.LocationSurfaceSite, func(m map[string]interface{}, l *transfercore.Location) {
		l.LandingDvMS = floatOr(m, "landing_dv_m_s", 0)
		l.LandingTofS = floatOr(m, "landing_tof_s", 0)
		l.SurfaceGravityMS2 = floatOr(m, "surface_gravity_m_s2", 0)
	}); err != nil {
		return nil, err
	}
	items, _ := sub.Get("lagrange_points").([]interface{})
	for idx, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, &transfercore.InvalidConfig{Path: path, Reason: fmt.Sprintf("locations.lagrange_points[%d] is not a table", idx)}
		}
		id, _ := m["id"].(string)
		if id == "" {
			return nil, &transfercore.InvalidConfig{Path: path, Reason: fmt.Sprintf("locations.lagrange_points[%d] missing id", idx)}
		}
		point, err := parseLagrangePoint(toFloat(m["point"]))
		if err != nil {
			return nil, &transfercore.InvalidConfig{Path: path, Reason: fmt.Sprintf("location %q: %s", id, err)}
		}
		locations = append(locations, transfercore.Location{
			ID:              id,
			Kind:            transfercore.LocationLagrangePoint,
			PrimaryBodyID:   stringOr(m, "primary_body_id", ""),
			SecondaryBodyID: stringOr(m, "secondary_body_id", ""),
			Point:           point,
		})
	}
	return locations, nil
}

func parseLagrangePoint(n float64) (transfercore.LagrangePointID, error) {
	if n < 1 || n > 5 {
		return 0, fmt.Errorf("lagrange point must be in 1..5, got %v", n)
	}
	return transfercore.LagrangePointID(int(n)), nil
}

func parseEdges(v *viper.Viper, path string) ([]transfercore.Edge, error) {
	items, _ := v.Get("transfer_edges").([]interface{})
	edges := make([]transfercore.Edge, 0, len(items))
	for idx, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, &transfercore.InvalidConfig{Path: path, Reason: fmt.Sprintf("transfer_edges[%d] is not a table", idx)}
		}
		kind, err := parseEdgeKind(stringOr(m, "type", ""))
		if err != nil {
			return nil, &transfercore.InvalidConfig{Path: path, Reason: fmt.Sprintf("transfer_edges[%d]: %s", idx, err)}
		}
		edges = append(edges, transfercore.Edge{
			A:            stringOr(m, "a", ""),
			B:            stringOr(m, "b", ""),
			Kind:         kind,
			FallbackDvMS: floatOr(m, "dv_m_s", 0),
			FallbackTofS: floatOr(m, "tof_s", 0),
		})
	}
	return edges, nil
}

func parseEdgeKind(s string) (transfercore.EdgeKind, error) {
	switch strings.ToLower(s) {
	case "local":
		return transfercore.EdgeLocal, nil
	case "landing":
		return transfercore.EdgeLanding, nil
	case "lagrange":
		return transfercore.EdgeLagrange, nil
	case "interplanetary":
		return transfercore.EdgeInterplanetary, nil
	default:
		return 0, fmt.Errorf("unknown edge type %q", s)
	}
}

// autoInterplanetaryEdges generates the optional interplanetary mesh:
// every body with an SOI and a gateway orbit node gets a bidirectional
// Interplanetary edge to every other such body's gateway.
func autoInterplanetaryEdges(bodies []transfercore.Body, locations []transfercore.Location) []transfercore.Edge {
	gatewayOf := make(map[string]string)
	byRadius := make(map[string]transfercore.Location)
	for _, loc := range locations {
		if loc.Kind != transfercore.LocationOrbitNode {
			continue
		}
		cur, ok := byRadius[loc.BodyID]
		if !ok || loc.RadiusKmFromCenter < cur.RadiusKmFromCenter {
			byRadius[loc.BodyID] = loc
		}
	}
	var gateways []string
	for _, b := range bodies {
		if !b.HasSOI {
			continue
		}
		gw := b.GatewayLocationID
		if gw == "" {
			if loc, ok := byRadius[b.ID]; ok {
				gw = loc.ID
			}
		}
		if gw == "" {
			continue
		}
		gatewayOf[b.ID] = gw
		gateways = append(gateways, gw)
	}
	var edges []transfercore.Edge
	for i := 0; i < len(gateways); i++ {
		for j := i + 1; j < len(gateways); j++ {
			edges = append(edges, transfercore.Edge{
				A:    gateways[i],
				B:    gateways[j],
				Kind: transfercore.EdgeInterplanetary,
			})
		}
	}
	return edges
}

// ParseEpochJD converts a Julian date to the engine's internal epoch_s
// timebase (epoch_s := epoch_jd * 86400, seconds since JD 0: chosen so
// every epoch in the engine shares one deterministic origin instead of
// bridging through a wall-clock time.Time, per DESIGN.md).
func ParseEpochJD(jd float64) float64 {
	return jd * 86400.0
}

// ParseCalendarDate parses value with the given time layout (e.g.
// "2006-01-02" for a YYYY-MM-DD date) and converts it to epoch_s through
// julian.TimeToJD, for hosts that find Julian dates inconvenient
// to author by hand.
func ParseCalendarDate(layout, value string) (float64, error) {
	t, err := parseTime(layout, value)
	if err != nil {
		return 0, err
	}
	return ParseEpochJD(julian.TimeToJD(t)), nil
}

func stringOr(m map[string]interface{}, key, def string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return def
}

func floatOr(m map[string]interface{}, key string, def float64) float64 {
	if v, ok := m[key]; ok {
		return toFloat(v)
	}
	return def
}

func toFloat(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return 0
	}
}
