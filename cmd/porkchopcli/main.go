package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	transfercore "github.com/guarzo/wanderer-transfercore"
	"github.com/guarzo/wanderer-transfercore/config"
	"github.com/guarzo/wanderer-transfercore/porkchop"
)

const defaultScenario = "~~unset~~"

var (
	scenario      string
	from          string
	to            string
	depStart      float64
	depEnd        float64
	tofMin        float64
	tofMax        float64
	gridSize      int
	maxRevs       int
	extraDvMS     float64
	datPrefix     string
)

func init() {
	flag.StringVar(&scenario, "config", defaultScenario, "configuration document (TOML/JSON/YAML) to load")
	flag.StringVar(&from, "from", "", "origin location id")
	flag.StringVar(&to, "to", "", "destination location id")
	flag.Float64Var(&depStart, "departure-start", 0, "departure window start, epoch seconds")
	flag.Float64Var(&depEnd, "departure-end", 0, "departure window end, epoch seconds")
	flag.Float64Var(&tofMin, "tof-min", 0, "minimum time of flight, seconds")
	flag.Float64Var(&tofMax, "tof-max", 0, "maximum time of flight, seconds")
	flag.IntVar(&gridSize, "grid-size", 20, "square grid resolution, 4-100")
	flag.IntVar(&maxRevs, "max-revs", porkchop.DefaultMaxRevs, "Lambert revolution budget per cell")
	flag.Float64Var(&extraDvMS, "extra-dv", 0, "fixed extra delta-v applied per cell, m/s")
	flag.StringVar(&datPrefix, "dat-prefix", "", "if set, write a gnuplot-style contour .dat file with this filename prefix")
}

func main() {
	flag.Parse()
	if scenario == defaultScenario {
		log.Fatal("no -config provided")
	}
	if from == "" || to == "" {
		log.Fatal("-from and -to are required")
	}

	reg, err := config.Load(scenario)
	if err != nil {
		log.Fatalf("loading %s: %s", scenario, err)
	}
	planner := transfercore.NewPlanner(reg)

	result, err := porkchop.Compute(context.Background(), planner, porkchop.Request{
		FromLocationID:  from,
		ToLocationID:    to,
		DepartureStartS: depStart,
		DepartureEndS:   depEnd,
		TofMinS:         tofMin,
		TofMaxS:         tofMax,
		GridSize:        gridSize,
		MaxRevs:         maxRevs,
		ExtraDvMS:       extraDvMS,
	})
	if err != nil {
		log.Fatalf("porkchop scan: %s", err)
	}

	fmt.Printf("%s -> %s: %d candidates in top-N\n", from, to, len(result.TopN))
	for i, sol := range result.TopN {
		fmt.Printf("%2d  dv=%.1f m/s  tof=%.0f s  revs=%d  quality=%.1f\n",
			i+1, sol.DvTotalMS, sol.TofS, sol.Revolutions, sol.QualityScore)
	}

	if datPrefix != "" {
		if err := writeContourDat(datPrefix, result); err != nil {
			log.Fatalf("writing contour data: %s", err)
		}
	}
}

// writeContourDat writes the Δv grid as a gnuplot/MATLAB-style contour
// file named contour-<prefix>-dv.dat: one row per departure epoch,
// columns comma-separated by TOF. A side-channel export, not part of the
// planning hot path.
func writeContourDat(prefix string, result transfercore.PorkchopResult) error {
	f, err := os.Create(fmt.Sprintf("./contour-%s-dv.dat", prefix))
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%% departure epoch rows, tof columns\n"); err != nil {
		return err
	}
	for _, row := range result.Dv {
		for _, v := range row {
			if _, err := fmt.Fprintf(f, "%f,", v); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(f); err != nil {
			return err
		}
	}
	return nil
}
