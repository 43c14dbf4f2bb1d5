// Command nhood is a thin command-line wrapper around the enrichment
// engine: it reads a CSV point table (x,y,label per row), runs one
// analysis and writes the score matrix as TSV to stdout. All the
// algorithmic weight lives in pkg/core and pkg/engine.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spatx/nhood/pkg/core"
	"github.com/spatx/nhood/pkg/engine"
)

func main() {
	input := flag.String("input", "", "CSV file with one x,y,label row per point (required)")
	configPath := flag.String("config", "", "Optional YAML config file")
	topology := flag.String("topology", "", "Neighbor definition: knn, radius or delaunay (overrides config)")
	k := flag.Int("k", 0, "Neighbor count for knn topology")
	r := flag.Float64("r", 0, "Search radius for radius topology")
	trials := flag.Int("trials", 0, "Number of permutation trials")
	seed := flag.Int64("seed", 0, "Fixed random seed; omit for a nondeterministic run")
	workers := flag.Int("workers", 0, "Worker pool size hint (0 = all CPUs)")
	samples := flag.Bool("samples", false, "Retain per-trial samples and report empirical p-values")

	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := engine.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Flags given on the command line win over the file.
	if *topology != "" {
		cfg.Topology = *topology
	}
	if *k > 0 {
		cfg.K = *k
	}
	if *r > 0 {
		cfg.Radius = *r
	}
	if *trials > 0 {
		cfg.Trials = *trials
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *samples {
		cfg.KeepSamples = true
	}
	seedSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			seedSet = true
		}
	})
	if seedSet {
		cfg.Seed = seed
	}

	opts, err := cfg.Options()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	points, labels, err := readPoints(*input)
	if err != nil {
		log.Fatalf("read %s: %v", *input, err)
	}

	// Ctrl+C cancels between trials; completed trials are kept and the
	// reduced trial count is reported on the result.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := engine.Analyze(ctx, points, labels, opts)
	if err != nil {
		log.Fatalf("analysis: %v", err)
	}

	writeScores(os.Stdout, res)
}

// readPoints parses the x,y,label CSV. A first row whose coordinates do
// not parse is treated as a header and skipped.
func readPoints(path string) ([]core.Point, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	rd := csv.NewReader(f)
	rd.FieldsPerRecord = 3

	var points []core.Point
	var labels []string
	row := 0
	for {
		rec, err := rd.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		row++

		x, errX := strconv.ParseFloat(rec[0], 64)
		y, errY := strconv.ParseFloat(rec[1], 64)
		if errX != nil || errY != nil {
			if row == 1 {
				continue // header
			}
			return nil, nil, fmt.Errorf("row %d: bad coordinates %q,%q", row, rec[0], rec[1])
		}

		points = append(points, core.Point{X: x, Y: y})
		labels = append(labels, rec[2])
	}
	return points, labels, nil
}

func writeScores(w io.Writer, res *engine.Result) {
	fmt.Fprintf(w, "# run %s: %d points, %d edges, %d/%d trials\n",
		res.RunID, res.Points, res.Edges, res.CompletedTrials, res.RequestedTrials)
	fmt.Fprintln(w, "label_a\tlabel_b\tobserved\tnull_mean\tnull_std\tz_score\tp_value")
	for _, s := range res.Scores {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.6g\t%.6g\t%.6g\t%.6g\n",
			res.Labels[s.A], res.Labels[s.B],
			s.Observed, s.NullMean, s.NullStd, s.ZScore, s.PValue)
	}
}
