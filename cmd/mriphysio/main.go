package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"mriphysio/pkg/config"
	"mriphysio/pkg/ingest"
	"mriphysio/pkg/regressor"
)

func main() {
	// Parse command line arguments
	physioFile := flag.String("input", "", "Path to the physio recording (zip/tgz archive or directory)")
	outputName := flag.String("output", "retroicor_reg.txt", "Output regressor filename")
	configPath := flag.String("config", "mriphysio.yaml", "Path to the YAML configuration file")
	tr := flag.Float64("tr", 0, "Repetition time in seconds (overrides config)")
	nframes := flag.Int("nframes", 0, "Number of temporal frames (overrides config)")
	nslices := flag.Int("nslices", 0, "Number of slices (overrides config)")
	sliceOrder := flag.String("slice-order", "", "Comma-separated slice acquisition order (overrides config)")
	flag.Parse()

	// Validate inputs
	if *physioFile == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *tr > 0 {
		cfg.Scan.TR = *tr
	}
	if *nframes > 0 {
		cfg.Scan.NFrames = *nframes
	}
	if *nslices > 0 {
		cfg.Scan.NSlices = *nslices
	}
	if *sliceOrder != "" {
		order, err := parseSliceOrder(*sliceOrder)
		if err != nil {
			log.Fatalf("Invalid -slice-order: %v", err)
		}
		cfg.Scan.SliceOrder = order
	}

	timing, err := cfg.ScanTiming()
	if err != nil {
		log.Fatalf("Invalid scan configuration: %v", err)
	}

	fmt.Println("================================")
	fmt.Println("MRI PHYSIOLOGICAL-NOISE REGRESSOR COMPUTATION (RETROICOR + RVHRCOR)")
	fmt.Println("Based on Glover et al. (2000) and Chang et al. (2009)")
	fmt.Println("================================")

	// Step 1: Ingest the physio recording
	fmt.Printf("Step 1: Reading %s physio recording from %s...\n", cfg.Physio.Format, *physioFile)
	rec, err := ingest.Open(cfg.Physio.Format, *physioFile, ingest.Params{
		Timing: timing,
		CardDT: cfg.Physio.CardDT,
		RespDT: cfg.Physio.RespDT,
	})
	if err != nil {
		log.Fatalf("Failed to read physio recording: %v", err)
	}
	card := rec.Cardiac()
	resp := rec.Respiration()
	if cfg.Output.Verbose {
		fmt.Printf("Loaded %d cardiac samples, %d triggers, %d respiration samples\n",
			len(card.Wave), len(card.Trig), len(resp.Wave))
		if session := rec.Session(); session.ExamUID != "" {
			fmt.Printf("Session: exam %d series %d (%s)\n", session.ExamNo, session.SeriesNo, session.SeriesDesc)
		}
	}

	// Step 2: Signal-quality gate
	fmt.Println("Step 2: Checking signal quality...")
	if !cfg.Checker().IsValid(card, resp, timing.NFrames) {
		if cfg.Validity.RequireValid {
			log.Fatalf("Physio data failed the signal-quality heuristic; refusing to compute regressors")
		}
		log.Printf("Warning: physio data failed the signal-quality heuristic; regressors may be meaningless")
	}

	// Step 3: Compute regressors
	fmt.Println("Step 3: Computing RETROICOR and RVHRCOR regressors...")
	startTime := time.Now()
	set, err := regressor.ComputeRegressors(regressor.Input{
		Timing:      timing,
		Cardiac:     card,
		Respiration: resp,
	})
	if err != nil {
		log.Fatalf("Regressor computation failed: %v", err)
	}
	if set.Data == nil {
		log.Fatalf("Regressor computation declined: %v", set.Declined)
	}
	elapsed := time.Since(startTime)

	// Step 4: Write the regressor artifact
	fmt.Printf("Step 4: Writing regressors to %s...\n", *outputName)
	if err := set.WriteFile(*outputName); err != nil {
		log.Fatalf("Failed to write regressor file: %v", err)
	}

	fmt.Printf("\nComputed %d regressors x %d frames x %d slices in %.2f seconds\n",
		regressor.NumColumns, timing.NFrames, timing.NSlices(), elapsed.Seconds())
	fmt.Printf("Mean heart rate: %.1f bpm\n", meanHeartRate(set))
}

func parseSliceOrder(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	order := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("bad slice index %q", p)
		}
		order[i] = v
	}
	return order, nil
}

func meanHeartRate(set *regressor.Set) float64 {
	var sum float64
	var n int
	for _, hr := range set.HeartRate {
		for _, v := range hr {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
