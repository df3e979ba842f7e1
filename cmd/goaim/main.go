// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.3
//

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"math/cmplx"
	"math/rand"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	m "github.com/mkhts/goaim"
)

func main() {

	// Parse command line arguments
	args, err := parseArgs()
	if err != nil {
		m.PrintE(err)
		flag.Usage()
		os.Exit(1)
	}

	// Run the main application
	if err := runApplication(args); err != nil {
		m.PrintE(err)
		os.Exit(1)
	}
}

type cmdOpt struct {
	cfgFn     string
	outFn     string
	mode      string
	seed      int64
	authDeg   float64
	spoofDeg  float64
	injectSpf bool
}

// Parse command line arguments
func parseArgs() (a cmdOpt, err error) {
	flag.Usage = func() {
		m.PrintA(`
[Usage]
	%s [Options]

Runs the jamming and/or spoofing mitigation pipelines on a synthetic
scenario generated from a seedable random source.

[Options]
`, filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.StringVar(&a.cfgFn, "c", "", "Scenario config yaml path. Built-in defaults are used when omitted.")
	flag.StringVar(&a.outFn, "o", "", "Output file path. If not specified, output to stdout.")
	flag.StringVar(&a.mode, "p", "both", "Pipeline selection. jam, spoof, or both.")
	flag.Int64Var(&a.seed, "s", 0, "Random seed override. 0 keeps the config seed.")
	flag.Float64Var(&a.authDeg, "a", 30, "Authentic source direction [deg].")
	flag.Float64Var(&a.spoofDeg, "b", -20, "Spoofing source direction [deg].")
	flag.BoolVar(&a.injectSpf, "spoof", true, "Inject a spoofing source into the scenario.")
	var dbg int
	flag.IntVar(&dbg, "x", 0, "Debug information display. Specify level value. 0(OFF), 1(display), 2(detailed display)")
	flag.Parse()
	m.DBG_ = dbg
	if a.mode != "jam" && a.mode != "spoof" && a.mode != "both" {
		return a, fmt.Errorf("invalid pipeline selection %q", a.mode)
	}
	return
}

// Main application processing
func runApplication(args cmdOpt) error {

	// Load scenario configuration
	cfg, err := loadConfig(args)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if args.seed != 0 {
		cfg.Seed = args.seed
	}

	// Prepare output
	out, err := prepareOutput(args)
	if err != nil {
		return fmt.Errorf("failed to prepare output: %w", err)
	}
	defer closeOutput(out)

	// The random source is passed explicitly so runs are reproducible
	rng := rand.New(rand.NewSource(cfg.Seed))

	if args.mode == "jam" || args.mode == "both" {
		if err := runJamming(cfg, rng, out); err != nil {
			return fmt.Errorf("jamming pipeline failed: %w", err)
		}
	}
	if args.mode == "spoof" || args.mode == "both" {
		if err := runSpoofing(args, cfg, rng, out); err != nil {
			return fmt.Errorf("spoofing pipeline failed: %w", err)
		}
	}
	return nil
}

// Load scenario configuration
func loadConfig(args cmdOpt) (*m.Config, error) {
	if args.cfgFn == "" {
		return m.DefaultConfig(), nil
	}
	return m.LoadConfig(args.cfgFn)
}

// Prepare output file
func prepareOutput(args cmdOpt) (io.WriteCloser, error) {
	if len(args.outFn) == 0 {
		return &nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(args.outFn)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// Close output file
func closeOutput(out io.WriteCloser) {
	if out != nil {
		out.Close()
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// ------------------------------------
// Jamming pipeline
// ------------------------------------

func runJamming(cfg *m.Config, rng *rand.Rand, out io.Writer) error {
	n := cfg.Samples

	// Spread-spectrum like reference code and two interferer tones
	code := make([]float64, n)
	for i := range code {
		if rng.Intn(2) == 0 {
			code[i] = 1
		} else {
			code[i] = -1
		}
	}
	// Interferer tones inside both chirp sweep bands, so each branch
	// compresses them to detectable responses
	jamFreqs := []float64{0.08, 0.14}
	jamDelays := []float64{16, 48}
	received := make([]float64, n)
	for t := 0; t < n; t++ {
		received[t] = 0.5 * code[t]
		for k := range jamFreqs {
			received[t] += 4 * math.Sin(2*m.PI*jamFreqs[k]*(float64(t)-jamDelays[k]))
		}
		received[t] += 0.1 * rng.NormFloat64()
	}

	// Matched filter against the phase-aligned reference code
	mf, err := m.MatchedFilter(received, code[:cfg.Jamming.ChirpLen])
	if err != nil {
		return err
	}

	// Correlate the response with the two reference chirps and detect
	// peaks on each branch
	resp1 := magnitude(m.Convolve(mf, chirp(cfg.Jamming.ChirpRate1, cfg.Jamming.ChirpLen)))[:n]
	resp2 := magnitude(m.Convolve(mf, chirp(cfg.Jamming.ChirpRate2, cfg.Jamming.ChirpLen)))[:n]
	peaks1, _, err := m.DynamicCFAR(resp1, cfg.Jamming.CFAR)
	if err != nil {
		return err
	}
	peaks2, _, err := m.DynamicCFAR(resp2, cfg.Jamming.CFAR)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%% jamming   : %d / %d peaks detected on the chirp branches\n", len(peaks1), len(peaks2))
	if len(peaks1) == 0 || len(peaks2) == 0 {
		fmt.Fprintf(out, "%% jamming   : nothing to suppress\n")
		return nil
	}

	delays, freqs, dropped, err := m.EstimateJammingParameters(
		peaks1, peaks2, cfg.Jamming.ChirpRate1, cfg.Jamming.ChirpRate2)
	if err != nil {
		return err
	}
	if dropped > 0 {
		fmt.Fprintf(out, "%% jamming   : peak pairing dropped %d unmatched peaks\n", dropped)
	}
	// A pair of equal peak indices estimates frequency zero, whose sine
	// atom is identically zero; skip those
	keep := 0
	for i := range freqs {
		if freqs[i] != 0 {
			delays[keep], freqs[keep] = delays[i], freqs[i]
			keep++
		}
	}
	delays, freqs = delays[:keep], freqs[:keep]
	if len(delays) == 0 {
		fmt.Fprintf(out, "%% jamming   : nothing to suppress\n")
		return nil
	}
	if len(delays) > cfg.Jamming.MaxAtoms {
		delays = delays[:cfg.Jamming.MaxAtoms]
		freqs = freqs[:cfg.Jamming.MaxAtoms]
	}

	dict, err := m.BuildAtomicDictionary(delays, freqs, n)
	if err != nil {
		return err
	}
	clean, err := m.SuppressJamming(received, dict)
	if err != nil {
		return err
	}
	for i := range delays {
		fmt.Fprintf(out, "%%   atom %2d : delay %8.2f  freq %10.6f\n", i, delays[i], freqs[i])
	}
	fmt.Fprintf(out, "%% jamming   : energy %.1f -> %.1f (%d atoms)\n",
		m.Energy(received), m.Energy(clean), dict.NumAtoms())
	return nil
}

// chirp returns a reference chirp of the given rate [cycles/sample^2]
func chirp(rate float64, n int) []float64 {
	c := make([]float64, n)
	for t := range c {
		c[t] = math.Sin(m.PI * rate * float64(t) * float64(t))
	}
	return c
}

func magnitude(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Abs(v)
	}
	return out
}

// ------------------------------------
// Spoofing pipeline
// ------------------------------------

func runSpoofing(args cmdOpt, cfg *m.Config, rng *rand.Rand, out io.Writer) error {
	na := cfg.Array.NumAntennas
	total := cfg.Spoofing.BlockSize * cfg.Spoofing.NumBlocks
	positions := cfg.Array.ElementPositions()

	// Plane-wave snapshots: authentic source, optional spoofer, and unit
	// total noise power so the eigenvalue scale matches the configured
	// detector threshold
	snaps := planeWave(rng, positions, total, args.authDeg, 0.7)
	if args.injectSpf {
		addPlaneWave(rng, snaps, positions, args.spoofDeg, 1.4)
	}
	addNoise(rng, snaps, math.Sqrt(0.5))

	r, err := m.EstimateCyclicCorrelation(snaps, cfg.Spoofing.BlockSize, cfg.Spoofing.NumBlocks, cfg.Spoofing.CyclicDelay)
	if err != nil {
		return err
	}

	dim, eig, err := m.EstimateSubspaceDimension(r, total)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%% spoofing  : subspace dimension %d, eigenvalues %s\n", dim, fmtEig(eig.Values))

	dcfg := m.DetectorConfig{
		FalseAlarmProbability: cfg.Spoofing.FalseAlarmProbability,
		EigThreshold:          cfg.Spoofing.EigThreshold,
		SampleCount:           total,
		Eig:                   eig,
	}
	if cfg.Spoofing.UseMDL {
		dcfg.Policy = m.DimMDL
	} else {
		dcfg.Policy = m.DimEigThreshold
	}
	det, err := m.DetectSpoofing(r, dcfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%% spoofing  : T_sse %.3f  eta %.3f  ->  %v\n", det.Statistic, det.Threshold, det.Spoofed)
	if !det.Spoofed {
		return nil
	}

	spec, err := m.EstimateDOAFromEigen(context.Background(), eig, dim, positions, cfg.Spoofing.ScanAngles())
	if err != nil {
		return err
	}
	peak, pwr := spec.Peak()
	fmt.Fprintf(out, "%% spoofing  : DOA peak %.1f deg (power %.3g)\n", peak, pwr)

	// The eigenvector best aligned with the steering vector of the
	// spoofed direction carries the spoofing component
	spfIdx := alignedEigenvector(eig, positions, args.spoofDeg, dim)
	vecs := mat.NewCDense(na, 1, nil)
	for i := 0; i < na; i++ {
		vecs.Set(i, 0, eig.Vectors.At(i, spfIdx))
	}
	mitigated, err := m.MitigateSpoofing(r, vecs)
	if err != nil {
		return err
	}
	meig, err := m.EigHermitian(mitigated)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%% spoofing  : mitigated eigenvalues %s\n", fmtEig(meig.Values))
	return nil
}

// planeWave generates antennas x samples snapshots of a narrowband source
// from the given direction with random BPSK symbols.
func planeWave(rng *rand.Rand, positions []float64, samples int, angleDeg, amp float64) *mat.CDense {
	snaps := mat.NewCDense(len(positions), samples, nil)
	addPlaneWave(rng, snaps, positions, angleDeg, amp)
	return snaps
}

func addPlaneWave(rng *rand.Rand, snaps *mat.CDense, positions []float64, angleDeg, amp float64) {
	_, samples := snaps.Dims()
	s := math.Sin(m.ToRad(angleDeg))
	for t := 0; t < samples; t++ {
		sym := complex(amp, 0)
		if rng.Intn(2) == 0 {
			sym = -sym
		}
		for i, p := range positions {
			phase := cmplx.Exp(complex(0, 2*m.PI*p*s))
			snaps.Set(i, t, snaps.At(i, t)+sym*phase)
		}
	}
}

func addNoise(rng *rand.Rand, snaps *mat.CDense, sigma float64) {
	n, samples := snaps.Dims()
	for i := 0; i < n; i++ {
		for t := 0; t < samples; t++ {
			w := complex(rng.NormFloat64()*sigma, rng.NormFloat64()*sigma)
			snaps.Set(i, t, snaps.At(i, t)+w)
		}
	}
}

// alignedEigenvector returns the index of the signal eigenvector with the
// largest projection onto the steering vector of the given direction.
func alignedEigenvector(eig *m.EigenDecomposition, positions []float64, angleDeg float64, dim int) int {
	n := len(eig.Values)
	s := math.Sin(m.ToRad(angleDeg))
	best, bestMag := 0, -1.0
	for k := 0; k < dim && k < n; k++ {
		var dot complex128
		for i, p := range positions {
			a := cmplx.Exp(complex(0, 2*m.PI*p*s))
			dot += cmplx.Conj(eig.Vectors.At(i, k)) * a
		}
		if mag := cmplx.Abs(dot); mag > bestMag {
			bestMag = mag
			best = k
		}
	}
	return best
}

func fmtEig(vals []float64) string {
	s := "["
	for i, v := range vals {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%.3f", v)
	}
	return s + "]"
}
