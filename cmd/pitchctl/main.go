package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/glog"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/pitchctl/internal/analysis"
	"github.com/san-kum/pitchctl/internal/automation"
	"github.com/san-kum/pitchctl/internal/config"
	"github.com/san-kum/pitchctl/internal/control"
	"github.com/san-kum/pitchctl/internal/export"
	"github.com/san-kum/pitchctl/internal/ipc"
	"github.com/san-kum/pitchctl/internal/metrics"
	"github.com/san-kum/pitchctl/internal/optim"
	"github.com/san-kum/pitchctl/internal/sim"
	"github.com/san-kum/pitchctl/internal/storage"
	"github.com/san-kum/pitchctl/internal/viz"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	dataDir    string
	configFile string
	preset     string
	saveConfig string

	dt         float64
	duration   float64
	seed       int64
	collective float64
	ceiling    float64
	demandMy   float64
	demandMz   float64
	myKp       float64
	myKi       float64
	mzKp       float64
	mzKi       float64
	shear      float64
	yaw        float64
	noise      float64

	runs   int
	settle float64
	locus  bool

	signals    []string
	column     string
	outPath    string
	svgPath    string
	gridParams []string
	metricName string

	sweepParam   string
	sweepValues  string
	trials       int
	perturbation float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "pitchctl",
		Short:        "individual pitch control simulation lab",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pitchctl", "data directory")
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a closed-loop simulation and store the trace",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().IntVar(&runs, "runs", 1, "number of runs with consecutive seeds")
	runCmd.Flags().Float64Var(&settle, "settle", 2.0, "seconds excluded from moment RMS")
	runCmd.Flags().BoolVar(&locus, "locus", false, "print the loop output locus")
	runCmd.Flags().StringVar(&saveConfig, "save-config", "", "write the effective config to this yaml file")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stored signals",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&signals, "signal", []string{"My", "Mz", "dpitch_1"}, "columns to plot")
	plotCmd.Flags().BoolVar(&locus, "locus", false, "also plot the loop output locus")
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also write the locus (with --locus) or the first signal as svg")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "spectrum of a stored signal",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&column, "signal", "dpitch_1", "column to analyze")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "write a run's trace as csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "write a run's metadata and trace as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or print one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}

	signalsCmd := &cobra.Command{
		Use:   "signals",
		Short: "list signal names accepted by the block",
		RunE:  listSignals,
	}
	signalsCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")

	tuneCmd := &cobra.Command{
		Use:     "tune",
		Short:   "grid search over loop gains",
		Example: "  pitchctl tune --grid my_ki=1e-3:1e-2:4 --grid mz_ki=1e-3:1e-2:4 --metric rms_My",
		RunE:    tuneGains,
	}
	addConfigFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&gridParams, "grid", nil, "param=lo:hi:n (repeatable)")
	tuneCmd.Flags().StringVar(&metricName, "metric", "rms_My", "metric to minimise")
	tuneCmd.Flags().Float64Var(&settle, "settle", 2.0, "seconds excluded from moment RMS")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive terminal view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run every step of a yaml scenario and store the traces",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	addConfigFlags(scenarioCmd)
	scenarioCmd.Flags().Float64Var(&settle, "settle", 2.0, "seconds excluded from moment RMS")

	sweepCmd := &cobra.Command{
		Use:     "sweep",
		Short:   "sweep one rotor parameter or loop gain",
		Example: "  pitchctl sweep --param shear --values 0:1200:7",
		Args:    cobra.NoArgs,
		RunE:    runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "shear", "parameter to sweep")
	sweepCmd.Flags().StringVar(&sweepValues, "values", "0:1200:7", "lo:hi:n")
	sweepCmd.Flags().Float64Var(&settle, "settle", 2.0, "seconds excluded from moment RMS")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "perturb shear and yaw loads at random and count stable runs",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addConfigFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturbation, "perturb", 0.5, "relative load perturbation")
	monteCarloCmd.Flags().Float64Var(&settle, "settle", 2.0, "seconds excluded from moment RMS")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, analyzeCmd, exportCmd, exportJSONCmd, presetsCmd, signalsCmd, tuneCmd, liveCmd,
		scenarioCmd, sweepCmd, monteCarloCmd)

	err := rootCmd.Execute()
	glog.Flush()
	if err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "start from a preset (see 'presets')")
	f.Float64Var(&dt, "dt", d.Sim.Dt, "control step in seconds")
	f.Float64Var(&duration, "time", d.Sim.Duration, "duration in seconds")
	f.Int64Var(&seed, "seed", d.Sim.Seed, "sensor noise seed")
	f.Float64Var(&collective, "collective", d.Sim.Collective, "collective pitch in degrees")
	f.Float64Var(&ceiling, "ceiling", d.Sim.MaxIndividualPitch, "individual pitch ceiling in degrees")
	f.Float64Var(&demandMy, "demand-my", d.Sim.DemandMy, "tilt moment demand in kNm")
	f.Float64Var(&demandMz, "demand-mz", d.Sim.DemandMz, "yaw moment demand in kNm")
	f.Float64Var(&myKp, "my-kp", d.IPC.MyControl.Kp, "My loop proportional gain")
	f.Float64Var(&myKi, "my-ki", d.IPC.MyControl.Ki, "My loop integral gain")
	f.Float64Var(&mzKp, "mz-kp", d.IPC.MzControl.Kp, "Mz loop proportional gain")
	f.Float64Var(&mzKi, "mz-ki", d.IPC.MzControl.Ki, "Mz loop integral gain")
	f.Float64Var(&shear, "shear", d.Rotor.Shear, "1P cosine flap load in kNm")
	f.Float64Var(&yaw, "yaw", d.Rotor.Yaw, "1P sine flap load in kNm")
	f.Float64Var(&noise, "noise", d.Sim.Sensors.Noise, "speed sensor noise in rpm")
}

// loadConfig layers defaults, preset, config file and changed flags, in that
// order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		if !config.Apply(cfg, preset) {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		if err := config.LoadInto(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	f := cmd.Flags()
	set := func(name string, dst *float64, v float64) {
		if f.Changed(name) {
			*dst = v
		}
	}
	set("dt", &cfg.Sim.Dt, dt)
	set("time", &cfg.Sim.Duration, duration)
	set("collective", &cfg.Sim.Collective, collective)
	set("ceiling", &cfg.Sim.MaxIndividualPitch, ceiling)
	set("demand-my", &cfg.Sim.DemandMy, demandMy)
	set("demand-mz", &cfg.Sim.DemandMz, demandMz)
	set("my-kp", &cfg.IPC.MyControl.Kp, myKp)
	set("my-ki", &cfg.IPC.MyControl.Ki, myKi)
	set("mz-kp", &cfg.IPC.MzControl.Kp, mzKp)
	set("mz-ki", &cfg.IPC.MzControl.Ki, mzKi)
	set("shear", &cfg.Rotor.Shear, shear)
	set("yaw", &cfg.Rotor.Yaw, yaw)
	set("noise", &cfg.Sim.Sensors.Noise, noise)
	if f.Changed("seed") {
		cfg.Sim.Seed = seed
	}
	return cfg, nil
}

func addMetrics(s *sim.Simulator) {
	for _, m := range metrics.Standard(settle) {
		s.AddMetric(m)
	}
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if saveConfig != "" {
		if err := config.Save(saveConfig, cfg); err != nil {
			return err
		}
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %d x %.1fs at dt=%gs...\n", runs, cfg.Sim.Duration, cfg.Sim.Dt)
	start := time.Now()

	var results []*sim.Result
	if runs > 1 {
		results, err = sim.NewEnsemble(cfg.Factory(addMetrics), runs, cfg.Sim.Seed).Run(ctx, cfg.Sim)
	} else {
		var s *sim.Simulator
		s, err = cfg.NewSimulator()
		if err != nil {
			return err
		}
		addMetrics(s)
		var res *sim.Result
		res, err = s.Run(ctx, cfg.Sim)
		results = []*sim.Result{res}
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	for i, res := range results {
		runCfg := cfg.Sim
		runCfg.Seed += int64(i)
		runID, err := st.Save(storage.NewRunMetadata(preset, runCfg, cfg.Rotor.Speed), res)
		if err != nil {
			return err
		}
		glog.V(1).Infof("saved %s", runID)
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("steps: %d\n", results[0].StepsTaken)
	if lost := results[0].QuorumLost; lost > 0 {
		fmt.Printf("speed quorum lost on %d steps\n", lost)
	}
	fmt.Println("\nmetrics:")
	printMetrics(sim.MeanMetrics(results))

	if locus {
		fmt.Println()
		fmt.Print(analysis.ResultLocus(results[0]).ASCII(61, 25))
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tDURATION\tDT\tSEED\tRMS_MY\tRMS_MZ")

	for _, run := range runs {
		p := run.Preset
		if p == "" {
			p = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\t%.2f\t%.2f\n",
			run.ID,
			p,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Seed,
			run.Metrics["rms_My"],
			run.Metrics["rms_Mz"],
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, *storage.Trace, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	tr, err := st.LoadTrace(runID)
	if err != nil {
		return nil, nil, err
	}
	if tr.Len() == 0 {
		return nil, nil, fmt.Errorf("no data in run %s", runID)
	}
	return meta, tr, nil
}

// downsample keeps at most n evenly spaced points for plotting.
func downsample(data []float64, n int) []float64 {
	if len(data) <= n {
		return data
	}
	out := make([]float64, n)
	step := float64(len(data)-1) / float64(n-1)
	for i := range out {
		out[i] = data[int(float64(i)*step)]
	}
	return out
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", tr.Len())

	for _, name := range signals {
		data, err := tr.Column(name)
		if err != nil {
			return err
		}
		graph := asciigraph.Plot(downsample(data, 400),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s vs time (%.1fs)", name, meta.Duration)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if locus {
		cols := make([][]float64, 0, 3)
		for _, sig := range []ipc.Signal{ipc.SignalMyOutput, ipc.SignalMzOutput, ipc.SignalMaxIncrement} {
			c, err := tr.Column(sig.String())
			if err != nil {
				return err
			}
			cols = append(cols, c)
		}
		l := analysis.NewLocus(cols[0], cols[1], cols[2])
		fmt.Println("My_out (horizontal) vs Mz_out (vertical):")
		fmt.Print(l.ASCII(61, 25))
		if svgPath != "" {
			return writeSVG(export.LocusSVG(l, 600))
		}
		return nil
	}

	if svgPath != "" && len(signals) > 0 {
		times, err := tr.Column("time")
		if err != nil {
			return err
		}
		data, err := tr.Column(signals[0])
		if err != nil {
			return err
		}
		return writeSVG(export.SeriesSVG(times, data, 800, 300, "#00ff00"))
	}
	return nil
}

func writeSVG(doc string) error {
	if doc == "" {
		return fmt.Errorf("nothing to draw")
	}
	if err := os.WriteFile(svgPath, []byte(doc), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", svgPath)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}
	data, err := tr.Column(column)
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("signal: %s\n\n", column)

	freqs, amps := analysis.Spectrum(data, meta.Dt)
	if len(amps) < 8 {
		return fmt.Errorf("not enough samples for a spectrum: %d", len(data))
	}

	plotData := amps[:len(amps)/4]
	graph := asciigraph.Plot(downsample(plotData, 400),
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("amplitude spectrum (%s), 0-%.1f hz", column, freqs[len(plotData)-1])),
	)
	fmt.Println(graph)
	fmt.Println()

	freq := analysis.DominantFrequency(data, meta.Dt)
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}
	if meta.RotorSpeed > 0 {
		p1 := meta.RotorSpeed / 60
		fmt.Printf("1P (%.3f hz) amplitude: %.4f\n", p1, analysis.AmplitudeAt(data, meta.Dt, p1))
		fmt.Printf("3P (%.3f hz) amplitude: %.4f\n", 3*p1, analysis.AmplitudeAt(data, meta.Dt, 3*p1))
	}
	return nil
}

func output() (*os.File, func() error, error) {
	if outPath == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if _, err := st.Load(args[0]); err != nil {
		return err
	}
	w, closeFn, err := output()
	if err != nil {
		return err
	}
	if err := st.CopyTrace(w, args[0]); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if outPath != "" {
		return storage.ExportJSON(outPath, meta, tr)
	}
	return storage.WriteJSON(os.Stdout, meta, tr)
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		cfg := config.GetPreset(args[0])
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range config.ListPresets() {
		fmt.Fprintf(w, "%s\t%s\n", name, config.Presets[name].Description)
	}
	return w.Flush()
}

func listSignals(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if configFile != "" {
		if err := config.LoadInto(configFile, cfg); err != nil {
			return err
		}
	}

	blk, err := ipc.New(cfg.IPC)
	if err != nil {
		return err
	}

	fmt.Println("block signals:")
	for _, s := range ipc.Signals() {
		fmt.Printf("  %s\n", s)
	}
	for _, loop := range blk.LoopNames() {
		fmt.Printf("\n%s signals:\n", loop)
		for _, name := range control.SignalNames() {
			fmt.Printf("  %s%s%s\n", loop, ipc.BlockSeparator, name)
		}
	}
	return nil
}

// parseRange parses "lo:hi:n".
func parseRange(r string) ([]float64, error) {
	parts := strings.Split(r, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("range %q: want lo:hi:n", r)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, fmt.Errorf("range %q: %w", r, err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return nil, fmt.Errorf("range %q: %w", r, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 1 {
		return nil, fmt.Errorf("range %q: bad point count %q", r, parts[2])
	}
	return optim.Linspace(lo, hi, n), nil
}

// parseGrid parses "name=lo:hi:n".
func parseGrid(arg string) (string, []float64, error) {
	name, rng, ok := strings.Cut(arg, "=")
	if !ok {
		return "", nil, fmt.Errorf("grid %q: want name=lo:hi:n", arg)
	}
	values, err := parseRange(rng)
	if err != nil {
		return "", nil, fmt.Errorf("grid %s: %w", name, err)
	}
	return name, values, nil
}

func tuneGains(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(gridParams) == 0 {
		return fmt.Errorf("at least one --grid is required")
	}

	names := make([]string, 0, len(gridParams))
	ranges := make([][]float64, 0, len(gridParams))
	for _, g := range gridParams {
		name, values, err := parseGrid(g)
		if err != nil {
			return err
		}
		if _, err := optim.ApplyGains(cfg.IPC, map[string]float64{name: 0}); err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	build := func(params map[string]float64) (*sim.Simulator, error) {
		c := *cfg
		ipcCfg, err := optim.ApplyGains(c.IPC, params)
		if err != nil {
			return nil, err
		}
		c.IPC = ipcCfg
		s, err := c.NewSimulator()
		if err != nil {
			return nil, err
		}
		addMetrics(s)
		return s, nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	best, val, err := optim.NewGridSearch(names, ranges).Search(ctx, build, cfg.Sim, metricName)
	if err != nil {
		return err
	}

	fmt.Printf("searched in %v\n", time.Since(start))
	fmt.Printf("best %s: %.6f\n", metricName, val)
	for _, name := range names {
		fmt.Printf("  %s: %g\n", name, best[name])
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := cfg.NewSimulator()
	if err != nil {
		return err
	}

	title := "individual pitch control"
	if preset != "" {
		title += " · " + preset
	}

	m := viz.NewModel(s, cfg.Sim, title)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("scenario %s: %d steps\n", sc.Name, len(sc.Steps))
	results, err := automation.RunScenario(ctx, sc, base, addMetrics)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN ID\tRMS_MY\tRMS_MZ\tPEAK_PITCH")
	for _, r := range results {
		label := r.Name
		if r.Preset != "" {
			label = r.Preset
		}
		runID, err := st.Save(storage.NewRunMetadata(label, r.Config.Sim, r.Config.Rotor.Speed), r.Result)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%.3f\n", r.Name, runID,
			r.Result.Metrics["rms_My"], r.Result.Metrics["rms_Mz"], r.Result.Metrics["peak_pitch"])
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	values, err := parseRange(sweepValues)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	points, err := automation.RunSweep(ctx, automation.Sweep{Param: sweepParam, Values: values}, base, addMetrics)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tRMS_MY\tRMS_MZ\tPEAK_PITCH\tVIOLATIONS\n", strings.ToUpper(sweepParam))
	peaks := make([]float64, 0, len(points))
	for _, p := range points {
		fmt.Fprintf(w, "%g\t%.2f\t%.2f\t%.3f\t%.0f\n", p.Value,
			p.Metrics["rms_My"], p.Metrics["rms_Mz"], p.Metrics["peak_pitch"], p.Metrics["envelope_violations"])
		peaks = append(peaks, p.Metrics["peak_pitch"])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(peaks) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(peaks,
			asciigraph.Height(10),
			asciigraph.Caption(fmt.Sprintf("peak pitch vs %s", sweepParam)),
		))
	}
	return nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	mc := automation.MonteCarloConfig{Trials: trials, Perturbation: perturbation, Seed: base.Sim.Seed}
	results, err := automation.RunMonteCarlo(ctx, mc, base, addMetrics)
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("trials: %d  stable: %d  unstable: %d\n", len(results), stable, unstable)

	var rs []*sim.Result
	for _, r := range results {
		if r.Stable {
			rs = append(rs, &sim.Result{Metrics: r.Metrics})
		}
	}
	if len(rs) == 0 {
		return nil
	}
	fmt.Println("\nmean metrics over stable trials:")
	printMetrics(sim.MeanMetrics(rs))
	return nil
}
