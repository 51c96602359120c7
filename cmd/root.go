package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/remd-sim/remd-sim/remd"
	"github.com/remd-sim/remd-sim/remd/store"
	"github.com/remd-sim/remd-sim/remd/traj"
	"github.com/remd-sim/remd-sim/remd/viz"
	"github.com/remd-sim/remd-sim/remd/xyz"
)

var (
	// CLI flags for run control
	configPath       string    // YAML run file; flags below fill in when unset
	seed             int64     // Seed for all Metropolis draws and surrogate dynamics
	logLevel         string    // Log verbosity level
	totalSteps       int64     // Total MD steps per replica
	exchangeInterval int64     // Steps between exchange attempts
	swapsPerSegment  int       // Swap attempts per replica per segment
	temperatures     []float64 // Temperature ladder (K, strictly increasing)

	// CLI flags for swap eligibility
	eligibilityKind string   // any-pair, cutoff-radius, or element-set
	cutoffRadius    float64  // Pair cutoff for cutoff-radius eligibility
	elements        []string // Element set for element-set eligibility

	// CLI flags for inputs and outputs
	structurePath string // Initial configuration (XYZ, optionally gzipped)
	trajectoryDir string // Per-replica trajectory output directory
	storePath     string // SQLite acceptance log path
	listenAddr    string // Websocket viewer address (e.g. :8077)
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "remd-sim",
	Short: "Replica-exchange / Monte-Carlo atom-swap simulation driver",
}

// runCmd executes a simulation using parameters from CLI flags or a YAML run file
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a replica-exchange simulation",
}

// runSimulation is runCmd's Run function; it is attached in init to
// avoid an initialization cycle between runCmd and buildRunConfig.
func runSimulation(cmd *cobra.Command, args []string) {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)

	cfg := buildRunConfig()
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid run configuration: %v", err)
	}
	if cfg.Structure == "" {
		logrus.Fatalf("No structure file provided. Exiting simulation.")
	}

	initial, err := xyz.Read(cfg.Structure)
	if err != nil {
		logrus.Fatalf("unable to read structure %s: %v", cfg.Structure, err)
	}

	replicas, err := remd.NewReplicas(cfg.Temperatures, initial)
	if err != nil {
		logrus.Fatalf("unable to build replicas: %v", err)
	}

	var proposer *remd.AtomSwapProposer
	if cfg.SwapsPerSegment > 0 {
		group, err := cfg.Eligibility.Group()
		if err != nil {
			logrus.Fatalf("invalid eligibility group: %v", err)
		}
		proposer, err = remd.NewAtomSwapProposer(group)
		if err != nil {
			logrus.Fatalf("invalid eligibility group: %v", err)
		}
	}

	rng := remd.NewPartitionedRNG(remd.NewSimulationKey(cfg.Seed))
	engines := make([]remd.Engine, len(replicas))
	for i := range engines {
		engines[i] = remd.NewEngineFunc(i, rng.ForSubsystem(remd.SubsystemReplica(i)))
	}

	sinks, cleanup := buildSinks(cfg)
	defer cleanup()

	scheduler, err := remd.NewReplicaExchangeScheduler(
		cfg.SchedulerConfig(), replicas, engines, proposer, rng, sinks...)
	if err != nil {
		logrus.Fatalf("unable to set up scheduler: %v", err)
	}

	logrus.Infof("Starting run: %d replicas, %d steps, exchange every %d, %d swaps/segment, seed=%d",
		len(replicas), cfg.TotalSteps, cfg.ExchangeInterval, cfg.SwapsPerSegment, cfg.Seed)
	startTime := time.Now()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := scheduler.Run(ctx); err != nil {
		logrus.Fatalf("run failed: %v", err)
	}

	scheduler.Metrics().Print()
	if cfg.StorePath != "" {
		persistTrace(cfg.StorePath, scheduler)
	}
	logrus.Infof("Run complete in %s.", time.Since(startTime).Round(time.Millisecond))
}

// buildRunConfig merges the YAML run file (if any) with direct flags.
// Flags the user set explicitly win over file values.
func buildRunConfig() *remd.RunConfig {
	cfg := &remd.RunConfig{
		Seed:             seed,
		TotalSteps:       totalSteps,
		ExchangeInterval: exchangeInterval,
		SwapsPerSegment:  swapsPerSegment,
		Temperatures:     temperatures,
		Eligibility: remd.EligibilityConfig{
			Kind:     eligibilityKind,
			Cutoff:   cutoffRadius,
			Elements: elements,
		},
		Structure:     structurePath,
		TrajectoryDir: trajectoryDir,
		StorePath:     storePath,
		ListenAddr:    listenAddr,
	}
	if configPath == "" {
		return cfg
	}
	fileCfg, err := remd.LoadRunConfig(configPath)
	if err != nil {
		logrus.Fatalf("unable to load run config %s: %v", configPath, err)
	}
	if runCmd.Flags().Changed("seed") {
		fileCfg.Seed = seed
	}
	if runCmd.Flags().Changed("steps") {
		fileCfg.TotalSteps = totalSteps
	}
	if runCmd.Flags().Changed("exchange-interval") {
		fileCfg.ExchangeInterval = exchangeInterval
	}
	if runCmd.Flags().Changed("swaps-per-segment") {
		fileCfg.SwapsPerSegment = swapsPerSegment
	}
	if runCmd.Flags().Changed("temps") {
		fileCfg.Temperatures = temperatures
	}
	if runCmd.Flags().Changed("structure") {
		fileCfg.Structure = structurePath
	}
	if runCmd.Flags().Changed("traj-dir") {
		fileCfg.TrajectoryDir = trajectoryDir
	}
	if runCmd.Flags().Changed("db") {
		fileCfg.StorePath = storePath
	}
	if runCmd.Flags().Changed("listen") {
		fileCfg.ListenAddr = listenAddr
	}
	return fileCfg
}

// buildSinks wires the optional trajectory writer and websocket
// broadcaster. The returned cleanup closes whatever was opened.
func buildSinks(cfg *remd.RunConfig) ([]remd.FrameSink, func()) {
	var sinks []remd.FrameSink
	var cleanups []func()

	if cfg.TrajectoryDir != "" {
		w, err := traj.NewWriter(cfg.TrajectoryDir)
		if err != nil {
			logrus.Fatalf("unable to open trajectory dir %s: %v", cfg.TrajectoryDir, err)
		}
		sinks = append(sinks, w)
		cleanups = append(cleanups, func() {
			if err := w.Close(); err != nil {
				logrus.Warnf("closing trajectories: %v", err)
			}
		})
	}

	if cfg.ListenAddr != "" {
		b := viz.NewBroadcaster()
		sinks = append(sinks, b)
		srv := &http.Server{Addr: cfg.ListenAddr, Handler: b}
		go func() {
			logrus.Infof("viewer feed on ws://%s", cfg.ListenAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logrus.Warnf("viewer server: %v", err)
			}
		}()
		cleanups = append(cleanups, func() {
			_ = srv.Close()
			b.Close()
		})
	}

	return sinks, func() {
		for _, c := range cleanups {
			c()
		}
	}
}

// persistTrace saves the completed run's acceptance log to SQLite.
func persistTrace(path string, scheduler *remd.ReplicaExchangeScheduler) {
	st, err := store.Open(path)
	if err != nil {
		logrus.Warnf("unable to open store %s: %v", path, err)
		return
	}
	defer func() {
		if err := st.Close(); err != nil {
			logrus.Warnf("closing store: %v", err)
		}
	}()
	if err := st.SaveTrace(scheduler.Trace()); err != nil {
		logrus.Warnf("saving acceptance log: %v", err)
		return
	}
	logrus.Infof("acceptance log saved as run %s", st.RunID())
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Run = runSimulation

	runCmd.Flags().StringVar(&configPath, "config", "", "YAML run file (flags override file values)")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for all random draws")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Run control
	runCmd.Flags().Int64Var(&totalSteps, "steps", 10000, "Total MD steps per replica")
	runCmd.Flags().Int64Var(&exchangeInterval, "exchange-interval", 500, "Steps between exchange attempts")
	runCmd.Flags().IntVar(&swapsPerSegment, "swaps-per-segment", 1, "Atom-swap attempts per replica per segment (0 disables)")
	runCmd.Flags().Float64SliceVar(&temperatures, "temps", []float64{300, 400, 500, 650}, "Comma-separated temperature ladder in K")

	// Swap eligibility
	runCmd.Flags().StringVar(&eligibilityKind, "eligibility", "any-pair", "Eligibility group (any-pair, cutoff-radius, element-set)")
	runCmd.Flags().Float64Var(&cutoffRadius, "cutoff", 0, "Cutoff radius for cutoff-radius eligibility")
	runCmd.Flags().StringSliceVar(&elements, "elements", nil, "Comma-separated element set for element-set eligibility")

	// Inputs and outputs
	runCmd.Flags().StringVar(&structurePath, "structure", "", "Initial configuration (XYZ, .gz supported)")
	runCmd.Flags().StringVar(&trajectoryDir, "traj-dir", "", "Directory for per-replica trajectories")
	runCmd.Flags().StringVar(&storePath, "db", "", "SQLite acceptance log path")
	runCmd.Flags().StringVar(&listenAddr, "listen", "", "Websocket viewer address (e.g. :8077)")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
