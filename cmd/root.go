package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/plant-sim/plant-sim/sim"
	"github.com/plant-sim/plant-sim/sim/trace"
	"github.com/plant-sim/plant-sim/sim/workload"
)

var (
	// CLI flags for the run
	seed              int64  // Master seed of the partitioned RNG
	simulationHorizon int64  // Total simulation time (in ticks)
	logLevel          string // Log verbosity level
	plantPath         string // Plant definition YAML
	workloadPath      string // Workload YAML
	lookaheadDepth    int    // Feasibility recursion cap (0 = single-stage)
	traceLevel        string // Decision trace verbosity
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "plant-sim",
	Short: "Discrete-event simulator for due-date-aware job-shop dispatching",
}

// runOptions carries everything runSimulation needs.
type runOptions struct {
	PlantPath    string
	WorkloadPath string
	Engine       sim.EngineConfig
}

// buildPlant loads the plant definition and wires the engine.
func buildPlant(path string, engine sim.EngineConfig) (*sim.Plant, error) {
	cfg, err := sim.LoadPlantConfig(path)
	if err != nil {
		return nil, err
	}
	return cfg.Build(engine)
}

// generateArrivals loads the workload spec and draws its arrivals for p.
func generateArrivals(p *sim.Plant, path string) ([]workload.Arrival, error) {
	spec, err := workload.LoadSpec(path)
	if err != nil {
		return nil, err
	}
	return workload.Generate(spec, p, p.RNG.ForSubsystem(sim.SubsystemWorkload), p.Config.Horizon)
}

// runSimulation builds the plant, submits the workload, runs to completion,
// and writes the report to out.
func runSimulation(opts runOptions, out io.Writer) (*sim.Plant, error) {
	p, err := buildPlant(opts.PlantPath, opts.Engine)
	if err != nil {
		return nil, err
	}
	arrivals, err := generateArrivals(p, opts.WorkloadPath)
	if err != nil {
		return nil, err
	}
	logrus.Infof("Generated %d customer orders", len(arrivals))
	for _, a := range arrivals {
		p.Submit(a.Time, a.Order)
	}

	if err := p.Run(); err != nil {
		return p, fmt.Errorf("simulation aborted at tick %d: %w", p.Sim.Now(), err)
	}
	p.Metrics.Print(out)
	if p.Trace.Enabled() {
		printTraceSummary(out, trace.Summarize(p.Trace))
	}
	return p, nil
}

// setLogLevel parses and applies the --log flag.
func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the plant simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		engine := sim.EngineConfig{
			Seed:           seed,
			Horizon:        simulationHorizon,
			LookaheadDepth: lookaheadDepth,
			TraceLevel:     traceLevel,
		}
		logrus.Infof("Starting simulation with plant=%s workload=%s horizon=%d lookahead=%d",
			plantPath, workloadPath, simulationHorizon, lookaheadDepth)

		startTime := time.Now()
		if _, err := runSimulation(runOptions{PlantPath: plantPath, WorkloadPath: workloadPath, Engine: engine}, os.Stdout); err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Infof("Simulation complete in %s.", time.Since(startTime))
	},
}

// validateCmd loads and validates a plant definition without running it
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a plant definition",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		p, err := buildPlant(plantPath, sim.DefaultEngineConfig())
		if err != nil {
			logrus.Fatalf("Invalid plant: %v", err)
		}
		printPlantSummary(os.Stdout, p)
	},
}

// printPlantSummary lists products with their nominal lead times and the machine count.
func printPlantSummary(w io.Writer, p *sim.Plant) {
	fmt.Fprintf(w, "Plant OK: %d products, %d resource groups, %d machines\n",
		len(p.Products()), len(p.Groups.All()), len(p.Resources()))
	for _, prod := range p.Products() {
		fmt.Fprintf(w, "  %-16s class %-10s nominal lead time %d\n", prod.Name, prod.Class, p.NominalLeadTime(prod))
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	defaults := sim.DefaultEngineConfig()

	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&plantPath, "plant", "", "Path to plant definition YAML")
	_ = rootCmd.MarkPersistentFlagRequired("plant")

	runCmd.Flags().Int64Var(&seed, "seed", defaults.Seed, "Seed for routing draws, cycle times and workload generation")
	runCmd.Flags().Int64Var(&simulationHorizon, "horizon", 0, "Total simulation horizon in ticks (0 = until all orders finish)")
	runCmd.Flags().StringVar(&workloadPath, "workload", "", "Path to workload YAML")
	runCmd.Flags().IntVar(&lookaheadDepth, "lookahead", defaults.LookaheadDepth, "Feasibility lookahead depth (0 = current stage only)")
	runCmd.Flags().StringVar(&traceLevel, "trace", defaults.TraceLevel, "Decision trace level (none, decisions)")
	_ = runCmd.MarkFlagRequired("workload")

	// Attach subcommands to `root`
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}
