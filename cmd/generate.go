package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	sim "github.com/plant-sim/plant-sim/sim"
	"github.com/plant-sim/plant-sim/sim/workload"
)

// arrivalRecord is the YAML form of one generated customer order.
type arrivalRecord struct {
	ID         int      `yaml:"id"`
	Time       int64    `yaml:"time"`
	Customer   string   `yaml:"customer"`
	DueDate    int64    `yaml:"due_date"`
	Background bool     `yaml:"background,omitempty"`
	Lines      []string `yaml:"lines"`
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Draw the customer orders of a workload without running the plant",
	Long:  "Load a plant and a workload spec, generate the arrivals for --seed, and write them to stdout as YAML.",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		engine := sim.DefaultEngineConfig()
		engine.Seed = seed
		engine.Horizon = simulationHorizon
		p, err := buildPlant(plantPath, engine)
		if err != nil {
			logrus.Fatalf("Invalid plant: %v", err)
		}
		arrivals, err := generateArrivals(p, workloadPath)
		if err != nil {
			logrus.Fatalf("Workload generation failed: %v", err)
		}
		if err := writeArrivals(os.Stdout, arrivals); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// writeArrivals marshals arrivals to w as a YAML list.
func writeArrivals(w io.Writer, arrivals []workload.Arrival) error {
	records := make([]arrivalRecord, len(arrivals))
	for i, a := range arrivals {
		lines := make([]string, len(a.Order.Lines))
		for k, p := range a.Order.Lines {
			lines[k] = p.Name
		}
		records[i] = arrivalRecord{
			ID:         int(a.Order.ID),
			Time:       a.Time,
			Customer:   a.Order.Customer,
			DueDate:    a.Order.DueDate,
			Background: a.Order.Background,
			Lines:      lines,
		}
	}
	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("YAML marshal failed: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func init() {
	generateCmd.Flags().Int64Var(&seed, "seed", sim.DefaultEngineConfig().Seed, "Seed for workload generation")
	generateCmd.Flags().Int64Var(&simulationHorizon, "horizon", 0, "Last arrival tick (0 = use the workload's horizon or num_orders)")
	generateCmd.Flags().StringVar(&workloadPath, "workload", "", "Path to workload YAML")
	_ = generateCmd.MarkFlagRequired("workload")

	rootCmd.AddCommand(generateCmd)
}
