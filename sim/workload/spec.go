package workload

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Spec is the top-level workload configuration.
// Loaded from YAML via LoadSpec(path).
type Spec struct {
	Arrival            ArrivalSpec    `yaml:"arrival"`
	Rate               float64        `yaml:"rate"`                 // customer orders per tick
	Horizon            int64          `yaml:"horizon,omitempty"`    // last arrival tick (0 = use caller's horizon)
	NumOrders          int            `yaml:"num_orders,omitempty"` // 0 = unlimited (use horizon only)
	Lines              LinesSpec      `yaml:"lines"`
	DueDateSlack       float64        `yaml:"due_date_slack"` // due = arrival + slack * nominal lead time
	BackgroundFraction float64        `yaml:"background_fraction,omitempty"`
	Customers          []CustomerSpec `yaml:"customers"`
}

// ArrivalSpec configures the inter-arrival time process.
type ArrivalSpec struct {
	Process string `yaml:"process"` // "poisson" (default) or "constant"
}

// LinesSpec bounds the number of product lines per customer order.
type LinesSpec struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// CustomerSpec defines one customer and its product mix.
type CustomerSpec struct {
	Name       string    `yaml:"name"`
	Weight     float64   `yaml:"weight"` // share of arrivals
	ProductMix []MixSpec `yaml:"product_mix"`
}

// MixSpec weights one product within a customer's mix.
type MixSpec struct {
	Product int     `yaml:"product"`
	Weight  float64 `yaml:"weight"`
}

var validArrivalProcesses = map[string]bool{"": true, "poisson": true, "constant": true}

// LoadSpec reads and parses a YAML workload specification file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workload spec: %w", err)
	}
	return ParseSpec(data)
}

// ParseSpec parses a YAML workload specification from memory.
func ParseSpec(data []byte) (*Spec, error) {
	var spec Spec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing workload spec: %w", err)
	}
	return &spec, nil
}

// Validate checks that all fields in the spec are valid.
func (s *Spec) Validate() error {
	if !validArrivalProcesses[s.Arrival.Process] {
		return fmt.Errorf("unknown arrival process %q; valid: poisson, constant", s.Arrival.Process)
	}
	if err := validatePositive("rate", s.Rate); err != nil {
		return err
	}
	if s.Horizon < 0 {
		return fmt.Errorf("horizon must be >= 0, got %d", s.Horizon)
	}
	if s.NumOrders < 0 {
		return fmt.Errorf("num_orders must be >= 0, got %d", s.NumOrders)
	}
	if s.Lines.Min < 1 || s.Lines.Max < s.Lines.Min {
		return fmt.Errorf("lines must satisfy 1 <= min <= max, got min=%d max=%d", s.Lines.Min, s.Lines.Max)
	}
	if err := validatePositive("due_date_slack", s.DueDateSlack); err != nil {
		return err
	}
	if math.IsNaN(s.BackgroundFraction) || s.BackgroundFraction < 0 || s.BackgroundFraction > 1 {
		return fmt.Errorf("background_fraction must be in [0, 1], got %v", s.BackgroundFraction)
	}
	if len(s.Customers) == 0 {
		return fmt.Errorf("at least one customer required")
	}
	for i, c := range s.Customers {
		if err := validatePositive(fmt.Sprintf("customer[%d] weight", i), c.Weight); err != nil {
			return err
		}
		if len(c.ProductMix) == 0 {
			return fmt.Errorf("customer[%d] %q: product_mix must not be empty", i, c.Name)
		}
		for j, m := range c.ProductMix {
			if err := validatePositive(fmt.Sprintf("customer[%d] product_mix[%d] weight", i, j), m.Weight); err != nil {
				return err
			}
		}
	}
	return nil
}

func validatePositive(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be a finite number, got %v", name, v)
	}
	if v <= 0 {
		return fmt.Errorf("%s must be positive, got %v", name, v)
	}
	return nil
}
