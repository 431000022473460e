package sim

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// PlantConfig is the YAML plant definition: products, resource groups with
// their machines and duration tables, and per-class routings.
type PlantConfig struct {
	Products       []ProductConfig       `yaml:"products"`
	ResourceGroups []ResourceGroupConfig `yaml:"resource_groups"`
	Routings       []RoutingConfig       `yaml:"routings"`
}

// ProductConfig defines one product.
type ProductConfig struct {
	ID     int     `yaml:"id"`
	Name   string  `yaml:"name"`
	Class  string  `yaml:"class"`
	Weight float64 `yaml:"weight"`
}

// ResourceGroupConfig defines one resource group.
type ResourceGroupConfig struct {
	ID        int             `yaml:"id"`
	Name      string          `yaml:"name"`
	MinWeight float64         `yaml:"min_weight"`
	MaxWeight float64         `yaml:"max_weight"`
	Parallel  bool            `yaml:"parallel"`
	Machines  int             `yaml:"machines"`
	CycleTime CycleTimeConfig `yaml:"cycle_time"`
	Durations map[int]int64   `yaml:"durations"` // product id -> nominal duration
}

// CycleTimeConfig selects the duration model of a group.
// Type "" or "fixed" uses nominal durations; "triangular" samples
// Triangle(lower*nominal, upper*nominal, nominal).
type CycleTimeConfig struct {
	Type  string  `yaml:"type"`
	Lower float64 `yaml:"lower"`
	Upper float64 `yaml:"upper"`
}

// RoutingConfig is the routing of one product class.
type RoutingConfig struct {
	Class        string        `yaml:"class"`
	InitialState int           `yaml:"initial_state"`
	FixedStates  []int         `yaml:"fixed_states"`
	States       []StateConfig `yaml:"states"`
}

// StateConfig is one routing state.
type StateConfig struct {
	State  int              `yaml:"state"`
	Groups []int            `yaml:"groups"`
	Next   []NextStepConfig `yaml:"next"` // empty: always terminal
}

// NextStepConfig is one outgoing transition. State -1 is terminal.
type NextStepConfig struct {
	State       int     `yaml:"state"`
	Probability float64 `yaml:"probability"`
}

// ValidCycleTimeTypes is the set of recognized cycle-time models.
var ValidCycleTimeTypes = map[string]bool{"": true, "fixed": true, "triangular": true}

// LoadPlantConfig reads and parses a YAML plant definition.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadPlantConfig(path string) (*PlantConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plant config: %w", err)
	}
	return ParsePlantConfig(data)
}

// ParsePlantConfig parses a YAML plant definition from memory.
func ParsePlantConfig(data []byte) (*PlantConfig, error) {
	var cfg PlantConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing plant config: %w", err)
	}
	return &cfg, nil
}

// Validate checks field ranges and cross references that do not need a built graph.
func (c *PlantConfig) Validate() error {
	if len(c.Products) == 0 {
		return fmt.Errorf("at least one product required")
	}
	products := make(map[int]bool, len(c.Products))
	for _, p := range c.Products {
		if products[p.ID] {
			return fmt.Errorf("duplicate product id %d", p.ID)
		}
		products[p.ID] = true
		if p.Class == "" {
			return fmt.Errorf("product %d: class must not be empty", p.ID)
		}
	}

	groups := make(map[int]bool, len(c.ResourceGroups))
	for _, g := range c.ResourceGroups {
		if groups[g.ID] {
			return fmt.Errorf("duplicate resource group id %d", g.ID)
		}
		groups[g.ID] = true
		if g.Machines < 1 {
			return fmt.Errorf("resource group %q: machines must be >= 1, got %d", g.Name, g.Machines)
		}
		if g.MinWeight > g.MaxWeight {
			return fmt.Errorf("resource group %q: min_weight %v > max_weight %v", g.Name, g.MinWeight, g.MaxWeight)
		}
		if !ValidCycleTimeTypes[g.CycleTime.Type] {
			return fmt.Errorf("resource group %q: unknown cycle_time type %q", g.Name, g.CycleTime.Type)
		}
		for pid, d := range g.Durations {
			if !products[pid] {
				return fmt.Errorf("resource group %q: duration for unknown product %d", g.Name, pid)
			}
			if d < 1 {
				return fmt.Errorf("resource group %q product %d: duration must be >= 1, got %d", g.Name, pid, d)
			}
		}
	}

	classes := make(map[string]bool, len(c.Routings))
	for _, r := range c.Routings {
		if classes[r.Class] {
			return fmt.Errorf("duplicate routing for class %q", r.Class)
		}
		classes[r.Class] = true
	}
	for _, p := range c.Products {
		if !classes[p.Class] {
			return fmt.Errorf("product %q: no routing for class %q", p.Name, p.Class)
		}
	}
	return nil
}

// Build validates c and constructs a Plant from it.
func (c *PlantConfig) Build(cfg EngineConfig) (*Plant, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	p, err := NewPlant(cfg)
	if err != nil {
		return nil, err
	}

	for _, pc := range c.Products {
		prod := &Product{ID: ProductID(pc.ID), Name: pc.Name, Class: pc.Class, Weight: pc.Weight}
		if err := p.AddProduct(prod); err != nil {
			return nil, err
		}
	}

	for _, gc := range c.ResourceGroups {
		g := NewResourceGroup(GroupID(gc.ID), gc.Name, gc.MinWeight, gc.MaxWeight, gc.Parallel)
		pids := make([]int, 0, len(gc.Durations))
		for pid := range gc.Durations {
			pids = append(pids, pid)
		}
		sort.Ints(pids)
		for _, pid := range pids {
			g.SetDuration(ProductID(pid), gc.Durations[pid])
		}
		if gc.CycleTime.Type == "triangular" {
			m, err := NewTriangularDuration(gc.CycleTime.Lower, gc.CycleTime.Upper, p.RNG.ForSubsystem(SubsystemGroup(g.ID)))
			if err != nil {
				return nil, fmt.Errorf("resource group %q: %w", gc.Name, err)
			}
			g.SetDurationModel(m)
		}
		if err := p.AddGroup(g); err != nil {
			return nil, err
		}
		for i := 0; i < gc.Machines; i++ {
			if _, err := p.AddMachine(g.ID, fmt.Sprintf("%s-%d", gc.Name, i+1)); err != nil {
				return nil, err
			}
		}
	}

	for _, rc := range c.Routings {
		for _, sc := range rc.States {
			groups := make([]GroupID, len(sc.Groups))
			for i, id := range sc.Groups {
				groups[i] = GroupID(id)
			}
			next := make([]NextStep, len(sc.Next))
			for i, n := range sc.Next {
				next[i] = NextStep{State: StateID(n.State), Probability: n.Probability}
			}
			if err := p.Graph.AddRoute(rc.Class, StateID(sc.State), groups, next); err != nil {
				return nil, err
			}
		}
		p.Graph.SetInitialState(rc.Class, StateID(rc.InitialState))
		for _, s := range rc.FixedStates {
			p.Graph.MarkFixed(rc.Class, StateID(s))
		}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
