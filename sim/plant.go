package sim

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/plant-sim/plant-sim/sim/trace"
)

// Plant is the run context of one simulation: the plant definition, the
// dispatch engine wired to a Simulator clock, and the collected outcomes.
//
// Build it with NewPlant, add products, groups, machines and routes, then
// Submit customer orders and Run.
type Plant struct {
	Config EngineConfig

	Sim    *Simulator
	RNG    *PartitionedRNG
	Graph  *RoutingGraph
	Groups *GroupRegistry
	Store  *OrderStore

	Estimator  *FeasibilityEstimator
	Dispatcher *Dispatcher
	Advancer   *StageAdvancer

	Metrics *Metrics
	Trace   *trace.SimulationTrace

	products    map[ProductID]*Product
	resources   []*Resource
	nextOrderID OrderID
}

// NewPlant creates an empty plant. Returns an error for invalid cfg.
func NewPlant(cfg EngineConfig) (*Plant, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.TraceLevel == "" {
		cfg.TraceLevel = string(trace.TraceLevelNone)
	}

	key := NewSimulationKey(cfg.Seed)
	p := &Plant{
		Config:   cfg,
		Sim:      NewSimulator(cfg.Horizon),
		RNG:      NewPartitionedRNG(key),
		Graph:    NewRoutingGraph(),
		Groups:   NewGroupRegistry(),
		Store:    NewOrderStore(),
		Metrics:  NewMetrics(key.RunID()),
		products: make(map[ProductID]*Product),
	}
	p.Trace = trace.NewSimulationTrace(trace.TraceConfig{
		Level: trace.TraceLevel(cfg.TraceLevel),
		RunID: key.RunID().String(),
	})
	p.Estimator = NewFeasibilityEstimator(p.Graph, p.Groups, cfg.LookaheadDepth)
	p.Dispatcher = NewDispatcher(p.Estimator, p.Sim, p.Trace)
	p.Advancer = NewStageAdvancer(p.Graph, p.Groups, p.Estimator, p.Dispatcher, p.Store,
		p.RNG.ForSubsystem(SubsystemRouting), p.Sim, p)
	return p, nil
}

// AddProduct registers a product. Returns an error on a duplicate id.
func (p *Plant) AddProduct(prod *Product) error {
	if _, exists := p.products[prod.ID]; exists {
		return fmt.Errorf("product %d already exists", prod.ID)
	}
	p.products[prod.ID] = prod
	return nil
}

// Product looks up a product by id.
func (p *Plant) Product(id ProductID) (*Product, error) {
	prod, ok := p.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, ErrUnknownProduct)
	}
	return prod, nil
}

// Products returns every product ordered by id.
func (p *Plant) Products() []*Product {
	out := make([]*Product, 0, len(p.products))
	for _, prod := range p.products {
		out = append(out, prod)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddGroup registers g.
func (p *Plant) AddGroup(g *ResourceGroup) error {
	return p.Groups.Add(g)
}

// AddMachine creates a resource in group id, clocked by the plant's simulator.
func (p *Plant) AddMachine(id GroupID, name string) (*Resource, error) {
	g, ok := p.Groups.Get(id)
	if !ok {
		return nil, fmt.Errorf("machine %q: group %d: %w", name, id, ErrUnknownGroup)
	}
	r := NewResource(ResourceID(len(p.resources)), name, g, p.Sim)
	r.SetCompletionHandler(p.Advancer)
	p.resources = append(p.resources, r)
	return r, nil
}

// Resources returns every machine in creation order.
func (p *Plant) Resources() []*Resource {
	return p.resources
}

// Validate checks the routing graph against the registered groups and every
// product's class against the graph.
func (p *Plant) Validate() error {
	if err := p.Graph.Validate(p.Groups); err != nil {
		return err
	}
	for _, prod := range p.Products() {
		if _, err := p.Graph.InitialState(prod.Class); err != nil {
			return fmt.Errorf("product %q: %w", prod.Name, err)
		}
	}
	return nil
}

// NominalLeadTime returns the longest nominal time of prod's always-traversed
// (fixed) states. Workload generators size due dates from it.
func (p *Plant) NominalLeadTime(prod *Product) int64 {
	var total int64
	for _, s := range p.Graph.FixedStates(prod.Class) {
		total += p.Estimator.MaxDurationForProduct(prod, s)
	}
	return total
}

// Submit schedules the arrival of co at time t.
func (p *Plant) Submit(t int64, co *CustomerOrder) {
	co.ArrivalTime = t
	p.Sim.Schedule(NewArrivalEvent(t, co, p))
}

// Plan implements ArrivalHandler: it creates one production order per line
// at the product's initial state and dispatches each of them.
func (p *Plant) Plan(co *CustomerOrder) error {
	p.Store.AddCustomerOrder(co)

	orders := make([]*ProductionOrder, 0, len(co.Lines))
	for _, prod := range co.Lines {
		state, err := p.Graph.InitialState(prod.Class)
		if err != nil {
			return fmt.Errorf("customer order %d: %w", co.ID, err)
		}
		o := NewProductionOrder(p.nextOrderID, prod, state, co.DueDate, co.ID)
		o.Background = co.Background
		p.nextOrderID++
		p.Store.AddOrder(o)
		orders = append(orders, o)
	}
	for _, o := range orders {
		if err := p.Advancer.Admit(o); err != nil {
			return err
		}
	}
	return nil
}

// FinalizeOrder implements Finalizer.
func (p *Plant) FinalizeOrder(o *ProductionOrder) {
	p.Metrics.RecordOrder(o)
}

// FinalizeCustomerOrder implements Finalizer.
func (p *Plant) FinalizeCustomerOrder(co *CustomerOrder) {
	p.Metrics.RecordCustomerOrder(co)
	logrus.Infof(">> customer order %d finished at %d (lateness %d)", co.ID, co.FinishedAt, co.Lateness())
}

// Run drives the simulator and collects metrics. Orders still in production
// when the run ends are reported, never dropped silently.
func (p *Plant) Run() error {
	logrus.Infof("Starting run %s (seed %d, lookahead %d)", p.Metrics.RunID, p.Config.Seed, p.Config.LookaheadDepth)
	err := p.Sim.Run()

	p.Metrics.CollectDispatch(p.Dispatcher, p.Estimator)
	p.Metrics.CollectResources(p.Groups, p.Sim.Now())
	p.Metrics.Unfinished = p.Store.InProductionCount()
	if n := p.Metrics.Unfinished; n > 0 {
		logrus.Warnf("%d orders still in production at %d: %v", n, p.Sim.Now(), p.Store.InProductionIDs())
	}
	return err
}
