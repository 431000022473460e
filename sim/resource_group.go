package sim

import (
	"fmt"
	"sort"
)

// ResourceGroup is a named pool of interchangeable resources sharing a
// per-product processing-duration table and a weight-eligibility range.
// A routing-graph state resolves to one or more groups.
type ResourceGroup struct {
	ID        GroupID
	Name      string
	MinWeight float64
	MaxWeight float64
	// Parallel groups process every queued order at once; their capacity is not queue-bound.
	Parallel bool

	durations map[ProductID]int64
	model     DurationModel
	resources []*Resource
}

// NewResourceGroup creates a group with a fixed-duration model and no resources.
func NewResourceGroup(id GroupID, name string, minWeight, maxWeight float64, parallel bool) *ResourceGroup {
	return &ResourceGroup{
		ID:        id,
		Name:      name,
		MinWeight: minWeight,
		MaxWeight: maxWeight,
		Parallel:  parallel,
		durations: make(map[ProductID]int64),
		model:     FixedDuration{},
	}
}

// SetDuration sets the nominal processing duration of product p. Panics if d < 1.
func (g *ResourceGroup) SetDuration(p ProductID, d int64) {
	if d < 1 {
		panic(fmt.Sprintf("SetDuration: group %q product %d: duration must be >= 1, got %d", g.Name, p, d))
	}
	g.durations[p] = d
}

// SetDurationModel replaces the cycle-time model. Panics on nil.
func (g *ResourceGroup) SetDurationModel(m DurationModel) {
	if m == nil {
		panic("SetDurationModel: model must not be nil")
	}
	g.model = m
}

// Duration returns the nominal processing duration of p and whether the group processes p.
func (g *ResourceGroup) Duration(p *Product) (int64, bool) {
	d, ok := g.durations[p.ID]
	return d, ok
}

// Sample returns the actual duration of one machining attempt for p.
func (g *ResourceGroup) Sample(p *Product) int64 {
	return g.model.Sample(g.durations[p.ID])
}

// Eligible reports whether p's weight lies in [MinWeight, MaxWeight] and the group has a duration for p.
func (g *ResourceGroup) Eligible(p *Product) bool {
	if p.Weight < g.MinWeight || p.Weight > g.MaxWeight {
		return false
	}
	_, ok := g.durations[p.ID]
	return ok
}

// AddResource appends r to the group. Resources are added at configuration time only.
func (g *ResourceGroup) AddResource(r *Resource) {
	g.resources = append(g.resources, r)
}

// Resources returns the group's resources in insertion order.
// The returned slice MUST NOT be modified.
func (g *ResourceGroup) Resources() []*Resource {
	return g.resources
}

// GroupRegistry resolves group ids used by the routing graph.
type GroupRegistry struct {
	byID map[GroupID]*ResourceGroup
}

// NewGroupRegistry creates an empty registry.
func NewGroupRegistry() *GroupRegistry {
	return &GroupRegistry{byID: make(map[GroupID]*ResourceGroup)}
}

// Add registers g. Returns an error on a duplicate id.
func (r *GroupRegistry) Add(g *ResourceGroup) error {
	if _, exists := r.byID[g.ID]; exists {
		return fmt.Errorf("resource group %d already exists", g.ID)
	}
	r.byID[g.ID] = g
	return nil
}

// Get looks up a group by id.
func (r *GroupRegistry) Get(id GroupID) (*ResourceGroup, bool) {
	g, ok := r.byID[id]
	return g, ok
}

// All returns every group ordered by id.
func (r *GroupRegistry) All() []*ResourceGroup {
	groups := make([]*ResourceGroup, 0, len(r.byID))
	for _, g := range r.byID {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups
}

// Eligible returns the groups listed by graph for (p.Class, state) that accept p,
// in routing order. Unknown group ids are skipped; RoutingGraph.Validate reports them.
func (r *GroupRegistry) Eligible(graph *RoutingGraph, p *Product, state StateID) []*ResourceGroup {
	ids := graph.EligibleGroups(p.Class, state)
	groups := make([]*ResourceGroup, 0, len(ids))
	for _, id := range ids {
		g, ok := r.byID[id]
		if !ok || !g.Eligible(p) {
			continue
		}
		groups = append(groups, g)
	}
	return groups
}

// EligibleResources aggregates the resources of every eligible group for (p, state).
func (r *GroupRegistry) EligibleResources(graph *RoutingGraph, p *Product, state StateID) []*Resource {
	var resources []*Resource
	for _, g := range r.Eligible(graph, p, state) {
		resources = append(resources, g.resources...)
	}
	return resources
}
