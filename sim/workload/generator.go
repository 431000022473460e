package workload

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/plant-sim/plant-sim/sim"
)

// Catalog resolves product ids and nominal lead times. *sim.Plant satisfies it.
type Catalog interface {
	Product(id sim.ProductID) (*sim.Product, error)
	NominalLeadTime(p *sim.Product) int64
}

// Arrival is one generated customer order and the tick it arrives at.
type Arrival struct {
	Time  int64
	Order *sim.CustomerOrder
}

// customerSampler draws products for one customer.
type customerSampler struct {
	spec     *CustomerSpec
	products []*sim.Product
	mix      distuv.Categorical
}

// Generate produces customer-order arrivals from spec until the horizon or
// NumOrders is reached, whichever comes first. The spec's own horizon, when
// set, overrides horizon. rng is the workload subsystem RNG of the run.
//
// Every order gets Lines.Min..Lines.Max lines drawn from the customer's
// product mix, and a due date of arrival + ceil(DueDateSlack * longest
// nominal lead time over its lines).
func Generate(spec *Spec, catalog Catalog, rng *rand.Rand, horizon int64) ([]Arrival, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workload spec: %w", err)
	}
	if spec.Horizon > 0 {
		horizon = spec.Horizon
	}
	if horizon <= 0 && spec.NumOrders == 0 {
		return nil, fmt.Errorf("workload needs a horizon or num_orders")
	}
	if horizon <= 0 {
		horizon = math.MaxInt64
	}

	customers := make([]customerSampler, len(spec.Customers))
	customerWeights := make([]float64, len(spec.Customers))
	for i := range spec.Customers {
		c := &spec.Customers[i]
		customerWeights[i] = c.Weight
		weights := make([]float64, len(c.ProductMix))
		products := make([]*sim.Product, len(c.ProductMix))
		for j, m := range c.ProductMix {
			p, err := catalog.Product(sim.ProductID(m.Product))
			if err != nil {
				return nil, fmt.Errorf("customer %q: %w", c.Name, err)
			}
			products[j] = p
			weights[j] = m.Weight
		}
		customers[i] = customerSampler{spec: c, products: products, mix: distuv.NewCategorical(weights, rng)}
	}
	pickCustomer := distuv.NewCategorical(customerWeights, rng)
	arrivals := NewArrivalSampler(spec.Arrival, spec.Rate, rng)

	var out []Arrival
	t := int64(0)
	for spec.NumOrders == 0 || len(out) < spec.NumOrders {
		t += arrivals.SampleIAT()
		if t >= horizon {
			break
		}
		c := &customers[int(pickCustomer.Rand())]

		n := spec.Lines.Min
		if spec.Lines.Max > spec.Lines.Min {
			n += rng.IntN(spec.Lines.Max - spec.Lines.Min + 1)
		}
		lines := make([]*sim.Product, n)
		var lead int64
		for k := range lines {
			p := c.products[int(c.mix.Rand())]
			lines[k] = p
			lead = max(lead, catalog.NominalLeadTime(p))
		}

		co := &sim.CustomerOrder{
			ID:          sim.CustomerOrderID(len(out)),
			Customer:    c.spec.Name,
			ArrivalTime: t,
			DueDate:     t + int64(math.Ceil(spec.DueDateSlack*float64(lead))),
			Lines:       lines,
			Background:  spec.BackgroundFraction > 0 && rng.Float64() < spec.BackgroundFraction,
		}
		out = append(out, Arrival{Time: t, Order: co})
	}
	return out, nil
}
