package workload

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plant-sim/plant-sim/sim"
	"github.com/plant-sim/plant-sim/sim/internal/testutil"
)

var _ Catalog = (*sim.Plant)(nil)

// fakeCatalog serves products with fixed lead times.
type fakeCatalog struct {
	products map[sim.ProductID]*sim.Product
	lead     map[sim.ProductID]int64
}

func newFakeCatalog() *fakeCatalog {
	c := &fakeCatalog{
		products: make(map[sim.ProductID]*sim.Product),
		lead:     make(map[sim.ProductID]int64),
	}
	c.add(1, "bracket", 40)
	c.add(2, "housing", 100)
	return c
}

func (c *fakeCatalog) add(id int, name string, lead int64) {
	c.products[sim.ProductID(id)] = &sim.Product{ID: sim.ProductID(id), Name: name, Class: "std", Weight: 1}
	c.lead[sim.ProductID(id)] = lead
}

func (c *fakeCatalog) Product(id sim.ProductID) (*sim.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, sim.ErrUnknownProduct)
	}
	return p, nil
}

func (c *fakeCatalog) NominalLeadTime(p *sim.Product) int64 {
	return c.lead[p.ID]
}

func mixedSpec() *Spec {
	return &Spec{
		Rate:         0.05,
		Lines:        LinesSpec{Min: 1, Max: 3},
		DueDateSlack: 1.5,
		Customers: []CustomerSpec{
			{Name: "acme", Weight: 2, ProductMix: []MixSpec{{Product: 1, Weight: 3}, {Product: 2, Weight: 1}}},
			{Name: "globex", Weight: 1, ProductMix: []MixSpec{{Product: 2, Weight: 1}}},
		},
	}
}

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

func TestGenerate_SameSeed_SameArrivals(t *testing.T) {
	// GIVEN two generations with identical seeds
	a, err := Generate(mixedSpec(), newFakeCatalog(), newRNG(42), 20000)
	require.NoError(t, err)
	b, err := Generate(mixedSpec(), newFakeCatalog(), newRNG(42), 20000)
	require.NoError(t, err)

	// THEN they are identical
	require.Equal(t, len(a), len(b))
	require.NotEmpty(t, a)
	for i := range a {
		assert.Equal(t, a[i].Time, b[i].Time, "arrival %d time", i)
		assert.Equal(t, a[i].Order.DueDate, b[i].Order.DueDate, "arrival %d due date", i)
		assert.Equal(t, a[i].Order.Customer, b[i].Order.Customer, "arrival %d customer", i)
		require.Equal(t, len(a[i].Order.Lines), len(b[i].Order.Lines))
		for k := range a[i].Order.Lines {
			assert.Equal(t, a[i].Order.Lines[k].ID, b[i].Order.Lines[k].ID)
		}
	}
}

func TestGenerate_Invariants(t *testing.T) {
	// GIVEN a mixed workload over 20000 ticks
	catalog := newFakeCatalog()
	arrivals, err := Generate(mixedSpec(), catalog, newRNG(3), 20000)
	require.NoError(t, err)
	require.NotEmpty(t, arrivals)

	prev := int64(0)
	for i, a := range arrivals {
		co := a.Order
		// THEN arrivals are strictly increasing and inside the horizon
		assert.Greater(t, a.Time, prev, "arrival %d", i)
		assert.Less(t, a.Time, int64(20000))
		prev = a.Time

		// THEN ids are sequential and the arrival time is stamped
		assert.Equal(t, sim.CustomerOrderID(i), co.ID)
		assert.Equal(t, a.Time, co.ArrivalTime)

		// THEN line count respects the bounds
		assert.GreaterOrEqual(t, len(co.Lines), 1)
		assert.LessOrEqual(t, len(co.Lines), 3)

		// THEN due date = arrival + ceil(slack * longest lead time)
		var lead int64
		for _, p := range co.Lines {
			lead = max(lead, catalog.NominalLeadTime(p))
		}
		assert.Equal(t, a.Time+int64(math.Ceil(1.5*float64(lead))), co.DueDate, "arrival %d", i)

		// THEN globex only orders housings
		if co.Customer == "globex" {
			for _, p := range co.Lines {
				assert.Equal(t, "housing", p.Name)
			}
		}
	}
}

func TestGenerate_NumOrdersCap(t *testing.T) {
	spec := mixedSpec()
	spec.NumOrders = 25

	arrivals, err := Generate(spec, newFakeCatalog(), newRNG(1), 0)

	require.NoError(t, err)
	assert.Len(t, arrivals, 25)
}

func TestGenerate_SpecHorizonOverridesCaller(t *testing.T) {
	spec := mixedSpec()
	spec.Horizon = 500

	arrivals, err := Generate(spec, newFakeCatalog(), newRNG(1), 1_000_000)

	require.NoError(t, err)
	for _, a := range arrivals {
		assert.Less(t, a.Time, int64(500))
	}
}

func TestGenerate_NoHorizonNoCap_ReturnsError(t *testing.T) {
	_, err := Generate(mixedSpec(), newFakeCatalog(), newRNG(1), 0)
	assert.Error(t, err)
}

func TestGenerate_UnknownProduct_ReturnsError(t *testing.T) {
	spec := mixedSpec()
	spec.Customers[0].ProductMix[0].Product = 99

	_, err := Generate(spec, newFakeCatalog(), newRNG(1), 1000)

	assert.ErrorIs(t, err, sim.ErrUnknownProduct)
}

func TestGenerate_InvalidSpec_ReturnsError(t *testing.T) {
	spec := mixedSpec()
	spec.Rate = -1

	_, err := Generate(spec, newFakeCatalog(), newRNG(1), 1000)

	assert.Error(t, err)
}

func TestGenerate_ProductMix_MatchesWeights(t *testing.T) {
	// GIVEN one customer with a 3:1 mix and one line per order
	spec := &Spec{
		Rate:         1,
		NumOrders:    4000,
		Lines:        LinesSpec{Min: 1, Max: 1},
		DueDateSlack: 1,
		Customers: []CustomerSpec{
			{Name: "acme", Weight: 1, ProductMix: []MixSpec{{Product: 1, Weight: 3}, {Product: 2, Weight: 1}}},
		},
	}

	// WHEN 4000 orders are generated
	arrivals, err := Generate(spec, newFakeCatalog(), newRNG(11), 0)
	require.NoError(t, err)

	// THEN product frequencies fit the mix
	observed := make([]float64, 2)
	for _, a := range arrivals {
		observed[a.Order.Lines[0].ID-1]++
	}
	testutil.AssertChiSquareFit(t, "product mix", observed, []float64{0.75, 0.25}, 0.001)
}

func TestGenerate_BackgroundFraction(t *testing.T) {
	// GIVEN 30% background traffic
	spec := mixedSpec()
	spec.NumOrders = 5000
	spec.BackgroundFraction = 0.3

	arrivals, err := Generate(spec, newFakeCatalog(), newRNG(5), 0)
	require.NoError(t, err)

	background := 0
	for _, a := range arrivals {
		if a.Order.Background {
			background++
		}
	}
	// THEN roughly 30% are flagged
	testutil.AssertFloat64Equal(t, "background share", 0.3, float64(background)/float64(len(arrivals)), 0.1)
}

func TestGenerate_ZeroBackgroundFraction_NoneFlagged(t *testing.T) {
	spec := mixedSpec()
	spec.NumOrders = 500

	arrivals, err := Generate(spec, newFakeCatalog(), newRNG(5), 0)
	require.NoError(t, err)

	for _, a := range arrivals {
		assert.False(t, a.Order.Background)
	}
}
