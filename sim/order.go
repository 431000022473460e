// Defines the ProductionOrder and CustomerOrder structs and the id-indexed
// OrderStore that tracks them during a run.

package sim

import (
	"fmt"
	"sort"
)

// ProductID identifies a Product.
type ProductID int

// Product is an immutable product definition.
// Class selects the product's RoutingGraph entry; Weight filters eligible resource groups.
type Product struct {
	ID     ProductID
	Name   string
	Class  string
	Weight float64
}

// OrderID identifies a ProductionOrder within a run.
type OrderID int

// CustomerOrderID identifies a CustomerOrder within a run.
type CustomerOrderID int

// OrderStatus represents the lifecycle state of a production order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"   // created, not yet placed in a queue
	StatusQueued    OrderStatus = "queued"    // waiting in a resource queue
	StatusMachining OrderStatus = "machining" // being processed on a resource
	StatusFinished  OrderStatus = "finished"  // reached the terminal routing state
)

// ProcessStep is one completed stage of an order's route.
type ProcessStep struct {
	State      StateID
	ResourceID ResourceID
	Resource   string
	Start      int64
	End        int64
}

// ProductionOrder is one unit of work for one product through the routing graph.
type ProductionOrder struct {
	ID      OrderID
	Product *Product
	State   StateID
	Status  OrderStatus

	DueDate           int64 // may be extended as the order enters optional stages
	PlannedCompletion int64 // projected end of the current stage, re-derived on every queue change
	ProductionStart   int64 // set when the first stage starts
	ProductionEnd     int64 // set when the terminal state is reached
	Started           bool  // true once the first stage has started
	StageStart        int64 // start of the stage currently in machining

	CustomerOrder CustomerOrderID
	Background    bool // counts against capacity but is not billed

	// History lists completed stages in order.
	History []ProcessStep

	// Resource is the resource currently holding the order (queued or machining).
	// Nil while pending or after finishing.
	Resource *Resource
}

// NewProductionOrder creates a pending order for p starting at state.
func NewProductionOrder(id OrderID, p *Product, state StateID, dueDate int64, parent CustomerOrderID) *ProductionOrder {
	if p == nil {
		panic("NewProductionOrder: product must not be nil")
	}
	return &ProductionOrder{
		ID:            id,
		Product:       p,
		State:         state,
		Status:        StatusPending,
		DueDate:       dueDate,
		CustomerOrder: parent,
	}
}

// Lateness returns how far the order is (or is planned to be) past its due date.
// Negative values mean the order is early.
func (o *ProductionOrder) Lateness() int64 {
	if o.Status == StatusFinished {
		return o.ProductionEnd - o.DueDate
	}
	return o.PlannedCompletion - o.DueDate
}

// LeadTime returns production end minus production start for finished orders, else 0.
func (o *ProductionOrder) LeadTime() int64 {
	if o.Status != StatusFinished {
		return 0
	}
	return o.ProductionEnd - o.ProductionStart
}

func (o *ProductionOrder) String() string {
	return fmt.Sprintf("ProductionOrder: (ID: %d, Product: %s, State: %d, Status: %s, Due: %d, Planned: %d)",
		o.ID, o.Product.Name, o.State, o.Status, o.DueDate, o.PlannedCompletion)
}

// CustomerOrder aggregates production orders under one negotiated due date.
type CustomerOrder struct {
	ID          CustomerOrderID
	Customer    string
	ArrivalTime int64
	DueDate     int64
	Lines       []*Product // one production order per line
	Background  bool

	Orders     []OrderID // filled when the order is planned
	Finished   bool
	FinishedAt int64
}

// Lateness returns FinishedAt - DueDate for finished orders, else 0.
func (co *CustomerOrder) Lateness() int64 {
	if !co.Finished {
		return 0
	}
	return co.FinishedAt - co.DueDate
}

// OrderStore is the id-indexed registry of orders for one run.
// Resource queues own ordering; the store and CustomerOrders only hold ids.
type OrderStore struct {
	orders       map[OrderID]*ProductionOrder
	customers    map[CustomerOrderID]*CustomerOrder
	inProduction map[OrderID]struct{}
}

// NewOrderStore creates an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:       make(map[OrderID]*ProductionOrder),
		customers:    make(map[CustomerOrderID]*CustomerOrder),
		inProduction: make(map[OrderID]struct{}),
	}
}

// AddCustomerOrder registers co. Panics on a duplicate id.
func (s *OrderStore) AddCustomerOrder(co *CustomerOrder) {
	if _, exists := s.customers[co.ID]; exists {
		panic(fmt.Sprintf("AddCustomerOrder: duplicate id %d", co.ID))
	}
	s.customers[co.ID] = co
}

// AddOrder registers o, marks it in production, and links it to its parent.
// Panics on a duplicate id.
func (s *OrderStore) AddOrder(o *ProductionOrder) {
	if _, exists := s.orders[o.ID]; exists {
		panic(fmt.Sprintf("AddOrder: duplicate id %d", o.ID))
	}
	s.orders[o.ID] = o
	s.inProduction[o.ID] = struct{}{}
	if co, ok := s.customers[o.CustomerOrder]; ok {
		co.Orders = append(co.Orders, o.ID)
	}
}

// Order looks up a production order by id.
func (s *OrderStore) Order(id OrderID) (*ProductionOrder, bool) {
	o, ok := s.orders[id]
	return o, ok
}

// CustomerOrder looks up a customer order by id.
func (s *OrderStore) CustomerOrder(id CustomerOrderID) (*CustomerOrder, bool) {
	co, ok := s.customers[id]
	return co, ok
}

// Release removes id from the in-production set.
func (s *OrderStore) Release(id OrderID) {
	delete(s.inProduction, id)
}

// InProduction reports whether id is still in production.
func (s *OrderStore) InProduction(id OrderID) bool {
	_, ok := s.inProduction[id]
	return ok
}

// InProductionCount returns the number of orders not yet finished.
func (s *OrderStore) InProductionCount() int {
	return len(s.inProduction)
}

// InProductionIDs returns the ids still in production in ascending order.
func (s *OrderStore) InProductionIDs() []OrderID {
	ids := make([]OrderID, 0, len(s.inProduction))
	for id := range s.inProduction {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of production orders ever registered.
func (s *OrderStore) Len() int {
	return len(s.orders)
}

// AllFinished reports whether every production order of co is finished.
func (s *OrderStore) AllFinished(co *CustomerOrder) bool {
	for _, id := range co.Orders {
		if o, ok := s.orders[id]; !ok || o.Status != StatusFinished {
			return false
		}
	}
	return len(co.Orders) > 0
}
