package strategy

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"supply-rounds/internal/model"
	"supply-rounds/internal/schedule"
)

// Allocator reserves connection capacity on future days so that customer
// orders land inside their delivery window.
type Allocator struct {
	Params Params

	// NewID mints movement ids. Defaults to random UUIDs.
	NewID func() string
}

func NewAllocator(p Params) *Allocator {
	return &Allocator{Params: p, NewID: uuid.NewString}
}

// Reservation is a movement placed into the schedule by the allocator.
type Reservation struct {
	Day        int // submission day (schedule bucket)
	ArrivalDay int
	CustomerID string
	Movement   model.Movement
}

// Allocation summarizes one allocator run.
type Allocation struct {
	Reservations []Reservation
	// Remaining holds every order that still needs material after the run,
	// with Amount reduced by whatever was reserved for it.
	Remaining []model.Order
	Fulfilled int
}

// SortOrders orders by deadline ascending, then earliest delivery day.
func SortOrders(orders []model.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].EndDay != orders[j].EndDay {
			return orders[i].EndDay < orders[j].EndDay
		}
		return orders[i].StartDay < orders[j].StartDay
	})
}

// Allocate runs the greedy reservation pass for ctx.Day. Orders are copied;
// the caller's slice is not reordered or modified. Reservations are written
// to avail and sched. Days at or past the schedule horizon are never
// reserved since no round would submit them.
func (a *Allocator) Allocate(ctx Context, orders []model.Order, avail *schedule.Availability, sched *schedule.Schedule) (Allocation, error) {
	var res Allocation

	backlog := append([]model.Order(nil), orders...)
	SortOrders(backlog)

	newID := a.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	lastDay := sched.Horizon() - 1

	for i := range backlog {
		o := &backlog[i]
		if o.Amount <= 0 {
			continue
		}
		customer := o.Customer
		if customer == nil {
			c, ok := ctx.Network.Customer(o.CustomerID)
			if !ok {
				res.Remaining = append(res.Remaining, *o)
				continue
			}
			customer = c
			o.Customer = c
		}

		candidates := candidateConnections(ctx.Network, customer)
		deadline := o.EndDay
		if deadline > lastDay {
			deadline = lastDay
		}

	days:
		for day := ctx.Day + 1; day <= deadline; day++ {
			for _, c := range candidates {
				if !avail.IsAvailable(c.ID, day) {
					continue
				}
				arrival := day + c.LeadTimeDays
				if arrival < o.StartDay || arrival > o.EndDay+a.Params.GraceDays {
					continue
				}
				send := minInt64(minInt64(c.MaxCapacity, customer.MaxInput), o.Amount)
				if send <= 0 {
					continue
				}

				m := model.Movement{ID: newID(), Amount: send, ConnectionID: c.ID}
				if err := sched.Append(day, m); err != nil {
					return res, fmt.Errorf("order for %s: %w", o.CustomerID, err)
				}
				avail.Reserve(c.ID, arrival+1)
				o.Amount -= send
				res.Reservations = append(res.Reservations, Reservation{
					Day:        day,
					ArrivalDay: arrival,
					CustomerID: customer.ID,
					Movement:   m,
				})
				if o.Amount <= 0 {
					break days
				}
			}
		}

		if o.Amount <= 0 {
			res.Fulfilled++
			continue
		}
		res.Remaining = append(res.Remaining, *o)
	}
	return res, nil
}

// candidateConnections returns the connections into the customer, preferring
// larger effective capacity and, among equals, longer lead time.
func candidateConnections(net *model.Network, customer *model.Customer) []*model.Connection {
	in := net.ConnectionsInto(customer.ID)
	out := make([]*model.Connection, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		ci := minInt64(out[i].MaxCapacity, customer.MaxInput)
		cj := minInt64(out[j].MaxCapacity, customer.MaxInput)
		if ci != cj {
			return ci > cj
		}
		return out[i].LeadTimeDays > out[j].LeadTimeDays
	})
	return out
}
