package rounds

import (
	"context"
	"fmt"
	"time"

	"supply-rounds/internal/data"
	"supply-rounds/internal/events"
	"supply-rounds/internal/logging"
	"supply-rounds/internal/metrics"
	"supply-rounds/internal/model"
	"supply-rounds/internal/strategy"
)

// plan builds the payload for day. Day 0 carries only refinery flows. Later
// days also run the allocator over the arbiter's latest backlog and then add
// the movements parked in the bucket for day+1.
//
// The day+1 lookup means a movement reserved for submission day d is sent one
// round early, while bucket d itself is never read.
func (s *Session) plan(ctx context.Context, day int) (model.RoundRequest, LedgerRow, error) {
	sctx := strategy.Context{Day: day, Network: s.net}
	row := LedgerRow{Day: day}

	flows := strategy.Flows(sctx, s.alloc.Params)
	movements := make([]model.MovementEntry, 0, len(flows))
	for _, f := range flows {
		movements = append(movements, model.MovementEntry{ConnectionID: f.ConnectionID, Amount: f.Amount})
		row.AmountSubmitted += f.Amount
	}
	row.FlowMovements = len(flows)

	if day >= 1 {
		orders := s.resolveBacklog(ctx, day, &row)
		alloc, err := s.alloc.Allocate(sctx, orders, s.avail, s.sched)
		if err != nil {
			return model.RoundRequest{}, row, fmt.Errorf("allocate day %d: %w", day, err)
		}
		row.Reservations = len(alloc.Reservations)
		row.OrdersFulfilled = alloc.Fulfilled
		row.OrdersOpen = len(alloc.Remaining)

		for _, m := range s.sched.Bucket(day + 1) {
			movements = append(movements, model.MovementEntry{ConnectionID: m.ConnectionID, Amount: m.Amount})
			row.AmountSubmitted += m.Amount
			row.ScheduledMovements++
		}
	}

	return model.RoundRequest{Day: day, Movements: movements}, row, nil
}

// resolveBacklog attaches network customers to the current backlog. Orders
// for unknown customers are kept so the allocator reports them as remaining.
func (s *Session) resolveBacklog(ctx context.Context, day int, row *LedgerRow) []model.Order {
	orders := make([]model.Order, len(s.backlog))
	copy(orders, s.backlog)
	for i := range orders {
		c, ok := s.net.Customer(orders[i].CustomerID)
		if !ok {
			row.OrdersUnresolved++
			s.log.Debug(ctx, "order for unknown customer",
				logging.Int("day", day),
				logging.String("customer_id", orders[i].CustomerID),
				logging.Int64("amount", orders[i].Amount))
			continue
		}
		orders[i].Customer = c
	}
	row.OrdersReceived = len(orders)
	return orders
}

// absorb folds the arbiter response into the session: it replaces the backlog
// and running totals, records the ledger row and publishes the round event.
func (s *Session) absorb(ctx context.Context, req model.RoundRequest, resp *model.RoundResponse, row *LedgerRow) {
	if resp == nil {
		resp = &model.RoundResponse{Round: req.Day}
	}

	s.backlog = s.backlog[:0]
	for _, d := range resp.Demand {
		s.backlog = append(s.backlog, d.ToOrder())
	}
	s.totals = resp.TotalKPIs

	row.Penalties = len(resp.Penalties)
	row.DeltaCost = resp.DeltaKPIs.Cost
	row.DeltaCO2 = resp.DeltaKPIs.CO2
	row.TotalCost = resp.TotalKPIs.Cost
	row.TotalCO2 = resp.TotalKPIs.CO2
	row.NewOrders = len(resp.Demand)
	s.ledger = append(s.ledger, *row)
	s.transcript.Rounds = append(s.transcript.Rounds, data.TranscriptRound{Request: req, Response: resp})

	metrics.MovementsSubmitted.WithLabelValues(string(model.SourceFlow)).Add(float64(row.FlowMovements))
	metrics.MovementsSubmitted.WithLabelValues(string(model.SourceScheduled)).Add(float64(row.ScheduledMovements))
	metrics.OrdersUnresolved.Add(float64(row.OrdersUnresolved))
	metrics.SessionCost.Set(s.totals.Cost)
	metrics.SessionImpact.Set(s.totals.CO2)

	for _, p := range resp.Penalties {
		s.log.Warn(ctx, "penalty",
			logging.Int("day", p.Day),
			logging.String("type", p.Type),
			logging.String("message", p.Message),
			logging.Float("cost", p.Cost),
			logging.Float("co2", p.CO2))
	}
	s.log.Info(ctx, "round submitted",
		logging.String("session_id", s.id),
		logging.Int("day", req.Day),
		logging.Int("flow_movements", row.FlowMovements),
		logging.Int("scheduled_movements", row.ScheduledMovements),
		logging.Int("backlog", len(s.backlog)),
		logging.Float("delta_cost", row.DeltaCost),
		logging.Float("delta_co2", row.DeltaCO2),
		logging.Float("total_cost", row.TotalCost),
		logging.Float("total_co2", row.TotalCO2))

	s.broker.Publish(s.id, events.RoundEvent{
		Type:      events.TypeRoundPlayed,
		SessionID: s.id,
		Day:       req.Day,
		Movements: len(req.Movements),
		Penalties: len(resp.Penalties),
		Delta:     resp.DeltaKPIs,
		Total:     resp.TotalKPIs,
		At:        time.Now().UTC(),
	})
}

func recordSubmit(d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RoundsSubmitted.WithLabelValues(status).Inc()
	metrics.RoundSubmitDuration.Observe(d.Seconds())
}
