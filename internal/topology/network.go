package topology

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"supply-rounds/internal/model"
)

// LoadNetwork reads every topology table and builds the read-only network.
// Rows come back ordered by id so that load order is deterministic.
func (s *Store) LoadNetwork(ctx context.Context) (*model.Network, error) {
	var t model.Topology
	var err error

	if t.Refineries, err = s.refineries(ctx); err != nil {
		return nil, fmt.Errorf("load refineries: %w", err)
	}
	if t.Tanks, err = s.tanks(ctx); err != nil {
		return nil, fmt.Errorf("load tanks: %w", err)
	}
	if t.Customers, err = s.customers(ctx); err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}
	if t.Connections, err = s.connections(ctx); err != nil {
		return nil, fmt.Errorf("load connections: %w", err)
	}
	if t.InitialOrders, err = s.demands(ctx); err != nil {
		return nil, fmt.Errorf("load demands: %w", err)
	}
	return model.NewNetwork(t)
}

func (s *Store) refineries(ctx context.Context) ([]*model.Refinery, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, capacity, max_output, production,
		overflow_penalty, underflow_penalty, over_output_penalty,
		production_cost, production_co2, initial_stock
		FROM refineries ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Refinery
	for rows.Next() {
		r := &model.Refinery{}
		if err := rows.Scan(&r.ID, &r.Name, &r.Capacity, &r.MaxOutput, &r.Production,
			&r.OverflowPenalty, &r.UnderflowPenalty, &r.OverOutputPenalty,
			&r.ProductionCost, &r.ProductionCO2, &r.Stock); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) tanks(ctx context.Context) ([]*model.Tank, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, capacity, max_output, max_input,
		overflow_penalty, underflow_penalty, over_output_penalty, over_input_penalty,
		initial_stock
		FROM tanks ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Tank
	for rows.Next() {
		t := &model.Tank{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Capacity, &t.MaxOutput, &t.MaxInput,
			&t.OverflowPenalty, &t.UnderflowPenalty, &t.OverOutputPenalty, &t.OverInputPenalty,
			&t.Stock); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) customers(ctx context.Context) ([]*model.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, max_input,
		over_input_penalty, late_delivery_penalty, early_delivery_penalty
		FROM customers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Customer
	for rows.Next() {
		c := &model.Customer{}
		if err := rows.Scan(&c.ID, &c.Name, &c.MaxInput,
			&c.OverInputPenalty, &c.LateDeliveryPenalty, &c.EarlyDeliveryPenalty); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) connections(ctx context.Context) ([]*model.Connection, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, from_id, to_id, distance,
		lead_time_days, connection_type, max_capacity
		FROM connections ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Connection
	for rows.Next() {
		c := &model.Connection{}
		var typ string
		if err := rows.Scan(&c.ID, &c.FromID, &c.ToID, &c.Distance,
			&c.LeadTimeDays, &typ, &c.MaxCapacity); err != nil {
			return nil, err
		}
		c.Type = model.ConnectionType(typ)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) demands(ctx context.Context) ([]model.Order, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT customer_id, quantity, post_day,
		start_delivery_day, end_delivery_day
		FROM demands ORDER BY post_day, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.CustomerID, &o.Amount, &o.PostDay, &o.StartDay, &o.EndDay); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CustomerByID resolves a single customer without loading the whole network.
// A missing customer yields (nil, nil).
func (s *Store) CustomerByID(ctx context.Context, id string) (*model.Customer, error) {
	c := &model.Customer{}
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT id, name, max_input,
		over_input_penalty, late_delivery_penalty, early_delivery_penalty
		FROM customers WHERE id = %s`, s.placeholder(1)), id).Scan(
		&c.ID, &c.Name, &c.MaxInput,
		&c.OverInputPenalty, &c.LateDeliveryPenalty, &c.EarlyDeliveryPenalty)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// LoadDir imports the CSV tables in dir into a throwaway in-memory store and
// returns the resulting network.
func LoadDir(ctx context.Context, dir string, sep rune) (*model.Network, error) {
	s, err := OpenMemory(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	if _, err := s.Import(ctx, dir, sep); err != nil {
		return nil, err
	}
	return s.LoadNetwork(ctx)
}
