package topology

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"supply-rounds/internal/data"
)

type colKind int

const (
	colText colKind = iota
	colInt
	colFloat
)

type column struct {
	name    string
	kind    colKind
	aliases []string // alternative CSV header names
}

type table struct {
	file     string
	name     string
	optional bool
	columns  []column
}

// tables lists the CSV files in load order. Nodes come before connections.
var tables = []table{
	{file: "refineries.csv", name: "refineries", columns: []column{
		{name: "id"}, {name: "name"},
		{name: "capacity", kind: colInt},
		{name: "max_output", kind: colInt},
		{name: "production", kind: colInt},
		{name: "overflow_penalty", kind: colFloat},
		{name: "underflow_penalty", kind: colFloat},
		{name: "over_output_penalty", kind: colFloat},
		{name: "production_cost", kind: colFloat},
		{name: "production_co2", kind: colFloat},
		{name: "initial_stock", kind: colInt},
		{name: "node_type"},
	}},
	{file: "tanks.csv", name: "tanks", columns: []column{
		{name: "id"}, {name: "name"},
		{name: "capacity", kind: colInt},
		{name: "max_output", kind: colInt},
		{name: "max_input", kind: colInt},
		{name: "overflow_penalty", kind: colFloat},
		{name: "underflow_penalty", kind: colFloat},
		{name: "over_output_penalty", kind: colFloat},
		{name: "over_input_penalty", kind: colFloat},
		{name: "initial_stock", kind: colInt},
		{name: "node_type"},
	}},
	{file: "customers.csv", name: "customers", columns: []column{
		{name: "id"}, {name: "name"},
		{name: "max_input", kind: colInt},
		{name: "over_input_penalty", kind: colFloat},
		{name: "late_delivery_penalty", kind: colFloat},
		{name: "early_delivery_penalty", kind: colFloat},
		{name: "node_type"},
	}},
	{file: "connections.csv", name: "connections", columns: []column{
		{name: "id"},
		{name: "from_id"},
		{name: "to_id"},
		{name: "distance", kind: colInt},
		{name: "lead_time_days", kind: colInt},
		{name: "connection_type"},
		{name: "max_capacity", kind: colInt},
	}},
	{file: "demands.csv", name: "demands", optional: true, columns: []column{
		{name: "id"},
		{name: "customer_id"},
		{name: "quantity", kind: colInt, aliases: []string{"amount"}},
		{name: "post_day", kind: colInt},
		{name: "start_delivery_day", kind: colInt, aliases: []string{"start_day"}},
		{name: "end_delivery_day", kind: colInt, aliases: []string{"end_day"}},
	}},
}

// ImportStats counts rows loaded per table.
type ImportStats map[string]int

// Import bulk-loads the CSV tables found in dir. Unknown columns are ignored,
// missing optional tables are skipped, and empty numeric cells load as 0.
// Everything is written in one transaction.
func (s *Store) Import(ctx context.Context, dir string, sep rune) (ImportStats, error) {
	stats := ImportStats{}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, tbl := range tables {
		rows, err := data.ReadTableFile(filepath.Join(dir, tbl.file), sep)
		if err != nil {
			if tbl.optional && errors.Is(err, data.ErrTableNotFound) {
				continue
			}
			return nil, err
		}

		names := make([]string, len(tbl.columns))
		marks := make([]string, len(tbl.columns))
		for i, c := range tbl.columns {
			names[i] = c.name
			marks[i] = s.placeholder(i + 1)
		}
		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			tbl.name, strings.Join(names, ", "), strings.Join(marks, ", ")))
		if err != nil {
			return nil, fmt.Errorf("prepare %s: %w", tbl.name, err)
		}

		for i, row := range rows {
			args, err := tbl.args(row)
			if err != nil {
				_ = stmt.Close()
				return nil, fmt.Errorf("%s row %d: %w", tbl.file, i+2, err)
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				_ = stmt.Close()
				return nil, fmt.Errorf("%s row %d: %w", tbl.file, i+2, err)
			}
		}
		_ = stmt.Close()
		stats[tbl.name] = len(rows)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (t table) args(row data.Row) ([]any, error) {
	out := make([]any, len(t.columns))
	for i, c := range t.columns {
		raw := lookup(row, c)
		switch c.kind {
		case colInt:
			v, err := parseInt(raw)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", c.name, err)
			}
			out[i] = v
		case colFloat:
			v, err := parseFloat(raw)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", c.name, err)
			}
			out[i] = v
		default:
			out[i] = raw
		}
	}
	if id, _ := out[0].(string); id == "" {
		return nil, errors.New("missing id")
	}
	return out, nil
}

func lookup(row data.Row, c column) string {
	if v, ok := row[c.name]; ok {
		return v
	}
	for _, a := range c.aliases {
		if v, ok := row[a]; ok {
			return v
		}
	}
	return ""
}

// parseInt accepts integers and integral floats such as "100.0". Fractional
// and non-finite values are rejected.
func parseInt(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("out of range: %q", s)
	}
	return int64(f), nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return f, nil
}
