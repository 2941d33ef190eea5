package topology

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"supply-rounds/internal/model"
)

func writeTables(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func sampleTables() map[string]string {
	return map[string]string{
		"refineries.csv": "id;name;capacity;max_output;production;overflow_penalty;underflow_penalty;over_output_penalty;production_cost;production_co2;initial_stock;node_type\n" +
			"r1;Refinery 1;1000;200;150;1.5;2.5;0.5;0.1;0.2;400;REFINERY\n",
		"tanks.csv": "id;name;capacity;max_output;max_input;overflow_penalty;underflow_penalty;over_output_penalty;over_input_penalty;initial_stock;node_type\n" +
			"t1;Tank 1;500.0;100;80;1;1;1;1;50;STORAGE_TANK\n",
		"customers.csv": "id;name;max_input;over_input_penalty;late_delivery_penalty;early_delivery_penalty;node_type;ignored\n" +
			"c1;Customer 1;60;1;2;3;CUSTOMER;zzz\n" +
			"c2;Customer 2;40;1;2;3;CUSTOMER;zzz\n",
		"connections.csv": "id;from_id;to_id;distance;lead_time_days;connection_type;max_capacity\n" +
			"e1;r1;t1;10;1;PIPELINE;120\n" +
			"e2;t1;c1;30;2;TRUCK;45\n" +
			"e3;t1;c2;15;1;PIPELINE;40\n",
	}
}

func TestLoadDir_BuildsNetwork(t *testing.T) {
	dir := writeTables(t, sampleTables())
	net, err := LoadDir(context.Background(), dir, ';')
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	r, ok := net.Refinery("r1")
	if !ok {
		t.Fatal("r1 missing")
	}
	if r.Capacity != 1000 || r.Stock != 400 || r.Production != 150 || r.ProductionCO2 != 0.2 {
		t.Fatalf("refinery = %+v", r)
	}
	tk, ok := net.Tank("t1")
	if !ok || tk.Capacity != 500 || tk.MaxInput != 80 || tk.Stock != 50 {
		t.Fatalf("tank = %+v", tk)
	}
	c, ok := net.Connection("e2")
	if !ok || c.Type != model.ConnectionTruck || c.LeadTimeDays != 2 || c.MaxCapacity != 45 {
		t.Fatalf("connection = %+v", c)
	}
	s := net.Summary()
	if s.Customers != 2 || s.Connections != 3 || s.Pipelines != 2 || s.InitialOrders != 0 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestImport_OptionalDemands(t *testing.T) {
	files := sampleTables()
	files["demands.csv"] = "id;customer_id;quantity;post_day;start_delivery_day;end_delivery_day\n" +
		"d2;c2;10;1;3;6\n" +
		"d1;c1;25;0;2;5\n"
	dir := writeTables(t, files)

	ctx := context.Background()
	s, err := OpenMemory(ctx)
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	stats, err := s.Import(ctx, dir, ';')
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats["customers"] != 2 || stats["demands"] != 2 {
		t.Fatalf("stats = %v", stats)
	}
	net, err := s.LoadNetwork(ctx)
	if err != nil {
		t.Fatalf("LoadNetwork: %v", err)
	}
	orders := net.InitialOrders()
	if len(orders) != 2 || orders[0].CustomerID != "c1" || orders[0].Amount != 25 || orders[0].EndDay != 5 {
		t.Fatalf("orders = %+v", orders)
	}

	c, err := s.CustomerByID(ctx, "c2")
	if err != nil || c == nil || c.MaxInput != 40 {
		t.Fatalf("CustomerByID(c2) = %+v, %v", c, err)
	}
	c, err = s.CustomerByID(ctx, "nobody")
	if err != nil || c != nil {
		t.Fatalf("CustomerByID(nobody) = %+v, %v", c, err)
	}
}

func TestImport_Errors(t *testing.T) {
	t.Run("missing required table", func(t *testing.T) {
		files := sampleTables()
		delete(files, "tanks.csv")
		if _, err := LoadDir(context.Background(), writeTables(t, files), ';'); err == nil {
			t.Fatal("expected error")
		}
	})
	t.Run("bad number", func(t *testing.T) {
		files := sampleTables()
		files["connections.csv"] = "id;from_id;to_id;distance;lead_time_days;connection_type;max_capacity\ne1;r1;t1;x;1;PIPELINE;10\n"
		if _, err := LoadDir(context.Background(), writeTables(t, files), ';'); err == nil {
			t.Fatal("expected error")
		}
	})
	t.Run("dangling connection", func(t *testing.T) {
		files := sampleTables()
		files["connections.csv"] = "id;from_id;to_id;distance;lead_time_days;connection_type;max_capacity\ne1;r1;ghost;1;1;PIPELINE;10\n"
		if _, err := LoadDir(context.Background(), writeTables(t, files), ';'); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestOpen_SQLiteFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "topo.db")
	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.Import(ctx, writeTables(t, sampleTables()), ';'); err != nil {
		t.Fatalf("Import: %v", err)
	}
	s.Close()

	s, err = Open(ctx, "sqlite://"+path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	net, err := s.LoadNetwork(ctx)
	if err != nil {
		t.Fatalf("LoadNetwork: %v", err)
	}
	if len(net.Customers()) != 2 {
		t.Fatalf("customers = %d", len(net.Customers()))
	}
}

func TestIsPostgresDSN(t *testing.T) {
	if !isPostgresDSN("postgres://u:p@h:5432/db") || !isPostgresDSN("postgresql://h/db") {
		t.Fatal("postgres DSNs not detected")
	}
	if isPostgresDSN("/tmp/topo.db") {
		t.Fatal("file path detected as postgres")
	}
}

func TestParseInt(t *testing.T) {
	ok := map[string]int64{"": 0, "42": 42, "-3": -3, "100.0": 100}
	for in, want := range ok {
		got, err := parseInt(in)
		if err != nil || got != want {
			t.Fatalf("parseInt(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	for _, in := range []string{"100.7", "0.5", "NaN", "Inf", "-Inf", "1e300", "abc"} {
		if got, err := parseInt(in); err == nil {
			t.Fatalf("parseInt(%q) = %d, want error", in, got)
		}
	}
}
