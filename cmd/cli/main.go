package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"supply-rounds/internal/app"
	"supply-rounds/internal/config"
	"supply-rounds/internal/data"
	"supply-rounds/internal/events"
	"supply-rounds/internal/logging"
	"supply-rounds/internal/model"
	"supply-rounds/internal/rounds"
	"supply-rounds/internal/schedule"
	"supply-rounds/internal/strategy"
	"supply-rounds/internal/topology"
)

func main() {
	app := &cli.App{
		Name:  "rounds",
		Usage: "Plan and play supply network sessions against the arbiter",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				EnvVars: []string{"CONFIG_FILE"},
				Usage:   "path to YAML config",
			},
		},
		Commands: []*cli.Command{
			playCmd,
			networkCmd,
			flowsCmd,
			planCmd,
			importCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Println("Error: ", err)
		os.Exit(1)
	}
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if dir := ctx.String("data"); dir != "" {
		cfg.Topology.DataDir = dir
		cfg.Topology.DSN = ""
	}
	return cfg, nil
}

var dataFlag = &cli.StringFlag{
	Name:  "data",
	Usage: "directory holding the topology CSV tables (overrides config)",
}

var playCmd = &cli.Command{
	Name:  "play",
	Usage: "Start a session, play every round, end the session",
	Flags: []cli.Flag{
		dataFlag,
		&cli.StringFlag{Name: "out", Usage: "write the round ledger CSV here"},
		&cli.StringFlag{Name: "transcript", Usage: "write every request/response as JSON here"},
	},
	Action: func(ctx *cli.Context) error {
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		log := app.NewLogger(cfg)
		net, err := app.LoadNetwork(ctx.Context, cfg, log)
		if err != nil {
			return err
		}
		broker, err := app.NewBroker(cfg)
		if err != nil {
			return err
		}
		if rb, ok := broker.(*events.RedisBroker); ok {
			defer rb.Close()
		}

		s := rounds.NewSession(app.NewArbiter(cfg, log), net, app.SessionOptions(cfg, log, broker))
		if _, err := s.Start(ctx.Context); err != nil {
			return err
		}
		_, runErr := s.Run(ctx.Context)

		out := ctx.String("out")
		if out == "" {
			out = cfg.Output.LedgerCSV
		}
		if out != "" {
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			if err := rounds.WriteLedgerCSV(out, s.Ledger()); err != nil {
				return err
			}
			fmt.Printf("Wrote %d rows to %s\n", len(s.Ledger()), out)
		}
		if runErr != nil {
			return abandon(ctx.Context, s, runErr, ctx.String("transcript"))
		}

		final, err := s.End(ctx.Context)
		if err != nil {
			return err
		}
		if path := ctx.String("transcript"); path != "" {
			if err := data.SaveTranscript(s.Transcript(), path); err != nil {
				return err
			}
		}
		st := s.Status()
		fmt.Printf("Session %s: %d rounds, total cost=%.2f co2=%.2f\n",
			st.SessionID, st.Day, final.TotalKPIs.Cost, final.TotalKPIs.CO2)
		return nil
	},
}

// abandon ends a session whose round loop failed and saves what was played.
// Every failure along the way is reported with runErr.
func abandon(ctx context.Context, s *rounds.Session, runErr error, transcriptPath string) error {
	errs := []error{runErr}
	if _, err := s.End(ctx); err != nil {
		errs = append(errs, fmt.Errorf("end session after failure: %w", err))
	}
	if transcriptPath != "" {
		if err := data.SaveTranscript(s.Transcript(), transcriptPath); err != nil {
			errs = append(errs, fmt.Errorf("save transcript: %w", err))
		}
	}
	return errors.Join(errs...)
}

var networkCmd = &cli.Command{
	Name:  "network",
	Usage: "Load the topology and print a summary",
	Flags: []cli.Flag{
		dataFlag,
		&cli.BoolFlag{Name: "nodes", Usage: "also list every node id"},
	},
	Action: func(ctx *cli.Context) error {
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		net, err := app.LoadNetwork(ctx.Context, cfg, logging.Noop())
		if err != nil {
			return err
		}
		s := net.Summary()
		fmt.Printf("refineries=%d tanks=%d customers=%d connections=%d (pipelines=%d) initial_orders=%d\n",
			s.Refineries, s.Tanks, s.Customers, s.Connections, s.Pipelines, s.InitialOrders)
		if ctx.Bool("nodes") {
			for _, id := range net.NodeIDs() {
				node, _ := net.Node(id)
				fmt.Printf("%-40s %-13s fullness=%.3f\n", id, node.Type(), node.Fullness())
			}
		}
		return nil
	},
}

var flowsCmd = &cli.Command{
	Name:  "flows",
	Usage: "Print refinery to tank flows in submission order",
	Flags: []cli.Flag{dataFlag},
	Action: func(ctx *cli.Context) error {
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		net, err := app.LoadNetwork(ctx.Context, cfg, logging.Noop())
		if err != nil {
			return err
		}
		flows := strategy.Flows(strategy.Context{Network: net}, cfg.Game.StrategyParams())
		fmt.Printf("%-4s %-40s %-10s %-10s\n", "rank", "connection", "amount", "priority")
		for i, f := range flows {
			fmt.Printf("%-4d %-40s %-10d %-10.4f\n", i+1, f.ConnectionID, f.Amount, f.Priority)
		}
		return nil
	},
}

var planCmd = &cli.Command{
	Name:  "plan",
	Usage: "Run the order allocator offline against a saved backlog",
	Flags: []cli.Flag{
		dataFlag,
		&cli.StringFlag{Name: "response", Usage: "saved arbiter round response JSON"},
		&cli.StringFlag{Name: "transcript", Usage: "saved session transcript JSON"},
		&cli.IntFlag{Name: "day", Required: true, Usage: "day the allocator runs for"},
	},
	Action: func(ctx *cli.Context) error {
		day := ctx.Int("day")
		if day < 1 {
			return errors.New("day must be >= 1")
		}
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		var resp *model.RoundResponse
		switch {
		case ctx.String("response") != "":
			resp, err = data.LoadRoundResponseJSON(ctx.String("response"))
		case ctx.String("transcript") != "":
			var t *data.Transcript
			t, err = data.LoadTranscript(ctx.String("transcript"))
			if err == nil {
				// the backlog for day d is the answer to day d-1
				var ok bool
				if resp, ok = t.ResponseForDay(day - 1); !ok {
					err = fmt.Errorf("transcript has no response for day %d", day-1)
				}
			}
		default:
			err = errors.New("one of --response or --transcript is required")
		}
		if err != nil {
			return err
		}

		net, err := app.LoadNetwork(ctx.Context, cfg, logging.Noop())
		if err != nil {
			return err
		}
		avail := schedule.NewAvailability()
		for _, c := range net.Connections() {
			avail.Init(c.ID)
		}
		sched := schedule.NewSchedule(cfg.Game.Rounds + 1)
		alloc := strategy.NewAllocator(cfg.Game.StrategyParams())
		res, err := alloc.Allocate(strategy.Context{Day: day, Network: net}, data.OrdersFromResponse(resp), avail, sched)
		if err != nil {
			return err
		}

		fmt.Printf("%-5s %-7s %-40s %-30s %-8s\n", "day", "arrival", "connection", "customer", "amount")
		for _, r := range res.Reservations {
			fmt.Printf("%-5d %-7d %-40s %-30s %-8d\n", r.Day, r.ArrivalDay, r.Movement.ConnectionID, r.CustomerID, r.Movement.Amount)
		}
		fmt.Printf("fulfilled=%d remaining=%d\n", res.Fulfilled, len(res.Remaining))
		return nil
	},
}

var importCmd = &cli.Command{
	Name:  "import",
	Usage: "Load the topology CSV tables into a SQLite database file",
	Flags: []cli.Flag{
		dataFlag,
		&cli.StringFlag{Name: "db", Required: true, Usage: "SQLite database file to create or extend"},
	},
	Action: func(ctx *cli.Context) error {
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		s, err := topology.OpenSQLite(ctx.Context, ctx.String("db"))
		if err != nil {
			return err
		}
		defer s.Close()
		stats, err := s.Import(ctx.Context, cfg.Topology.DataDir, cfg.Topology.SeparatorRune())
		if err != nil {
			return err
		}
		for _, name := range []string{"refineries", "tanks", "customers", "connections", "demands"} {
			fmt.Printf("%-12s %d\n", name, stats[name])
		}
		return nil
	},
}
