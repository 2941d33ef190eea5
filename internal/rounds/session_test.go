package rounds

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"testing"
	"time"

	"supply-rounds/internal/data"
	"supply-rounds/internal/events"
	"supply-rounds/internal/model"
)

type stubArbiter struct {
	requests []model.RoundRequest
	respond  func(req model.RoundRequest) (*model.RoundResponse, error)
	startErr error
	ended    int
}

func (s *stubArbiter) StartSession(context.Context) (string, error) {
	if s.startErr != nil {
		return "", s.startErr
	}
	return "sess-1", nil
}

func (s *stubArbiter) EndSession(context.Context) (*model.RoundResponse, error) {
	s.ended++
	return &model.RoundResponse{Round: 42, TotalKPIs: model.KPI{Day: 42, Cost: 999, CO2: 11}}, nil
}

func (s *stubArbiter) PlayRound(_ context.Context, req model.RoundRequest) (*model.RoundResponse, error) {
	s.requests = append(s.requests, req)
	if s.respond != nil {
		return s.respond(req)
	}
	return &model.RoundResponse{Round: req.Day}, nil
}

func testNetwork(t *testing.T) *model.Network {
	t.Helper()
	net, err := model.NewNetwork(model.Topology{
		Refineries: []*model.Refinery{{ID: "r1", Capacity: 100, Stock: 80, MaxOutput: 60}},
		Tanks:      []*model.Tank{{ID: "t1", Capacity: 100, Stock: 20, MaxInput: 40}},
		Customers:  []*model.Customer{{ID: "c1", MaxInput: 100}},
		Connections: []*model.Connection{
			{ID: "e-rt", FromID: "r1", ToID: "t1", LeadTimeDays: 1, Type: model.ConnectionPipeline, MaxCapacity: 50},
			{ID: "e-tc", FromID: "t1", ToID: "c1", LeadTimeDays: 1, Type: model.ConnectionTruck, MaxCapacity: 20},
		},
	})
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	return net
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("m%d", n)
	}
}

func startedSession(t *testing.T, arb Arbiter, opts Options) *Session {
	t.Helper()
	if opts.NewID == nil {
		opts.NewID = seqIDs()
	}
	s := NewSession(arb, testNetwork(t), opts)
	if _, err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s
}

func TestRun_SubmitsEveryDayInOrder(t *testing.T) {
	arb := &stubArbiter{}
	broker := events.NewMemoryBroker()
	s := startedSession(t, arb, Options{Broker: broker})
	ch := broker.Subscribe("sess-1")

	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(arb.requests) != 42 {
		t.Fatalf("transport called %d times, want 42", len(arb.requests))
	}
	for i, req := range arb.requests {
		if req.Day != i {
			t.Fatalf("request %d has day %d", i, req.Day)
		}
	}
	if res.Rounds != 42 || len(res.Ledger) != 42 {
		t.Fatalf("result rounds=%d ledger=%d", res.Rounds, len(res.Ledger))
	}
	if s.State() != Completed {
		t.Fatalf("state = %v, want completed", s.State())
	}
	if len(ch) != 42 {
		t.Fatalf("events = %d, want 42", len(ch))
	}
	if evt := <-ch; evt.Type != events.TypeRoundPlayed || evt.Day != 0 || evt.Movements != 1 {
		t.Fatalf("first event = %+v", evt)
	}

	if _, err := s.PlayNext(context.Background()); !errors.Is(err, ErrSessionCompleted) {
		t.Fatalf("want ErrSessionCompleted, got %v", err)
	}

	final, err := s.End(context.Background())
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if final.TotalKPIs.Cost != 999 || s.Status().Totals.Cost != 999 || !s.Status().Ended {
		t.Fatalf("final = %+v status = %+v", final, s.Status())
	}
	if _, err := s.End(context.Background()); !errors.Is(err, ErrSessionCompleted) || arb.ended != 1 {
		t.Fatalf("second End: err=%v ended=%d", err, arb.ended)
	}
}

func TestDayZero_SubmitsFlowsOnly(t *testing.T) {
	arb := &stubArbiter{}
	s := startedSession(t, arb, Options{})
	row, err := s.PlayNext(context.Background())
	if err != nil {
		t.Fatalf("PlayNext: %v", err)
	}
	got := arb.requests[0].Movements
	if len(got) != 1 || got[0].ConnectionID != "e-rt" || got[0].Amount != 40 {
		t.Fatalf("day 0 movements = %+v", got)
	}
	if row.FlowMovements != 1 || row.ScheduledMovements != 0 || row.AmountSubmitted != 40 {
		t.Fatalf("row = %+v", row)
	}
}

func TestScheduledMovementsUseNextDayBucket(t *testing.T) {
	arb := &stubArbiter{}
	arb.respond = func(req model.RoundRequest) (*model.RoundResponse, error) {
		resp := &model.RoundResponse{Round: req.Day}
		if req.Day == 0 {
			resp.Demand = []model.DemandDTO{{CustomerID: "c1", Amount: 30, StartDay: 2, EndDay: 5}}
		}
		return resp, nil
	}
	s := startedSession(t, arb, Options{})
	for i := 0; i < 4; i++ {
		if _, err := s.PlayNext(context.Background()); err != nil {
			t.Fatalf("day %d: %v", i, err)
		}
	}

	scheduled := func(day int) []model.MovementEntry {
		var out []model.MovementEntry
		for _, m := range arb.requests[day].Movements {
			if m.ConnectionID == "e-tc" {
				out = append(out, m)
			}
		}
		return out
	}
	// day 1 reserves 20 on day 2 and 10 on day 4; each goes out one round early
	if got := scheduled(1); len(got) != 1 || got[0].Amount != 20 {
		t.Fatalf("day 1 scheduled = %+v", got)
	}
	if got := scheduled(2); len(got) != 0 {
		t.Fatalf("day 2 scheduled = %+v", got)
	}
	if got := scheduled(3); len(got) != 1 || got[0].Amount != 10 {
		t.Fatalf("day 3 scheduled = %+v", got)
	}

	ledger := s.Ledger()
	if ledger[1].OrdersReceived != 1 || ledger[1].Reservations != 2 || ledger[1].OrdersFulfilled != 1 {
		t.Fatalf("day 1 ledger = %+v", ledger[1])
	}
	if ledger[1].AmountSubmitted != 60 {
		t.Fatalf("day 1 amount = %d, want 60", ledger[1].AmountSubmitted)
	}
}

func TestTransportFailureIsFatal(t *testing.T) {
	arb := &stubArbiter{}
	apiErr := &data.ArbiterError{StatusCode: 500, Code: "API_ERROR", Message: "boom"}
	arb.respond = func(req model.RoundRequest) (*model.RoundResponse, error) {
		if req.Day == 5 {
			return nil, apiErr
		}
		return &model.RoundResponse{Round: req.Day}, nil
	}
	s := startedSession(t, arb, Options{})

	_, err := s.Run(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("want ErrTransport, got %v", err)
	}
	var ae *data.ArbiterError
	if !errors.As(err, &ae) || ae.Code != "API_ERROR" {
		t.Fatalf("arbiter error not preserved: %v", err)
	}
	if len(arb.requests) != 6 {
		t.Fatalf("transport called %d times, want 6 (no retry)", len(arb.requests))
	}
	st := s.Status()
	if st.State != "completed" || st.Day != 5 || st.Error == "" {
		t.Fatalf("status = %+v", st)
	}
	if _, err := s.PlayNext(context.Background()); !errors.Is(err, ErrSessionCompleted) || !errors.Is(err, ErrTransport) {
		t.Fatalf("want completed+transport, got %v", err)
	}
	if len(s.Ledger()) != 5 {
		t.Fatalf("ledger rows = %d, want 5", len(s.Ledger()))
	}
}

// gatedArbiter holds every PlayRound until release is closed.
type gatedArbiter struct {
	stubArbiter
	entered chan struct{}
	release chan struct{}
}

func (g *gatedArbiter) PlayRound(ctx context.Context, req model.RoundRequest) (*model.RoundResponse, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.stubArbiter.PlayRound(ctx, req)
}

func TestStatusReadableWhileRoundInFlight(t *testing.T) {
	arb := &gatedArbiter{entered: make(chan struct{}, 1), release: make(chan struct{})}
	s := startedSession(t, arb, Options{Rounds: 1})

	done := make(chan error, 1)
	go func() {
		_, err := s.PlayNext(context.Background())
		done <- err
	}()
	<-arb.entered

	got := make(chan Status, 1)
	go func() {
		got <- s.Status()
		_ = s.Ledger()
	}()
	select {
	case st := <-got:
		if st.State != InSession.String() || st.Day != 0 {
			t.Fatalf("status during round = %+v", st)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Status blocked while the round was in flight")
	}

	close(arb.release)
	if err := <-done; err != nil {
		t.Fatalf("PlayNext: %v", err)
	}
	if st := s.Status(); st.State != Completed.String() || st.Day != 1 {
		t.Fatalf("status after round = %+v", st)
	}
}

func TestLifecycleErrors(t *testing.T) {
	arb := &stubArbiter{}
	s := NewSession(arb, testNetwork(t), Options{})
	if _, err := s.PlayNext(context.Background()); !errors.Is(err, ErrSessionNotStarted) {
		t.Fatalf("want ErrSessionNotStarted, got %v", err)
	}
	if _, err := s.End(context.Background()); !errors.Is(err, ErrSessionNotStarted) {
		t.Fatalf("want ErrSessionNotStarted, got %v", err)
	}

	failing := NewSession(&stubArbiter{startErr: errors.New("refused")}, testNetwork(t), Options{})
	if _, err := failing.Start(context.Background()); !errors.Is(err, ErrTransport) {
		t.Fatalf("want ErrTransport, got %v", err)
	}
	if failing.State() != NotStarted {
		t.Fatalf("failed start must leave the session not started")
	}

	started := startedSession(t, arb, Options{Rounds: 3})
	if _, err := started.Start(context.Background()); err == nil {
		t.Fatal("second Start should fail")
	}
	if _, err := started.End(context.Background()); err != nil {
		t.Fatalf("End mid-session: %v", err)
	}
	if _, err := started.PlayNext(context.Background()); !errors.Is(err, ErrSessionCompleted) {
		t.Fatalf("want ErrSessionCompleted, got %v", err)
	}
}

func TestUnknownCustomerIsCountedNotFatal(t *testing.T) {
	arb := &stubArbiter{}
	arb.respond = func(req model.RoundRequest) (*model.RoundResponse, error) {
		return &model.RoundResponse{
			Round:  req.Day,
			Demand: []model.DemandDTO{{CustomerID: "ghost", Amount: 5, StartDay: 1, EndDay: 9}},
		}, nil
	}
	s := startedSession(t, arb, Options{Rounds: 3})
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Ledger[1].OrdersUnresolved != 1 || res.Ledger[1].OrdersOpen != 1 {
		t.Fatalf("day 1 ledger = %+v", res.Ledger[1])
	}
	if len(s.Transcript().Rounds) != 3 {
		t.Fatalf("transcript rounds = %d", len(s.Transcript().Rounds))
	}
}

func TestEncodeLedgerCSV(t *testing.T) {
	var buf bytes.Buffer
	ledger := []LedgerRow{
		{Day: 0, FlowMovements: 2, AmountSubmitted: 80, TotalCost: 12.5},
		{Day: 1, FlowMovements: 2, ScheduledMovements: 1, AmountSubmitted: 100, Penalties: 3},
	}
	if err := EncodeLedgerCSV(&buf, ledger); err != nil {
		t.Fatalf("EncodeLedgerCSV: %v", err)
	}
	recs, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(recs) != 3 || recs[0][0] != "day" || recs[1][13] != "12.500000" || recs[2][2] != "1" {
		t.Fatalf("csv = %v", recs)
	}
}
