// Package rounds drives one arbiter session: it plans every simulated day,
// submits the round and folds the arbiter's answer into the next day's plan.
package rounds

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"supply-rounds/internal/data"
	"supply-rounds/internal/events"
	"supply-rounds/internal/logging"
	"supply-rounds/internal/model"
	"supply-rounds/internal/schedule"
	"supply-rounds/internal/strategy"
)

var (
	// ErrTransport marks any failure exchanging a round with the arbiter.
	// It is fatal to the session.
	ErrTransport = errors.New("arbiter transport failure")
	// ErrSessionNotStarted is returned when rounds are played before Start.
	ErrSessionNotStarted = errors.New("session not started")
	// ErrSessionCompleted is returned when the session has already finished.
	ErrSessionCompleted = errors.New("session completed")
)

// DefaultRounds is the number of simulated days in a session.
const DefaultRounds = 42

// State is the lifecycle of a Session.
type State int

const (
	NotStarted State = iota
	InSession
	Completed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case InSession:
		return "in_session"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Arbiter is the remote simulation the session plays against.
// *data.ArbiterClient satisfies it.
type Arbiter interface {
	StartSession(ctx context.Context) (string, error)
	EndSession(ctx context.Context) (*model.RoundResponse, error)
	PlayRound(ctx context.Context, req model.RoundRequest) (*model.RoundResponse, error)
}

// Options tune a Session. Zero values pick the defaults.
type Options struct {
	Rounds int
	Params strategy.Params
	Logger logging.Logger
	Broker events.Broker
	// NewID mints movement ids; defaults to random UUIDs.
	NewID func() string
}

// Session owns all per-session planning state. A Session is used for exactly
// one arbiter session; create a new one to play again.
type Session struct {
	arbiter Arbiter
	net     *model.Network
	rounds  int
	log     logging.Logger
	broker  events.Broker

	alloc *strategy.Allocator
	avail *schedule.Availability
	sched *schedule.Schedule

	// io serializes calls to the arbiter. mu guards the fields below and is
	// never held across a network call.
	io sync.Mutex

	mu         sync.Mutex
	state      State
	ended      bool
	id         string
	day        int // next day to submit
	backlog    []model.Order
	totals     model.KPI
	ledger     []LedgerRow
	transcript data.Transcript
	failure    error
}

// NewSession prepares a session over net. Every connection starts available
// and the schedule covers rounds+1 days so the last day's lookahead bucket
// exists.
func NewSession(arb Arbiter, net *model.Network, opts Options) *Session {
	if opts.Rounds <= 0 {
		opts.Rounds = DefaultRounds
	}
	if opts.Params == (strategy.Params{}) {
		opts.Params = strategy.DefaultParams()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Noop()
	}
	if opts.Broker == nil {
		opts.Broker = events.Nop{}
	}
	alloc := strategy.NewAllocator(opts.Params)
	if opts.NewID != nil {
		alloc.NewID = opts.NewID
	}

	avail := schedule.NewAvailability()
	for _, c := range net.Connections() {
		avail.Init(c.ID)
	}

	return &Session{
		arbiter: arb,
		net:     net,
		rounds:  opts.Rounds,
		log:     opts.Logger,
		broker:  opts.Broker,
		alloc:   alloc,
		avail:   avail,
		sched:   schedule.NewSchedule(opts.Rounds + 1),
		state:   NotStarted,
	}
}

// Start opens the arbiter session.
func (s *Session) Start(ctx context.Context) (string, error) {
	s.io.Lock()
	defer s.io.Unlock()

	s.mu.Lock()
	switch s.state {
	case InSession:
		id := s.id
		s.mu.Unlock()
		return id, fmt.Errorf("session %s already started", id)
	case Completed:
		s.mu.Unlock()
		return "", ErrSessionCompleted
	}
	s.mu.Unlock()

	id, err := s.arbiter.StartSession(ctx)
	if err != nil {
		return "", fmt.Errorf("start session: %w: %w", ErrTransport, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	s.state = InSession
	s.transcript = data.Transcript{SessionID: id}
	s.log.Info(ctx, "session started", logging.String("session_id", id), logging.Int("rounds", s.rounds))
	return id, nil
}

// Run plays every remaining day in order and returns the session result.
// It stops at the first error.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	for {
		s.mu.Lock()
		done := s.state == Completed && s.failure == nil
		s.mu.Unlock()
		if done {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := s.PlayNext(ctx); err != nil {
			return nil, err
		}
	}
	return s.Result(), nil
}

// PlayNext plans and submits the next day. After the final day the session
// moves to Completed. Status and Ledger stay readable while the round is in
// flight.
func (s *Session) PlayNext(ctx context.Context) (*LedgerRow, error) {
	s.io.Lock()
	defer s.io.Unlock()

	s.mu.Lock()
	switch s.state {
	case NotStarted:
		s.mu.Unlock()
		return nil, ErrSessionNotStarted
	case Completed:
		failure := s.failure
		s.mu.Unlock()
		if failure != nil {
			return nil, fmt.Errorf("%w: %w", ErrSessionCompleted, failure)
		}
		return nil, ErrSessionCompleted
	}

	day := s.day
	req, row, err := s.plan(ctx, day)
	if err != nil {
		s.fail(ctx, err)
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	start := time.Now()
	resp, err := s.arbiter.PlayRound(ctx, req)
	recordSubmit(time.Since(start), err)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		err = fmt.Errorf("round %d: %w: %w", day, ErrTransport, err)
		s.fail(ctx, err)
		return nil, err
	}

	s.absorb(ctx, req, resp, &row)
	s.day++
	if s.day >= s.rounds {
		s.state = Completed
		s.log.Info(ctx, "all rounds submitted",
			logging.String("session_id", s.id),
			logging.Float("total_cost", s.totals.Cost),
			logging.Float("total_co2", s.totals.CO2))
	}
	return &row, nil
}

// End closes the arbiter session. It is valid while in session and after the
// last round, but only once.
func (s *Session) End(ctx context.Context) (*model.RoundResponse, error) {
	s.io.Lock()
	defer s.io.Unlock()

	s.mu.Lock()
	if s.state == NotStarted {
		s.mu.Unlock()
		return nil, ErrSessionNotStarted
	}
	if s.ended {
		s.mu.Unlock()
		return nil, ErrSessionCompleted
	}
	s.mu.Unlock()

	final, err := s.arbiter.EndSession(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = true
	s.state = Completed
	if err != nil {
		return nil, fmt.Errorf("end session: %w: %w", ErrTransport, err)
	}
	s.transcript.Final = final
	if final != nil && final.TotalKPIs != (model.KPI{}) {
		s.totals = final.TotalKPIs
	}
	s.broker.Publish(s.id, events.RoundEvent{
		Type:      events.TypeSessionEnded,
		SessionID: s.id,
		Day:       s.day,
		Total:     s.totals,
		At:        time.Now().UTC(),
	})
	s.log.Info(ctx, "session ended", logging.String("session_id", s.id), logging.Int("rounds_played", s.day))
	return final, nil
}

// fail moves the session to Completed and remembers why.
func (s *Session) fail(ctx context.Context, err error) {
	s.state = Completed
	s.failure = err
	s.broker.Publish(s.id, events.RoundEvent{
		Type:      events.TypeSessionFailed,
		SessionID: s.id,
		Day:       s.day,
		Total:     s.totals,
		At:        time.Now().UTC(),
	})
	s.log.Error(ctx, "session aborted", logging.String("session_id", s.id), logging.Int("day", s.day), logging.Err(err))
}

// Status is a point-in-time view of a session.
type Status struct {
	SessionID string    `json:"session_id"`
	State     string    `json:"state"`
	Day       int       `json:"day"`
	Rounds    int       `json:"rounds"`
	Backlog   int       `json:"backlog"`
	Scheduled int       `json:"scheduled_movements"`
	Totals    model.KPI `json:"totals"`
	Ended     bool      `json:"ended"`
	Error     string    `json:"error,omitempty"`
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		SessionID: s.id,
		State:     s.state.String(),
		Day:       s.day,
		Rounds:    s.rounds,
		Backlog:   len(s.backlog),
		Scheduled: s.sched.Len(),
		Totals:    s.totals,
		Ended:     s.ended,
	}
	if s.failure != nil {
		st.Error = s.failure.Error()
	}
	return st
}

// State reports the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ID is the arbiter session id, empty before Start.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Ledger returns a copy of the per-round rows recorded so far.
func (s *Session) Ledger() []LedgerRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LedgerRow(nil), s.ledger...)
}

// Transcript returns a copy of every request/response exchanged so far.
func (s *Session) Transcript() *data.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.transcript
	t.Rounds = append([]data.TranscriptRound(nil), s.transcript.Rounds...)
	t.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return &t
}

// Result summarizes the session so far.
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Result{
		SessionID: s.id,
		Rounds:    s.day,
		Totals:    s.totals,
		Ledger:    append([]LedgerRow(nil), s.ledger...),
	}
}
