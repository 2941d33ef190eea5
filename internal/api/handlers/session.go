package handlers

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"supply-rounds/internal/api/models"
	"supply-rounds/internal/data"
	"supply-rounds/internal/logging"
	"supply-rounds/internal/model"
	"supply-rounds/internal/rounds"
)

// ArbiterFactory creates a fresh arbiter client for a new session.
type ArbiterFactory func() rounds.Arbiter

// SessionHandler handles session control requests. It holds at most one
// session; starting another requires ending the current one first.
type SessionHandler struct {
	net        *model.Network
	newArbiter ArbiterFactory
	opts       rounds.Options
	log        logging.Logger

	mu      sync.Mutex
	session *rounds.Session
	arbiter rounds.Arbiter
	busy    bool
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(net *model.Network, newArbiter ArbiterFactory, opts rounds.Options) *SessionHandler {
	log := opts.Logger
	if log == nil {
		log = logging.Noop()
	}
	return &SessionHandler{net: net, newArbiter: newArbiter, opts: opts, log: log}
}

// StartSession handles POST /api/v1/session/start
func (h *SessionHandler) StartSession(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.busy {
		writeError(c, http.StatusConflict, "SESSION_BUSY", "a solve is running", nil)
		return
	}
	if h.session != nil && h.session.State() == rounds.InSession {
		writeError(c, http.StatusConflict, "SESSION_ACTIVE", "end the current session first",
			map[string]interface{}{"session_id": h.session.ID()})
		return
	}

	arb := h.newArbiter()
	s := rounds.NewSession(arb, h.net, h.opts)
	id, err := s.Start(c.Request.Context())
	if err != nil {
		writeArbiterError(c, err)
		return
	}
	h.session = s
	h.arbiter = arb
	c.JSON(http.StatusOK, models.SessionResponse{SessionID: id, Status: rounds.InSession.String()})
}

// EndSession handles POST /api/v1/session/end
func (h *SessionHandler) EndSession(c *gin.Context) {
	s, ok := h.idle(c)
	if !ok {
		return
	}
	final, err := s.End(c.Request.Context())
	if err != nil {
		writeArbiterError(c, err)
		return
	}
	st := s.Status()
	resp := models.SessionResponse{SessionID: st.SessionID, Status: st.State, Rounds: st.Day}
	if final != nil {
		resp.Totals = &models.KPI{Cost: final.TotalKPIs.Cost, CO2: final.TotalKPIs.CO2}
	}
	c.JSON(http.StatusOK, resp)
}

// PlayRound handles POST /api/v1/play/round. The movements are forwarded to
// the arbiter unchanged; the planner's own state is not touched.
func (h *SessionHandler) PlayRound(c *gin.Context) {
	var req models.PlayRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	if _, ok := h.idle(c); !ok {
		return
	}
	h.mu.Lock()
	arb := h.arbiter
	h.mu.Unlock()

	round := model.RoundRequest{Day: *req.Day, Movements: make([]model.MovementEntry, 0, len(req.Movements))}
	for _, m := range req.Movements {
		round.Movements = append(round.Movements, model.MovementEntry{ConnectionID: m.ConnectionID, Amount: m.Amount})
	}
	resp, err := arb.PlayRound(c.Request.Context(), round)
	if err != nil {
		writeArbiterError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Solve handles POST /api/v1/solve. It plays every remaining round of the
// started session and blocks until the loop finishes or fails.
func (h *SessionHandler) Solve(c *gin.Context) {
	var opts models.SolveOptions
	if err := c.ShouldBindQuery(&opts); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	h.mu.Lock()
	if h.busy {
		h.mu.Unlock()
		writeError(c, http.StatusConflict, "SESSION_BUSY", "a solve is already running", nil)
		return
	}
	s := h.session
	if s == nil {
		h.mu.Unlock()
		writeError(c, http.StatusConflict, "NO_SESSION", "start a session first", nil)
		return
	}
	h.busy = true
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.busy = false
		h.mu.Unlock()
	}()

	result, err := s.Run(c.Request.Context())
	if err != nil {
		h.log.Error(c.Request.Context(), "solve failed", logging.String("session_id", s.ID()), logging.Err(err))
		writeArbiterError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildSolveResponse(result, opts.IncludeLedger))
}

// Status handles GET /api/v1/session
func (h *SessionHandler) Status(c *gin.Context) {
	s := h.current()
	if s == nil {
		c.JSON(http.StatusOK, rounds.Status{State: rounds.NotStarted.String(), Rounds: h.opts.Rounds})
		return
	}
	c.JSON(http.StatusOK, s.Status())
}

// Ledger handles GET /api/v1/session/ledger
func (h *SessionHandler) Ledger(c *gin.Context) {
	s := h.current()
	if s == nil {
		writeError(c, http.StatusNotFound, "NO_SESSION", "no session has been started", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": s.ID(), "ledger": convertLedger(s.Ledger())})
}

// current returns the session being served, or nil.
func (h *SessionHandler) current() *rounds.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.session
}

// idle returns the current session when one exists and no solve is running.
func (h *SessionHandler) idle(c *gin.Context) (*rounds.Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.busy {
		writeError(c, http.StatusConflict, "SESSION_BUSY", "a solve is running", nil)
		return nil, false
	}
	if h.session == nil {
		writeError(c, http.StatusConflict, "NO_SESSION", "start a session first", nil)
		return nil, false
	}
	return h.session, true
}

func buildSolveResponse(result *rounds.Result, includeLedger bool) models.SolveResponse {
	summary := models.SolveSummary{
		Rounds:    result.Rounds,
		TotalCost: result.Totals.Cost,
		TotalCO2:  result.Totals.CO2,
	}
	for _, row := range result.Ledger {
		summary.Penalties += row.Penalties
		summary.FlowMovements += row.FlowMovements
		summary.ScheduledMovements += row.ScheduledMovements
		summary.AmountSubmitted += row.AmountSubmitted
	}
	resp := models.SolveResponse{
		SessionID: result.SessionID,
		Status:    "completed",
		Summary:   summary,
	}
	if includeLedger {
		resp.Ledger = convertLedger(result.Ledger)
	}
	return resp
}

func convertLedger(ledger []rounds.LedgerRow) []models.LedgerRow {
	result := make([]models.LedgerRow, len(ledger))
	for i, row := range ledger {
		result[i] = models.LedgerRow{
			Day:                row.Day,
			FlowMovements:      row.FlowMovements,
			ScheduledMovements: row.ScheduledMovements,
			AmountSubmitted:    row.AmountSubmitted,
			OrdersReceived:     row.OrdersReceived,
			OrdersUnresolved:   row.OrdersUnresolved,
			OrdersFulfilled:    row.OrdersFulfilled,
			OrdersOpen:         row.OrdersOpen,
			Reservations:       row.Reservations,
			NewOrders:          row.NewOrders,
			Penalties:          row.Penalties,
			DeltaCost:          row.DeltaCost,
			DeltaCO2:           row.DeltaCO2,
			TotalCost:          row.TotalCost,
			TotalCO2:           row.TotalCO2,
		}
	}
	return result
}

// writeArbiterError maps session and arbiter failures to HTTP responses.
func writeArbiterError(c *gin.Context, err error) {
	var arbErr *data.ArbiterError
	if errors.As(err, &arbErr) {
		statusCode := http.StatusBadGateway
		switch {
		case arbErr.StatusCode == http.StatusForbidden || arbErr.StatusCode == http.StatusUnauthorized:
			statusCode = http.StatusUnauthorized
		case arbErr.StatusCode == http.StatusTooManyRequests:
			statusCode = http.StatusTooManyRequests
		case arbErr.Code == "MISSING_API_KEY":
			statusCode = http.StatusBadRequest
		case arbErr.Code == "NO_SESSION":
			statusCode = http.StatusConflict
		}
		writeError(c, statusCode, arbErr.Code, err.Error(), map[string]interface{}{
			"status_code": arbErr.StatusCode,
			"retry_after": arbErr.RetryAfter,
		})
		return
	}
	switch {
	case errors.Is(err, rounds.ErrSessionNotStarted):
		writeError(c, http.StatusConflict, "SESSION_NOT_STARTED", err.Error(), nil)
	case errors.Is(err, rounds.ErrSessionCompleted):
		writeError(c, http.StatusConflict, "SESSION_COMPLETED", err.Error(), nil)
	case errors.Is(err, rounds.ErrTransport):
		writeError(c, http.StatusBadGateway, "TRANSPORT_ERROR", err.Error(), nil)
	default:
		writeError(c, http.StatusInternalServerError, "SOLVE_ERROR", err.Error(), nil)
	}
}

func writeError(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
