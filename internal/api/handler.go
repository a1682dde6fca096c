// Package api exposes the ledger over HTTP with gin.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/errs"
	"github.com/cleared-dev/ledger/internal/integration"
	"github.com/cleared-dev/ledger/internal/journal"
	"github.com/cleared-dev/ledger/internal/logger"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/periods"
	"github.com/cleared-dev/ledger/internal/reports"
	"github.com/cleared-dev/ledger/internal/store"
)

// actorKey is the gin context key holding the acting user.
const actorKey = "x-user-id"

// Services bundles what the handler serves.
type Services struct {
	Journal  *journal.Engine
	Accounts *accounts.Service
	Periods  *periods.Resolver
	Reports  *reports.Engine
	Recorder integration.EventRecorder
}

// LedgerHandler serves the ledger routes.
type LedgerHandler struct {
	svc Services
	log *zap.Logger
}

func NewLedgerHandler(svc Services, log *zap.Logger) *LedgerHandler {
	return &LedgerHandler{svc: svc, log: logger.OrNop(log)}
}

// RegisterRoutes mounts the ledger routes on r.
func (h *LedgerHandler) RegisterRoutes(r *gin.RouterGroup) {
	entries := r.Group("/entries")
	{
		entries.GET("", h.ListEntries)
		entries.POST("", h.CreateEntry)
		entries.GET("/:id", h.GetEntry)
		entries.POST("/:id/post", h.PostEntry)
		entries.POST("/:id/reverse", h.ReverseEntry)
	}

	r.POST("/events/:kind", h.RecordEvent)

	accts := r.Group("/accounts")
	{
		accts.GET("", h.ListAccounts)
		accts.GET("/:id/ledger", h.AccountLedger)
	}

	r.GET("/periods", h.ListPeriods)

	rep := r.Group("/reports")
	{
		rep.GET("/trial-balance", h.TrialBalance)
		rep.GET("/profit-and-loss", h.ProfitAndLoss)
		rep.GET("/balance-sheet", h.BalanceSheet)
	}
}

// CreateEntry stores a draft entry, or posts it straight away when the body
// sets "post".
// POST /api/v1/entries
func (h *LedgerHandler) CreateEntry(c *gin.Context) {
	var req CreateEntryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	header := journal.EntryHeader{
		Description: req.Description,
		Reference:   req.Reference,
		EntryNumber: req.EntryNumber,
		PeriodID:    req.PeriodID,
		Notes:       req.Notes,
	}
	if req.Date != "" {
		d, err := model.ParseDate(req.Date)
		if err != nil {
			badRequest(c, fmt.Errorf("entry_date: %w", err))
			return
		}
		header.Date = d
	}

	lines := make([]journal.LineInput, 0, len(req.Lines))
	for i, l := range req.Lines {
		in, err := h.lineInput(c, l)
		if err != nil {
			h.fail(c, fmt.Errorf("line %d: %w", i+1, err))
			return
		}
		lines = append(lines, in)
	}

	create := h.svc.Journal.CreateEntry
	if req.Post {
		create = h.svc.Journal.CreateAndPost
	}
	entry, err := create(c.Request.Context(), actor(c), header, lines)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewEntryResp(entry))
}

func (h *LedgerHandler) lineInput(c *gin.Context, l LineReq) (journal.LineInput, error) {
	amount, err := decimal.NewFromString(l.Amount)
	if err != nil {
		return journal.LineInput{}, fmt.Errorf("amount %q: %w", l.Amount, errs.ErrInvalidLine)
	}
	id := l.AccountID
	if id == 0 && l.AccountCode != "" {
		a, err := h.svc.Accounts.ByCode(c.Request.Context(), l.AccountCode)
		if err != nil {
			return journal.LineInput{}, err
		}
		id = a.ID
	}
	return journal.LineInput{
		AccountID:   id,
		Type:        model.LineType(l.Type),
		Amount:      amount,
		Description: l.Description,
		Reference:   l.Reference,
	}, nil
}

// GET /api/v1/entries?status=&from=&to=
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	from, to, ok := dateRange(c, "from", "to")
	if !ok {
		return
	}
	list, err := h.svc.Journal.Entries(c.Request.Context(), store.EntryFilter{
		Status: model.EntryStatus(c.Query("status")),
		From:   from,
		To:     to,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]EntryResp, 0, len(list))
	for _, e := range list {
		out = append(out, NewEntryResp(e))
	}
	c.JSON(http.StatusOK, gin.H{"entries": out})
}

// GET /api/v1/entries/:id
func (h *LedgerHandler) GetEntry(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	entry, err := h.svc.Journal.Entry(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewEntryResp(entry))
}

// POST /api/v1/entries/:id/post
func (h *LedgerHandler) PostEntry(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	entry, err := h.svc.Journal.PostEntry(c.Request.Context(), actor(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewEntryResp(entry))
}

// POST /api/v1/entries/:id/reverse
func (h *LedgerHandler) ReverseEntry(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req ReverseEntryReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	entry, err := h.svc.Journal.ReverseEntry(c.Request.Context(), actor(c), id, req.Description)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewEntryResp(entry))
}

// RecordEvent books an income or expense event as a posted AUTO entry.
// POST /api/v1/events/:kind
func (h *LedgerHandler) RecordEvent(c *gin.Context) {
	kind := model.EventKind(c.Param("kind"))
	if !kind.Valid() {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown event kind %q", kind)})
		return
	}
	var req EventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		badRequest(c, fmt.Errorf("amount: %w", err))
		return
	}
	ev := model.ExternalEvent{
		ID:          req.ID,
		RecordType:  req.RecordType,
		Amount:      amount,
		Currency:    req.Currency,
		Description: req.Description,
		Reference:   req.Reference,
	}
	if req.TransactionDate != "" {
		if ev.TransactionDate, err = model.ParseDate(req.TransactionDate); err != nil {
			badRequest(c, fmt.Errorf("transaction_date: %w", err))
			return
		}
	}

	entry, err := h.svc.Recorder.RecordFromExternalEvent(c.Request.Context(), actor(c), ev, kind)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewEntryResp(entry))
}

// GET /api/v1/accounts?type=&active=true
func (h *LedgerHandler) ListAccounts(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		list []model.Account
		err  error
	)
	switch {
	case c.Query("type") != "":
		at := model.AccountType(c.Query("type"))
		if !at.Valid() {
			badRequest(c, fmt.Errorf("unknown account type %q", at))
			return
		}
		list, err = h.svc.Accounts.ByType(ctx, at)
	case c.Query("active") == "true":
		list, err = h.svc.Accounts.Active(ctx)
	default:
		list, err = h.svc.Accounts.All(ctx)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]AccountResp, 0, len(list))
	for _, a := range list {
		out = append(out, NewAccountResp(a))
	}
	c.JSON(http.StatusOK, gin.H{"accounts": out})
}

// GET /api/v1/accounts/:id/ledger?start=&end=
func (h *LedgerHandler) AccountLedger(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	start, end, ok := dateRange(c, "start", "end")
	if !ok {
		return
	}
	ledger, err := h.svc.Reports.AccountLedger(c.Request.Context(), id, start, end)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ledger)
}

// GET /api/v1/periods
func (h *LedgerHandler) ListPeriods(c *gin.Context) {
	list, err := h.svc.Periods.All(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, p := range list {
		out = append(out, gin.H{
			"id":         p.ID,
			"name":       p.Name,
			"start_date": p.StartDate.Format(model.DateFormat),
			"end_date":   p.EndDate.Format(model.DateFormat),
			"is_closed":  p.IsClosed,
			"closed_by":  p.ClosedBy,
		})
	}
	c.JSON(http.StatusOK, gin.H{"periods": out})
}

// GET /api/v1/reports/trial-balance?start=&end=
func (h *LedgerHandler) TrialBalance(c *gin.Context) {
	start, end, ok := dateRange(c, "start", "end")
	if !ok {
		return
	}
	tb, err := h.svc.Reports.TrialBalance(c.Request.Context(), start, end)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tb)
}

// GET /api/v1/reports/profit-and-loss?start=&end=
func (h *LedgerHandler) ProfitAndLoss(c *gin.Context) {
	start, end, ok := dateRange(c, "start", "end")
	if !ok {
		return
	}
	pnl, err := h.svc.Reports.ProfitAndLoss(c.Request.Context(), start, end)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pnl)
}

// GET /api/v1/reports/balance-sheet?as_of=
func (h *LedgerHandler) BalanceSheet(c *gin.Context) {
	asOf, ok := queryDate(c, "as_of")
	if !ok {
		return
	}
	bs, err := h.svc.Reports.BalanceSheet(c.Request.Context(), asOf)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, bs)
}

// fail writes err with the status its kind maps to.
func (h *LedgerHandler) fail(c *gin.Context, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errs.ErrNotFound),
		errors.Is(err, errs.ErrEntryNotFound),
		errors.Is(err, errs.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrNotPosted),
		errors.Is(err, errs.ErrDuplicateEntryNumber),
		errors.Is(err, errs.ErrPeriodClosed):
		return http.StatusConflict
	case errors.Is(err, errs.ErrUnbalancedEntry),
		errors.Is(err, errs.ErrInvalidLine),
		errors.Is(err, errs.ErrMissingChartAccount):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
}

func actor(c *gin.Context) string {
	return c.GetString(actorKey)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, fmt.Errorf("id %q is not a positive integer", c.Param("id")))
		return 0, false
	}
	return id, true
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(c *gin.Context, key string) (time.Time, bool) {
	v := c.Query(key)
	if v == "" {
		return time.Time{}, true
	}
	d, err := model.ParseDate(v)
	if err != nil {
		badRequest(c, fmt.Errorf("%s: %w", key, err))
		return time.Time{}, false
	}
	return d, true
}

func dateRange(c *gin.Context, startKey, endKey string) (time.Time, time.Time, bool) {
	start, ok := queryDate(c, startKey)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	end, ok := queryDate(c, endKey)
	return start, end, ok
}
