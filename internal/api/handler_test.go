package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/config"
	"github.com/cleared-dev/ledger/internal/errs"
	"github.com/cleared-dev/ledger/internal/integration"
	"github.com/cleared-dev/ledger/internal/journal"
	"github.com/cleared-dev/ledger/internal/periods"
	"github.com/cleared-dev/ledger/internal/reports"
	"github.com/cleared-dev/ledger/internal/store"
)

var today = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	st      *store.Memory
}

func newTestServer(t *testing.T, seed bool) *testServer {
	t.Helper()
	st := store.NewMemory()
	chart := accounts.NewService(st)
	if seed {
		_, err := chart.Seed(context.Background(), accounts.DefaultChart(""), "USD")
		require.NoError(t, err)
	}

	cfg := config.Default("Test Co", "")
	clock := func() time.Time { return today }
	resolver := periods.NewResolver(st, nil, periods.WithClock(clock))
	engine := journal.NewEngine(st, resolver, nil, journal.WithClock(clock))

	h := NewLedgerHandler(Services{
		Journal:  engine,
		Accounts: chart,
		Periods:  resolver,
		Reports:  reports.NewEngine(st, reports.WithClock(clock)),
		Recorder: integration.NewRecorder(st, engine, cfg.Integration, nil),
	}, nil)
	srv := NewServer(nil, config.ServerConfig{Port: "0", Mode: gin.TestMode}, "system", h)
	return &testServer{t: t, handler: srv.Handler(), st: st}
}

func (s *testServer) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(s.t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func sale(amount string, post bool) CreateEntryReq {
	return CreateEntryReq{
		Date:        "2025-03-10",
		Description: "Sale",
		Post:        post,
		Lines: []LineReq{
			{AccountCode: "1110", Type: "debit", Amount: amount},
			{AccountCode: "4100", Type: "credit", Amount: amount},
		},
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"UP"}`, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(http.MethodOptions, "/api/v1/entries", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCreateAndPostEntry(t *testing.T) {
	s := newTestServer(t, true)

	w := s.do(http.MethodPost, "/api/v1/entries", sale("1000.00", true), "X-User-ID", "alice")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	entry := decode[EntryResp](t, w)
	assert.Equal(t, "JE-2025-000001", entry.EntryNumber)
	assert.Equal(t, "posted", entry.Status)
	assert.Equal(t, "2025-03-10", entry.EntryDate)
	assert.Equal(t, "alice", entry.CreatedBy)
	assert.Equal(t, "alice", entry.PostedBy)
	assert.Equal(t, "1000.00", entry.TotalDebit)
	assert.Equal(t, "1000.00", entry.TotalCredit)
	require.Len(t, entry.Lines, 2)
	assert.Equal(t, "debit", entry.Lines[0].Type)
}

func TestCreateDraftThenPost(t *testing.T) {
	s := newTestServer(t, true)

	w := s.do(http.MethodPost, "/api/v1/entries", sale("50", false))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	draft := decode[EntryResp](t, w)
	assert.Equal(t, "draft", draft.Status)
	assert.Equal(t, "system", draft.CreatedBy)

	w = s.do(http.MethodPost, fmt.Sprintf("/api/v1/entries/%d/post", draft.ID), nil, "X-User-ID", "bob")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	posted := decode[EntryResp](t, w)
	assert.Equal(t, "posted", posted.Status)
	assert.Equal(t, "bob", posted.PostedBy)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/v1/entries/%d", draft.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "posted", decode[EntryResp](t, w).Status)
}

func TestCreateEntryErrors(t *testing.T) {
	s := newTestServer(t, true)

	unbalanced := sale("10", false)
	unbalanced.Lines[1].Amount = "9"

	unknownCode := sale("10", false)
	unknownCode.Lines[0].AccountCode = "9999"

	badDate := sale("10", false)
	badDate.Date = "10/03/2025"

	badAmount := sale("10", false)
	badAmount.Lines[0].Amount = "ten"

	badType := sale("10", false)
	badType.Lines[0].Type = "sideways"

	tests := []struct {
		name string
		body any
		want int
	}{
		{"unbalanced", unbalanced, http.StatusUnprocessableEntity},
		{"unknown account code", unknownCode, http.StatusNotFound},
		{"bad date", badDate, http.StatusBadRequest},
		{"bad amount", badAmount, http.StatusUnprocessableEntity},
		{"bad line type", badType, http.StatusBadRequest},
		{"malformed json", `{"lines": [`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/v1/entries", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestCreateEntryClosedPeriod(t *testing.T) {
	s := newTestServer(t, true)
	ctx := context.Background()

	resolver := periods.NewResolver(s.st, nil)
	p, err := resolver.Create(ctx, "2025", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = resolver.Close(ctx, "auditor", p.ID)
	require.NoError(t, err)

	w := s.do(http.MethodPost, "/api/v1/entries", sale("10", true))
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
}

func TestGetEntryNotFoundAndBadID(t *testing.T) {
	s := newTestServer(t, true)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/entries/99", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/entries/abc", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/api/v1/entries/99/post", nil).Code)
}

func TestReverseEntry(t *testing.T) {
	s := newTestServer(t, true)

	draft := decode[EntryResp](t, s.do(http.MethodPost, "/api/v1/entries", sale("25", false)))
	w := s.do(http.MethodPost, fmt.Sprintf("/api/v1/entries/%d/reverse", draft.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code, "drafts cannot be reversed")

	posted := decode[EntryResp](t, s.do(http.MethodPost, "/api/v1/entries", sale("25", true)))
	w = s.do(http.MethodPost, fmt.Sprintf("/api/v1/entries/%d/reverse", posted.ID), ReverseEntryReq{Description: "Refund"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	rev := decode[EntryResp](t, w)
	assert.Equal(t, "Refund", rev.Description)
	assert.Equal(t, "posted", rev.Status)
	assert.Equal(t, "2025-06-15", rev.EntryDate)
	require.NotNil(t, rev.Source)
	assert.Equal(t, fmt.Sprint(posted.ID), rev.Source.ID)
	assert.Equal(t, "credit", rev.Lines[0].Type)

	original := decode[EntryResp](t, s.do(http.MethodGet, fmt.Sprintf("/api/v1/entries/%d", posted.ID), nil))
	assert.Equal(t, "reversed", original.Status)
}

func TestListEntries(t *testing.T) {
	s := newTestServer(t, true)
	s.do(http.MethodPost, "/api/v1/entries", sale("1", false))
	s.do(http.MethodPost, "/api/v1/entries", sale("2", true))

	type list struct {
		Entries []EntryResp `json:"entries"`
	}
	all := decode[list](t, s.do(http.MethodGet, "/api/v1/entries", nil))
	assert.Len(t, all.Entries, 2)

	posted := decode[list](t, s.do(http.MethodGet, "/api/v1/entries?status=posted", nil))
	require.Len(t, posted.Entries, 1)
	assert.Equal(t, "posted", posted.Entries[0].Status)
	assert.Empty(t, posted.Entries[0].Lines, "listings carry headers only")

	none := decode[list](t, s.do(http.MethodGet, "/api/v1/entries?from=2025-04-01", nil))
	assert.Empty(t, none.Entries)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/entries?to=yesterday", nil).Code)
}

func TestRecordEvent(t *testing.T) {
	s := newTestServer(t, true)

	body := EventReq{ID: "inc-1", Amount: "120.50", Currency: "USD", Description: "Invoice 7", TransactionDate: "2025-02-01"}
	w := s.do(http.MethodPost, "/api/v1/events/income", body, "X-User-ID", "finance")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	entry := decode[EntryResp](t, w)
	assert.Equal(t, "auto", entry.Type)
	assert.Equal(t, "posted", entry.Status)
	assert.Equal(t, "Income: Invoice 7", entry.Description)
	assert.Equal(t, "finance", entry.CreatedBy)
	assert.Equal(t, &SourceResp{Kind: "income", ID: "inc-1"}, entry.Source)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/api/v1/events/transfer", body).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/v1/events/expense", EventReq{ID: "x"}).Code)
}

func TestRecordEventMissingChart(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(http.MethodPost, "/api/v1/events/expense", EventReq{ID: "exp-1", Amount: "5"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
}

func TestListAccounts(t *testing.T) {
	s := newTestServer(t, true)
	s.do(http.MethodPost, "/api/v1/entries", sale("75", true))

	type list struct {
		Accounts []AccountResp `json:"accounts"`
	}
	all := decode[list](t, s.do(http.MethodGet, "/api/v1/accounts", nil))
	assert.Len(t, all.Accounts, len(accounts.DefaultChart("")))

	revenue := decode[list](t, s.do(http.MethodGet, "/api/v1/accounts?type=revenue", nil))
	require.Len(t, revenue.Accounts, 3)
	for _, a := range revenue.Accounts {
		if a.Code == "4100" {
			assert.Equal(t, "75.00", a.Balance)
		}
	}

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/accounts?type=cash", nil).Code)
}

func TestReports(t *testing.T) {
	s := newTestServer(t, true)
	s.do(http.MethodPost, "/api/v1/entries", sale("1000.00", true))

	w := s.do(http.MethodGet, "/api/v1/reports/trial-balance", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tb := decode[reports.TrialBalance](t, w)
	assert.True(t, tb.IsBalanced)
	require.Len(t, tb.Accounts, 2)
	assert.Equal(t, "1000.00", tb.TotalDebits.StringFixed(2))

	w = s.do(http.MethodGet, "/api/v1/reports/profit-and-loss?start=2025-01-01&end=2025-12-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1000.00", decode[reports.ProfitAndLoss](t, w).NetIncome.StringFixed(2))

	w = s.do(http.MethodGet, "/api/v1/reports/balance-sheet?as_of=2025-06-30", nil)
	require.Equal(t, http.StatusOK, w.Code)
	bs := decode[reports.BalanceSheet](t, w)
	assert.True(t, bs.IsBalanced)
	assert.Equal(t, "1000.00", bs.Equity.RetainedEarnings.StringFixed(2))

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/reports/balance-sheet?as_of=June", nil).Code)
}

func TestAccountLedgerRoute(t *testing.T) {
	s := newTestServer(t, true)
	s.do(http.MethodPost, "/api/v1/entries", sale("40", true))

	cash, err := s.st.AccountByCode(context.Background(), "1110")
	require.NoError(t, err)

	w := s.do(http.MethodGet, fmt.Sprintf("/api/v1/accounts/%d/ledger?start=2025-01-01&end=2025-12-31", cash.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ledger := decode[reports.AccountLedger](t, w)
	require.Len(t, ledger.Entries, 1)
	assert.Equal(t, "40.00", ledger.ClosingBalance.StringFixed(2))

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/accounts/999/ledger", nil).Code)
}

func TestListPeriods(t *testing.T) {
	s := newTestServer(t, true)
	s.do(http.MethodPost, "/api/v1/entries", sale("1", false))

	w := s.do(http.MethodGet, "/api/v1/periods", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"2025"`)
	assert.Contains(t, w.Body.String(), `"is_closed":false`)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errs.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("entry 3: %w", errs.ErrEntryNotFound), http.StatusNotFound},
		{errs.ErrAccountNotFound, http.StatusNotFound},
		{errs.ErrNotPosted, http.StatusConflict},
		{errs.ErrDuplicateEntryNumber, http.StatusConflict},
		{errs.ErrPeriodClosed, http.StatusConflict},
		{&errs.UnbalancedError{}, http.StatusUnprocessableEntity},
		{errs.ErrInvalidLine, http.StatusUnprocessableEntity},
		{errs.ErrMissingChartAccount, http.StatusUnprocessableEntity},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusOf(tt.err), tt.err.Error())
	}
}
