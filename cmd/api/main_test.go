package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iclbooks/iclledger/pkg/models"
	"github.com/iclbooks/iclledger/pkg/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "api_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewServer(s, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor", "tester")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func createTestLoan(t *testing.T, srv *Server) *models.Loan {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/loans", map[string]any{
		"icl_no":        "ICL-001",
		"name":          "Acme Traders",
		"start_date":    "2023-01-15",
		"interest_type": "simple",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var loan models.Loan
	decode(t, rec, &loan)
	return &loan
}

func TestCreateLoanEndpoint(t *testing.T) {
	srv := newTestServer(t)
	loan := createTestLoan(t, srv)

	assert.Equal(t, "ICL-001", loan.ICLNo)
	assert.Equal(t, models.InterestTypeSimple, loan.InterestType)
	assert.Equal(t, "tester", loan.CreatedBy)

	rec := doJSON(t, srv, http.MethodGet, "/loans/"+loan.ID.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/loans", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var loans []*models.Loan
	decode(t, rec, &loans)
	assert.Len(t, loans, 1)
}

func TestCreateLoanEndpointRejectsBadInput(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/loans", map[string]any{
		"name": "No Number", "start_date": "2023-01-15", "interest_type": "simple",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/loans", map[string]any{
		"icl_no": "ICL-002", "name": "Bad Date", "start_date": "15/01/2023", "interest_type": "simple",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAppendTransactionEndpoint(t *testing.T) {
	srv := newTestServer(t)
	loan := createTestLoan(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/loans/"+loan.ID.String()+"/transactions", map[string]any{
		"date":        "2023-01-15",
		"amount_paid": "10000",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result struct {
		Status  models.LoanStatus     `json:"status"`
		Ledger  []*models.Transaction `json:"ledger"`
		Balance decimal.Decimal       `json:"balance"`
	}
	decode(t, rec, &result)
	assert.Equal(t, models.LoanStatusActive, result.Status)
	require.Len(t, result.Ledger, 1)
	assert.True(t, decimal.RequireFromString("295.89").Equal(result.Ledger[0].InterestAmount),
		"got %s", result.Ledger[0].InterestAmount)
	assert.True(t, decimal.NewFromInt(10000).Equal(result.Balance))

	rec = doJSON(t, srv, http.MethodGet, "/loans/"+loan.ID.String()+"/transactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var txns []*models.Transaction
	decode(t, rec, &txns)
	assert.Len(t, txns, 1)
}

func TestAppendTransactionEndpointErrors(t *testing.T) {
	srv := newTestServer(t)
	loan := createTestLoan(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/loans/not-a-uuid/transactions", map[string]any{
		"date": "2023-01-15", "amount_paid": "10000",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/loans/00000000-0000-0000-0000-000000000000/transactions", map[string]any{
		"date": "2023-01-15", "amount_paid": "10000",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Both amounts set.
	rec = doJSON(t, srv, http.MethodPost, "/loans/"+loan.ID.String()+"/transactions", map[string]any{
		"date": "2023-02-01", "amount_paid": "100", "amount_repaid": "50",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteTransactionEndpoint(t *testing.T) {
	srv := newTestServer(t)
	loan := createTestLoan(t, srv)

	doJSON(t, srv, http.MethodPost, "/loans/"+loan.ID.String()+"/transactions", map[string]any{
		"date": "2023-01-15", "amount_paid": "10000",
	})
	rec := doJSON(t, srv, http.MethodPost, "/loans/"+loan.ID.String()+"/transactions", map[string]any{
		"date": "2023-02-01", "amount_paid": "5000",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var result struct {
		Ledger []*models.Transaction `json:"ledger"`
	}
	decode(t, rec, &result)
	target := result.Ledger[len(result.Ledger)-1]

	rec = doJSON(t, srv, http.MethodDelete,
		"/loans/"+loan.ID.String()+"/transactions/"+target.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var after struct {
		Balance decimal.Decimal `json:"balance"`
	}
	decode(t, rec, &after)
	assert.True(t, decimal.NewFromInt(10000).Equal(after.Balance))
}

func TestRecalculateEndpoint(t *testing.T) {
	srv := newTestServer(t)
	loan := createTestLoan(t, srv)
	doJSON(t, srv, http.MethodPost, "/loans/"+loan.ID.String()+"/transactions", map[string]any{
		"date": "2023-01-15", "amount_paid": "10000",
	})

	rec := doJSON(t, srv, http.MethodPost, "/loans/"+loan.ID.String()+"/recalculate", map[string]any{
		"from_date": "2023-01-15",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		Ledger  []*models.Transaction `json:"ledger"`
		Balance decimal.Decimal       `json:"balance"`
	}
	decode(t, rec, &result)
	assert.Len(t, result.Ledger, 1)
	assert.True(t, decimal.NewFromInt(10000).Equal(result.Balance))
}

func TestCloseLoanEndpointConflict(t *testing.T) {
	srv := newTestServer(t)
	loan := createTestLoan(t, srv)
	doJSON(t, srv, http.MethodPost, "/loans/"+loan.ID.String()+"/transactions", map[string]any{
		"date": "2023-01-15", "amount_paid": "10000",
	})

	rec := doJSON(t, srv, http.MethodPost, "/loans/"+loan.ID.String()+"/close", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "outstanding balance blocks closing")
}

func TestOverdueAndExtendEndpoints(t *testing.T) {
	srv := newTestServer(t)
	loan := createTestLoan(t, srv)
	doJSON(t, srv, http.MethodPost, "/loans/"+loan.ID.String()+"/transactions", map[string]any{
		"date": "2023-01-15", "amount_paid": "10000",
	})

	rec := doJSON(t, srv, http.MethodPost, "/loans/"+loan.ID.String()+"/overdue", map[string]any{
		"override": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result struct {
		Status models.LoanStatus `json:"status"`
	}
	decode(t, rec, &result)
	assert.Equal(t, models.LoanStatusOverdue, result.Status)

	future := time.Now().AddDate(2, 0, 0).Format(dateLayout)

	// Reason too short.
	rec = doJSON(t, srv, http.MethodPost, "/loans/"+loan.ID.String()+"/extend", map[string]any{
		"new_end_date": future, "reason": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/loans/"+loan.ID.String()+"/extend", map[string]any{
		"new_end_date": future, "reason": "repayment schedule renegotiated",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &result)
	assert.Equal(t, models.LoanStatusActive, result.Status, "extension clears the overdue flag")
}

func TestListLoansActiveFilter(t *testing.T) {
	srv := newTestServer(t)
	createTestLoan(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/loans", map[string]any{
		"icl_no":        "ICL-002",
		"name":          "Beta Finance",
		"start_date":    "2023-01-15",
		"interest_type": "simple",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var second models.Loan
	decode(t, rec, &second)

	// Nothing outstanding, so the second loan closes straight away.
	rec = doJSON(t, srv, http.MethodPost, "/loans/"+second.ID.String()+"/close", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodGet, "/loans", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []*models.Loan
	decode(t, rec, &all)
	assert.Len(t, all, 2)

	rec = doJSON(t, srv, http.MethodGet, "/loans?active=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var active []*models.Loan
	decode(t, rec, &active)
	require.Len(t, active, 1)
	assert.Equal(t, "ICL-001", active[0].ICLNo)
}

func TestListTransactionsFromDate(t *testing.T) {
	srv := newTestServer(t)
	loan := createTestLoan(t, srv)

	doJSON(t, srv, http.MethodPost, "/loans/"+loan.ID.String()+"/transactions", map[string]any{
		"date": "2023-01-15", "amount_paid": "10000",
	})
	doJSON(t, srv, http.MethodPost, "/loans/"+loan.ID.String()+"/transactions", map[string]any{
		"date": "2023-03-01", "amount_paid": "5000",
	})

	rec := doJSON(t, srv, http.MethodGet,
		"/loans/"+loan.ID.String()+"/transactions?from=2023-02-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var txns []*models.Transaction
	decode(t, rec, &txns)
	require.Len(t, txns, 1)
	assert.Equal(t, models.KindDeposit, txns[0].Kind)

	rec = doJSON(t, srv, http.MethodGet,
		"/loans/"+loan.ID.String()+"/transactions?from=bad-date", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteLoanEndpoint(t *testing.T) {
	srv := newTestServer(t)
	loan := createTestLoan(t, srv)

	rec := doJSON(t, srv, http.MethodDelete, "/loans/"+loan.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/loans/"+loan.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
