package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/iclbooks/iclledger/pkg/config"
	"github.com/iclbooks/iclledger/pkg/ledger"
	"github.com/iclbooks/iclledger/pkg/models"
	"github.com/iclbooks/iclledger/pkg/store"
)

const dateLayout = "2006-01-02"

// Server exposes the ledger engine over HTTP. It does no business logic of
// its own: JSON in, engine call, JSON out.
type Server struct {
	ledger  *ledger.Ledger
	storage store.Storage
	logger  *slog.Logger
}

func NewServer(s store.Storage, logger *slog.Logger) *Server {
	return &Server{
		ledger:  ledger.New(s, logger),
		storage: s,
		logger:  logger,
	}
}

// actor pulls the acting user's id from the request; every engine call
// requires one.
func actor(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Actor"))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// writeError maps engine error kinds onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *models.ValidationError
		stateErr      *models.StateError
		recalcErr     *models.RecalculationError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &stateErr):
		status = http.StatusConflict
	case errors.Is(err, store.ErrLoanNotFound), errors.Is(err, store.ErrTransactionNotFound):
		status = http.StatusNotFound
	case errors.As(err, &recalcErr):
		status = http.StatusInternalServerError
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, value)
}

func parseDatePtr(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func loanID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)["id"])
}

type createLoanRequest struct {
	ICLNo                string          `json:"icl_no"`
	Name                 string          `json:"name"`
	Address              string          `json:"address"`
	ContactDetails       string          `json:"contact_details"`
	AnnualRate           decimal.Decimal `json:"annual_rate"`
	StartDate            string          `json:"start_date"`
	EndDate              string          `json:"end_date"`
	InterestType         string          `json:"interest_type"`
	CompoundFrequency    string          `json:"compound_frequency"`
	FirstCompoundingDate string          `json:"first_compounding_date"`
	TDSApplicable        bool            `json:"tds_applicable"`
	TDSPercentage        decimal.Decimal `json:"tds_percentage"`
}

func (s *Server) createLoanHandler(w http.ResponseWriter, r *http.Request) {
	var req createLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		s.writeError(w, models.Validationf("invalid start_date: %v", err))
		return
	}
	end, err := parseDatePtr(req.EndDate)
	if err != nil {
		s.writeError(w, models.Validationf("invalid end_date: %v", err))
		return
	}
	firstCompounding, err := parseDatePtr(req.FirstCompoundingDate)
	if err != nil {
		s.writeError(w, models.Validationf("invalid first_compounding_date: %v", err))
		return
	}

	loan, err := s.ledger.CreateLoan(ledger.LoanParams{
		ICLNo:                req.ICLNo,
		Name:                 req.Name,
		Address:              req.Address,
		ContactDetails:       req.ContactDetails,
		AnnualRate:           req.AnnualRate,
		StartDate:            start,
		EndDate:              end,
		InterestType:         models.InterestType(req.InterestType),
		CompoundFrequency:    models.Frequency(req.CompoundFrequency),
		FirstCompoundingDate: firstCompounding,
		TDSApplicable:        req.TDSApplicable,
		TDSPercentage:        req.TDSPercentage,
	}, actor(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, loan)
}

func (s *Server) getLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := loanID(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid loan ID"})
		return
	}
	loan, err := s.ledger.GetLoan(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, loan)
}

func (s *Server) listLoansHandler(w http.ResponseWriter, r *http.Request) {
	var loans []*models.Loan
	var err error
	if r.URL.Query().Get("active") == "true" {
		loans, err = s.ledger.GetActiveLoans()
	} else {
		loans, err = s.ledger.GetAllLoans()
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, loans)
}

func (s *Server) deleteLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := loanID(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid loan ID"})
		return
	}
	if err := s.storage.DeleteLoan(id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := loanID(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid loan ID"})
		return
	}
	var txns []*models.Transaction
	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		from, perr := time.Parse(dateLayout, fromStr)
		if perr != nil {
			s.writeError(w, models.Validationf("invalid from: %v", perr))
			return
		}
		txns, err = s.ledger.GetLedgerFrom(id, from)
	} else {
		txns, err = s.ledger.GetLedger(id)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, txns)
}

type appendTransactionRequest struct {
	Date         string          `json:"date"`
	AmountPaid   decimal.Decimal `json:"amount_paid"`
	AmountRepaid decimal.Decimal `json:"amount_repaid"`
	PeriodFrom   string          `json:"period_from"`
	PeriodTo     string          `json:"period_to"`
}

func (s *Server) appendTransactionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := loanID(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid loan ID"})
		return
	}
	var req appendTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		s.writeError(w, models.Validationf("invalid date: %v", err))
		return
	}
	periodFrom, err := parseDatePtr(req.PeriodFrom)
	if err != nil {
		s.writeError(w, models.Validationf("invalid period_from: %v", err))
		return
	}
	periodTo, err := parseDatePtr(req.PeriodTo)
	if err != nil {
		s.writeError(w, models.Validationf("invalid period_to: %v", err))
		return
	}

	result, err := s.ledger.AppendTransaction(id, ledger.Intent{
		Date:         date,
		AmountPaid:   req.AmountPaid,
		AmountRepaid: req.AmountRepaid,
		PeriodFrom:   periodFrom,
		PeriodTo:     periodTo,
	}, actor(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, result)
}

func (s *Server) deleteTransactionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := loanID(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid loan ID"})
		return
	}
	txnID, err := uuid.Parse(mux.Vars(r)["txnID"])
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid transaction ID"})
		return
	}
	result, err := s.ledger.RemoveTransaction(id, txnID, actor(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) recalculateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := loanID(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid loan ID"})
		return
	}
	var req struct {
		FromDate string `json:"from_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	from, err := parseDate(req.FromDate)
	if err != nil {
		s.writeError(w, models.Validationf("invalid from_date: %v", err))
		return
	}
	result, err := s.ledger.RecalculateFrom(id, from, actor(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) closeLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := loanID(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid loan ID"})
		return
	}
	result, err := s.ledger.CloseLoan(id, actor(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) markOverdueHandler(w http.ResponseWriter, r *http.Request) {
	id, err := loanID(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid loan ID"})
		return
	}
	var req struct {
		Override bool `json:"override"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}
	result, err := s.ledger.MarkOverdue(id, req.Override, actor(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) extendLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := loanID(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid loan ID"})
		return
	}
	var req struct {
		NewEndDate string `json:"new_end_date"`
		Reason     string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	newEnd, err := parseDate(req.NewEndDate)
	if err != nil || newEnd.IsZero() {
		s.writeError(w, models.Validationf("invalid new_end_date"))
		return
	}
	result, err := s.ledger.ExtendLoan(id, newEnd, req.Reason, actor(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// Router wires all endpoints.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/loans", s.listLoansHandler).Methods("GET")
	router.HandleFunc("/loans", s.createLoanHandler).Methods("POST")
	router.HandleFunc("/loans/{id}", s.getLoanHandler).Methods("GET")
	router.HandleFunc("/loans/{id}", s.deleteLoanHandler).Methods("DELETE")
	router.HandleFunc("/loans/{id}/transactions", s.listTransactionsHandler).Methods("GET")
	router.HandleFunc("/loans/{id}/transactions", s.appendTransactionHandler).Methods("POST")
	router.HandleFunc("/loans/{id}/transactions/{txnID}", s.deleteTransactionHandler).Methods("DELETE")
	router.HandleFunc("/loans/{id}/recalculate", s.recalculateHandler).Methods("POST")
	router.HandleFunc("/loans/{id}/close", s.closeLoanHandler).Methods("POST")
	router.HandleFunc("/loans/{id}/overdue", s.markOverdueHandler).Methods("POST")
	router.HandleFunc("/loans/{id}/extend", s.extendLoanHandler).Methods("POST")
	return router
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func main() {
	cfg, err := config.Load(os.Getenv("ICLLEDGER_CONFIG"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Log)

	sqliteStore, err := store.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		logger.Error("failed to initialize SQLite store", "error", err)
		os.Exit(1)
	}
	defer sqliteStore.Close()

	server := NewServer(sqliteStore, logger)
	logger.Info("server starting", "addr", cfg.Server.Addr, "db", cfg.Storage.Path)
	if err := http.ListenAndServe(cfg.Server.Addr, server.Router()); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
