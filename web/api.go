package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/robinvdvleuten/mininab/category"
	"github.com/robinvdvleuten/mininab/command"
	"github.com/robinvdvleuten/mininab/ledger"
	"github.com/robinvdvleuten/mininab/month"
	"github.com/robinvdvleuten/mininab/report"
	"github.com/robinvdvleuten/mininab/storage"
)

// maxCommandBytes caps POST /api/commands bodies.
const maxCommandBytes = 1 << 20

// writeJSONResponse writes a JSON response to the http.ResponseWriter.
// If encoding fails, it writes an error response.
func writeJSONResponse(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// ErrorResponse is the JSON body of every failed API request.
type ErrorResponse struct {
	Error  string   `json:"error"`
	Kind   string   `json:"kind"`
	Errors []string `json:"errors,omitempty"`
}

// errorStatus maps an error to its HTTP status and a stable kind tag.
func errorStatus(err error) (int, string) {
	var (
		verrs       *ledger.ValidationErrors
		monthErr    *month.FormatError
		pathErr     *category.InvalidPathError
		dupErr      *ledger.DuplicateAccountError
		kindErr     *ledger.InvalidAccountKindError
		nameErr     *ledger.InvalidAccountNameError
		accountErr  *ledger.UnknownAccountError
		categoryErr *ledger.UnknownCategoryError
		rolloverErr *ledger.RolloverAppliedError
		opErr       *command.UnknownOpError
		saveErr     *storage.SaveError
	)

	switch {
	case errors.As(err, &verrs):
		return http.StatusUnprocessableEntity, "validation"
	case errors.As(err, &monthErr):
		return http.StatusBadRequest, "invalid_month"
	case errors.As(err, &pathErr):
		return http.StatusBadRequest, "invalid_category_path"
	case errors.As(err, &dupErr):
		return http.StatusConflict, "duplicate_account"
	case errors.As(err, &kindErr):
		return http.StatusBadRequest, "invalid_account_kind"
	case errors.As(err, &nameErr):
		return http.StatusBadRequest, "invalid_account_name"
	case errors.As(err, &accountErr):
		return http.StatusUnprocessableEntity, "unknown_account"
	case errors.As(err, &categoryErr):
		return http.StatusUnprocessableEntity, "unknown_category"
	case errors.As(err, &rolloverErr):
		return http.StatusConflict, "rollover_applied"
	case errors.As(err, &opErr):
		return http.StatusBadRequest, "unknown_op"
	case errors.As(err, &saveErr):
		return http.StatusInternalServerError, "save_failed"
	}
	return http.StatusBadRequest, "bad_request"
}

func writeError(w http.ResponseWriter, err error) {
	status, kind := errorStatus(err)
	resp := ErrorResponse{Error: err.Error(), Kind: kind}

	var verrs *ledger.ValidationErrors
	if errors.As(err, &verrs) {
		for _, e := range verrs.Errors {
			resp.Errors = append(resp.Errors, e.Error())
		}
	}
	writeJSONStatus(w, status, resp)
}

// VersionResponse is the JSON response structure for the version endpoint.
type VersionResponse struct {
	Version   string `json:"version"`
	CommitSHA string `json:"commit_sha"`
	ReadOnly  bool   `json:"read_only"`
}

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, &VersionResponse{Version: s.Version, CommitSHA: s.CommitSHA, ReadOnly: s.ReadOnly})
}

// handleGetSummary handles GET /api/summary.
func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	writeJSONResponse(w, report.Summarize(s.ledger))
}

// handleGetMonth handles GET /api/months/{month}. Any accepted month format
// may be used in the path.
func (s *Server) handleGetMonth(w http.ResponseWriter, r *http.Request) {
	m, err := month.Parse(r.PathValue("month"))
	if err != nil {
		writeError(w, err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	writeJSONResponse(w, report.Month(s.ledger, m))
}

// TransactionInfo is the JSON form of a transaction. Empty account or
// category fields are null.
type TransactionInfo struct {
	Month    month.Key `json:"month"`
	Account  *string   `json:"account"`
	Category *string   `json:"category"`
	Amount   string    `json:"amount"`
}

// TransactionsResponse is the JSON response structure for the transactions endpoint.
type TransactionsResponse struct {
	Transactions []TransactionInfo `json:"transactions"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// handleGetTransactions handles GET /api/transactions with optional month,
// account and category query filters.
func (s *Server) handleGetTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := report.Filter{Account: q.Get("account"), Category: q.Get("category")}
	if text := q.Get("month"); text != "" {
		m, err := month.Parse(text)
		if err != nil {
			writeError(w, err)
			return
		}
		filter.Month = m
	}

	s.mu.RLock()
	txns := report.Transactions(s.ledger, filter)
	s.mu.RUnlock()

	resp := &TransactionsResponse{Transactions: make([]TransactionInfo, 0, len(txns))}
	for _, t := range txns {
		resp.Transactions = append(resp.Transactions, TransactionInfo{
			Month:    t.Month,
			Account:  nullable(t.Account),
			Category: nullable(t.Category),
			Amount:   ledger.FormatAmount(t.Amount),
		})
	}
	writeJSONResponse(w, resp)
}

// handlePostCommand handles POST /api/commands. The body is a command
// envelope such as {"op":"assign","month":"2024-03","category":"Food","amount":"20"}.
func (s *Server) handlePostCommand(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxCommandBytes))
	if err != nil {
		writeError(w, err)
		return
	}

	cmd, err := command.Decode(body)
	if err != nil {
		s.metrics.commandsTotal.WithLabelValues("unknown", resultInvalid).Inc()
		writeError(w, err)
		return
	}
	op := cmd.Name()
	defer func() {
		s.metrics.commandDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	ctx := s.logger.WithContext(r.Context())

	s.mu.Lock()
	previous := s.ledger.Clone()

	res, err := cmd.Apply(ctx, s.ledger)
	if err != nil {
		s.mu.Unlock()
		s.metrics.commandsTotal.WithLabelValues(op, resultRejected).Inc()
		writeError(w, err)
		return
	}

	if err := s.store.Save(ctx, s.ledger); err != nil {
		s.ledger = previous
		s.mu.Unlock()
		s.metrics.commandsTotal.WithLabelValues(op, resultSaveFailed).Inc()
		writeError(w, err)
		return
	}
	s.mu.Unlock()

	s.metrics.commandsTotal.WithLabelValues(op, resultApplied).Inc()
	s.broadcast("update")
	writeJSONResponse(w, res)
}
