package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/dyike/DivGo/internal/advisory"
	"github.com/dyike/DivGo/internal/dataflows"
	"github.com/dyike/DivGo/internal/engine"
	"github.com/dyike/DivGo/internal/logger"
	"github.com/dyike/DivGo/internal/scanner"
)

type rowView struct {
	Symbol              string              `json:"symbol"`
	Name                string              `json:"name"`
	QuoteURL            string              `json:"quote_url"`
	History             string              `json:"history"`
	Frequency           engine.Frequency    `json:"frequency"`
	LastPrice           decimal.Decimal     `json:"last_price"`
	AnnualIncomePerLot  decimal.Decimal     `json:"annual_income_per_lot"`
	MonthlyIncomePerLot decimal.Decimal     `json:"monthly_income_per_lot"`
	YieldPercent        decimal.NullDecimal `json:"yield_percent"`
}

func newRowView(r engine.Row) rowView {
	return rowView{
		Symbol:              r.Quote.Symbol,
		Name:                r.Quote.DisplayName,
		QuoteURL:            dataflows.QuoteURL(r.Quote.Symbol),
		History:             r.Metrics.HistoryString(),
		Frequency:           r.Metrics.Frequency,
		LastPrice:           r.Quote.LastPrice,
		AnnualIncomePerLot:  r.Metrics.AnnualIncomePerLot.Truncate(0),
		MonthlyIncomePerLot: r.Metrics.MonthlyIncomePerLot.Truncate(0),
		YieldPercent:        roundYield(r.Metrics.YieldPercent),
	}
}

func roundYield(y decimal.NullDecimal) decimal.NullDecimal {
	if !y.Valid {
		return y
	}
	return decimal.NewNullDecimal(y.Decimal.Round(2))
}

type rankingsResponse struct {
	ScanID   string         `json:"scan_id"`
	AsOf     time.Time      `json:"as_of"`
	Sort     engine.SortKey `json:"sort"`
	Query    string         `json:"query,omitempty"`
	Total    int            `json:"total"`
	Rows     []rowView      `json:"rows"`
	Skipped  []scanner.Skip `json:"skipped"`
	Unpriced []rowView      `json:"unpriced"`
	Degraded bool           `json:"degraded"`
	Reason   string         `json:"reason,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{"status": "ok"}
	if snap := s.Snapshot(); snap != nil {
		body["last_scan"] = snap.Result.Finished
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	snap := s.Snapshot()
	if snap == nil {
		sendJSONError(w, "no scan has completed yet", http.StatusServiceUnavailable)
		return
	}

	q := r.URL.Query()
	key, err := engine.ParseSortKey(q.Get("sort"))
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			sendJSONError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
	}

	ranked := snap.Result.Ranked(key, q.Get("q"))
	total := len(ranked)
	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}

	rows := make([]rowView, 0, len(ranked))
	for _, row := range ranked {
		rows = append(rows, newRowView(row))
	}
	unpriced := make([]rowView, 0, len(snap.Result.Unpriced))
	for _, row := range engine.Filter(snap.Result.Unpriced, q.Get("q")) {
		unpriced = append(unpriced, newRowView(row))
	}
	writeJSON(w, http.StatusOK, rankingsResponse{
		ScanID:   snap.Result.ID,
		AsOf:     snap.Result.Started,
		Sort:     key,
		Query:    q.Get("q"),
		Total:    total,
		Rows:     rows,
		Skipped:  snap.Result.Skipped,
		Unpriced: unpriced,
		Degraded: snap.Listing.Degraded,
		Reason:   snap.Listing.Reason,
	})
}

func (s *Server) handleInstruments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dir.List(r.Context()))
}

// evaluate resolves the display name from the directory and computes one row.
func (s *Server) evaluate(r *http.Request) (engine.Row, int, error) {
	symbol := dataflows.NormalizeSymbol(chi.URLParam(r, "symbol"))
	name := s.dir.List(r.Context()).Instruments[symbol]

	out := s.scanner.Evaluate(r.Context(), symbol, name, s.now())
	if out.Err != nil {
		return engine.Row{}, statusFor(out.Err), out.Err
	}
	return *out.Row, http.StatusOK, nil
}

func (s *Server) handleCalc(w http.ResponseWriter, r *http.Request) {
	cash, err := decimal.NewFromString(r.URL.Query().Get("cash"))
	if err != nil {
		sendJSONError(w, "cash must be a decimal amount", http.StatusBadRequest)
		return
	}

	row, status, err := s.evaluate(r)
	if err != nil {
		sendJSONError(w, err.Error(), status)
		return
	}

	entry, err := engine.ProjectPurchase(cash, row.Quote.LastPrice, row.Metrics.MonthlyIncomePerLot, row.Metrics.LotSize)
	if err != nil {
		sendJSONError(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"row":          newRowView(row),
		"cash":         cash,
		"entry":        entry,
		"insufficient": entry.Insufficient(),
	})
}

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	row, status, err := s.evaluate(r)
	if err != nil {
		sendJSONError(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": row.Quote.Symbol,
		"digest": advisory.Digest(row.Quote, row.Metrics),
		"advice": s.advisor.Advise(r.Context(), row.Quote, row.Metrics),
	})
}

func (s *Server) handleRescan(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Rescan(s.base)
	if errors.Is(err, ErrScanInProgress) {
		sendJSONError(w, err.Error(), http.StatusConflict)
		return
	}
	if errors.Is(err, ErrScanInterrupted) {
		sendJSONError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scan_id":  snap.Result.ID,
		"rows":     len(snap.Result.Rows),
		"skipped":  len(snap.Result.Skipped),
		"degraded": snap.Listing.Degraded,
	})
}

func statusFor(err error) int {
	switch scanner.Reason(err) {
	case scanner.ReasonInvalidInput:
		return http.StatusBadRequest
	case scanner.ReasonUnknownPrice:
		return http.StatusUnprocessableEntity
	case scanner.ReasonCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Component("http").WithError(err).Warn("failed to encode response")
	}
}

func sendJSONError(w http.ResponseWriter, message string, statusCode int) {
	logger.Component("http").WithField("status", statusCode).Debug(message)
	writeJSON(w, statusCode, map[string]string{"error": message})
}
