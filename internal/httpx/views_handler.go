package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-parcel-ledger/internal/export"
	"github.com/ariefcatur/go-parcel-ledger/internal/reconcile"
	"github.com/ariefcatur/go-parcel-ledger/internal/view"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// project reconciles the caller's snapshot for the view state in the query string.
func (h *LedgerHandler) project(w http.ResponseWriter, r *http.Request) (reconcile.Result, view.State, bool) {
	st := view.ParseState(r.URL.Query())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Ledger.Reconciled(ctx, userID(r), st.Archive)
	if err != nil {
		writeError(w, h.Log, err)
		return res, st, false
	}
	return res, st, true
}

func (h *LedgerHandler) orderView(w http.ResponseWriter, r *http.Request) {
	if res, st, ok := h.project(w, r); ok {
		writeJSON(w, http.StatusOK, view.Orders(res, st))
	}
}

func (h *LedgerHandler) parcelView(w http.ResponseWriter, r *http.Request) {
	if res, st, ok := h.project(w, r); ok {
		writeJSON(w, http.StatusOK, view.Parcels(res, st))
	}
}

func (h *LedgerHandler) itemView(w http.ResponseWriter, r *http.Request) {
	if res, st, ok := h.project(w, r); ok {
		writeJSON(w, http.StatusOK, view.Items(res, st))
	}
}

func (h *LedgerHandler) summary(w http.ResponseWriter, r *http.Request) {
	if res, st, ok := h.project(w, r); ok {
		writeJSON(w, http.StatusOK, view.Summarize(res, st))
	}
}

func (h *LedgerHandler) facets(w http.ResponseWriter, r *http.Request) {
	if res, st, ok := h.project(w, r); ok {
		writeJSON(w, http.StatusOK, view.FacetOptions(res, st))
	}
}

// exportCSV writes the filtered item view, so the file matches what the caller sees.
func (h *LedgerHandler) exportCSV(w http.ResponseWriter, r *http.Request) {
	res, st, ok := h.project(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="items.csv"`)
	if err := export.WriteCSV(w, view.Items(res, st).Rows, h.BaseCurrency); err != nil {
		h.Log.Sugar().Warnw("csv export interrupted", "user", userID(r), "error", err)
	}
}

func (h *LedgerHandler) exportXLSX(w http.ResponseWriter, r *http.Request) {
	res, st, ok := h.project(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="items.xlsx"`)
	if err := export.WriteXLSX(w, view.Items(res, st).Rows, h.BaseCurrency); err != nil {
		h.Log.Sugar().Warnw("xlsx export interrupted", "user", userID(r), "error", err)
	}
}

func (h *LedgerHandler) preferences(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	uid := userID(r)
	carriers, err := h.Ledger.Carriers(ctx, uid)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	stores, err := h.Ledger.Stores(ctx, uid)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"carriers":   carriers,
		"stores":     stores,
		"currencies": h.Ledger.Currencies(),
	})
}
