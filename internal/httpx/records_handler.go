package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-parcel-ledger/internal/orders"
	"github.com/ariefcatur/go-parcel-ledger/internal/tracker"
)

func writeCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 5*time.Second)
}

// done answers a mutation: the value on success, the mapped error otherwise.
func (h *LedgerHandler) done(w http.ResponseWriter, code int, v any, err error) {
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if v == nil {
		w.WriteHeader(code)
		return
	}
	writeJSON(w, code, v)
}

func (h *LedgerHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var o orders.Order
	if !decode(w, r, &o) {
		return
	}
	ctx, cancel := writeCtx(r)
	defer cancel()
	h.done(w, http.StatusCreated, &o, h.Ledger.CreateOrder(ctx, userID(r), &o))
}

// updateOrder also archives and unarchives: {"is_archived": true|false}.
func (h *LedgerHandler) updateOrder(w http.ResponseWriter, r *http.Request) {
	var p orders.OrderPatch
	if !decode(w, r, &p) {
		return
	}
	ctx, cancel := writeCtx(r)
	defer cancel()
	o, err := h.Ledger.UpdateOrder(ctx, userID(r), chi.URLParam(r, "id"), p)
	h.done(w, http.StatusOK, o, err)
}

func (h *LedgerHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := writeCtx(r)
	defer cancel()
	h.done(w, http.StatusNoContent, nil, h.Ledger.DeleteOrder(ctx, userID(r), chi.URLParam(r, "id")))
}

func (h *LedgerHandler) createItem(w http.ResponseWriter, r *http.Request) {
	var it orders.OrderItem
	if !decode(w, r, &it) {
		return
	}
	it.OrderID = chi.URLParam(r, "id")
	ctx, cancel := writeCtx(r)
	defer cancel()
	h.done(w, http.StatusCreated, &it, h.Ledger.CreateOrderItem(ctx, userID(r), &it))
}

func (h *LedgerHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	var p orders.OrderItemPatch
	if !decode(w, r, &p) {
		return
	}
	ctx, cancel := writeCtx(r)
	defer cancel()
	it, err := h.Ledger.UpdateOrderItem(ctx, userID(r), chi.URLParam(r, "id"), p)
	h.done(w, http.StatusOK, it, err)
}

func (h *LedgerHandler) deleteItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := writeCtx(r)
	defer cancel()
	h.done(w, http.StatusNoContent, nil, h.Ledger.DeleteOrderItem(ctx, userID(r), chi.URLParam(r, "id")))
}

func (h *LedgerHandler) createParcel(w http.ResponseWriter, r *http.Request) {
	var p orders.Parcel
	if !decode(w, r, &p) {
		return
	}
	ctx, cancel := writeCtx(r)
	defer cancel()
	h.done(w, http.StatusCreated, &p, h.Ledger.CreateParcel(ctx, userID(r), &p))
}

func (h *LedgerHandler) updateParcel(w http.ResponseWriter, r *http.Request) {
	var p orders.ParcelPatch
	if !decode(w, r, &p) {
		return
	}
	ctx, cancel := writeCtx(r)
	defer cancel()
	out, err := h.Ledger.UpdateParcel(ctx, userID(r), chi.URLParam(r, "id"), p)
	h.done(w, http.StatusOK, out, err)
}

func (h *LedgerHandler) deleteParcel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := writeCtx(r)
	defer cancel()
	h.done(w, http.StatusNoContent, nil, h.Ledger.DeleteParcel(ctx, userID(r), chi.URLParam(r, "id")))
}

type linkReq struct {
	OrderItemID string `json:"order_item_id"`
	Quantity    int    `json:"quantity"`
}

func (h *LedgerHandler) listParcelItems(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	links, err := h.Ledger.ParcelItems(ctx, userID(r), chi.URLParam(r, "id"))
	h.done(w, http.StatusOK, links, err)
}

func (h *LedgerHandler) addParcelItem(w http.ResponseWriter, r *http.Request) {
	var req linkReq
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := writeCtx(r)
	defer cancel()
	l, err := h.Ledger.AddParcelItem(ctx, userID(r), chi.URLParam(r, "id"), req.OrderItemID, req.Quantity)
	h.done(w, http.StatusCreated, l, err)
}

// syncParcelItems replaces the parcel's contents with the listed quantities.
func (h *LedgerHandler) syncParcelItems(w http.ResponseWriter, r *http.Request) {
	var want []tracker.ParcelContent
	if !decode(w, r, &want) {
		return
	}
	ctx, cancel := writeCtx(r)
	defer cancel()
	links, err := h.Ledger.SyncParcelItems(ctx, userID(r), chi.URLParam(r, "id"), want)
	h.done(w, http.StatusOK, links, err)
}

func (h *LedgerHandler) updateParcelItem(w http.ResponseWriter, r *http.Request) {
	var req linkReq
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := writeCtx(r)
	defer cancel()
	l, err := h.Ledger.UpdateParcelItem(ctx, userID(r), chi.URLParam(r, "id"), chi.URLParam(r, "linkID"), req.Quantity)
	h.done(w, http.StatusOK, l, err)
}

func (h *LedgerHandler) removeParcelItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := writeCtx(r)
	defer cancel()
	err := h.Ledger.RemoveParcelItem(ctx, userID(r), chi.URLParam(r, "id"), chi.URLParam(r, "linkID"))
	h.done(w, http.StatusNoContent, nil, err)
}

func (h *LedgerHandler) listCarriers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	cs, err := h.Ledger.Carriers(ctx, userID(r))
	h.done(w, http.StatusOK, cs, err)
}

func (h *LedgerHandler) createCarrier(w http.ResponseWriter, r *http.Request) {
	var c orders.Carrier
	if !decode(w, r, &c) {
		return
	}
	ctx, cancel := writeCtx(r)
	defer cancel()
	h.done(w, http.StatusCreated, &c, h.Ledger.CreateCarrier(ctx, userID(r), &c))
}

func (h *LedgerHandler) deleteCarrier(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := writeCtx(r)
	defer cancel()
	h.done(w, http.StatusNoContent, nil, h.Ledger.DeleteCarrier(ctx, userID(r), chi.URLParam(r, "id")))
}

func (h *LedgerHandler) listStores(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	ss, err := h.Ledger.Stores(ctx, userID(r))
	h.done(w, http.StatusOK, ss, err)
}

func (h *LedgerHandler) createStore(w http.ResponseWriter, r *http.Request) {
	var s orders.Store
	if !decode(w, r, &s) {
		return
	}
	ctx, cancel := writeCtx(r)
	defer cancel()
	h.done(w, http.StatusCreated, &s, h.Ledger.CreateStore(ctx, userID(r), &s))
}

func (h *LedgerHandler) deleteStore(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := writeCtx(r)
	defer cancel()
	h.done(w, http.StatusNoContent, nil, h.Ledger.DeleteStore(ctx, userID(r), chi.URLParam(r, "id")))
}
