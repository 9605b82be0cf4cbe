// 文件路径: internal/api/handler/address.go
// 模块说明: 用户收货地址的增删改查。
package handler

import (
	"net/http"

	"github.com/creamcroissant/shopboard/internal/api/requestctx"
	"github.com/creamcroissant/shopboard/internal/service"
	"github.com/creamcroissant/shopboard/internal/support/i18n"
)

// AddressHandler exposes /user/addresses.
type AddressHandler struct {
	addresses service.AddressService
	i18n      *i18n.Manager
}

func NewAddressHandler(addresses service.AddressService, i18nMgr *i18n.Manager) *AddressHandler {
	return &AddressHandler{addresses: addresses, i18n: i18nMgr}
}

func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := requestctx.UserFromContext(ctx)
	if !claims.Authenticated() {
		RespondErrorI18n(ctx, w, http.StatusUnauthorized, "error.unauthorized", h.i18n)
		return
	}
	items, err := h.addresses.List(ctx, claims.ID)
	if err != nil {
		respondServiceError(ctx, w, "address.list", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, items)
}

func (h *AddressHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := requestctx.UserFromContext(ctx)
	if !claims.Authenticated() {
		RespondErrorI18n(ctx, w, http.StatusUnauthorized, "error.unauthorized", h.i18n)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		RespondErrorI18n(ctx, w, http.StatusBadRequest, "error.bad_request", h.i18n)
		return
	}
	addr, err := h.addresses.Get(ctx, claims.ID, id)
	if err != nil {
		respondServiceError(ctx, w, "address.get", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, addr)
}

func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, false)
}

func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, true)
}

func (h *AddressHandler) save(w http.ResponseWriter, r *http.Request, update bool) {
	ctx := r.Context()
	claims := requestctx.UserFromContext(ctx)
	if !claims.Authenticated() {
		RespondErrorI18n(ctx, w, http.StatusUnauthorized, "error.unauthorized", h.i18n)
		return
	}
	var payload service.AddressInput
	if err := decodeJSON(r, &payload); err != nil {
		RespondErrorI18n(ctx, w, http.StatusBadRequest, "error.bad_request", h.i18n)
		return
	}
	status := http.StatusCreated
	payload.ID = 0
	if update {
		id, err := pathID(r, "id")
		if err != nil {
			RespondErrorI18n(ctx, w, http.StatusBadRequest, "error.bad_request", h.i18n)
			return
		}
		payload.ID = id
		status = http.StatusOK
	}
	addr, err := h.addresses.Save(ctx, claims.ID, payload)
	if err != nil {
		respondServiceError(ctx, w, "address.save", err, h.i18n)
		return
	}
	respondData(w, status, addr)
}

func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := requestctx.UserFromContext(ctx)
	if !claims.Authenticated() {
		RespondErrorI18n(ctx, w, http.StatusUnauthorized, "error.unauthorized", h.i18n)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		RespondErrorI18n(ctx, w, http.StatusBadRequest, "error.bad_request", h.i18n)
		return
	}
	if err := h.addresses.Delete(ctx, claims.ID, id); err != nil {
		respondServiceError(ctx, w, "address.delete", err, h.i18n)
		return
	}
	RespondSuccessI18n(ctx, w, "success.deleted", h.i18n, nil)
}
