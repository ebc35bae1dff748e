package handler

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/mmeshcher/launchpad/internal/model"
	"github.com/mmeshcher/launchpad/internal/validation"
)

const (
	defaultEventsLimit = 50
	maxEventsLimit     = 500
)

type withdrawRequest struct {
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
}

func (req withdrawRequest) valid() bool {
	return validation.IsValidAccount(req.Recipient) && req.Amount > 0
}

// GetReserve возвращает валовый баланс резерва, обязательства и доступный к выводу остаток.
func (h *Handler) GetReserve(w http.ResponseWriter, r *http.Request) {
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}

	reserve, err := h.service.Reserve(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "get reserve error", zap.Uint64("funding_id", id))
		return
	}

	h.writeJSON(w, http.StatusOK, reserve)
}

// Withdraw выполняет прямой вывод из резерва для кампании с единственным владельцем.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	account, ok := h.account(w, r)
	if !ok {
		return
	}
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}

	var req withdrawRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.valid() {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.Withdraw(r.Context(), account, id, req.Recipient, req.Amount); err != nil {
		h.writeError(w, err, "withdraw error", zap.String("account", account), zap.Uint64("funding_id", id))
		return
	}

	w.WriteHeader(http.StatusOK)
}

// CreateProposal открывает предложение о выводе для кампании с несколькими владельцами.
func (h *Handler) CreateProposal(w http.ResponseWriter, r *http.Request) {
	account, ok := h.account(w, r)
	if !ok {
		return
	}
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}

	var req withdrawRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.valid() {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	prop, err := h.service.CreateProposal(r.Context(), account, id, req.Recipient, req.Amount)
	if err != nil {
		h.writeError(w, err, "create proposal error", zap.String("account", account), zap.Uint64("funding_id", id))
		return
	}

	h.writeJSON(w, http.StatusCreated, prop)
}

// GetProposals возвращает все предложения кампании.
func (h *Handler) GetProposals(w http.ResponseWriter, r *http.Request) {
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}

	proposals, err := h.service.Proposals(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "get proposals error", zap.Uint64("funding_id", id))
		return
	}

	if len(proposals) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeJSON(w, http.StatusOK, proposals)
}

type voteRequest struct {
	Vote model.Vote `json:"vote"`
}

// Vote записывает голос владельца. Повторный голос перезаписывает предыдущий.
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	account, ok := h.account(w, r)
	if !ok {
		return
	}
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}

	var req voteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Vote != model.VoteApprove && req.Vote != model.VoteDeny {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	prop, err := h.service.Vote(r.Context(), account, id, req.Vote == model.VoteApprove)
	if err != nil {
		h.writeError(w, err, "vote error", zap.String("account", account), zap.Uint64("proposal_id", id))
		return
	}

	h.writeJSON(w, http.StatusOK, prop)
}

// GetEvents возвращает журнал событий кампании. Параметр limit ограничивает число последних событий.
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}

	limit := defaultEventsLimit
	if q := r.URL.Query().Get("limit"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v <= 0 {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		limit = min(v, maxEventsLimit)
	}

	events, err := h.service.Events(r.Context(), id, limit)
	if err != nil {
		h.writeError(w, err, "get events error", zap.Uint64("funding_id", id))
		return
	}

	if len(events) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeJSON(w, http.StatusOK, events)
}
