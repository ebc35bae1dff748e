package handler

import (
	"net/http"

	"go.uber.org/zap"
)

type stakeRequest struct {
	Quantity uint64 `json:"quantity"`
}

// Stake открывает позицию стейкинга по ставке текущего раунда.
func (h *Handler) Stake(w http.ResponseWriter, r *http.Request) {
	account, ok := h.account(w, r)
	if !ok {
		return
	}
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}

	var req stakeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	pos, err := h.service.Stake(r.Context(), account, id, req.Quantity)
	if err != nil {
		h.writeError(w, err, "stake error", zap.String("account", account), zap.Uint64("funding_id", id))
		return
	}

	h.writeJSON(w, http.StatusCreated, pos)
}

// GetPositions возвращает позиции пользователя в кампании.
func (h *Handler) GetPositions(w http.ResponseWriter, r *http.Request) {
	account, ok := h.account(w, r)
	if !ok {
		return
	}
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}

	positions, err := h.service.Positions(r.Context(), account, id)
	if err != nil {
		h.writeError(w, err, "get positions error", zap.String("account", account), zap.Uint64("funding_id", id))
		return
	}

	if len(positions) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeJSON(w, http.StatusOK, positions)
}

// GetPosition возвращает позицию вместе с начисленной наградой.
func (h *Handler) GetPosition(w http.ResponseWriter, r *http.Request) {
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}
	position, ok := uintParam(w, r, "position")
	if !ok {
		return
	}

	view, err := h.service.Position(r.Context(), id, position)
	if err != nil {
		h.writeError(w, err, "get position error", zap.Uint64("funding_id", id), zap.Uint64("position", position))
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

// Unstake досрочно закрывает позицию с удержанием комиссии.
func (h *Handler) Unstake(w http.ResponseWriter, r *http.Request) {
	account, ok := h.account(w, r)
	if !ok {
		return
	}
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}
	position, ok := uintParam(w, r, "position")
	if !ok {
		return
	}

	amount, err := h.service.Unstake(r.Context(), account, id, position)
	if err != nil {
		h.writeError(w, err, "unstake error",
			zap.String("account", account), zap.Uint64("funding_id", id), zap.Uint64("position", position))
		return
	}

	h.writeJSON(w, http.StatusOK, claimResponse{Amount: amount})
}

// ClaimStake выплачивает тело позиции и награду после срока погашения.
func (h *Handler) ClaimStake(w http.ResponseWriter, r *http.Request) {
	account, ok := h.account(w, r)
	if !ok {
		return
	}
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}
	position, ok := uintParam(w, r, "position")
	if !ok {
		return
	}

	amount, err := h.service.ClaimStake(r.Context(), account, id, position)
	if err != nil {
		h.writeError(w, err, "claim stake error",
			zap.String("account", account), zap.Uint64("funding_id", id), zap.Uint64("position", position))
		return
	}

	h.writeJSON(w, http.StatusOK, claimResponse{Amount: amount})
}
