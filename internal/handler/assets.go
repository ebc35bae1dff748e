package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/launchpad/internal/validation"
)

type amountRequest struct {
	Spender string `json:"spender,omitempty"`
	To      string `json:"to,omitempty"`
	Amount  uint64 `json:"amount"`
}

type balanceResponse struct {
	Token   string `json:"token"`
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

func tokenParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := chi.URLParam(r, "token")
	if !validation.IsValidToken(token) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return "", false
	}
	return token, true
}

// GetBalance возвращает баланс токена. Параметр account позволяет посмотреть чужой аккаунт или аккаунт компонента.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	account, ok := h.account(w, r)
	if !ok {
		return
	}
	token, ok := tokenParam(w, r)
	if !ok {
		return
	}

	if q := r.URL.Query().Get("account"); q != "" {
		if !validation.IsValidSpender(q) {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		account = q
	}

	h.writeJSON(w, http.StatusOK, balanceResponse{
		Token:   token,
		Account: account,
		Balance: h.service.Balance(r.Context(), token, account),
	})
}

// Approve выдаёт разрешение на списание токенов пользователю или компоненту кампании.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	account, ok := h.account(w, r)
	if !ok {
		return
	}
	token, ok := tokenParam(w, r)
	if !ok {
		return
	}

	var req amountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validation.IsValidSpender(req.Spender) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.Approve(r.Context(), account, token, req.Spender, req.Amount); err != nil {
		h.writeError(w, err, "approve error", zap.String("account", account), zap.String("token", token))
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Transfer переводит токены с аккаунта пользователя.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	account, ok := h.account(w, r)
	if !ok {
		return
	}
	token, ok := tokenParam(w, r)
	if !ok {
		return
	}

	var req amountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validation.IsValidAccount(req.To) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.Transfer(r.Context(), account, token, req.To, req.Amount); err != nil {
		h.writeError(w, err, "transfer error", zap.String("account", account), zap.String("token", token))
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Mint выпускает тестовые токены на аккаунт пользователя, если кран включён.
func (h *Handler) Mint(w http.ResponseWriter, r *http.Request) {
	account, ok := h.account(w, r)
	if !ok {
		return
	}
	token, ok := tokenParam(w, r)
	if !ok {
		return
	}

	var req amountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.Mint(r.Context(), account, token, req.Amount); err != nil {
		h.writeError(w, err, "mint error", zap.String("account", account), zap.String("token", token))
		return
	}

	w.WriteHeader(http.StatusOK)
}
