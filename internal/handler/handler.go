// Package handler содержит HTTP-обработчики API сервиса лаунчпада.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/launchpad/internal/funding"
	"github.com/mmeshcher/launchpad/internal/middleware"
	"github.com/mmeshcher/launchpad/internal/model"
	"github.com/mmeshcher/launchpad/internal/repository"
	"github.com/mmeshcher/launchpad/internal/service"
	"github.com/mmeshcher/launchpad/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, login, password string) (string, error)
	AuthenticateUser(ctx context.Context, login, password string) (string, error)

	Balance(ctx context.Context, token, account string) uint64
	Approve(ctx context.Context, actor, token, spender string, amount uint64) error
	Transfer(ctx context.Context, actor, token, to string, amount uint64) error
	Mint(ctx context.Context, actor, token string, amount uint64) error

	CreateFunding(ctx context.Context, actor string, params model.FundingParams) (model.FundingRecord, error)
	Funding(ctx context.Context, id uint64) (model.FundingRecord, error)
	Owners(ctx context.Context, id uint64) ([]string, error)

	Instrument(ctx context.Context, id uint64, kind model.InstrumentKind) (model.InstrumentInfo, error)
	Buy(ctx context.Context, actor string, id uint64, kind model.InstrumentKind, quantity, payment uint64) (funding.BuyResult, error)
	Holdings(ctx context.Context, actor string, id uint64) ([]model.Holding, error)
	Claim(ctx context.Context, actor string, id uint64) (uint64, error)

	Stake(ctx context.Context, actor string, id, quantity uint64) (model.StakePosition, error)
	Position(ctx context.Context, id, position uint64) (model.StakePositionView, error)
	Positions(ctx context.Context, actor string, id uint64) ([]model.StakePosition, error)
	Unstake(ctx context.Context, actor string, id, position uint64) (uint64, error)
	ClaimStake(ctx context.Context, actor string, id, position uint64) (uint64, error)

	Reserve(ctx context.Context, id uint64) (model.ReserveBalance, error)
	Withdraw(ctx context.Context, actor string, id uint64, recipient string, amount uint64) error
	CreateProposal(ctx context.Context, actor string, id uint64, recipient string, amount uint64) (model.WithdrawProposal, error)
	Proposals(ctx context.Context, id uint64) ([]model.WithdrawProposal, error)
	Vote(ctx context.Context, actor string, proposalID uint64, approve bool) (model.WithdrawProposal, error)

	Events(ctx context.Context, id uint64, limit int) ([]model.Event, error)
}

// Handler реализует HTTP-обработчики API сервиса лаунчпада.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Register обрабатывает регистрацию нового пользователя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if !validation.IsValidAccount(req.Login) || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	account, err := h.service.RegisterUser(r.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
			return
		}
		h.logger.Error("register user error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.authMiddleware.SetAuthCookie(w, account)
	w.WriteHeader(http.StatusOK)
}

// Login выполняет аутентификацию пользователя и установку cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Login == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	account, err := h.service.AuthenticateUser(r.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		h.logger.Error("login user error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.authMiddleware.SetAuthCookie(w, account)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) account(w http.ResponseWriter, r *http.Request) (string, bool) {
	account, ok := middleware.GetAccountFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	}
	return account, ok
}

func uintParam(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	v, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || v == 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return 0, false
	}
	return v, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}
