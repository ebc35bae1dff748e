package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/launchpad/internal/model"
	"github.com/mmeshcher/launchpad/internal/validation"
)

// roundRequest описывает раунд во входящем запросе. Длительность задаётся строкой вида "240h".
type roundRequest struct {
	OpeningTime time.Time `json:"opening_time"`
	Duration    string    `json:"duration"`
	Value       uint64    `json:"value"`
	Cap         uint64    `json:"cap"`
}

type fundingRequest struct {
	PaymentToken   string         `json:"payment_token"`
	ProjectToken   string         `json:"project_token,omitempty"`
	Owners         []string       `json:"owners"`
	Maturity       time.Time      `json:"maturity"`
	Unlock         time.Time      `json:"unlock"`
	TargetSupply   uint64         `json:"target_supply"`
	RMin           uint64         `json:"r_min"`
	RMax           uint64         `json:"r_max"`
	X              uint64         `json:"x"`
	Y              uint64         `json:"y"`
	UnstakeFee     uint64         `json:"unstake_fee"`
	FixedRounds    []roundRequest `json:"fixed_rounds,omitempty"`
	DiscountRounds []roundRequest `json:"discount_rounds,omitempty"`
	RangeRounds    []roundRequest `json:"range_rounds,omitempty"`
	StakeRounds    []roundRequest `json:"stake_rounds,omitempty"`
}

func convertRounds(in []roundRequest) ([]model.RoundParams, bool) {
	if len(in) == 0 {
		return nil, true
	}

	out := make([]model.RoundParams, 0, len(in))
	for _, rr := range in {
		d, err := time.ParseDuration(rr.Duration)
		if err != nil {
			return nil, false
		}
		out = append(out, model.RoundParams{
			OpeningTime: rr.OpeningTime,
			Duration:    d,
			Value:       rr.Value,
			Cap:         rr.Cap,
		})
	}
	return out, true
}

func (req fundingRequest) params() (model.FundingParams, bool) {
	if !validation.IsValidToken(req.PaymentToken) {
		return model.FundingParams{}, false
	}
	if req.ProjectToken != "" && !validation.IsValidToken(req.ProjectToken) {
		return model.FundingParams{}, false
	}

	params := model.FundingParams{
		PaymentToken: req.PaymentToken,
		ProjectToken: req.ProjectToken,
		Owners:       req.Owners,
		Maturity:     req.Maturity,
		Unlock:       req.Unlock,
		TargetSupply: req.TargetSupply,
		RMin:         req.RMin,
		RMax:         req.RMax,
		X:            req.X,
		Y:            req.Y,
		UnstakeFee:   req.UnstakeFee,
	}

	var ok bool
	if params.FixedRounds, ok = convertRounds(req.FixedRounds); !ok {
		return model.FundingParams{}, false
	}
	if params.DiscountRounds, ok = convertRounds(req.DiscountRounds); !ok {
		return model.FundingParams{}, false
	}
	if params.RangeRounds, ok = convertRounds(req.RangeRounds); !ok {
		return model.FundingParams{}, false
	}
	if params.StakeRounds, ok = convertRounds(req.StakeRounds); !ok {
		return model.FundingParams{}, false
	}

	return params, true
}

// CreateFunding создаёт новую кампанию. Создатель не становится владельцем автоматически.
func (h *Handler) CreateFunding(w http.ResponseWriter, r *http.Request) {
	account, ok := h.account(w, r)
	if !ok {
		return
	}

	var req fundingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	params, ok := req.params()
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	rec, err := h.service.CreateFunding(r.Context(), account, params)
	if err != nil {
		h.writeError(w, err, "create funding error", zap.String("account", account))
		return
	}

	h.writeJSON(w, http.StatusCreated, rec)
}

// GetFunding возвращает описание кампании.
func (h *Handler) GetFunding(w http.ResponseWriter, r *http.Request) {
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}

	rec, err := h.service.Funding(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "get funding error", zap.Uint64("funding_id", id))
		return
	}

	h.writeJSON(w, http.StatusOK, rec)
}

// GetOwners возвращает владельцев кампании в порядке голосования.
func (h *Handler) GetOwners(w http.ResponseWriter, r *http.Request) {
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}

	owners, err := h.service.Owners(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "get owners error", zap.Uint64("funding_id", id))
		return
	}

	h.writeJSON(w, http.StatusOK, owners)
}

func kindParam(w http.ResponseWriter, r *http.Request) (model.InstrumentKind, bool) {
	kind := model.InstrumentKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return "", false
	}
	return kind, true
}

// GetInstrument возвращает текущее состояние инструмента: раунд, продажи, оценку выплаты.
func (h *Handler) GetInstrument(w http.ResponseWriter, r *http.Request) {
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}

	info, err := h.service.Instrument(r.Context(), id, kind)
	if err != nil {
		h.writeError(w, err, "get instrument error", zap.Uint64("funding_id", id), zap.String("kind", string(kind)))
		return
	}

	h.writeJSON(w, http.StatusOK, info)
}

// buyRequest задаёт либо количество инструмента, либо сумму оплаты. Ровно одно поле должно быть ненулевым.
type buyRequest struct {
	Quantity uint64 `json:"quantity,omitempty"`
	Payment  uint64 `json:"payment,omitempty"`
}

// Buy покупает инструмент за платёжный токен.
func (h *Handler) Buy(w http.ResponseWriter, r *http.Request) {
	account, ok := h.account(w, r)
	if !ok {
		return
	}
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}

	var req buyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if (req.Quantity == 0) == (req.Payment == 0) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	res, err := h.service.Buy(r.Context(), account, id, kind, req.Quantity, req.Payment)
	if err != nil {
		h.writeError(w, err, "buy error",
			zap.String("account", account), zap.Uint64("funding_id", id), zap.String("kind", string(kind)))
		return
	}

	h.writeJSON(w, http.StatusOK, res)
}

// GetHoldings возвращает остатки инструментов пользователя и ожидаемые выплаты.
func (h *Handler) GetHoldings(w http.ResponseWriter, r *http.Request) {
	account, ok := h.account(w, r)
	if !ok {
		return
	}
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}

	holdings, err := h.service.Holdings(r.Context(), account, id)
	if err != nil {
		h.writeError(w, err, "get holdings error", zap.String("account", account), zap.Uint64("funding_id", id))
		return
	}

	if len(holdings) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeJSON(w, http.StatusOK, holdings)
}

type claimResponse struct {
	Amount uint64 `json:"amount"`
}

// Claim обменивает все инструменты пользователя на проектный токен.
func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	account, ok := h.account(w, r)
	if !ok {
		return
	}
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}

	amount, err := h.service.Claim(r.Context(), account, id)
	if err != nil {
		h.writeError(w, err, "claim error", zap.String("account", account), zap.Uint64("funding_id", id))
		return
	}

	h.writeJSON(w, http.StatusOK, claimResponse{Amount: amount})
}
