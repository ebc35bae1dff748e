package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/launchpad/internal/asset"
	"github.com/mmeshcher/launchpad/internal/funding"
	"github.com/mmeshcher/launchpad/internal/service"
)

var errorStatuses = []struct {
	status int
	errs   []error
}{
	{
		status: http.StatusUnprocessableEntity,
		errs: []error{
			funding.ErrNoOwners, funding.ErrInvalidOwner, funding.ErrInvalidUnlockDate,
			funding.ErrInvalidRInterval, funding.ErrInvalidRounds, funding.ErrInvalidFee,
			funding.ErrInvalidToken, funding.ErrInvalidAmount, funding.ErrOverflow,
			asset.ErrInvalidAmount, asset.ErrSupplyOverflow,
		},
	},
	{
		status: http.StatusNotFound,
		errs: []error{
			funding.ErrFundingNotFound, funding.ErrInstrumentNotFound, funding.ErrPositionNotFound,
			funding.ErrUnexistentProposal, funding.ErrStakingNotAvailable, asset.ErrUnknownToken,
		},
	},
	{
		status: http.StatusForbidden,
		errs:   []error{funding.ErrNotOwner, funding.ErrTransferNotAllowed, service.ErrFaucetDisabled},
	},
	{
		status: http.StatusPaymentRequired,
		errs:   []error{asset.ErrInsufficientAllowance, asset.ErrInsufficientBalance},
	},
	{
		status: http.StatusConflict,
		errs: []error{
			funding.ErrNotYetMatured, funding.ErrInvalidDate, funding.ErrAllTokensSold,
			funding.ErrInsufficientRoundCapacity, funding.ErrInsufficientReserve,
			funding.ErrInsufficientWithdrawable, funding.ErrExceedsWithdrawable, funding.ErrNothingToClaim,
			funding.ErrMultipleOwnersVotingNeeded, funding.ErrOnlyOneOwnerVotingNotNeeded,
			funding.ErrProposalAlreadyOpen, funding.ErrPositionClosed,
		},
	},
	{
		status: http.StatusServiceUnavailable,
		errs:   []error{funding.ErrPriceUnavailable},
	},
}

// statusFromError сопоставляет доменную ошибку HTTP-статусу. Неизвестные ошибки считаются внутренними.
func statusFromError(err error) int {
	for _, group := range errorStatuses {
		for _, target := range group.errs {
			if errors.Is(err, target) {
				return group.status
			}
		}
	}
	return http.StatusInternalServerError
}

// writeError отвечает клиенту текстом доменной ошибки. Внутренние ошибки логируются и не раскрываются.
func (h *Handler) writeError(w http.ResponseWriter, err error, msg string, fields ...zap.Field) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(msg, append(fields, zap.Error(err))...)
		http.Error(w, http.StatusText(status), status)
		return
	}
	http.Error(w, err.Error(), status)
}
