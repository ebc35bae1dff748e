package funding

import "errors"

// Ошибки валидации параметров. Возвращаются до любого изменения состояния.
var (
	ErrNoOwners          = errors.New("no owners")
	ErrInvalidOwner      = errors.New("invalid owner")
	ErrInvalidUnlockDate = errors.New("invalid unlock date")
	ErrInvalidRInterval  = errors.New("invalid r interval")
	ErrInvalidRounds     = errors.New("invalid rounds")
	ErrInvalidFee        = errors.New("invalid unstake fee")
	ErrInvalidToken      = errors.New("invalid token")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrOverflow          = errors.New("arithmetic overflow")
)

// Временные ошибки: вызывающий может повторить позже.
var (
	ErrNotYetMatured = errors.New("not yet matured")
	ErrInvalidDate   = errors.New("invalid date")
)

// Ошибки ёмкости: частичное исполнение не допускается.
var (
	ErrAllTokensSold               = errors.New("all tokens sold")
	ErrInsufficientRoundCapacity   = errors.New("insufficient tokens in round")
	ErrInsufficientReserve         = errors.New("insufficient reserve")
	ErrInsufficientWithdrawable    = errors.New("insufficient withdrawable balance")
	ErrExceedsWithdrawable         = errors.New("amount exceeds withdrawable balance")
	ErrNothingToClaim              = errors.New("nothing to claim")
	ErrPriceUnavailable            = errors.New("price unavailable")
	ErrMultipleOwnersVotingNeeded  = errors.New("multiple owners, voting is needed")
	ErrOnlyOneOwnerVotingNotNeeded = errors.New("only one owner, voting is not needed")
	ErrProposalAlreadyOpen         = errors.New("withdraw proposal already open")
)

// Ошибки авторизации и поиска.
var (
	ErrNotOwner            = errors.New("not owner")
	ErrUnexistentProposal  = errors.New("unexistent proposal")
	ErrTransferNotAllowed  = errors.New("transfer not allowed")
	ErrFundingNotFound     = errors.New("funding not found")
	ErrInstrumentNotFound  = errors.New("instrument not found")
	ErrPositionNotFound    = errors.New("stake position not found")
	ErrStakingNotAvailable = errors.New("staking not available")
	ErrPositionClosed      = errors.New("stake position closed")
)
