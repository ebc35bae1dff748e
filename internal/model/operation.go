package model

import (
	"encoding/json"
	"time"
)

// OperationKind определяет тип команды в журнале операций.
type OperationKind string

const (
	OpInitialize     OperationKind = "funding.initialize"
	OpApprove        OperationKind = "asset.approve"
	OpTransfer       OperationKind = "asset.transfer"
	OpMint           OperationKind = "asset.mint"
	OpBuy            OperationKind = "instrument.buy"
	OpClaim          OperationKind = "instrument.claim"
	OpStake          OperationKind = "stake.create"
	OpUnstake        OperationKind = "stake.unstake"
	OpClaimStake     OperationKind = "stake.claim"
	OpWithdraw       OperationKind = "withdraw.direct"
	OpCreateProposal OperationKind = "proposal.create"
	OpVote           OperationKind = "proposal.vote"
)

// Operation описывает запись журнала. Журнал содержит только успешно применённые команды,
// вместе с моментом исполнения и всеми внешними входными данными (например, ценой оракула),
// поэтому повторное применение журнала воспроизводит состояние один в один.
type Operation struct {
	Seq        int64           `json:"seq"`
	Kind       OperationKind   `json:"kind"`
	Actor      string          `json:"actor"`
	ExecutedAt time.Time       `json:"executed_at"`
	Payload    json.RawMessage `json:"payload"`
}
