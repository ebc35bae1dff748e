package model

import "time"

// EventType определяет тип доменного события.
type EventType string

const (
	EventFundingCreated   EventType = "funding.created"
	EventInstrumentBought EventType = "instrument.bought"
	EventInstrumentClaim  EventType = "instrument.claimed"
	EventStaked           EventType = "stake.created"
	EventUnstaked         EventType = "stake.unstaked"
	EventStakeClaimed     EventType = "stake.claimed"
	EventProposalCreated  EventType = "proposal.created"
	EventProposalVoted    EventType = "proposal.voted"
	EventProposalApproved EventType = "proposal.approved"
	EventProposalDenied   EventType = "proposal.denied"
	EventDirectWithdraw   EventType = "withdraw.direct"
)

// Event описывает факт, произошедший в результате успешной операции.
// Поля, не относящиеся к типу события, остаются нулевыми.
type Event struct {
	ID         string            `json:"id,omitempty"`
	Type       EventType         `json:"type"`
	FundingID  uint64            `json:"funding_id"`
	ProposalID uint64            `json:"proposal_id,omitempty"`
	Actor      string            `json:"actor,omitempty"`
	Recipient  string            `json:"recipient,omitempty"`
	Amount     uint64            `json:"amount,omitempty"`
	Quantity   uint64            `json:"quantity,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}
