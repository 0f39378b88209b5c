package core

import "time"

// AllocationMode selects the split strategy for a new expense.
type AllocationMode string

const (
	AllocationEqual  AllocationMode = "equal"
	AllocationCustom AllocationMode = "custom"
)

// SplitShare is one participant's computed share of an expense, before
// persistence assigns it an identity. DueDate is optional and only set by
// the caller after allocation; a zero DueDate means no payment deadline.
type SplitShare struct {
	UserID  int64
	Amount  Money
	IsPaid  bool
	DueDate time.Time
}

// AllocateEqual divides amount evenly among participants.
//
// Every participant except the settling one receives the half-up rounded
// per-head amount; the settling participant (the creator when present,
// otherwise the first participant) receives the remainder, so the shares
// always sum to amount exactly. The creator's share starts paid: recording
// your own expense settles your own debt on the spot.
//
// When the amount is so small that the rounded per-head shares already
// exceed it, the residual would go negative; that input is rejected with
// ErrAmountTooSmall instead of producing a negative debt.
func AllocateEqual(amount Money, participants []int64, creatorID int64) ([]SplitShare, error) {
	if err := validateParticipants(participants); err != nil {
		return nil, err
	}
	if err := amount.Validate(); err != nil {
		return nil, err
	}

	n := int64(len(participants))
	// Half-up integer rounding of amount/n.
	perHead := (2*amount.Cents + n) / (2 * n)

	settling := 0
	for i, id := range participants {
		if id == creatorID {
			settling = i
			break
		}
	}

	shares := make([]SplitShare, len(participants))
	rest := amount.Cents
	for i, id := range participants {
		if i != settling {
			shares[i] = SplitShare{UserID: id, Amount: Money{Cents: perHead}}
			rest -= perHead
		}
	}
	if rest < 0 {
		return nil, ErrAmountTooSmall
	}
	shares[settling] = SplitShare{UserID: participants[settling], Amount: Money{Cents: rest}}

	for i := range shares {
		if shares[i].UserID == creatorID {
			shares[i].IsPaid = true
		}
	}
	return shares, nil
}

// AllocateCustom builds shares from caller-provided amounts. Every
// participant must have an explicit non-negative amount and the amounts must
// sum to the expense amount within one cent; beyond that the values are
// trusted as given, with no redistribution.
func AllocateCustom(amount Money, participants []int64, amounts map[int64]Money, creatorID int64) ([]SplitShare, error) {
	if err := validateParticipants(participants); err != nil {
		return nil, err
	}
	if err := amount.Validate(); err != nil {
		return nil, err
	}

	in := make(map[int64]bool, len(participants))
	for _, id := range participants {
		in[id] = true
	}
	for id := range amounts {
		if !in[id] {
			return nil, ErrUnknownParticipant
		}
	}

	var sum int64
	shares := make([]SplitShare, len(participants))
	for i, id := range participants {
		share, ok := amounts[id]
		if !ok {
			return nil, ErrMissingSplitAmount
		}
		if share.Cents < 0 {
			return nil, ErrInvalidAmount
		}
		sum += share.Cents
		shares[i] = SplitShare{UserID: id, Amount: share, IsPaid: id == creatorID}
	}

	diff := sum - amount.Cents
	if diff < -1 || diff > 1 {
		return nil, ErrSplitTotalMismatch
	}
	return shares, nil
}

func validateParticipants(participants []int64) error {
	if len(participants) == 0 {
		return ErrNoParticipants
	}
	seen := make(map[int64]bool, len(participants))
	for _, id := range participants {
		if seen[id] {
			return ErrDuplicateParticipant
		}
		seen[id] = true
	}
	return nil
}
