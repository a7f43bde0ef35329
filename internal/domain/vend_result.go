package domain

// VendOutcome classifies the result of a vend attempt
type VendOutcome string

const (
	OutcomeDispensed    VendOutcome = "dispensed"
	OutcomeNotDispensed VendOutcome = "not_dispensed"
)

// DeclineReason explains why a vend did not dispense
type DeclineReason string

const (
	ReasonSlotEmpty         DeclineReason = "slot_empty"
	ReasonInsufficientFunds DeclineReason = "insufficient_funds"
)

// IsValid checks if the decline reason is known
func (r DeclineReason) IsValid() bool {
	switch r {
	case ReasonSlotEmpty, ReasonInsufficientFunds:
		return true
	default:
		return false
	}
}

// VendResult is either Dispensed or NotDispensed. Change is always returned.
type VendResult interface {
	Outcome() VendOutcome
	Change() Money
	isVendResult()
}

// Dispensed is returned when the item left the machine
type Dispensed struct {
	Slot     int
	Item     Item
	Tendered Money
	Amount   Money // change handed back
}

func (d Dispensed) Outcome() VendOutcome { return OutcomeDispensed }
func (d Dispensed) Change() Money        { return d.Amount }
func (Dispensed) isVendResult()          {}

// NotDispensed is returned when nothing was charged; change equals the tendered cash
type NotDispensed struct {
	Slot     int
	Reason   DeclineReason
	Tendered Money
}

func (n NotDispensed) Outcome() VendOutcome { return OutcomeNotDispensed }
func (n NotDispensed) Change() Money        { return n.Tendered }
func (NotDispensed) isVendResult()          {}

// RestockResult reports what a restock did with its input
type RestockResult struct {
	Added   int
	Dropped int
	Total   int
}
