package loans

import (
	"encoding/json"
	"fmt"
)

// EventType is a typed string identifying a lifecycle event variant.
type EventType string

// Event types recognized by the scheduler.
const (
	EvtPrepayment EventType = "prepayment"
	EvtDeferral   EventType = "deferral"
	EvtDefault    EventType = "default"
)

// Event defines the common interface for all lifecycle events that can be
// attached to a loan.
type Event interface {
	What() EventType // What returns the event variant tag.
	When() Date      // When returns the calendar date the event takes effect.
}

// Prepayment is an extra principal payment, applied capped at the current
// balance of its calendar month.
type Prepayment struct {
	Date   Date    `json:"date"`
	Amount float64 `json:"amount"`
}

func (e Prepayment) What() EventType { return EvtPrepayment }
func (e Prepayment) When() Date      { return e.Date }

// MarshalJSON implements the json.Marshaler interface for Prepayment.
func (e Prepayment) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("type", EvtPrepayment)
	w.Append("date", e.Date)
	w.Append("amount", e.Amount)
	return w.MarshalJSON()
}

// Deferral suspends principal and fee obligations for Months calendar months
// starting at Start, while interest keeps accruing and capitalizing.
type Deferral struct {
	Start  Date `json:"startDate"`
	Months int  `json:"months"`
}

func (e Deferral) What() EventType { return EvtDeferral }
func (e Deferral) When() Date      { return e.Start }

// MarshalJSON implements the json.Marshaler interface for Deferral.
func (e Deferral) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("type", EvtDeferral)
	w.Append("startDate", e.Start)
	w.Append("months", e.Months)
	return w.MarshalJSON()
}

// Default terminates the loan: the recovery amount (capped at balance) is
// applied as a final principal reduction and no further rows are produced.
type Default struct {
	Date     Date    `json:"date"`
	Recovery float64 `json:"recoveryAmount"`
}

func (e Default) What() EventType { return EvtDefault }
func (e Default) When() Date      { return e.Date }

// MarshalJSON implements the json.Marshaler interface for Default.
func (e Default) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("type", EvtDefault)
	w.Append("date", e.Date)
	w.Append("recoveryAmount", e.Recovery)
	return w.MarshalJSON()
}

// DecodeEvents decodes a JSON array of tagged event objects into the
// appropriate event structs, preserving order.
func DecodeEvents(data []byte) ([]Event, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("events is not a JSON array: %w", err)
	}

	events := make([]Event, 0, len(raws))
	for _, raw := range raws {
		var identifier struct {
			Type EventType `json:"type"`
		}
		if err := json.Unmarshal(raw, &identifier); err != nil {
			return nil, fmt.Errorf("could not identify event in %q: %w", string(raw), err)
		}

		switch identifier.Type {
		case EvtPrepayment:
			var e Prepayment
			if err := json.Unmarshal(raw, &e); err != nil {
				return nil, fmt.Errorf("invalid prepayment event %q: %w", string(raw), err)
			}
			events = append(events, e)
		case EvtDeferral:
			var e Deferral
			if err := json.Unmarshal(raw, &e); err != nil {
				return nil, fmt.Errorf("invalid deferral event %q: %w", string(raw), err)
			}
			events = append(events, e)
		case EvtDefault:
			var e Default
			if err := json.Unmarshal(raw, &e); err != nil {
				return nil, fmt.Errorf("invalid default event %q: %w", string(raw), err)
			}
			events = append(events, e)
		default:
			return nil, fmt.Errorf("unknown event type %q", identifier.Type)
		}
	}
	return events, nil
}

// EncodeEvents encodes events to a JSON array in their canonical field order.
func EncodeEvents(events []Event) ([]byte, error) {
	return json.Marshal(events)
}

// eventIndex indexes a loan's events by calendar month for the scheduler's
// per-month lookups.
type eventIndex struct {
	prepayments map[string]float64 // month key -> summed prepayment amount
	deferrals   map[string]int     // month key -> summed requested months
	dflt        *Default           // the single honored default event
}

// indexEvents builds per-type month indexes from an ordered event list.
// Same-month deferral requests are summed, same-month prepayments are summed,
// and only the first default event is honored.
func indexEvents(events []Event) eventIndex {
	idx := eventIndex{
		prepayments: make(map[string]float64),
		deferrals:   make(map[string]int),
	}
	for _, e := range events {
		switch v := e.(type) {
		case Prepayment:
			if v.Amount > 0 {
				idx.prepayments[v.Date.MonthKey()] += v.Amount
			}
		case Deferral:
			if v.Months > 0 {
				idx.deferrals[v.Start.MonthKey()] += v.Months
			}
		case Default:
			if idx.dflt == nil {
				d := v
				idx.dflt = &d
			}
		}
	}
	return idx
}

// prepaymentAt returns the total prepayment requested for the month of 'on'.
func (idx eventIndex) prepaymentAt(on Date) float64 { return idx.prepayments[on.MonthKey()] }

// deferralAt returns the total deferral months requested starting in the month of 'on'.
func (idx eventIndex) deferralAt(on Date) int { return idx.deferrals[on.MonthKey()] }

// defaultAt returns the honored default event if it falls in the month of 'on'.
func (idx eventIndex) defaultAt(on Date) *Default {
	if idx.dflt != nil && idx.dflt.Date.SameMonth(on) {
		return idx.dflt
	}
	return nil
}
