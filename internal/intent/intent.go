// Package intent decides which booking action a piece of text asks for.
package intent

import (
	"encoding/json"
	"fmt"
)

// Intent is the closed set of actions a command can request.
type Intent int

const (
	CreateBooking Intent = iota
	CancelBooking
	QueryBooking
	ListBookings
)

// All lists every intent in ranking tie-break order.
var All = []Intent{CreateBooking, CancelBooking, QueryBooking, ListBookings}

func (i Intent) String() string {
	switch i {
	case CreateBooking:
		return "create_booking"
	case CancelBooking:
		return "cancel_booking"
	case QueryBooking:
		return "query_booking"
	case ListBookings:
		return "list_bookings"
	}
	return fmt.Sprintf("intent(%d)", int(i))
}

// Description is the natural-language label handed to classifier oracles.
func (i Intent) Description() string {
	switch i {
	case CreateBooking:
		return "Create a booking"
	case CancelBooking:
		return "Cancel a booking"
	case QueryBooking:
		return "Retrieve booking details"
	case ListBookings:
		return "List all bookings"
	}
	return i.String()
}

// Parse maps a label back to its intent.
func Parse(label string) (Intent, bool) {
	for _, i := range All {
		if i.String() == label {
			return i, true
		}
	}
	return 0, false
}

func (i Intent) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.String())
}

func (i *Intent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, ok := Parse(s)
	if !ok {
		return fmt.Errorf("unknown intent %q", s)
	}
	*i = v
	return nil
}

// Candidates returns the label to description mapping sent to classifiers.
func Candidates() map[string]string {
	out := make(map[string]string, len(All))
	for _, i := range All {
		out[i.String()] = i.Description()
	}
	return out
}
