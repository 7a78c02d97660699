package command

import (
	"techbook/internal/apperr"
	"techbook/internal/entity"
	"techbook/internal/intent"
	"techbook/internal/models"
)

// Result is the full diagnostic trail of one processed command.
type Result struct {
	Input          string                 `json:"input"`
	Intent         string                 `json:"intent,omitempty"`
	Classification *intent.Classification `json:"classification,omitempty"`
	Entities       *entity.Entities       `json:"entities,omitempty"`
	Interval       *models.Interval       `json:"interval,omitempty"`
	Booking        *models.Booking        `json:"booking,omitempty"`
	Bookings       []models.Booking       `json:"bookings,omitempty"`
	Message        string                 `json:"message,omitempty"`
	Error          *Failure               `json:"error,omitempty"`

	err error
}

// Failure is the serializable form of a pipeline error.
type Failure struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// OK reports whether the command succeeded.
func (r *Result) OK() bool { return r.Error == nil }

// Err returns the underlying error, or nil on success.
func (r *Result) Err() error { return r.err }

// Outcome is the metric label for the result: OK or the error code.
func (r *Result) Outcome() string {
	if r.Error == nil {
		return "OK"
	}
	return r.Error.Code
}

func (r *Result) fail(err error) *Result {
	e := apperr.From(err)
	r.err = err
	r.Error = &Failure{Code: e.Code(), Message: e.Error(), Details: e.Details}
	r.Message = ""
	return r
}
