// Package command runs a free-text request through intent resolution,
// entity extraction and temporal resolution, then applies it to the
// booking engine.
package command

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"techbook/internal/apperr"
	"techbook/internal/entity"
	"techbook/internal/intent"
	"techbook/internal/models"
)

// IntentResolver classifies text.
type IntentResolver interface {
	Resolve(ctx context.Context, text string) (*intent.Classification, error)
}

// EntityExtractor pulls structured fields out of text.
type EntityExtractor interface {
	Extract(ctx context.Context, text string) (*entity.Entities, error)
}

// TimeResolver turns a phrase into a slot relative to now.
type TimeResolver interface {
	Resolve(phrase string, now time.Time) (models.Interval, error)
}

// Booker is the conflict-checked booking collection.
type Booker interface {
	CheckAndReserve(ctx context.Context, b *models.Booking) (*models.Booking, error)
	Cancel(ctx context.Context, id string) (*models.Booking, error)
	Get(ctx context.Context, id string) (*models.Booking, error)
	List(ctx context.Context) ([]models.Booking, error)
}

// Recorder counts processed commands.
type Recorder interface {
	IncCommand(intent, outcome string)
}

// Deps are the collaborators of an Orchestrator. Recorder may be nil.
type Deps struct {
	Intents  IntentResolver
	Entities EntityExtractor
	Times    TimeResolver
	Bookings Booker
	Recorder Recorder
}

// Options tunes input validation and defaults.
type Options struct {
	DefaultCustomerName string
	MinLength           int
	MaxLength           int
	Now                 func() time.Time
}

func DefaultOptions() Options {
	return Options{DefaultCustomerName: "Anonymous Customer", MinLength: 3, MaxLength: 512, Now: time.Now}
}

// Orchestrator sequences the pipeline for one command at a time. It holds
// no per-command state and is safe for concurrent use.
type Orchestrator struct {
	deps   Deps
	opts   Options
	logger *zerolog.Logger
}

func New(deps Deps, opts Options, logger *zerolog.Logger) *Orchestrator {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	def := DefaultOptions()
	if opts.DefaultCustomerName == "" {
		opts.DefaultCustomerName = def.DefaultCustomerName
	}
	if opts.MinLength <= 0 {
		opts.MinLength = def.MinLength
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = def.MaxLength
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{deps: deps, opts: opts, logger: logger}
}

// Handle never returns nil. Every failure is reported inside the result.
func (o *Orchestrator) Handle(ctx context.Context, text string) *Result {
	res := &Result{Input: text}
	o.run(ctx, text, res)

	intentLabel := res.Intent
	if intentLabel == "" {
		intentLabel = "unknown"
	}
	if o.deps.Recorder != nil {
		o.deps.Recorder.IncCommand(intentLabel, res.Outcome())
	}

	ev := o.logger.Info()
	if !res.OK() {
		ev = o.logger.Warn().Str("code", res.Error.Code).Str("error", res.Error.Message)
	}
	ev.Str("intent", intentLabel).Msg("command processed")
	return res
}

func (o *Orchestrator) run(ctx context.Context, text string, res *Result) {
	clean, err := o.validate(text)
	if err != nil {
		res.fail(err)
		return
	}
	res.Input = clean

	cls, err := o.deps.Intents.Resolve(ctx, clean)
	if err != nil {
		res.fail(err)
		return
	}
	res.Classification = cls
	top := cls.Top()
	if !cls.Accepted {
		res.fail(apperr.AmbiguousIntent("could not determine what you want to do").
			With("top_intent", top.Intent.String()).
			With("confidence", top.Confidence).
			With("threshold", cls.Threshold))
		return
	}
	res.Intent = top.Intent.String()

	ent, err := o.deps.Entities.Extract(ctx, clean)
	if err != nil {
		res.fail(err)
		return
	}
	res.Entities = ent

	switch top.Intent {
	case intent.CreateBooking:
		err = o.create(ctx, ent, res)
	case intent.CancelBooking:
		err = o.cancel(ctx, ent, res)
	case intent.QueryBooking:
		err = o.query(ctx, ent, res)
	case intent.ListBookings:
		err = o.list(ctx, res)
	default:
		err = fmt.Errorf("unhandled intent %s", top.Intent)
	}
	if err != nil {
		res.fail(err)
	}
}

// validate trims and collapses whitespace, then enforces the length bounds.
func (o *Orchestrator) validate(text string) (string, error) {
	clean := strings.Join(strings.Fields(text), " ")
	n := utf8.RuneCountInString(clean)
	if n < o.opts.MinLength {
		return "", apperr.Validation("command must be at least %d characters", o.opts.MinLength).With("length", n)
	}
	if n > o.opts.MaxLength {
		return "", apperr.Validation("command must be at most %d characters", o.opts.MaxLength).With("length", n)
	}
	if strings.IndexFunc(clean, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) < 0 {
		return "", apperr.Validation("command must contain letters or digits")
	}
	return clean, nil
}

func (o *Orchestrator) create(ctx context.Context, ent *entity.Entities, res *Result) error {
	name := intent.CreateBooking.String()
	if ent.Profession == "" {
		return apperr.MissingEntity("profession", name)
	}
	if ent.TechnicianName == "" {
		return apperr.MissingEntity("technician_name", name)
	}
	if ent.TemporalPhrase == "" {
		return apperr.MissingEntity("time", name)
	}

	slot, err := o.deps.Times.Resolve(ent.TemporalPhrase, o.opts.Now())
	if err != nil {
		return err
	}
	res.Interval = &slot

	customer := ent.CustomerName
	if customer == "" {
		customer = o.opts.DefaultCustomerName
	}
	b, err := o.deps.Bookings.CheckAndReserve(ctx, &models.Booking{
		CustomerName:   customer,
		TechnicianName: ent.TechnicianName,
		Profession:     ent.Profession,
		StartTime:      slot.Start,
		EndTime:        slot.End,
	})
	if err != nil {
		return err
	}
	res.Booking = b
	res.Message = fmt.Sprintf("Booked %s (%s) for %s on %s.",
		b.TechnicianName, b.Profession, b.CustomerName, b.StartTime.Format("Monday, January 2 2006 at 3:04 PM MST"))
	return nil
}

func (o *Orchestrator) reference(ent *entity.Entities, action string) (string, error) {
	if ent.BookingRef != "" {
		return ent.BookingRef, nil
	}
	if ent.InvalidRef != "" {
		return "", apperr.Validation("%q is not a valid booking id", ent.InvalidRef).With("booking_reference", ent.InvalidRef)
	}
	return "", apperr.MissingEntity("booking_reference", action)
}

func (o *Orchestrator) cancel(ctx context.Context, ent *entity.Entities, res *Result) error {
	id, err := o.reference(ent, intent.CancelBooking.String())
	if err != nil {
		return err
	}
	b, err := o.deps.Bookings.Cancel(ctx, id)
	if err != nil {
		return err
	}
	res.Booking = b
	res.Message = fmt.Sprintf("Booking %s has been cancelled.", id)
	return nil
}

func (o *Orchestrator) query(ctx context.Context, ent *entity.Entities, res *Result) error {
	id, err := o.reference(ent, intent.QueryBooking.String())
	if err != nil {
		return err
	}
	b, err := o.deps.Bookings.Get(ctx, id)
	if err != nil {
		return err
	}
	res.Booking = b
	res.Message = fmt.Sprintf("Booking %s: %s (%s) on %s.",
		b.ID, b.TechnicianName, b.Profession, b.StartTime.Format("Monday, January 2 2006 at 3:04 PM MST"))
	return nil
}

func (o *Orchestrator) list(ctx context.Context, res *Result) error {
	list, err := o.deps.Bookings.List(ctx)
	if err != nil {
		return err
	}
	res.Bookings = list
	if len(list) == 0 {
		res.Message = "No bookings found."
	} else {
		res.Message = fmt.Sprintf("Found %d booking(s).", len(list))
	}
	return nil
}
