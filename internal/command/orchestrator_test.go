package command

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"techbook/internal/apperr"
	"techbook/internal/booking"
	"techbook/internal/config"
	"techbook/internal/entity"
	"techbook/internal/intent"
	"techbook/internal/models"
	"techbook/internal/oracle"
	"techbook/internal/store"
	"techbook/internal/temporal"
)

// Thursday.
var now = time.Date(2025, 1, 30, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func uniform(context.Context, string, map[string]string) (map[string]float64, error) {
	return map[string]float64{
		"create_booking": 0.25, "cancel_booking": 0.25, "query_booking": 0.25, "list_bookings": 0.25,
	}, nil
}

func newPipeline(classifier oracle.Classifier, rec Recorder) *Orchestrator {
	return New(Deps{
		Intents:  intent.NewResolver(intent.NewRuleEngine(0.95), intent.NewOracleSource(classifier), intent.DefaultOptions(), nil),
		Entities: entity.NewExtractor(nil, config.DefaultProfessionKeywords(), nil),
		Times:    temporal.New(temporal.DefaultOptions()),
		Bookings: booking.NewEngine(store.NewMemory(), nil, booking.WithClock(clock)),
		Recorder: rec,
	}, Options{Now: clock}, nil)
}

func newDefaultPipeline() *Orchestrator {
	return newPipeline(oracle.ClassifierFunc(uniform), nil)
}

func TestHandle_CreateBooking(t *testing.T) {
	tests := []struct {
		text       string
		technician string
		profession models.Profession
		start      time.Time
	}{
		{
			text:       "Book plumber Mike Johnson for Wednesday at 2 PM to fix a leak.",
			technician: "Mike Johnson",
			profession: models.Plumber,
			start:      time.Date(2025, 2, 5, 14, 0, 0, 0, time.UTC),
		},
		{
			text:       "Schedule an electrician named Alice Smith next Monday at 9 AM",
			technician: "Alice Smith",
			profession: models.Electrician,
			start:      time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC),
		},
		{
			text:       "Book electrician Alice Smith tomorrow at 2pm",
			technician: "Alice Smith",
			profession: models.Electrician,
			start:      time.Date(2025, 1, 31, 14, 0, 0, 0, time.UTC),
		},
		{
			text:       "Book plumber Mike Johnson for tomorrow afternoon",
			technician: "Mike Johnson",
			profession: models.Plumber,
			start:      time.Date(2025, 1, 31, 14, 0, 0, 0, time.UTC),
		},
		{
			text:       "Book welder Griselda Dickson Wednesday after next",
			technician: "Griselda Dickson",
			profession: models.Welder,
			start:      time.Date(2025, 2, 12, 9, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			res := newDefaultPipeline().Handle(context.Background(), tt.text)
			require.True(t, res.OK(), "%+v", res.Error)

			assert.Equal(t, "create_booking", res.Intent)
			require.NotNil(t, res.Booking)
			assert.NotEmpty(t, res.Booking.ID)
			assert.Equal(t, tt.technician, res.Booking.TechnicianName)
			assert.Equal(t, tt.profession, res.Booking.Profession)
			assert.Equal(t, "Anonymous Customer", res.Booking.CustomerName)
			assert.True(t, tt.start.Equal(res.Booking.StartTime), res.Booking.StartTime.String())
			assert.True(t, tt.start.Add(time.Hour).Equal(res.Booking.EndTime))
			require.NotNil(t, res.Interval)
			assert.True(t, tt.start.Equal(res.Interval.Start))
			assert.Contains(t, res.Message, tt.technician)
		})
	}
}

func TestHandle_AliceSmithConflict(t *testing.T) {
	o := newDefaultPipeline()
	ctx := context.Background()

	first := o.Handle(ctx, "Book electrician Alice Smith tomorrow at 2pm")
	require.True(t, first.OK())

	clash := o.Handle(ctx, "Book electrician Alice Smith tomorrow at 2:30pm")
	require.False(t, clash.OK())
	assert.Equal(t, "BOOKING_CONFLICT", clash.Error.Code)
	assert.Equal(t, first.Booking.ID, clash.Error.Details["existing_booking_id"])
	assert.Contains(t, clash.Error.Message, "Time conflict: Alice Smith is already booked")
	assert.ErrorIs(t, clash.Err(), apperr.ErrConflict)

	later := o.Handle(ctx, "Book electrician Alice Smith tomorrow at 3pm")
	assert.True(t, later.OK(), "%+v", later.Error)
}

func TestHandle_AmbiguousSkipsEntityWork(t *testing.T) {
	ents := new(mockExtractor)
	o := New(Deps{
		Intents:  intent.NewResolver(intent.NewRuleEngine(0.95), intent.NewOracleSource(oracle.ClassifierFunc(uniform)), intent.DefaultOptions(), nil),
		Entities: ents,
		Times:    temporal.New(temporal.DefaultOptions()),
		Bookings: booking.NewEngine(store.NewMemory(), nil),
	}, Options{Now: clock}, nil)

	res := o.Handle(context.Background(), "Tell me a joke.")

	require.False(t, res.OK())
	assert.Equal(t, "AMBIGUOUS_INTENT", res.Error.Code)
	assert.Empty(t, res.Intent)
	require.NotNil(t, res.Classification)
	assert.False(t, res.Classification.Accepted)
	assert.Nil(t, res.Entities)
	ents.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestHandle_Failures(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		code   string
		detail map[string]any
	}{
		{"missing technician", "Book a plumber tomorrow at 10am", "MISSING_ENTITY", map[string]any{"entity": "technician_name"}},
		{"missing profession", "I want to book Mike Johnson tomorrow at 10am", "MISSING_ENTITY", map[string]any{"entity": "profession"}},
		{"missing time", "Book plumber Mike Johnson", "MISSING_ENTITY", map[string]any{"entity": "time"}},
		{"out of hours", "Book plumber Mike Johnson tomorrow at 8pm", "TEMPORAL_RESOLUTION", nil},
		{"malformed reference", "cancel booking 12345", "VALIDATION_ERROR", map[string]any{"booking_reference": "12345"}},
		{"missing reference", "cancel my booking", "MISSING_ENTITY", map[string]any{"entity": "booking_reference"}},
		{"unknown booking", "get booking details 123e4567-e89b-12d3-a456-426614174000", "BOOKING_NOT_FOUND", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newDefaultPipeline().Handle(context.Background(), tt.text)
			require.False(t, res.OK())
			assert.Equal(t, tt.code, res.Error.Code, res.Error.Message)
			for k, v := range tt.detail {
				assert.Equal(t, v, res.Error.Details[k])
			}
			assert.Nil(t, res.Booking)
		})
	}
}

func TestHandle_InputValidation(t *testing.T) {
	for _, text := range []string{"", "   ", "hi", "!!! ???", strings.Repeat("a", 513)} {
		res := newDefaultPipeline().Handle(context.Background(), text)
		require.False(t, res.OK(), text)
		assert.Equal(t, "VALIDATION_ERROR", res.Error.Code)
		assert.Nil(t, res.Classification)
	}

	res := newDefaultPipeline().Handle(context.Background(), "  list   all\tbookings ")
	require.True(t, res.OK())
	assert.Equal(t, "list all bookings", res.Input)
}

func TestHandle_CancelQueryList(t *testing.T) {
	o := newDefaultPipeline()
	ctx := context.Background()

	a := o.Handle(ctx, "Book plumber Mike Johnson tomorrow at 10am")
	require.True(t, a.OK())
	b := o.Handle(ctx, "Book gardener Tom Hardy tomorrow at 11am")
	require.True(t, b.OK())

	q := o.Handle(ctx, "get booking details "+a.Booking.ID)
	require.True(t, q.OK(), "%+v", q.Error)
	assert.Equal(t, "query_booking", q.Intent)
	assert.Equal(t, a.Booking.ID, q.Booking.ID)

	l := o.Handle(ctx, "list all bookings")
	require.True(t, l.OK())
	require.Len(t, l.Bookings, 2)
	assert.Equal(t, a.Booking.ID, l.Bookings[0].ID)
	assert.Equal(t, b.Booking.ID, l.Bookings[1].ID)

	c := o.Handle(ctx, "cancel booking "+a.Booking.ID)
	require.True(t, c.OK(), "%+v", c.Error)
	assert.Equal(t, "cancel_booking", c.Intent)

	again := o.Handle(ctx, "cancel booking "+a.Booking.ID)
	require.False(t, again.OK())
	assert.Equal(t, "BOOKING_NOT_FOUND", again.Error.Code)

	gone := o.Handle(ctx, "get booking details "+a.Booking.ID)
	assert.Equal(t, "BOOKING_NOT_FOUND", gone.Error.Code)

	l = o.Handle(ctx, "list all bookings")
	require.Len(t, l.Bookings, 1)
	assert.Equal(t, b.Booking.ID, l.Bookings[0].ID)
}

func TestHandle_OracleUnavailable(t *testing.T) {
	rec := new(mockRecorder)
	rec.On("IncCommand", "unknown", "ORACLE_UNAVAILABLE").Once()

	o := newPipeline(oracle.ClassifierFunc(func(context.Context, string, map[string]string) (map[string]float64, error) {
		return nil, errors.New("connection refused")
	}), rec)

	res := o.Handle(context.Background(), "Book plumber Mike Johnson tomorrow at 10am")
	require.False(t, res.OK())
	assert.Equal(t, "ORACLE_UNAVAILABLE", res.Error.Code)
	assert.Equal(t, "classifier", res.Error.Details["oracle"])
	rec.AssertExpectations(t)
}

func TestHandle_RecordsOutcome(t *testing.T) {
	rec := new(mockRecorder)
	rec.On("IncCommand", "list_bookings", "OK").Once()

	res := newPipeline(oracle.ClassifierFunc(uniform), rec).Handle(context.Background(), "list all bookings")
	require.True(t, res.OK())
	assert.Equal(t, "No bookings found.", res.Message)
	rec.AssertExpectations(t)
}

func TestHandle_StoreFailureIsInternal(t *testing.T) {
	bk := new(mockBooker)
	bk.On("List", mock.Anything).Return(nil, errors.New("disk I/O error")).Once()

	o := New(Deps{
		Intents:  intent.NewResolver(intent.NewRuleEngine(0.95), nil, intent.DefaultOptions(), nil),
		Entities: entity.NewExtractor(nil, nil, nil),
		Times:    temporal.New(temporal.DefaultOptions()),
		Bookings: bk,
	}, Options{Now: clock}, nil)

	res := o.Handle(context.Background(), "list all bookings")
	require.False(t, res.OK())
	assert.Equal(t, "INTERNAL", res.Error.Code)
	bk.AssertExpectations(t)
}

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Extract(ctx context.Context, text string) (*entity.Entities, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Entities), args.Error(1)
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) IncCommand(intent, outcome string) {
	m.Called(intent, outcome)
}

type mockBooker struct {
	mock.Mock
}

func (m *mockBooker) CheckAndReserve(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	args := m.Called(ctx, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockBooker) Cancel(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockBooker) Get(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockBooker) List(ctx context.Context) ([]models.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}
