package entity

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"techbook/internal/apperr"
	"techbook/internal/config"
	"techbook/internal/models"
	"techbook/internal/oracle"
)

type mockNER struct {
	mock.Mock
}

func (m *mockNER) PersonNames(ctx context.Context, text string) ([]oracle.Span, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]oracle.Span), args.Error(1)
}

// spanOf builds an oracle span for the first occurrence of word in text.
func spanOf(text, word string) oracle.Span {
	i := strings.Index(text, word)
	return oracle.Span{Text: word, Start: i, End: i + len(word)}
}

func newRuleExtractor() *Extractor {
	return NewExtractor(nil, config.DefaultProfessionKeywords(), nil)
}

func TestExtract_RuleOnly(t *testing.T) {
	x := newRuleExtractor()

	tests := []struct {
		name string
		text string
		want Entities
	}{
		{
			name: "create with trailing name",
			text: "Book plumber Mike Johnson for Wednesday at 2 PM to fix a leak.",
			want: Entities{
				Profession:     models.Plumber,
				TechnicianName: "Mike Johnson",
				TemporalPhrase: "Wednesday at 2 PM",
				NameSource:     SourceRule,
			},
		},
		{
			name: "next weekday phrase is one span",
			text: "Schedule an electrician named Alice Smith next Monday at 9 AM",
			want: Entities{
				Profession:     models.Electrician,
				TechnicianName: "Alice Smith",
				TemporalPhrase: "next Monday at 9 AM",
				NameSource:     SourceRule,
			},
		},
		{
			name: "name before profession",
			text: "I need Griselda Dickson the welder tomorrow at 11am",
			want: Entities{
				Profession:     models.Welder,
				TechnicianName: "Griselda Dickson",
				TemporalPhrase: "tomorrow at 11am",
				NameSource:     SourceRule,
			},
		},
		{
			name: "plural and case-insensitive profession",
			text: "show me available GARDENERS in 2 weeks",
			want: Entities{
				Profession:     models.Gardener,
				TemporalPhrase: "in 2 weeks",
			},
		},
		{
			name: "keyword hint",
			text: "My kitchen sink has a leak, can someone come tomorrow?",
			want: Entities{
				Profession:     models.Plumber,
				TemporalPhrase: "tomorrow",
			},
		},
		{
			name: "single capitalized token is not a name",
			text: "Book plumber Mike on Friday",
			want: Entities{
				Profession:     models.Plumber,
				TemporalPhrase: "on Friday",
			},
		},
		{
			name: "part of day joins the date",
			text: "Book plumber Mike Johnson for tomorrow afternoon",
			want: Entities{
				Profession:     models.Plumber,
				TechnicianName: "Mike Johnson",
				TemporalPhrase: "tomorrow afternoon",
				NameSource:     SourceRule,
			},
		},
		{
			name: "weekday evening with clock",
			text: "Need an electrician Friday evening at 5:30 pm",
			want: Entities{
				Profession:     models.Electrician,
				TemporalPhrase: "Friday evening at 5:30 pm",
			},
		},
		{
			name: "weekday after next",
			text: "Book welder Griselda Dickson Wednesday after next",
			want: Entities{
				Profession:     models.Welder,
				TechnicianName: "Griselda Dickson",
				TemporalPhrase: "Wednesday after next",
				NameSource:     SourceRule,
			},
		},
		{
			name: "booking reference",
			text: "Cancel booking 3F2504E0-4F89-11D3-9A0C-0305E82C3301 please",
			want: Entities{BookingRef: "3f2504e0-4f89-11d3-9a0c-0305e82c3301"},
		},
		{
			name: "malformed reference",
			text: "cancel booking 12345",
			want: Entities{InvalidRef: "12345"},
		},
		{
			name: "nothing to extract",
			text: "Tell me a joke.",
			want: Entities{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := x.Extract(context.Background(), tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestExtract_NERSpans(t *testing.T) {
	ctx := context.Background()

	t.Run("first span is technician, introduced span is customer", func(t *testing.T) {
		text := "Hi, I'm Jane Doe. Book carpenter Bob Stone for Friday at 10am"
		ner := new(mockNER)
		ner.On("PersonNames", ctx, text).
			Return([]oracle.Span{spanOf(text, "Jane Doe"), spanOf(text, "Bob Stone")}, nil).Once()

		got, err := NewExtractor(ner, nil, nil).Extract(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, "Bob Stone", got.TechnicianName)
		assert.Equal(t, "Jane Doe", got.CustomerName)
		assert.Equal(t, models.Carpenter, got.Profession)
		assert.Equal(t, "Friday at 10am", got.TemporalPhrase)
		assert.Equal(t, SourceNER, got.NameSource)
		ner.AssertExpectations(t)
	})

	t.Run("second span without cue stays unset", func(t *testing.T) {
		text := "Book painter Ann Lee with Tom Hardy tomorrow at 3pm"
		ner := new(mockNER)
		ner.On("PersonNames", ctx, text).
			Return([]oracle.Span{spanOf(text, "Ann Lee"), spanOf(text, "Tom Hardy")}, nil).Once()

		got, err := NewExtractor(ner, nil, nil).Extract(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, "Ann Lee", got.TechnicianName)
		assert.Empty(t, got.CustomerName)
	})

	t.Run("character offsets are relocated", func(t *testing.T) {
		text := "Book chef José Álvarez tomorrow at noon"
		ner := oracle.NERFunc(func(context.Context, string) ([]oracle.Span, error) {
			return []oracle.Span{{Text: "José Álvarez", Start: 10, End: 22}}, nil
		})

		got, err := NewExtractor(ner, nil, nil).Extract(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, "José Álvarez", got.TechnicianName)
		assert.Equal(t, "tomorrow at noon", got.TemporalPhrase)
	})

	t.Run("profession token reported as person is ignored", func(t *testing.T) {
		text := "Book Nurse Mary Poppins on Monday"
		ner := oracle.NERFunc(func(context.Context, string) ([]oracle.Span, error) {
			return []oracle.Span{spanOf(text, "Nurse Mary Poppins")}, nil
		})

		got, err := NewExtractor(ner, nil, nil).Extract(ctx, text)
		require.NoError(t, err)
		// The profession claims "Nurse", so the overlapping span is dropped
		// and the adjacency rule recovers the name.
		assert.Equal(t, models.Nurse, got.Profession)
		assert.Equal(t, "Mary Poppins", got.TechnicianName)
		assert.Equal(t, SourceRule, got.NameSource)
	})

	t.Run("oracle failure is surfaced", func(t *testing.T) {
		ner := new(mockNER)
		ner.On("PersonNames", ctx, mock.Anything).Return(nil, errors.New("timeout")).Once()

		_, err := NewExtractor(ner, nil, nil).Extract(ctx, "Book plumber Mike Johnson tomorrow")
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindOracleUnavailable))
	})
}

func TestExtract_PriorityBookingRefOverTemporal(t *testing.T) {
	x := newRuleExtractor()
	text := "get booking details 123e4567-e89b-12d3-a456-426614174000"

	got, err := x.Extract(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, "123e4567-e89b-12d3-a456-426614174000", got.BookingRef)
	assert.Empty(t, got.TemporalPhrase)
}

func TestHasCustomerCue(t *testing.T) {
	assert.True(t, hasCustomerCue("Hello, my name is "))
	assert.True(t, hasCustomerCue("I'm "))
	assert.True(t, hasCustomerCue("ok, I am, "))
	assert.False(t, hasCustomerCue("I need a claim "))
	assert.False(t, hasCustomerCue("Book "))
}
