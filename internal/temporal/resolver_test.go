package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techbook/internal/apperr"
)

// Thursday.
var refNow = time.Date(2025, 1, 30, 12, 0, 0, 0, time.UTC)

func utc(month time.Month, day, hour, min int) time.Time {
	return time.Date(2025, month, day, hour, min, 0, 0, time.UTC)
}

func TestResolve(t *testing.T) {
	r := New(DefaultOptions())

	tests := []struct {
		phrase string
		want   time.Time
	}{
		{"tomorrow at 2pm", utc(1, 31, 14, 0)},
		{"next Monday at 9 AM", utc(2, 3, 9, 0)},
		{"Monday at 9 AM", utc(2, 3, 9, 0)},
		{"next Thursday at 10am", utc(2, 6, 10, 0)},
		{"Thursday at 3pm", utc(1, 30, 15, 0)},
		{"Thursday at 10am", utc(2, 6, 10, 0)},
		{"Wednesday at 2 PM", utc(2, 5, 14, 0)},
		{"on fri at 11:30", utc(1, 31, 11, 30)},
		{"Friday", utc(1, 31, 9, 0)},
		{"today at 4 p.m.", utc(1, 30, 16, 0)},
		{"at 2pm", utc(1, 30, 14, 0)},
		{"at 10am", utc(1, 31, 10, 0)},
		{"at 3", utc(1, 30, 15, 0)},
		{"at noon", utc(1, 31, 12, 0)},
		{"day after tomorrow at 17:00", utc(2, 1, 17, 0)},
		{"in 3 days at 1pm", utc(2, 2, 13, 0)},
		{"in two weeks", utc(2, 13, 9, 0)},
		{"in a week at 10:15", utc(2, 6, 10, 15)},
		{"2025-02-10 at 11am", utc(2, 10, 11, 0)},
		{"February 14th at 4pm", utc(2, 14, 16, 0)},
		{"14 February at 4pm", utc(2, 14, 16, 0)},
		{"Monday, February 3 at 9am", utc(2, 3, 9, 0)},
		{"2/7 at 9:45 am", utc(2, 7, 9, 45)},
		{"tomorrow afternoon", utc(1, 31, 14, 0)},
		{"tomorrow morning", utc(1, 31, 9, 0)},
		{"Friday evening", utc(1, 31, 17, 0)},
		{"next Monday morning", utc(2, 3, 9, 0)},
		{"this afternoon", utc(1, 30, 14, 0)},
		{"tonight", utc(1, 30, 17, 0)},
		{"tomorrow afternoon at 4pm", utc(1, 31, 16, 0)},
		{"friday evening at 5:30 pm", utc(1, 31, 17, 30)},
		{"Wednesday after next", utc(2, 12, 9, 0)},
		{"Wednesday after next at 3pm", utc(2, 12, 15, 0)},
		{"thursday after next at 10am", utc(2, 13, 10, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			got, err := r.Resolve(tt.phrase, refNow)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got.Start), "start: want %s, got %s", tt.want, got.Start)
			assert.Equal(t, time.Hour, got.End.Sub(got.Start))
		})
	}
}

func TestResolve_YearlessDateRollsForward(t *testing.T) {
	r := New(DefaultOptions())

	got, err := r.Resolve("January 10 at 10am", refNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC), got.Start)
}

func TestResolve_Errors(t *testing.T) {
	r := New(DefaultOptions())

	tests := []struct {
		name    string
		phrase  string
		wantMsg string
	}{
		{"empty", "   ", "no date or time"},
		{"gibberish", "whenever works", "could not understand"},
		{"before opening", "tomorrow at 7am", "outside business hours"},
		{"at closing", "tomorrow at 6pm", "outside business hours"},
		{"midnight", "tomorrow at midnight", "outside business hours"},
		{"past explicit date", "2025-01-02 at 10am", "not in the future"},
		{"today already past", "today at 10am", "not in the future"},
		{"today default hour", "today", "not in the future"},
		{"invalid clock", "tomorrow at 13pm", "invalid time of day"},
		{"invalid date", "2025-02-30 at 10am", "invalid calendar date"},
		{"morning already over", "this morning", "not in the future"},
		{"weekday mismatch", "Tuesday, February 3 at 9am", "is a Monday"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.phrase, refNow)
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.KindTemporalResolution))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestResolve_EqualToNowIsRejected(t *testing.T) {
	r := New(DefaultOptions())
	now := time.Date(2025, 1, 30, 14, 0, 0, 0, time.UTC)

	got, err := r.Resolve("at 2pm", now)
	require.NoError(t, err)
	// A time-only phrase equal to now moves to the next day.
	assert.Equal(t, utc(1, 31, 14, 0), got.Start)

	_, err = r.Resolve("today at 2pm", now)
	assert.True(t, apperr.IsKind(err, apperr.KindTemporalResolution))
}

func TestResolve_Timezone(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Location = berlin
	r := New(opts)

	got, err := r.Resolve("tomorrow at 2pm", refNow)
	require.NoError(t, err)
	assert.Equal(t, berlin, got.Start.Location())
	assert.Equal(t, 14, got.Start.Hour())
	assert.Equal(t, time.Date(2025, 1, 31, 13, 0, 0, 0, time.UTC), got.Start.UTC())
}

func TestResolve_ConfiguredDefaultHour(t *testing.T) {
	opts := DefaultOptions()
	opts.DefaultHour = 11
	r := New(opts)

	got, err := r.Resolve("tomorrow", refNow)
	require.NoError(t, err)
	assert.Equal(t, utc(1, 31, 11, 0), got.Start)
}
