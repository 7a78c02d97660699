package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"techbook/internal/apperr"
	"techbook/internal/export"
	"techbook/internal/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CreateBookingRequest is the body of POST /bookings. Times are RFC3339 or
// naive local times in the booking timezone.
type CreateBookingRequest struct {
	CustomerName   string `json:"customer_name"`
	TechnicianName string `json:"technician_name"`
	Profession     string `json:"profession"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
}

// CommandRequest is the body of POST /bookings/commands.
type CommandRequest struct {
	Message string `json:"message"`
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

func parseTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", v)
}

func (r CreateBookingRequest) toBooking(opts Options) (*models.Booking, error) {
	if strings.TrimSpace(r.TechnicianName) == "" {
		return nil, apperr.Validation("technician_name is required")
	}
	if strings.TrimSpace(r.StartTime) == "" {
		return nil, apperr.Validation("start_time is required")
	}
	start, err := parseTime(r.StartTime, opts.Location)
	if err != nil {
		return nil, apperr.Validation("start_time: %v", err).With("start_time", r.StartTime)
	}

	b := &models.Booking{
		CustomerName:   r.CustomerName,
		TechnicianName: r.TechnicianName,
		Profession:     models.Profession(r.Profession),
		StartTime:      start,
	}
	if b.CustomerName == "" {
		b.CustomerName = opts.DefaultCustomerName
	}
	if b.Profession == "" {
		b.Profession = models.Profession(opts.DefaultProfession)
	}
	if r.EndTime != "" {
		if b.EndTime, err = parseTime(r.EndTime, opts.Location); err != nil {
			return nil, apperr.Validation("end_time: %v", err).With("end_time", r.EndTime)
		}
	}
	return b, nil
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	s.count("list_bookings")

	list, err := s.bookings.List(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("list bookings failed")
		writeError(w, r, http.StatusInternalServerError, "BOOKINGS_RETRIEVAL_FAILED", "failed to retrieve bookings", nil)
		return
	}
	if list == nil {
		list = []models.Booking{}
	}
	writeData(w, r, http.StatusOK, list, map[string]any{"count": len(list)})
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	s.count("create_booking")

	var req CreateBookingRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body", map[string]any{"reason": err.Error()})
		return
	}

	b, err := req.toBooking(s.opts)
	if err == nil {
		b, err = s.bookings.Create(r.Context(), b)
	}
	if err != nil {
		e := apperr.From(err)
		switch e.Kind {
		case apperr.KindValidation:
			writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", e.Error(), e.Details)
		case apperr.KindConflict:
			writeError(w, r, http.StatusConflict, "BOOKING_CREATION_FAILED", e.Error(), withReason(e))
		default:
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("create booking failed")
			writeError(w, r, http.StatusInternalServerError, "BOOKING_CREATION_FAILED", "failed to create booking", nil)
		}
		return
	}

	zerolog.Ctx(r.Context()).Info().Str("booking_id", b.ID).Msg("booking created via API")
	writeData(w, r, http.StatusCreated, b, nil)
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	s.count("get_booking")

	id := r.PathValue("id")
	b, err := s.bookings.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "BOOKING_NOT_FOUND", fmt.Sprintf("Booking with ID %s not found", id), map[string]any{"booking_id": id})
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Str("booking_id", id).Msg("get booking failed")
		writeError(w, r, http.StatusInternalServerError, "BOOKINGS_RETRIEVAL_FAILED", "failed to retrieve booking", nil)
		return
	}
	writeData(w, r, http.StatusOK, b, nil)
}

func (s *HTTPServer) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	s.count("cancel_booking")

	id := r.PathValue("id")
	if _, err := s.bookings.Cancel(r.Context(), id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "BOOKING_NOT_FOUND", fmt.Sprintf("Booking with ID %s not found", id), map[string]any{"booking_id": id})
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Str("booking_id", id).Msg("cancel booking failed")
		writeError(w, r, http.StatusInternalServerError, "BOOKING_CANCELLATION_FAILED", "failed to cancel booking", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	s.count("export_bookings")

	list, err := s.bookings.List(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("list bookings for export failed")
		writeError(w, r, http.StatusInternalServerError, "BOOKINGS_RETRIEVAL_FAILED", "failed to retrieve bookings", nil)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteBookings(&buf, list); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("export bookings failed")
		writeError(w, r, http.StatusInternalServerError, "BOOKINGS_RETRIEVAL_FAILED", "failed to export bookings", nil)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *HTTPServer) handleCommand(w http.ResponseWriter, r *http.Request) {
	s.count("process_command")

	var req CommandRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body", map[string]any{"reason": err.Error()})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Message cannot be empty", nil)
		return
	}

	res := s.commands.Handle(r.Context(), req.Message)
	meta := map[string]any{}
	if res.Intent != "" {
		meta["intent"] = res.Intent
	}
	if res.OK() {
		writeData(w, r, http.StatusOK, res, meta)
		return
	}

	status, code := commandStatus(apperr.Kind(res.Error.Code))
	details := map[string]any{"reason": res.Error.Code}
	for k, v := range res.Error.Details {
		details[k] = v
	}
	writeJSON(w, status, Envelope{
		Data: res,
		Error: &ErrorBody{
			Code:      code,
			Message:   res.Error.Message,
			Details:   details,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
		Metadata: metadata(r, meta),
	})
}

// commandStatus maps a pipeline failure to an HTTP status and envelope code.
func commandStatus(kind apperr.Kind) (int, string) {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case apperr.KindNotFound:
		return http.StatusNotFound, "BOOKING_NOT_FOUND"
	case apperr.KindAmbiguousIntent, apperr.KindMissingEntity, apperr.KindTemporalResolution:
		return http.StatusBadRequest, "COMMAND_PROCESSING_FAILED"
	case apperr.KindConflict:
		return http.StatusConflict, "COMMAND_PROCESSING_FAILED"
	case apperr.KindOracleUnavailable:
		return http.StatusServiceUnavailable, "COMMAND_PROCESSING_FAILED"
	default:
		return http.StatusInternalServerError, "COMMAND_PROCESSING_FAILED"
	}
}

func withReason(e *apperr.Error) map[string]any {
	details := map[string]any{"reason": e.Code()}
	for k, v := range e.Details {
		details[k] = v
	}
	return details
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	data := map[string]any{"status": "ok", "version": s.opts.Version}
	if s.pinger != nil {
		if err := s.pinger.PingContext(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			data["status"] = "degraded"
			data["storage"] = err.Error()
		}
	}
	writeJSON(w, status, Envelope{Success: status == http.StatusOK, Data: data, Metadata: metadata(r, nil)})
}
