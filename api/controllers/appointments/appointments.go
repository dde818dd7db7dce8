package appointments

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salonflow/backend/api/middleware"
	"github.com/salonflow/backend/api/responses"
	"github.com/salonflow/backend/api/validators"
	"github.com/salonflow/backend/internal/scheduling"
	"github.com/salonflow/backend/pkg/enums"
	pkgerrors "github.com/salonflow/backend/pkg/errors"
	"github.com/salonflow/backend/pkg/logger"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type serviceLineRequest struct {
	ServiceID    string `json:"service_id" validate:"required,uuid4"`
	AppliedPrice string `json:"applied_price" validate:"required"`
}

type bookingRequest struct {
	ClientID        string               `json:"client_id" validate:"required,uuid4"`
	StaffID         string               `json:"staff_id" validate:"omitempty,uuid4"`
	StartAt         string               `json:"start_at" validate:"required"`
	TravelBufferMin int                  `json:"travel_buffer_min" validate:"min=0"`
	Services        []serviceLineRequest `json:"services" validate:"required,min=1,dive"`
}

type patchStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Create books an appointment, rejecting any request whose blocked window
// collides with an existing booking for the same staff member.
func Create(svc scheduling.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scheduling service unavailable"))
			return
		}

		var payload bookingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := buildCreateInput(r, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		appt, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, appt)
	}
}

// Update reschedules a pending appointment, replacing its service lines.
func Update(svc scheduling.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scheduling service unavailable"))
			return
		}

		appointmentID, err := parseAppointmentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload bookingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		createInput, err := buildCreateInput(r, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		appt, err := svc.Update(r.Context(), scheduling.UpdateAppointmentInput{
			AppointmentID:   appointmentID,
			ClientID:        createInput.ClientID,
			StaffID:         createInput.StaffID,
			StartAt:         createInput.StartAt,
			TravelBufferMin: createInput.TravelBufferMin,
			Services:        createInput.Services,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, appt)
	}
}

// PatchStatus transitions an appointment's lifecycle status.
func PatchStatus(svc scheduling.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scheduling service unavailable"))
			return
		}

		appointmentID, err := parseAppointmentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload patchStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseAppointmentStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		if err := svc.PatchStatus(r.Context(), scheduling.PatchStatusInput{
			AppointmentID: appointmentID,
			Status:        status,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

// Detail returns one appointment with its service lines.
func Detail(svc scheduling.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scheduling service unavailable"))
			return
		}

		appointmentID, err := parseAppointmentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		appt, err := svc.Get(r.Context(), appointmentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, appt)
	}
}

// List returns appointments filtered by staff, window, and status.
func List(svc scheduling.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scheduling service unavailable"))
			return
		}

		filter, err := buildListFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func buildCreateInput(r *http.Request, payload bookingRequest) (scheduling.CreateAppointmentInput, error) {
	var input scheduling.CreateAppointmentInput

	clientID, err := uuid.Parse(payload.ClientID)
	if err != nil {
		return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid client id")
	}
	staffID, err := resolveStaffID(r, payload.StaffID)
	if err != nil {
		return input, err
	}
	startAt, err := time.Parse(time.RFC3339, strings.TrimSpace(payload.StartAt))
	if err != nil {
		return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "start_at must be RFC 3339")
	}

	services := make([]scheduling.ServiceLineInput, 0, len(payload.Services))
	for _, line := range payload.Services {
		serviceID, err := uuid.Parse(line.ServiceID)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid service id")
		}
		price, err := decimal.NewFromString(strings.TrimSpace(line.AppliedPrice))
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid applied price")
		}
		services = append(services, scheduling.ServiceLineInput{
			ServiceID:    serviceID,
			AppliedPrice: price,
		})
	}

	input = scheduling.CreateAppointmentInput{
		ClientID:        clientID,
		StaffID:         staffID,
		StartAt:         startAt,
		TravelBufferMin: payload.TravelBufferMin,
		Services:        services,
	}
	return input, nil
}

// resolveStaffID falls back to the authenticated staff member when the
// request does not name one.
func resolveStaffID(r *http.Request, raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = middleware.StaffIDFromContext(r.Context())
	}
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "staff id is required")
	}
	staffID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid staff id")
	}
	return staffID, nil
}

func buildListFilter(r *http.Request) (scheduling.ListFilter, error) {
	var filter scheduling.ListFilter

	staffID, err := validators.ParseQueryUUID(r, "staff_id")
	if err != nil {
		return filter, err
	}
	filter.StaffID = staffID

	from, err := validators.ParseQueryTime(r, "from")
	if err != nil {
		return filter, err
	}
	filter.From = from

	to, err := validators.ParseQueryTime(r, "to")
	if err != nil {
		return filter, err
	}
	filter.To = to

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseAppointmentStatus(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		filter.Status = &status
	}

	limit, err := validators.ParseQueryInt(r, "limit", defaultListLimit, 1, maxListLimit)
	if err != nil {
		return filter, err
	}
	filter.Limit = limit

	offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<30)
	if err != nil {
		return filter, err
	}
	filter.Offset = offset

	return filter, nil
}

func parseAppointmentID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "appointmentId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "appointment id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid appointment id")
	}
	return id, nil
}
