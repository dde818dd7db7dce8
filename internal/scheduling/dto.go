package scheduling

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salonflow/backend/pkg/enums"
)

// ServiceLineInput is one requested catalog service with the price the caller
// wants recorded for it. The applied price is trusted as-is so per-booking
// overrides survive later catalog edits.
type ServiceLineInput struct {
	ServiceID    uuid.UUID
	AppliedPrice decimal.Decimal
}

// CreateAppointmentInput captures a booking request before resolution.
type CreateAppointmentInput struct {
	ClientID        uuid.UUID
	StaffID         uuid.UUID
	StartAt         time.Time
	TravelBufferMin int
	Services        []ServiceLineInput
}

// UpdateAppointmentInput reschedules an existing appointment. The service
// list replaces the previous one wholesale.
type UpdateAppointmentInput struct {
	AppointmentID   uuid.UUID
	ClientID        uuid.UUID
	StaffID         uuid.UUID
	StartAt         time.Time
	TravelBufferMin int
	Services        []ServiceLineInput
}

// PatchStatusInput transitions an appointment's lifecycle status.
type PatchStatusInput struct {
	AppointmentID uuid.UUID
	Status        enums.AppointmentStatus
}

// ListFilter narrows appointment listings.
type ListFilter struct {
	StaffID *uuid.UUID
	From    *time.Time
	To      *time.Time
	Status  *enums.AppointmentStatus
	Limit   int
	Offset  int
}

// ConflictDetails identifies the booking that blocked a requested window.
type ConflictDetails struct {
	AppointmentID  uuid.UUID `json:"appointment_id"`
	StaffID        uuid.UUID `json:"staff_id"`
	StartAt        time.Time `json:"start_at"`
	EndAt          time.Time `json:"end_at"`
	BlockedStartAt time.Time `json:"blocked_start_at"`
}
