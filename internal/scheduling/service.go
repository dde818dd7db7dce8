package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/salonflow/backend/internal/catalog"
	"github.com/salonflow/backend/internal/staff"
	"github.com/salonflow/backend/pkg/db/models"
	"github.com/salonflow/backend/pkg/enums"
	pkgerrors "github.com/salonflow/backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the booking operations.
type Service interface {
	Create(ctx context.Context, input CreateAppointmentInput) (*models.Appointment, error)
	Update(ctx context.Context, input UpdateAppointmentInput) (*models.Appointment, error)
	PatchStatus(ctx context.Context, input PatchStatusInput) error
	Get(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	List(ctx context.Context, filter ListFilter) ([]models.Appointment, error)
}

type service struct {
	repo    Repository
	staff   staff.Repository
	catalog catalog.Repository
	tx      txRunner
}

// NewService builds a scheduling service with the required dependencies.
func NewService(repo Repository, staffRepo staff.Repository, catalogRepo catalog.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("scheduling repository required")
	}
	if staffRepo == nil {
		return nil, fmt.Errorf("staff repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:    repo,
		staff:   staffRepo,
		catalog: catalogRepo,
		tx:      tx,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateAppointmentInput) (*models.Appointment, error) {
	if err := validateBookingFields(input.ClientID, input.StaffID, input.StartAt, input.TravelBufferMin); err != nil {
		return nil, err
	}

	var created *models.Appointment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if err := s.checkStaffBookable(ctx, tx, input.StaffID); err != nil {
			return err
		}

		resolved, err := resolveServices(ctx, s.catalog.WithTx(tx), input.Services)
		if err != nil {
			return err
		}

		window := BlockedInterval(input.StartAt, input.TravelBufferMin, resolved.totalDuration)
		if err := s.checkWindowFree(ctx, repo, input.StaffID, window, nil); err != nil {
			return err
		}

		appt := &models.Appointment{
			ClientID:        input.ClientID,
			StaffID:         input.StaffID,
			StartAt:         input.StartAt,
			EndAt:           window.End,
			BlockedStartAt:  window.Start,
			TravelBufferMin: input.TravelBufferMin,
			Total:           resolved.total,
			PaidTotal:       decimal.Zero,
			Status:          enums.AppointmentStatusPending,
			PaymentStatus:   enums.PaymentStatusPending,
			Items:           resolved.items,
		}
		created, err = repo.Create(ctx, appt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create appointment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, input UpdateAppointmentInput) (*models.Appointment, error) {
	if input.AppointmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "appointment id required")
	}
	if err := validateBookingFields(input.ClientID, input.StaffID, input.StartAt, input.TravelBufferMin); err != nil {
		return nil, err
	}

	var updated *models.Appointment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindByID(ctx, input.AppointmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "appointment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load appointment")
		}
		if existing.Status != enums.AppointmentStatusPending {
			return pkgerrors.New(pkgerrors.CodeConflict, "only pending appointments can be rescheduled")
		}

		if err := s.checkStaffBookable(ctx, tx, input.StaffID); err != nil {
			return err
		}

		resolved, err := resolveServices(ctx, s.catalog.WithTx(tx), input.Services)
		if err != nil {
			return err
		}

		window := BlockedInterval(input.StartAt, input.TravelBufferMin, resolved.totalDuration)
		if err := s.checkWindowFree(ctx, repo, input.StaffID, window, &existing.ID); err != nil {
			return err
		}

		existing.ClientID = input.ClientID
		existing.StaffID = input.StaffID
		existing.StartAt = input.StartAt
		existing.EndAt = window.End
		existing.BlockedStartAt = window.Start
		existing.TravelBufferMin = input.TravelBufferMin
		existing.Total = resolved.total

		if err := repo.UpdateHeader(ctx, existing); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update appointment")
		}
		if err := repo.ReplaceItems(ctx, existing.ID, resolved.items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace appointment items")
		}

		updated, err = repo.FindByID(ctx, existing.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload appointment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) PatchStatus(ctx context.Context, input PatchStatusInput) error {
	if input.AppointmentID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "appointment id required")
	}
	if !input.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid appointment status")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.WithTx(tx).UpdateStatus(ctx, input.AppointmentID, input.Status)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update appointment status")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "appointment not found")
		}
		return nil
	})
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "appointment id required")
	}
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "appointment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load appointment")
	}
	return appt, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Appointment, error) {
	appts, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list appointments")
	}
	return appts, nil
}

func validateBookingFields(clientID, staffID uuid.UUID, startAt time.Time, travelBufferMin int) error {
	if clientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "client id required")
	}
	if staffID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "staff id required")
	}
	if startAt.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start time required")
	}
	if travelBufferMin < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "travel buffer must not be negative")
	}
	return nil
}

func (s *service) checkStaffBookable(ctx context.Context, tx *gorm.DB, staffID uuid.UUID) error {
	member, err := s.staff.WithTx(tx).FindByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "staff does not exist")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load staff")
	}
	if !member.Active {
		return pkgerrors.New(pkgerrors.CodeValidation, "staff is inactive")
	}
	if !member.Role.CanProvideServices() {
		return pkgerrors.New(pkgerrors.CodeValidation, "staff role cannot be booked for services")
	}
	return nil
}

func (s *service) checkWindowFree(ctx context.Context, repo Repository, staffID uuid.UUID, window Interval, excludeID *uuid.UUID) error {
	conflict, err := repo.FindConflicting(ctx, staffID, window, excludeID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check staff availability")
	}
	if conflict != nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "staff is already booked in the requested window").
			WithDetails(ConflictDetails{
				AppointmentID:  conflict.ID,
				StaffID:        conflict.StaffID,
				StartAt:        conflict.StartAt,
				EndAt:          conflict.EndAt,
				BlockedStartAt: conflict.BlockedStartAt,
			})
	}
	return nil
}
