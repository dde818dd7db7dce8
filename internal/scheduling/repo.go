package scheduling

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/salonflow/backend/pkg/db"
	"github.com/salonflow/backend/pkg/db/models"
	"github.com/salonflow/backend/pkg/enums"
)

// Repository persists appointments and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, appt *models.Appointment) (*models.Appointment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	List(ctx context.Context, filter ListFilter) ([]models.Appointment, error)
	FindConflicting(ctx context.Context, staffID uuid.UUID, window Interval, excludeID *uuid.UUID) (*models.Appointment, error)
	UpdateHeader(ctx context.Context, appt *models.Appointment) error
	ReplaceItems(ctx context.Context, appointmentID uuid.UUID, items []models.AppointmentItem) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.AppointmentStatus) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an appointments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, appt *models.Appointment) (*models.Appointment, error) {
	if err := r.db.WithContext(ctx).Create(appt).Error; err != nil {
		return nil, err
	}
	return appt, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	var appt models.Appointment
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&appt).Error
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Appointment, error) {
	query := r.db.WithContext(ctx).Model(&models.Appointment{}).Preload("Items")

	if filter.StaffID != nil {
		query = query.Where("staff_id = ?", *filter.StaffID)
	}
	if filter.From != nil {
		query = query.Where("end_at > ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("start_at < ?", *filter.To)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var appts []models.Appointment
	if err := query.Order("start_at ASC").Find(&appts).Error; err != nil {
		return nil, err
	}
	return appts, nil
}

// FindConflicting returns the first non-cancelled appointment whose blocked
// window intersects the candidate window. The row is locked for the duration
// of the surrounding transaction so concurrent bookings serialize. Returns
// (nil, nil) when the window is free.
func (r *repository) FindConflicting(ctx context.Context, staffID uuid.UUID, window Interval, excludeID *uuid.UUID) (*models.Appointment, error) {
	query := r.db.WithContext(ctx).
		Where("staff_id = ?", staffID).
		Where("status <> ?", enums.AppointmentStatusCancelled).
		Where("blocked_start_at < ? AND end_at > ?", window.End, window.Start)

	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	if db.SupportsRowLocks(r.db.Dialector.Name()) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var appt models.Appointment
	err := query.Order("blocked_start_at ASC").First(&appt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func (r *repository) UpdateHeader(ctx context.Context, appt *models.Appointment) error {
	return r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ?", appt.ID).
		Updates(map[string]any{
			"client_id":         appt.ClientID,
			"staff_id":          appt.StaffID,
			"start_at":          appt.StartAt,
			"end_at":            appt.EndAt,
			"blocked_start_at":  appt.BlockedStartAt,
			"travel_buffer_min": appt.TravelBufferMin,
			"total":             appt.Total,
		}).Error
}

func (r *repository) ReplaceItems(ctx context.Context, appointmentID uuid.UUID, items []models.AppointmentItem) error {
	if err := r.db.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		Delete(&models.AppointmentItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ID = uuid.Nil
		items[i].AppointmentID = appointmentID
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.AppointmentStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ?", id).
		Update("status", status)
	return result.RowsAffected, result.Error
}
