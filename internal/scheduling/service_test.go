package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/salonflow/backend/internal/catalog"
	"github.com/salonflow/backend/internal/staff"
	"github.com/salonflow/backend/pkg/db/models"
	"github.com/salonflow/backend/pkg/enums"
	pkgerrors "github.com/salonflow/backend/pkg/errors"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx.WithContext(ctx))
	})
}

type fixture struct {
	db      *gorm.DB
	svc     Service
	stylist models.Staff
	cut     models.CatalogService
	trim    models.CatalogService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := "file:scheduling_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Staff{},
		&models.CatalogService{},
		&models.Appointment{},
		&models.AppointmentItem{},
	))

	svc, err := NewService(
		NewRepository(db),
		staff.NewRepository(db),
		catalog.NewRepository(db),
		testTxRunner{db: db},
	)
	require.NoError(t, err)

	f := &fixture{
		db:  db,
		svc: svc,
		stylist: models.Staff{
			Name:   "Ana",
			Role:   enums.StaffRoleStylist,
			Active: true,
		},
		cut: models.CatalogService{
			Name:            "Haircut",
			DurationMinutes: 30,
			Price:           decimal.NewFromFloat(25.00),
			Active:          true,
		},
		trim: models.CatalogService{
			Name:            "Beard Trim",
			DurationMinutes: 20,
			Price:           decimal.NewFromFloat(15.00),
			Active:          true,
		},
	}
	require.NoError(t, db.Create(&f.stylist).Error)
	require.NoError(t, db.Create(&f.cut).Error)
	require.NoError(t, db.Create(&f.trim).Error)
	return f
}

// line declares a service at its catalog price, the common case.
func line(svc models.CatalogService) ServiceLineInput {
	return ServiceLineInput{ServiceID: svc.ID, AppliedPrice: svc.Price}
}

func (f *fixture) createInput(start time.Time, bufferMin int, services ...ServiceLineInput) CreateAppointmentInput {
	return CreateAppointmentInput{
		ClientID:        uuid.New(),
		StaffID:         f.stylist.ID,
		StartAt:         start,
		TravelBufferMin: bufferMin,
		Services:        services,
	}
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func TestCreateAppointment_DerivesWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start := mustTime(t, "2025-06-01T10:00:00Z")

	appt, err := f.svc.Create(ctx, f.createInput(start, 15, line(f.cut), line(f.trim)))
	require.NoError(t, err)

	assert.Equal(t, start.UTC(), appt.StartAt.UTC())
	assert.Equal(t, mustTime(t, "2025-06-01T10:50:00Z"), appt.EndAt.UTC())
	assert.Equal(t, mustTime(t, "2025-06-01T09:45:00Z"), appt.BlockedStartAt.UTC())
	assert.Equal(t, enums.AppointmentStatusPending, appt.Status)
	assert.Equal(t, enums.PaymentStatusPending, appt.PaymentStatus)
	assert.True(t, appt.Total.Equal(decimal.NewFromFloat(40.00)), "total %s", appt.Total)
	assert.True(t, appt.PaidTotal.IsZero())
	require.Len(t, appt.Items, 2)
	assert.True(t, appt.Items[0].AppliedPrice.Equal(f.cut.Price))
}

func TestCreateAppointment_AppliedPriceOverridesCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	discounted := ServiceLineInput{ServiceID: f.cut.ID, AppliedPrice: decimal.NewFromFloat(18.00)}
	appt, err := f.svc.Create(ctx, f.createInput(mustTime(t, "2025-06-01T10:00:00Z"), 0, discounted))
	require.NoError(t, err)

	assert.True(t, appt.Total.Equal(decimal.NewFromFloat(18.00)), "total %s", appt.Total)
	require.Len(t, appt.Items, 1)
	assert.True(t, appt.Items[0].AppliedPrice.Equal(decimal.NewFromFloat(18.00)))
}

func TestCreateAppointment_ZeroTotalRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	free := ServiceLineInput{ServiceID: f.cut.ID, AppliedPrice: decimal.Zero}
	_, err := f.svc.Create(ctx, f.createInput(mustTime(t, "2025-06-01T10:00:00Z"), 0, free))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCreateAppointment_BackToBackIsAllowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.createInput(mustTime(t, "2025-06-01T10:00:00Z"), 15, line(f.cut), line(f.trim)))
	require.NoError(t, err)

	// first appointment blocks [09:45, 10:50), so a 10:50 start is free
	next, err := f.svc.Create(ctx, f.createInput(mustTime(t, "2025-06-01T10:50:00Z"), 0, line(f.cut)))
	require.NoError(t, err)
	assert.Equal(t, mustTime(t, "2025-06-01T10:50:00Z"), next.BlockedStartAt.UTC())
}

func TestCreateAppointment_OverlapConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.createInput(mustTime(t, "2025-06-01T10:00:00Z"), 15, line(f.cut), line(f.trim)))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.createInput(mustTime(t, "2025-06-01T10:49:00Z"), 0, line(f.cut)))
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	details, ok := typed.Details().(ConflictDetails)
	require.True(t, ok, "expected conflict details, got %T", typed.Details())
	assert.Equal(t, first.ID, details.AppointmentID)
}

func TestCreateAppointment_BufferCollisionConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// second booking's buffer reaches back into the first one's window
	_, err := f.svc.Create(ctx, f.createInput(mustTime(t, "2025-06-01T10:00:00Z"), 0, line(f.cut)))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.createInput(mustTime(t, "2025-06-01T10:40:00Z"), 15, line(f.cut)))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestCreateAppointment_StaffValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start := mustTime(t, "2025-06-01T10:00:00Z")

	t.Run("unknown staff", func(t *testing.T) {
		input := f.createInput(start, 0, line(f.cut))
		input.StaffID = uuid.New()
		_, err := f.svc.Create(ctx, input)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	})

	t.Run("inactive staff", func(t *testing.T) {
		inactive := models.Staff{Name: "Inactive", Role: enums.StaffRoleStylist, Active: false}
		require.NoError(t, f.db.Create(&inactive).Error)

		input := f.createInput(start, 0, line(f.cut))
		input.StaffID = inactive.ID
		_, err := f.svc.Create(ctx, input)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	})

	t.Run("front desk cannot be booked", func(t *testing.T) {
		frontDesk := models.Staff{Name: "Desk", Role: enums.StaffRoleFrontDesk, Active: true}
		require.NoError(t, f.db.Create(&frontDesk).Error)

		input := f.createInput(start, 0, line(f.cut))
		input.StaffID = frontDesk.ID
		_, err := f.svc.Create(ctx, input)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	})
}

func TestCreateAppointment_ServiceResolution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start := mustTime(t, "2025-06-01T10:00:00Z")

	t.Run("no services", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.createInput(start, 0))
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	})

	t.Run("unknown service", func(t *testing.T) {
		ghost := ServiceLineInput{ServiceID: uuid.New(), AppliedPrice: decimal.NewFromFloat(10.00)}
		_, err := f.svc.Create(ctx, f.createInput(start, 0, ghost))
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	})

	t.Run("inactive service", func(t *testing.T) {
		retired := models.CatalogService{
			Name:            "Retired Perm",
			DurationMinutes: 60,
			Price:           decimal.NewFromFloat(50.00),
			Active:          false,
		}
		require.NoError(t, f.db.Create(&retired).Error)

		_, err := f.svc.Create(ctx, f.createInput(start, 0, line(retired)))
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	})

	t.Run("negative applied price", func(t *testing.T) {
		refund := ServiceLineInput{ServiceID: f.cut.ID, AppliedPrice: decimal.NewFromFloat(-5.00)}
		_, err := f.svc.Create(ctx, f.createInput(start, 0, refund))
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	})
}

func TestUpdateAppointment_ExcludesItself(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Create(ctx, f.createInput(mustTime(t, "2025-06-01T10:00:00Z"), 15, line(f.cut), line(f.trim)))
	require.NoError(t, err)

	// shifting by ten minutes still overlaps the old window, which must not
	// count as a conflict with itself
	updated, err := f.svc.Update(ctx, UpdateAppointmentInput{
		AppointmentID:   appt.ID,
		ClientID:        appt.ClientID,
		StaffID:         appt.StaffID,
		StartAt:         mustTime(t, "2025-06-01T10:10:00Z"),
		TravelBufferMin: 15,
		Services:        []ServiceLineInput{line(f.cut)},
	})
	require.NoError(t, err)

	assert.Equal(t, mustTime(t, "2025-06-01T10:40:00Z"), updated.EndAt.UTC())
	assert.Equal(t, mustTime(t, "2025-06-01T09:55:00Z"), updated.BlockedStartAt.UTC())
	assert.True(t, updated.Total.Equal(f.cut.Price))
	require.Len(t, updated.Items, 1)
	assert.Equal(t, f.cut.ID, updated.Items[0].ServiceID)
}

func TestUpdateAppointment_ConflictWithOtherBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.createInput(mustTime(t, "2025-06-01T10:00:00Z"), 0, line(f.cut)))
	require.NoError(t, err)

	second, err := f.svc.Create(ctx, f.createInput(mustTime(t, "2025-06-01T12:00:00Z"), 0, line(f.cut)))
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, UpdateAppointmentInput{
		AppointmentID:   second.ID,
		ClientID:        second.ClientID,
		StaffID:         second.StaffID,
		StartAt:         mustTime(t, "2025-06-01T10:15:00Z"),
		TravelBufferMin: 0,
		Services:        []ServiceLineInput{line(f.cut)},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestUpdateAppointment_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Update(context.Background(), UpdateAppointmentInput{
		AppointmentID:   uuid.New(),
		ClientID:        uuid.New(),
		StaffID:         f.stylist.ID,
		StartAt:         mustTime(t, "2025-06-01T10:00:00Z"),
		TravelBufferMin: 0,
		Services:        []ServiceLineInput{line(f.cut)},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestPatchStatus_CancelledFreesWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Create(ctx, f.createInput(mustTime(t, "2025-06-01T10:00:00Z"), 0, line(f.cut)))
	require.NoError(t, err)

	require.NoError(t, f.svc.PatchStatus(ctx, PatchStatusInput{
		AppointmentID: appt.ID,
		Status:        enums.AppointmentStatusCancelled,
	}))

	_, err = f.svc.Create(ctx, f.createInput(mustTime(t, "2025-06-01T10:00:00Z"), 0, line(f.cut)))
	require.NoError(t, err)
}

func TestPatchStatus_NotFound(t *testing.T) {
	f := newFixture(t)

	err := f.svc.PatchStatus(context.Background(), PatchStatusInput{
		AppointmentID: uuid.New(),
		Status:        enums.AppointmentStatusCompleted,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestListAppointments_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.createInput(mustTime(t, "2025-06-01T10:00:00Z"), 0, line(f.cut)))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.createInput(mustTime(t, "2025-06-02T10:00:00Z"), 0, line(f.cut)))
	require.NoError(t, err)

	from := mustTime(t, "2025-06-01T00:00:00Z")
	to := mustTime(t, "2025-06-01T23:59:59Z")
	appts, err := f.svc.List(ctx, ListFilter{
		StaffID: &f.stylist.ID,
		From:    &from,
		To:      &to,
	})
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, first.ID, appts[0].ID)
}
