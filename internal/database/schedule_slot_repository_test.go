package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/offthegrid/booking-backend/internal/models"
)

func newMockDB(t *testing.T) (DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &PostgresDB{DB: sqlx.NewDb(db, "sqlmock")}, mock
}

func slotRows(slot *models.ScheduleSlot) *sqlmock.Rows {
	var endTime, priceOverride, holdExpiresAt interface{}
	if slot.EndTime != nil {
		endTime = *slot.EndTime
	}
	if slot.PriceOverride != nil {
		priceOverride = *slot.PriceOverride
	}
	if slot.HoldExpiresAt != nil {
		holdExpiresAt = *slot.HoldExpiresAt
	}
	return sqlmock.NewRows([]string{
		"id", "offering_id", "start_time", "end_time", "price_override",
		"capacity", "status", "hold_expires_at", "created_at", "updated_at",
	}).AddRow(
		slot.ID, slot.OfferingID, slot.StartTime, endTime, priceOverride,
		slot.Capacity, slot.Status, holdExpiresAt, slot.CreatedAt, slot.UpdatedAt,
	)
}

func TestReserve(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleSlotRepository(db)

	slotID := uuid.New()
	holdUntil := time.Now().Add(20 * time.Minute)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE schedule_slots`).
			WithArgs(slotID, holdUntil).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Reserve(slotID, holdUntil)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Slot Already Held", func(t *testing.T) {
		// The conditional WHERE matched no rows: a concurrent request won.
		mock.ExpectExec(`UPDATE schedule_slots`).
			WithArgs(slotID, holdUntil).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Reserve(slotID, holdUntil)
		assert.ErrorIs(t, err, models.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectExec(`UPDATE schedule_slots`).
			WithArgs(slotID, holdUntil).
			WillReturnError(fmt.Errorf("connection reset"))

		err := repo.Reserve(slotID, holdUntil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to reserve slot")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestConfirm(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleSlotRepository(db)

	slotID := uuid.New()

	t.Run("Pending To Booked", func(t *testing.T) {
		mock.ExpectExec(`UPDATE schedule_slots`).
			WithArgs(slotID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Confirm(slotID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Booked Is Idempotent", func(t *testing.T) {
		// Status IN ('PENDING','BOOKED') matches BOOKED rows too, so the
		// second confirm still reports one affected row.
		mock.ExpectExec(`UPDATE schedule_slots`).
			WithArgs(slotID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Confirm(slotID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Cancelled Slot Conflicts", func(t *testing.T) {
		mock.ExpectExec(`UPDATE schedule_slots`).
			WithArgs(slotID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Confirm(slotID)
		assert.ErrorIs(t, err, models.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetBookableSlot(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleSlotRepository(db)

	offeringID := uuid.New()
	slotID := uuid.New()

	t.Run("Open Slot", func(t *testing.T) {
		now := time.Now()
		slot := &models.ScheduleSlot{
			ID:         slotID,
			OfferingID: offeringID,
			StartTime:  now.Add(48 * time.Hour),
			Capacity:   4,
			Status:     models.SlotStatusOpen,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		mock.ExpectQuery(`SELECT (.+) FROM schedule_slots`).
			WithArgs(slotID, offeringID).
			WillReturnRows(slotRows(slot))

		got, err := repo.GetBookableSlot(offeringID, slotID)
		require.NoError(t, err)
		assert.Equal(t, slotID, got.ID)
		assert.Equal(t, models.SlotStatusOpen, got.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Booked Slot Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM schedule_slots`).
			WithArgs(slotID, offeringID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		got, err := repo.GetBookableSlot(offeringID, slotID)
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCancelSlot(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleSlotRepository(db)

	slotID := uuid.New()

	t.Run("Booked Slot Cannot Be Cancelled", func(t *testing.T) {
		mock.ExpectExec(`UPDATE schedule_slots`).
			WithArgs(slotID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Cancel(slotID)
		assert.ErrorIs(t, err, models.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReleaseExpiredHolds(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleSlotRepository(db)

	t.Run("Reports Released Count", func(t *testing.T) {
		mock.ExpectExec(`UPDATE schedule_slots`).
			WillReturnResult(sqlmock.NewResult(0, 3))

		released, err := repo.ReleaseExpiredHolds()
		require.NoError(t, err)
		assert.Equal(t, 3, released)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Nothing To Release", func(t *testing.T) {
		mock.ExpectExec(`UPDATE schedule_slots`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		released, err := repo.ReleaseExpiredHolds()
		require.NoError(t, err)
		assert.Equal(t, 0, released)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
