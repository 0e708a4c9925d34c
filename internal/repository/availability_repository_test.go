package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/helpdesk/internal/domain"
)

func TestAvailabilityReplaceInsideTx(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM availability_slots WHERE user_id=$1")).
		WithArgs("agent-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO availability_slots")).
		WithArgs("agent-1", domain.Monday, "09:00", "12:00").
		WillReturnRows(mock.NewRows([]string{"id", "created_at"}).AddRow("slot-1", now))
	mock.ExpectCommit()

	repo := NewAvailabilityRepository(mock)
	slot := &domain.AvailabilitySlot{UserID: "agent-1", Day: domain.Monday, Start: "09:00", End: "12:00"}
	err = NewTxManager(mock).WithinTx(context.Background(), func(ctx context.Context) error {
		if err := repo.DeleteAll(ctx, "agent-1"); err != nil {
			return err
		}
		return repo.Add(ctx, slot)
	})
	require.NoError(t, err)
	assert.Equal(t, "slot-1", slot.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityListAndDelete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY array_position(")).
		WithArgs("agent-1").
		WillReturnRows(mock.NewRows([]string{"id", "user_id", "day", "start_time", "end_time", "created_at"}).
			AddRow("slot-1", "agent-1", domain.Monday, "09:00", "12:00", now).
			AddRow("slot-2", "agent-1", domain.Friday, "14:00", "18:00", now))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM availability_slots WHERE id=$1 AND user_id=$2")).
		WithArgs("slot-2", "someone-else").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewAvailabilityRepository(mock)
	slots, err := repo.ListByUser(context.Background(), "agent-1")
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, domain.Friday, slots[1].Day)

	assert.ErrorIs(t, repo.Delete(context.Background(), "someone-else", "slot-2"), pgx.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
