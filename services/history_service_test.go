package services

import (
	"context"
	"testing"
	"time"

	"motion-monitor/be/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupHistory(t *testing.T) (*HistoryService, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewHistoryService(db), mock
}

func TestHistoryService_Record(t *testing.T) {
	history, mock := setupHistory(t)

	mock.ExpectQuery(`INSERT INTO "detection_events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	event := &models.DetectionEvent{MotionDetected: true, Timestamp: 1700000000000, Source: "http"}
	require.NoError(t, history.Record(context.Background(), event))

	assert.Equal(t, uint(7), event.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryService_RecentNewestFirst(t *testing.T) {
	history, mock := setupHistory(t)

	rows := sqlmock.NewRows([]string{"id", "motion_detected", "humans_present", "timestamp", "source", "created_at"}).
		AddRow(2, true, true, int64(1700000002000), "mqtt", time.Now()).
		AddRow(1, false, false, int64(1700000000000), "http", time.Now())
	mock.ExpectQuery(`SELECT \* FROM "detection_events" ORDER BY timestamp desc LIMIT`).
		WillReturnRows(rows)

	events, err := history.Recent(context.Background(), 0)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, uint(2), events[0].ID)
	assert.Equal(t, "mqtt", events[0].Source)
	assert.Equal(t, int64(1700000000000), events[1].Timestamp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryService_Disabled(t *testing.T) {
	var history *HistoryService

	_, err := history.Recent(context.Background(), 10)
	assert.ErrorIs(t, err, ErrHistoryDisabled)
	assert.ErrorIs(t, history.Record(context.Background(), &models.DetectionEvent{}), ErrHistoryDisabled)
}
