package repository_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"reflect"
	"regexp"
	"testing"
	"time"

	"pulse_monitor/internal/models"
	"pulse_monitor/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

var stateColumns = []string{"device_id", "session_id", "heart_rate", "finger_detected", "zone", "zone_color",
	"quality", "confidence", "trend", "is_stable", "phase", "updated_at"}

func newStateRepo(t *testing.T) (*repository.StateSQLite, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return repository.NewStateSQLite(db), mock
}

func TestStateSQLite_Save_StampsUTCNowWhenTimeZero(t *testing.T) {
	repo, mock := newStateRepo(t)

	state := models.DeviceState{
		DeviceID:       "wrist-01",
		SessionID:      "s-1",
		HeartRate:      72,
		FingerDetected: true,
		Zone:           "Rest",
		ZoneColor:      "#3b82f6",
		Quality:        0.8,
		Confidence:     0.9,
		Trend:          "stable",
		IsStable:       true,
		Phase:          "tracking",
	}

	isUTCRecent := sqlmockArgumentFunc(func(v driver.Value) bool {
		tm, ok := v.(time.Time)
		if !ok || tm.Location() != time.UTC {
			return false
		}
		now := time.Now().UTC()
		return !tm.Before(now.Add(-5*time.Second)) && !tm.After(now.Add(5*time.Second))
	})

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO device_state")).
		WithArgs("wrist-01", "s-1", 72, true, "Rest", "#3b82f6", 0.8, 0.9, "stable", true, "tracking", isUTCRecent).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Save(context.Background(), state); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStateSQLite_Save_ConvertsGivenTimeAndNullsEmptySession(t *testing.T) {
	repo, mock := newStateRepo(t)

	locTokyo, _ := time.LoadLocation("Asia/Tokyo")
	original := time.Date(2026, 3, 5, 12, 34, 56, 0, locTokyo)

	isExactUTC := sqlmockArgumentFunc(func(v driver.Value) bool {
		tm, ok := v.(time.Time)
		return ok && tm.Equal(original) && tm.Location() == time.UTC
	})

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO device_state")).
		WithArgs("wrist-02", nil, 0, false, "Rest", "#3b82f6", 0.0, 0.0, "stable", false, "no_signal", isExactUTC).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Save(context.Background(), models.DeviceState{
		DeviceID:  "wrist-02",
		Zone:      "Rest",
		ZoneColor: "#3b82f6",
		Trend:     "stable",
		Phase:     "no_signal",
		UpdatedAt: original,
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStateSQLite_Save_ExecErrorIsWrapped(t *testing.T) {
	repo, mock := newStateRepo(t)
	dbErr := errors.New("db down")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO device_state")).WillReturnError(dbErr)

	err := repo.Save(context.Background(), models.DeviceState{DeviceID: "wrist-01"})
	if !errors.Is(err, dbErr) {
		t.Fatalf("Save() error = %v, want wrapped %v", err, dbErr)
	}
}

func TestStateSQLite_Load_NoRowsReturnsZeroValue(t *testing.T) {
	repo, mock := newStateRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM device_state WHERE device_id=?")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	got, err := repo.Load(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, models.DeviceState{}) {
		t.Fatalf("Load() expected zero state, got: %+v", got)
	}
}

func TestStateSQLite_Load_ScansRowAsUTC(t *testing.T) {
	repo, mock := newStateRepo(t)

	locNY, _ := time.LoadLocation("America/New_York")
	nonUTC := time.Date(2026, 2, 1, 8, 30, 0, 0, locNY)

	rows := sqlmock.NewRows(stateColumns).
		AddRow("wrist-01", "s-9", 131, true, "Vigorous", "#f97316", 1.0, 0.7, "rising", false, "stabilizing", nonUTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM device_state WHERE device_id=?")).
		WithArgs("wrist-01").
		WillReturnRows(rows)

	got, err := repo.Load(context.Background(), "wrist-01")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if got.HeartRate != 131 || got.Zone != "Vigorous" || got.SessionID != "s-9" || got.Phase != "stabilizing" {
		t.Fatalf("Load() unexpected fields: %+v", got)
	}
	if got.UpdatedAt.Location() != time.UTC || !got.UpdatedAt.Equal(nonUTC) {
		t.Fatalf("Load() UpdatedAt = %v", got.UpdatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStateSQLite_List(t *testing.T) {
	repo, mock := newStateRepo(t)
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(stateColumns).
		AddRow("a", nil, 70, true, "Rest", "#3b82f6", 1.0, 0.9, "stable", true, "tracking", now).
		AddRow("b", "s-2", 0, false, "Rest", "#3b82f6", 0.0, 0.0, "stable", false, "no_signal", now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM device_state ORDER BY device_id ASC")).WillReturnRows(rows)

	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 || got[0].DeviceID != "a" || got[0].SessionID != "" || got[1].SessionID != "s-2" {
		t.Fatalf("List() = %+v", got)
	}
}

type sqlmockArgumentFunc func(v driver.Value) bool

func (f sqlmockArgumentFunc) Match(v driver.Value) bool {
	return f(v)
}
