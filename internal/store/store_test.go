package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"explore-aparecida/internal/domain/billing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return New(db), mock
}

func TestListActivePlans(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "name", "tier", "price", "currency", "interval", "features", "active", "sort_order"}).
		AddRow(id.String(), "Destaque", "featured", "99.00", "brl", "month", `["Selo de destaque"]`, true, 2)
	mock.ExpectQuery(`SELECT \* FROM "business_plans" WHERE active = \$1 ORDER BY sort_order ASC,price ASC`).
		WillReturnRows(rows)

	got, err := s.ListActivePlans(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.True(t, got[0].Price.Equal(decimal.NewFromInt(99)))
	assert.Equal(t, []string{"Selo de destaque"}, got[0].Features)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPlanNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT \* FROM "business_plans"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetPlan(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRegistrationStatus(t *testing.T) {
	t.Run("updates row", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(`UPDATE "business_registrations" SET "status"=\$1`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.UpdateRegistrationStatus(context.Background(), uuid.New(), "suspended"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(`UPDATE "business_registrations"`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := s.UpdateRegistrationStatus(context.Background(), uuid.New(), "active")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSetListingStatusSkipsSuspended(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE "business_registrations" SET .* WHERE id = \$\d+ AND status <> \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.SetListingStatus(context.Background(), uuid.New(), "active"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestSubscriptionsKeepsNewest(t *testing.T) {
	s, mock := newMockStore(t)
	bizID := uuid.New()
	planID := uuid.New()
	newer, older := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE business_id IN \(\$1\) ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "business_id", "plan_id", "status", "created_at"}).
			AddRow(newer.String(), bizID.String(), planID.String(), billing.StatusActive, now).
			AddRow(older.String(), bizID.String(), planID.String(), billing.StatusCancelled, now.Add(-time.Hour)))
	mock.ExpectQuery(`SELECT \* FROM "business_plans" WHERE "business_plans"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "tier"}).AddRow(planID.String(), "Premium", "premium"))

	got, err := s.LatestSubscriptions(context.Background(), []uuid.UUID{bizID})
	require.NoError(t, err)
	require.Contains(t, got, bizID)
	assert.Equal(t, newer, got[bizID].ID)
	require.NotNil(t, got[bizID].Plan)
	assert.Equal(t, "Premium", got[bizID].Plan.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestSubscriptionsEmptyInput(t *testing.T) {
	s, mock := newMockStore(t)

	got, err := s.LatestSubscriptions(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingSubscriptionsSkipsPending(t *testing.T) {
	s, mock := newMockStore(t)
	bizID := uuid.New()
	planID := uuid.New()
	subID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE business_id IN \(\$1\) AND status <> \$2 ORDER BY created_at DESC`).
		WithArgs(bizID, billing.StatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"id", "business_id", "plan_id", "status", "created_at"}).
			AddRow(subID.String(), bizID.String(), planID.String(), billing.StatusCancelled, time.Now()))
	mock.ExpectQuery(`SELECT \* FROM "business_plans" WHERE "business_plans"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "tier"}).AddRow(planID.String(), "Premium", "premium"))

	got, err := s.ListingSubscriptions(context.Background(), []uuid.UUID{bizID})
	require.NoError(t, err)
	require.Contains(t, got, bizID)
	assert.Equal(t, subID, got[bizID].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListStalePendingOrdersLeastRecentlyChecked(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE status = \$1 AND created_at < \$2 ORDER BY updated_at ASC, created_at ASC LIMIT \$3`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(uuid.New().String(), billing.StatusPending))

	got, err := s.ListStalePendingSubscriptions(context.Background(), time.Now(), 50)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTouchSubscription(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()
	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE "subscriptions" SET "updated_at"=\$1 WHERE id = \$2`).
		WithArgs(at, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.TouchSubscription(context.Background(), id, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListStripeEventsFiltersStatus(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT \* FROM "stripe_events" WHERE status = \$1 ORDER BY received_at DESC LIMIT \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "status", "received_at"}).
			AddRow("evt_1", "invoice.paid", billing.EventFailed, time.Now()))

	got, err := s.ListStripeEvents(context.Background(), billing.EventFailed, 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "evt_1", got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStats(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "business_registrations"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "subscriptions" WHERE status = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "payments" WHERE status = \$1$`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("597.00"))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "payments" WHERE status = \$1 AND created_at >= \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("199.00"))
	mock.ExpectQuery(`LEFT JOIN business_plans`).
		WillReturnRows(sqlmock.NewRows([]string{"name", "count"}).
			AddRow("Premium", 3).
			AddRow(nil, 2))

	got, err := s.Stats(context.Background(), time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.TotalRegistrations)
	assert.Equal(t, int64(3), got.ActiveSubscriptions)
	assert.True(t, got.TotalRevenue.Equal(decimal.NewFromInt(597)))
	assert.True(t, got.RecentRevenue.Equal(decimal.NewFromInt(199)))
	assert.Equal(t, map[string]int64{"Premium": 3, "Sem plano": 2}, got.RegistrationsPerPlan)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil, "noop"))
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound, "get"), ErrNotFound)
	assert.ErrorIs(t, translate(gorm.ErrDuplicatedKey, "create"), ErrDuplicate)

	boom := errors.New("boom")
	err := translate(boom, "list")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "list: boom", err.Error())
}
