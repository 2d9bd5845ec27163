package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/shop-api/internal/database"
)

var orderColumns = []string{"id", "user_id", "product_name", "quantity", "price_cents", "status", "created_at", "updated_at"}

// Bun interpolates query arguments client-side, so the mock matches on
// the statement shape rather than on placeholder arguments.
func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	bunDB := database.NewBunDB(db)
	t.Cleanup(func() { _ = bunDB.Close() })

	return NewRepository(bunDB), mock
}

func orderRow(rows *sqlmock.Rows, id, userID uuid.UUID, productName string, quantity int, priceCents int64, status string, createdAt time.Time) *sqlmock.Rows {
	return rows.AddRow(id.String(), userID.String(), productName, quantity, priceCents, status, createdAt, createdAt)
}

func TestRepositoryCreate(t *testing.T) {
	repo, mock := newMockRepository(t)
	orderID := uuid.New()
	userID := uuid.New()
	createdAt := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

	mock.ExpectQuery(`^INSERT INTO "orders"`).
		WillReturnRows(orderRow(sqlmock.NewRows(orderColumns), orderID, userID, "mechanical keyboard", 2, 15900, StatusPending, createdAt))

	created, err := repo.Create(context.Background(), userID, "mechanical keyboard", 2, 15900)
	require.NoError(t, err)

	assert.Equal(t, orderID, created.ID)
	assert.Equal(t, userID, created.UserID)
	assert.Equal(t, "mechanical keyboard", created.ProductName)
	assert.Equal(t, 2, created.Quantity)
	assert.Equal(t, int64(15900), created.PriceCents)
	assert.Equal(t, StatusPending, created.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreateUserMissing(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`^INSERT INTO "orders"`).
		WillReturnError(errors.New(`pq: insert or update on table "orders" violates foreign key constraint "orders_user_id_fkey"`))

	_, err := repo.Create(context.Background(), uuid.New(), "mechanical keyboard", 1, 15900)
	assert.ErrorIs(t, err, ErrUserMissing)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByID(t *testing.T) {
	repo, mock := newMockRepository(t)
	orderID := uuid.New()
	userID := uuid.New()
	createdAt := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

	mock.ExpectQuery(`^SELECT (.+) FROM "orders"`).
		WillReturnRows(orderRow(sqlmock.NewRows(orderColumns), orderID, userID, "mechanical keyboard", 1, 15900, StatusPaid, createdAt))

	found, err := repo.GetByID(context.Background(), userID, orderID)
	require.NoError(t, err)

	assert.Equal(t, orderID, found.ID)
	assert.Equal(t, userID, found.UserID)
	assert.Equal(t, StatusPaid, found.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`^SELECT (.+) FROM "orders"`).
		WillReturnRows(sqlmock.NewRows(orderColumns))

	_, err := repo.GetByID(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryListByUser(t *testing.T) {
	repo, mock := newMockRepository(t)
	userID := uuid.New()
	newest := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	oldest := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

	rows := sqlmock.NewRows(orderColumns)
	rows = orderRow(rows, uuid.New(), userID, "mechanical keyboard", 1, 15900, StatusShipped, newest)
	rows = orderRow(rows, uuid.New(), userID, "usb cable", 3, 900, StatusPending, oldest)

	// Listing always returns newest first.
	mock.ExpectQuery(`^SELECT (.+) FROM "orders" (.+) ORDER BY "created_at" DESC`).
		WillReturnRows(rows)

	orders, err := repo.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "mechanical keyboard", orders[0].ProductName)
	assert.Equal(t, "usb cable", orders[1].ProductName)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryListByUserEmpty(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`^SELECT (.+) FROM "orders"`).
		WillReturnRows(sqlmock.NewRows(orderColumns))

	orders, err := repo.ListByUser(context.Background(), uuid.New())
	require.NoError(t, err)

	// No orders is an empty list, not an error and not nil.
	assert.NotNil(t, orders)
	assert.Empty(t, orders)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryUpdate(t *testing.T) {
	repo, mock := newMockRepository(t)
	orderID := uuid.New()
	userID := uuid.New()
	createdAt := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

	// The update runs first, then the changed row is read back.
	mock.ExpectExec(`^UPDATE "orders"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`^SELECT (.+) FROM "orders"`).
		WillReturnRows(orderRow(sqlmock.NewRows(orderColumns), orderID, userID, "mechanical keyboard", 5, 15900, StatusPaid, createdAt))

	quantity := 5
	status := StatusPaid
	updated, err := repo.Update(context.Background(), userID, orderID, UpdateParams{
		Quantity: &quantity,
		Status:   &status,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, updated.Quantity)
	assert.Equal(t, StatusPaid, updated.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryUpdateNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`^UPDATE "orders"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	quantity := 5
	_, err := repo.Update(context.Background(), uuid.New(), uuid.New(), UpdateParams{Quantity: &quantity})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryDelete(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`^DELETE FROM "orders"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), uuid.New(), uuid.New())
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryDeleteNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`^DELETE FROM "orders"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusPending, StatusPaid, StatusShipped, StatusCancelled} {
		assert.True(t, ValidStatus(s), s)
	}
	assert.False(t, ValidStatus("refunded"))
	assert.False(t, ValidStatus(""))
	assert.False(t, ValidStatus("Pending"))
}
