package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bookbliss/internal/types"
)

// --- Mock DBTX ---

type mockDBTX struct {
	mock.Mock
}

func (m *mockDBTX) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDBTX) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if r := args.Get(0); r != nil {
		return r.(pgx.Rows), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDBTX) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// --- Mock Row ---

type mockRow struct {
	scanErr error
	scanFn  func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error {
	if r.scanFn != nil {
		return r.scanFn(dest...)
	}
	return r.scanErr
}

// --- Mock Rows ---

type mockRows struct {
	data    [][]any
	idx     int
	closed  bool
	scanErr error
	errVal  error
}

func newMockRows(data [][]any) *mockRows {
	return &mockRows{data: data, idx: -1}
}

func (r *mockRows) Next() bool {
	if r.closed {
		return false
	}
	r.idx++
	return r.idx < len(r.data)
}

func (r *mockRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	row := r.data[r.idx]
	for i, d := range dest {
		switch v := d.(type) {
		case *string:
			*v = row[i].(string)
		case *types.OrderStatus:
			*v = row[i].(types.OrderStatus)
		case *int:
			*v = row[i].(int)
		case *int64:
			*v = row[i].(int64)
		case *time.Time:
			*v = row[i].(time.Time)
		}
	}
	return nil
}

func (r *mockRows) Close()                                       { r.closed = true }
func (r *mockRows) Err() error                                   { return r.errVal }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Values() ([]any, error)                       { return nil, nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }

// ============================================================
// Create Tests
// ============================================================

func TestOrderRepository_Create_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	order := &types.Order{
		ID:            "order-123",
		CustomerEmail: "reader@example.com",
		Status:        types.StatusPending,
		TotalCents:    4599,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	err := repo.Create(ctx, order)
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestOrderRepository_Create_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("connection refused"))

	err := repo.Create(ctx, &types.Order{ID: "order-1"})
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)

	db.AssertExpectations(t)
}

// ============================================================
// GetByID Tests
// ============================================================

func TestOrderRepository_GetByID_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	row := &mockRow{
		scanFn: func(dest ...any) error {
			*dest[0].(*string) = "order-123"
			*dest[1].(*string) = "reader@example.com"
			*dest[2].(*types.OrderStatus) = types.StatusShipped
			*dest[3].(*int64) = 4599
			*dest[4].(*time.Time) = now
			*dest[5].(*time.Time) = now
			return nil
		},
	}

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{"order-123"}).Return(row)

	order, err := repo.GetByID(ctx, "order-123")
	require.NoError(t, err)
	assert.Equal(t, "order-123", order.ID)
	assert.Equal(t, "reader@example.com", order.CustomerEmail)
	assert.Equal(t, types.StatusShipped, order.Status)
	assert.Equal(t, int64(4599), order.TotalCents)

	db.AssertExpectations(t)
}

func TestOrderRepository_GetByID_NotFound(t *testing.T) {
	db := new(mockDBTX)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	row := &mockRow{scanErr: pgx.ErrNoRows}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{"order-missing"}).Return(row)

	_, err := repo.GetByID(ctx, "order-missing")
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeNotFoundOrder, appErr.Code)

	db.AssertExpectations(t)
}

// ============================================================
// GetOrderStatus Tests
// ============================================================

func TestOrderRepository_GetOrderStatus_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	row := &mockRow{
		scanFn: func(dest ...any) error {
			*dest[0].(*types.OrderStatus) = types.StatusOutForDelivery
			return nil
		},
	}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{"order-1"}).Return(row)

	status, err := repo.GetOrderStatus(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusOutForDelivery, status)

	db.AssertExpectations(t)
}

func TestOrderRepository_GetOrderStatus_NotFound(t *testing.T) {
	db := new(mockDBTX)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	row := &mockRow{scanErr: pgx.ErrNoRows}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{"order-gone"}).Return(row)

	_, err := repo.GetOrderStatus(ctx, "order-gone")
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeNotFoundOrder, appErr.Code)
}

// ============================================================
// UpdateStatus Tests
// ============================================================

func TestOrderRepository_UpdateStatus_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), []any{types.StatusShipped, "order-1"}).
		Return(pgconn.NewCommandTag("UPDATE 1"), nil)

	err := repo.UpdateStatus(ctx, "order-1", types.StatusShipped)
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestOrderRepository_UpdateStatus_NotFound(t *testing.T) {
	db := new(mockDBTX)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	err := repo.UpdateStatus(ctx, "order-missing", types.StatusShipped)
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeNotFoundOrder, appErr.Code)
}

// ============================================================
// List Tests
// ============================================================

func TestOrderRepository_List_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	rows := newMockRows([][]any{
		{"order-2", "b@example.com", types.StatusShipped, int64(1000), now, now},
		{"order-1", "a@example.com", types.StatusPending, int64(2000), now, now},
	})
	db.On("Query", ctx, mock.AnythingOfType("string"), []any{25}).Return(rows, nil)

	orders, err := repo.List(ctx, 25)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "order-2", orders[0].ID)
	assert.Equal(t, types.StatusPending, orders[1].Status)

	db.AssertExpectations(t)
}

func TestOrderRepository_List_DefaultsLimit(t *testing.T) {
	db := new(mockDBTX)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	db.On("Query", ctx, mock.AnythingOfType("string"), []any{50}).
		Return(newMockRows(nil), nil)

	_, err := repo.List(ctx, 0)
	require.NoError(t, err)
	db.AssertExpectations(t)
}
