package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/shop-api/internal/database"
)

var (
	ErrNotFound    = errors.New("order not found")
	ErrUserMissing = errors.New("order owner not found")
)

// Repository handles order data persistence. Every operation is scoped by
// the owning user, so one user can never read or touch another's orders.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new order for the user
func (r *Repository) Create(ctx context.Context, userID uuid.UUID, productName string, quantity int, priceCents int64) (*Order, error) {
	dbOrder := &database.Order{
		UserID:      userID,
		ProductName: productName,
		Quantity:    quantity,
		PriceCents:  priceCents,
		Status:      StatusPending,
	}

	_, err := r.db.NewInsert().
		Model(dbOrder).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "violates foreign key constraint") {
			return nil, ErrUserMissing
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return mapDBOrderToModel(dbOrder), nil
}

// GetByID retrieves one of the user's orders
func (r *Repository) GetByID(ctx context.Context, userID, orderID uuid.UUID) (*Order, error) {
	dbOrder := new(database.Order)
	err := r.db.NewSelect().
		Model(dbOrder).
		Where("id = ?", orderID).
		Where("user_id = ?", userID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return mapDBOrderToModel(dbOrder), nil
}

// ListByUser retrieves all orders of the user, newest first
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Order, error) {
	var dbOrders []*database.Order
	err := r.db.NewSelect().
		Model(&dbOrders).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := make([]*Order, 0, len(dbOrders))
	for _, dbOrder := range dbOrders {
		orders = append(orders, mapDBOrderToModel(dbOrder))
	}

	return orders, nil
}

// UpdateParams carries the optional fields of an order update.
// Nil pointers mean "leave unchanged".
type UpdateParams struct {
	ProductName *string
	Quantity    *int
	PriceCents  *int64
	Status      *string
}

// Update changes fields of one of the user's orders
func (r *Repository) Update(ctx context.Context, userID, orderID uuid.UUID, params UpdateParams) (*Order, error) {
	q := r.db.NewUpdate().
		Model((*database.Order)(nil)).
		Set("updated_at = NOW()").
		Where("id = ?", orderID).
		Where("user_id = ?", userID)

	if params.ProductName != nil {
		q = q.Set("product_name = ?", *params.ProductName)
	}
	if params.Quantity != nil {
		q = q.Set("quantity = ?", *params.Quantity)
	}
	if params.PriceCents != nil {
		q = q.Set("price_cents = ?", *params.PriceCents)
	}
	if params.Status != nil {
		q = q.Set("status = ?", *params.Status)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, userID, orderID)
}

// Delete removes one of the user's orders
func (r *Repository) Delete(ctx context.Context, userID, orderID uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*database.Order)(nil)).
		Where("id = ?", orderID).
		Where("user_id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapDBOrderToModel converts database model to domain model
func mapDBOrderToModel(dbo *database.Order) *Order {
	return &Order{
		ID:          dbo.ID,
		UserID:      dbo.UserID,
		ProductName: dbo.ProductName,
		Quantity:    dbo.Quantity,
		PriceCents:  dbo.PriceCents,
		Status:      dbo.Status,
		CreatedAt:   dbo.CreatedAt,
		UpdatedAt:   dbo.UpdatedAt,
	}
}
