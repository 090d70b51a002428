package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lib/pq"

	"github.com/mesero-ai/mesero/order"
	"github.com/mesero-ai/mesero/store"
)

const lineItemFields = "id, group_id, product_id, product_name, quantity, unit_price, line_total, add_ons, notes, address, customer_name, customer_id, restaurant_id, status, created_ts, updated_ts"

// serializationFailure is the PostgreSQL SQLSTATE for a serializable
// transaction that could not be committed.
const serializationFailure = "40001"

func (d *DB) CreateLineItemAssigningGroup(ctx context.Context, create *store.LineItem) (*store.LineItem, error) {
	// The group decision is a read-then-write: run it under SERIALIZABLE so
	// two concurrent confirmations for the same customer cannot mint
	// duplicate or skipped ticket numbers. One retry on conflict; the loser
	// re-reads and lands in the winner's group.
	for attempt := 0; ; attempt++ {
		item, err := d.createAssigningGroup(ctx, create)
		if err != nil {
			var pqErr *pq.Error
			if attempt == 0 && errors.As(err, &pqErr) && pqErr.Code == serializationFailure {
				slog.Warn("group assignment serialization conflict, retrying",
					"customer_id", create.CustomerID)
				continue
			}
			return nil, fmt.Errorf("failed to create line item: %w", err)
		}
		return item, nil
	}
}

func (d *DB) createAssigningGroup(ctx context.Context, create *store.LineItem) (*store.LineItem, error) {
	tx, err := d.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	latest, err := scanOptionalLineItem(tx.QueryRowContext(ctx,
		`SELECT `+lineItemFields+` FROM line_item ORDER BY group_id DESC, created_ts DESC LIMIT 1`))
	if err != nil {
		return nil, err
	}

	startOfDay, _ := store.DayBoundsUnix(create.CreatedTs)
	open, err := scanOptionalLineItem(tx.QueryRowContext(ctx,
		`SELECT `+lineItemFields+` FROM line_item
		WHERE customer_id = $1 AND status IN ($2, $3) AND created_ts >= $4
		ORDER BY created_ts DESC LIMIT 1`,
		create.CustomerID, store.StatusPending, store.StatusInPreparation, startOfDay))
	if err != nil {
		return nil, err
	}

	create.GroupID = order.ResolveGroup(latest, open)

	fields := strings.Split(lineItemFields, ", ")
	args := []any{
		create.ID, create.GroupID, create.ProductID, create.ProductName, create.Quantity,
		create.UnitPrice, create.LineTotal, create.AddOns, create.Notes, create.Address,
		create.CustomerName, create.CustomerID, create.RestaurantID, create.Status,
		create.CreatedTs, create.UpdatedTs,
	}
	stmt := `INSERT INTO line_item (` + strings.Join(fields, ", ") + `) VALUES (` + placeholders(len(args)) + `)`
	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return create, nil
}

func (d *DB) GetLatestLineItem(ctx context.Context) (*store.LineItem, error) {
	item, err := scanOptionalLineItem(d.db.QueryRowContext(ctx,
		`SELECT `+lineItemFields+` FROM line_item ORDER BY group_id DESC, created_ts DESC LIMIT 1`))
	if err != nil {
		return nil, fmt.Errorf("failed to get latest line item: %w", err)
	}
	return item, nil
}

func (d *DB) GetOpenLineItem(ctx context.Context, customerID string, since int64) (*store.LineItem, error) {
	item, err := scanOptionalLineItem(d.db.QueryRowContext(ctx,
		`SELECT `+lineItemFields+` FROM line_item
		WHERE customer_id = $1 AND status IN ($2, $3) AND created_ts >= $4
		ORDER BY created_ts DESC LIMIT 1`,
		customerID, store.StatusPending, store.StatusInPreparation, since))
	if err != nil {
		return nil, fmt.Errorf("failed to get open line item: %w", err)
	}
	return item, nil
}

func (d *DB) GetLatestLineItemByAddress(ctx context.Context, address string, since int64) (*store.LineItem, error) {
	item, err := scanOptionalLineItem(d.db.QueryRowContext(ctx,
		`SELECT `+lineItemFields+` FROM line_item
		WHERE address = $1 AND created_ts >= $2
		ORDER BY created_ts DESC LIMIT 1`,
		address, since))
	if err != nil {
		return nil, fmt.Errorf("failed to get line item by address: %w", err)
	}
	if item == nil {
		return nil, store.ErrNotFound
	}
	return item, nil
}

func (d *DB) ListLineItemsByGroup(ctx context.Context, groupID int64) ([]*store.LineItem, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+lineItemFields+` FROM line_item WHERE group_id = $1 ORDER BY created_ts ASC`,
		groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list line items: %w", err)
	}
	defer rows.Close()

	return collectLineItems(rows)
}

func (d *DB) UpdateStatusByGroup(ctx context.Context, groupID int64, status store.LineItemStatus, updatedTs int64) error {
	result, err := d.db.ExecContext(ctx,
		`UPDATE line_item SET status = $1, updated_ts = $2 WHERE group_id = $3`,
		status, updatedTs, groupID)
	if err != nil {
		return fmt.Errorf("failed to update group status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (d *DB) ListUnpaidBetween(ctx context.Context, from, to int64) ([]*store.LineItem, error) {
	// The dashboard is a read-then-aggregate over rows that may be written
	// concurrently; REPEATABLE READ keeps the snapshot consistent.
	tx, err := d.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin dashboard read: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx,
		`SELECT `+lineItemFields+` FROM line_item
		WHERE created_ts >= $1 AND created_ts <= $2 AND status != $3
		ORDER BY group_id ASC, created_ts ASC`,
		from, to, store.StatusPaid)
	if err != nil {
		return nil, fmt.Errorf("failed to list unpaid line items: %w", err)
	}
	defer rows.Close()

	list, err := collectLineItems(rows)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit dashboard read: %w", err)
	}
	return list, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLineItem(row rowScanner) (*store.LineItem, error) {
	item := &store.LineItem{}
	err := row.Scan(
		&item.ID, &item.GroupID, &item.ProductID, &item.ProductName, &item.Quantity,
		&item.UnitPrice, &item.LineTotal, &item.AddOns, &item.Notes, &item.Address,
		&item.CustomerName, &item.CustomerID, &item.RestaurantID, &item.Status,
		&item.CreatedTs, &item.UpdatedTs,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// scanOptionalLineItem maps sql.ErrNoRows to a nil item: several callers treat
// "no such row" as a branch of the group decision table, not an error.
func scanOptionalLineItem(row *sql.Row) (*store.LineItem, error) {
	item, err := scanLineItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

func collectLineItems(rows *sql.Rows) ([]*store.LineItem, error) {
	list := make([]*store.LineItem, 0)
	for rows.Next() {
		item, err := scanLineItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		list = append(list, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate line items: %w", err)
	}
	return list, nil
}
