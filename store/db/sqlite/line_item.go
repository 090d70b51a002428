package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesero-ai/mesero/order"
	"github.com/mesero-ai/mesero/store"
)

const lineItemFields = "id, group_id, product_id, product_name, quantity, unit_price, line_total, add_ons, notes, address, customer_name, customer_id, restaurant_id, status, created_ts, updated_ts"

func (d *DB) CreateLineItemAssigningGroup(ctx context.Context, create *store.LineItem) (*store.LineItem, error) {
	// The single write connection serializes the read-then-insert, so a
	// plain transaction is enough here.
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin group assignment: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	latest, err := scanOptionalLineItem(tx.QueryRowContext(ctx,
		`SELECT `+lineItemFields+` FROM line_item ORDER BY group_id DESC, created_ts DESC LIMIT 1`))
	if err != nil {
		return nil, fmt.Errorf("failed to read latest line item: %w", err)
	}

	startOfDay, _ := store.DayBoundsUnix(create.CreatedTs)
	open, err := scanOptionalLineItem(tx.QueryRowContext(ctx,
		`SELECT `+lineItemFields+` FROM line_item
		WHERE customer_id = ? AND status IN (?, ?) AND created_ts >= ?
		ORDER BY created_ts DESC LIMIT 1`,
		create.CustomerID, store.StatusPending, store.StatusInPreparation, startOfDay))
	if err != nil {
		return nil, fmt.Errorf("failed to read open line item: %w", err)
	}

	create.GroupID = order.ResolveGroup(latest, open)

	fields := strings.Split(lineItemFields, ", ")
	args := []any{
		create.ID, create.GroupID, create.ProductID, create.ProductName, create.Quantity,
		create.UnitPrice, create.LineTotal, create.AddOns, create.Notes, create.Address,
		create.CustomerName, create.CustomerID, create.RestaurantID, create.Status,
		create.CreatedTs, create.UpdatedTs,
	}
	stmt := `INSERT INTO line_item (` + strings.Join(fields, ", ") + `) VALUES (` + qmarks(len(args)) + `)`
	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("failed to insert line item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit line item: %w", err)
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
		WHERE customer_id = ? AND status IN (?, ?) AND created_ts >= ?
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
		WHERE address = ? AND created_ts >= ?
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
		`SELECT `+lineItemFields+` FROM line_item WHERE group_id = ? ORDER BY created_ts ASC`,
		groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list line items: %w", err)
	}
	defer rows.Close()

	return collectLineItems(rows)
}

func (d *DB) UpdateStatusByGroup(ctx context.Context, groupID int64, status store.LineItemStatus, updatedTs int64) error {
	result, err := d.db.ExecContext(ctx,
		`UPDATE line_item SET status = ?, updated_ts = ? WHERE group_id = ?`,
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
	// SQLite snapshots the read through its single connection; no explicit
	// isolation handling needed.
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+lineItemFields+` FROM line_item
		WHERE created_ts >= ? AND created_ts <= ? AND status != ?
		ORDER BY group_id ASC, created_ts ASC`,
		from, to, store.StatusPaid)
	if err != nil {
		return nil, fmt.Errorf("failed to list unpaid line items: %w", err)
	}
	defer rows.Close()

	return collectLineItems(rows)
}

func scanLineItem(row interface{ Scan(dest ...any) error }) (*store.LineItem, error) {
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

func qmarks(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
