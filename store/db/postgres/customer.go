package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mesero-ai/mesero/store"
)

func (d *DB) GetCustomer(ctx context.Context, customerID string) (*store.Customer, error) {
	customer := &store.Customer{}
	err := d.db.QueryRowContext(ctx,
		`SELECT id, name, address, created_ts, updated_ts FROM customer WHERE id = $1`,
		customerID).Scan(&customer.ID, &customer.Name, &customer.Address, &customer.CreatedTs, &customer.UpdatedTs)
	if err != nil {
		if err == sql.ErrNoRows {
			// First reference auto-creates a blank profile.
			now := time.Now().Unix()
			blank := &store.Customer{ID: customerID, CreatedTs: now, UpdatedTs: now}
			if _, err := d.db.ExecContext(ctx,
				`INSERT INTO customer (id, name, address, created_ts, updated_ts)
				VALUES ($1, '', '', $2, $3)
				ON CONFLICT (id) DO NOTHING`,
				customerID, now, now); err != nil {
				return nil, fmt.Errorf("failed to auto-create customer: %w", err)
			}
			return blank, nil
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return customer, nil
}

func (d *DB) UpsertCustomer(ctx context.Context, upsert *store.UpsertCustomer) (*store.Customer, error) {
	now := time.Now().Unix()
	name := sql.NullString{}
	if upsert.Name != nil {
		name = sql.NullString{String: *upsert.Name, Valid: true}
	}
	address := sql.NullString{}
	if upsert.Address != nil {
		address = sql.NullString{String: *upsert.Address, Valid: true}
	}

	customer := &store.Customer{}
	err := d.db.QueryRowContext(ctx,
		`INSERT INTO customer (id, name, address, created_ts, updated_ts)
		VALUES ($1, COALESCE($2, ''), COALESCE($3, ''), $4, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = COALESCE($2, customer.name),
			address = COALESCE($3, customer.address),
			updated_ts = $4
		RETURNING id, name, address, created_ts, updated_ts`,
		upsert.ID, name, address, now).Scan(
		&customer.ID, &customer.Name, &customer.Address, &customer.CreatedTs, &customer.UpdatedTs)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert customer: %w", err)
	}
	return customer, nil
}
