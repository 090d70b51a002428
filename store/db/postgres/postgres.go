package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"

	"github.com/mesero-ai/mesero/internal/profile"
	"github.com/mesero-ai/mesero/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a database specified by its database driver name and a
// driver-specific data source name.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	// Bounded pool shared process-wide. Connections are acquired per logical
	// operation, never held across a whole agent turn, so a small pool is
	// enough even under the multi-round oracle loop.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	driver := DB{db: db, profile: profile}

	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS line_item (
	id TEXT PRIMARY KEY,
	group_id BIGINT NOT NULL,
	product_id TEXT NOT NULL,
	product_name TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	unit_price DOUBLE PRECISION NOT NULL DEFAULT 0,
	line_total DOUBLE PRECISION NOT NULL DEFAULT 0,
	add_ons TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL,
	customer_name TEXT NOT NULL DEFAULT '',
	customer_id TEXT NOT NULL,
	restaurant_id TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_line_item_group ON line_item (group_id);
CREATE INDEX IF NOT EXISTS idx_line_item_customer ON line_item (customer_id, created_ts);
CREATE INDEX IF NOT EXISTS idx_line_item_address ON line_item (address, created_ts);
CREATE INDEX IF NOT EXISTS idx_line_item_created ON line_item (created_ts);

CREATE TABLE IF NOT EXISTS turn (
	id BIGSERIAL PRIMARY KEY,
	uid TEXT NOT NULL UNIQUE,
	user_id TEXT NOT NULL,
	conversation_id TEXT NOT NULL,
	conversation_label TEXT NOT NULL DEFAULT '',
	user_message TEXT NOT NULL,
	assistant_message TEXT NOT NULL,
	helpful BOOLEAN NOT NULL DEFAULT FALSE,
	created_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turn_user ON turn (user_id, created_ts);
CREATE INDEX IF NOT EXISTS idx_turn_conversation ON turn (conversation_id);

CREATE TABLE IF NOT EXISTS customer (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS product (
	id TEXT PRIMARY KEY,
	restaurant_id TEXT NOT NULL,
	name TEXT NOT NULL,
	quantity INTEGER NOT NULL DEFAULT 0,
	unit TEXT NOT NULL DEFAULT 'unit',
	price DOUBLE PRECISION NOT NULL DEFAULT 0,
	description TEXT NOT NULL DEFAULT '',
	product_type TEXT NOT NULL DEFAULT 'menu'
);
CREATE INDEX IF NOT EXISTS idx_product_restaurant ON product (restaurant_id, product_type);
`

const demoSeed = `
INSERT INTO product (id, restaurant_id, name, quantity, unit, price, description, product_type) VALUES
	('p-bandeja', 'Macchiato', 'Bandeja Paisa', 20, 'plate', 12.50, 'Beans, rice, ground beef, chicharron, egg and plantain', 'menu'),
	('p-ajiaco', 'Macchiato', 'Ajiaco', 15, 'bowl', 9.00, 'Chicken and potato soup with corn and capers', 'menu'),
	('p-arepa', 'Macchiato', 'Arepa con Queso', 30, 'unit', 3.50, 'Grilled corn cake with melted cheese', 'menu'),
	('p-limonada', 'Macchiato', 'Limonada de Coco', 25, 'glass', 4.00, 'Coconut lemonade', 'menu'),
	('a-queso', 'Macchiato', 'Extra Queso', 50, 'portion', 1.00, 'Extra cheese on any dish', 'addon'),
	('a-aguacate', 'Macchiato', 'Aguacate', 40, 'portion', 1.50, 'Avocado slice', 'addon')
ON CONFLICT (id) DO NOTHING;
`

// Migrate applies the schema. Statements are idempotent so this runs on every
// startup. Demo mode also seeds a small catalog so the agent has a menu to
// sell from a fresh database.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to migrate schema")
	}
	if d.profile.Mode == "demo" {
		if _, err := d.db.ExecContext(ctx, demoSeed); err != nil {
			return errors.Wrap(err, "failed to seed demo catalog")
		}
	}
	return nil
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func placeholders(n int) string {
	list := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		list = append(list, placeholder(i))
	}
	return strings.Join(list, ", ")
}
