package sqlite

import (
	"context"

	"database/sql"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/mesero-ai/mesero/internal/profile"
	"github.com/mesero-ai/mesero/store"
)

// SQLite is supported for development and single-restaurant deployments.
// With WAL and a single connection all writes are serialized, so the group
// assignment read-then-write needs no extra isolation here.

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

	// When using the `modernc.org/sqlite` driver, each pragma must be
	// prefixed with `_pragma=`.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	// Single connection is optimal with WAL and keeps writes serialized.
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)
	sqliteDB.SetConnMaxIdleTime(0)

	driver := DB{db: sqliteDB, profile: profile}

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
	group_id INTEGER NOT NULL,
	product_id TEXT NOT NULL,
	product_name TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	unit_price REAL NOT NULL DEFAULT 0,
	line_total REAL NOT NULL DEFAULT 0,
	add_ons TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL,
	customer_name TEXT NOT NULL DEFAULT '',
	customer_id TEXT NOT NULL,
	restaurant_id TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	created_ts INTEGER NOT NULL,
	updated_ts INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_line_item_group ON line_item (group_id);
CREATE INDEX IF NOT EXISTS idx_line_item_customer ON line_item (customer_id, created_ts);
CREATE INDEX IF NOT EXISTS idx_line_item_address ON line_item (address, created_ts);
CREATE INDEX IF NOT EXISTS idx_line_item_created ON line_item (created_ts);

CREATE TABLE IF NOT EXISTS turn (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uid TEXT NOT NULL UNIQUE,
	user_id TEXT NOT NULL,
	conversation_id TEXT NOT NULL,
	conversation_label TEXT NOT NULL DEFAULT '',
	user_message TEXT NOT NULL,
	assistant_message TEXT NOT NULL,
	helpful INTEGER NOT NULL DEFAULT 0,
	created_ts INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turn_user ON turn (user_id, created_ts);
CREATE INDEX IF NOT EXISTS idx_turn_conversation ON turn (conversation_id);

CREATE TABLE IF NOT EXISTS customer (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	created_ts INTEGER NOT NULL,
	updated_ts INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS product (
	id TEXT PRIMARY KEY,
	restaurant_id TEXT NOT NULL,
	name TEXT NOT NULL,
	quantity INTEGER NOT NULL DEFAULT 0,
	unit TEXT NOT NULL DEFAULT 'unit',
	price REAL NOT NULL DEFAULT 0,
	description TEXT NOT NULL DEFAULT '',
	product_type TEXT NOT NULL DEFAULT 'menu'
);
CREATE INDEX IF NOT EXISTS idx_product_restaurant ON product (restaurant_id, product_type);
`

const demoSeed = `
INSERT OR IGNORE INTO product (id, restaurant_id, name, quantity, unit, price, description, product_type) VALUES
	('p-bandeja', 'Macchiato', 'Bandeja Paisa', 20, 'plate', 12.50, 'Beans, rice, ground beef, chicharron, egg and plantain', 'menu'),
	('p-ajiaco', 'Macchiato', 'Ajiaco', 15, 'bowl', 9.00, 'Chicken and potato soup with corn and capers', 'menu'),
	('p-arepa', 'Macchiato', 'Arepa con Queso', 30, 'unit', 3.50, 'Grilled corn cake with melted cheese', 'menu'),
	('p-limonada', 'Macchiato', 'Limonada de Coco', 25, 'glass', 4.00, 'Coconut lemonade', 'menu'),
	('a-queso', 'Macchiato', 'Extra Queso', 50, 'portion', 1.00, 'Extra cheese on any dish', 'addon'),
	('a-aguacate', 'Macchiato', 'Aguacate', 40, 'portion', 1.50, 'Avocado slice', 'addon');
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
