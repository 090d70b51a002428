package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesero-ai/mesero/store"
)

func (d *DB) ListProducts(ctx context.Context, find *store.FindProduct) ([]*store.Product, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.RestaurantID != nil {
		where, args = append(where, "restaurant_id = "+placeholder(len(args)+1)), append(args, *find.RestaurantID)
	}
	if find.Type != nil {
		where, args = append(where, "product_type = "+placeholder(len(args)+1)), append(args, *find.Type)
	}
	if find.OnlyAvailable {
		where = append(where, "quantity > 0")
	}

	query := `SELECT id, restaurant_id, name, quantity, unit, price, description, product_type
		FROM product WHERE ` + strings.Join(where, " AND ") + ` ORDER BY name ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Product, 0)
	for rows.Next() {
		product := &store.Product{}
		if err := rows.Scan(
			&product.ID, &product.RestaurantID, &product.Name, &product.Quantity,
			&product.Unit, &product.Price, &product.Description, &product.Type,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		list = append(list, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return list, nil
}
