package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/inventory-assistant/backend/internal/models"
)

type InventoryRepository struct {
	db *pgxpool.Pool
}

// NewInventoryRepository создает репозиторий чтения инвентаря.
func NewInventoryRepository(db *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// IsMember проверяет, состоит ли пользователь в домохозяйстве.
func (r *InventoryRepository) IsMember(ctx context.Context, householdID, userID uuid.UUID) (bool, error) {
	var member bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM household_members
		   WHERE household_id = $1 AND user_id = $2
		 )`,
		householdID,
		userID,
	).Scan(&member)
	return member, err
}

// SearchItems ищет позиции инвентаря, имя которых содержит любой из терминов.
func (r *InventoryRepository) SearchItems(ctx context.Context, householdID uuid.UUID, terms []string, limit int) ([]models.InventoryItem, error) {
	items := make([]models.InventoryItem, 0)
	if len(terms) == 0 {
		return items, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, household_id, product_id, name, quantity::float8, unit, min_quantity::float8,
		        location_id, expiry_date, updated_at
		 FROM inventory_items
		 WHERE household_id = $1 AND name ILIKE ANY ($2)
		 ORDER BY expiry_date ASC NULLS LAST, name ASC
		 LIMIT $3`,
		householdID,
		likePatterns(terms),
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.InventoryItem
		if err := rows.Scan(
			&item.ID,
			&item.HouseholdID,
			&item.ProductID,
			&item.Name,
			&item.Quantity,
			&item.Unit,
			&item.MinQuantity,
			&item.LocationID,
			&item.ExpiryDate,
			&item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// SearchProducts ищет продукты каталога с суммарным остатком по позициям.
func (r *InventoryRepository) SearchProducts(ctx context.Context, householdID uuid.UUID, terms []string, limit int) ([]models.Product, error) {
	products := make([]models.Product, 0)
	if len(terms) == 0 {
		return products, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT p.id, p.household_id, p.name, COALESCE(SUM(i.quantity), 0)::float8, p.unit
		 FROM products p
		 LEFT JOIN inventory_items i ON i.product_id = p.id
		 WHERE p.household_id = $1 AND p.name ILIKE ANY ($2)
		 GROUP BY p.id, p.household_id, p.name, p.unit
		 ORDER BY p.name ASC
		 LIMIT $3`,
		householdID,
		likePatterns(terms),
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var product models.Product
		if err := rows.Scan(&product.ID, &product.HouseholdID, &product.Name, &product.TotalQuantity, &product.Unit); err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePatterns(terms []string) []string {
	patterns := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		patterns = append(patterns, "%"+likeEscaper.Replace(term)+"%")
	}
	return patterns
}
