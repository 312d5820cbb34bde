package mysql

import (
	"context"
	"database/sql"
	"strings"

	domfood "example.com/food-ordering/internal/domain/food"
)

type FoodRepository struct {
	db *sql.DB
}

func NewFoodRepository(db *sql.DB) *FoodRepository {
	return &FoodRepository{db: db}
}

func (r *FoodRepository) GetByIDs(ctx context.Context, ids []string) ([]*domfood.Food, error) {
	if len(ids) == 0 {
		return []*domfood.Food{}, nil
	}

	query := `
        SELECT id, name, description, price, category, image
        FROM foods
        WHERE id IN (?` + strings.Repeat(",?", len(ids)-1) + `)
    `

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var foods []*domfood.Food
	for rows.Next() {
		var f domfood.Food
		if err := rows.Scan(&f.ID, &f.Name, &f.Description, &f.Price, &f.Category, &f.Image); err != nil {
			return nil, err
		}
		foods = append(foods, &f)
	}
	return foods, rows.Err()
}
