package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	domfood "example.com/food-ordering/internal/domain/food"
)

type FoodRepository struct {
	pool *pgxpool.Pool
}

func NewFoodRepository(pool *pgxpool.Pool) *FoodRepository {
	return &FoodRepository{pool: pool}
}

func (r *FoodRepository) GetByIDs(ctx context.Context, ids []string) ([]*domfood.Food, error) {
	if len(ids) == 0 {
		return []*domfood.Food{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, price::text, category, image
		FROM foods
		WHERE id = ANY($1)
	`, ids)
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
