package food

import "context"

type Catalog interface {
	// GetByIDs returns the foods that exist among ids, in no particular order.
	GetByIDs(ctx context.Context, ids []string) ([]*Food, error)
}
