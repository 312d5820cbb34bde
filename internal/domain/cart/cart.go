package cart

// MaxQuantity bounds the units of a single item a cart may hold.
const MaxQuantity = 999

type ItemID string

// Cart maps item ids to positive quantities. Zero and negative quantities are
// not representable: removing the last unit removes the item.
type Cart struct {
	UserID string
	items  map[ItemID]int
}

func New(userID string) *Cart {
	return &Cart{UserID: userID, items: make(map[ItemID]int)}
}

// FromQuantities builds a cart from stored quantities, dropping entries that
// are not positive and clamping to MaxQuantity.
func FromQuantities(userID string, quantities map[ItemID]int) *Cart {
	c := New(userID)
	for id, q := range quantities {
		if id == "" || q <= 0 {
			continue
		}
		if q > MaxQuantity {
			q = MaxQuantity
		}
		c.items[id] = q
	}
	return c
}

func (c *Cart) Add(id ItemID) error {
	return c.AddN(id, 1)
}

func (c *Cart) AddN(id ItemID, n int) error {
	if id == "" {
		return ErrInvalidItem
	}
	if n <= 0 {
		return ErrInvalidQuantity
	}
	if c.items == nil {
		c.items = make(map[ItemID]int)
	}
	if c.items[id]+n > MaxQuantity {
		return ErrQuantityLimit
	}
	c.items[id] += n
	return nil
}

// Remove takes one unit of id out of the cart. It reports whether the cart
// changed; removing an absent item is a no-op.
func (c *Cart) Remove(id ItemID) bool {
	q, ok := c.items[id]
	if !ok {
		return false
	}
	if q <= 1 {
		delete(c.items, id)
		return true
	}
	c.items[id] = q - 1
	return true
}

func (c *Cart) Quantity(id ItemID) int {
	return c.items[id]
}

// Items returns a copy of the cart contents. The result is never nil.
func (c *Cart) Items() map[ItemID]int {
	out := make(map[ItemID]int, len(c.items))
	for id, q := range c.items {
		out[id] = q
	}
	return out
}

func (c *Cart) Len() int {
	return len(c.items)
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}
