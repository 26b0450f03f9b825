package cart

import (
	"time"

	pkgerrors "github.com/angelmondragon/grocer-backend/pkg/errors"
	"github.com/google/uuid"
)

// MaxLineQuantity bounds a single line, including quantity accumulated over
// repeated adds.
const MaxLineQuantity = 10000

// Line is one cart entry. Quantity is always at least 1.
type Line struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
}

// Cart is a session cart for a single supermarket. Lines are unique by item
// and keep the order items were first added in.
type Cart struct {
	SessionID     string    `json:"session_id"`
	SupermarketID uuid.UUID `json:"supermarket_id"`
	Lines         []Line    `json:"lines"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// New returns an empty cart.
func New(supermarketID uuid.UUID, sessionID string) *Cart {
	return &Cart{SessionID: sessionID, SupermarketID: supermarketID, Lines: []Line{}}
}

// Add puts quantity more units of itemID in the cart, accumulating onto an
// existing line.
func (c *Cart) Add(itemID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if quantity > MaxLineQuantity {
		return lineLimitErr()
	}
	if i := c.index(itemID); i >= 0 {
		if c.Lines[i].Quantity > MaxLineQuantity-quantity {
			return lineLimitErr()
		}
		c.Lines[i].Quantity += quantity
		return nil
	}
	c.Lines = append(c.Lines, Line{ItemID: itemID, Quantity: quantity})
	return nil
}

// SetQuantity overwrites the quantity of a line. A quantity of zero or less
// removes the line.
func (c *Cart) SetQuantity(itemID uuid.UUID, quantity int) error {
	i := c.index(itemID)
	if i < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}
	if quantity <= 0 {
		c.removeAt(i)
		return nil
	}
	if quantity > MaxLineQuantity {
		return lineLimitErr()
	}
	c.Lines[i].Quantity = quantity
	return nil
}

// Remove drops the line for itemID and reports whether it was present.
func (c *Cart) Remove(itemID uuid.UUID) bool {
	i := c.index(itemID)
	if i < 0 {
		return false
	}
	c.removeAt(i)
	return true
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Lines = []Line{}
}

// Quantity returns the quantity of itemID, zero when absent.
func (c *Cart) Quantity(itemID uuid.UUID) int {
	if i := c.index(itemID); i >= 0 {
		return c.Lines[i].Quantity
	}
	return 0
}

// TotalQuantity sums every line.
func (c *Cart) TotalQuantity() int {
	total := 0
	for _, l := range c.Lines {
		total += l.Quantity
	}
	return total
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// ItemIDs lists the items in line order.
func (c *Cart) ItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Lines))
	for _, l := range c.Lines {
		ids = append(ids, l.ItemID)
	}
	return ids
}

func (c *Cart) index(itemID uuid.UUID) int {
	for i, l := range c.Lines {
		if l.ItemID == itemID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
}

func lineLimitErr() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "line quantity exceeds the limit").
		WithDetails(map[string]any{"max_quantity": MaxLineQuantity})
}
