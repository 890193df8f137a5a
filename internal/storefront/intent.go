package storefront

import "github.com/xenking/storefront/internal/view"

// Origin tells which surface a quantity adjustment came from.
type Origin int

const (
	// OriginGrid adjusts the per-card selector on the product grid.
	OriginGrid Origin = iota
	// OriginCart adjusts a cart entry.
	OriginCart
)

func (o Origin) String() string {
	switch o {
	case OriginGrid:
		return "grid"
	case OriginCart:
		return "cart"
	default:
		return "unknown"
	}
}

// Intent is a user action accepted by Dispatch.
type Intent interface {
	Kind() string
}

// Search replaces the grid with products matching Query and their
// category neighbours.
type Search struct {
	Query string
}

// Suggest lists product titles containing Query.
type Suggest struct {
	Query string
}

// AddToCart adds Quantity of a product to the cart, merging with any
// existing entry.
type AddToCart struct {
	ProductID string
	Quantity  int
}

// AdjustQuantity changes a quantity by Delta, either on the grid selector
// or on the cart entry depending on Origin.
type AdjustQuantity struct {
	ProductID string
	Delta     int
	Origin    Origin
}

// RemoveFromCart deletes a cart entry.
type RemoveFromCart struct {
	ProductID string
}

// CommitCard adds the quantity selected on a grid card to the cart.
type CommitCard struct {
	ProductID string
}

func (Search) Kind() string         { return "search" }
func (Suggest) Kind() string        { return "suggest" }
func (AddToCart) Kind() string      { return "add_to_cart" }
func (AdjustQuantity) Kind() string { return "adjust_quantity" }
func (RemoveFromCart) Kind() string { return "remove_from_cart" }
func (CommitCard) Kind() string     { return "commit_card" }

// Result carries intent output that is not part of the view.
type Result struct {
	// Suggestions holds titles for a Suggest intent.
	Suggestions []string
	// Matches is the number of products a Search intent resolved.
	Matches int
	// View is the view right after the intent, nil when the surface
	// cannot take snapshots.
	View *view.Model
}
