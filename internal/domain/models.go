package domain

// Product is the storefront's read-only copy of a catalog product.
type Product struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Price       Price  `json:"price"`
}

func (p Product) Key() string { return string(p.ID) }

// WishlistItem is a wishlist entry carrying a denormalized copy of the product.
// At most one entry exists per ProductID.
type WishlistItem struct {
	ProductID ID `json:"product_id"`
	Product
}

func (w WishlistItem) Key() string { return string(w.ProductID) }

// NewWishlistItem builds the entry appended after a successful add.
func NewWishlistItem(p Product) WishlistItem {
	return WishlistItem{ProductID: p.ID, Product: p}
}

// Review is a customer testimonial.
type Review struct {
	ID     ID         `json:"id"`
	Rating int        `json:"rating"`
	Review string     `json:"review"`
	User   ReviewUser `json:"user"`
}

func (r Review) Key() string { return string(r.ID) }

// ReviewUser is the author block embedded in a Review.
type ReviewUser struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// Order is a summary of one of the shopper's orders.
type Order struct {
	ID        ID     `json:"id"`
	Status    string `json:"status"`
	Total     Price  `json:"total"`
	CreatedAt string `json:"created_at"`
}

func (o Order) Key() string { return string(o.ID) }

// Category is a catalog category used for navigation.
type Category struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (c Category) Key() string { return string(c.ID) }

// Setting is a public store setting such as the shop name or currency.
type Setting struct {
	ID    ID     `json:"id"`
	Name  string `json:"key"`
	Value string `json:"value"`
}

// Key identifies a setting by its name, falling back to its id.
func (s Setting) Key() string {
	if s.Name != "" {
		return s.Name
	}
	return string(s.ID)
}

// UserProfile is the signed-in shopper's profile.
type UserProfile struct {
	ID       ID     `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Location string `json:"location,omitempty"`
}
