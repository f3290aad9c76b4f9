package state

import (
	"time"

	"github.com/utafrali/storefront/internal/domain"
)

// Partition names one independent slice of the container.
type Partition string

const (
	PartitionProducts   Partition = "products"
	PartitionReviews    Partition = "reviews"
	PartitionWishlist   Partition = "wishlist"
	PartitionOrders     Partition = "orders"
	PartitionCategories Partition = "categories"
	PartitionSettings   Partition = "settings"
	PartitionUser       Partition = "user"
)

// RequiresAuth reports whether the partition can only be loaded with a token.
func (p Partition) RequiresAuth() bool {
	switch p {
	case PartitionWishlist, PartitionOrders, PartitionUser:
		return true
	default:
		return false
	}
}

// Container is the state owned by one shopper session.
type Container struct {
	Token      string                `json:"token,omitempty"`
	Products   []domain.Product      `json:"products"`
	Reviews    []domain.Review       `json:"reviews"`
	Wishlist   []domain.WishlistItem `json:"wishlist"`
	Orders     []domain.Order        `json:"orders"`
	Categories []domain.Category     `json:"categories"`
	Settings   []domain.Setting      `json:"settings"`
	User       *domain.UserProfile   `json:"user,omitempty"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// New returns an empty container with every partition initialised.
func New() *Container {
	return &Container{
		Products:   []domain.Product{},
		Reviews:    []domain.Review{},
		Wishlist:   []domain.WishlistItem{},
		Orders:     []domain.Order{},
		Categories: []domain.Category{},
		Settings:   []domain.Setting{},
	}
}

// SignedIn reports whether an auth token is present.
func (c *Container) SignedIn() bool {
	return c.Token != ""
}

// IsInWishlist is true iff some wishlist entry has the given product id.
func (c *Container) IsInWishlist(productID string) bool {
	return Contains(c.Wishlist, productID)
}

// FindProduct returns the catalog product with the given id.
func (c *Container) FindProduct(productID string) (domain.Product, bool) {
	for _, p := range c.Products {
		if p.Key() == productID {
			return p, true
		}
	}
	return domain.Product{}, false
}

// SignIn stores the token. Personalized partitions belonging to a different
// token are dropped so they are never shown to the new shopper.
func (c *Container) SignIn(token string) {
	if c.Token != token {
		c.resetPersonal()
	}
	c.Token = token
}

// SignOut clears the token and resets the personalized partitions.
func (c *Container) SignOut() {
	c.Token = ""
	c.resetPersonal()
}

func (c *Container) resetPersonal() {
	c.Wishlist = []domain.WishlistItem{}
	c.Orders = []domain.Order{}
	c.User = nil
}

// Clone returns a deep copy that shares no slices with c.
func (c *Container) Clone() *Container {
	out := *c
	out.Products = SetAll(c.Products)
	out.Reviews = SetAll(c.Reviews)
	out.Wishlist = SetAll(c.Wishlist)
	out.Orders = SetAll(c.Orders)
	out.Categories = SetAll(c.Categories)
	out.Settings = SetAll(c.Settings)
	if c.User != nil {
		u := *c.User
		out.User = &u
	}
	return &out
}
