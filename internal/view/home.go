// Package view derives the JSON view models the storefront client renders.
// Builders are pure functions of a state container and configuration.
package view

import (
	"strings"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/state"
)

const (
	HeroTitle        = "Welcome to E-Shop!"
	HeroTagline      = "Discover amazing products at great prices."
	FeaturedTitle    = "Featured Products"
	TestimonialTitle = "Customer Testimonials"

	HeartInWishlist    = "red"
	HeartNotInWishlist = "black"
	TooltipRemove      = "Remove from Wishlist"
	TooltipAdd         = "Add to Wishlist"

	star     = "★"
	maxStars = 5
)

// Config carries the deployment-specific inputs of the home page.
type Config struct {
	// AssetBaseURL prefixes product image paths: {AssetBaseURL}/storage/{image}.
	AssetBaseURL string
	// Slides are promotional image paths shown in the hero carousel.
	Slides []string
}

// Home is the home page view model.
type Home struct {
	Hero         Hero           `json:"hero"`
	Slider       Slider         `json:"slider"`
	Features     []Feature      `json:"features"`
	Products     Section[Card]  `json:"products"`
	Testimonials Section[Quote] `json:"testimonials"`
	SignedIn     bool           `json:"signed_in"`
	Notices      []Notice       `json:"notices,omitempty"`
}

type Hero struct {
	Title   string `json:"title"`
	Tagline string `json:"tagline"`
}

// Slider is the promotional carousel with its playback settings.
type Slider struct {
	Slides   []string       `json:"slides"`
	Settings SliderSettings `json:"settings"`
}

type SliderSettings struct {
	Dots           bool `json:"dots"`
	Infinite       bool `json:"infinite"`
	SpeedMS        int  `json:"speed_ms"`
	SlidesToShow   int  `json:"slides_to_show"`
	SlidesToScroll int  `json:"slides_to_scroll"`
	Autoplay       bool `json:"autoplay"`
	AutoplayMS     int  `json:"autoplay_speed_ms"`
}

// DefaultSliderSettings are the carousel settings of the home page.
func DefaultSliderSettings() SliderSettings {
	return SliderSettings{
		Dots:           true,
		Infinite:       true,
		SpeedMS:        500,
		SlidesToShow:   1,
		SlidesToScroll: 1,
		Autoplay:       true,
		AutoplayMS:     3000,
	}
}

type Feature struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Features are the service promises shown under the hero.
func Features() []Feature {
	return []Feature{
		{Title: "Quality Products", Description: "Your satisfaction is our priority."},
		{Title: "Free Shipping", Description: "On all orders over $50."},
		{Title: "Cash on Delivery", Description: "Pay when you receive your order."},
	}
}

// Section is a titled list.
type Section[T any] struct {
	Title string `json:"title"`
	Items []T    `json:"items"`
}

// Card is one product tile. Wishlist is nil for signed-out shoppers.
type Card struct {
	ID          domain.ID    `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Price       domain.Price `json:"price"`
	ImageURL    string       `json:"image_url"`
	Link        string       `json:"link"`
	Wishlist    *Affordance  `json:"wishlist,omitempty"`
}

// Affordance is the wishlist heart rendered on a card.
type Affordance struct {
	InWishlist bool   `json:"in_wishlist"`
	HeartColor string `json:"heart_color"`
	Tooltip    string `json:"tooltip"`
}

// Quote is one testimonial.
type Quote struct {
	ID       domain.ID `json:"id"`
	Stars    string    `json:"stars"`
	Rating   int       `json:"rating"`
	Text     string    `json:"text"`
	Name     string    `json:"name"`
	Location string    `json:"location"`
}

// Notice reports a resource that failed to load.
type Notice struct {
	Resource string `json:"resource"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// BuildHome assembles the home page from a container.
func BuildHome(cfg Config, c *state.Container, notices []Notice) Home {
	cards := make([]Card, 0, len(c.Products))
	for _, p := range c.Products {
		cards = append(cards, BuildCard(cfg, c, p))
	}

	quotes := make([]Quote, 0, len(c.Reviews))
	for _, r := range c.Reviews {
		quotes = append(quotes, BuildQuote(r))
	}

	slides := make([]string, len(cfg.Slides))
	copy(slides, cfg.Slides)

	return Home{
		Hero:         Hero{Title: HeroTitle, Tagline: HeroTagline},
		Slider:       Slider{Slides: slides, Settings: DefaultSliderSettings()},
		Features:     Features(),
		Products:     Section[Card]{Title: FeaturedTitle, Items: cards},
		Testimonials: Section[Quote]{Title: TestimonialTitle, Items: quotes},
		SignedIn:     c.SignedIn(),
		Notices:      notices,
	}
}

// BuildCard derives a product card. The wishlist affordance is only present
// when the shopper is signed in.
func BuildCard(cfg Config, c *state.Container, p domain.Product) Card {
	card := Card{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    ImageURL(cfg.AssetBaseURL, p.Image),
		Link:        ProductLink(p.ID),
	}
	if c.SignedIn() {
		card.Wishlist = WishlistAffordance(c.IsInWishlist(p.Key()))
	}
	return card
}

// WishlistAffordance maps membership to heart colour and tooltip.
func WishlistAffordance(inWishlist bool) *Affordance {
	if inWishlist {
		return &Affordance{InWishlist: true, HeartColor: HeartInWishlist, Tooltip: TooltipRemove}
	}
	return &Affordance{InWishlist: false, HeartColor: HeartNotInWishlist, Tooltip: TooltipAdd}
}

// ImageURL resolves a storage-relative image path. A product without an
// image has no URL.
func ImageURL(base, image string) string {
	if image == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/storage/" + strings.TrimLeft(image, "/")
}

// ProductLink is the product detail route for id.
func ProductLink(id domain.ID) string {
	return "/product/" + string(id)
}

// Stars renders a rating as a run of stars, clamped to [0, maxStars].
func Stars(rating int) string {
	if rating <= 0 {
		return ""
	}
	return strings.Repeat(star, min(rating, maxStars))
}

// BuildQuote derives a testimonial. The text is wrapped in quotes.
func BuildQuote(r domain.Review) Quote {
	return Quote{
		ID:       r.ID,
		Stars:    Stars(r.Rating),
		Rating:   r.Rating,
		Text:     `"` + r.Review + `"`,
		Name:     r.User.Name,
		Location: r.User.Location,
	}
}
