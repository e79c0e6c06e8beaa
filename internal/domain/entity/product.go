package entity

import "time"

// Image is a stored product or avatar image: public URL plus the storage
// object path needed to delete it later.
type Image struct {
	URL      string `json:"url"`
	ObjectID string `json:"id"`
}

// Product is a marketplace listing.
type Product struct {
	ID             string
	OwnerID        string
	Name           string
	Description    string
	Category       string
	Price          float64
	PurchasingDate time.Time
	ThumbnailURL   string
	Images         []Image
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Categories a listing may belong to.
var Categories = []string{
	"Automotive",
	"Beauty & Personal Care",
	"Books",
	"Electronics",
	"Fashion",
	"Fitness",
	"Home & Kitchen",
	"Sports & Outdoors",
	"Tools & Home Improvement",
	"Toys & Games",
}

// ValidCategory reports whether c is a known listing category.
func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}
