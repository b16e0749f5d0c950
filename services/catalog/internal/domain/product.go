package domain

import (
	"time"
)

// Product represents an item in the catalog. Code is the external
// article identifier and must be unique; Slug is derived from Name.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Slug      string    `json:"slug"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
