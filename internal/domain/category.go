package domain

import "time"

// Category is reference data tickets may be filed under.
type Category struct {
	ID        int64
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
