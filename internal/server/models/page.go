package models

// Page is one page of a paginated listing.
type Page[T any] struct {
	Results      []T `json:"results"`
	Page         int `json:"page"`
	Limit        int `json:"limit"`
	TotalPages   int `json:"totalPages"`
	TotalResults int `json:"totalResults"`
}
