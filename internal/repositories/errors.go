package repositories

import "errors"

var (
	// ErrOrderNotFound indicates the requested order does not exist.
	ErrOrderNotFound = errors.New("repositories: order not found")
	// ErrProductNotFound indicates the requested product does not exist.
	ErrProductNotFound = errors.New("repositories: product not found")
)
