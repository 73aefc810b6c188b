//go:build !race

package auth

// Work factor is fixed; changing it only affects newly stored hashes.
func passwordHashCost() int {
	return 10
}
