// Package ptr has helpers for pointer-typed optional fields.
package ptr

// To returns a pointer to v.
func To[T any](v T) *T {
	return &v
}
