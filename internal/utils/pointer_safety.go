package utils

// Value dereferences v, returning the zero value of T when v is nil.
func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

// Ptr returns a pointer to a copy of v. Useful for optional fields such as
// discordgo's MinLength that take a pointer to a literal.
func Ptr[T any](v T) *T {
	return &v
}
