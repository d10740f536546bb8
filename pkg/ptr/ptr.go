package ptr

// New returns a pointer to v.
func New[T any](v T) *T { return &v }

// Deref returns the value p points to, or fallback when p is nil.
func Deref[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
