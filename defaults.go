package nosql

// coalesce picks def when v is T's zero value. T must be comparable with a
// comparable dynamic type when T is an interface.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
