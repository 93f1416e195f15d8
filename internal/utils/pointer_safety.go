package utils

func Ptr[T any](v T) *T {
	return &v
}

// PtrOrNil returns nil for the zero value, so optional flags map onto omitted JSON fields.
func PtrOrNil[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}

// ValueOr returns the value pointed to by v, or fallback when v is nil.
func ValueOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}
