package main

// cmpOr mirrors the standard library's cmp.Or (Go 1.22+) for the Go 1.21
// toolchain: it returns the first argument that is not the zero value.
func cmpOr[T comparable](vals ...T) T {
	var zero T
	for _, v := range vals {
		if v != zero {
			return v
		}
	}
	return zero
}
