// Package must contains helpers for start-up code where an error means the program cannot run at all.
package must

// OK panics if err is not nil.
func OK(err error) {
	if err != nil {
		panic(err)
	}
}

// Any returns ret, or panics if err is not nil. It wraps calls such as fs.Sub on embedded files that only fail on
// a programming error.
//
//nolint:ireturn // generic passthrough
func Any[T any](ret T, err error) T {
	OK(err)

	return ret
}
