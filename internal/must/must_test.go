package must_test

import (
	"embed"
	"errors"
	"io/fs"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starquake/quizbench/internal/must"
)

//go:embed must.go
var sourceFS embed.FS

var errTest = errors.New("test error")

func recovered(f func()) (r any) {
	defer func() { r = recover() }()
	f()

	return nil
}

func TestOK(t *testing.T) {
	t.Parallel()

	if r := recovered(func() { must.OK(nil) }); r != nil {
		t.Errorf("OK(nil) panicked: %v", r)
	}
	if r := recovered(func() { must.OK(errTest) }); r != errTest { //nolint:errorlint // identity of the panic value
		t.Errorf("OK(err) recovered %v, want %v", r, errTest)
	}
}

func TestAny(t *testing.T) {
	t.Parallel()

	t.Run("returns value", func(t *testing.T) {
		t.Parallel()

		if diff := cmp.Diff([]int{1, 2, 3}, must.Any([]int{1, 2, 3}, nil)); diff != "" {
			t.Errorf("Any() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("sub of embedded directory", func(t *testing.T) {
		t.Parallel()

		fsys := must.Any(fs.Sub(sourceFS, "."))
		if _, err := fs.Stat(fsys, "must.go"); err != nil {
			t.Errorf("fs.Stat() err = %v", err)
		}
	})

	t.Run("panics on error", func(t *testing.T) {
		t.Parallel()

		if r := recovered(func() { must.Any(42, errTest) }); r != errTest { //nolint:errorlint // identity of the panic value
			t.Errorf("Any(42, err) recovered %v, want %v", r, errTest)
		}
	})
}
