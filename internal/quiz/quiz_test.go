package quiz_test

import (
	"math"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	. "github.com/starquake/quizbench/internal/quiz"
)

func TestDispatchGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code int32
		want Result
	}{
		{code: 1, want: Result{Status: http.StatusCreated, Message: "Created!"}},
		{code: 2, want: Result{Status: http.StatusBadRequest, Message: "Bad Request!"}},
		{code: 0, want: Result{Status: http.StatusOK, Message: "OK!"}},
		{code: 3, want: Result{Status: http.StatusOK, Message: "OK!"}},
		{code: -1, want: Result{Status: http.StatusOK, Message: "OK!"}},
		{code: math.MaxInt32, want: Result{Status: http.StatusOK, Message: "OK!"}},
		{code: math.MinInt32, want: Result{Status: http.StatusOK, Message: "OK!"}},
	}
	for _, tc := range tests {
		if diff := cmp.Diff(tc.want, DispatchGet(tc.code)); diff != "" {
			t.Errorf("DispatchGet(%d) mismatch (-want +got):\n%s", tc.code, diff)
		}
	}
}

func TestDispatchPost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value int32
		want  Result
	}{
		{value: 1, want: Result{Status: http.StatusForbidden, Message: "Forbidden!"}},
		{value: 0, want: Result{Status: http.StatusOK, Message: "OK!"}},
		{value: 2, want: Result{Status: http.StatusOK, Message: "OK!"}},
		{value: -1, want: Result{Status: http.StatusOK, Message: "OK!"}},
		{value: math.MaxInt32, want: Result{Status: http.StatusOK, Message: "OK!"}},
		{value: math.MinInt32, want: Result{Status: http.StatusOK, Message: "OK!"}},
	}
	for _, tc := range tests {
		if diff := cmp.Diff(tc.want, DispatchPost(tc.value)); diff != "" {
			t.Errorf("DispatchPost(%d) mismatch (-want +got):\n%s", tc.value, diff)
		}
	}
}

func TestDispatch_OtherCodesAreOK(t *testing.T) {
	t.Parallel()

	ok := Result{Status: http.StatusOK, Message: "OK!"}

	// Dense range around the special codes, then a stride across the whole int32 range.
	codes := make([]int32, 0, 4096)
	for code := int32(-2000); code <= 2000; code++ {
		codes = append(codes, code)
	}
	for code := int64(math.MinInt32); code <= math.MaxInt32; code += 1 << 22 {
		codes = append(codes, int32(code))
	}

	for _, code := range codes {
		if code != 1 && code != 2 && DispatchGet(code) != ok {
			t.Errorf("DispatchGet(%d) = %+v, want %+v", code, DispatchGet(code), ok)
		}
		if code != 1 && DispatchPost(code) != ok {
			t.Errorf("DispatchPost(%d) = %+v, want %+v", code, DispatchPost(code), ok)
		}
	}
}
