// Package quiz maps quiz codes to canned HTTP responses.
package quiz

import "net/http"

// Result is the response for a quiz code.
type Result struct {
	Status  int
	Message string
}

var (
	resultOK         = Result{Status: http.StatusOK, Message: "OK!"}
	resultCreated    = Result{Status: http.StatusCreated, Message: "Created!"}
	resultBadRequest = Result{Status: http.StatusBadRequest, Message: "Bad Request!"}
	resultForbidden  = Result{Status: http.StatusForbidden, Message: "Forbidden!"}
)

// DispatchGet returns the response for a code sent with GET.
// 1 is Created, 2 is Bad Request and every other code is OK.
func DispatchGet(code int32) Result {
	switch code {
	case 1:
		return resultCreated
	case 2:
		return resultBadRequest
	default:
		return resultOK
	}
}

// DispatchPost returns the response for a value sent with POST.
// 1 is Forbidden and every other value is OK.
func DispatchPost(value int32) Result {
	if value == 1 {
		return resultForbidden
	}

	return resultOK
}
