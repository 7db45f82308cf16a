// Package api provides the HTTP handlers of the JSON and plain text API.
package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starquake/quizbench/internal/httputil"
	"github.com/starquake/quizbench/internal/quiz"
)

const int32Size = 32

// DispatchRecorder records quiz dispatch results.
type DispatchRecorder interface {
	RecordQuizDispatch(method string, statusCode int)
}

// NopRecorder is a DispatchRecorder that records nothing.
type NopRecorder struct{}

// RecordQuizDispatch does nothing.
func (NopRecorder) RecordQuizDispatch(string, int) {}

func writeResult(w http.ResponseWriter, r *http.Request, logger *slog.Logger, res quiz.Result) {
	if err := httputil.WriteText(w, res.Status, res.Message); err != nil {
		logger.ErrorContext(r.Context(), "error writing quiz response", slog.Any("err", err))
	}
}

// HandleQuizGet answers GET /quiz?code=<int32> with the canned response for the code.
// Returns 400 with an error message if code is missing or not a 32-bit integer.
func HandleQuizGet(logger *slog.Logger, recorder DispatchRecorder) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("code")
		if raw == "" {
			http.Error(w, "missing query parameter: code", http.StatusBadRequest)

			return
		}
		code, err := strconv.ParseInt(raw, 10, int32Size)
		if err != nil {
			logger.DebugContext(r.Context(), "error parsing quiz code", slog.Any("err", err))
			http.Error(w, "invalid query parameter: code must be a 32-bit integer", http.StatusBadRequest)

			return
		}

		res := quiz.DispatchGet(int32(code))
		recorder.RecordQuizDispatch(r.Method, res.Status)
		writeResult(w, r, logger, res)
	})
}

// HandleQuizPost answers POST /quiz with a JSON body {"value": <int32>}.
// Returns 415 if the body is not JSON and 400 if it is malformed or value is missing or not a 32-bit integer.
func HandleQuizPost(logger *slog.Logger, recorder DispatchRecorder) http.Handler {
	type quizRequest struct {
		Value *int32 `json:"value"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !httputil.IsJSON(r) {
			http.Error(w, "content type must be application/json", http.StatusUnsupportedMediaType)

			return
		}

		req, err := httputil.DecodeJSON[quizRequest](r)
		if err != nil {
			logger.DebugContext(r.Context(), "error decoding quizRequest", slog.Any("err", err))
			http.Error(w, "invalid request body: value must be a 32-bit integer", http.StatusBadRequest)

			return
		}
		if req.Value == nil {
			http.Error(w, "invalid request body: missing field: value", http.StatusBadRequest)

			return
		}

		res := quiz.DispatchPost(*req.Value)
		recorder.RecordQuizDispatch(r.Method, res.Status)
		writeResult(w, r, logger, res)
	})
}
