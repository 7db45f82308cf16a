package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starquake/quizbench/internal/httputil"
	"github.com/starquake/quizbench/internal/member"
)

type memberResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type memberRequest struct {
	Name string `json:"name"`
}

func toMemberResponses(ms []member.Member) []memberResponse {
	res := make([]memberResponse, 0, len(ms))
	for _, m := range ms {
		res = append(res, memberResponse(m))
	}

	return res
}

// writeError maps err to a status code. Unexpected errors are logged and answered with 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, msg string, err error) {
	switch {
	case errors.Is(err, member.ErrMemberNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, member.ErrConstraintViolation):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, member.ErrAmbiguousName):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		logger.ErrorContext(r.Context(), msg, slog.Any("err", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// decodeMemberRequest decodes the body of a create or update request. It writes the error response itself.
func decodeMemberRequest(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (memberRequest, bool) {
	if !httputil.IsJSON(r) {
		http.Error(w, "content type must be application/json", http.StatusUnsupportedMediaType)

		return memberRequest{}, false
	}
	req, err := httputil.DecodeJSON[memberRequest](r)
	if err != nil {
		logger.DebugContext(r.Context(), "error decoding memberRequest", slog.Any("err", err))
		http.Error(w, "invalid request body", http.StatusBadRequest)

		return memberRequest{}, false
	}

	return req, true
}

// HandleMemberList returns all members as a JSON array ordered by ID.
// With a name query parameter it returns the single member with that name: 404 if there is none and 409 if there
// is more than one.
func HandleMemberList(logger *slog.Logger, service *member.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ms []member.Member
		if r.URL.Query().Has("name") {
			m, err := service.FindMemberByName(r.Context(), r.URL.Query().Get("name"))
			if err != nil {
				writeError(w, r, logger, "error finding member by name", err)

				return
			}
			ms = []member.Member{m}
		} else {
			var err error
			ms, err = service.GetAllMembers(r.Context())
			if err != nil {
				writeError(w, r, logger, "error retrieving members", err)

				return
			}
		}

		if err := httputil.EncodeJSON(w, http.StatusOK, toMemberResponses(ms)); err != nil {
			logger.ErrorContext(r.Context(), "error encoding members", slog.Any("err", err))
		}
	})
}

// HandleMemberGet returns a single member.
func HandleMemberGet(logger *slog.Logger, service *member.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := httputil.ParseIDFromPath(w, r, logger, "id")
		if !ok {
			return
		}

		m, err := service.GetMember(r.Context(), id)
		if err != nil {
			writeError(w, r, logger, "error retrieving member", err)

			return
		}

		if err = httputil.EncodeJSON(w, http.StatusOK, memberResponse(m)); err != nil {
			logger.ErrorContext(r.Context(), "error encoding member", slog.Any("err", err))
		}
	})
}

// HandleMemberCreate registers a new member.
// Returns 201 with a Location header, 415 for a non-JSON body, 400 for a malformed body and 422 for an empty name.
func HandleMemberCreate(logger *slog.Logger, service *member.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeMemberRequest(w, r, logger)
		if !ok {
			return
		}

		m, err := service.RegisterMember(r.Context(), req.Name)
		if err != nil {
			writeError(w, r, logger, "error registering member", err)

			return
		}

		w.Header().Set("Location", fmt.Sprintf("/members/%d", m.ID))
		if err = httputil.EncodeJSON(w, http.StatusCreated, memberResponse(m)); err != nil {
			logger.ErrorContext(r.Context(), "error encoding member", slog.Any("err", err))
		}
	})
}

// HandleMemberUpdate renames a member.
func HandleMemberUpdate(logger *slog.Logger, service *member.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := httputil.ParseIDFromPath(w, r, logger, "id")
		if !ok {
			return
		}
		req, ok := decodeMemberRequest(w, r, logger)
		if !ok {
			return
		}

		m, err := service.RenameMember(r.Context(), id, req.Name)
		if err != nil {
			writeError(w, r, logger, "error renaming member", err)

			return
		}

		if err = httputil.EncodeJSON(w, http.StatusOK, memberResponse(m)); err != nil {
			logger.ErrorContext(r.Context(), "error encoding member", slog.Any("err", err))
		}
	})
}

// HandleMemberDelete removes a member. Removing a member that does not exist also answers 204.
func HandleMemberDelete(logger *slog.Logger, service *member.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := httputil.ParseIDFromPath(w, r, logger, "id")
		if !ok {
			return
		}

		if err := service.RemoveMember(r.Context(), id); err != nil {
			writeError(w, r, logger, "error removing member", err)

			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}

// HandleMembersBulkCreate registers several members at once, or none of them.
func HandleMembersBulkCreate(logger *slog.Logger, service *member.Service) http.Handler {
	type bulkRequest struct {
		Names []string `json:"names"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !httputil.IsJSON(r) {
			http.Error(w, "content type must be application/json", http.StatusUnsupportedMediaType)

			return
		}
		req, err := httputil.DecodeJSON[bulkRequest](r)
		if err != nil {
			logger.DebugContext(r.Context(), "error decoding bulkRequest", slog.Any("err", err))
			http.Error(w, "invalid request body", http.StatusBadRequest)

			return
		}

		ms, err := service.RegisterMembers(r.Context(), req.Names)
		if err != nil {
			writeError(w, r, logger, "error registering members", err)

			return
		}

		if err = httputil.EncodeJSON(w, http.StatusCreated, toMemberResponses(ms)); err != nil {
			logger.ErrorContext(r.Context(), "error encoding members", slog.Any("err", err))
		}
	})
}

// HandleMembersDeleteAll removes every member. The request must carry confirm=true.
func HandleMembersDeleteAll(logger *slog.Logger, service *member.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.EqualFold(r.URL.Query().Get("confirm"), "true") {
			http.Error(w, "deleting all members requires confirm=true", http.StatusBadRequest)

			return
		}

		if err := service.RemoveAllMembers(r.Context()); err != nil {
			writeError(w, r, logger, "error removing members", err)

			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}
