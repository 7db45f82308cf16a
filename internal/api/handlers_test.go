package api_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	. "github.com/starquake/quizbench/internal/api"
	"github.com/starquake/quizbench/internal/member"
	"github.com/starquake/quizbench/internal/member/membertest"
	"github.com/starquake/quizbench/internal/store"
)

var errStore = errors.New("store unavailable")

type brokenStore struct{ member.Store }

func (brokenStore) FindAll(context.Context) ([]member.Member, error) { return nil, errStore }

func newSeededService(t *testing.T) *member.Service {
	t.Helper()

	s := store.NewMemoryStore()
	membertest.Seed(t, s)

	return member.NewService(s, slog.New(slog.DiscardHandler))
}

// newMux routes the member handlers the same way the server does.
func newMux(svc *member.Service) *http.ServeMux {
	logger := slog.New(slog.DiscardHandler)
	mux := http.NewServeMux()
	mux.Handle("GET /test", HandleMemberList(logger, svc))
	mux.Handle("GET /members", HandleMemberList(logger, svc))
	mux.Handle("POST /members", HandleMemberCreate(logger, svc))
	mux.Handle("POST /members/batch", HandleMembersBulkCreate(logger, svc))
	mux.Handle("DELETE /members", HandleMembersDeleteAll(logger, svc))
	mux.Handle("GET /members/{id}", HandleMemberGet(logger, svc))
	mux.Handle("PUT /members/{id}", HandleMemberUpdate(logger, svc))
	mux.Handle("DELETE /members/{id}", HandleMemberDelete(logger, svc))

	return mux
}

func serve(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	return rr
}

func TestHandleMemberList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "test endpoint lists all members",
			target:     "/test",
			wantStatus: http.StatusOK,
			wantBody:   `[{"id":1,"name":"A"},{"id":2,"name":"B"},{"id":3,"name":"C"}]`,
		},
		{
			name:       "members endpoint lists all members",
			target:     "/members",
			wantStatus: http.StatusOK,
			wantBody:   `[{"id":1,"name":"A"},{"id":2,"name":"B"},{"id":3,"name":"C"}]`,
		},
		{name: "by name", target: "/members?name=C", wantStatus: http.StatusOK, wantBody: `[{"id":3,"name":"C"}]`},
		{name: "by unknown name", target: "/members?name=Z", wantStatus: http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rr := serve(t, newMux(newSeededService(t)), http.MethodGet, tc.target, "")

			if got, want := rr.Code, tc.wantStatus; got != want {
				t.Fatalf("status code = %v, want %v", got, want)
			}
			if tc.wantBody == "" {
				return
			}
			if got, want := rr.Header().Get("Content-Type"), "application/json"; got != want {
				t.Errorf("Content-Type = %q, want %q", got, want)
			}
			if got, want := strings.TrimSpace(rr.Body.String()), tc.wantBody; got != want {
				t.Errorf("body = %s, want %s", got, want)
			}
		})
	}
}

func TestHandleMemberList_Empty(t *testing.T) {
	t.Parallel()

	svc := member.NewService(store.NewMemoryStore(), slog.New(slog.DiscardHandler))
	rr := serve(t, newMux(svc), http.MethodGet, "/test", "")

	if got, want := rr.Code, http.StatusOK; got != want {
		t.Fatalf("status code = %v, want %v", got, want)
	}
	if got, want := strings.TrimSpace(rr.Body.String()), "[]"; got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestHandleMemberList_ErrorHandling(t *testing.T) {
	t.Parallel()

	t.Run("ambiguous name", func(t *testing.T) {
		t.Parallel()

		svc := newSeededService(t)
		if _, err := svc.RegisterMember(t.Context(), "A"); err != nil {
			t.Fatalf("RegisterMember() err = %v", err)
		}

		rr := serve(t, newMux(svc), http.MethodGet, "/members?name=A", "")
		if got, want := rr.Code, http.StatusConflict; got != want {
			t.Errorf("status code = %v, want %v", got, want)
		}
	})

	t.Run("store error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		svc := member.NewService(brokenStore{}, logger)

		rr := httptest.NewRecorder()
		HandleMemberList(logger, svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))

		if got, want := rr.Code, http.StatusInternalServerError; got != want {
			t.Fatalf("status code = %v, want %v", got, want)
		}
		if strings.Contains(rr.Body.String(), errStore.Error()) {
			t.Errorf("body %q leaks the internal error", rr.Body.String())
		}
		if got, want := buf.String(), errStore.Error(); !strings.Contains(got, want) {
			t.Errorf("got: %q, should contain: %q", got, want)
		}
	})
}

func TestHandleMemberGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		target     string
		wantStatus int
		wantBody   string
	}{
		{target: "/members/2", wantStatus: http.StatusOK, wantBody: `{"id":2,"name":"B"}`},
		{target: "/members/42", wantStatus: http.StatusNotFound},
		{target: "/members/abc", wantStatus: http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.target, func(t *testing.T) {
			t.Parallel()

			rr := serve(t, newMux(newSeededService(t)), http.MethodGet, tc.target, "")

			if got, want := rr.Code, tc.wantStatus; got != want {
				t.Fatalf("status code = %v, want %v", got, want)
			}
			if tc.wantBody != "" && strings.TrimSpace(rr.Body.String()) != tc.wantBody {
				t.Errorf("body = %s, want %s", rr.Body.String(), tc.wantBody)
			}
		})
	}
}

func TestHandleMemberCreate(t *testing.T) {
	t.Parallel()

	t.Run("created", func(t *testing.T) {
		t.Parallel()

		svc := newSeededService(t)
		rr := serve(t, newMux(svc), http.MethodPost, "/members", `{"name":"D"}`)

		if got, want := rr.Code, http.StatusCreated; got != want {
			t.Fatalf("status code = %v, want %v", got, want)
		}
		if got, want := rr.Header().Get("Location"), "/members/4"; got != want {
			t.Errorf("Location = %q, want %q", got, want)
		}
		if got, want := strings.TrimSpace(rr.Body.String()), `{"id":4,"name":"D"}`; got != want {
			t.Errorf("body = %s, want %s", got, want)
		}

		m, err := svc.GetMember(t.Context(), 4)
		if err != nil {
			t.Fatalf("GetMember() err = %v", err)
		}
		if diff := cmp.Diff(member.Member{ID: 4, Name: "D"}, m); diff != "" {
			t.Errorf("stored member mismatch (-want +got):\n%s", diff)
		}
	})

	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
	}{
		{name: "empty name", contentType: "application/json", body: `{"name":""}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "missing name", contentType: "application/json", body: `{}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "malformed", contentType: "application/json", body: `{"name":`, wantStatus: http.StatusBadRequest},
		{name: "not json", contentType: "text/plain", body: `D`, wantStatus: http.StatusUnsupportedMediaType},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := newSeededService(t)
			req := httptest.NewRequest(http.MethodPost, "/members", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", tc.contentType)
			rr := httptest.NewRecorder()
			newMux(svc).ServeHTTP(rr, req)

			if got, want := rr.Code, tc.wantStatus; got != want {
				t.Errorf("status code = %v, want %v", got, want)
			}
			all, err := svc.GetAllMembers(t.Context())
			if err != nil {
				t.Fatalf("GetAllMembers() err = %v", err)
			}
			if len(all) != 3 {
				t.Errorf("len(GetAllMembers()) = %d, want 3", len(all))
			}
		})
	}
}

func TestHandleMembersBulkCreate(t *testing.T) {
	t.Parallel()

	svc := member.NewService(store.NewMemoryStore(), slog.New(slog.DiscardHandler))
	mux := newMux(svc)

	rr := serve(t, mux, http.MethodPost, "/members/batch", `{"names":["A","B","C"]}`)
	if got, want := rr.Code, http.StatusCreated; got != want {
		t.Fatalf("status code = %v, want %v", got, want)
	}
	if got, want := strings.TrimSpace(rr.Body.String()), `[{"id":1,"name":"A"},{"id":2,"name":"B"},{"id":3,"name":"C"}]`; got != want {
		t.Errorf("body = %s, want %s", got, want)
	}

	rr = serve(t, mux, http.MethodPost, "/members/batch", `{"names":["D",""]}`)
	if got, want := rr.Code, http.StatusUnprocessableEntity; got != want {
		t.Errorf("status code = %v, want %v", got, want)
	}
}

func TestHandleMemberUpdate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		target     string
		body       string
		wantStatus int
		wantBody   string
	}{
		{name: "rename", target: "/members/2", body: `{"name":"BC"}`, wantStatus: http.StatusOK, wantBody: `{"id":2,"name":"BC"}`},
		{name: "missing member", target: "/members/42", body: `{"name":"X"}`, wantStatus: http.StatusNotFound},
		{name: "empty name", target: "/members/2", body: `{"name":""}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "bad id", target: "/members/x", body: `{"name":"X"}`, wantStatus: http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rr := serve(t, newMux(newSeededService(t)), http.MethodPut, tc.target, tc.body)

			if got, want := rr.Code, tc.wantStatus; got != want {
				t.Fatalf("status code = %v, want %v", got, want)
			}
			if tc.wantBody != "" && strings.TrimSpace(rr.Body.String()) != tc.wantBody {
				t.Errorf("body = %s, want %s", rr.Body.String(), tc.wantBody)
			}
		})
	}
}

func TestHandleMemberDelete(t *testing.T) {
	t.Parallel()

	svc := newSeededService(t)
	mux := newMux(svc)

	for _, id := range []int64{2, 2, 42} {
		rr := serve(t, mux, http.MethodDelete, fmt.Sprintf("/members/%d", id), "")
		if got, want := rr.Code, http.StatusNoContent; got != want {
			t.Errorf("DELETE /members/%d status code = %v, want %v", id, got, want)
		}
	}

	rr := serve(t, mux, http.MethodGet, "/members/2", "")
	if got, want := rr.Code, http.StatusNotFound; got != want {
		t.Errorf("status code = %v, want %v", got, want)
	}
}

func TestHandleMembersDeleteAll(t *testing.T) {
	t.Parallel()

	svc := newSeededService(t)
	mux := newMux(svc)

	rr := serve(t, mux, http.MethodDelete, "/members", "")
	if got, want := rr.Code, http.StatusBadRequest; got != want {
		t.Errorf("status code without confirm = %v, want %v", got, want)
	}

	rr = serve(t, mux, http.MethodDelete, "/members?confirm=true", "")
	if got, want := rr.Code, http.StatusNoContent; got != want {
		t.Errorf("status code = %v, want %v", got, want)
	}

	rr = serve(t, mux, http.MethodGet, "/test", "")
	if got, want := strings.TrimSpace(rr.Body.String()), "[]"; got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}
