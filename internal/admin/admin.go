// Package admin contains handlers for the admin dashboard
package admin

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"maps"
	"net/http"
	"slices"

	"github.com/starquake/quizbench/internal/httputil"
	"github.com/starquake/quizbench/internal/member"
	"github.com/starquake/quizbench/internal/web/tmpl"
)

// IndexData is the data for the index page.
type IndexData struct {
	Title       string
	MemberCount int
}

// MemberListData is the data for the member list page.
type MemberListData struct {
	Title   string
	Members []*MemberData
}

// MemberViewData is the data for the member view page.
type MemberViewData struct {
	Title  string
	Member *MemberData
}

// MemberFormData is the data for the member create and rename pages.
type MemberFormData struct {
	Title    string
	Member   *MemberData
	Problems []string
}

// MemberData is the data for a single member.
type MemberData struct {
	ID   int64
	Name string
}

//nolint:gochecknoglobals // parsed once at start-up
var layouts = template.Must(template.ParseFS(tmpl.FS, "admin/layouts/*.gohtml"))

const (
	error404Template = "admin/errors/404.gohtml"
	error500Template = "admin/errors/500.gohtml"
)

func memberDataFromMember(m member.Member) *MemberData {
	return &MemberData{ID: m.ID, Name: m.Name}
}

func memberDataFromMembers(ms []member.Member) []*MemberData {
	data := make([]*MemberData, 0, len(ms))
	for _, m := range ms {
		data = append(data, memberDataFromMember(m))
	}

	return data
}

// parseTemplate parses a template from the given path with layouts.
func parseTemplate(path string) *template.Template {
	return template.Must(template.Must(layouts.Clone()).ParseFS(tmpl.FS, path))
}

// executeTemplate executes a template and logs any errors.
// It does not return an error because the headers have already been written. So we can't render an error page anyway.
func executeTemplate(
	w http.ResponseWriter,
	r *http.Request,
	logger *slog.Logger,
	t *template.Template,
	status int,
	data any,
) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	err := t.ExecuteTemplate(w, "base.gohtml", data)
	if err != nil {
		logger.ErrorContext(r.Context(), "error executing template", slog.Any("err", err))
	}
}

// renderError renders the 404 page for a missing member and the 500 page otherwise.
func renderError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, msg string, err error) {
	if errors.Is(err, member.ErrMemberNotFound) {
		executeTemplate(w, r, logger, parseTemplate(error404Template), http.StatusNotFound, nil)

		return
	}
	logger.ErrorContext(r.Context(), msg, slog.Any("err", err))
	executeTemplate(w, r, logger, parseTemplate(error500Template), http.StatusInternalServerError, nil)
}

// parseMemberID parses the member ID from the path. It renders the 404 page for an ID that is not a number.
func parseMemberID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (int64, bool) {
	id, err := httputil.IDFromString(r.PathValue("memberId"))
	if err != nil {
		logger.DebugContext(r.Context(), "error parsing member ID", slog.Any("err", err))
		executeTemplate(w, r, logger, parseTemplate(error404Template), http.StatusNotFound, nil)

		return 0, false
	}

	return id, true
}

// problemList flattens validation problems into sorted messages.
func problemList(problems map[string]string) []string {
	out := make([]string, 0, len(problems))
	for _, field := range slices.Sorted(maps.Keys(problems)) {
		out = append(out, problems[field])
	}

	return out
}

// HandleIndex returns the index page.
func HandleIndex(logger *slog.Logger, service *member.Service) http.Handler {
	t := parseTemplate("admin/pages/index.gohtml")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ms, err := service.GetAllMembers(r.Context())
		if err != nil {
			renderError(w, r, logger, "error getting members", err)

			return
		}

		data := IndexData{
			Title:       "Admin Dashboard",
			MemberCount: len(ms),
		}
		executeTemplate(w, r, logger, t, http.StatusOK, data)
	})
}

// HandleMemberList returns the member list page.
func HandleMemberList(logger *slog.Logger, service *member.Service) http.Handler {
	t := parseTemplate("admin/pages/memberlist.gohtml")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ms, err := service.GetAllMembers(r.Context())
		if err != nil {
			renderError(w, r, logger, "error getting members", err)

			return
		}

		data := MemberListData{
			Title:   "Admin Dashboard - Member List",
			Members: memberDataFromMembers(ms),
		}
		executeTemplate(w, r, logger, t, http.StatusOK, data)
	})
}

// HandleMemberView returns the member view page.
func HandleMemberView(logger *slog.Logger, service *member.Service) http.Handler {
	t := parseTemplate("admin/pages/memberview.gohtml")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseMemberID(w, r, logger)
		if !ok {
			return
		}

		m, err := service.GetMember(r.Context(), id)
		if err != nil {
			renderError(w, r, logger, "error getting member", err)

			return
		}

		data := MemberViewData{
			Title:  "Admin Dashboard - Member View",
			Member: memberDataFromMember(m),
		}
		executeTemplate(w, r, logger, t, http.StatusOK, data)
	})
}

// HandleMemberCreate returns the form for a new member.
func HandleMemberCreate(logger *slog.Logger) http.Handler {
	t := parseTemplate("admin/pages/memberform.gohtml")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := MemberFormData{
			Title:  "Admin Dashboard - Member Create",
			Member: &MemberData{},
		}
		executeTemplate(w, r, logger, t, http.StatusOK, data)
	})
}

// HandleMemberEdit returns the rename form of an existing member.
func HandleMemberEdit(logger *slog.Logger, service *member.Service) http.Handler {
	t := parseTemplate("admin/pages/memberform.gohtml")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseMemberID(w, r, logger)
		if !ok {
			return
		}

		m, err := service.GetMember(r.Context(), id)
		if err != nil {
			renderError(w, r, logger, "error getting member", err)

			return
		}

		data := MemberFormData{
			Title:  "Admin Dashboard - Member Rename",
			Member: memberDataFromMember(m),
		}
		executeTemplate(w, r, logger, t, http.StatusOK, data)
	})
}

// HandleMemberSave registers a new member, or renames an existing one when the path has a member ID.
// An invalid name renders the form again with the problems.
func HandleMemberSave(logger *slog.Logger, service *member.Service) http.Handler {
	t := parseTemplate("admin/pages/memberform.gohtml")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id int64
		if r.PathValue("memberId") != "" {
			var ok bool
			if id, ok = parseMemberID(w, r, logger); !ok {
				return
			}
		}

		if err := r.ParseForm(); err != nil {
			logger.DebugContext(r.Context(), "error parsing form", slog.Any("err", err))
			http.Error(w, "invalid form", http.StatusBadRequest)

			return
		}

		m := member.Member{ID: id, Name: r.PostFormValue("name")}
		if problems := m.Valid(r.Context()); len(problems) > 0 {
			data := MemberFormData{
				Title:    "Admin Dashboard - Member Save",
				Member:   memberDataFromMember(m),
				Problems: problemList(problems),
			}
			executeTemplate(w, r, logger, t, http.StatusUnprocessableEntity, data)

			return
		}

		var err error
		if id == 0 {
			m, err = service.RegisterMember(r.Context(), m.Name)
		} else {
			m, err = service.RenameMember(r.Context(), id, m.Name)
		}
		if err != nil {
			renderError(w, r, logger, "error saving member", err)

			return
		}

		http.Redirect(w, r, fmt.Sprintf("/admin/members/%d", m.ID), http.StatusFound)
	})
}

// HandleMemberDelete removes a member and returns to the member list.
func HandleMemberDelete(logger *slog.Logger, service *member.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseMemberID(w, r, logger)
		if !ok {
			return
		}

		if err := service.RemoveMember(r.Context(), id); err != nil {
			renderError(w, r, logger, "error removing member", err)

			return
		}

		http.Redirect(w, r, "/admin/members", http.StatusFound)
	})
}
