package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/2beens/blogbox/internal/view"
	"github.com/2beens/blogbox/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const SessionCookieName = "blogbox_session"

//go:embed templates/*.html
var templatesFS embed.FS

type Handler struct {
	sessions   *Sessions
	page       *template.Template
	sessionTTL time.Duration
}

func NewHandler(sessions *Sessions, sessionTTL time.Duration) (*Handler, error) {
	page, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}

	return &Handler{
		sessions:   sessions,
		page:       page,
		sessionTTL: sessionTTL,
	}, nil
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/", handler.handleIndex).Methods("GET").Name("index")

	router.HandleFunc("/home", handler.action(func(ctx context.Context, s *Session, _ *http.Request) {
		s.Controller.Home(ctx)
	})).Methods("POST").Name("home")

	blogsRouter := router.PathPrefix("/blogs").Methods("POST").Subrouter()
	blogsRouter.HandleFunc("/add", handler.action(func(_ context.Context, s *Session, _ *http.Request) {
		s.Controller.Add()
	})).Name("blogs-add")
	blogsRouter.HandleFunc("/cancel", handler.action(func(ctx context.Context, s *Session, _ *http.Request) {
		s.Controller.Cancel(ctx)
	})).Name("blogs-cancel")
	blogsRouter.HandleFunc("/submit", handler.action(handleSubmit)).Name("blogs-submit")
	blogsRouter.HandleFunc("/{id}/open", handler.action(func(ctx context.Context, s *Session, r *http.Request) {
		s.Controller.Select(ctx, mux.Vars(r)["id"])
	})).Name("blogs-open")
	blogsRouter.HandleFunc("/back", handler.action(func(ctx context.Context, s *Session, _ *http.Request) {
		s.Controller.Back(ctx)
	})).Name("blogs-back")
	blogsRouter.HandleFunc("/edit", handler.action(func(ctx context.Context, s *Session, _ *http.Request) {
		s.Controller.Edit(ctx)
	})).Name("blogs-edit")
	blogsRouter.HandleFunc("/delete", handler.action(func(ctx context.Context, s *Session, _ *http.Request) {
		s.Controller.Delete(ctx)
	})).Name("blogs-delete")

	modalRouter := router.PathPrefix("/modal").Methods("POST").Subrouter()
	modalRouter.HandleFunc("/confirm", handler.modalAction(func(s *Session) {
		s.Modal.Affirm()
	})).Name("modal-confirm")
	modalRouter.HandleFunc("/cancel", handler.modalAction(func(s *Session) {
		s.Modal.Dismiss()
	})).Name("modal-cancel")

	router.HandleFunc("/mood/{mood}", handler.action(func(_ context.Context, s *Session, r *http.Request) {
		s.Controller.Mood(mux.Vars(r)["mood"])
	})).Methods("POST").Name("mood")
}

func handleSubmit(ctx context.Context, s *Session, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		log.Errorf("submit blog, parse form error: %s", err)
		return
	}

	s.Controller.Submit(ctx, view.EditorForm{
		ID:      r.PostForm.Get("id"),
		Title:   r.PostForm.Get("title"),
		Content: r.PostForm.Get("content"),
	})
}

func (handler *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	session, err := handler.session(w, r)
	if err != nil {
		log.Errorf("index, get session: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := handler.page.Execute(&buf, session.Document.Page()); err != nil {
		log.Errorf("render page: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.HTML, buf.Bytes())
}

// action runs a controller action and redirects back to the page. While a
// confirmation is pending, the overlay blocks every other action.
func (handler *Handler) action(do func(ctx context.Context, s *Session, r *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := handler.session(w, r)
		if err != nil {
			log.Errorf("action %s, get session: %s", r.URL.Path, err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		if _, active := session.Modal.Active(); active {
			log.Debugf("action %s blocked by pending confirmation", r.URL.Path)
		} else {
			do(r.Context(), session, r)
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (handler *Handler) modalAction(do func(s *Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := handler.session(w, r)
		if err != nil {
			log.Errorf("modal action %s, get session: %s", r.URL.Path, err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		do(session)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// session returns the caller's session, or starts a new one and sets the
// session cookie.
func (handler *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, error) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if session, found := handler.sessions.Get(strings.TrimSpace(cookie.Value)); found {
			// the cache ttl was just extended, keep the cookie alive as long
			handler.setSessionCookie(w, session.ID)
			return session, nil
		}
	}

	session, err := handler.sessions.New(r.Context())
	if err != nil {
		return nil, err
	}
	handler.setSessionCookie(w, session.ID)

	return session, nil
}

func (handler *Handler) setSessionCookie(w http.ResponseWriter, id string) {
	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if handler.sessionTTL > 0 {
		cookie.MaxAge = int(handler.sessionTTL.Seconds())
	}
	http.SetCookie(w, cookie)
}
