package blog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/2beens/blogbox/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type newBlogRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type updateBlogRequest struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type blogRepo interface {
	List(ctx context.Context) []*Blog
	FindByID(ctx context.Context, id string) (*Blog, bool)
	Create(ctx context.Context, title, content string) *Blog
	Update(ctx context.Context, id, title, content string) error
	Delete(ctx context.Context, id string)
}

var _ blogRepo = (*Repo)(nil)

// Handler exposes the blog repository as a JSON API.
type Handler struct {
	repo blogRepo
}

func NewBlogHandler(repo blogRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

// SetupRoutes registers the blog routes under /blogs on the given (api)
// router; writeMiddlewares are applied to the mutating routes only.
func (handler *Handler) SetupRoutes(router *mux.Router, writeMiddlewares ...mux.MiddlewareFunc) {
	blogsRouter := router.PathPrefix("/blogs").Subrouter()
	blogsRouter.HandleFunc("", handler.handleAll).Methods("GET").Name("all-blogs")
	blogsRouter.HandleFunc("/{id}", handler.handleGet).Methods("GET").Name("get-blog")

	writeRouter := blogsRouter.Methods("POST", "PUT", "DELETE", "OPTIONS").Subrouter()
	writeRouter.HandleFunc("", handler.handleNewBlog).Methods("POST", "OPTIONS").Name("new-blog")
	writeRouter.HandleFunc("", handler.handleUpdateBlog).Methods("PUT", "OPTIONS").Name("update-blog")
	writeRouter.HandleFunc("/{id}", handler.handleDeleteBlog).Methods("DELETE", "OPTIONS").Name("delete-blog")
	for _, mw := range writeMiddlewares {
		writeRouter.Use(mw)
	}
}

func (handler *Handler) handleNewBlog(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, PUT, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var newBlogReq newBlogRequest
	if r.Header.Get("Content-Type") == pkg.ContentType.JSON {
		if err := json.NewDecoder(r.Body).Decode(&newBlogReq); err != nil {
			log.Errorf("new blog, unmarshal json params: %s", err)
			http.Error(w, "add blog failed", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Errorf("add new blog failed, parse form error: %s", err)
			http.Error(w, "parse form error", http.StatusBadRequest)
			return
		}
		newBlogReq = newBlogRequest{
			Title:   r.Form.Get("title"),
			Content: r.Form.Get("content"),
		}
	}

	newBlog := handler.repo.Create(r.Context(), newBlogReq.Title, newBlogReq.Content)

	newBlogJson, err := json.Marshal(newBlog)
	if err != nil {
		log.Errorf("marshal new blog error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, newBlogJson, http.StatusCreated)
}

func (handler *Handler) handleUpdateBlog(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, PUT, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var updateBlogReq updateBlogRequest
	if r.Header.Get("Content-Type") == pkg.ContentType.JSON {
		if err := json.NewDecoder(r.Body).Decode(&updateBlogReq); err != nil {
			log.Errorf("update blog, unmarshal json params: %s", err)
			http.Error(w, "update blog failed", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Errorf("update blog failed, parse form error: %s", err)
			http.Error(w, "parse form error", http.StatusBadRequest)
			return
		}
		updateBlogReq = updateBlogRequest{
			ID:      r.Form.Get("id"),
			Title:   r.Form.Get("title"),
			Content: r.Form.Get("content"),
		}
	}

	if updateBlogReq.ID == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Update(r.Context(), updateBlogReq.ID, updateBlogReq.Title, updateBlogReq.Content); err != nil {
		if errors.Is(err, ErrBlogNotFound) {
			http.Error(w, "error, blog not found", http.StatusNotFound)
			return
		}
		log.Errorf("update blog failed: %s", err)
		http.Error(w, "update blog failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("updated:%s", updateBlogReq.ID))
}

func (handler *Handler) handleDeleteBlog(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "DELETE, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	// deleting an unknown id is a silent no-op
	handler.repo.Delete(r.Context(), id)

	pkg.WriteTextResponseOK(w, fmt.Sprintf("deleted:%s", id))
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	b, found := handler.repo.FindByID(r.Context(), id)
	if !found {
		http.Error(w, "error, blog not found", http.StatusNotFound)
		return
	}

	blogJson, err := json.Marshal(b)
	if err != nil {
		log.Errorf("marshal blog %s error: %s", id, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, blogJson)
}

func (handler *Handler) handleAll(w http.ResponseWriter, r *http.Request) {
	allBlogs := handler.repo.List(r.Context())

	allBlogsJson, err := json.Marshal(allBlogs)
	if err != nil {
		log.Errorf("marshal all blogs error: %s", err)
		http.Error(w, "marshal all blogs error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, allBlogsJson)
}
