package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"gitlab.com/yelinaung/expense-api/internal/models"
)

// names serves the CRUD routes for one owner-scoped named entity.
type names[T any] struct {
	store  NameStore[T]
	kind   string
	encode func(*T) any
}

type nameRequest struct {
	Name string `json:"name"`
}

func (n *names[T]) routes(r chi.Router) {
	r.Get("/", n.list)
	r.Post("/", n.create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", n.get)
		r.Put("/", n.update)
		r.Patch("/", n.update)
		r.Delete("/", n.delete)
	})
}

func (n *names[T]) list(w http.ResponseWriter, r *http.Request) {
	items, err := n.store.List(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]any, 0, len(items))
	for i := range items {
		out = append(out, n.encode(&items[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (n *names[T]) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	item, err := n.store.GetByID(r.Context(), ownerFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n.encode(item))
}

func (n *names[T]) readName(w http.ResponseWriter, r *http.Request) (string, error) {
	var req nameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return "", err
	}
	name, err := models.NormalizeName(req.Name)
	if err != nil {
		return "", badRequest("%s name: %v", n.kind, err)
	}
	return name, nil
}

func (n *names[T]) create(w http.ResponseWriter, r *http.Request) {
	name, err := n.readName(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	item, err := n.store.Create(r.Context(), ownerFrom(r.Context()), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n.encode(item))
}

func (n *names[T]) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	name, err := n.readName(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	item, err := n.store.Update(r.Context(), ownerFrom(r.Context()), id, name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n.encode(item))
}

func (n *names[T]) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := n.store.Delete(r.Context(), ownerFrom(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
