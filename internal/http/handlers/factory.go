// The handler factory produces the four standard CRUD handlers plus getAll
// for any resource backed by a repositories.Store. Route-specific behavior
// stays in the per-resource handler files; everything generic lives here.
package handlers

import (
	"net/http"

	"tourbook/internal/domain"
	"tourbook/internal/http/render"
	"tourbook/internal/query"
	"tourbook/internal/repositories"

	"github.com/gin-gonic/gin"
)

// BaseFilter contributes fixed conditions to a listing, e.g. a parent
// resource id extracted from the route or a visibility restriction.
type BaseFilter func(c *gin.Context) []query.Filter

// CreateOne accepts a full document body and returns 201 with the created
// entity. Store-level validation failures surface as 400 with the store's
// message.
func CreateOne[T any](store repositories.Store[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := bindDoc(c)
		if err != nil {
			render.Error(c, err)
			return
		}
		created, err := store.Create(c.Request.Context(), doc)
		if err != nil {
			render.Error(c, err)
			return
		}
		render.Success(c, http.StatusCreated, gin.H{store.Singular(): created})
	}
}

// GetOne looks a document up by id; missing or malformed ids yield the
// uniform 404.
func GetOne[T any](store repositories.Store[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c)
		if err != nil {
			render.Error(c, err)
			return
		}
		doc, err := store.FindByID(c.Request.Context(), id)
		if err != nil {
			render.Error(c, err)
			return
		}
		render.Success(c, http.StatusOK, gin.H{store.Singular(): doc})
	}
}

// UpdateOne applies a key-presence patch and returns the updated document.
func UpdateOne[T any](store repositories.Store[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c)
		if err != nil {
			render.Error(c, err)
			return
		}
		patch, err := bindDoc(c)
		if err != nil {
			render.Error(c, err)
			return
		}
		doc, err := store.UpdateByID(c.Request.Context(), id, patch)
		if err != nil {
			render.Error(c, err)
			return
		}
		render.Success(c, http.StatusOK, gin.H{store.Singular(): doc})
	}
}

// DeleteOne removes a document and returns 204 with no body.
func DeleteOne[T any](store repositories.Store[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c)
		if err != nil {
			render.Error(c, err)
			return
		}
		if err := store.DeleteByID(c.Request.Context(), id); err != nil {
			render.Error(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// GetAll shapes the listing with the request's query parameters on top of
// whatever base filters the route contributes. An explicitly requested page
// beyond the matching set is a client error, not an empty success.
func GetAll[T any](store repositories.Store[T], bases ...BaseFilter) gin.HandlerFunc {
	return func(c *gin.Context) {
		spec, err := query.ParseSpec(c.Request.URL.Query(), store.Allowed())
		if err != nil {
			render.Error(c, err)
			return
		}

		var base []query.Filter
		for _, b := range bases {
			base = append(base, b(c)...)
		}

		if spec.PageSet {
			total, err := store.Count(c.Request.Context(), spec, base)
			if err != nil {
				render.Error(c, err)
				return
			}
			if int64(spec.Skip()) >= total {
				render.Error(c, domain.BadRequest("This page does not exist"))
				return
			}
		}

		docs, err := store.FindAll(c.Request.Context(), spec, base)
		if err != nil {
			render.Error(c, err)
			return
		}
		if docs == nil {
			docs = []T{}
		}

		if len(spec.Fields) > 0 {
			render.List(c, store.Plural(), len(docs), query.ProjectAll(spec, docs))
			return
		}
		render.List(c, store.Plural(), len(docs), docs)
	}
}
