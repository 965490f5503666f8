package book

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-admin/internal/apiserver/auth"
	"library-admin/internal/shared/model"
	"library-admin/internal/shared/storage/memstore"
	"library-admin/internal/shared/storage/storagetest"
)

func do(mux http.Handler, method, path, body string, user *auth.AuthUser) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if user != nil {
		req = req.WithContext(auth.WithAuthUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandler(t *testing.T) {
	store := memstore.New()
	require.NoError(t, store.CreateBook(t.Context(), storagetest.NewBook("book123", "Test Book")))

	mux := http.NewServeMux()
	NewHandler(store, nil).RegisterRoutes(mux)
	user := &auth.AuthUser{ID: "u1"}
	admin := &auth.AuthUser{ID: "admin", IsAdmin: true}

	rec := do(mux, http.MethodGet, "/api/v1/books/book123", "", user)
	require.Equal(t, http.StatusOK, rec.Code)
	var b model.Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	assert.Equal(t, "Test Book", b.Title)

	rec = do(mux, http.MethodGet, "/api/v1/books/missing", "", user)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(mux, http.MethodPost, "/api/v1/books", `{"title":"Dune"}`, user)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(mux, http.MethodPost, "/api/v1/books", `{"title":"  "}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(mux, http.MethodPost, "/api/v1/books", `{"title":"Dune","author":"Frank Herbert"}`, admin)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(mux, http.MethodGet, "/api/v1/books", "", user)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":2`)
}
