package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Skotchmaster/ref_site/pkg/db"
	"github.com/Skotchmaster/ref_site/services/catalog/internal/models"
	"github.com/Skotchmaster/ref_site/services/catalog/internal/repo"
	"github.com/Skotchmaster/ref_site/services/catalog/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()
	gdb, err := db.Open(context.Background(), "sqlite::memory:", &models.Product{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	svc := &service.CatalogService{Repo: &repo.GormRepo{DB: gdb}}
	_, err = svc.Seed(context.Background(), []models.Product{
		{File: "shirt1.png", Title: "She's So Lucky", Price: "$25.50", PriceID: "price_1"},
		{File: "shirt2.png", Title: "Plain Tee", Price: "$20"},
	})
	require.NoError(t, err)

	e := echo.New()
	Register(e, &Deps{CatalogHandler: &CatalogHTTP{Svc: svc}})
	return e
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestCatalogHTTP_ListAndByFile(t *testing.T) {
	e := newTestEcho(t)

	rec := get(e, "/api/v1/catalog/products?page=1&size=1")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data []map[string]any `json:"data"`
		Meta map[string]any   `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.EqualValues(t, 2, list.Meta["total"])
	assert.Equal(t, true, list.Meta["has_next"])

	rec = get(e, "/api/v1/catalog/products/by-file/shirt1.png")
	require.Equal(t, http.StatusOK, rec.Code)
	var p map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "price_1", p["priceId"])
	assert.Equal(t, true, p["buyable"])
	images := p["images"].([]any)
	require.Len(t, images, 7)
	assert.Equal(t, "assets/shop/shirt1.png", images[0])
	assert.Equal(t, "assets/shop/products/shirt1/shirt1a.png", images[1])

	rec = get(e, "/api/v1/catalog/products/by-file/missing.png")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCatalogHTTP_GetByIDAndSearch(t *testing.T) {
	e := newTestEcho(t)

	assert.Equal(t, http.StatusOK, get(e, "/api/v1/catalog/products/1").Code)
	assert.Equal(t, http.StatusBadRequest, get(e, "/api/v1/catalog/products/abc").Code)
	assert.Equal(t, http.StatusNotFound, get(e, "/api/v1/catalog/products/77").Code)

	rec := get(e, "/api/v1/catalog/search?q=lucky")
	require.Equal(t, http.StatusOK, rec.Code)
	var res struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Data, 1)
	assert.Equal(t, "shirt1.png", res.Data[0]["file"])
}
