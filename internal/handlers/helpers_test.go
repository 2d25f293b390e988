package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/services"
	"catalog-service/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const testTenant = "tenant-123"

type testServer struct {
	router *gin.Engine
	store  *repository.MemoryStore
	images *storage.MemoryImageStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := repository.NewMemoryStore()
	images := storage.NewMemoryImageStore("https://cdn.test")
	inventory := services.NewInventoryService(store, nil, models.CostMethodWeighted, logger)

	router := NewRouter(RouterConfig{
		Categories: NewCategoryHandler(services.NewCategoryService(store, nil, logger), logger),
		Attributes: NewAttributeHandler(services.NewAttributeService(store, nil, logger), logger),
		Products:   NewProductHandler(services.NewCatalogService(store, images, nil, 20, 100, logger), logger),
		Variants:   NewVariantHandler(services.NewVariantService(store, images, inventory, nil, 4, logger), inventory, logger),
		Inventory:  NewInventoryHandler(inventory, logger),
		Import:     NewImportHandler(inventory, logger),
		Health:     NewHealthHandler(map[string]Pinger{"store": store}),
		Logger:     logger,
	})

	return &testServer{router: router, store: store, images: images}
}

func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", testTenant)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) doRaw(req *http.Request) *httptest.ResponseRecorder {
	if req.Header.Get("X-Tenant-ID") == "" {
		req.Header.Set("X-Tenant-ID", testTenant)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// envelope decodes the success envelope and returns its data into dest
func envelope(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	var body struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	require.True(t, body.Success, w.Body.String())
	if dest != nil {
		require.NoError(t, json.Unmarshal(body.Data, dest))
	}
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	require.False(t, body.Success)
	return body
}

// formPart is one multipart field; file parts set filename
type formPart struct {
	name     string
	value    string
	filename string
	content  []byte
}

func field(name, value string) formPart {
	return formPart{name: name, value: value}
}

func file(name, filename string) formPart {
	return formPart{name: name, filename: filename, content: []byte("image:" + filename)}
}

func multipartRequest(t *testing.T, method, path string, parts ...formPart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, p := range parts {
		if p.filename == "" {
			require.NoError(t, writer.WriteField(p.name, p.value))
			continue
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="`+p.name+`"; filename="`+p.filename+`"`)
		header.Set("Content-Type", "image/png")
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(p.content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// ===========================================
// Fixtures
// ===========================================

func (s *testServer) createCategory(t *testing.T, name string, parent *models.Category) models.Category {
	t.Helper()
	body := map[string]interface{}{"name": name}
	if parent != nil {
		body["parentId"] = parent.ID.String()
	}
	w := s.do(http.MethodPost, "/api/v1/categories", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var category models.Category
	envelope(t, w, &category)
	return category
}

type catalogFixture struct {
	root, child, leaf models.Category
	color, red, blue  models.Attribute
	product           models.Product
}

func (s *testServer) catalog(t *testing.T) catalogFixture {
	t.Helper()
	var f catalogFixture
	f.root = s.createCategory(t, "Root", nil)
	f.child = s.createCategory(t, "Child", &f.root)
	f.leaf = s.createCategory(t, "Leaf", &f.child)

	w := s.do(http.MethodPost, "/api/v1/categories/attributes/"+f.root.ID.String(), map[string]string{"value": "Color"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	envelope(t, w, &f.color)

	for _, v := range []struct {
		value string
		dest  *models.Attribute
	}{{"Red", &f.red}, {"Blue", &f.blue}} {
		w = s.do(http.MethodPost, "/api/v1/attributes/"+f.color.ID.String()+"/children", map[string]string{"value": v.value})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		envelope(t, w, v.dest)
	}

	w = s.do(http.MethodPost, "/api/v1/products", map[string]interface{}{
		"name":        "Shirt",
		"description": "Cotton shirt",
		"categories": []map[string]string{
			{"categoryId": f.root.ID.String()},
			{"categoryId": f.child.ID.String()},
			{"categoryId": f.leaf.ID.String()},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	envelope(t, w, &f.product)
	return f
}

func (s *testServer) createVariant(t *testing.T, f catalogFixture, child models.Attribute, sellPrice string, images ...string) models.ProductVariant {
	t.Helper()
	parts := []formPart{
		field("attributes", f.color.ID.String()),
		field("attributes", child.ID.String()),
		field("sellPrice", sellPrice),
	}
	for _, img := range images {
		parts = append(parts, file("images", img))
	}
	w := s.doRaw(multipartRequest(t, http.MethodPost, "/api/v1/products/"+f.product.ID.String()+"/variants", parts...))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var variant models.ProductVariant
	envelope(t, w, &variant)
	return variant
}
