package catalog

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kedai-dimesem/storefront/internal/platform/httpx"
	"github.com/kedai-dimesem/storefront/internal/shared"
)

// Handler exposes the catalog over HTTP.
type Handler struct {
	logger        *slog.Logger
	service       *Service
	imageBaseURL  string
	maxUploadSize int64
}

// NewHandler builds a Handler. imageBaseURL is the public prefix under which
// stored images are served, e.g. http://localhost:3000/uploads.
func NewHandler(logger *slog.Logger, service *Service, imageBaseURL string, maxUploadSize int64) *Handler {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxImageBytes
	}
	return &Handler{
		logger:        logger,
		service:       service,
		imageBaseURL:  strings.TrimRight(imageBaseURL, "/"),
		maxUploadSize: maxUploadSize,
	}
}

// MountPublic registers the read-only routes.
func (h *Handler) MountPublic(r chi.Router) {
	r.Get("/products", h.list)
	r.Get("/products/{id}", h.get)
	r.Get("/search", h.search)
}

// MountAdmin registers the write routes. The caller applies the admin guard.
func (h *Handler) MountAdmin(r chi.Router) {
	r.Post("/products", h.create)
	r.Put("/products/{id}", h.update)
	r.Delete("/products/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Status:   StatusActive,
	}
	if user, ok := shared.CurrentUser(r.Context()); ok && user.IsAdmin() {
		switch StatusFilter(strings.ToLower(q.Get("status"))) {
		case StatusAll:
			filter.Status = StatusAll
		case StatusInactive:
			filter.Status = StatusInactive
		}
	}
	products, err := h.service.List(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.withImageURLs(products))
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.withImageURLs(products))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "product not found")
			return
		}
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.withImageURL(product))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	defer removeFormFiles(r)
	form, upload, err := h.readProductForm(w, r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	defer closeUpload(upload)
	in := CreateInput{Price: form.Price, Description: form.Description}
	if form.Name != nil {
		in.Name = *form.Name
	}
	if form.Category != nil {
		in.Category = *form.Category
	}
	actor, _ := shared.CurrentUser(r.Context())
	product, err := h.service.Create(r.Context(), actor.UserID, in, upload)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"success":   true,
		"message":   "product created",
		"productId": product.ID,
		"product":   h.withImageURL(product),
	})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	defer removeFormFiles(r)
	patch, upload, err := h.readProductForm(w, r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	defer closeUpload(upload)
	actor, _ := shared.CurrentUser(r.Context())
	product, err := h.service.Update(r.Context(), actor.UserID, id, patch, upload)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "product not found")
			return
		}
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "product updated",
		"product": h.withImageURL(product),
	})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	actor, _ := shared.CurrentUser(r.Context())
	res, err := h.service.Delete(r.Context(), actor.UserID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "product not found")
			return
		}
		httpx.RespondError(w, h.logger, err)
		return
	}
	message := "product deleted"
	if res.Mode == DeleteSoft {
		message = "product deactivated (still referenced by transactions)"
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "message": message, "mode": res.Mode})
}

// readProductForm normalizes a multipart form or JSON body into a patch. In
// forms, blank name/price/category/is_active values count as not supplied.
func (h *Handler) readProductForm(w http.ResponseWriter, r *http.Request) (ProductPatch, *ImageUpload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" && mediaType != "application/x-www-form-urlencoded" {
		var patch ProductPatch
		if err := httpx.DecodeJSON(r, &patch); err != nil {
			return ProductPatch{}, nil, shared.NewValidationError("invalid request body")
		}
		return patch, nil, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+(1<<20))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return ProductPatch{}, nil, shared.NewValidationError("image exceeds the %d MB limit", h.maxUploadSize>>20)
			}
			return ProductPatch{}, nil, shared.NewValidationError("invalid multipart form")
		}
	} else if err := r.ParseForm(); err != nil {
		return ProductPatch{}, nil, shared.NewValidationError("invalid form")
	}

	var patch ProductPatch
	patch.Name = nonBlank(r.PostForm, "name")
	patch.Category = nonBlank(r.PostForm, "category")
	if values, ok := r.PostForm["description"]; ok && len(values) > 0 {
		desc := values[0]
		patch.Description = &desc
	}
	if raw := nonBlank(r.PostForm, "price"); raw != nil {
		price, err := ParsePrice(*raw)
		if err != nil {
			return ProductPatch{}, nil, err
		}
		patch.Price = &price
	}
	if raw := nonBlank(r.PostForm, "is_active"); raw != nil {
		active, err := ParseActive(*raw)
		if err != nil {
			return ProductPatch{}, nil, err
		}
		patch.IsActive = &active
	}

	var upload *ImageUpload
	if r.MultipartForm != nil {
		if files := r.MultipartForm.File["image"]; len(files) > 0 {
			fh := files[0]
			file, err := fh.Open()
			if err != nil {
				return ProductPatch{}, nil, shared.NewValidationError("unreadable image upload")
			}
			upload = &ImageUpload{Filename: fh.Filename, Content: file}
		}
	}
	return patch, upload, nil
}

func closeUpload(upload *ImageUpload) {
	if upload == nil {
		return
	}
	if c, ok := upload.Content.(io.Closer); ok {
		_ = c.Close()
	}
}

// removeFormFiles drops multipart temp files. r is the middleware's request
// copy, so the server's own cleanup never sees its form.
func removeFormFiles(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

func nonBlank(values map[string][]string, key string) *string {
	v, ok := values[key]
	if !ok || len(v) == 0 || strings.TrimSpace(v[0]) == "" {
		return nil
	}
	s := v[0]
	return &s
}

func (h *Handler) withImageURL(p Product) Product {
	if p.Image != nil && *p.Image != "" {
		url := h.imageBaseURL + "/" + *p.Image
		p.ImageURL = &url
	}
	return p
}

func (h *Handler) withImageURLs(products []Product) []Product {
	out := make([]Product, len(products))
	for i, p := range products {
		out[i] = h.withImageURL(p)
	}
	return out
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Error(w, http.StatusBadRequest, "invalid product id")
		return 0, false
	}
	return id, true
}
