package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/swapyard/swapyard-api/internal/application"
	"github.com/swapyard/swapyard-api/internal/domain/entity"
	"github.com/swapyard/swapyard-api/internal/interface/middleware"
	"github.com/swapyard/swapyard-api/pkg/response"
	"github.com/swapyard/swapyard-api/pkg/validation"
)

type ProductHandler struct {
	Svc    *application.ProductService
	Logger *logrus.Logger
}

func NewProductHandler(svc *application.ProductService, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{Svc: svc, Logger: logger}
}

type productForm struct {
	Name           string  `form:"name" binding:"required"`
	Description    string  `form:"description" binding:"required"`
	Category       string  `form:"category" binding:"required"`
	Price          float64 `form:"price" binding:"required,gt=0"`
	PurchasingDate string  `form:"purchasingDate" binding:"required"`
}

func (f productForm) toInput() (application.NewProductInput, error) {
	purchased, err := time.Parse(time.RFC3339, f.PurchasingDate)
	if err != nil {
		return application.NewProductInput{}, err
	}
	return application.NewProductInput{
		Name:           f.Name,
		Description:    f.Description,
		Category:       f.Category,
		Price:          f.Price,
		PurchasingDate: purchased,
	}, nil
}

func productJSON(p *entity.Product) gin.H {
	return gin.H{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"category":    p.Category,
		"price":       p.Price,
		"date":        p.PurchasingDate,
		"thumbnail":   p.ThumbnailURL,
		"images":      p.Images,
	}
}

func collectUploads(c *gin.Context) ([]application.ImageUpload, []multipart.File, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, nil
	}
	files := form.File["images"]
	uploads := make([]application.ImageUpload, 0, len(files))
	open := make([]multipart.File, 0, len(files))
	for _, fh := range files {
		contentType := fh.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			closeUploads(open)
			return nil, nil, errors.New("only image files are allowed")
		}
		f, err := fh.Open()
		if err != nil {
			closeUploads(open)
			return nil, nil, err
		}
		open = append(open, f)
		uploads = append(uploads, application.ImageUpload{
			Reader:      f,
			Filename:    fh.Filename,
			ContentType: contentType,
		})
	}
	return uploads, open, nil
}

func closeUploads(open []multipart.File) {
	for _, f := range open {
		_ = f.Close()
	}
}

// Create POST /product/list (auth required, multipart)
func (h *ProductHandler) Create(c *gin.Context) {
	p, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusForbidden, "unauthorized request", nil)
		return
	}
	var form productForm
	if err := c.ShouldBind(&form); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "invalid payload", validation.ToDetails(err))
		return
	}
	in, err := form.toInput()
	if err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "invalid purchase date", nil)
		return
	}
	uploads, open, err := collectUploads(c)
	if err != nil {
		response.Error(c, http.StatusUnprocessableEntity, err.Error(), nil)
		return
	}
	defer closeUploads(open)

	product, err := h.Svc.Create(c.Request.Context(), p.ID, in, uploads)
	if err != nil {
		h.mapError(c, err, "listing creation failed")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"product": productJSON(product)}, "listing created", nil)
}

// Update PATCH /product/:id (auth required, multipart)
func (h *ProductHandler) Update(c *gin.Context) {
	p, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusForbidden, "unauthorized request", nil)
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "invalid product id", nil)
		return
	}
	var form productForm
	if err := c.ShouldBind(&form); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "invalid payload", validation.ToDetails(err))
		return
	}
	in, err := form.toInput()
	if err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "invalid purchase date", nil)
		return
	}
	uploads, open, err := collectUploads(c)
	if err != nil {
		response.Error(c, http.StatusUnprocessableEntity, err.Error(), nil)
		return
	}
	defer closeUploads(open)

	product, err := h.Svc.Update(c.Request.Context(), p.ID, id, in, uploads)
	if err != nil {
		h.mapError(c, err, "listing update failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"product": productJSON(product)}, "listing updated", nil)
}

// Delete DELETE /product/:id (auth required)
func (h *ProductHandler) Delete(c *gin.Context) {
	p, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusForbidden, "unauthorized request", nil)
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "invalid product id", nil)
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), p.ID, id); err != nil {
		h.mapError(c, err, "listing deletion failed")
		return
	}
	response.Success[any](c, http.StatusOK, nil, "listing deleted", nil)
}

// RemoveImage DELETE /product/:id/image/*imageID (auth required)
func (h *ProductHandler) RemoveImage(c *gin.Context) {
	p, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusForbidden, "unauthorized request", nil)
		return
	}
	productID := c.Param("id")
	imageID := strings.TrimPrefix(c.Param("imageID"), "/")
	if _, err := uuid.Parse(productID); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "invalid product id", nil)
		return
	}
	if imageID == "" {
		response.Error(c, http.StatusUnprocessableEntity, "invalid image id", nil)
		return
	}
	product, err := h.Svc.RemoveImage(c.Request.Context(), p.ID, productID, imageID)
	if err != nil {
		h.mapError(c, err, "image removal failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"product": productJSON(product)}, "image removed", nil)
}

// Detail GET /product/detail/:id (public)
func (h *ProductHandler) Detail(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "invalid product id", nil)
		return
	}
	product, seller, err := h.Svc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.mapError(c, err, "listing lookup failed")
		return
	}
	data := productJSON(product)
	data["seller"] = gin.H{
		"id":     seller.ID,
		"name":   seller.Name,
		"avatar": seller.AvatarURL,
	}
	response.Success(c, http.StatusOK, gin.H{"product": data}, "listing", nil)
}

// ByCategory GET /product/by-category/:category (public, paged)
func (h *ProductHandler) ByCategory(c *gin.Context) {
	category := c.Param("category")
	page, limit := pageParams(c)
	products, err := h.Svc.ListByCategory(c.Request.Context(), category, page, limit)
	if err != nil {
		h.mapError(c, err, "category listing failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"products": summaries(products)}, "listings", gin.H{"page": page, "limit": limit})
}

// Latest GET /product/latest (public)
func (h *ProductHandler) Latest(c *gin.Context) {
	products, err := h.Svc.ListLatest(c.Request.Context())
	if err != nil {
		h.mapError(c, err, "latest listings failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"products": summaries(products)}, "listings", nil)
}

// Listings GET /product/listings (auth required, own listings)
func (h *ProductHandler) Listings(c *gin.Context) {
	p, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusForbidden, "unauthorized request", nil)
		return
	}
	page, limit := pageParams(c)
	products, err := h.Svc.ListByOwner(c.Request.Context(), p.ID, page, limit)
	if err != nil {
		h.mapError(c, err, "listings lookup failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"products": summaries(products)}, "listings", gin.H{"page": page, "limit": limit})
}

// Search GET /product/search?q= (public, ES-backed)
func (h *ProductHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		response.Error(c, http.StatusUnprocessableEntity, "query is required", nil)
		return
	}
	size, _ := strconv.Atoi(c.Query("limit"))
	results, err := h.Svc.Search(c.Request.Context(), q, size)
	if err != nil {
		h.fail(c, err, "search failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"results": results}, "search results", nil)
}

func summaries(products []*entity.Product) []gin.H {
	out := make([]gin.H, 0, len(products))
	for _, p := range products {
		out = append(out, gin.H{
			"id":        p.ID,
			"name":      p.Name,
			"category":  p.Category,
			"price":     p.Price,
			"thumbnail": p.ThumbnailURL,
		})
	}
	return out
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	return page, limit
}

func (h *ProductHandler) mapError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, application.ErrProductNotFound):
		response.Error(c, http.StatusNotFound, "listing not found", nil)
	case errors.Is(err, application.ErrInvalidCategory):
		response.Error(c, http.StatusUnprocessableEntity, "invalid category", nil)
	case errors.Is(err, application.ErrTooManyImages):
		response.Error(c, http.StatusUnprocessableEntity, "a listing can hold at most 5 images", nil)
	case errors.Is(err, application.ErrImageNotFound):
		response.Error(c, http.StatusNotFound, "image not found", nil)
	default:
		h.fail(c, err, logMsg)
	}
}

func (h *ProductHandler) fail(c *gin.Context, err error, msg string) {
	if h.Logger != nil {
		h.Logger.WithError(err).Error(msg)
	}
	response.Error(c, http.StatusInternalServerError, "something went wrong", nil)
}
