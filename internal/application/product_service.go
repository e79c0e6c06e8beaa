package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/swapyard/swapyard-api/internal/domain/entity"
	"github.com/swapyard/swapyard-api/internal/domain/repository"
	"github.com/swapyard/swapyard-api/pkg/helpers"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidCategory = errors.New("invalid category")
	ErrTooManyImages   = errors.New("a listing can hold at most 5 images")
	ErrImageNotFound   = errors.New("image not found")
)

const maxProductImages = 5

// ProductService manages marketplace listings: CRUD with owner scoping,
// image storage and the search index.
type ProductService struct {
	Products  repository.ProductRepository
	Users     repository.UserRepository
	GCS       *storage.Client
	GCSBucket string
	Logger    *logrus.Logger
	ES        *elasticsearch.Client
	ESIndex   string
}

func NewProductService(products repository.ProductRepository, users repository.UserRepository,
	gcs *storage.Client, gcsBucket string, logger *logrus.Logger, es *elasticsearch.Client, esIndex string) *ProductService {
	return &ProductService{
		Products:  products,
		Users:     users,
		GCS:       gcs,
		GCSBucket: gcsBucket,
		Logger:    logger,
		ES:        es,
		ESIndex:   esIndex,
	}
}

// ImageUpload is one incoming listing image.
type ImageUpload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
}

// NewProductInput carries the fields for creating or updating a listing.
type NewProductInput struct {
	Name           string
	Description    string
	Category       string
	Price          float64
	PurchasingDate time.Time
}

// Create uploads the images, stores the listing with the first image as
// thumbnail and indexes it for search.
func (s *ProductService) Create(ctx context.Context, ownerID string, in NewProductInput, uploads []ImageUpload) (*entity.Product, error) {
	if !entity.ValidCategory(in.Category) {
		return nil, ErrInvalidCategory
	}
	if len(uploads) > maxProductImages {
		return nil, ErrTooManyImages
	}
	images, err := s.uploadImages(ctx, ownerID, uploads)
	if err != nil {
		return nil, err
	}
	p := &entity.Product{
		OwnerID:        ownerID,
		Name:           in.Name,
		Description:    in.Description,
		Category:       in.Category,
		Price:          in.Price,
		PurchasingDate: in.PurchasingDate,
		Images:         images,
	}
	if len(images) > 0 {
		p.ThumbnailURL = images[0].URL
	}
	if err := s.Products.Create(ctx, p); err != nil {
		return nil, err
	}
	s.indexProduct(ctx, p)
	return p, nil
}

// Update edits an owner's listing and appends any newly uploaded images,
// still capped at 5 in total.
func (s *ProductService) Update(ctx context.Context, ownerID, productID string, in NewProductInput, uploads []ImageUpload) (*entity.Product, error) {
	if !entity.ValidCategory(in.Category) {
		return nil, ErrInvalidCategory
	}
	p, err := s.Products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if p.OwnerID != ownerID {
		return nil, ErrProductNotFound
	}
	if len(p.Images)+len(uploads) > maxProductImages {
		return nil, ErrTooManyImages
	}
	images, err := s.uploadImages(ctx, ownerID, uploads)
	if err != nil {
		return nil, err
	}
	p.Name = in.Name
	p.Description = in.Description
	p.Category = in.Category
	p.Price = in.Price
	p.PurchasingDate = in.PurchasingDate
	p.Images = append(p.Images, images...)
	if p.ThumbnailURL == "" && len(p.Images) > 0 {
		p.ThumbnailURL = p.Images[0].URL
	}
	if err := s.Products.Update(ctx, ownerID, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	s.indexProduct(ctx, p)
	return p, nil
}

// Delete removes an owner's listing along with its stored images.
func (s *ProductService) Delete(ctx context.Context, ownerID, productID string) error {
	p, err := s.Products.Delete(ctx, ownerID, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	for _, img := range p.Images {
		s.deleteStoredImage(ctx, img.ObjectID)
	}
	s.deleteFromIndex(ctx, productID)
	return nil
}

func (s *ProductService) deleteStoredImage(ctx context.Context, objectID string) {
	if s.GCS == nil || s.GCSBucket == "" {
		return
	}
	if err := helpers.DeleteObject(ctx, s.GCS, s.GCSBucket, objectID); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("object", objectID).Warn("failed to delete product image")
	}
}

// RemoveImage pulls one image out of a listing, re-pointing the thumbnail at
// the first remaining image when the removed one was the thumbnail.
func (s *ProductService) RemoveImage(ctx context.Context, ownerID, productID, imageID string) (*entity.Product, error) {
	p, err := s.Products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if p.OwnerID != ownerID {
		return nil, ErrProductNotFound
	}
	idx := -1
	for i := range p.Images {
		if p.Images[i].ObjectID == imageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrImageNotFound
	}
	removed := p.Images[idx]
	kept := make([]entity.Image, 0, len(p.Images)-1)
	kept = append(kept, p.Images[:idx]...)
	kept = append(kept, p.Images[idx+1:]...)
	p.Images = kept
	if p.ThumbnailURL == removed.URL {
		p.ThumbnailURL = ""
		if len(p.Images) > 0 {
			p.ThumbnailURL = p.Images[0].URL
		}
	}
	if err := s.Products.Update(ctx, ownerID, p); err != nil {
		return nil, err
	}
	s.deleteStoredImage(ctx, removed.ObjectID)
	s.indexProduct(ctx, p)
	return p, nil
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*entity.Product, *entity.User, error) {
	p, err := s.Products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrProductNotFound
		}
		return nil, nil, err
	}
	seller, err := s.Users.GetByID(ctx, p.OwnerID)
	if err != nil {
		return nil, nil, err
	}
	return p, seller, nil
}

func (s *ProductService) ListByCategory(ctx context.Context, category string, page, limit int) ([]*entity.Product, error) {
	if !entity.ValidCategory(category) {
		return nil, ErrInvalidCategory
	}
	return s.Products.ListByCategory(ctx, category, page, clampLimit(limit))
}

func (s *ProductService) ListByOwner(ctx context.Context, ownerID string, page, limit int) ([]*entity.Product, error) {
	return s.Products.ListByOwner(ctx, ownerID, page, clampLimit(limit))
}

func (s *ProductService) ListLatest(ctx context.Context) ([]*entity.Product, error) {
	return s.Products.ListLatest(ctx, 10)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 50 {
		return 10
	}
	return limit
}

func (s *ProductService) uploadImages(ctx context.Context, ownerID string, uploads []ImageUpload) ([]entity.Image, error) {
	if len(uploads) == 0 {
		return nil, nil
	}
	if s.GCS == nil || s.GCSBucket == "" {
		return nil, errors.New("storage not configured")
	}
	images := make([]entity.Image, 0, len(uploads))
	for _, up := range uploads {
		ext := strings.ToLower(filepath.Ext(up.Filename))
		objectPath := filepath.ToSlash(filepath.Join("products", ownerID, uuid.NewString()+ext))
		url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, up.ContentType, up.Reader)
		if err != nil {
			return nil, err
		}
		images = append(images, entity.Image{URL: url, ObjectID: objectPath})
	}
	return images, nil
}

func (s *ProductService) indexProduct(ctx context.Context, p *entity.Product) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	doc := map[string]any{
		"id":         p.ID,
		"owner_id":   p.OwnerID,
		"name":       p.Name,
		"category":   p.Category,
		"price":      p.Price,
		"thumbnail":  p.ThumbnailURL,
		"created_at": p.CreatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: p.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("product_id", p.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("product_id", p.ID).Warn("es index response error")
	}
}

func (s *ProductService) deleteFromIndex(ctx context.Context, id string) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESIndex, DocumentID: id}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("product_id", id).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}

// Search performs a multi_match query over name and category.
func (s *ProductService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"name^2", "category"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
