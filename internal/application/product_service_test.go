package application

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/swapyard/swapyard-api/internal/domain/entity"
	"github.com/swapyard/swapyard-api/internal/domain/repository"
)

// fakeProducts is an in-memory ProductRepository.
type fakeProducts struct {
	seq      int
	products map[string]*entity.Product
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{products: map[string]*entity.Product{}}
}

func copyProduct(p *entity.Product) *entity.Product {
	cp := *p
	cp.Images = append([]entity.Image(nil), p.Images...)
	return &cp
}

func (f *fakeProducts) Create(_ context.Context, p *entity.Product) error {
	f.seq++
	p.ID = "prod-" + strconv.Itoa(f.seq)
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	f.products[p.ID] = copyProduct(p)
	return nil
}

func (f *fakeProducts) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyProduct(p), nil
}

func (f *fakeProducts) Update(_ context.Context, ownerID string, p *entity.Product) error {
	ex, ok := f.products[p.ID]
	if !ok || ex.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	cp := copyProduct(p)
	cp.OwnerID = ex.OwnerID
	f.products[p.ID] = cp
	return nil
}

func (f *fakeProducts) Delete(_ context.Context, ownerID, id string) (*entity.Product, error) {
	p, ok := f.products[id]
	if !ok || p.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	delete(f.products, id)
	return copyProduct(p), nil
}

func (f *fakeProducts) ListByCategory(_ context.Context, category string, _, _ int) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range f.products {
		if p.Category == category {
			out = append(out, copyProduct(p))
		}
	}
	return out, nil
}

func (f *fakeProducts) ListByOwner(_ context.Context, ownerID string, _, _ int) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range f.products {
		if p.OwnerID == ownerID {
			out = append(out, copyProduct(p))
		}
	}
	return out, nil
}

func (f *fakeProducts) ListLatest(_ context.Context, limit int) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range f.products {
		if len(out) == limit {
			break
		}
		out = append(out, copyProduct(p))
	}
	return out, nil
}

var _ repository.ProductRepository = (*fakeProducts)(nil)

func newProductTestService() (*ProductService, *fakeProducts, *fakeUsers) {
	products := newFakeProducts()
	users := newFakeUsers()
	svc := NewProductService(products, users, nil, "", nil, nil, "")
	return svc, products, users
}

func (f *fakeProducts) seed(ownerID string, images []entity.Image) *entity.Product {
	f.seq++
	p := &entity.Product{
		ID:             "prod-" + strconv.Itoa(f.seq),
		OwnerID:        ownerID,
		Name:           "Road bike",
		Description:    "Lightly used",
		Category:       "Sports & Outdoors",
		Price:          220,
		PurchasingDate: time.Now().AddDate(-1, 0, 0),
		Images:         images,
	}
	if len(images) > 0 {
		p.ThumbnailURL = images[0].URL
	}
	f.products[p.ID] = copyProduct(p)
	return p
}

func testImages(n int) []entity.Image {
	out := make([]entity.Image, 0, n)
	for i := 0; i < n; i++ {
		id := "img-" + strconv.Itoa(i)
		out = append(out, entity.Image{URL: "https://img.example/" + id, ObjectID: id})
	}
	return out
}

func TestCreateListing(t *testing.T) {
	svc, products, _ := newProductTestService()
	ctx := context.Background()

	in := NewProductInput{
		Name:           "Road bike",
		Description:    "Lightly used",
		Category:       "Sports & Outdoors",
		Price:          220,
		PurchasingDate: time.Now().AddDate(-1, 0, 0),
	}
	p, err := svc.Create(ctx, "owner-1", in, nil)
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)
	require.Empty(t, p.ThumbnailURL)

	stored, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "owner-1", stored.OwnerID)

	in.Category = "Groceries"
	_, err = svc.Create(ctx, "owner-1", in, nil)
	require.ErrorIs(t, err, ErrInvalidCategory)
}

func TestCreateListing_ImageCap(t *testing.T) {
	svc, _, _ := newProductTestService()

	in := NewProductInput{Name: "Bike", Description: "d", Category: "Sports & Outdoors", Price: 1, PurchasingDate: time.Now()}
	uploads := make([]ImageUpload, 6)
	_, err := svc.Create(context.Background(), "owner-1", in, uploads)
	require.ErrorIs(t, err, ErrTooManyImages)
}

func TestUpdateListing_OwnerScoped(t *testing.T) {
	svc, products, _ := newProductTestService()
	ctx := context.Background()

	p := products.seed("owner-1", nil)
	in := NewProductInput{Name: "Renamed", Description: "d", Category: "Sports & Outdoors", Price: 2, PurchasingDate: time.Now()}

	_, err := svc.Update(ctx, "owner-2", p.ID, in, nil)
	require.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.Update(ctx, "owner-1", "prod-missing", in, nil)
	require.ErrorIs(t, err, ErrProductNotFound)

	got, err := svc.Update(ctx, "owner-1", p.ID, in, nil)
	require.NoError(t, err)
	require.Equal(t, "Renamed", got.Name)
}

func TestUpdateListing_ImageCapCountsExisting(t *testing.T) {
	svc, products, _ := newProductTestService()
	ctx := context.Background()

	p := products.seed("owner-1", testImages(4))
	in := NewProductInput{Name: "Bike", Description: "d", Category: "Sports & Outdoors", Price: 1, PurchasingDate: time.Now()}

	_, err := svc.Update(ctx, "owner-1", p.ID, in, make([]ImageUpload, 2))
	require.ErrorIs(t, err, ErrTooManyImages)
}

func TestDeleteListing_OwnerScoped(t *testing.T) {
	svc, products, _ := newProductTestService()
	ctx := context.Background()

	p := products.seed("owner-1", testImages(2))

	require.ErrorIs(t, svc.Delete(ctx, "owner-2", p.ID), ErrProductNotFound)

	require.NoError(t, svc.Delete(ctx, "owner-1", p.ID))
	_, err := products.GetByID(ctx, p.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRemoveImage_RepointsThumbnail(t *testing.T) {
	svc, repo, _ := newProductTestService()
	ctx := context.Background()

	imgs := testImages(3)
	p := repo.seed("owner-1", imgs)

	got, err := svc.RemoveImage(ctx, "owner-1", p.ID, imgs[0].ObjectID)
	require.NoError(t, err)
	require.Equal(t, imgs[1].URL, got.ThumbnailURL)
	require.Equal(t, []entity.Image{imgs[1], imgs[2]}, got.Images)

	stored, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, imgs[1].URL, stored.ThumbnailURL)
}

func TestRemoveImage_MiddleImageKeepsThumbnail(t *testing.T) {
	svc, repo, _ := newProductTestService()
	ctx := context.Background()

	imgs := testImages(3)
	p := repo.seed("owner-1", imgs)

	got, err := svc.RemoveImage(ctx, "owner-1", p.ID, imgs[1].ObjectID)
	require.NoError(t, err)
	require.Equal(t, imgs[0].URL, got.ThumbnailURL)
	require.Equal(t, []entity.Image{imgs[0], imgs[2]}, got.Images)
}

func TestRemoveImage_LastImageClearsThumbnail(t *testing.T) {
	svc, repo, _ := newProductTestService()
	ctx := context.Background()

	imgs := testImages(1)
	p := repo.seed("owner-1", imgs)

	got, err := svc.RemoveImage(ctx, "owner-1", p.ID, imgs[0].ObjectID)
	require.NoError(t, err)
	require.Empty(t, got.ThumbnailURL)
	require.Empty(t, got.Images)
}

func TestRemoveImage_Errors(t *testing.T) {
	svc, repo, _ := newProductTestService()
	ctx := context.Background()

	imgs := testImages(2)
	p := repo.seed("owner-1", imgs)

	_, err := svc.RemoveImage(ctx, "owner-1", p.ID, "img-missing")
	require.ErrorIs(t, err, ErrImageNotFound)

	_, err = svc.RemoveImage(ctx, "owner-2", p.ID, imgs[0].ObjectID)
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestGetByID_WithSeller(t *testing.T) {
	svc, repo, users := newProductTestService()
	ctx := context.Background()

	seller := &entity.User{Name: "Alice", Email: "alice@example.com"}
	require.NoError(t, users.Create(ctx, seller))
	p := repo.seed(seller.ID, nil)

	got, gotSeller, err := svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)
	require.Equal(t, seller.ID, gotSeller.ID)

	_, _, err = svc.GetByID(ctx, "prod-missing")
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestListByCategory_InvalidCategory(t *testing.T) {
	svc, _, _ := newProductTestService()

	_, err := svc.ListByCategory(context.Background(), "Groceries", 1, 10)
	require.ErrorIs(t, err, ErrInvalidCategory)
}
