package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/eadens/cakeworld/app/models"
	"github.com/eadens/cakeworld/app/repositories"
	"github.com/eadens/cakeworld/pkg/apperr"
	"github.com/eadens/cakeworld/pkg/auth"
	"github.com/eadens/cakeworld/pkg/logger"
	"github.com/eadens/cakeworld/pkg/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductInput creates or patches a product. Nil fields are left unchanged
// on update.
type ProductInput struct {
	Name            *string          `json:"name,omitempty"`
	Description     *string          `json:"description,omitempty"`
	LongDescription *string          `json:"longDescription,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	Category        *string          `json:"category,omitempty"`
	Image           *string          `json:"image,omitempty"`
	Sizes           []string         `json:"sizes,omitempty"`
	Ingredients     []string         `json:"ingredients,omitempty"`
	Allergens       []string         `json:"allergens,omitempty"`
}

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type ProductService struct {
	products *repositories.ProductRepository
	disk     func() storage.Disk
}

// NewProductService stores images on disk, or on the default disk when nil.
func NewProductService(products *repositories.ProductRepository, disk storage.Disk) *ProductService {
	s := &ProductService{products: products, disk: storage.Default}
	if disk != nil {
		s.disk = func() storage.Disk { return disk }
	}
	return s
}

func (s *ProductService) List(ctx context.Context, category string) ([]models.Product, error) {
	products, err := s.products.All(ctx, category)
	return products, dbErr(ctx, "products.List", err, "")
}

func (s *ProductService) Get(ctx context.Context, id uint) (models.Product, error) {
	p, err := s.products.Find(ctx, id)
	return p, dbErr(ctx, "products.Get", err, "product not found")
}

func (s *ProductService) Create(ctx context.Context, p auth.Principal, in ProductInput) (models.Product, error) {
	const op = "products.Create"
	if err := requireAdmin(op, p); err != nil {
		return models.Product{}, err
	}

	fields := map[string]string{}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		fields["name"] = "The name field is required."
	}
	if in.Price == nil {
		fields["price"] = "The price field is required."
	}
	checkPrice(in.Price, fields)
	if len(fields) > 0 {
		return models.Product{}, apperr.Validation(op, "invalid product", fields)
	}

	var product models.Product
	in.apply(&product)
	if err := s.products.Create(ctx, &product); err != nil {
		return models.Product{}, dbErr(ctx, op, err, "")
	}
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, p auth.Principal, id uint, in ProductInput) (models.Product, error) {
	const op = "products.Update"
	if err := requireAdmin(op, p); err != nil {
		return models.Product{}, err
	}
	fields := map[string]string{}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		fields["name"] = "The name field must not be empty."
	}
	checkPrice(in.Price, fields)
	if len(fields) > 0 {
		return models.Product{}, apperr.Validation(op, "invalid product", fields)
	}

	product, err := s.products.Find(ctx, id)
	if err != nil {
		return models.Product{}, dbErr(ctx, op, err, "product not found")
	}
	in.apply(&product)
	if err := s.products.Update(ctx, &product); err != nil {
		return models.Product{}, dbErr(ctx, op, err, "")
	}
	return product, nil
}

// Delete removes the product and, best effort, its stored image.
func (s *ProductService) Delete(ctx context.Context, p auth.Principal, id uint) error {
	const op = "products.Delete"
	if err := requireAdmin(op, p); err != nil {
		return err
	}
	product, err := s.products.Find(ctx, id)
	if err != nil {
		return dbErr(ctx, op, err, "product not found")
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return dbErr(ctx, op, err, "")
	}
	if key := s.imageKey(product.Image); key != "" {
		if err := s.disk().Delete(ctx, key); err != nil {
			logger.WithCtx(ctx).Warn("products: image delete failed", "product_id", id, "key", key, "error", err)
		}
	}
	return nil
}

// UploadImage stores r on the blob store under products/{id}/ and points
// the product at its public URL.
func (s *ProductService) UploadImage(ctx context.Context, p auth.Principal, id uint, filename, contentType string, r io.Reader) (models.Product, error) {
	const op = "products.UploadImage"
	if err := requireAdmin(op, p); err != nil {
		return models.Product{}, err
	}
	ext, ok := imageTypes[contentType]
	if !ok {
		ext = strings.ToLower(path.Ext(filename))
		if !isImageExt(ext) {
			return models.Product{}, apperr.Validation(op, "unsupported image type", map[string]string{"image": "The image must be a jpeg, png, webp or gif file."})
		}
		contentType = mime.TypeByExtension(ext)
	}

	product, err := s.products.Find(ctx, id)
	if err != nil {
		return models.Product{}, dbErr(ctx, op, err, "product not found")
	}

	disk := s.disk()
	key := fmt.Sprintf("products/%d/%s%s", id, uuid.NewString(), ext)
	if err := disk.Put(ctx, key, r, contentType); err != nil {
		logger.WithCtx(ctx).Error("products: image upload failed", "product_id", id, "error", err)
		return models.Product{}, apperr.Wrap(op, apperr.UpstreamFailure, err, "could not store image")
	}

	old := s.imageKey(product.Image)
	product.Image = disk.URL(key)
	if err := s.products.Update(ctx, &product); err != nil {
		_ = disk.Delete(ctx, key)
		return models.Product{}, dbErr(ctx, op, err, "")
	}
	if old != "" {
		_ = disk.Delete(ctx, old)
	}
	return product, nil
}

// imageKey recovers the storage key from an image URL we issued.
func (s *ProductService) imageKey(url string) string {
	i := strings.Index(url, "products/")
	if i < 0 {
		return ""
	}
	return url[i:]
}

func (in ProductInput) apply(p *models.Product) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.LongDescription != nil {
		p.LongDescription = *in.LongDescription
	}
	if in.Price != nil {
		p.Price = in.Price.Round(2)
	}
	if in.Category != nil {
		p.Category = strings.ToLower(strings.TrimSpace(*in.Category))
	}
	if in.Image != nil {
		p.Image = *in.Image
	}
	if in.Sizes != nil {
		p.Sizes = in.Sizes
	}
	if in.Ingredients != nil {
		p.Ingredients = in.Ingredients
	}
	if in.Allergens != nil {
		p.Allergens = in.Allergens
	}
}

func checkPrice(price *decimal.Decimal, fields map[string]string) {
	if price != nil && price.IsNegative() {
		fields["price"] = "The price must not be negative."
	}
}

func isImageExt(ext string) bool {
	for _, e := range imageTypes {
		if e == ext {
			return true
		}
	}
	return ext == ".jpeg"
}
