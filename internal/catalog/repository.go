package catalog

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/orangeboy/storefront/internal/domain"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ImageUploader puts image bytes in object storage and returns the public URL.
type ImageUploader interface {
	Upload(ctx context.Context, up *domain.Upload) (string, error)
}

// GormRepository is the relational Backend. Images are kept in their own
// table and joined onto products at read time.
type GormRepository struct {
	db       *gorm.DB
	uploader ImageUploader
}

// NewGormRepository creates a repository. Without an uploader, images are
// stored inline as data URLs in the images table.
func NewGormRepository(db *gorm.DB, uploader ImageUploader) *GormRepository {
	return &GormRepository{db: db, uploader: uploader}
}

func (r *GormRepository) Name() string {
	return "database"
}

func (r *GormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *GormRepository) ListProducts(ctx context.Context, category string) ([]domain.Product, error) {
	var rows []domain.Product
	query := r.db.WithContext(ctx).Model(&domain.Product{})
	if category = domain.NormalizeCategory(category); category != "" {
		query = query.Where("LOWER(category) = ?", category)
	}
	if err := query.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "query products")
	}
	if err := r.attachImages(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *GormRepository) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := r.find(ctx, r.db.WithContext(ctx), id)
	if err != nil {
		return domain.Product{}, err
	}
	rows := []domain.Product{p}
	if err := r.attachImages(ctx, rows); err != nil {
		return domain.Product{}, err
	}
	return rows[0], nil
}

func (r *GormRepository) CreateProduct(ctx context.Context, payload *domain.ProductPayload) (domain.Product, error) {
	now := time.Now()
	p := domain.Product{CreatedAt: now}
	applyPayload(&p, payload, now)
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return domain.Product{}, errors.Wrap(err, "create product")
	}
	return r.GetProduct(ctx, strconv.FormatInt(p.ID, 10))
}

func (r *GormRepository) UpdateProduct(ctx context.Context, id string, payload *domain.ProductPayload) (domain.Product, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := r.find(ctx, tx, id)
		if err != nil {
			return err
		}
		applyPayload(&p, payload, time.Now())
		return tx.Save(&p).Error
	})
	if err != nil {
		return domain.Product{}, wrapUnlessTerminal(err, "update product")
	}
	return r.GetProduct(ctx, id)
}

func (r *GormRepository) DeleteProduct(ctx context.Context, id string) error {
	n, err := ParseID(id)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Delete(&domain.Product{}, n)
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete product")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) UploadImage(ctx context.Context, up *domain.Upload) (domain.Image, error) {
	url := DataURL(up)
	if r.uploader != nil {
		u, err := r.uploader.Upload(ctx, up)
		if err != nil {
			return domain.Image{}, err
		}
		url = u
	}
	img := domain.Image{URL: url, Name: up.Filename, Mime: up.ContentType, CreatedAt: time.Now()}
	if err := r.db.WithContext(ctx).Create(&img).Error; err != nil {
		return domain.Image{}, errors.Wrap(err, "create image")
	}
	return img, nil
}

// CountProducts is used by the demo seeder.
func (r *GormRepository) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Product{}).Count(&n).Error
	return n, err
}

func (r *GormRepository) find(ctx context.Context, db *gorm.DB, id string) (domain.Product, error) {
	n, err := ParseID(id)
	if err != nil {
		return domain.Product{}, err
	}
	var p domain.Product
	if err := db.WithContext(ctx).First(&p, n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Product{}, ErrNotFound
		}
		return domain.Product{}, errors.Wrap(err, "find product")
	}
	return p, nil
}

// attachImages resolves image ids in one query; ids with no row read as no image.
func (r *GormRepository) attachImages(ctx context.Context, rows []domain.Product) error {
	var ids []int64
	for _, p := range rows {
		if p.ImageID != nil {
			ids = append(ids, *p.ImageID)
		}
	}
	images := make(map[int64]domain.Image)
	if len(ids) > 0 {
		var found []domain.Image
		if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
			return errors.Wrap(err, "query images")
		}
		for _, img := range found {
			images[img.ID] = img
		}
	}
	for i := range rows {
		rows[i].Image = nil
		switch {
		case rows[i].ImageID != nil:
			if img, ok := images[*rows[i].ImageID]; ok {
				rows[i].Image = &img
			}
		case rows[i].ImageURL != "":
			rows[i].Image = &domain.Image{URL: rows[i].ImageURL}
		}
	}
	return nil
}

func applyPayload(dst *domain.Product, p *domain.ProductPayload, now time.Time) {
	dst.Name = strings.TrimSpace(p.Name)
	dst.Price = p.Price
	dst.Description = p.Description
	dst.Category = p.Category
	dst.OrderFormURL = p.OrderFormURL
	dst.ImageID = nil
	dst.ImageURL = ""
	switch p.Image.Kind {
	case domain.ImageRefID:
		id := p.Image.ID
		dst.ImageID = &id
	case domain.ImageRefURL:
		dst.ImageURL = p.Image.URL
	}
	if p.Locale != "" {
		dst.Locale = p.Locale
	}
	dst.UpdatedAt = now
}

func wrapUnlessTerminal(err error, msg string) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidID) {
		return err
	}
	return errors.Wrap(err, msg)
}
