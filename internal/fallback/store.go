package fallback

import (
	"strings"
	"sync"
	"time"

	"github.com/orangeboy/storefront/internal/domain"
)

const (
	ProductIDSeed int64 = 1
	// image ids live in a disjoint range so they never collide with product ids
	ImageIDSeed int64 = 1001

	SourceName = "fallback"
)

// Store keeps products and images in process memory for as long as no durable
// backend can serve them. Every method takes the store mutex, so concurrent
// requests observe whole operations, never a half-applied mutation.
type Store struct {
	mu            sync.Mutex
	products      []domain.Product
	images        map[int64]domain.Image
	nextProductID int64
	nextImageID   int64
}

func New() *Store {
	s := &Store{}
	s.reset()
	return s
}

// Reset drops all content and rewinds the id counters.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Store) reset() {
	s.products = nil
	s.images = make(map[int64]domain.Image)
	s.nextProductID = ProductIDSeed
	s.nextImageID = ImageIDSeed
}

// AppendProduct stores a new product under the next sequential id.
func (s *Store) AppendProduct(p *domain.ProductPayload) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	product := domain.Product{
		ID:        s.nextProductID,
		CreatedAt: now,
	}
	s.nextProductID++
	s.apply(&product, p, now)
	s.products = append(s.products, product)
	return s.resolve(product)
}

func (s *Store) FindProduct(id int64) (domain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Product{}, false
	}
	return s.resolve(s.products[idx]), true
}

// ReplaceProduct overwrites every field except the id.
func (s *Store) ReplaceProduct(id int64, p *domain.ProductPayload) (domain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Product{}, false
	}
	s.apply(&s.products[idx], p, time.Now())
	return s.resolve(s.products[idx]), true
}

func (s *Store) RemoveProduct(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	s.products = append(s.products[:idx], s.products[idx+1:]...)
	return true
}

// AppendImage records an uploaded image under the next image id.
func (s *Store) AppendImage(url, name, mime string) domain.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	img := domain.Image{
		ID:        s.nextImageID,
		URL:       url,
		Name:      name,
		Mime:      mime,
		CreatedAt: time.Now(),
	}
	s.nextImageID++
	s.images[img.ID] = img
	return img
}

func (s *Store) FindImage(id int64) (domain.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[id]
	return img, ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.products)
}

// Collection serializes the store in insertion order using the same envelope
// the durable backends produce. An empty category returns everything.
func (s *Store) Collection(category string) domain.ProductCollection {
	s.mu.Lock()
	defer s.mu.Unlock()

	category = domain.NormalizeCategory(category)
	data := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if category != "" && (p.Category == nil || !strings.EqualFold(*p.Category, category)) {
			continue
		}
		data = append(data, s.resolve(p))
	}
	return domain.ProductCollection{
		Data: data,
		Meta: domain.ProductCollectionMeta{Source: SourceName, Count: len(data)},
	}
}

func (s *Store) indexOf(id int64) int {
	for i := range s.products {
		if s.products[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) apply(dst *domain.Product, p *domain.ProductPayload, now time.Time) {
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

// resolve returns a copy with the image reference looked up; a dangling id
// reads as no image.
func (s *Store) resolve(p domain.Product) domain.Product {
	p.Image = nil
	switch {
	case p.ImageID != nil:
		if img, ok := s.images[*p.ImageID]; ok {
			p.Image = &img
		}
	case p.ImageURL != "":
		p.Image = &domain.Image{URL: p.ImageURL}
	}
	return p
}
