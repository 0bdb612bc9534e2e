package catalog

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/orangeboy/storefront/internal/domain"
	"github.com/orangeboy/storefront/internal/fallback"
	"github.com/orangeboy/storefront/internal/translate"
	"golang.org/x/sync/errgroup"
)

// Product change topics published on the event bus.
const (
	TopicProductCreated = "product:created"
	TopicProductUpdated = "product:updated"
	TopicProductDeleted = "product:deleted"
	TopicImageUploaded  = "image:uploaded"
)

const DefaultTimeout = 10 * time.Second

// Service is the product access layer. It routes every operation to the
// durable backend when one is configured and healthy, and to the in-memory
// fallback store otherwise.
type Service struct {
	durable Backend
	store   *fallback.Store
	gateway *translate.Gateway
	timeout time.Duration
	events  EventBus.BusPublisher
}

// NewService wires the tiers. durable may be nil, in which case every call is
// served from the fallback store.
func NewService(durable Backend, store *fallback.Store, gateway *translate.Gateway, timeout time.Duration) *Service {
	if store == nil {
		store = fallback.New()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{durable: durable, store: store, gateway: gateway, timeout: timeout}
}

// SetEvents attaches a publisher for product change notifications.
func (s *Service) SetEvents(bus EventBus.BusPublisher) {
	s.events = bus
}

func (s *Service) Store() *fallback.Store {
	return s.store
}

func (s *Service) Gateway() *translate.Gateway {
	return s.gateway
}

// BackendName returns the durable backend name, or "" when none is configured.
func (s *Service) BackendName() string {
	if s.durable == nil {
		return ""
	}
	return s.durable.Name()
}

// Ping probes the durable backend.
func (s *Service) Ping(ctx context.Context) error {
	if s.durable == nil {
		return ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.durable.Ping(ctx)
}

func (s *Service) defaultLocale() string {
	if s.gateway == nil {
		return ""
	}
	return s.gateway.Registry().Default()
}

// durableTier wraps a durable backend call with the per-call timeout.
func durableTier[T any](s *Service, call func(ctx context.Context, b Backend) (T, error)) tier[T] {
	t := tier[T]{source: SourceDurable, backend: s.BackendName()}
	t.run = func(ctx context.Context) Attempt[T] {
		if s.durable == nil {
			return unavailable[T]()
		}
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		v, err := call(cctx, s.durable)
		return classify(v, err)
	}
	return t
}

func fallbackTier[T any](run func() Attempt[T]) tier[T] {
	return tier[T]{
		source:  SourceFallback,
		backend: fallback.SourceName,
		run:     func(context.Context) Attempt[T] { return run() },
	}
}

// List returns the catalog, translated into locale when it is not the
// default one. Durable and fallback results are never merged.
func (s *Service) List(ctx context.Context, locale, category string) (domain.ProductCollection, error) {
	category = domain.NormalizeCategory(category)
	res, err := resolve(ctx, "list",
		durableTier(s, func(ctx context.Context, b Backend) ([]domain.Product, error) {
			return b.ListProducts(ctx, category)
		}),
		fallbackTier(func() Attempt[[]domain.Product] {
			return success(s.store.Collection(category).Data)
		}),
	)
	if err != nil {
		return domain.ProductCollection{}, err
	}

	data := res.value
	if data == nil {
		data = []domain.Product{}
	}
	s.localize(ctx, data, locale)

	meta := domain.ProductCollectionMeta{Source: res.source, Count: len(data)}
	if res.source == SourceDurable {
		meta.Backend = res.backend
	}
	return domain.ProductCollection{Data: data, Meta: meta}, nil
}

// Get returns one product.
func (s *Service) Get(ctx context.Context, id, locale string) (domain.ProductEntry, error) {
	res, err := resolve(ctx, "get",
		durableTier(s, func(ctx context.Context, b Backend) (domain.Product, error) {
			return b.GetProduct(ctx, id)
		}),
		fallbackTier(func() Attempt[domain.Product] {
			n, err := ParseID(id)
			if err != nil {
				return rejected[domain.Product](err)
			}
			p, ok := s.store.FindProduct(n)
			if !ok {
				return rejected[domain.Product](ErrNotFound)
			}
			return success(p)
		}),
	)
	if err != nil {
		return domain.ProductEntry{}, err
	}
	one := []domain.Product{res.value}
	s.localize(ctx, one, locale)
	return domain.ProductEntry{Data: one[0], Meta: res.meta()}, nil
}

// Create validates the payload and stores it in the first tier that accepts it.
func (s *Service) Create(ctx context.Context, p *domain.ProductPayload) (domain.ProductEntry, error) {
	if err := Validate(p); err != nil {
		return domain.ProductEntry{}, err
	}
	s.defaultPayloadLocale(p)
	res, err := resolve(ctx, "create",
		durableTier(s, func(ctx context.Context, b Backend) (domain.Product, error) {
			return b.CreateProduct(ctx, p)
		}),
		fallbackTier(func() Attempt[domain.Product] {
			return success(s.store.AppendProduct(p))
		}),
	)
	if err != nil {
		return domain.ProductEntry{}, err
	}
	s.publish(TopicProductCreated, res.value, res.source)
	return domain.ProductEntry{Data: res.value, Meta: res.meta()}, nil
}

// Update replaces the product with id. The fallback store only addresses
// integer ids, so a non-numeric id that the durable tier could not serve
// reports ErrInvalidID.
func (s *Service) Update(ctx context.Context, id string, p *domain.ProductPayload) (domain.ProductEntry, error) {
	if err := Validate(p); err != nil {
		return domain.ProductEntry{}, err
	}
	s.defaultPayloadLocale(p)
	res, err := resolve(ctx, "update",
		durableTier(s, func(ctx context.Context, b Backend) (domain.Product, error) {
			return b.UpdateProduct(ctx, id, p)
		}),
		fallbackTier(func() Attempt[domain.Product] {
			n, err := ParseID(id)
			if err != nil {
				return rejected[domain.Product](err)
			}
			updated, ok := s.store.ReplaceProduct(n, p)
			if !ok {
				return rejected[domain.Product](ErrNotFound)
			}
			return success(updated)
		}),
	)
	if err != nil {
		return domain.ProductEntry{}, err
	}
	s.publish(TopicProductUpdated, res.value, res.source)
	return domain.ProductEntry{Data: res.value, Meta: res.meta()}, nil
}

// Delete removes the product with id, following the same rules as Update.
func (s *Service) Delete(ctx context.Context, id string) (string, error) {
	res, err := resolve(ctx, "delete",
		durableTier(s, func(ctx context.Context, b Backend) (struct{}, error) {
			return struct{}{}, b.DeleteProduct(ctx, id)
		}),
		fallbackTier(func() Attempt[struct{}] {
			n, err := ParseID(id)
			if err != nil {
				return rejected[struct{}](err)
			}
			if !s.store.RemoveProduct(n) {
				return rejected[struct{}](ErrNotFound)
			}
			return success(struct{}{})
		}),
	)
	if err != nil {
		return "", err
	}
	s.publish(TopicProductDeleted, id, res.source)
	return res.source, nil
}

// UploadImage stores an image in the durable backend, or keeps it in memory
// as a data URL when no durable backend accepts it.
func (s *Service) UploadImage(ctx context.Context, up *domain.Upload) (domain.Image, string, error) {
	if up == nil || len(up.Data) == 0 {
		return domain.Image{}, "", invalid(CodeFileRequired, "an image file is required")
	}
	if up.ContentType == "" {
		up.ContentType = "application/octet-stream"
	}
	res, err := resolve(ctx, "upload",
		durableTier(s, func(ctx context.Context, b Backend) (domain.Image, error) {
			return b.UploadImage(ctx, up)
		}),
		fallbackTier(func() Attempt[domain.Image] {
			return success(s.store.AppendImage(DataURL(up), up.Filename, up.ContentType))
		}),
	)
	if err != nil {
		return domain.Image{}, "", err
	}
	s.publish(TopicImageUploaded, res.value, res.source)
	return res.value, res.source, nil
}

// DataURL encodes an upload inline.
func DataURL(up *domain.Upload) string {
	var sb strings.Builder
	sb.WriteString("data:")
	sb.WriteString(up.ContentType)
	sb.WriteString(";base64,")
	sb.WriteString(base64.StdEncoding.EncodeToString(up.Data))
	return sb.String()
}

func (r resolved[T]) meta() domain.ProductEntryMeta {
	m := domain.ProductEntryMeta{Source: r.source}
	if r.source == SourceDurable {
		m.Backend = r.backend
	}
	return m
}

func (s *Service) defaultPayloadLocale(p *domain.ProductPayload) {
	if p.Locale == "" {
		p.Locale = s.defaultLocale()
	}
}

// localize translates names and descriptions in place. Both batches are
// issued concurrently; the gateway never fails, it passes text through.
func (s *Service) localize(ctx context.Context, products []domain.Product, locale string) {
	if s.gateway == nil || len(products) == 0 {
		return
	}
	registry := s.gateway.Registry()
	locale = registry.Normalize(locale)
	if locale == registry.Default() {
		return
	}

	names := make([]string, len(products))
	var descs []string
	var descIdx []int
	for i, p := range products {
		names[i] = p.Name
		if p.Description != nil && strings.TrimSpace(*p.Description) != "" {
			descs = append(descs, *p.Description)
			descIdx = append(descIdx, i)
		}
	}

	var translatedNames, translatedDescs []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		translatedNames = s.gateway.TranslateFromDefault(gctx, names, locale)
		return nil
	})
	if len(descs) > 0 {
		g.Go(func() error {
			translatedDescs = s.gateway.TranslateFromDefault(gctx, descs, locale)
			return nil
		})
	}
	_ = g.Wait()

	for i := range products {
		products[i].Name = translatedNames[i]
	}
	for j, i := range descIdx {
		d := translatedDescs[j]
		products[i].Description = &d
	}
}

func (s *Service) publish(topic string, value interface{}, source string) {
	if s.events == nil {
		return
	}
	s.events.Publish(topic, value, source)
}
