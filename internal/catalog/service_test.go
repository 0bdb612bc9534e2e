package catalog

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/asaskevich/EventBus"
	"github.com/orangeboy/storefront/internal/domain"
	"github.com/orangeboy/storefront/internal/fallback"
	"github.com/orangeboy/storefront/internal/i18n"
	"github.com/orangeboy/storefront/internal/translate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("upstream exploded")

// fakeBackend records calls and fails with err when set.
type fakeBackend struct {
	mu       sync.Mutex
	err      error
	products map[string]domain.Product
	calls    map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{products: map[string]domain.Product{}, calls: map[string]int{}}
}

func (f *fakeBackend) hit(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.err
}

func (f *fakeBackend) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) Name() string               { return "fake" }
func (f *fakeBackend) Ping(context.Context) error { return f.hit("ping") }

func (f *fakeBackend) ListProducts(_ context.Context, _ string) ([]domain.Product, error) {
	if err := f.hit("list"); err != nil {
		return nil, err
	}
	var out []domain.Product
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeBackend) GetProduct(_ context.Context, id string) (domain.Product, error) {
	if err := f.hit("get"); err != nil {
		return domain.Product{}, err
	}
	p, ok := f.products[id]
	if !ok {
		return domain.Product{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeBackend) CreateProduct(_ context.Context, p *domain.ProductPayload) (domain.Product, error) {
	if err := f.hit("create"); err != nil {
		return domain.Product{}, err
	}
	prod := domain.Product{ID: 77, Name: p.Name, Price: p.Price}
	f.products["77"] = prod
	return prod, nil
}

func (f *fakeBackend) UpdateProduct(_ context.Context, id string, p *domain.ProductPayload) (domain.Product, error) {
	if err := f.hit("update"); err != nil {
		return domain.Product{}, err
	}
	prod, ok := f.products[id]
	if !ok {
		return domain.Product{}, ErrNotFound
	}
	prod.Name, prod.Price = p.Name, p.Price
	f.products[id] = prod
	return prod, nil
}

func (f *fakeBackend) DeleteProduct(_ context.Context, id string) error {
	if err := f.hit("delete"); err != nil {
		return err
	}
	if _, ok := f.products[id]; !ok {
		return ErrNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeBackend) UploadImage(_ context.Context, up *domain.Upload) (domain.Image, error) {
	if err := f.hit("upload"); err != nil {
		return domain.Image{}, err
	}
	return domain.Image{ID: 5, URL: "https://cdn.example/" + up.Filename}, nil
}

// upperProvider "translates" by prefixing the target code.
type upperProvider struct {
	mu    sync.Mutex
	calls int
}

func (p *upperProvider) Translate(_ context.Context, texts []string, target, _ string) ([]string, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = target + ":" + t
	}
	return out, nil
}

func newGateway(t *testing.T, provider translate.Provider) *translate.Gateway {
	cache, err := translate.NewCache(64)
	require.NoError(t, err)
	return translate.NewGateway(i18n.Default(), provider, cache)
}

func payload(name string, price float64) *domain.ProductPayload {
	return &domain.ProductPayload{Name: name, Price: price}
}

func TestService_NoDurableUsesFallback(t *testing.T) {
	svc := NewService(nil, fallback.New(), newGateway(t, nil), 0)
	ctx := context.Background()

	created, err := svc.Create(ctx, payload("Kimchi", 5000))
	require.NoError(t, err)
	assert.Equal(t, fallback.ProductIDSeed, created.Data.ID)
	assert.Equal(t, SourceFallback, created.Meta.Source)
	assert.Equal(t, "ko", created.Data.Locale)

	col, err := svc.List(ctx, "ko", "")
	require.NoError(t, err)
	require.Len(t, col.Data, 1)
	assert.Equal(t, SourceFallback, col.Meta.Source)
	assert.Equal(t, "Kimchi", col.Data[0].Name)
	assert.Equal(t, 5000.0, col.Data[0].Price)
}

func TestService_DurableSuccessDoesNotTouchFallback(t *testing.T) {
	backend := newFakeBackend()
	store := fallback.New()
	svc := NewService(backend, store, newGateway(t, nil), 0)

	created, err := svc.Create(context.Background(), payload("Tea", 3000))
	require.NoError(t, err)
	assert.Equal(t, SourceDurable, created.Meta.Source)
	assert.Equal(t, "fake", created.Meta.Backend)
	assert.Equal(t, int64(77), created.Data.ID)
	assert.Equal(t, 0, store.Len())
}

func TestService_DurableFailureFallsBack(t *testing.T) {
	backend := newFakeBackend()
	backend.err = errBoom
	store := fallback.New()
	svc := NewService(backend, store, newGateway(t, nil), 0)
	ctx := context.Background()

	created, err := svc.Create(ctx, payload("Juice", 4000))
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, created.Meta.Source)
	assert.Equal(t, 1, store.Len())

	col, err := svc.List(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, col.Meta.Source)
	assert.Equal(t, 1, col.Meta.Count)
	assert.Empty(t, col.Meta.Backend)
}

func TestService_ValidationShortCircuits(t *testing.T) {
	backend := newFakeBackend()
	store := fallback.New()
	svc := NewService(backend, store, newGateway(t, nil), 0)
	ctx := context.Background()

	cases := []struct {
		payload *domain.ProductPayload
		code    string
	}{
		{payload("   ", 10), CodeInvalidName},
		{payload("", 10), CodeInvalidName},
		{payload("Tea", math.NaN()), CodeInvalidPrice},
		{payload("Tea", math.Inf(1)), CodeInvalidPrice},
		{payload("Tea", math.Inf(-1)), CodeInvalidPrice},
	}
	for _, tc := range cases {
		_, err := svc.Create(ctx, tc.payload)
		ve, ok := IsValidation(err)
		require.True(t, ok, "expected validation error, got %v", err)
		assert.Equal(t, tc.code, ve.Code)

		_, err = svc.Update(ctx, "1", tc.payload)
		ve, ok = IsValidation(err)
		require.True(t, ok)
		assert.Equal(t, tc.code, ve.Code)
	}
	assert.Equal(t, 0, backend.count("create"))
	assert.Equal(t, 0, backend.count("update"))
	assert.Equal(t, 0, store.Len())
}

func TestService_DurableNotFoundIsTerminal(t *testing.T) {
	backend := newFakeBackend()
	store := fallback.New()
	store.AppendProduct(payload("Shadow", 1)) // id 1 exists only in memory
	svc := NewService(backend, store, newGateway(t, nil), 0)
	ctx := context.Background()

	_, err := svc.Update(ctx, "1", payload("New", 2))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Delete(ctx, "1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, store.Len())
}

func TestService_FallbackNotFoundAndInvalidID(t *testing.T) {
	svc := NewService(nil, fallback.New(), newGateway(t, nil), 0)
	ctx := context.Background()

	_, err := svc.Delete(ctx, "999")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(ctx, "999", payload("x", 1))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(ctx, "abc-doc", payload("x", 1))
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = svc.Delete(ctx, "abc-doc")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = svc.Get(ctx, "abc-doc", "")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestService_FailingDurableWithTextIDIsInvalid(t *testing.T) {
	backend := newFakeBackend()
	backend.err = errBoom
	svc := NewService(backend, fallback.New(), newGateway(t, nil), 0)

	_, err := svc.Update(context.Background(), "doc-xyz", payload("x", 1))
	assert.ErrorIs(t, err, ErrInvalidID)
	assert.Equal(t, 1, backend.count("update"))
}

func TestService_UpdateRoundTripAndIdempotence(t *testing.T) {
	svc := NewService(nil, fallback.New(), newGateway(t, nil), 0)
	ctx := context.Background()

	created, err := svc.Create(ctx, payload("Kimbap", 3500))
	require.NoError(t, err)
	id := "1"
	require.Equal(t, int64(1), created.Data.ID)

	first, err := svc.Update(ctx, id, payload("Tuna Kimbap", 4000))
	require.NoError(t, err)
	second, err := svc.Update(ctx, id, payload("Tuna Kimbap", 4000))
	require.NoError(t, err)
	assert.Equal(t, first.Data.Name, second.Data.Name)
	assert.Equal(t, first.Data.Price, second.Data.Price)
	assert.Equal(t, first.Data.ID, second.Data.ID)

	col, err := svc.List(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, col.Data, 1)
	assert.Equal(t, "Tuna Kimbap", col.Data[0].Name)
	assert.Equal(t, 4000.0, col.Data[0].Price)
}

func TestService_ListTranslatesNamesAndDescriptions(t *testing.T) {
	provider := &upperProvider{}
	svc := NewService(nil, fallback.New(), newGateway(t, provider), 0)
	ctx := context.Background()

	desc := "spicy"
	_, err := svc.Create(ctx, &domain.ProductPayload{Name: "Kimchi", Price: 1, Description: &desc})
	require.NoError(t, err)
	_, err = svc.Create(ctx, payload("Rice", 1))
	require.NoError(t, err)

	col, err := svc.List(ctx, "en", "")
	require.NoError(t, err)
	require.Len(t, col.Data, 2)
	assert.Equal(t, "EN:Kimchi", col.Data[0].Name)
	require.NotNil(t, col.Data[0].Description)
	assert.Equal(t, "EN:spicy", *col.Data[0].Description)
	assert.Equal(t, "EN:Rice", col.Data[1].Name)
	assert.Nil(t, col.Data[1].Description)
	assert.Equal(t, 2, provider.calls)

	// stored text is untouched
	col, err = svc.List(ctx, "ko", "")
	require.NoError(t, err)
	assert.Equal(t, "Kimchi", col.Data[0].Name)

	// second list is served from the cache
	_, err = svc.List(ctx, "en", "")
	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls)
}

func TestService_UploadImage(t *testing.T) {
	svc := NewService(nil, fallback.New(), newGateway(t, nil), 0)
	ctx := context.Background()

	_, _, err := svc.UploadImage(ctx, &domain.Upload{Filename: "a.png"})
	ve, ok := IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, CodeFileRequired, ve.Code)

	img, source, err := svc.UploadImage(ctx, &domain.Upload{Filename: "a.png", ContentType: "image/png", Data: []byte("png")})
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, source)
	assert.Equal(t, fallback.ImageIDSeed, img.ID)
	assert.Equal(t, "data:image/png;base64,cG5n", img.URL)

	created, err := svc.Create(ctx, &domain.ProductPayload{Name: "Tea", Price: 1, Image: domain.ImageByID(img.ID)})
	require.NoError(t, err)
	require.NotNil(t, created.Data.Image)
	assert.Equal(t, img.URL, created.Data.Image.URL)

	backend := newFakeBackend()
	svc = NewService(backend, fallback.New(), newGateway(t, nil), 0)
	img, source, err = svc.UploadImage(ctx, &domain.Upload{Filename: "b.png", Data: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, SourceDurable, source)
	assert.Equal(t, "https://cdn.example/b.png", img.URL)
}

func TestService_PublishesEvents(t *testing.T) {
	bus := EventBus.New()
	var topics []string
	var mu sync.Mutex
	record := func(topic string) func(interface{}, string) {
		return func(_ interface{}, source string) {
			mu.Lock()
			defer mu.Unlock()
			topics = append(topics, topic+"@"+source)
		}
	}
	require.NoError(t, bus.Subscribe(TopicProductCreated, record(TopicProductCreated)))
	require.NoError(t, bus.Subscribe(TopicProductDeleted, record(TopicProductDeleted)))

	svc := NewService(nil, fallback.New(), newGateway(t, nil), 0)
	svc.SetEvents(bus)
	ctx := context.Background()
	_, err := svc.Create(ctx, payload("a", 1))
	require.NoError(t, err)
	_, err = svc.Delete(ctx, "1")
	require.NoError(t, err)

	assert.Equal(t, []string{"product:created@fallback", "product:deleted@fallback"}, topics)
}

func TestService_Ping(t *testing.T) {
	svc := NewService(nil, fallback.New(), nil, 0)
	assert.ErrorIs(t, svc.Ping(context.Background()), ErrUnavailable)
	assert.Equal(t, "", svc.BackendName())

	backend := newFakeBackend()
	svc = NewService(backend, fallback.New(), nil, 0)
	assert.NoError(t, svc.Ping(context.Background()))
	assert.Equal(t, "fake", svc.BackendName())
}
