package translate

import (
	"context"
	"errors"
	"strings"

	"github.com/orangeboy/storefront/internal/i18n"
	"github.com/orangeboy/storefront/pkg/metrics"
	"go.uber.org/zap"
)

var errShortBatch = errors.New("provider returned a batch of the wrong size")

// Gateway batches and caches machine translation of storefront text.
// It never fails: any provider problem yields the untranslated input.
type Gateway struct {
	registry *i18n.Registry
	provider Provider
	cache    *Cache
}

// NewGateway builds a gateway. A nil provider disables translation.
func NewGateway(registry *i18n.Registry, provider Provider, cache *Cache) *Gateway {
	if registry == nil {
		registry = i18n.Default()
	}
	return &Gateway{registry: registry, provider: provider, cache: cache}
}

func (g *Gateway) Registry() *i18n.Registry {
	return g.registry
}

// Enabled reports whether a provider is configured.
func (g *Gateway) Enabled() bool {
	return g.provider != nil
}

func (g *Gateway) CacheLen() int {
	if g.cache == nil {
		return 0
	}
	return g.cache.Len()
}

// TranslateFromDefault translates texts from the registry default locale.
func (g *Gateway) TranslateFromDefault(ctx context.Context, texts []string, target string) []string {
	return g.Translate(ctx, texts, target, g.registry.Default())
}

// Translate returns texts translated into target, positionally aligned with
// the input. Cache hits are served locally; all misses go out in one provider
// call. If that call fails the whole input is returned unchanged.
func (g *Gateway) Translate(ctx context.Context, texts []string, target, source string) []string {
	if len(texts) == 0 || target == source {
		return texts
	}
	targetCode := g.registry.ProviderCode(target)
	if g.provider == nil || targetCode == "" {
		return texts
	}

	results := make([]string, len(texts))
	var misses []string
	missIndex := make(map[string][]int)
	hits := 0
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			results[i] = text
			continue
		}
		if g.cache != nil {
			if cached, ok := g.cache.Get(target, text); ok {
				results[i] = cached
				hits++
				continue
			}
		}
		if _, seen := missIndex[text]; !seen {
			misses = append(misses, text)
		}
		missIndex[text] = append(missIndex[text], i)
	}
	metrics.AddTranslationLookups(hits, len(misses))
	if len(misses) == 0 {
		return results
	}

	translated, err := g.provider.Translate(ctx, misses, targetCode, g.registry.ProviderCode(source))
	if err == nil && len(translated) != len(misses) {
		err = errShortBatch
	}
	if err != nil {
		metrics.IncTranslationFailure()
		zap.L().Warn("translation failed, serving source text",
			zap.String("target", target),
			zap.Int("texts", len(misses)),
			zap.Error(err))
		return texts
	}

	for i, text := range misses {
		if g.cache != nil {
			g.cache.Add(target, text, translated[i])
		}
		for _, idx := range missIndex[text] {
			results[idx] = translated[i]
		}
	}
	if g.cache != nil {
		metrics.SetTranslationCacheSize(g.cache.Len())
	}
	return results
}
