package catalog

import (
	"math"
	"strings"

	"github.com/orangeboy/storefront/internal/domain"
	"github.com/orangeboy/storefront/internal/i18n"
	"github.com/spf13/cast"
)

// ParseProductPayload normalizes a raw create/update body into the single
// payload shape every backend consumes. The body must be a JSON object.
func ParseProductPayload(body []byte, registry *i18n.Registry) (*domain.ProductPayload, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return nil, invalid(CodeInvalidBody, "request body must be a JSON object")
	}
	return PayloadFromMap(raw, registry)
}

// PayloadFromMap is ParseProductPayload for an already decoded object.
func PayloadFromMap(raw map[string]interface{}, registry *i18n.Registry) (*domain.ProductPayload, error) {
	name, _ := raw["name"].(string)
	p := &domain.ProductPayload{
		Name:         strings.TrimSpace(name),
		Description:  optionalText(raw["description"]),
		OrderFormURL: optionalText(raw["orderFormUrl"]),
		Image:        parseImageRef(raw),
	}

	price, ok := parsePrice(raw["price"])
	if !ok {
		p.Price = math.NaN()
	} else {
		p.Price = price
	}

	if c := optionalText(raw["category"]); c != nil {
		if v := domain.NormalizeCategory(*c); v != "" {
			p.Category = &v
		}
	}

	locale, _ := raw["locale"].(string)
	if registry != nil {
		if locale = strings.TrimSpace(locale); locale == "" {
			locale = registry.Default()
		} else {
			locale = registry.Normalize(locale)
		}
	}
	p.Locale = locale

	if err := Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the invariants every stored product must satisfy.
func Validate(p *domain.ProductPayload) error {
	if p == nil {
		return invalid(CodeInvalidBody, "missing payload")
	}
	if strings.TrimSpace(p.Name) == "" {
		return invalid(CodeInvalidName, "name must be a non-empty string")
	}
	if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
		return invalid(CodeInvalidPrice, "price must be a finite number")
	}
	return nil
}

func parsePrice(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		if strings.TrimSpace(t) == "" {
			return 0, false
		}
		f, err := cast.ToFloat64E(strings.TrimSpace(t))
		return f, err == nil
	}
	f, err := cast.ToFloat64E(v)
	return f, err == nil
}

func optionalText(v interface{}) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

// parseImageRef accepts every shape the admin UI and upload responses
// produce: imageUrl, a numeric id, a numeric string, a URL string, an
// {id,url} object, or an array holding one of those.
func parseImageRef(raw map[string]interface{}) domain.ImageRef {
	if u, ok := raw["imageUrl"].(string); ok && isImageURL(u) {
		return domain.ImageByURL(strings.TrimSpace(u))
	}
	if v, ok := raw["imageId"]; ok {
		return imageRefFrom(v)
	}
	return imageRefFrom(raw["image"])
}

func imageRefFrom(v interface{}) domain.ImageRef {
	switch t := v.(type) {
	case nil:
		return domain.ImageRef{}
	case string:
		s := strings.TrimSpace(t)
		if isImageURL(s) {
			return domain.ImageByURL(s)
		}
		if id, err := cast.ToInt64E(s); err == nil && id > 0 {
			return domain.ImageByID(id)
		}
		return domain.ImageRef{}
	case []interface{}:
		if len(t) == 0 {
			return domain.ImageRef{}
		}
		return imageRefFrom(t[0])
	case map[string]interface{}:
		if id, ok := t["id"]; ok && id != nil {
			if ref := imageRefFrom(id); ref.Kind != domain.ImageRefNone {
				return ref
			}
		}
		return imageRefFrom(t["url"])
	case float64:
		if t != math.Trunc(t) || t <= 0 {
			return domain.ImageRef{}
		}
		return domain.ImageByID(int64(t))
	}
	if id, err := cast.ToInt64E(v); err == nil && id > 0 {
		return domain.ImageByID(id)
	}
	return domain.ImageRef{}
}

func isImageURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "data:")
}

// ParseID converts a path identifier into the integer form the fallback
// store and the relational repository use.
func ParseID(id string) (int64, error) {
	v, err := cast.ToInt64E(strings.TrimSpace(id))
	if err != nil || v <= 0 {
		return 0, ErrInvalidID
	}
	return v, nil
}
