package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Language is one selectable storefront locale.
type Language struct {
	Code         string
	Label        string
	ProviderCode string // DeepL target code; empty means display-only
	tag          language.Tag
}

// Translatable reports whether text can be machine translated into this locale.
func (l Language) Translatable() bool {
	return l.ProviderCode != ""
}

// Option is the json shape used by the language picker.
type Option struct {
	Code         string `json:"code"`
	Label        string `json:"label"`
	Translatable bool   `json:"translatable"`
}

const DefaultCode = "ko"

// Registry is the immutable table of supported locales.
type Registry struct {
	languages  []Language
	byCode     map[string]Language
	matcher    language.Matcher
	matchOrder []string
	def        string
}

// DeepL (2024) has no Vietnamese, so vi is display-only.
var defaultLanguages = []Language{
	{Code: "ko", Label: "한국어", ProviderCode: "KO"},
	{Code: "en", Label: "English", ProviderCode: "EN"},
	{Code: "zh", Label: "中文", ProviderCode: "ZH"},
	{Code: "ja", Label: "日本語", ProviderCode: "JA"},
	{Code: "fr", Label: "Français", ProviderCode: "FR"},
	{Code: "vi", Label: "Tiếng Việt"},
}

var defaultRegistry = NewRegistry(DefaultCode, defaultLanguages)

// Default returns the process-wide storefront registry.
func Default() *Registry {
	return defaultRegistry
}

// NewRegistry builds a registry; the first entry is used when def is unknown.
func NewRegistry(def string, langs []Language) *Registry {
	r := &Registry{byCode: make(map[string]Language, len(langs))}
	for _, l := range langs {
		l.Code = strings.ToLower(l.Code)
		l.tag = language.Make(l.Code)
		r.languages = append(r.languages, l)
		r.byCode[l.Code] = l
	}
	if _, ok := r.byCode[def]; ok {
		r.def = def
	} else if len(r.languages) > 0 {
		r.def = r.languages[0].Code
	}
	// the matcher falls back to its first tag, so the default goes first
	tags := make([]language.Tag, 0, len(r.languages))
	if d, ok := r.byCode[r.def]; ok {
		tags = append(tags, d.tag)
		r.matchOrder = append(r.matchOrder, d.Code)
	}
	for _, l := range r.languages {
		if l.Code != r.def {
			tags = append(tags, l.tag)
			r.matchOrder = append(r.matchOrder, l.Code)
		}
	}
	r.matcher = language.NewMatcher(tags)
	return r
}

func (r *Registry) Default() string {
	return r.def
}

func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.languages))
	for _, l := range r.languages {
		codes = append(codes, l.Code)
	}
	return codes
}

func (r *Registry) Lookup(code string) (Language, bool) {
	l, ok := r.byCode[strings.ToLower(strings.TrimSpace(code))]
	return l, ok
}

func (r *Registry) IsSupported(code string) bool {
	_, ok := r.Lookup(code)
	return ok
}

func (r *Registry) Label(code string) string {
	if l, ok := r.Lookup(code); ok {
		return l.Label
	}
	return code
}

// ProviderCode returns the DeepL code, or "" for display-only and unknown locales.
func (r *Registry) ProviderCode(code string) string {
	if l, ok := r.Lookup(code); ok {
		return l.ProviderCode
	}
	return ""
}

// Normalize maps a raw tag such as "en-US" or "EN" onto a
// supported code. Unknown or empty input resolves to the default.
func (r *Registry) Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return r.def
	}
	if l, ok := r.Lookup(raw); ok {
		return l.Code
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return r.def
	}
	_, idx, conf := r.matcher.Match(tag)
	if conf == language.No {
		return r.def
	}
	return r.matchOrder[idx]
}

func (r *Registry) Options() []Option {
	opts := make([]Option, 0, len(r.languages))
	for _, l := range r.languages {
		opts = append(opts, Option{Code: l.Code, Label: l.Label, Translatable: l.Translatable()})
	}
	return opts
}
