package translate

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/guonaihong/gout"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Provider translates a batch of texts between provider language codes.
// The result must have the same length and order as texts.
type Provider interface {
	Translate(ctx context.Context, texts []string, targetCode, sourceCode string) ([]string, error)
}

// DeepLClient calls the DeepL v2 translate endpoint.
type DeepLClient struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
	client   *http.Client
}

func NewDeepLClient(endpoint, apiKey string, timeout time.Duration) *DeepLClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DeepLClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		timeout:  timeout,
		client:   &http.Client{},
	}
}

type deeplResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

func (d *DeepLClient) Translate(ctx context.Context, texts []string, targetCode, sourceCode string) ([]string, error) {
	form := url.Values{}
	form.Set("target_lang", targetCode)
	if sourceCode != "" {
		form.Set("source_lang", sourceCode)
	}
	for _, text := range texts {
		form.Add("text", text)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var body string
	var code int
	err := gout.New(d.client).
		POST(d.endpoint).
		WithContext(ctx).
		SetHeader(gout.H{
			"Authorization": "DeepL-Auth-Key " + d.apiKey,
			"Content-Type":  "application/x-www-form-urlencoded",
		}).
		SetBody(form.Encode()).
		BindBody(&body).
		Code(&code).
		Do()
	if err != nil {
		return nil, errors.Wrap(err, "deepl request")
	}
	if code < 200 || code > 299 {
		return nil, errors.Errorf("deepl status %d: %s", code, truncate(body, 256))
	}

	var resp deeplResponse
	if err := json.UnmarshalFromString(body, &resp); err != nil {
		return nil, errors.Wrap(err, "deepl response")
	}
	if len(resp.Translations) != len(texts) {
		return nil, errors.Errorf("deepl returned %d translations for %d texts", len(resp.Translations), len(texts))
	}
	out := make([]string, len(texts))
	for i, t := range resp.Translations {
		out[i] = t.Text
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
