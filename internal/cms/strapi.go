package cms

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/guonaihong/gout"
	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/mapstructure"
	"github.com/orangeboy/storefront/internal/catalog"
	"github.com/orangeboy/storefront/internal/domain"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// categoryValues maps storefront categories to the CMS enumeration values.
var categoryValues = map[string]string{
	domain.CategoryFood:  "Food",
	domain.CategorySnack: "Snack",
	domain.CategoryTea:   "Tea",
	domain.CategoryJuice: "Juice",
}

// StrapiClient is a catalog.Backend over the Strapi REST API. Both the v4
// ({id, attributes}) and the v5 (flat, documentId) response shapes are read.
type StrapiClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewStrapiClient(baseURL, token string, client *http.Client) *StrapiClient {
	if client == nil {
		client = &http.Client{}
	}
	return &StrapiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

func (s *StrapiClient) Name() string {
	return "strapi"
}

func (s *StrapiClient) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("pagination[pageSize]", "1")
	_, err := s.do(ctx, http.MethodGet, "/api/products?"+q.Encode(), nil, "")
	return err
}

func (s *StrapiClient) ListProducts(ctx context.Context, category string) ([]domain.Product, error) {
	q := url.Values{}
	if c := domain.NormalizeCategory(category); c != "" {
		q.Set("filters[category][$eq]", cmsCategory(c))
	}
	q.Set("populate", "*")
	q.Set("sort", "createdAt:desc")
	body, err := s.do(ctx, http.MethodGet, "/api/products?"+q.Encode(), nil, "")
	if err != nil {
		return nil, err
	}
	var env struct {
		Data []map[string]interface{} `json:"data"`
	}
	if err := json.UnmarshalFromString(body, &env); err != nil {
		return nil, errors.Wrap(err, "strapi product list")
	}
	out := make([]domain.Product, 0, len(env.Data))
	for _, item := range env.Data {
		p, err := s.decodeProduct(item)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *StrapiClient) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	q := url.Values{}
	q.Set("populate", "*")
	body, err := s.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id)+"?"+q.Encode(), nil, "")
	if err != nil {
		return domain.Product{}, itemError(err)
	}
	return s.decodeEntry(body)
}

func (s *StrapiClient) CreateProduct(ctx context.Context, p *domain.ProductPayload) (domain.Product, error) {
	data := productData(p)
	data["publishedAt"] = time.Now().UTC().Format(time.RFC3339)
	body, err := s.do(ctx, http.MethodPost, "/api/products?populate=*", gout.H{"data": data}, "")
	if err != nil {
		return domain.Product{}, err
	}
	return s.decodeEntry(body)
}

func (s *StrapiClient) UpdateProduct(ctx context.Context, id string, p *domain.ProductPayload) (domain.Product, error) {
	body, err := s.do(ctx, http.MethodPut, "/api/products/"+url.PathEscape(id)+"?populate=*", gout.H{"data": productData(p)}, "")
	if err != nil {
		return domain.Product{}, itemError(err)
	}
	return s.decodeEntry(body)
}

func (s *StrapiClient) DeleteProduct(ctx context.Context, id string) error {
	_, err := s.do(ctx, http.MethodDelete, "/api/products/"+url.PathEscape(id), nil, "")
	return itemError(err)
}

// UploadImage sends the file to the media library and returns the first
// stored file.
func (s *StrapiClient) UploadImage(ctx context.Context, up *domain.Upload) (domain.Image, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, escapeQuotes(up.Filename)))
	h.Set("Content-Type", up.ContentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return domain.Image{}, err
	}
	if _, err := part.Write(up.Data); err != nil {
		return domain.Image{}, err
	}
	if err := mw.Close(); err != nil {
		return domain.Image{}, err
	}

	body, err := s.do(ctx, http.MethodPost, "/api/upload", buf.String(), mw.FormDataContentType())
	if err != nil {
		return domain.Image{}, err
	}
	var raw interface{}
	if err := json.UnmarshalFromString(body, &raw); err != nil {
		return domain.Image{}, errors.Wrap(err, "strapi upload response")
	}
	img := s.decodeImage(raw)
	if img == nil {
		return domain.Image{}, errors.New("strapi upload returned no file")
	}
	img.Name = up.Filename
	img.Mime = up.ContentType
	return *img, nil
}

// do performs one request. body is either a JSON-encodable value or, when
// contentType is set, a pre-encoded string.
func (s *StrapiClient) do(ctx context.Context, method, path string, body interface{}, contentType string) (string, error) {
	headers := gout.H{"Authorization": "Bearer " + s.token}
	client := gout.New(s.client)
	target := s.baseURL + path

	req := client.GET(target)
	switch method {
	case http.MethodPost:
		req = client.POST(target)
	case http.MethodPut:
		req = client.PUT(target)
	case http.MethodDelete:
		req = client.DELETE(target)
	}
	req = req.WithContext(ctx)
	if body != nil {
		if contentType != "" {
			headers["Content-Type"] = contentType
			req = req.SetBody(body)
		} else {
			req = req.SetJSON(body)
		}
	}

	var resp string
	var code int
	err := req.SetHeader(headers).BindBody(&resp).Code(&code).Do()
	if err != nil {
		return "", errors.Wrapf(err, "strapi %s %s", method, path)
	}
	if code < 200 || code > 299 {
		return "", &StatusError{Method: method, Path: path, Code: code, Body: truncate(resp, 256)}
	}
	return resp, nil
}

// StatusError is a non-2xx answer from the CMS.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("strapi %s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// itemError reports a 404 on a single product path as catalog.ErrNotFound.
// On collection, upload and ping paths a 404 means a misconfigured CMS and
// stays an ordinary failure.
func itemError(err error) error {
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return errors.Wrap(catalog.ErrNotFound, se.Error())
	}
	return err
}

func (s *StrapiClient) decodeEntry(body string) (domain.Product, error) {
	var env struct {
		Data map[string]interface{} `json:"data"`
	}
	if err := json.UnmarshalFromString(body, &env); err != nil {
		return domain.Product{}, errors.Wrap(err, "strapi product")
	}
	if env.Data == nil {
		return domain.Product{}, errors.New("strapi product response has no data")
	}
	return s.decodeProduct(env.Data)
}

// productAttributes is the product content type as stored in the CMS.
type productAttributes struct {
	Name         string      `mapstructure:"name"`
	Price        float64     `mapstructure:"price"`
	Description  *string     `mapstructure:"description"`
	Category     *string     `mapstructure:"category"`
	OrderFormURL *string     `mapstructure:"orderFormUrl"`
	Locale       string      `mapstructure:"locale"`
	DocumentID   string      `mapstructure:"documentId"`
	CreatedAt    time.Time   `mapstructure:"createdAt"`
	UpdatedAt    time.Time   `mapstructure:"updatedAt"`
	Image        interface{} `mapstructure:"image"`
}

func (s *StrapiClient) decodeProduct(item map[string]interface{}) (domain.Product, error) {
	attrs := item
	if nested, ok := item["attributes"].(map[string]interface{}); ok {
		attrs = nested
	}

	var a productAttributes
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &a,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
	})
	if err != nil {
		return domain.Product{}, err
	}
	if err := dec.Decode(attrs); err != nil {
		return domain.Product{}, errors.Wrap(err, "strapi product attributes")
	}

	p := domain.Product{
		ID:           cast.ToInt64(item["id"]),
		DocumentID:   a.DocumentID,
		Name:         a.Name,
		Price:        a.Price,
		Description:  a.Description,
		OrderFormURL: a.OrderFormURL,
		Locale:       a.Locale,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
		Image:        s.decodeImage(a.Image),
	}
	if p.DocumentID == "" {
		p.DocumentID = cast.ToString(item["documentId"])
	}
	if a.Category != nil {
		if c := domain.NormalizeCategory(*a.Category); c != "" {
			p.Category = &c
		}
	}
	return p, nil
}

// decodeImage reads a media field in any of the shapes the CMS returns:
// {data:{id,attributes:{url}}}, {data:[...]}, {id,url}, [{id,url}] or null.
func (s *StrapiClient) decodeImage(v interface{}) *domain.Image {
	switch t := v.(type) {
	case []interface{}:
		if len(t) == 0 {
			return nil
		}
		return s.decodeImage(t[0])
	case map[string]interface{}:
		if data, ok := t["data"]; ok {
			return s.decodeImage(data)
		}
		fields := t
		if nested, ok := t["attributes"].(map[string]interface{}); ok {
			fields = nested
		}
		u := cast.ToString(fields["url"])
		if u == "" {
			return nil
		}
		return &domain.Image{ID: cast.ToInt64(t["id"]), URL: s.absolute(u)}
	}
	return nil
}

func (s *StrapiClient) absolute(u string) string {
	if strings.HasPrefix(u, "/") {
		return s.baseURL + u
	}
	return u
}

func productData(p *domain.ProductPayload) gout.H {
	data := gout.H{
		"name":         strings.TrimSpace(p.Name),
		"price":        p.Price,
		"description":  p.Description,
		"orderFormUrl": p.OrderFormURL,
		"category":     nil,
		"image":        nil,
	}
	if p.Category != nil {
		data["category"] = cmsCategory(*p.Category)
	}
	// the media field only takes library ids; URL references stay local
	if p.Image.Kind == domain.ImageRefID {
		data["image"] = p.Image.ID
	}
	return data
}

func cmsCategory(c string) string {
	if v, ok := categoryValues[strings.ToLower(c)]; ok {
		return v
	}
	return c
}

func escapeQuotes(s string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, "\\\"").Replace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
