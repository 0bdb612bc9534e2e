package domain

// ImageRefKind tags the variant held by an ImageRef.
type ImageRefKind int

const (
	ImageRefNone ImageRefKind = iota
	ImageRefID
	ImageRefURL
)

// ImageRef points a product at an image, either by store id or by a URL that
// was already resolved by the uploader.
type ImageRef struct {
	Kind ImageRefKind
	ID   int64
	URL  string
}

func ImageByID(id int64) ImageRef {
	return ImageRef{Kind: ImageRefID, ID: id}
}

func ImageByURL(url string) ImageRef {
	return ImageRef{Kind: ImageRefURL, URL: url}
}

// ProductPayload is the validated create/update input every backend consumes.
type ProductPayload struct {
	Name         string
	Price        float64
	Description  *string
	Category     *string
	OrderFormURL *string
	Image        ImageRef
	Locale       string
}
