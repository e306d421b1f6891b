package dlsite

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"

	"github.com/NobeKanai/dvtag/internal/http"
	"github.com/NobeKanai/dvtag/internal/model"
	"github.com/rs/zerolog"
)

const (
	// DefaultWorkURL is the work page URL format, filled with the catalog ID.
	DefaultWorkURL = "https://www.dlsite.com/maniax/work/=/product_id/%s.html"

	// DefaultChobitURL is the chobit embed API URL format.
	DefaultChobitURL = "https://chobit.cc/api/v1/dlsite/embed?workno=%s"

	// DefaultLocale is the storefront locale the page parser expects.
	DefaultLocale = "ja-jp"
)

// Cookie returns the cookie header that selects the page locale and skips
// the age check. An empty locale means DefaultLocale.
func Cookie(locale string) string {
	if locale == "" {
		locale = DefaultLocale
	}
	return "locale=" + locale + "; adultchecked=1"
}

// Getter fetches a URL. *http.Client implements it.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

var _ Getter = (*http.Client)(nil)

// Fetcher builds release records from the DLsite work page and the chobit
// sample API.
type Fetcher struct {
	client    Getter
	workURL   string
	chobitURL string
	logger    zerolog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithWorkURL overrides DefaultWorkURL.
func WithWorkURL(format string) Option {
	return func(f *Fetcher) { f.workURL = format }
}

// WithChobitURL overrides DefaultChobitURL. An empty format disables chobit.
func WithChobitURL(format string) Option {
	return func(f *Fetcher) { f.chobitURL = format }
}

// WithLogger sets the logger used for non-fatal chobit failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(f *Fetcher) { f.logger = logger }
}

// NewFetcher creates a Fetcher that requests pages through client.
func NewFetcher(client Getter, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    client,
		workURL:   DefaultWorkURL,
		chobitURL: DefaultChobitURL,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the release record of workNo.
//
// Errors:
//   - ErrNotFound (wrapped) when the work page answers 404
//   - *ParseError when a required field is missing from the page or the
//     chobit response cannot be decoded
//   - any other error when the page could not be fetched after retries
//
// A chobit request that fails at the transport level is logged and the page
// data is returned as is.
func (f *Fetcher) Fetch(ctx context.Context, workNo string) (*model.Release, error) {
	page, err := f.client.Get(ctx, fmt.Sprintf(f.workURL, workNo))
	if err != nil {
		var se *http.StatusError
		if errors.As(err, &se) && se.StatusCode == nethttp.StatusNotFound {
			return nil, fmt.Errorf("%s: %w", workNo, ErrNotFound)
		}
		return nil, fmt.Errorf("fetch %s: %w", workNo, err)
	}

	rel, err := ParseWorkPage(workNo, string(page))
	if err != nil {
		return nil, err
	}

	if f.chobitURL == "" {
		return rel, nil
	}

	body, err := f.client.Get(ctx, fmt.Sprintf(f.chobitURL, workNo))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.logger.Warn().Err(err).Str("workno", workNo).Msg("chobit request failed, keeping work page data")
		return rel, nil
	}

	if err := ApplyChobit(rel, body); err != nil {
		return nil, err
	}

	return rel, nil
}

// FetchCover downloads the cover image of rel.
func (f *Fetcher) FetchCover(ctx context.Context, rel *model.Release) ([]byte, error) {
	if !rel.HasCover() {
		return nil, fmt.Errorf("%s: no cover image", rel.ID)
	}
	data, err := f.client.Get(ctx, rel.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch cover of %s: %w", rel.ID, err)
	}
	return data, nil
}
