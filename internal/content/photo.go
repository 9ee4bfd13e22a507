package content

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	// Decoders registered for dimension probing of rendition URLs.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/ignite/dailyhi/internal/domain"
	"github.com/ignite/dailyhi/internal/pkg/httpretry"
	"github.com/ignite/dailyhi/internal/pkg/logger"
)

// Large rendition bounds a photo must satisfy to appear in a digest.
const (
	minPhotoWidth  = 800
	maxPhotoWidth  = 1400
	minPhotoHeight = 600
	maxPhotoHeight = 1400
)

// probeLimit caps how much of an image is downloaded when the search
// API omits dimensions; headers carry the size information.
const probeLimit = 1 << 20

// PhotoClient queries a photo search service for recent, safe,
// openly-licensed images and picks one sized for the digest.
type PhotoClient struct {
	http    httpretry.HTTPDoer
	baseURL string
	apiKey  string
}

// NewPhotoClient creates a photo client. A nil doer gets a retrying
// client with default settings.
func NewPhotoClient(doer httpretry.HTTPDoer, baseURL, apiKey string) *PhotoClient {
	if doer == nil {
		doer = httpretry.NewRetryClient(nil, 3)
	}
	return &PhotoClient{http: doer, baseURL: baseURL, apiKey: apiKey}
}

type photoSearchResponse struct {
	Photos []photoResult `json:"photos"`
}

type photoResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url_large"`
	PageURL string `json:"page_url"`
	Width   int    `json:"width_large"`
	Height  int    `json:"height_large"`
}

// FindPhoto returns the first interesting photo uploaded since the
// day before localTime whose large rendition fits the digest layout,
// or nil when nothing qualifies or any fetch fails. A missing photo
// is never an error; the digest just omits the image block.
func (c *PhotoClient) FindPhoto(ctx context.Context, localTime time.Time) *domain.Photo {
	if c.baseURL == "" {
		return nil
	}

	results, err := c.search(ctx, localTime)
	if err != nil {
		logger.Warn("photo search failed", "error", err.Error())
		return nil
	}

	for _, r := range results {
		w, h := r.Width, r.Height
		if w == 0 || h == 0 {
			w, h = c.probeDimensions(ctx, r.URL)
		}
		if w >= minPhotoWidth && w <= maxPhotoWidth && h >= minPhotoHeight && h <= maxPhotoHeight {
			return &domain.Photo{
				Title:   r.Title,
				URL:     r.URL,
				PageURL: r.PageURL,
				Width:   w,
				Height:  h,
			}
		}
	}
	return nil
}

func (c *PhotoClient) search(ctx context.Context, localTime time.Time) ([]photoResult, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("privacy_filter", "1")
	params.Set("safe", "1")
	params.Set("content_type", "1")
	params.Set("license", "4,5,6")
	params.Set("sort", "interestingness-desc")
	params.Set("min_upload_date", strconv.FormatInt(localTime.AddDate(0, 0, -1).Unix(), 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/photos/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("photo search returned status %d", resp.StatusCode)
	}

	var parsed photoSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode photo search response: %w", err)
	}
	return parsed.Photos, nil
}

// probeDimensions fetches just enough of the rendition to decode its
// header. Returns zeros on any failure, which fails the size policy.
func (c *PhotoClient) probeDimensions(ctx context.Context, photoURL string) (int, int) {
	if photoURL == "" {
		return 0, 0
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, photoURL, nil)
	if err != nil {
		return 0, 0
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, 0
	}
	defer resp.Body.Close()

	cfg, _, err := image.DecodeConfig(io.LimitReader(resp.Body, probeLimit))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
