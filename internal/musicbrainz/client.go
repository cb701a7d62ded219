package musicbrainz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultBaseURL     = "https://musicbrainz.org/ws/2"
	defaultCoverArtURL = "https://coverartarchive.org"
	defaultUserAgent   = "discobase/1.0 (personal music library)"
)

// ErrNoCoverArt is returned when the Cover Art Archive has no front image.
var ErrNoCoverArt = errors.New("no cover art for release")

// Client handles communication with MusicBrainz and the Cover Art Archive.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	coverArtURL string
	userAgent   string
	rateLimiter *rateLimiter
}

// rateLimiter enforces the MusicBrainz request rate (1 req/sec, with some
// headroom). Safe for concurrent use.
type rateLimiter struct {
	mu          sync.Mutex
	lastRequest time.Time
	interval    time.Duration
}

func (r *rateLimiter) wait() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if elapsed := now.Sub(r.lastRequest); elapsed < r.interval {
		time.Sleep(r.interval - elapsed)
	}
	r.lastRequest = time.Now()
}

// Option customises the client.
type Option func(*Client)

// WithBaseURLs overrides the API endpoints, used by tests.
func WithBaseURLs(base, coverArt string) Option {
	return func(c *Client) {
		c.baseURL = base
		c.coverArtURL = coverArt
	}
}

// WithRateLimit overrides the minimum interval between requests.
func WithRateLimit(interval time.Duration) Option {
	return func(c *Client) {
		c.rateLimiter.interval = interval
	}
}

// NewClient creates a MusicBrainz API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     defaultBaseURL,
		coverArtURL: defaultCoverArtURL,
		userAgent:   defaultUserAgent,
		rateLimiter: &rateLimiter{interval: 1100 * time.Millisecond},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	c.rateLimiter.wait()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("MusicBrainz API error: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// SearchReleases searches for releases matching title and artist and returns
// up to 10 simplified candidates.
func (c *Client) SearchReleases(ctx context.Context, title, artist string) ([]ReleaseCandidate, error) {
	query := fmt.Sprintf(`release:"%s" AND artist:"%s"`, title, artist)
	searchURL := fmt.Sprintf("%s/release?query=%s&fmt=json&limit=10",
		c.baseURL, url.QueryEscape(query))

	body, err := c.get(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	var parsed releaseSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	candidates := make([]ReleaseCandidate, 0, len(parsed.Releases))
	for _, r := range parsed.Releases {
		candidates = append(candidates, ReleaseCandidate{
			MBID:       r.ID,
			Title:      r.Title,
			Artist:     joinArtistCredits(r.Artists),
			Year:       yearFromDate(r.Date),
			Label:      firstLabel(r.LabelInfo),
			Country:    r.Country,
			TrackCount: r.TrackCount,
		})
	}
	return candidates, nil
}

// GetRelease fetches the full release including recordings, artist credits,
// labels and artist relationships.
func (c *Client) GetRelease(ctx context.Context, mbid string) (*ReleaseDetail, error) {
	releaseURL := fmt.Sprintf("%s/release/%s?inc=recordings+artist-credits+labels+artist-rels&fmt=json",
		c.baseURL, url.PathEscape(mbid))

	body, err := c.get(ctx, releaseURL)
	if err != nil {
		return nil, err
	}

	var release Release
	if err := json.Unmarshal(body, &release); err != nil {
		return nil, fmt.Errorf("failed to parse release response: %w", err)
	}

	detail := &ReleaseDetail{
		MBID:      mbid,
		Title:     release.Title,
		Artist:    joinArtistCredits(release.Artists),
		Year:      yearFromDate(release.Date),
		Label:     firstLabel(release.LabelInfo),
		Tracks:    []string{},
		Credits:   release.Artists,
		Relations: release.Relations,
	}
	for _, medium := range release.Media {
		for _, track := range medium.Tracks {
			title := track.Title
			if title == "" && track.Recording != nil {
				title = track.Recording.Title
			}
			if title != "" {
				detail.Tracks = append(detail.Tracks, title)
			}
		}
	}
	return detail, nil
}

// DownloadCoverArt fetches the front cover image bytes for a release from
// the Cover Art Archive. Returns ErrNoCoverArt when none exists.
func (c *Client) DownloadCoverArt(ctx context.Context, mbid string) ([]byte, error) {
	c.rateLimiter.wait()

	artURL := fmt.Sprintf("%s/release/%s/front", c.coverArtURL, url.PathEscape(mbid))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, artURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoCoverArt
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Cover Art Archive error: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// joinArtistCredits flattens an artist-credit list into a display name.
func joinArtistCredits(credits []ArtistCredit) string {
	var b strings.Builder
	for _, credit := range credits {
		name := credit.Name
		if name == "" {
			name = credit.Artist.Name
		}
		b.WriteString(name)
		b.WriteString(credit.JoinPhrase)
	}
	return strings.TrimSpace(b.String())
}

func firstLabel(info []LabelInfo) string {
	for _, li := range info {
		if li.Label != nil && li.Label.Name != "" {
			return li.Label.Name
		}
	}
	return ""
}

func yearFromDate(date string) *int {
	if len(date) < 4 {
		return nil
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return nil
	}
	return &year
}
