/* external.go
 * Contains the client used to talk to the stat tracking site: discovering the games of a series from its matches page
 * and downloading the per game export. Requests are throttled by a shared rate limiter
 */

package external

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

const (
	userAgent      = "HDCLeagueIngest/1.0"
	defaultTimeout = 10 * time.Second
)

var (
	seriesIDPattern = regexp.MustCompile(`/scrims/(\d+)`)
	gameLinkPattern = regexp.MustCompile(`href="[^"]*/game/([a-f0-9-]{36})"`)
)

// Source is the capability the ingestion pipeline needs from the stat site
type Source interface {
	ListGameIdentifiers(ctx context.Context, seriesURL string) ([]string, error)
	FetchExport(ctx context.Context, gameID string) ([]byte, error)
}

// NetworkError is returned when a page or export could not be downloaded
type NetworkError struct {
	URL    string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

type Client struct {
	baseURL string
	timeout time.Duration
	http    *fasthttp.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

var _ Source = (*Client)(nil)

// NewClient builds a client for the site at baseURL.
// Preconditions: ratePerSecond > 0, timeout is the per request network timeout
// Postconditions: Returns a client whose requests share one token bucket
func NewClient(baseURL string, ratePerSecond float64, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	burst := int(ratePerSecond)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http: &fasthttp.Client{
			Name:                userAgent,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		logger:  logger,
	}
}

// SeriesID extracts the numeric series id from a series URL such as https://leafapp.co/scrims/123/matches
func SeriesID(seriesURL string) (string, error) {
	m := seriesIDPattern.FindStringSubmatch(seriesURL)
	if m == nil {
		return "", fmt.Errorf("not a series url: %q", seriesURL)
	}
	return m[1], nil
}

// SeriesMatchesURL is the page listing every game of a series
func (c *Client) SeriesMatchesURL(seriesID string) string {
	return fmt.Sprintf("%s/scrims/%s/matches", c.baseURL, seriesID)
}

// GameExportURL is the per game stat export
func (c *Client) GameExportURL(gameID string) string {
	return fmt.Sprintf("%s/game/%s/csv", c.baseURL, gameID)
}

// ListGameIdentifiers scrapes the series matches page for game ids.
// Preconditions: Receives a series url containing /scrims/<id>
// Postconditions: Returns the distinct game ids in discovery order, or an error if the page could not be fetched
func (c *Client) ListGameIdentifiers(ctx context.Context, seriesURL string) ([]string, error) {
	seriesID, err := SeriesID(seriesURL)
	if err != nil {
		return nil, err
	}

	page, err := c.get(ctx, c.SeriesMatchesURL(seriesID))
	if err != nil {
		return nil, err
	}

	ids := ExtractGameIdentifiers(page)
	c.logger.Debug().Str("series_id", seriesID).Int("games", len(ids)).Msg("discovered series games")
	return ids, nil
}

// ExtractGameIdentifiers pulls the game ids out of a matches page, de-duplicated in order of appearance
func ExtractGameIdentifiers(page []byte) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, m := range gameLinkPattern.FindAllSubmatch(page, -1) {
		id := string(m[1])
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// FetchExport downloads the raw export for one game
func (c *Client) FetchExport(ctx context.Context, gameID string) ([]byte, error) {
	return c.get(ctx, c.GameExportURL(gameID))
}

// get performs one throttled GET. There is no retry; callers decide whether a failure is fatal
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept-Encoding", "gzip")

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, &NetworkError{URL: url, Status: resp.StatusCode()}
	}

	var body []byte
	if bytes.EqualFold(resp.Header.ContentEncoding(), []byte("gzip")) {
		decoded, err := resp.BodyGunzip()
		if err != nil {
			return nil, &NetworkError{URL: url, Err: fmt.Errorf("gzip: %w", err)}
		}
		body = decoded
	} else {
		body = resp.Body()
	}

	// resp is released on return, so the body has to be copied out
	return append([]byte(nil), body...), nil
}
