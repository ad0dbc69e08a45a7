// Package transifex is a read-only client for the parts of the Transifex
// API that txsync needs: per-resource statistics, the list of languages of
// a resource and the translated content of one language.
package transifex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/txsync/locale"
)

// Default API roots.
const (
	DefaultAPIURL      = "https://www.transifex.com/api/2"
	DefaultStatsAPIURL = "https://api.transifex.com"
)

// Stat types reported per locale.
const (
	StatTranslated = "translated"
	StatReviewed   = "reviewed_1"
)

// Stat is one completion figure, Percentage is a fraction in [0, 1].
type Stat struct {
	Percentage float64 `json:"percentage"`
}

// ResourceStats maps an underscore-form locale code to its stats by type.
type ResourceStats map[string]map[string]Stat

// Options configures a Client.
type Options struct {
	APIURL       string
	StatsAPIURL  string
	Organization string
	Project      string
	User         string
	Password     string
	Timeout      time.Duration
	Logger       *zap.Logger
}

// Client talks to the Transifex API. It holds no per-run state and is safe
// for concurrent use.
type Client struct {
	http         *resty.Client
	apiURL       string
	statsURL     string
	organization string
	project      string
	log          *zap.Logger
}

// New creates a client.
func New(opts Options) *Client {
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	if opts.StatsAPIURL == "" {
		opts.StatsAPIURL = DefaultStatsAPIURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	h := resty.New().
		SetTimeout(opts.Timeout).
		SetBasicAuth(opts.User, opts.Password).
		SetHeader("Accept", "application/json")

	return &Client{
		http:         h,
		apiURL:       strings.TrimRight(opts.APIURL, "/"),
		statsURL:     strings.TrimRight(opts.StatsAPIURL, "/"),
		organization: opts.Organization,
		project:      opts.Project,
		log:          opts.Logger,
	}
}

// ---------------------------------------------------------------------------
// Endpoints
// ---------------------------------------------------------------------------

// ResourceStats fetches the per-locale completion stats of a resource.
func (c *Client) ResourceStats(ctx context.Context, resourceID string) (ResourceStats, error) {
	u := fmt.Sprintf("%s/organizations/%s/projects/%s/resources/%s",
		c.statsURL, url.PathEscape(c.organization), url.PathEscape(c.project), url.PathEscape(resourceID))

	var body struct {
		Stats ResourceStats `json:"stats"`
	}
	if err := c.getJSON(ctx, u, &body); err != nil {
		return nil, err
	}
	if body.Stats == nil {
		body.Stats = ResourceStats{}
	}
	return body.Stats, nil
}

// Languages lists the locales available for a resource, in hyphen form.
// The source locale is left out since it is authored locally.
func (c *Client) Languages(ctx context.Context, resourceID string, sourceLocale locale.Code) ([]locale.Code, error) {
	u := c.resourceURL(resourceID) + "?details"

	var body struct {
		AvailableLanguages *[]struct {
			Code string `json:"code"`
		} `json:"available_languages"`
	}
	if err := c.getJSON(ctx, u, &body); err != nil {
		return nil, err
	}
	if body.AvailableLanguages == nil {
		return nil, &ParseError{URL: u, Err: errors.New("missing available_languages")}
	}

	codes := make([]locale.Code, 0, len(*body.AvailableLanguages))
	for _, l := range *body.AvailableLanguages {
		code := locale.FromRemote(l.Code)
		if code == "" || code == sourceLocale {
			continue
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// Translation fetches the content of one locale of a resource. With
// reviewed set only reviewed strings are returned. The content is the
// mapping found under the locale's own top-level key.
func (c *Client) Translation(ctx context.Context, resourceID string, code locale.Code, reviewed bool) (map[string]any, error) {
	remote := locale.ToRemote(code)
	u := c.resourceURL(resourceID) + "/translation/" + url.PathEscape(remote)
	if reviewed {
		u += "?mode=reviewed"
	}

	var body struct {
		Content *string `json:"content"`
	}
	if err := c.getJSON(ctx, u, &body); err != nil {
		return nil, err
	}
	if body.Content == nil {
		return nil, &ParseError{URL: u, Err: errors.New("missing content")}
	}

	var doc map[string]any
	if err := yaml.Unmarshal([]byte(*body.Content), &doc); err != nil {
		return nil, &ParseError{URL: u, Err: fmt.Errorf("content: %w", err)}
	}

	content, err := localeContent(doc[remote])
	if err != nil {
		return nil, &ParseError{URL: u, Err: err}
	}
	return content, nil
}

func (c *Client) resourceURL(resourceID string) string {
	return fmt.Sprintf("%s/project/%s/resource/%s", c.apiURL, url.PathEscape(c.project), url.PathEscape(resourceID))
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	resp, err := c.http.R().SetContext(ctx).Get(u)
	if err != nil {
		c.log.Warn("request failed", zap.String("url", u), zap.Error(err))
		return &TransportError{URL: u, Err: err}
	}

	c.log.Info("fetched", zap.Int("status", resp.StatusCode()), zap.String("url", u))

	if resp.IsError() {
		return &TransportError{
			URL:        u,
			StatusCode: resp.StatusCode(),
			Err:        errors.New(truncate(strings.TrimSpace(resp.String()), 200)),
		}
	}

	if err := json.Unmarshal(resp.Body(), v); err != nil {
		return &ParseError{URL: u, Err: err}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Content helpers
// ---------------------------------------------------------------------------

// localeContent converts the decoded YAML value under a locale key into a
// JSON-encodable mapping. A missing or empty value yields an empty mapping.
func localeContent(v any) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	m, ok := normalize(v).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("content: expected a mapping, got %T", v)
	}
	return m, nil
}

// normalize rewrites mappings with non-string keys, which YAML allows and
// JSON does not, into string-keyed maps.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalize(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = normalize(val)
		}
		return t
	default:
		return v
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
