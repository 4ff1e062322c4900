package bitdegree

import (
	"bytes"
	"context"
	"errors"
	"exchangestats/internal/components/telemetry"
	"exchangestats/lib/restyutil"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_fetch = "client.fetch"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// ErrOffsite is returned when a url points outside of the allowed domain.
var ErrOffsite = errors.New("url is outside of the allowed domain")

// StatusError is returned when the server responds with a non 2xx/3xx status.
type StatusError struct {
	Url    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.Url, e.Status)
}

type ClientOptions struct {
	BaseUrl string
	// AllowedDomain restricts requests to this domain and its subdomains,
	// if empty the host of BaseUrl is used.
	AllowedDomain string
	UserAgent     string
	Timeout       time.Duration
	// RequestsPerSecond <= 0 disables rate limiting.
	RequestsPerSecond float64
	Burst             int
	RetryCount        int
	RetryWait         time.Duration
	CloudflareBypass  bool
	// Instrument receives full http messages when debug logging is enabled, can be nil.
	Instrument restyutil.InstrumentOutput
}

// Client fetches pages of a single site.
type Client struct {
	BaseUrl       *url.URL
	Http          *resty.Client
	allowedDomain string
	tel           telemetry.API
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	tel = telemetry.NewScopedAPI("bitdegree", tel)

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	if baseUrl.Hostname() == "" {
		return nil, fmt.Errorf("base url %q has no host", opts.BaseUrl)
	}

	allowedDomain := strings.ToLower(opts.AllowedDomain)
	if allowedDomain == "" {
		allowedDomain = strings.ToLower(baseUrl.Hostname())
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Second * 30
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	httpClient.SetHeader("user-agent", userAgent)
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(
		baseUrl.Hostname(),
		allowedDomain,
		"www."+allowedDomain,
	))
	httpClient.SetTimeout(timeout)

	if opts.RetryCount > 0 {
		httpClient.SetRetryCount(opts.RetryCount)
		if opts.RetryWait > 0 {
			httpClient.SetRetryWaitTime(opts.RetryWait)
		}
		httpClient.AddRetryCondition(func(res *resty.Response, err error) bool {
			if res == nil {
				return err != nil
			}
			return res.StatusCode() == 429 || res.StatusCode() >= 500
		})
	}

	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	restyutil.InstrumentClient(httpClient, tracer, opts.Instrument)
	telemetry.InstrumentResty(httpClient, tel)

	return &Client{
		BaseUrl:       baseUrl,
		Http:          httpClient,
		allowedDomain: allowedDomain,
		tel:           tel,
	}, nil
}

// HostAllowed reports whether host is domain or one of its subdomains,
// every host is allowed by an empty domain.
func HostAllowed(host, domain string) bool {
	if domain == "" {
		return true
	}
	host = strings.ToLower(host)
	domain = strings.ToLower(domain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func (c *Client) allowed(link *url.URL) bool {
	return HostAllowed(link.Hostname(), c.allowedDomain)
}

// Fetch requests a page and parses it, relative links are resolved against
// the base url.
func (c *Client) Fetch(ctx context.Context, link string) (*goquery.Document, error) {
	parsed, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	parsed = c.BaseUrl.ResolveReference(parsed)
	if !c.allowed(parsed) {
		c.tel.ReportWarning(report_client_fetch, ErrOffsite, parsed.String())
		return nil, fmt.Errorf("fetch %s: %w", parsed.String(), ErrOffsite)
	}

	endpoint := parsed.String()
	c.tel.ReportDebug(report_client_fetch, endpoint)

	res, err := c.Http.R().
		SetContext(ctx).
		Get(endpoint)
	if err != nil {
		c.tel.ReportBroken(
			report_client_fetch,
			fmt.Errorf("fetch: %w", err),
			endpoint,
		)
		return nil, err
	}
	if res.IsError() {
		err := &StatusError{Url: endpoint, Status: res.StatusCode()}
		c.tel.ReportBroken(report_client_fetch, err)
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		c.tel.ReportBroken(
			report_client_fetch,
			fmt.Errorf("parse: %w", err),
			endpoint,
		)
		return nil, err
	}
	doc.Url = parsed

	return doc, nil
}
