package browser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"courtfinder/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("courtfinder/lib/browser")

var (
	ErrNotAttached    = errors.New("element not attached")
	ErrNoPage         = errors.New("no page has been loaded")
	ErrNoCredentials  = errors.New("login form found but no credentials are available")
	ErrLoginRejected  = errors.New("login was rejected")
	ErrClosed         = errors.New("browser context is closed")
	ErrUnexpectedPage = errors.New("page is neither the expected page nor a login form")
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

const maxLoginAttempts = 3

type Credentials struct {
	Username string
	Password string
}

func (c Credentials) complete() bool {
	return c.Username != "" && c.Password != ""
}

type Options struct {
	BaseUrl   string
	UserAgent string
	// per request timeout, defaults to 30 seconds
	Timeout     time.Duration
	Credentials Credentials
	// only consulted by headful contexts
	Prompter Prompter
	// debug dumps of every http exchange, optional
	Output restyutil.InstrumentOutput
}

// Browser creates isolated http sessions (contexts) against a single site.
type Browser struct {
	opts    Options
	baseUrl *url.URL
}

func New(opts Options) (*Browser, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	if baseUrl.Scheme == "" || baseUrl.Host == "" {
		return nil, fmt.Errorf("base url must be absolute: %q", opts.BaseUrl)
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Browser{opts: opts, baseUrl: baseUrl}, nil
}

type ContextOptions struct {
	Headless bool
	// storage state previously returned by Context.StorageState
	State []byte
}

// Context is one cookie session with a "current page", the last html
// document navigated to.
type Context struct {
	browser  *Browser
	http     *resty.Client
	jar      *recordingJar
	headless bool

	mu          sync.Mutex
	doc         *goquery.Document
	currentUrl  string
	credentials Credentials
	closed      bool
}

func (b *Browser) NewContext(ctx context.Context, opts ContextOptions) (*Context, error) {
	ctx, span := tracer.Start(ctx, "NewContext")
	defer span.End()

	state, err := ParseStorageState(opts.State)
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse storage state")
		return nil, fmt.Errorf("parse storage state: %w", err)
	}

	jar, err := newRecordingJar()
	if err != nil {
		return nil, err
	}
	jar.restore(state, b.baseUrl.Scheme)
	span.SetAttributes(attribute.Int("restored_cookies", len(state.Cookies)))

	client := resty.New()
	client.SetBaseURL(b.opts.BaseUrl)
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", b.opts.UserAgent)
	client.SetRedirectPolicy(
		resty.FlexibleRedirectPolicy(10),
		resty.DomainCheckRedirectPolicy(b.baseUrl.Hostname()),
	)
	client.SetTimeout(b.opts.Timeout)

	restyutil.InstrumentClient(client, tracer, b.opts.Output)

	slog.DebugContext(ctx, "opened browser context", "headless", opts.Headless, "cookies", len(state.Cookies))

	return &Context{
		browser:     b,
		http:        client,
		jar:         jar,
		headless:    opts.Headless,
		credentials: b.opts.Credentials,
	}, nil
}

func (c *Context) Headless() bool {
	return c.headless
}

func (c *Context) URL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentUrl
}

func (c *Context) page() (*goquery.Document, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, "", ErrClosed
	}
	if c.doc == nil {
		return nil, "", ErrNoPage
	}
	return c.doc, c.currentUrl, nil
}

func (c *Context) load(ctx context.Context, res *resty.Response) error {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return err
	}

	finalUrl := res.Request.URL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		finalUrl = res.RawResponse.Request.URL.String()
	}

	c.mu.Lock()
	c.doc = doc
	c.currentUrl = finalUrl
	c.mu.Unlock()

	if !c.headless {
		slog.InfoContext(ctx, "navigated", "url", finalUrl, "status", res.StatusCode())
	} else {
		slog.DebugContext(ctx, "navigated", "url", finalUrl, "status", res.StatusCode())
	}
	return nil
}

// Goto loads `target` (absolute or relative to the base url) and makes it the
// current page. http error statuses are not errors, like a real browser the
// page is simply whatever the server returned.
func (c *Context) Goto(ctx context.Context, target string) error {
	ctx, span := tracer.Start(ctx, "Goto")
	defer span.End()
	span.SetAttributes(attribute.String("url", target))

	if c.isClosed() {
		return ErrClosed
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		Get(target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch page")
		return fmt.Errorf("navigate to %s: %w", target, err)
	}
	err = c.load(ctx, res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse page")
		return fmt.Errorf("parse %s: %w", target, err)
	}
	return nil
}

func (c *Context) Reload(ctx context.Context) error {
	_, current, err := c.page()
	if err != nil {
		return err
	}
	return c.Goto(ctx, current)
}

// WaitForAttached succeeds if `selector` matches an element of the current
// page. pages are static documents so there is nothing to wait for, a missing
// element fails immediately.
func (c *Context) WaitForAttached(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, current, err := c.page()
	if err != nil {
		return err
	}
	if doc.Find(selector).Length() == 0 {
		return fmt.Errorf("%w: %s on %s", ErrNotAttached, selector, current)
	}
	return nil
}

func (c *Context) Attribute(ctx context.Context, selector, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	doc, current, err := c.page()
	if err != nil {
		return "", err
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", fmt.Errorf("%w: %s on %s", ErrNotAttached, selector, current)
	}
	return sel.AttrOr(name, ""), nil
}

func (c *Context) StorageState(ctx context.Context) ([]byte, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}
	state := c.jar.state()
	slog.DebugContext(ctx, "serialized storage state", "cookies", len(state.Cookies))
	return json.MarshalIndent(state, "", "  ")
}

type Response struct {
	Status int
	Body   string
}

// SubmitForm posts an url-encoded form with the cookies of this context. it
// does not change the current page.
func (c *Context) SubmitForm(ctx context.Context, target string, headers map[string]string, body url.Values) (Response, error) {
	if c.isClosed() {
		return Response{}, ErrClosed
	}

	req := c.http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/x-www-form-urlencoded").
		SetHeaders(headers).
		SetBody(body.Encode())
	res, err := req.Post(target)
	if err != nil {
		return Response{}, err
	}
	return Response{Status: res.StatusCode(), Body: res.String()}, nil
}

func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.doc = nil
	c.http.GetClient().CloseIdleConnections()
	return nil
}

func (c *Context) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func hasUrlPrefix(current, prefix string) bool {
	return strings.HasPrefix(current, prefix)
}
