package courtfinder

import (
	"context"
	"net/url"

	"courtfinder/lib/browser"
	"courtfinder/lib/restyutil"
)

// HttpBrowser runs sessions on the resty based browser.
type HttpBrowser struct {
	browser *browser.Browser
}

func NewHttpBrowser(b *browser.Browser) HttpBrowser {
	return HttpBrowser{browser: b}
}

func (b HttpBrowser) NewContext(ctx context.Context, opts ContextOptions) (BrowserContext, error) {
	page, err := b.browser.NewContext(ctx, browser.ContextOptions{
		Headless: opts.Headless,
		State:    opts.State,
	})
	if err != nil {
		return nil, err
	}
	return httpContext{Context: page}, nil
}

type httpContext struct {
	*browser.Context
}

func (c httpContext) SubmitForm(ctx context.Context, target string, headers map[string]string, body url.Values) (FormResponse, error) {
	res, err := c.Context.SubmitForm(ctx, target, headers, body)
	if err != nil {
		return FormResponse{}, err
	}
	return FormResponse{Status: res.Status, Body: res.Body}, nil
}

// NewServiceFromConfig wires a Service on top of the http browser and the
// file state store.
func NewServiceFromConfig(cfg Config, prompter browser.Prompter, output restyutil.InstrumentOutput) (Service, error) {
	b, err := browser.New(browser.Options{
		BaseUrl:   cfg.Site.BaseUrl,
		UserAgent: cfg.Site.UserAgent,
		Timeout:   seconds(cfg.Timeouts.Request),
		Credentials: browser.Credentials{
			Username: cfg.Credentials.Username,
			Password: cfg.Credentials.Password,
		},
		Prompter: prompter,
		Output:   output,
	})
	if err != nil {
		return Service{}, err
	}
	store := NewFileStateStore(cfg.StatePath)
	sessions := NewSessionManager(NewHttpBrowser(b), store, cfg.Session())
	return NewService(sessions, store, cfg), nil
}
