package courtfinder

import (
	"context"
	"errors"
	"net/url"
	"sync"
)

var errFakeNotAttached = errors.New("element not attached")

type submitFunc func(ctx context.Context, target string, headers map[string]string, body url.Values) (FormResponse, error)

func (f submitFunc) SubmitForm(ctx context.Context, target string, headers map[string]string, body url.Values) (FormResponse, error) {
	return f(ctx, target, headers, body)
}

// fakeBrowser serves a token on the invitation page of every context whose
// state is listed in validStates, and of login contexts once WaitForURL
// returned.
type fakeBrowser struct {
	mu sync.Mutex

	validStates map[string]string
	loginToken  string
	loginState  string
	loginBlocks bool
	// attach failures of the n-th context before the token shows up
	attachFailures []int

	pages []*fakePage
}

func (b *fakeBrowser) NewContext(ctx context.Context, opts ContextOptions) (BrowserContext, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	page := &fakePage{browser: b, opts: opts}
	if opts.State != nil {
		page.token = b.validStates[string(opts.State)]
	}
	if len(b.pages) < len(b.attachFailures) {
		page.failAttach = b.attachFailures[len(b.pages)]
	}
	b.pages = append(b.pages, page)
	return page, nil
}

type fakePage struct {
	browser *fakeBrowser
	opts    ContextOptions

	token       string
	failAttach  int
	visited     []string
	reloads     int
	attachCalls int
	waitedFor   string
	closed      bool
}

func (p *fakePage) SubmitForm(ctx context.Context, target string, headers map[string]string, body url.Values) (FormResponse, error) {
	return FormResponse{Status: 200, Body: "נמצא מגרש פנוי"}, nil
}

func (p *fakePage) Goto(ctx context.Context, target string) error {
	p.visited = append(p.visited, target)
	return nil
}

func (p *fakePage) Reload(ctx context.Context) error {
	p.reloads++
	return nil
}

func (p *fakePage) WaitForURL(ctx context.Context, prefix string) error {
	if p.browser.loginBlocks {
		<-ctx.Done()
		return ctx.Err()
	}
	p.waitedFor = prefix
	p.visited = append(p.visited, prefix)
	p.token = p.browser.loginToken
	return nil
}

func (p *fakePage) WaitForAttached(ctx context.Context, selector string) error {
	p.attachCalls++
	if p.failAttach > 0 {
		p.failAttach--
		return errFakeNotAttached
	}
	if p.token == "" {
		return errFakeNotAttached
	}
	return nil
}

func (p *fakePage) Attribute(ctx context.Context, selector, name string) (string, error) {
	if p.token == "" {
		return "", errFakeNotAttached
	}
	return p.token, nil
}

func (p *fakePage) StorageState(ctx context.Context) ([]byte, error) {
	return []byte(p.browser.loginState), nil
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

type memoryStore struct {
	state   []byte
	deletes int
	saves   int
}

func (s *memoryStore) Exists() bool {
	return s.state != nil
}

func (s *memoryStore) Load() ([]byte, error) {
	if s.state == nil {
		return nil, errors.New("no state")
	}
	return s.state, nil
}

func (s *memoryStore) Save(state []byte) error {
	s.saves++
	s.state = state
	return nil
}

func (s *memoryStore) Delete() error {
	s.deletes++
	s.state = nil
	return nil
}
