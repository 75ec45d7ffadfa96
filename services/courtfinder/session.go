package courtfinder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/codes"
)

var (
	ErrTokenNotFound = errors.New("authenticity_token not found")
	ErrLoginTimeout  = errors.New("timed out waiting for login")
	ErrNavigation    = errors.New("navigation failed")
)

const tokenSelector = `input[name="authenticity_token"]`

type ContextOptions struct {
	Headless bool
	// persisted session state, nil for a fresh session
	State []byte
}

type FormResponse struct {
	Status int
	Body   string
}

type FormSubmitter interface {
	SubmitForm(ctx context.Context, url string, headers map[string]string, body url.Values) (FormResponse, error)
}

// BrowserContext is one authenticated (or not yet authenticated) browsing
// session with a current page.
type BrowserContext interface {
	FormSubmitter

	Goto(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	WaitForURL(ctx context.Context, prefix string) error
	WaitForAttached(ctx context.Context, selector string) error
	Attribute(ctx context.Context, selector, name string) (string, error)
	StorageState(ctx context.Context) ([]byte, error)
	Close() error
}

type Browser interface {
	NewContext(ctx context.Context, opts ContextOptions) (BrowserContext, error)
}

type StateStore interface {
	Exists() bool
	Load() ([]byte, error)
	Save(state []byte) error
	Delete() error
}

// SessionHandle is shared read-only by every search of a scan.
type SessionHandle struct {
	Context   BrowserContext
	AuthToken string
}

func (h SessionHandle) Close() error {
	if h.Context == nil {
		return nil
	}
	return h.Context.Close()
}

type SessionConfig struct {
	LoginUrl  string
	InviteUrl string
	Headful   bool

	LoginTimeout         time.Duration
	ValidateTokenTimeout time.Duration
	LoginTokenTimeout    time.Duration
	ReloadTimeout        time.Duration
}

type SessionManager struct {
	browser Browser
	store   StateStore
	cfg     SessionConfig
}

func NewSessionManager(browser Browser, store StateStore, cfg SessionConfig) SessionManager {
	return SessionManager{
		browser: browser,
		store:   store,
		cfg:     cfg,
	}
}

// Acquire returns a ready session. a persisted session is validated first
// (unless forceLogin is set, which discards it), an invalid one falls through
// to an interactive login. only interactive login failures are returned.
func (m SessionManager) Acquire(ctx context.Context, forceLogin bool) (SessionHandle, error) {
	ctx, span := tracer.Start(ctx, "SessionManager.Acquire")
	defer span.End()

	if forceLogin {
		err := m.store.Delete()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to delete stored session")
			return SessionHandle{}, fmt.Errorf("delete stored session: %w", err)
		}
		slog.InfoContext(ctx, "discarded stored session")
	} else if m.store.Exists() {
		handle, err := m.Validate(ctx)
		if err == nil {
			slog.InfoContext(ctx, "valid session, starting scan")
			return handle, nil
		}
		if ctx.Err() != nil {
			return SessionHandle{}, ctx.Err()
		}
		slog.WarnContext(ctx, "stored session is not valid, logging in", "err", err)
	}

	handle, err := m.login(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "interactive login failed")
		return SessionHandle{}, err
	}
	return handle, nil
}

// Validate loads the persisted session and checks that the protected page
// still hands out a token.
func (m SessionManager) Validate(ctx context.Context) (SessionHandle, error) {
	ctx, span := tracer.Start(ctx, "SessionManager.Validate")
	defer span.End()

	state, err := m.store.Load()
	if err != nil {
		span.SetStatus(codes.Error, "failed to load stored session")
		return SessionHandle{}, fmt.Errorf("load stored session: %w", err)
	}

	page, err := m.browser.NewContext(ctx, ContextOptions{Headless: !m.cfg.Headful, State: state})
	if err != nil {
		span.SetStatus(codes.Error, "failed to open browser context")
		return SessionHandle{}, err
	}

	err = page.Goto(ctx, m.cfg.InviteUrl)
	if err != nil {
		page.Close()
		span.SetStatus(codes.Error, ErrNavigation.Error())
		return SessionHandle{}, fmt.Errorf("%w: %w", ErrNavigation, err)
	}
	token, err := m.extractToken(ctx, page, m.cfg.ValidateTokenTimeout)
	if err != nil {
		page.Close()
		span.SetStatus(codes.Error, err.Error())
		return SessionHandle{}, err
	}
	return SessionHandle{Context: page, AuthToken: token}, nil
}

func (m SessionManager) login(ctx context.Context) (SessionHandle, error) {
	ctx, span := tracer.Start(ctx, "SessionManager.login")
	defer span.End()

	token, state, err := m.loginAndSave(ctx)
	if err != nil {
		return SessionHandle{}, err
	}

	page, err := m.browser.NewContext(ctx, ContextOptions{Headless: !m.cfg.Headful, State: state})
	if err != nil {
		return SessionHandle{}, err
	}
	err = page.Goto(ctx, m.cfg.InviteUrl)
	if err != nil {
		page.Close()
		return SessionHandle{}, fmt.Errorf("%w: %w", ErrNavigation, err)
	}

	fresh, err := m.extractToken(ctx, page, m.cfg.ValidateTokenTimeout)
	if err != nil {
		if ctx.Err() != nil {
			page.Close()
			return SessionHandle{}, ctx.Err()
		}
		slog.WarnContext(ctx, "could not refresh token after login, using the login token", "err", err)
		fresh = token
	}
	return SessionHandle{Context: page, AuthToken: fresh}, nil
}

// loginAndSave drives the visible login and persists the resulting state. it
// returns the token seen on the protected page and the saved state.
func (m SessionManager) loginAndSave(ctx context.Context) (string, []byte, error) {
	page, err := m.browser.NewContext(ctx, ContextOptions{Headless: false})
	if err != nil {
		return "", nil, err
	}
	defer page.Close()

	err = page.Goto(ctx, m.cfg.LoginUrl)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrNavigation, err)
	}

	slog.InfoContext(ctx, "waiting for login", "url", m.cfg.LoginUrl, "timeout", m.cfg.LoginTimeout)
	waitCtx, cancel := context.WithTimeout(ctx, m.cfg.LoginTimeout)
	err = page.WaitForURL(waitCtx, m.cfg.InviteUrl)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return "", nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", nil, fmt.Errorf("%w after %s", ErrLoginTimeout, m.cfg.LoginTimeout)
		}
		return "", nil, fmt.Errorf("login: %w", err)
	}

	token, err := m.extractToken(ctx, page, m.cfg.LoginTokenTimeout)
	if err != nil {
		return "", nil, err
	}

	state, err := page.StorageState(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("read session state: %w", err)
	}
	err = m.store.Save(state)
	if err != nil {
		return "", nil, fmt.Errorf("save session state: %w", err)
	}
	slog.InfoContext(ctx, "session saved")

	return token, state, nil
}

// extractToken reads the authenticity token of the current page, reloading
// the page once if it is not there within `timeout`.
func (m SessionManager) extractToken(ctx context.Context, page BrowserContext, timeout time.Duration) (string, error) {
	ctx, span := tracer.Start(ctx, "SessionManager.extractToken")
	defer span.End()

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	err := page.WaitForAttached(waitCtx, tokenSelector)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		slog.DebugContext(ctx, "token not found, reloading", "err", err)

		reloadCtx, cancel := context.WithTimeout(ctx, m.cfg.ReloadTimeout)
		defer cancel()
		err = page.Reload(reloadCtx)
		if err == nil {
			err = page.WaitForAttached(reloadCtx, tokenSelector)
		}
		if err != nil {
			span.SetStatus(codes.Error, ErrTokenNotFound.Error())
			return "", fmt.Errorf("%w: %w", ErrTokenNotFound, err)
		}
	}

	token, err := page.Attribute(ctx, tokenSelector, "value")
	if err != nil {
		span.SetStatus(codes.Error, ErrTokenNotFound.Error())
		return "", fmt.Errorf("%w: %w", ErrTokenNotFound, err)
	}
	if token == "" {
		span.SetStatus(codes.Error, ErrTokenNotFound.Error())
		return "", ErrTokenNotFound
	}
	return token, nil
}
