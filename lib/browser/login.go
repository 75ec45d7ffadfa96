package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"courtfinder/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func loginForm(doc *goquery.Document) *goquery.Selection {
	return doc.Find("form:has(input[type=password])").First()
}

// WaitForURL blocks until the current page's url starts with `prefix`.
//
// whenever the current page is a login form it is filled in with the
// configured credentials, or in a headful context, with credentials asked
// from the prompter. any other page is left by navigating to `prefix`
// directly (once per login attempt). the wait is bounded by ctx.
func (c *Context) WaitForURL(ctx context.Context, prefix string) error {
	ctx, span := tracer.Start(ctx, "WaitForURL")
	defer span.End()
	span.SetAttributes(attribute.String("prefix", prefix))

	attempts := 0
	navigated := false
	for {
		err := ctx.Err()
		if err != nil {
			span.SetStatus(codes.Error, "wait expired")
			return err
		}
		doc, current, err := c.page()
		if err != nil {
			return err
		}
		if hasUrlPrefix(current, prefix) {
			return nil
		}

		form := loginForm(doc)
		if form.Length() == 0 {
			if navigated {
				span.SetStatus(codes.Error, ErrUnexpectedPage.Error())
				title := htmlutil.SelectionText(doc.Find("title"))
				return fmt.Errorf("%w: %s (%q)", ErrUnexpectedPage, current, title)
			}
			navigated = true
			err = c.Goto(ctx, prefix)
			if err != nil {
				return err
			}
			continue
		}

		if attempts >= maxLoginAttempts {
			span.SetStatus(codes.Error, ErrLoginRejected.Error())
			return ErrLoginRejected
		}
		creds, err := c.loginCredentials(ctx, attempts > 0)
		if err != nil {
			span.SetStatus(codes.Error, "no credentials")
			return err
		}
		err = c.submitLogin(ctx, form, current, creds)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to submit login form")
			return err
		}
		attempts++
		navigated = false
	}
}

func (c *Context) loginCredentials(ctx context.Context, retry bool) (Credentials, error) {
	c.mu.Lock()
	creds := c.credentials
	c.mu.Unlock()

	if !retry && creds.complete() {
		return creds, nil
	}

	prompter := c.browser.opts.Prompter
	if c.headless || prompter == nil {
		if retry {
			return Credentials{}, ErrLoginRejected
		}
		return Credentials{}, ErrNoCredentials
	}
	if retry {
		slog.WarnContext(ctx, "login was rejected, try again")
	}

	var err error
	if retry || creds.Username == "" {
		creds.Username, err = prompter.Prompt(ctx, "username:", false)
		if err != nil {
			return Credentials{}, err
		}
	}
	if retry || creds.Password == "" {
		creds.Password, err = prompter.Prompt(ctx, "password:", true)
		if err != nil {
			return Credentials{}, err
		}
	}

	c.mu.Lock()
	c.credentials = creds
	c.mu.Unlock()
	return creds, nil
}

func formValues(form *goquery.Selection, creds Credentials) url.Values {
	values := url.Values{}
	form.Find("input[name]").Each(func(_ int, in *goquery.Selection) {
		name := in.AttrOr("name", "")
		value := in.AttrOr("value", "")
		switch strings.ToLower(in.AttrOr("type", "text")) {
		case "submit", "button", "image", "reset", "file":
			return
		case "checkbox", "radio":
			_, checked := in.Attr("checked")
			if !checked {
				return
			}
			if value == "" {
				value = "on"
			}
		}
		values.Add(name, value)
	})

	username := form.Find(
		"input[name][type=text], input[name][type=email], input[name][type=tel], input[name]:not([type])",
	).First().AttrOr("name", "")
	if username != "" {
		values.Set(username, creds.Username)
	}
	password := form.Find("input[name][type=password]").First().AttrOr("name", "")
	if password != "" {
		values.Set(password, creds.Password)
	}
	return values
}

func (c *Context) submitLogin(ctx context.Context, form *goquery.Selection, pageUrl string, creds Credentials) error {
	base, err := url.Parse(pageUrl)
	if err != nil {
		return err
	}
	action, err := url.Parse(form.AttrOr("action", ""))
	if err != nil {
		return err
	}
	target := base.ResolveReference(action).String()
	values := formValues(form, creds)

	slog.InfoContext(ctx, "submitting login form", "url", target, "username", creds.Username)

	req := c.http.R().
		SetContext(ctx).
		SetHeader("referer", pageUrl)
	if strings.EqualFold(form.AttrOr("method", "get"), "post") {
		req.SetHeader("content-type", "application/x-www-form-urlencoded").
			SetBody(values.Encode())
		res, err := req.Post(target)
		if err != nil {
			return err
		}
		return c.load(ctx, res)
	}

	res, err := req.SetQueryString(values.Encode()).Get(target)
	if err != nil {
		return err
	}
	return c.load(ctx, res)
}
