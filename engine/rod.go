package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// RodSession adapts a connected rod.Browser to Session.
type RodSession struct {
	browser *rod.Browser
	router  *rod.HijackRouter

	mu      sync.Mutex
	current Page
}

// NewRodSession wraps browser with page as the initial current tab. Any other
// tab already open (Chrome's default blank tab) is closed so the session
// starts in single-tab state. router, when non-nil, is stopped on Close.
func NewRodSession(browser *rod.Browser, page *rod.Page, router *rod.HijackRouter) (*RodSession, error) {
	pages, err := browser.Pages()
	if err != nil {
		return nil, fmt.Errorf("engine: list pages: %w", err)
	}
	for _, p := range pages {
		if p.TargetID == page.TargetID {
			continue
		}
		if err := p.Close(); err != nil {
			slog.Debug("engine: could not close stray tab", "target", p.TargetID, "error", err)
		}
	}
	return &RodSession{
		browser: browser,
		router:  router,
		current: &RodPage{page: page},
	}, nil
}

func (s *RodSession) Current() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *RodSession) Pages(ctx context.Context) ([]Page, error) {
	pages, err := s.browser.Context(ctx).Pages()
	if err != nil {
		return nil, classify(err)
	}
	out := make([]Page, 0, len(pages))
	for _, p := range pages {
		out = append(out, &RodPage{page: p})
	}
	return out, nil
}

func (s *RodSession) SwitchTo(ctx context.Context, p Page) error {
	if err := p.Activate(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.current = p
	s.mu.Unlock()
	return nil
}

// Close stops request hijacking and kills the browser process.
func (s *RodSession) Close() error {
	if s.router != nil {
		_ = s.router.Stop()
	}
	return s.browser.Close()
}

// RodPage adapts a rod.Page to Page.
type RodPage struct {
	page *rod.Page
}

// NewRodPage wraps p.
func NewRodPage(p *rod.Page) *RodPage { return &RodPage{page: p} }

func (p *RodPage) ID() string { return string(p.page.TargetID) }

func (p *RodPage) URL(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", classify(err)
	}
	return info.URL, nil
}

func (p *RodPage) Find(ctx context.Context, loc Locator) ([]Element, error) {
	pg := p.page.Context(ctx)
	var (
		els rod.Elements
		err error
	)
	switch loc.By {
	case ByXPath:
		els, err = pg.ElementsX(loc.Expr)
	case ByCSS:
		els, err = pg.Elements(loc.Expr)
	default:
		return nil, fmt.Errorf("%w: locator %s", ErrUnsupported, loc)
	}
	if err != nil {
		return nil, classify(err)
	}
	return wrapElements(els), nil
}

func (p *RodPage) Wait(ctx context.Context, loc Locator, timeout time.Duration) (Element, error) {
	return Poll(ctx, loc, timeout, func(ctx context.Context) ([]Element, error) {
		return p.Find(ctx, loc)
	}, nil)
}

func (p *RodPage) WaitClickable(ctx context.Context, loc Locator, timeout time.Duration) (Element, error) {
	return Poll(ctx, loc, timeout, func(ctx context.Context) ([]Element, error) {
		return p.Find(ctx, loc)
	}, clickable)
}

func (p *RodPage) Navigate(ctx context.Context, url string) error {
	pg := p.page.Context(ctx)
	if err := pg.Navigate(url); err != nil {
		return classify(err)
	}
	return classify(pg.WaitLoad())
}

func (p *RodPage) Back(ctx context.Context) error {
	pg := p.page.Context(ctx)
	if err := pg.NavigateBack(); err != nil {
		return classify(err)
	}
	return classify(pg.WaitLoad())
}

func (p *RodPage) WaitStable(ctx context.Context, d time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, 10*d)
	defer cancel()
	err := p.page.Context(waitCtx).WaitDOMStable(d, 0.1)
	if waitTimedOut(ctx, err) {
		// The DOM never converged; proceed with what is rendered.
		return nil
	}
	return classify(err)
}

func (p *RodPage) HTML(ctx context.Context) (string, error) {
	html, err := p.page.Context(ctx).HTML()
	return html, classify(err)
}

func (p *RodPage) Screenshot(ctx context.Context) ([]byte, error) {
	return p.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

func (p *RodPage) Activate(ctx context.Context) error {
	_, err := p.page.Context(ctx).Activate()
	return classify(err)
}

func (p *RodPage) Close(ctx context.Context) error {
	return classify(p.page.Context(ctx).Close())
}

// RodElement adapts a rod.Element to Element.
type RodElement struct {
	el *rod.Element
}

func wrapElements(els rod.Elements) []Element {
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &RodElement{el: el})
	}
	return out
}

func (e *RodElement) Find(ctx context.Context, loc Locator) ([]Element, error) {
	el := e.el.Context(ctx)
	var (
		els rod.Elements
		err error
	)
	switch loc.By {
	case ByXPath:
		els, err = el.ElementsX(loc.Expr)
	case ByCSS:
		els, err = el.Elements(loc.Expr)
	default:
		return nil, fmt.Errorf("%w: locator %s", ErrUnsupported, loc)
	}
	if err != nil {
		return nil, classify(err)
	}
	return wrapElements(els), nil
}

func (e *RodElement) Wait(ctx context.Context, loc Locator, timeout time.Duration) (Element, error) {
	return Poll(ctx, loc, timeout, func(ctx context.Context) ([]Element, error) {
		return e.Find(ctx, loc)
	}, nil)
}

func (e *RodElement) WaitClickable(ctx context.Context, loc Locator, timeout time.Duration) (Element, error) {
	return Poll(ctx, loc, timeout, func(ctx context.Context) ([]Element, error) {
		return e.Find(ctx, loc)
	}, clickable)
}

func (e *RodElement) Text(ctx context.Context) (string, error) {
	text, err := e.el.Context(ctx).Text()
	return text, classify(err)
}

func (e *RodElement) Attribute(ctx context.Context, name string) (string, error) {
	v, err := e.el.Context(ctx).Attribute(name)
	if err != nil {
		return "", classify(err)
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

func (e *RodElement) Property(ctx context.Context, name string) (string, error) {
	v, err := e.el.Context(ctx).Property(name)
	if err != nil {
		return "", classify(err)
	}
	if v.Nil() {
		return "", nil
	}
	return v.Str(), nil
}

func (e *RodElement) HTML(ctx context.Context) (string, error) {
	html, err := e.el.Context(ctx).HTML()
	return html, classify(err)
}

func (e *RodElement) Click(ctx context.Context) error {
	return classify(e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1))
}

func (e *RodElement) ScriptClick(ctx context.Context) error {
	_, err := e.el.Context(ctx).Eval(`() => this.click()`)
	return classify(err)
}

func (e *RodElement) Eval(ctx context.Context, js string) (string, error) {
	res, err := e.el.Context(ctx).Eval(js)
	if err != nil {
		return "", classify(err)
	}
	if res.Value.Nil() {
		return "", nil
	}
	return res.Value.Str(), nil
}

// clickable accepts visible elements that are not disabled.
func clickable(ctx context.Context, el Element) bool {
	re, ok := el.(*RodElement)
	if !ok {
		return true
	}
	visible, err := re.el.Context(ctx).Visible()
	if err != nil || !visible {
		return false
	}
	res, err := re.el.Context(ctx).Eval(`() => !this.disabled`)
	return err == nil && res.Value.Bool()
}
