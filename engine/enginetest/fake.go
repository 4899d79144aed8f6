// Package enginetest provides an in-memory engine.Session for tests. Elements
// are registered per locator string; waits make exactly one attempt so tests
// never sleep.
package enginetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/use-agent/rerascrape/engine"
)

// Element is a scripted DOM node.
type Element struct {
	mu sync.Mutex

	TextValue  string
	Attrs      map[string]string
	Props      map[string]string
	OuterHTML  string
	EvalResult string
	Hidden     bool

	// OnClick runs for both native and script clicks unless OnScriptClick
	// is set.
	OnClick       func(ctx context.Context) error
	OnScriptClick func(ctx context.Context) error

	children map[string][]*Element
	stale    bool

	Clicks       int
	ScriptClicks int
}

// NewElement returns an element with the given text.
func NewElement(text string) *Element {
	return &Element{
		TextValue: text,
		Attrs:     map[string]string{},
		Props:     map[string]string{},
		children:  map[string][]*Element{},
	}
}

// WithAttr sets an attribute and returns e.
func (e *Element) WithAttr(name, value string) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Attrs[name] = value
	return e
}

// WithHTML sets the outer HTML and returns e.
func (e *Element) WithHTML(html string) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.OuterHTML = html
	return e
}

// Add registers children under loc and returns e.
func (e *Element) Add(loc engine.Locator, children ...*Element) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.children[loc.String()] = append(e.children[loc.String()], children...)
	return e
}

// SetStale makes every subsequent call fail with engine.ErrStale.
func (e *Element) SetStale(stale bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stale = stale
}

func (e *Element) check() error {
	if e.stale {
		return fmt.Errorf("%w: fake element", engine.ErrStale)
	}
	return nil
}

func (e *Element) Find(ctx context.Context, loc engine.Locator) ([]engine.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return nil, err
	}
	return toElements(e.children[loc.String()]), nil
}

func (e *Element) Wait(ctx context.Context, loc engine.Locator, timeout time.Duration) (engine.Element, error) {
	return engine.Poll(ctx, loc, 0, func(ctx context.Context) ([]engine.Element, error) {
		return e.Find(ctx, loc)
	}, nil)
}

func (e *Element) WaitClickable(ctx context.Context, loc engine.Locator, timeout time.Duration) (engine.Element, error) {
	return engine.Poll(ctx, loc, 0, func(ctx context.Context) ([]engine.Element, error) {
		return e.Find(ctx, loc)
	}, visible)
}

func (e *Element) Text(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return "", err
	}
	return e.TextValue, nil
}

func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return "", err
	}
	return e.Attrs[name], nil
}

func (e *Element) Property(ctx context.Context, name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return "", err
	}
	if v, ok := e.Props[name]; ok {
		return v, nil
	}
	return e.Attrs[name], nil
}

func (e *Element) HTML(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return "", err
	}
	return e.OuterHTML, nil
}

func (e *Element) Click(ctx context.Context) error {
	e.mu.Lock()
	if err := e.check(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.Clicks++
	fn := e.OnClick
	e.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return nil
}

func (e *Element) ScriptClick(ctx context.Context) error {
	e.mu.Lock()
	if err := e.check(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.ScriptClicks++
	fn := e.OnScriptClick
	if fn == nil {
		fn = e.OnClick
	}
	e.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return nil
}

func (e *Element) Eval(ctx context.Context, js string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return "", err
	}
	return e.EvalResult, nil
}

func visible(_ context.Context, el engine.Element) bool {
	fe, ok := el.(*Element)
	if !ok {
		return true
	}
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return !fe.Hidden
}

func toElements(els []*Element) []engine.Element {
	out := make([]engine.Element, 0, len(els))
	for _, el := range els {
		out = append(out, el)
	}
	return out
}

// Page is a scripted tab.
type Page struct {
	mu sync.Mutex

	id       string
	elements map[string][]*Element
	session  *Session

	HTMLValue string
	URLValue  string

	// OnNavigate runs after every Navigate; tests use it to re-render.
	OnNavigate func(p *Page, url string)

	// OnBack runs after every Back.
	OnBack func(p *Page)

	// NavigateErr, when set, is returned by Navigate.
	NavigateErr error

	// WaitErr and WaitClickableErr, when set, are returned by Wait and
	// WaitClickable respectively.
	WaitErr          error
	WaitClickableErr error

	urlFailures int

	Navigations []string
	Backs       int
	Activations int
	Screenshots int
}

// NewPage returns an empty tab.
func NewPage(id string) *Page {
	return &Page{id: id, elements: map[string][]*Element{}}
}

// Set replaces the elements matching loc.
func (p *Page) Set(loc engine.Locator, els ...*Element) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elements[loc.String()] = els
	return p
}

func (p *Page) ID() string { return p.id }

func (p *Page) URL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.urlFailures > 0 {
		p.urlFailures--
		return "", errors.New("enginetest: url unavailable")
	}
	return p.URLValue, nil
}

// FailURL makes the next n URL calls fail.
func (p *Page) FailURL(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.urlFailures = n
}

// SetURL simulates an in-place navigation.
func (p *Page) SetURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.URLValue = url
}

func (p *Page) Find(ctx context.Context, loc engine.Locator) ([]engine.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return toElements(p.elements[loc.String()]), nil
}

func (p *Page) Wait(ctx context.Context, loc engine.Locator, timeout time.Duration) (engine.Element, error) {
	if err := p.injected(&p.WaitErr); err != nil {
		return nil, err
	}
	return engine.Poll(ctx, loc, 0, func(ctx context.Context) ([]engine.Element, error) {
		return p.Find(ctx, loc)
	}, nil)
}

func (p *Page) WaitClickable(ctx context.Context, loc engine.Locator, timeout time.Duration) (engine.Element, error) {
	if err := p.injected(&p.WaitClickableErr); err != nil {
		return nil, err
	}
	return engine.Poll(ctx, loc, 0, func(ctx context.Context) ([]engine.Element, error) {
		return p.Find(ctx, loc)
	}, visible)
}

func (p *Page) injected(err *error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return *err
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	if p.NavigateErr != nil {
		err := p.NavigateErr
		p.mu.Unlock()
		return err
	}
	p.Navigations = append(p.Navigations, url)
	p.URLValue = url
	fn := p.OnNavigate
	p.mu.Unlock()
	if fn != nil {
		fn(p, url)
	}
	return nil
}

func (p *Page) Back(ctx context.Context) error {
	p.mu.Lock()
	p.Backs++
	fn := p.OnBack
	p.mu.Unlock()
	if fn != nil {
		fn(p)
	}
	return nil
}

// BackCount returns how many times Back was called.
func (p *Page) BackCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Backs
}

func (p *Page) WaitStable(ctx context.Context, d time.Duration) error { return nil }

func (p *Page) HTML(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.HTMLValue, nil
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Screenshots++
	return []byte("png"), nil
}

func (p *Page) Activate(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Activations++
	return nil
}

func (p *Page) Close(ctx context.Context) error {
	p.mu.Lock()
	s := p.session
	p.mu.Unlock()
	if s != nil {
		s.remove(p)
	}
	return nil
}

// NavigationCount returns how many times Navigate succeeded.
func (p *Page) NavigationCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Navigations)
}

// Session is a scripted browser.
type Session struct {
	mu      sync.Mutex
	pages   []*Page
	current *Page
	closed  bool

	pagesFailures int
}

// NewSession returns a session whose only tab is main.
func NewSession(main *Page) *Session {
	s := &Session{}
	s.Open(main)
	s.current = main
	return s
}

// Open adds p as a new tab without switching to it, like a click that opens
// a target=_blank link.
func (s *Session) Open(p *Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.mu.Lock()
	p.session = s
	p.mu.Unlock()
	s.pages = append(s.pages, p)
}

// Count returns the number of open tabs.
func (s *Session) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) remove(p *Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.pages {
		if cur == p {
			s.pages = append(s.pages[:i], s.pages[i+1:]...)
			return
		}
	}
}

func (s *Session) Current() engine.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// FailPages makes the next n Pages calls fail.
func (s *Session) FailPages(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pagesFailures = n
}

func (s *Session) Pages(ctx context.Context) ([]engine.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pagesFailures > 0 {
		s.pagesFailures--
		return nil, errors.New("enginetest: target list unavailable")
	}
	out := make([]engine.Page, 0, len(s.pages))
	for _, p := range s.pages {
		out = append(out, p)
	}
	return out, nil
}

func (s *Session) SwitchTo(ctx context.Context, p engine.Page) error {
	fp, ok := p.(*Page)
	if !ok {
		return fmt.Errorf("enginetest: foreign page %T", p)
	}
	if err := fp.Activate(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = fp
	return nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
