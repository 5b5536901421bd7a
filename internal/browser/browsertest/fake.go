// Package browsertest provides a scriptable in-memory browser.Page for tests.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alex4udak-blip/HR-bot--sub007/internal/browser"
)

var ErrNotVisible = errors.New("not visible")

type Call struct {
	Selector string
	Index    int
	Text     string
}

// Page is a fake browser.Page. Static results come from the exported maps;
// the *Fn hooks override them for dynamic scenarios.
type Page struct {
	mu sync.Mutex

	CurrentURL string
	Elements   map[string][]browser.Element
	Body       string

	NavigateFn    func(url string) error
	QueryFn       func(selector string) ([]browser.Element, error)
	CountFn       func(selector string) (int, error)
	WaitVisibleFn func(selector string, timeout time.Duration) error
	EvalFn        func(js string) (string, error)
	URLFn         func() (string, error)
	ScreenshotErr error

	Navigations []string
	Clicks      []Call
	Inputs      []Call
	Enters      int
	Evals       []string
	Screenshots int
	Bindings    map[string]func(string) error
	Unbound     []string
}

func NewPage() *Page {
	return &Page{
		Elements: map[string][]browser.Element{},
		Bindings: map[string]func(string) error{},
	}
}

// Set replaces the elements matched by selector.
func (p *Page) Set(selector string, els ...browser.Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Elements[selector] = els
}

// Visible is a shorthand for one visible element with text.
func Visible(text string) browser.Element {
	return browser.Element{Text: text, Visible: true}
}

// Hidden is a shorthand for one hidden element with text.
func Hidden(text string) browser.Element {
	return browser.Element{Text: text}
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.Navigations = append(p.Navigations, url)
	fn := p.NavigateFn
	p.mu.Unlock()
	if fn != nil {
		if err := fn(url); err != nil {
			return err
		}
	}
	p.mu.Lock()
	p.CurrentURL = url
	p.mu.Unlock()
	return nil
}

func (p *Page) URL(ctx context.Context) (string, error) {
	p.mu.Lock()
	fn := p.URLFn
	u := p.CurrentURL
	p.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return u, nil
}

func (p *Page) Query(ctx context.Context, selector string) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	fn := p.QueryFn
	els := append([]browser.Element(nil), p.Elements[selector]...)
	p.mu.Unlock()
	if fn != nil {
		return fn(selector)
	}
	return els, nil
}

func (p *Page) Count(ctx context.Context, selector string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p.mu.Lock()
	fn := p.CountFn
	n := len(p.Elements[selector])
	p.mu.Unlock()
	if fn != nil {
		return fn(selector)
	}
	return n, nil
}

// WaitVisible never blocks: it succeeds when a visible element is already set.
func (p *Page) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	fn := p.WaitVisibleFn
	p.mu.Unlock()
	if fn != nil {
		return fn(selector, timeout)
	}
	els, _ := p.Query(ctx, selector)
	for _, el := range els {
		if el.Visible {
			return nil
		}
	}
	return fmt.Errorf("%s: %w", selector, ErrNotVisible)
}

func (p *Page) Click(ctx context.Context, selector string, index int) error {
	els, _ := p.Query(ctx, selector)
	if index >= len(els) {
		return fmt.Errorf("no element #%d for %s", index, selector)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Clicks = append(p.Clicks, Call{Selector: selector, Index: index})
	return nil
}

func (p *Page) Input(ctx context.Context, selector string, index int, text string) error {
	els, _ := p.Query(ctx, selector)
	if index >= len(els) {
		return fmt.Errorf("no element #%d for %s", index, selector)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Inputs = append(p.Inputs, Call{Selector: selector, Index: index, Text: text})
	return nil
}

func (p *Page) PressEnter(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Enters++
	return nil
}

func (p *Page) Text(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Body, nil
}

func (p *Page) Eval(ctx context.Context, js string) (string, error) {
	p.mu.Lock()
	p.Evals = append(p.Evals, js)
	fn := p.EvalFn
	p.mu.Unlock()
	if fn != nil {
		return fn(js)
	}
	return "", nil
}

func (p *Page) Expose(ctx context.Context, name string, fn func(string) error) (func() error, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Bindings[name] = fn
	return func() error {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.Bindings, name)
		p.Unbound = append(p.Unbound, name)
		return nil
	}, nil
}

// Emit calls the binding exposed under name as the page script would.
func (p *Page) Emit(name, payload string) error {
	p.mu.Lock()
	fn := p.Bindings[name]
	p.mu.Unlock()
	if fn == nil {
		return fmt.Errorf("binding %s not exposed", name)
	}
	return fn(payload)
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ScreenshotErr != nil {
		return nil, p.ScreenshotErr
	}
	p.Screenshots++
	return []byte("\x89PNG fake"), nil
}

// ClickedSelectors lists the selectors clicked so far, in order.
func (p *Page) ClickedSelectors() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.Clicks))
	for i, c := range p.Clicks {
		out[i] = c.Selector
	}
	return out
}

// EvalsContaining counts evaluated scripts containing substr.
func (p *Page) EvalsContaining(substr string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, js := range p.Evals {
		if strings.Contains(js, substr) {
			n++
		}
	}
	return n
}

var _ browser.Page = (*Page)(nil)
