package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// rodPage adapts a rod tab to Page. Each call is scoped to the caller's ctx.
type rodPage struct {
	page *rod.Page
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	pg := p.page.Context(ctx)
	if err := pg.Navigate(url); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return pg.WaitLoad()
}

func (p *rodPage) URL(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (p *rodPage) Query(ctx context.Context, selector string) ([]Element, error) {
	els, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		visible, err := el.Visible()
		if err != nil {
			visible = false
		}
		text, _ := el.Text()
		out = append(out, Element{Text: text, Visible: visible})
	}
	return out, nil
}

func (p *rodPage) Count(ctx context.Context, selector string) (int, error) {
	res, err := p.page.Context(ctx).Eval(`(sel) => document.querySelectorAll(sel).length`, selector)
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

func (p *rodPage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	pg := p.page.Context(ctx).Timeout(timeout)
	defer pg.CancelTimeout()

	el, err := pg.Element(selector)
	if err != nil {
		return fmt.Errorf("%s was not found after %v: %w", selector, timeout, err)
	}
	if err := el.WaitVisible(); err != nil {
		return fmt.Errorf("%s was not visible after %v: %w", selector, timeout, err)
	}
	return nil
}

func (p *rodPage) nth(ctx context.Context, selector string, index int) (*rod.Element, error) {
	els, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(els) {
		return nil, fmt.Errorf("no element #%d for %s (found %d)", index, selector, len(els))
	}
	return els[index], nil
}

func (p *rodPage) Click(ctx context.Context, selector string, index int) error {
	el, err := p.nth(ctx, selector, index)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (p *rodPage) Input(ctx context.Context, selector string, index int, text string) error {
	el, err := p.nth(ctx, selector, index)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input(text)
}

func (p *rodPage) PressEnter(ctx context.Context) error {
	return p.page.Context(ctx).Keyboard.Press(input.Enter)
}

func (p *rodPage) Text(ctx context.Context) (string, error) {
	return p.Eval(ctx, `() => document.body ? document.body.innerText : ""`)
}

func (p *rodPage) Eval(ctx context.Context, js string) (string, error) {
	res, err := p.page.Context(ctx).Eval(js)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

// Expose binds on the session-lifetime page rather than ctx so that the
// binding keeps delivering while a cancelled job flushes its last chunks.
func (p *rodPage) Expose(_ context.Context, name string, fn func(string) error) (func() error, error) {
	return p.page.Expose(name, func(v gson.JSON) (interface{}, error) {
		return nil, fn(v.Str())
	})
}

func (p *rodPage) Screenshot(ctx context.Context) ([]byte, error) {
	return p.page.Context(ctx).Screenshot(false, nil)
}
