package join

import (
	"context"
	"fmt"
	"strings"

	"github.com/alex4udak-blip/HR-bot--sub007/internal/browser"
)

// Kind tags how a Strategy locates its element.
type Kind int

const (
	// KindCSS matches Value as a CSS selector.
	KindCSS Kind = iota
	// KindAriaLabel matches buttons whose aria-label contains Value.
	KindAriaLabel
	// KindButtonText scans every button and matches visible text against Texts.
	KindButtonText
)

func (k Kind) String() string {
	switch k {
	case KindCSS:
		return "css"
	case KindAriaLabel:
		return "aria-label"
	case KindButtonText:
		return "button-text"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

const buttonSelector = `button, [role="button"]`

// Strategy is one way of finding a control. Lists of strategies are tried in
// priority order by FirstVisible.
type Strategy struct {
	Kind  Kind
	Name  string
	Value string
	Texts []string
}

func CSS(name, selector string) Strategy {
	return Strategy{Kind: KindCSS, Name: name, Value: selector}
}

func AriaLabel(label string) Strategy {
	return Strategy{Kind: KindAriaLabel, Name: "aria:" + label, Value: label}
}

func ButtonText(name string, texts ...string) Strategy {
	return Strategy{Kind: KindButtonText, Name: name, Texts: texts}
}

// Selector is the CSS selector the strategy queries.
func (s Strategy) Selector() string {
	switch s.Kind {
	case KindAriaLabel:
		return fmt.Sprintf(`button[aria-label*=%q], [role="button"][aria-label*=%q]`, s.Value, s.Value)
	case KindButtonText:
		return buttonSelector
	}
	return s.Value
}

// Match is a located control.
type Match struct {
	Strategy Strategy
	Selector string
	Index    int
	Text     string
}

// Find returns the first visible element the strategy accepts.
func (s Strategy) Find(ctx context.Context, page browser.Page) (Match, bool, error) {
	sel := s.Selector()
	els, err := page.Query(ctx, sel)
	if err != nil {
		return Match{}, false, err
	}
	for i, el := range els {
		if !el.Visible {
			continue
		}
		if s.Kind == KindButtonText && !containsAny(el.Text, s.Texts) {
			continue
		}
		return Match{Strategy: s, Selector: sel, Index: i, Text: strings.TrimSpace(el.Text)}, true, nil
	}
	return Match{}, false, nil
}

// FirstVisible tries strategies in order and returns the first match. Query
// errors count as no match for that strategy.
func FirstVisible(ctx context.Context, page browser.Page, strategies []Strategy) (Match, bool) {
	for _, s := range strategies {
		if ctx.Err() != nil {
			return Match{}, false
		}
		m, ok, err := s.Find(ctx, page)
		if err == nil && ok {
			return m, true
		}
	}
	return Match{}, false
}

// AnyVisible reports whether any strategy currently matches.
func AnyVisible(ctx context.Context, page browser.Page, strategies []Strategy) bool {
	_, ok := FirstVisible(ctx, page, strategies)
	return ok
}

func (m Match) Click(ctx context.Context, page browser.Page) error {
	return page.Click(ctx, m.Selector, m.Index)
}

func (m Match) Input(ctx context.Context, page browser.Page, text string) error {
	return page.Input(ctx, m.Selector, m.Index, text)
}

func containsAny(text string, subs []string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false
	}
	for _, s := range subs {
		if strings.Contains(t, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

// Outcome is the result of a best-effort step. Skipped is never an error.
type Outcome int

const (
	Skipped Outcome = iota
	Done
)

func (o Outcome) String() string {
	if o == Done {
		return "done"
	}
	return "skipped"
}
