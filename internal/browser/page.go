package browser

import (
	"context"
	"time"
)

// Element is a snapshot of one DOM node matched by a selector.
type Element struct {
	Text    string
	Visible bool
}

// Page is the borrowed handle every upstream component drives. Only the
// Session owns the underlying tab.
type Page interface {
	Navigate(ctx context.Context, url string) error
	URL(ctx context.Context) (string, error)

	// Query returns every node matching selector, without waiting.
	Query(ctx context.Context, selector string) ([]Element, error)
	// Count returns the number of nodes matching selector. An error means the
	// page itself could not be queried.
	Count(ctx context.Context, selector string) (int, error)
	// WaitVisible blocks until a node matching selector is visible or timeout elapses.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error

	// Click clicks the index-th node matching selector.
	Click(ctx context.Context, selector string, index int) error
	// Input selects the current value of the index-th node matching selector and types text over it.
	Input(ctx context.Context, selector string, index int, text string) error
	PressEnter(ctx context.Context) error

	// Text returns the rendered text of the document body.
	Text(ctx context.Context) (string, error)
	// Eval runs a JS function expression and returns its string result.
	Eval(ctx context.Context, js string) (string, error)
	// Expose binds fn to window[name]; JS calls it with a single string argument.
	Expose(ctx context.Context, name string, fn func(string) error) (unbind func() error, err error)

	Screenshot(ctx context.Context) ([]byte, error)
}
