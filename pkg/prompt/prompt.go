// Package prompt implements the interactive profile picker for terminals.
package prompt

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/tenkoh/awsswitch/pkg/switcher"
)

// ErrNoMatch is returned when the query leaves no candidate to offer
var ErrNoMatch = errors.New("no AWS profile matches the query")

// Picker is a switcher.Chooser rendering a filterable select list
type Picker struct {
	accessible bool
	height     int
	query      string
	run        func(ctx context.Context, form *huh.Form) error
}

// Option configures a Picker
type Option func(*Picker)

// WithAccessible switches huh to its line-based accessible mode
func WithAccessible(accessible bool) Option {
	return func(p *Picker) {
		p.accessible = accessible
	}
}

// WithHeight limits the number of visible rows
func WithHeight(height int) Option {
	return func(p *Picker) {
		p.height = height
	}
}

// WithQuery narrows the candidates to names containing query, ignoring case
func WithQuery(query string) Option {
	return func(p *Picker) {
		p.query = query
	}
}

// NewPicker creates a terminal Picker
func NewPicker(opts ...Option) *Picker {
	p := &Picker{
		height: 10,
		run: func(ctx context.Context, form *huh.Form) error {
			return form.RunWithContext(ctx)
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Choose implements switcher.Chooser
func (p *Picker) Choose(ctx context.Context, title string, candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "", switcher.ErrNoCandidates
	}
	if p.query != "" {
		candidates = switcher.FilterProfiles(candidates, p.query)
		if len(candidates) == 0 {
			return "", fmt.Errorf("%w: %q", ErrNoMatch, p.query)
		}
	}

	var choice string
	selectField := huh.NewSelect[string]().
		Title(title).
		Description("Type / to filter, Enter to confirm").
		Options(huh.NewOptions(candidates...)...).
		Filtering(true).
		Height(p.height).
		Value(&choice)

	form := huh.NewForm(huh.NewGroup(selectField)).WithAccessible(p.accessible)
	if err := p.run(ctx, form); err != nil {
		if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, context.Canceled) {
			return "", switcher.ErrCancelled
		}
		return "", fmt.Errorf("profile picker failed: %w", err)
	}
	if choice == "" {
		return "", switcher.ErrCancelled
	}
	return choice, nil
}
