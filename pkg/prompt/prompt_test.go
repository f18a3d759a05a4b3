package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/huh"

	"github.com/tenkoh/awsswitch/pkg/switcher"
)

func pickerWithRun(run func(ctx context.Context, form *huh.Form) error) *Picker {
	p := NewPicker(WithAccessible(true), WithHeight(5))
	p.run = run
	return p
}

func TestPicker_Choose_Errors(t *testing.T) {
	boom := errors.New("terminal gone")

	tests := []struct {
		name       string
		candidates []string
		runErr     error
		expected   error
	}{
		{
			name:       "no candidates",
			candidates: nil,
			expected:   switcher.ErrNoCandidates,
		},
		{
			name:       "user aborted",
			candidates: []string{"work"},
			runErr:     huh.ErrUserAborted,
			expected:   switcher.ErrCancelled,
		},
		{
			name:       "context cancelled",
			candidates: []string{"work"},
			runErr:     context.Canceled,
			expected:   switcher.ErrCancelled,
		},
		{
			name:       "other failure is wrapped",
			candidates: []string{"work"},
			runErr:     boom,
			expected:   boom,
		},
		{
			name:       "nothing selected",
			candidates: []string{"work"},
			expected:   switcher.ErrCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ran := false
			p := pickerWithRun(func(ctx context.Context, form *huh.Form) error {
				ran = true
				return tt.runErr
			})

			_, err := p.Choose(context.Background(), "Switch to AWS profile", tt.candidates)
			if !errors.Is(err, tt.expected) {
				t.Errorf("Choose() error = %v, want %v", err, tt.expected)
			}
			if len(tt.candidates) == 0 && ran {
				t.Error("form should not run without candidates")
			}
		})
	}
}

func TestPicker_Choose_Query(t *testing.T) {
	ran := false
	p := pickerWithRun(func(ctx context.Context, form *huh.Form) error {
		ran = true
		return nil
	})

	p.query = "zzz"
	if _, err := p.Choose(context.Background(), "Switch to AWS profile", []string{"home", "work"}); !errors.Is(err, ErrNoMatch) {
		t.Errorf("Choose() error = %v, want ErrNoMatch", err)
	}
	if ran {
		t.Error("form should not run when the query matches nothing")
	}

	p.query = "WO"
	if _, err := p.Choose(context.Background(), "Switch to AWS profile", []string{"home", "work"}); !errors.Is(err, switcher.ErrCancelled) {
		t.Errorf("Choose() error = %v, want ErrCancelled for an empty selection", err)
	}
	if !ran {
		t.Error("form should run when the query matches")
	}
}

func TestNewPicker_Options(t *testing.T) {
	p := NewPicker(WithAccessible(true), WithHeight(3), WithQuery("prod"))
	if !p.accessible || p.height != 3 || p.query != "prod" {
		t.Errorf("options not applied: %+v", p)
	}
}

var _ switcher.Chooser = (*Picker)(nil)
