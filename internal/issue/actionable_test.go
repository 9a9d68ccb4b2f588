// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{
			name: "operation only",
			err:  &ActionableError{Operation: "load metadata"},
			want: "failed to load metadata",
		},
		{
			name: "operation with resource",
			err:  &ActionableError{Operation: "load metadata", Resource: "userlist.yaml"},
			want: "failed to load metadata: userlist.yaml",
		},
		{
			name: "operation with cause",
			err:  &ActionableError{Operation: "sort plugins", Cause: errors.New("cycle")},
			want: "failed to sort plugins: cycle",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "load metadata",
				Resource:  "userlist.yaml",
				Cause:     errors.New("file not found"),
			},
			want: "failed to load metadata: userlist.yaml: file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("underlying error")
	err := error(&ActionableError{Operation: "test", Cause: fmt.Errorf("wrapped: %w", cause)})
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}

	noCause := &ActionableError{Operation: "test"}
	if noCause.Unwrap() != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	root := errors.New("permission denied")
	tests := []struct {
		name     string
		err      *ActionableError
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name:     "plain",
			err:      &ActionableError{Operation: "write load order"},
			contains: []string{"failed to write load order"},
			excludes: []string{"•", "Error chain"},
		},
		{
			name: "suggestions",
			err: &ActionableError{
				Operation:   "load metadata",
				Resource:    "userlist.yaml",
				Suggestions: []string{"Run 'plugsort config show'", "Check file permissions"},
			},
			contains: []string{"userlist.yaml", "• Run 'plugsort config show'", "• Check file permissions"},
		},
		{
			name: "chain hidden when not verbose",
			err: &ActionableError{
				Operation: "write load order",
				Cause:     fmt.Errorf("open loadorder.txt: %w", root),
			},
			contains: []string{"permission denied"},
			excludes: []string{"Error chain"},
		},
		{
			name: "chain shown when verbose",
			err: &ActionableError{
				Operation: "write load order",
				Cause:     fmt.Errorf("open loadorder.txt: %w", root),
			},
			verbose:  true,
			contains: []string{"Error chain:", "1. open loadorder.txt: permission denied", "2. permission denied"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.err.Format(tt.verbose)
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("Format() = %q, missing %q", got, s)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(got, s) {
					t.Errorf("Format() = %q, should not contain %q", got, s)
				}
			}
		})
	}
}

func TestActionableError_Issue(t *testing.T) {
	t.Parallel()

	if (&ActionableError{Operation: "x"}).Issue() != nil {
		t.Error("Issue() without a guide should be nil")
	}
	got := (&ActionableError{Operation: "x", Guide: DependencyCycleId}).Issue()
	if got == nil || got.Id() != DependencyCycleId {
		t.Errorf("Issue() = %v, want the dependency cycle issue", got)
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	ae := NewErrorContext().
		WithOperation("sort plugins").
		WithResource("/games/Skyrim").
		WithSuggestion("first").
		WithSuggestion("second").
		WithGuide(DependencyCycleId).
		Wrap(cause).
		Build()
	if ae == nil {
		t.Fatal("Build() returned nil")
	}
	if ae.Operation != "sort plugins" || ae.Resource != "/games/Skyrim" {
		t.Errorf("Build() = %+v", ae)
	}
	if len(ae.Suggestions) != 2 || ae.Suggestions[0] != "first" || ae.Suggestions[1] != "second" {
		t.Errorf("Suggestions = %v", ae.Suggestions)
	}
	if ae.Guide != DependencyCycleId || !errors.Is(ae, cause) {
		t.Errorf("Guide = %d, cause = %v", ae.Guide, ae.Cause)
	}
}

func TestErrorContext_MissingOperation(t *testing.T) {
	t.Parallel()

	ctx := NewErrorContext().WithResource("x").Wrap(errors.New("boom"))
	if ctx.Build() != nil {
		t.Error("Build() without operation should return nil")
	}
	if err := ctx.BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want nil", err)
	}
}

func TestWrapWithContext(t *testing.T) {
	t.Parallel()

	if WrapWithContext(nil, "op", "res") != nil {
		t.Error("WrapWithContext(nil) should return nil")
	}
	ae := WrapWithContext(errors.New("boom"), "load plugins", "Data")
	if got, want := ae.Error(), "failed to load plugins: Data: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
