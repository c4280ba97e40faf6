package llm

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name          string
		in            string
		want          string
		wantSanitized bool
	}{
		{
			name:          "script block",
			in:            "<script>alert(1)</script>Hello",
			want:          "[REMOVED]Hello",
			wantSanitized: true,
		},
		{
			name:          "multiline script with attributes",
			in:            "Hi<SCRIPT type=\"text/javascript\">\nsteal()\n</SCRIPT >there",
			want:          "Hi[REMOVED]there",
			wantSanitized: true,
		},
		{
			name:          "unclosed script tag",
			in:            "x <script src=evil.js> y",
			want:          "x [REMOVED] y",
			wantSanitized: true,
		},
		{
			name:          "javascript uri",
			in:            `<a href="javascript:alert(1)">x</a>`,
			want:          `<a href="[REMOVED]alert(1)">x</a>`,
			wantSanitized: true,
		},
		{
			name:          "event handler",
			in:            `<img src=x onerror="alert(1)">`,
			want:          `<img src=x [REMOVED]>`,
			wantSanitized: true,
		},
		{
			name:          "several handlers in one tag",
			in:            `<div onclick='a()' onmouseover="b()">hi</div>`,
			want:          `<div [REMOVED] [REMOVED]>hi</div>`,
			wantSanitized: true,
		},
		{
			name:          "slash separated handler",
			in:            "<svg/onload=alert(1)>",
			want:          "<svg [REMOVED]>",
			wantSanitized: true,
		},
		{
			name:          "data uri with media type parameters",
			in:            `<a href="data:text/html;charset=utf-8;base64,PHNjcmlwdD4=">x</a>`,
			want:          `<a href="[REMOVED]">x</a>`,
			wantSanitized: true,
		},
		{
			name:          "data uri without media type",
			in:            "see data:;base64,QUJD here",
			want:          "see [REMOVED] here",
			wantSanitized: true,
		},
		{
			name:          "data uri",
			in:            "![x](data:image/png;base64,iVBORw0KGgo=)",
			want:          "![x]([REMOVED])",
			wantSanitized: true,
		},
		{
			name: "prose with equals survives",
			in:   "Let one = 1 and online = true.",
			want: "Let one = 1 and online = true.",
		},
		{
			name: "blank line runs collapse",
			in:   "a\n\n\n\nb\n \n\t\nc",
			want: "a\n\nb\n\nc",
		},
		{
			name: "markdown untouched",
			in:   "## Arrays\n\n```go\nxs := []int{1, 2}\n```",
			want: "## Arrays\n\n```go\nxs := []int{1, 2}\n```",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, sanitized := Sanitize(tt.in)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if sanitized != tt.wantSanitized {
				t.Errorf("sanitized = %v, want %v", sanitized, tt.wantSanitized)
			}
		})
	}
}

func TestSanitize_NoScriptSurvives(t *testing.T) {
	got, _ := Sanitize("<script>alert(1)</script>Hello")
	if strings.Contains(got, "<script>") {
		t.Fatalf("script tag survived: %q", got)
	}
	if !strings.Contains(got, "Hello") {
		t.Fatalf("content lost: %q", got)
	}
}
