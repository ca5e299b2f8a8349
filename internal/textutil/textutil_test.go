package textutil

import (
	"testing"
	"time"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "double-encoded HTML",
			input: "We are hiring. &lt;p&gt;Any HTML included.&lt;/p&gt;",
			want:  "We are hiring. Any HTML included.",
		},
		{
			name:  "nested tags and whitespace",
			input: "<p>We are hiring.</p>\n<ul>\n  <li>Write code</li>\n  <li>Review PRs</li>\n</ul>",
			want:  "We are hiring. Write code Review PRs",
		},
		{
			name:  "plain text passes through",
			input: "No tags here.",
			want:  "No tags here.",
		},
		{
			name:  "malformed markup does not panic",
			input: "<div <span>broken <b>bold",
			want:  "broken bold",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := StripHTML(tc.input)
			if got != tc.want {
				t.Errorf("StripHTML(%q)\n got  %q\n want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *time.Time
	}{
		{"rfc3339", "2026-02-10T09:00:00Z", timePtr(time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC))},
		{"date only", "2026-02-10", timePtr(time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))},
		{"unix millis", "1714067716000", timePtr(time.UnixMilli(1714067716000).UTC())},
		{"garbage", "Posted Yesterday-ish", nil},
		{"empty", "", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseDate(tc.input)
			if tc.want == nil {
				if got != nil {
					t.Fatalf("ParseDate(%q) = %v, want nil", tc.input, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseDate(%q) = nil, want %v", tc.input, tc.want)
			}
			if !got.Equal(*tc.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeKey(t *testing.T) {
	// Company names that differ only in case, punctuation, and diacritics
	// must collapse to the same key.
	if NormalizeKey("Açme Corp.") != NormalizeKey("ACME CORP") {
		t.Errorf("keys differ: %q vs %q", NormalizeKey("Açme Corp."), NormalizeKey("ACME CORP"))
	}

	tests := []struct {
		input string
		want  string
	}{
		{"Açme Corp.", "acme corp"},
		{"  Señor   Developer!! ", "senor developer"},
		{"Back-End Engineer (São Paulo)", "backend engineer sao paulo"},
		{"", ""},
	}

	for _, tc := range tests {
		if got := NormalizeKey(tc.input); got != tc.want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func timePtr(t time.Time) *time.Time { return &t }
