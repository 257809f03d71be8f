package sanitize

import (
	"strings"
	"testing"
)

func TestText_RemovesAllHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "script tag in place name",
			input:    `Zen <script>alert('xss')</script> Studio`,
			expected: `Zen  Studio`,
		},
		{
			name:     "inline event handler",
			input:    `<div onclick="alert('xss')">Yoga</div>`,
			expected: `Yoga`,
		},
		{
			name:     "iframe injection",
			input:    `Spa <iframe src="evil.com"></iframe> Retreat`,
			expected: `Spa  Retreat`,
		},
		{
			name:     "formatting tags",
			input:    `<b>Deep</b> <i>Tissue</i> <a href="http://example.com">Massage</a>`,
			expected: `Deep Tissue Massage`,
		},
		{
			name:     "plain text unchanged",
			input:    `Toronto`,
			expected: `Toronto`,
		},
		{
			name:     "markup characters stored as entities",
			input:    `Yoga & Nature's`,
			expected: `Yoga &amp; Nature&#39;s`,
		},
		{
			name:     "empty string",
			input:    ``,
			expected: ``,
		},
		{
			name:     "image with onerror",
			input:    `<img src=x onerror="alert('xss')">`,
			expected: ``,
		},
		{
			name:     "ampersand is escaped",
			input:    `Mind & Body`,
			expected: `Mind &amp; Body`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Text(tt.input)
			if result != tt.expected {
				t.Errorf("Text(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestText_Idempotent(t *testing.T) {
	inputs := []string{
		``,
		`Serenity Spa`,
		`Mind & Body`,
		`Tom's "quiet" room`,
		`a < b > c`,
		`&amp; already escaped`,
		`&lt;script&gt;alert(1)&lt;/script&gt;`,
		`<b>bold</b> & <i>italic</i>`,
		`<script>alert('xss')</script>Yoga`,
		`Café Ümlaut 瑜伽`,
		`&nbsp;spaced&nbsp;`,
		"line\r\nbreak",
		`unknown &foo; entity`,
	}

	for _, input := range inputs {
		once := Text(input)
		twice := Text(once)
		if once != twice {
			t.Errorf("Text not idempotent for %q: once=%q twice=%q", input, once, twice)
		}
	}
}

func TestTrimmed(t *testing.T) {
	if got := Trimmed("  <p> Hot Yoga </p>  "); got != "Hot Yoga" {
		t.Errorf("Trimmed = %q, want %q", got, "Hot Yoga")
	}
	if got := Trimmed("<script>x</script>"); got != "" {
		t.Errorf("Trimmed script-only = %q, want empty", got)
	}
}

func TestHTML_AllowsSafeFormatting(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "paragraph and emphasis",
			input:    `<p>Classes <strong>daily</strong></p>`,
			expected: `<p>Classes <strong>daily</strong></p>`,
		},
		{
			name:     "list",
			input:    `<ul><li>Sauna</li><li>Steam</li></ul>`,
			expected: `<ul><li>Sauna</li><li>Steam</li></ul>`,
		},
		{
			name:     "script removed",
			input:    `<p>Relax</p><script>alert('xss')</script>`,
			expected: `<p>Relax</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := HTML(tt.input)
			if result != tt.expected {
				t.Errorf("HTML(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestHTML_StripsDangerousAttributes(t *testing.T) {
	vectors := []string{
		`<p onclick="alert('xss')">Massage</p>`,
		`<a href="javascript:alert('xss')">Book</a>`,
		`<img src=x onerror="alert(1)">`,
		`<p style="background:url(javascript:alert(1))">Spa</p>`,
	}

	for _, v := range vectors {
		out := strings.ToLower(HTML(v))
		for _, bad := range []string{"onclick", "onerror", "javascript:", "style="} {
			if strings.Contains(out, bad) {
				t.Errorf("HTML(%q) = %q still contains %q", v, out, bad)
			}
		}
	}
}

func TestTextSlice(t *testing.T) {
	if TextSlice(nil) != nil {
		t.Error("TextSlice(nil) should return nil")
	}

	got := TextSlice([]string{" <b>yoga</b> ", "massage", "<script>x</script>"})
	want := []string{"yoga", "massage", ""}
	if len(got) != len(want) {
		t.Fatalf("TextSlice length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("TextSlice[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNonEmpty(t *testing.T) {
	got := NonEmpty([]string{"  ", "<i>calm</i>", "", "<script>x</script>", "quiet"})
	want := []string{"calm", "quiet"}
	if len(got) != len(want) {
		t.Fatalf("NonEmpty = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("NonEmpty[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if out := NonEmpty(nil); out == nil || len(out) != 0 {
		t.Errorf("NonEmpty(nil) = %#v, want empty non-nil slice", out)
	}
}

func BenchmarkText(b *testing.B) {
	input := `Serenity <script>alert('xss')</script> Spa & Wellness`
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Text(input)
	}
}
