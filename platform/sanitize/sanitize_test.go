package sanitize

import "testing"

func TestStripHTML(t *testing.T) {
	cases := map[string]string{
		"plain":                            "plain",
		"<b>Jessica</b> Park":              "Jessica Park",
		"  &lt;script&gt;x&lt;/script&gt;": "x",
		"Tom &amp; Jerry":                  "Tom & Jerry",
	}
	for in, want := range cases {
		if got := StripHTML(in); got != want {
			t.Errorf("StripHTML(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLineCollapsesWhitespace(t *testing.T) {
	if got := Line("  Marcus\n\t<i>Johnson</i>&nbsp; "); got != "Marcus Johnson" {
		t.Fatalf("got %q", got)
	}
}
