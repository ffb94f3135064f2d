package subtitle

import "testing"

func TestParseColor(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  Color
		ok    bool
	}{
		{"opaque", "#ffd75f", Color{0xff, 0xd7, 0x5f, 0xff}, true},
		{"with alpha", "#10203080", Color{0x10, 0x20, 0x30, 0x80}, true},
		{"short form", "#fff", Color{0xff, 0xff, 0xff, 0xff}, true},
		{"missing hash", "ffd75f", Color{}, false},
		{"garbage", "#zzzzzz", Color{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseColor(tc.input)
			if (err == nil) != tc.ok {
				t.Fatalf("ParseColor(%q) error = %v, want ok=%v", tc.input, err, tc.ok)
			}
			if got != tc.want {
				t.Errorf("ParseColor(%q) = %+v, want %+v", tc.input, got, tc.want)
			}
		})
	}
}

func TestColorHex(t *testing.T) {
	if got := (Color{0xff, 0xd7, 0x5f, 0xff}).Hex(); got != "#ffd75f" {
		t.Errorf("Hex() = %q, want #ffd75f", got)
	}
	if got := (Color{1, 2, 3, 4}).Hex(); got != "#01020304" {
		t.Errorf("Hex() = %q, want #01020304", got)
	}
}

func TestStyleNames(t *testing.T) {
	for _, s := range []Style{StyleSubtitle, StyleRectangle, StyleTalk} {
		got, err := ParseStyle(s.String())
		if err != nil {
			t.Fatalf("ParseStyle(%q): %v", s.String(), err)
		}
		if got != s {
			t.Errorf("ParseStyle(%q) = %v, want %v", s.String(), got, s)
		}
	}
	if _, err := ParseStyle("shout"); err == nil {
		t.Error("ParseStyle should reject unknown names")
	}
	if got, _ := ParseStyle(""); got != StyleSubtitle {
		t.Errorf("empty style = %v, want subtitle", got)
	}
}
