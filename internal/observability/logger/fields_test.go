package logger

import "testing"

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"":                    "",
		"Ana.Diaz@Acme.io":    "a…@a….io",
		"a@b.io":              "a@b.io",
		"  bob@mail.acme.io ": "b…@m….acme.io",
		"abc":                 "***",
		"nodomain":            "n…n",
	}
	for in, want := range cases {
		if got := MaskEmail(in); got != want {
			t.Errorf("MaskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}
