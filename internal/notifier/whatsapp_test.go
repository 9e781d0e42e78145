package notifier

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"(11) 98888-7777", "5511988887777"},
		{"5511988887777", "5511988887777"},
		{"+55 11 98888-7777", "5511988887777"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizePhone(c.in); got != c.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
