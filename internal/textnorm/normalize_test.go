package textnorm

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"nbsp and ideographic space", "배구 여자　고등부", "배구 여자 고등부"},
		{"full-width digits", "제１０３회", "제103회"},
		{"whitespace runs", "  양궁   남자 \t 일반부 \n", "양궁 남자 일반부"},
		{"empty", "", ""},
		{"already clean", "축구 여자부", "축구 여자부"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"배구 여자　고등부",
		"제１０３회  전국체육대회",
		"  단체전 단체전 ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestNormalizeSubkind(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"spaced duplicate", "단체전 단체전", "단체전"},
		{"concatenated duplicate", "단체전단체전", "단체전"},
		{"triple concatenated", "개인전개인전개인전", "개인전"},
		{"mixed spacing", "복식 복식복식", "복식"},
		{"no duplication", "혼합복식", "혼합복식"},
		{"distinct tokens kept", "단체전 개인전", "단체전 개인전"},
		{"full-width digits pass through", "４００ｍ계주", "400ｍ계주"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeSubkind(tc.in); got != tc.want {
				t.Errorf("NormalizeSubkind(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeSubkindIdempotent(t *testing.T) {
	for _, in := range []string{"단체전 단체전", "단체전단체전", "여자 단식 단식"} {
		once := NormalizeSubkind(in)
		if twice := NormalizeSubkind(once); twice != once {
			t.Errorf("NormalizeSubkind not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}
