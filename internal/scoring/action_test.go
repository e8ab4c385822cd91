package scoring

import "testing"

func TestParseAction(t *testing.T) {
	cases := []struct {
		in   string
		want Action
	}{
		{"0", BallCount(0)},
		{"9", BallCount(9)},
		{"11", ActionInvalid},
		{"-1", ActionInvalid},
		{"miss", ActionMiss},
		{"safe-x", ActionSafeX},
		{"kick-in", ActionKickIn},
		{"banana", ActionInvalid},
	}
	for _, tc := range cases {
		if got := ParseAction(tc.in); got != tc.want {
			t.Errorf("ParseAction(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestActionString(t *testing.T) {
	if got := BallCount(7).String(); got != "7" {
		t.Fatalf("ball count string = %q", got)
	}
	if got := ActionDoubleMiss.String(); got != "double-miss" {
		t.Fatalf("double miss string = %q", got)
	}
	if !BallCount(10).IsBallCount() || BallCount(10).BallValue() != 10 {
		t.Fatal("BallCount(10) must round-trip")
	}
	if ActionMiss.IsBallCount() {
		t.Fatal("miss is not a ball count")
	}
}
