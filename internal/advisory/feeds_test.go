package advisory

import (
	"testing"
	"time"
)

func TestDefaultPlan_ResolveAtFixedClock(t *testing.T) {
	plan := DefaultPlan("sfc", -1)
	reqs := plan.Resolve(ComputeBuckets(utc(2024, time.March, 7, 5, 20)))

	want := []struct {
		feed, path, query string
	}{
		{"sigmet", "SigmetJSON.php", "date=202403070600"},
		{"sigmet_outlook", "SigmetJSON.php", "date=202403070800&outlook=on"},
		{"airmet_0", "GairmetJSON.php", "date=202403070300&fore=-1&level=sfc"},
		{"airmet_1", "GairmetJSON.php", "date=202403070600&fore=-1&level=sfc"},
		{"airmet_2", "GairmetJSON.php", "date=202403070900&fore=-1&level=sfc"},
		{"airmet_3", "GairmetJSON.php", "date=202403071200&fore=-1&level=sfc"},
		{"cwa", "CwaJSON.php", ""},
	}
	if len(reqs) != len(want) {
		t.Fatalf("requests=%d want %d", len(reqs), len(want))
	}
	for i, w := range want {
		r := reqs[i]
		if r.Feed != w.feed || r.Path != w.path || r.Params.Encode() != w.query {
			t.Fatalf("req %d = %s %s?%s want %s %s?%s", i, r.Feed, r.Path, r.Params.Encode(), w.feed, w.path, w.query)
		}
	}
}

func TestPlan_ResolveDoesNotMutatePlan(t *testing.T) {
	plan := DefaultPlan("", 2)
	_ = plan.Resolve(ComputeBuckets(utc(2024, time.March, 7, 5, 0)))

	if plan[2].Params.Has("date") {
		t.Fatalf("plan params were mutated: %v", plan[2].Params)
	}
	if plan[2].Params.Get("level") != "sfc" || plan[2].Params.Get("fore") != "2" {
		t.Fatalf("airmet params=%v", plan[2].Params)
	}
}
