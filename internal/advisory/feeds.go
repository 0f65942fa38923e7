package advisory

import (
	"net/url"
	"strconv"

	"github.com/mohammed-shakir/hazard-query/internal/core/model"
)

const (
	sigmetPath = "SigmetJSON.php"
	airmetPath = "GairmetJSON.php"
	cwaPath    = "CwaJSON.php"
)

// FeedSpec is one upstream feed in the fetch plan. When Bucket is not
// BucketNone its time fills the "date" parameter.
type FeedSpec struct {
	Name   string
	Path   string
	Params url.Values
	Bucket Bucket
}

// Plan is the ordered feed list. Order is dedup precedence: when two feeds
// report the same id the earlier feed's feature is kept.
type Plan []FeedSpec

// DefaultPlan is SIGMET, outlook SIGMET, four G-AIRMET forecast steps, then CWA.
func DefaultPlan(airmetLevel string, airmetFore int) Plan {
	if airmetLevel == "" {
		airmetLevel = "sfc"
	}
	airmet := func(name string, b Bucket) FeedSpec {
		return FeedSpec{
			Name: name,
			Path: airmetPath,
			Params: url.Values{
				"level": {airmetLevel},
				"fore":  {strconv.Itoa(airmetFore)},
			},
			Bucket: b,
		}
	}
	return Plan{
		{Name: "sigmet", Path: sigmetPath, Bucket: BucketCurrent},
		{Name: "sigmet_outlook", Path: sigmetPath, Params: url.Values{"outlook": {"on"}}, Bucket: BucketOutlook},
		airmet("airmet_0", BucketAirmet0),
		airmet("airmet_1", BucketAirmet1),
		airmet("airmet_2", BucketAirmet2),
		airmet("airmet_3", BucketAirmet3),
		{Name: "cwa", Path: cwaPath},
	}
}

// Resolve turns the plan into concrete requests for the given buckets. The
// plan's own params are copied, never mutated.
func (p Plan) Resolve(b Buckets) []model.FeedRequest {
	out := make([]model.FeedRequest, 0, len(p))
	for _, f := range p {
		params := url.Values{}
		for k, vs := range f.Params {
			params[k] = append([]string(nil), vs...)
		}
		if t, ok := b.At(f.Bucket); ok {
			params.Set("date", FormatDate(t))
		}
		out = append(out, model.FeedRequest{Feed: f.Name, Path: f.Path, Params: params})
	}
	return out
}
