package app

import (
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// parseSeed turns the raw --seed argument into a value. JSON documents keep
// their structure; anything that does not parse as JSON is carried verbatim
// as a string, so `--seed hello` and `--seed '"hello"'` agree.
func parseSeed(raw string) (cty.Value, error) {
	if raw == "" {
		return cty.NilVal, nil
	}
	ty, err := ctyjson.ImpliedType([]byte(raw))
	if err != nil {
		return cty.StringVal(raw), nil
	}
	return ctyjson.Unmarshal([]byte(raw), ty)
}
