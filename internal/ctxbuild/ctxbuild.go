// Package ctxbuild resolves the context a decision is taken against.
package ctxbuild

import (
	"github.com/danielpatrickdp/treedecide/internal/instant"
	"github.com/danielpatrickdp/treedecide/internal/tree"
)

// Context maps every non-output property to its resolved value. Absent values are nil.
type Context map[string]any

// #region build
// Build merges caller state with the properties derived from at. Caller values are
// never overwritten, even for generated properties. at may be nil, in which case
// generated properties the caller did not supply stay nil.
func Build(cfg tree.Configuration, state map[string]any, at *instant.Time) Context {
	var derived map[string]any
	if at != nil {
		derived = at.ToMap()
	}

	ctx := make(Context, len(cfg.Context))
	for _, name := range cfg.Inputs() {
		prop := cfg.Context[name]
		value, supplied := state[name]
		if !supplied && derived != nil && prop.Type.TimeDerived() && prop.Generated() {
			value = derived[string(prop.Type)]
		}
		if prop.Type == tree.Timezone && value != nil {
			if tz, ok := instant.NormalizeTimezone(value); ok {
				value = tz
			}
		}
		ctx[name] = value
	}
	return ctx
}

// #endregion build
