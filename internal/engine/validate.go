package engine

import (
	"fmt"

	"github.com/danielpatrickdp/treedecide/internal/ctxbuild"
	"github.com/danielpatrickdp/treedecide/internal/errs"
	"github.com/danielpatrickdp/treedecide/internal/instant"
	"github.com/danielpatrickdp/treedecide/internal/operator"
	"github.com/danielpatrickdp/treedecide/internal/tree"
)

// #region validators
var validators = map[tree.PropertyType]func(any) bool{
	tree.Continuous: func(v any) bool {
		_, ok := operator.Float(v)
		return ok
	},
	tree.Enum: func(v any) bool {
		_, ok := v.(string)
		return ok
	},
	tree.Timezone: instant.IsTimezone,
	tree.TimeOfDay: func(v any) bool {
		f, ok := operator.Float(v)
		return ok && f >= 0 && f < 24
	},
	tree.DayOfWeek:   intRange(0, 6),
	tree.DayOfMonth:  intRange(1, 31),
	tree.MonthOfYear: intRange(1, 12),
}

func intRange(lo, hi int) func(any) bool {
	return func(v any) bool {
		n, ok := operator.Integer(v)
		return ok && n >= lo && n <= hi
	}
}

// ValidValue reports whether v is acceptable for a property of type t. Unknown types
// accept anything.
func ValidValue(t tree.PropertyType, v any) bool {
	check, ok := validators[t]
	if !ok {
		return true
	}
	return check(v)
}

// #endregion validators

// #region check-context
// checkContext collects every missing and every ill-typed property. Presence is only
// required when missing-value handling is off; types are always checked.
func checkContext(cfg tree.Configuration, ctx ctxbuild.Context) error {
	requirePresence := !cfg.MissingValuesEnabled()

	var missing, bad []string
	for _, name := range cfg.Inputs() {
		value := ctx[name]
		if value == nil {
			if requirePresence {
				missing = append(missing, fmt.Sprintf("expected property '%s' is not defined", name))
			}
			continue
		}
		typ := cfg.Context[name].Type
		if !ValidValue(typ, value) {
			bad = append(bad, fmt.Sprintf("'%v' is not a valid value for property '%s' of type '%s'", value, name, typ))
		}
	}
	if len(missing) == 0 && len(bad) == 0 {
		return nil
	}
	return &errs.ValidationError{Problems: append(missing, bad...)}
}

// #endregion check-context
