package format

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/treedecide/internal/errs"
	"github.com/danielpatrickdp/treedecide/internal/operator"
	"github.com/danielpatrickdp/treedecide/internal/rule"
	"github.com/danielpatrickdp/treedecide/internal/tree"
)

// #region property-tests
func TestProperty(t *testing.T) {
	at := time.Date(2016, time.August, 12, 11, 5, 0, 0, time.UTC)
	atWithSeconds := time.Date(2016, time.August, 12, 11, 5, 28, 0, time.UTC)

	tests := []struct {
		typ   tree.PropertyType
		value any
		want  string
	}{
		{tree.Continuous, 12.4, "12.4"},
		{tree.Continuous, 12.4234, "12.42"},
		{tree.Continuous, 666.0, "666"},
		{tree.Continuous, "foo", "foo"},
		{tree.Enum, "abracadabra", "abracadabra"},
		{tree.Timezone, "+02:00", "+02:00"},
		{tree.TimeOfDay, 11.5, "11:30"},
		{tree.TimeOfDay, 12.3, "12:18"},
		{tree.TimeOfDay, 11.008, "11:00:28"},
		{tree.TimeOfDay, 0.0, "00:00"},
		{tree.TimeOfDay, at, "11:05"},
		{tree.TimeOfDay, atWithSeconds, "11:05:28"},
		{tree.DayOfWeek, 0, "Mon"},
		{tree.DayOfWeek, 4.0, "Fri"},
		{tree.DayOfWeek, 6, "Sun"},
		{tree.DayOfWeek, at, "Fri"},
		{tree.DayOfMonth, 12.0, "12"},
		{tree.DayOfMonth, at, "12"},
		{tree.MonthOfYear, 1, "Jan"},
		{tree.MonthOfYear, 6, "Jun"},
		{tree.MonthOfYear, 12.0, "Dec"},
		{tree.MonthOfYear, at, "Aug"},
		{"unknown", 42, "42"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Property(tt.typ)(tt.value), "%s %v", tt.typ, tt.value)
	}
}

// #endregion property-tests

// #region rule-tests
func TestDecisionRule(t *testing.T) {
	tests := []struct {
		name string
		p    rule.Predicate
		typ  tree.PropertyType
		want string
	}{
		{"time of day interval", rule.MustNew("t", operator.In, []float64{11.5, 12.3}), tree.TimeOfDay, "[11:30, 12:18["},
		{"continuous interval", rule.MustNew("t", operator.In, []float64{11.5, 12.3}), tree.Continuous, "[11.5, 12.3["},
		{"day of month interval", rule.MustNew("d", operator.In, []float64{3, 8}), tree.DayOfMonth, "[3, 8["},
		{"weekdays", rule.MustNew("d", operator.In, []float64{3, 5}), tree.DayOfWeek, "Thu to Fri"},
		{"weekdays wrapping", rule.MustNew("d", operator.In, []float64{4, 0}), tree.DayOfWeek, "Fri to Sun"},
		{"single weekday", rule.MustNew("d", operator.In, []float64{2, 3}), tree.DayOfWeek, "Wed"},
		{"sunday", rule.MustNew("d", operator.In, []float64{6, 0}), tree.DayOfWeek, "Sun"},
		{"months", rule.MustNew("m", operator.In, []float64{1, 12}), tree.MonthOfYear, "Jan to Nov"},
		{"months wrapping", rule.MustNew("m", operator.In, []float64{4, 2}), tree.MonthOfYear, "Apr to Jan"},
		{"months to december", rule.MustNew("m", operator.In, []float64{5, 1}), tree.MonthOfYear, "May to Dec"},
		{"months to february", rule.MustNew("m", operator.In, []float64{5, 3}), tree.MonthOfYear, "May to Feb"},
		{"single month", rule.MustNew("m", operator.In, []float64{12, 1}), tree.MonthOfYear, "Dec"},
		{"gte", rule.MustNew("c", operator.Gte, 3.14), tree.Continuous, ">= 3.14"},
		{"gte enum", rule.MustNew("c", operator.Gte, "foo"), tree.Enum, ">= foo"},
		{"lt", rule.MustNew("c", operator.Lt, 666), tree.Continuous, "< 666"},
		{"lt timezone", rule.MustNew("tz", operator.Lt, "+02:00"), tree.Timezone, "< +02:00"},
		{"is number", rule.MustNew("c", operator.Is, 5637), tree.Continuous, "is 5637"},
		{"is enum", rule.MustNew("c", operator.Is, "abracadabra"), tree.Enum, "is abracadabra"},
		{"is null", rule.MustNew("c", operator.IsNull, nil), tree.Enum, "is null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecisionRule(tt.p, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecisionRule_UnknownOperator(t *testing.T) {
	_, err := DecisionRule(rule.Predicate{Property: "c", Operator: "~=", Operand: 1.0}, tree.Continuous)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrFormat))
}

func TestPath(t *testing.T) {
	cfg := tree.Configuration{Context: map[string]tree.Property{
		"speed": {Type: tree.Continuous},
		"day":   {Type: tree.DayOfWeek},
		"car":   {Type: tree.Enum},
	}}
	path := []rule.Predicate{
		rule.MustNew("car", operator.Is, "Renault"),
		rule.MustNew("speed", operator.Gte, 90.456),
		rule.MustNew("day", operator.In, []float64{5, 0}),
	}

	got, err := Path(path, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"car is Renault", "speed >= 90.46", "day Sat to Sun"}, got)

	_, err = Path([]rule.Predicate{{Property: "speed", Operator: "??"}}, cfg)
	assert.True(t, errors.Is(err, errs.ErrFormat))
}

// #endregion rule-tests
