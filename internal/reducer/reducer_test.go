package reducer

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/treedecide/internal/errs"
	"github.com/danielpatrickdp/treedecide/internal/operator"
	"github.com/danielpatrickdp/treedecide/internal/rule"
)

func is(v any) rule.Predicate { return rule.MustNew("foo", operator.Is, v) }
func in(from, to float64) rule.Predicate {
	return rule.MustNew("foo", operator.In, []float64{from, to})
}
func gte(v float64) rule.Predicate { return rule.MustNew("foo", operator.Gte, v) }
func lt(v float64) rule.Predicate  { return rule.MustNew("foo", operator.Lt, v) }

type reduceCase struct {
	name  string
	rules []rule.Predicate
	want  rule.Predicate
	fails bool
}

var reduceCases = []reduceCase{
	{name: "is/is same", rules: []rule.Predicate{is("toto"), is("toto")}, want: is("toto")},
	{name: "is alone", rules: []rule.Predicate{is("toto")}, want: is("toto")},
	{name: "is with in", rules: []rule.Predicate{is("toto"), in(1, 13)}, fails: true},
	{name: "is/is different", rules: []rule.Predicate{is("abc"), is("xyz")}, fails: true},

	{name: "in nested", rules: []rule.Predicate{in(0, 13), in(2, 12)}, want: in(2, 12)},
	{name: "in overlap right", rules: []rule.Predicate{in(0, 13), in(2, 16)}, want: in(2, 13)},
	{name: "in overlap left", rules: []rule.Predicate{in(1, 13), in(0, 12)}, want: in(1, 12)},
	{name: "wrap with plain", rules: []rule.Predicate{in(5, 3), in(2, 3)}, want: in(2, 3)},
	{name: "two wraps and plain", rules: []rule.Predicate{in(5, 4), in(12, 1), in(12, 16)}, want: in(12, 16)},
	{name: "in twice", rules: []rule.Predicate{in(3, 4), in(3, 4)}, want: in(3, 4)},
	{name: "wrap twice", rules: []rule.Predicate{in(4, 2), in(4, 2)}, want: in(4, 2)},
	{name: "disjoint with wrap", rules: []rule.Predicate{in(15, 20), in(22, 14)}, fails: true},
	{name: "disjoint", rules: []rule.Predicate{in(15, 20), in(22, 25)}, fails: true},
	{name: "two wraps", rules: []rule.Predicate{in(23, 3), in(22, 2)}, want: in(23, 2)},

	{name: "in then lt", rules: []rule.Predicate{in(1, 13), lt(2)}, want: in(1, 2)},
	{name: "in then gte", rules: []rule.Predicate{in(1, 13), gte(12)}, want: in(12, 13)},
	{name: "in lt gte", rules: []rule.Predicate{in(1, 13), lt(12), gte(2)}, want: in(2, 12)},

	{name: "lt/lt", rules: []rule.Predicate{lt(2), lt(6)}, want: lt(2)},
	{name: "lt then in", rules: []rule.Predicate{lt(2), in(1, 13)}, want: in(1, 2)},
	{name: "lt then gte", rules: []rule.Predicate{lt(13), gte(2)}, want: in(2, 13)},
	{name: "mixed bounds", rules: []rule.Predicate{lt(650), gte(232.82), lt(251.99), lt(345.22)}, want: in(232.82, 251.99)},

	{name: "gte/gte", rules: []rule.Predicate{gte(4), gte(2)}, want: gte(4)},
	{name: "gte then in", rules: []rule.Predicate{gte(2), in(1, 13)}, want: in(2, 13)},
	{name: "gte above lt", rules: []rule.Predicate{gte(13), lt(2)}, fails: true},
}

// #region reduce-tests
func TestReduce_WorkedExamples(t *testing.T) {
	for _, tc := range reduceCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Reduce(tc.rules)
			if tc.fails {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errs.ErrReduction))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []rule.Predicate{tc.want}, got)
		})
	}
}

func TestReduce_OrderIndependent(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for _, tc := range reduceCases {
		for i := 0; i < 10; i++ {
			shuffled := append([]rule.Predicate(nil), tc.rules...)
			r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

			got, err := Reduce(shuffled)
			if tc.fails {
				assert.Error(t, err, "%s %v", tc.name, shuffled)
				continue
			}
			require.NoError(t, err, "%s %v", tc.name, shuffled)
			assert.Equal(t, []rule.Predicate{tc.want}, got, "%s %v", tc.name, shuffled)
		}
	}
}

func TestReduce_Idempotent(t *testing.T) {
	for _, tc := range reduceCases {
		if tc.fails {
			continue
		}
		once, err := Reduce(tc.rules)
		require.NoError(t, err)
		twice, err := Reduce(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, tc.name)
	}
}

func TestReduce_KeepsFirstOccurrenceOrder(t *testing.T) {
	rules := []rule.Predicate{
		rule.MustNew("b", operator.Gte, 1.0),
		rule.MustNew("a", operator.Is, "x"),
		rule.MustNew("b", operator.Lt, 5.0),
		rule.MustNew("c", operator.IsNull, nil),
		rule.MustNew("c", operator.IsNull, nil),
	}

	got, err := Reduce(rules)
	require.NoError(t, err)
	assert.Equal(t, []rule.Predicate{
		rule.MustNew("b", operator.In, []float64{1, 5}),
		rule.MustNew("a", operator.Is, "x"),
		rule.MustNew("c", operator.IsNull, nil),
	}, got)
}

func TestReduce_Errors(t *testing.T) {
	_, err := Reduce([]rule.Predicate{rule.MustNew("foo", operator.IsNull, nil), gte(3)})
	require.Error(t, err)
	var rerr *errs.ReductionError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "foo", rerr.Property)

	// A wrapping interval cut by a plain one can leave two separate pieces.
	_, err = Reduce([]rule.Predicate{in(22, 6), in(1, 23)})
	assert.True(t, errors.Is(err, errs.ErrReduction))

	_, err = Reduce([]rule.Predicate{
		rule.MustNew("foo", operator.Gte, "a"),
		rule.MustNew("foo", operator.Gte, "b"),
	})
	assert.True(t, errors.Is(err, errs.ErrReduction))
}

// Bounds cut a wrapping interval as sets of reals: the result holds exactly the
// values satisfying every rule.
func TestReduce_WrapCutByBound(t *testing.T) {
	cases := []reduceCase{
		{name: "wrap then gte inside gap", rules: []rule.Predicate{in(5, 3), gte(4)}, want: gte(5)},
		{name: "wrap then lt inside gap", rules: []rule.Predicate{in(5, 3), lt(2)}, want: lt(2)},
		{name: "gte then wrap", rules: []rule.Predicate{gte(4), in(5, 3)}, want: gte(5)},
		{name: "wrap then gte above from", rules: []rule.Predicate{in(5, 3), gte(7)}, want: gte(7)},
		{name: "wrap then gte and lt", rules: []rule.Predicate{in(22, 2), gte(0), lt(1)}, want: in(0, 1)},
		{name: "wrap cut by full domain", rules: []rule.Predicate{in(22, 2), in(0, 24)}, fails: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Reduce(tc.rules)
			if tc.fails {
				assert.True(t, errors.Is(err, errs.ErrReduction), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []rule.Predicate{tc.want}, got)
		})
	}
}

func TestReduce_Empty(t *testing.T) {
	got, err := Reduce(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// #endregion reduce-tests
