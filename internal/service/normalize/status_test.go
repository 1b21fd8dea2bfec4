package normalize

import (
	"testing"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/attendance"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func hours(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestStatusFromHours(t *testing.T) {
	t.Parallel()

	cases := []struct {
		hours decimal.NullDecimal
		want  attendance.Status
	}{
		{hours("9.2"), attendance.StatusPresent},
		{hours("7.0"), attendance.StatusPresent},
		{hours("6.99"), attendance.StatusHalfDay},
		{hours("4.5"), attendance.StatusHalfDay},
		{hours("4.49"), attendance.StatusAbsent},
		{hours("0"), attendance.StatusAbsent},
		{decimal.NullDecimal{}, attendance.StatusAbsent},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, StatusFromHours(c.hours), "hours %v", c.hours)
	}
}

func TestResolveStatus(t *testing.T) {
	t.Parallel()

	table := NewStatusTable(map[string]attendance.Status{
		"P":   attendance.StatusPresent,
		"A":   attendance.StatusAbsent,
		"HD":  attendance.StatusHalfDay,
		"ML":  attendance.StatusOnLeave,
		"H":   attendance.StatusHoliday,
		"WFH": attendance.StatusWorkFromHome,
	}, "T").WithSkipStatuses(attendance.StatusHoliday)

	cases := []struct {
		name  string
		token string
		hours decimal.NullDecimal
		want  StatusDecision
	}{
		{"blank token uses hours", "", hours("9.2"), StatusDecision{Status: attendance.StatusPresent}},
		{"blank token no hours", "", decimal.NullDecimal{}, StatusDecision{Status: attendance.StatusAbsent}},
		{"present gives way to hours", "P", hours("5"), StatusDecision{Status: attendance.StatusHalfDay}},
		{"absent gives way to hours", "a", hours("8"), StatusDecision{Status: attendance.StatusPresent}},
		{"present without hours", "P", decimal.NullDecimal{}, StatusDecision{Status: attendance.StatusPresent}},
		{"leave stands", "ML", hours("8"), StatusDecision{Status: attendance.StatusOnLeave}},
		{"wfh stands", " wfh ", decimal.NullDecimal{}, StatusDecision{Status: attendance.StatusWorkFromHome}},
		{"skip token", "T", hours("8"), StatusDecision{Skip: true}},
		{"skipped status", "H", decimal.NullDecimal{}, StatusDecision{Skip: true}},
		{"unknown token", "ZZ", hours("7.5"), StatusDecision{Status: attendance.StatusPresent, Unknown: true}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ResolveStatus(c.token, c.hours, table), c.name)
	}
}

func TestStatusTable_WithDoesNotMutate(t *testing.T) {
	t.Parallel()

	base := NewStatusTable(map[string]attendance.Status{"P": attendance.StatusPresent})
	extended := base.With(map[string]attendance.Status{"OD": attendance.StatusOnLeave}, "X")

	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 3, extended.Len())
	assert.True(t, ResolveStatus("OD", decimal.NullDecimal{}, base).Unknown)
	assert.Equal(t, attendance.StatusOnLeave, ResolveStatus("OD", decimal.NullDecimal{}, extended).Status)
}

func TestOvertime(t *testing.T) {
	t.Parallel()

	standard := DefaultStandardHours

	ot := Overtime(hours("12.5"), standard)
	assertHours(t, "3.5", ot)

	ot = Overtime(hours("10"), standard)
	assertHours(t, "1", ot)

	assert.False(t, Overtime(hours("9.5"), standard).Valid, "below one hour is blank")
	assert.False(t, Overtime(hours("5"), standard).Valid)
	assert.False(t, Overtime(decimal.NullDecimal{}, standard).Valid)
}
