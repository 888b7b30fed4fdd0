package roster_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanaol/canteen/internal/roster"
)

func TestEmployeeStatus(t *testing.T) {
	s, err := roster.EmployeeStatus("")
	require.NoError(t, err)
	assert.Equal(t, roster.StatusActive, s)

	s, err = roster.EmployeeStatus(" On_Leave ")
	require.NoError(t, err)
	assert.Equal(t, roster.StatusOnLeave, s)

	_, err = roster.EmployeeStatus("fired")
	assert.ErrorIs(t, err, roster.ErrInvalidStatus)
}

func TestHourlyRate(t *testing.T) {
	r, err := roster.HourlyRate(decimal.RequireFromString("72.505"))
	require.NoError(t, err)
	assert.Equal(t, "72.51", r.StringFixed(2))

	_, err = roster.HourlyRate(decimal.RequireFromString("-1"))
	assert.ErrorIs(t, err, roster.ErrInvalidRate)
}

func TestDay(t *testing.T) {
	d, err := roster.Day("monday")
	require.NoError(t, err)
	assert.Equal(t, "Monday", d)
	assert.Equal(t, 1, roster.DayIndex(d))

	_, err = roster.Day("Funday")
	assert.ErrorIs(t, err, roster.ErrInvalidDay)
	assert.Equal(t, -1, roster.DayIndex("monday"), "index expects the canonical name")
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"07:30", "07:30", true},
		{"7:05", "07:05", true},
		{"23:59:59", "23:59", true},
		{"00:00", "00:00", true},
		{"24:00", "", false},
		{"12:60", "", false},
		{"noon", "", false},
		{"12", "", false},
		{"12:00:61", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := roster.ParseClock(tt.in)
			if !tt.ok {
				assert.ErrorIs(t, err, roster.ErrInvalidTime)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.String())
		})
	}
}

func TestClockMicros(t *testing.T) {
	c := *clock("13:45")
	assert.Equal(t, int64(13*3600+45*60)*1_000_000, c.Micros())
	assert.Equal(t, c, roster.FromMicros(c.Micros()+59_000_000), "seconds are dropped")
}

func TestShiftValidate(t *testing.T) {
	assert.NoError(t, roster.Shift{Day: "Monday", Start: 7 * 60, End: 15 * 60}.Validate())
	assert.ErrorIs(t, roster.Shift{Day: "Monday", Start: 15 * 60, End: 7 * 60}.Validate(), roster.ErrShiftOrder)
	assert.ErrorIs(t, roster.Shift{Day: "Monday", Start: 9 * 60, End: 9 * 60}.Validate(), roster.ErrShiftOrder)
	assert.ErrorIs(t, roster.Shift{Day: "mon", Start: 1, End: 2}.Validate(), roster.ErrInvalidDay)
}

func clock(s string) *roster.Clock {
	c, err := roster.ParseClock(s)
	if err != nil {
		panic(err)
	}
	return &c
}

func TestApplyPunch_FillsOnlyEmptyClocks(t *testing.T) {
	rec := roster.Attendance{CheckIn: clock("07:00"), Status: roster.AttendanceLate}

	got, changed := roster.ApplyPunch(rec, roster.Punch{CheckIn: clock("06:00"), CheckOut: clock("15:00")})
	require.True(t, changed)
	assert.Equal(t, "07:00", got.CheckIn.String(), "existing check-in is kept")
	assert.Equal(t, "15:00", got.CheckOut.String())
	assert.Equal(t, roster.AttendanceLate, got.Status)

	_, changed = roster.ApplyPunch(got, roster.Punch{CheckOut: clock("16:00")})
	assert.False(t, changed)
}

func TestApplyPunch_FirstCheckInMarksPresent(t *testing.T) {
	got, changed := roster.ApplyPunch(roster.Attendance{Status: roster.AttendanceAbsent}, roster.Punch{CheckIn: clock("08:00"), Notes: "traffic"})
	require.True(t, changed)
	assert.Equal(t, roster.AttendancePresent, got.Status)
	assert.Equal(t, "traffic", got.Notes)
}

func TestAttendanceValidate(t *testing.T) {
	assert.NoError(t, roster.Attendance{CheckIn: clock("08:00")}.Validate())
	assert.ErrorIs(t, roster.Attendance{CheckIn: clock("08:00"), CheckOut: clock("07:59")}.Validate(), roster.ErrCheckOutOrder)
}

func TestAttendanceStatus(t *testing.T) {
	s, err := roster.AttendanceStatus("")
	require.NoError(t, err)
	assert.Equal(t, roster.AttendancePresent, s)
	_, err = roster.AttendanceStatus("sleeping")
	assert.ErrorIs(t, err, roster.ErrInvalidStatus)
}

func TestLeave(t *testing.T) {
	start, err := roster.ParseDate("2025-03-10")
	require.NoError(t, err)
	end, err := roster.ParseDate("2025-03-12")
	require.NoError(t, err)

	assert.NoError(t, roster.LeaveRange(start, end))
	assert.NoError(t, roster.LeaveRange(start, start))
	assert.ErrorIs(t, roster.LeaveRange(end, start), roster.ErrLeaveRange)
	assert.Equal(t, 3, roster.LeaveDays(start, end))
	assert.Equal(t, 1, roster.LeaveDays(start, start))

	typ, err := roster.LeaveType("")
	require.NoError(t, err)
	assert.Equal(t, roster.LeaveOther, typ)
	_, err = roster.LeaveType("sabbatical")
	assert.ErrorIs(t, err, roster.ErrInvalidLeaveType)

	st, err := roster.LeaveStatus("APPROVED")
	require.NoError(t, err)
	assert.Equal(t, roster.LeaveApproved, st)

	_, err = roster.ParseDate("10/03/2025")
	assert.ErrorIs(t, err, roster.ErrInvalidDate)
}
