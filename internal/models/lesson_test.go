package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekday(t *testing.T) {
	day, err := ParseWeekday(1)
	require.NoError(t, err)
	assert.Equal(t, Montag, day)
	assert.Equal(t, "Montag", day.Label())

	for _, ordinal := range []int{0, 6, -1} {
		_, err := ParseWeekday(ordinal)
		assert.Error(t, err)
	}
}

func TestWeekdaysOrder(t *testing.T) {
	days := Weekdays()
	require.Len(t, days, 5)
	assert.Equal(t, Montag, days[0])
	assert.Equal(t, Freitag, days[4])
	for i := 1; i < len(days); i++ {
		assert.Greater(t, int(days[i]), int(days[i-1]))
	}
}

func TestUserRoleValid(t *testing.T) {
	assert.True(t, RoleStudent.Valid())
	assert.True(t, RoleTeacher.Valid())
	assert.False(t, UserRole("admin").Valid())
}
