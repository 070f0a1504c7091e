package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndOfDayBoundIncludesToDateOnly(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)

	to := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)
	bound := endOfDayBound(&to)
	require.NotNil(t, bound)

	// 班次日期存的是当天零点，查询用严格小于和上界比较
	sameDay := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)
	nextDay := time.Date(2026, 3, 11, 0, 0, 0, 0, loc)

	assert.True(t, sameDay.Before(*bound))
	assert.False(t, nextDay.Before(*bound))
}

func TestEndOfDayBoundNilPassthrough(t *testing.T) {
	assert.Nil(t, endOfDayBound(nil))
}
