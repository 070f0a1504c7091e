package utils

import (
	"errors"
	"time"
)

// ValidateShiftTimes 检查 "HH:MM" 格式并要求结束时刻晚于开始时刻，不支持跨午夜的班次
func ValidateShiftTimes(startTime, endTime string) error {
	start, err := time.Parse("15:04", startTime)
	if err != nil {
		return errors.New("开始时间格式错误，应为 HH:MM")
	}
	end, err := time.Parse("15:04", endTime)
	if err != nil {
		return errors.New("结束时间格式错误，应为 HH:MM")
	}
	if !end.After(start) {
		return errors.New("结束时间必须晚于开始时间")
	}
	return nil
}
