package attendance

import "errors"

var (
	ErrNoAttendanceData = errors.New("no attendance data for guard and period")
	ErrInvalidFact      = errors.New("attendance fact is inconsistent")
)
