package payroll

import "errors"

var (
	ErrSlipNotFound         = errors.New("salary slip not found")
	ErrAttendanceIncomplete = errors.New("attendance is not complete for the period")
	ErrAttendanceMissing    = errors.New("attendance missing for one or more employees")
	ErrSlipTransferred      = errors.New("salary slip already transferred")
	ErrEmployeeTerminated   = errors.New("employee is terminated")
	ErrSlipConflict         = errors.New("salary slip was replaced concurrently")
	ErrNoEmployees          = errors.New("no employees selected")
)
