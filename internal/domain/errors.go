package domain

import "errors"

var (
	ErrTargetNotFound    = errors.New("target not found")
	ErrInvalidTargetURL  = errors.New("target url must start with http:// or https://")
	ErrInvalidTimeout    = errors.New("target timeout_seconds is out of range")

	ErrScheduleNotFound    = errors.New("schedule not found")
	ErrScheduleNotActive   = errors.New("schedule is not active")
	ErrScheduleNotPaused   = errors.New("schedule is not paused")
	ErrInvalidCronExpr     = errors.New("invalid cron expression")
	ErrInvalidScheduleKind = errors.New("schedule must set exactly one of interval_seconds or cron_expr")

	ErrRunNotFound  = errors.New("run not found")
	ErrDuplicateRun = errors.New("run with this idempotency key already exists")
)
