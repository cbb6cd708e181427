package handler

const (
	errInternalServer = "Internal server error"

	errTargetNotFound   = "Target not found"
	errInvalidTargetURL = "Target url must start with http:// or https://"
	errInvalidTimeout   = "Target timeout_seconds is out of range"

	errScheduleNotFound  = "Schedule not found"
	errScheduleNotActive = "Schedule is not active"
	errScheduleNotPaused = "Schedule is not paused"

	errRunNotFound = "Run not found"
)
