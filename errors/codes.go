package errors

var (
	ErrClosing           = New(503, "channel manager is closing")
	ErrBackendAlreadySet = New(409, "backend already set")
	ErrInvalidConfig     = New(400, "invalid configuration")
	ErrLoadFailed        = New(500, "failed to load component")
)
