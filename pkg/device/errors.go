package device

import "errors"

var (
	// ErrNotFound indicates a device was not found
	ErrNotFound = errors.New("device not found")

	// ErrValidation indicates a state payload failed schema validation
	ErrValidation = errors.New("validation error")

	// ErrCorruptSnapshot indicates the persisted device document could not be decoded
	ErrCorruptSnapshot = errors.New("corrupt device snapshot")

	// ErrNoStore indicates the registry has no persistence collaborator
	ErrNoStore = errors.New("registry has no store")
)
