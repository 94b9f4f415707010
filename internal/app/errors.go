package app

import "strings"

// ErrorClass buckets a startup failure for user display.
type ErrorClass string

const (
	// ErrClassPermissionDenied covers camera permission refusals.
	ErrClassPermissionDenied ErrorClass = "permission-denied"
	// ErrClassDeviceNotFound covers missing or unopenable camera devices.
	ErrClassDeviceNotFound ErrorClass = "device-not-found"
	// ErrClassNetwork covers avatar model and detector asset fetch failures.
	ErrClassNetwork ErrorClass = "network-error"
	// ErrClassOther covers everything else.
	ErrClassOther ErrorClass = "other"
)

var permissionSubstrings = []string{
	"permission denied",
	"not authorized",
	"access denied",
	"operation not permitted",
}

var deviceSubstrings = []string{
	"no such device",
	"device not found",
	"cannot open camera",
	"can't open camera",
	"out of range",
	"no cameras",
}

var networkSubstrings = []string{
	"network",
	"connection refused",
	"no such host",
	"timeout",
	"timed out",
	"unexpected eof",
}

// Classify buckets an error by substring match on its message, checked in
// priority order: permission, device, network, other.
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrClassOther
	}

	msg := strings.ToLower(err.Error())

	for _, s := range permissionSubstrings {
		if strings.Contains(msg, s) {
			return ErrClassPermissionDenied
		}
	}
	for _, s := range deviceSubstrings {
		if strings.Contains(msg, s) {
			return ErrClassDeviceNotFound
		}
	}
	for _, s := range networkSubstrings {
		if strings.Contains(msg, s) {
			return ErrClassNetwork
		}
	}

	return ErrClassOther
}

// StatusMessage renders a startup failure as a single human-readable line.
func StatusMessage(err error) string {
	switch Classify(err) {
	case ErrClassPermissionDenied:
		return "Camera access denied. Grant camera permission and reload."
	case ErrClassDeviceNotFound:
		return "No camera found. Connect a webcam and reload."
	case ErrClassNetwork:
		return "Could not download the avatar model. Check your connection and reload."
	default:
		return "Something went wrong: " + err.Error()
	}
}
