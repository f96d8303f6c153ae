package device

import "github.com/cockroachdb/errors"

// Error kinds. Backends mark their failures with these so the workflow can
// tell recoverable hardware trouble apart from programming errors.
var (
	ErrCameraUnavailable  = errors.New("camera unavailable")
	ErrPreviewUnavailable = errors.New("preview unavailable")
	ErrCaptureFailed      = errors.New("capture failed")
	ErrPrintUnavailable   = errors.New("printer unavailable")
	ErrTransport          = errors.New("print transport error")
	ErrFilterFailed       = errors.New("filter failed")
)
