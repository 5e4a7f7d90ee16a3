package imageops

import "fmt"

// ImageOpError reports a failed raster operation.
type ImageOpError struct {
	Operation string
	Err       error
}

func (e *ImageOpError) Error() string {
	return fmt.Sprintf("image operation %s failed: %v", e.Operation, e.Err)
}

func (e *ImageOpError) Unwrap() error {
	return e.Err
}
