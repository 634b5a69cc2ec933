// Package affinity pins the calling goroutine to one CPU so that repeated
// timings are not disturbed by the scheduler moving the thread around.
package affinity

import "errors"

var ErrUnsupported = errors.New("CPU pinning is not supported on this platform")
