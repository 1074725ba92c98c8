package consts

import "time"

// Delivery queue sizing
const (
	// DefaultQueueCapacity is the number of raw messages that may be in flight
	// between the receiver and the aggregator before the receiver blocks.
	DefaultQueueCapacity = 100
)

// Buffer sizes for various operations
const (
	// BufferSize1KB is 1 kilobyte
	BufferSize1KB = 1024
	// BufferSize256KB is 256 kilobytes
	BufferSize256KB = 256 * 1024
	// BufferSize1MB is 1 megabyte
	BufferSize1MB = 1024 * 1024
)

// Transport limits
const (
	// DefaultReadLimit caps the size of a single incoming frame
	DefaultReadLimit = BufferSize1MB
	// DefaultHandshakeBufferSize is used for both read and write buffers of the dialer
	DefaultHandshakeBufferSize = BufferSize1KB * 4
)

// Timeouts for various operations
const (
	// Timeout1Second is a 1 second timeout
	Timeout1Second = 1 * time.Second
	// Timeout5Seconds is a 5 second timeout
	Timeout5Seconds = 5 * time.Second
	// Timeout10Seconds is a 10 second timeout
	Timeout10Seconds = 10 * time.Second
)

// UI timings
const (
	// NotifyMinInterval is the minimum gap between two desktop notifications
	NotifyMinInterval = Timeout1Second
	// DiagnosticVisibleFor is how long the latest diagnostic stays in the footer
	DiagnosticVisibleFor = 15 * time.Second
	// ThemeReloadDebounce coalesces bursts of file system events on the theme file
	ThemeReloadDebounce = 200 * time.Millisecond
)
