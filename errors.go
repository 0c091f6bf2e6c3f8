package emuaudio

import "errors"

// Common errors returned by the pipeline.
var (
	// ErrInvalidCapacity indicates a non-positive ring buffer capacity.
	ErrInvalidCapacity = errors.New("ring buffer capacity must be positive")

	// ErrBufferUnderrun indicates a read larger than the buffered data.
	ErrBufferUnderrun = errors.New("read exceeds buffered data")

	// ErrBufferOverrun indicates a write larger than the free space.
	ErrBufferOverrun = errors.New("write exceeds free space")

	// ErrInvalidRate indicates a non-positive sample rate.
	ErrInvalidRate = errors.New("sample rate must be positive")

	// ErrEngineClosed indicates use of a conversion engine after Close.
	ErrEngineClosed = errors.New("conversion engine is closed")
)
