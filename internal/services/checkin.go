package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"campusticketing/internal/domain"
)

// CheckinHandler accepts scanned or manually entered ticket numbers and
// classifies each attempt as success, duplicate, or error. The camera stream
// is acquired when the scanner opens and released on close or teardown, on
// every exit path.
type CheckinHandler struct {
	backend domain.AttendanceBackend
	camera  domain.CameraSource
	logger  *slog.Logger

	mu     sync.Mutex
	stream domain.CameraStream
}

func NewCheckinHandler(backend domain.AttendanceBackend, camera domain.CameraSource, logger *slog.Logger) *CheckinHandler {
	return &CheckinHandler{backend: backend, camera: camera, logger: logger}
}

// Open acquires the camera and returns a channel of scan results, one per
// decoded code. The channel closes when the scanner is closed, the context is
// cancelled, or the camera stream ends; the stream is released on all of
// those paths.
func (c *CheckinHandler) Open(ctx context.Context) (<-chan domain.CheckinResult, error) {
	c.mu.Lock()
	if c.stream != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("scanner is already open")
	}
	stream, err := c.camera.Acquire(ctx)
	if err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("acquire camera: %w", err)
	}
	c.stream = stream
	c.mu.Unlock()

	results := make(chan domain.CheckinResult)
	go func() {
		defer close(results)
		defer c.release(stream)
		for {
			select {
			case <-ctx.Done():
				return
			case code, ok := <-stream.Decoded():
				if !ok {
					return
				}
				result := c.Scan(ctx, code)
				select {
				case results <- result:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return results, nil
}

// Close releases the camera. Safe to call on any path, including after an
// error or a second time.
func (c *CheckinHandler) Close() error {
	c.mu.Lock()
	stream := c.stream
	c.stream = nil
	c.mu.Unlock()
	if stream == nil {
		return nil
	}
	return stream.Close()
}

func (c *CheckinHandler) release(stream domain.CameraStream) {
	c.mu.Lock()
	if c.stream == stream {
		c.stream = nil
	}
	c.mu.Unlock()
	_ = stream.Close()
}

// Scan records one check-in attempt. Camera-decoded QR payloads and manually
// entered ticket numbers converge here: a payload that decodes is unwrapped,
// anything else is treated as a plain ticket number. Scan always returns a
// terminal classification; failures surface as an error result with the
// message intact, so the operator can immediately scan the next ticket.
func (c *CheckinHandler) Scan(ctx context.Context, input string) domain.CheckinResult {
	ticketNumber := strings.TrimSpace(input)
	if ticketNumber == "" {
		return domain.CheckinResult{Status: domain.CheckinError, Message: "ticket number is required"}
	}
	if decoded, err := DecodeQR(ticketNumber); err == nil {
		ticketNumber = decoded
	}

	result, err := c.backend.MarkAttendance(ctx, ticketNumber)
	if err != nil {
		c.logger.WarnContext(ctx, "scan failed", "ticket_number", ticketNumber, "err", err)
		return domain.CheckinResult{Status: domain.CheckinError, Message: err.Error()}
	}
	return *result
}
