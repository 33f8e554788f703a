package simulator

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/controlpet/internal/logging"
)

// CaptureRecord is one captured frame, written as a JSON line
type CaptureRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	MessageNum   int       `json:"message_num"`
	RemoteAddr   string    `json:"remote_addr"`
	Transport    string    `json:"transport"`
	Direction    string    `json:"direction"`
	PayloadLen   int       `json:"payload_length"`
	PayloadHex   string    `json:"payload_hex"`
	PayloadASCII string    `json:"payload_ascii"`
}

// Payload returns the captured bytes
func (r CaptureRecord) Payload() ([]byte, error) {
	return hex.DecodeString(r.PayloadHex)
}

// captureWriter appends every frame to a JSONL file. A nil writer is a no-op.
type captureWriter struct {
	mu       sync.Mutex
	file     *os.File
	filename string
	count    int
}

func newCaptureWriter(dir string) (*captureWriter, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("capture directory does not exist: %s", dir)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access capture directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("capture path is not a directory: %s", dir)
	}

	filename := filepath.Join(dir, fmt.Sprintf("capture-%s.jsonl", time.Now().Format("20060102-150405")))
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}

	logging.Info("Capturing traffic", zap.String("filename", filename))
	return &captureWriter{file: f, filename: filename}, nil
}

func (c *captureWriter) record(p peer, direction string, frame []byte) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.count++
	rec := CaptureRecord{
		Timestamp:    time.Now(),
		MessageNum:   c.count,
		RemoteAddr:   p.remote(),
		Transport:    p.transport(),
		Direction:    direction,
		PayloadLen:   len(frame),
		PayloadHex:   hex.EncodeToString(frame),
		PayloadASCII: toASCII(frame),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		logging.Error("Failed to marshal capture record", zap.Error(err))
		return
	}
	if _, err := c.file.Write(append(data, '\n')); err != nil {
		logging.Error("Failed to write to capture file",
			zap.String("filename", c.filename),
			zap.Error(err),
		)
	}
}

func (c *captureWriter) close() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.file.Close()
}

// ReadCapture parses a JSONL capture produced by the simulator
func ReadCapture(r io.Reader) ([]CaptureRecord, error) {
	var records []CaptureRecord

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec CaptureRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return records, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("read capture: %w", err)
	}
	return records, nil
}

// toASCII converts bytes to ASCII string (non-printable chars become '.')
func toASCII(data []byte) string {
	result := make([]byte, len(data))
	for i, b := range data {
		if b >= 32 && b <= 126 {
			result[i] = b
		} else {
			result[i] = '.'
		}
	}
	return string(result)
}
