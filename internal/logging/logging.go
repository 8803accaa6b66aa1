// Package logging routes the standard logger to a file so that log output
// never lands on the terminal owned by the TUI.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	logFile *os.File
)

// Init opens logPath for appending and points the standard logger at it.
// An empty path discards log output.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	if strings.TrimSpace(logPath) == "" {
		log.SetOutput(io.Discard)
		return nil
	}
	if dir := filepath.Dir(logPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	logFile = file
	log.SetOutput(logFile)
	return nil
}

// Close restores stderr output and closes the log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	log.SetOutput(os.Stderr)
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// LogEvent writes a formatted line.
func LogEvent(format string, args ...any) {
	log.Println(fmt.Sprintf(format, args...))
}

// LogRequest writes one line per HTTP exchange.
func LogRequest(method, url string, status int, elapsed time.Duration, err error) {
	log.Println(buildRequestMessage(method, url, status, elapsed, err))
}

func buildRequestMessage(method, url string, status int, elapsed time.Duration, err error) string {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = "GET"
	}
	parts := []string{
		fmt.Sprintf("[%s]", method),
		fmt.Sprintf("url=%s", url),
	}
	if status > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", status))
	}
	parts = append(parts, fmt.Sprintf("elapsed=%s", elapsed.Round(time.Millisecond)))
	if err != nil {
		parts = append(parts, fmt.Sprintf("error=%q", err.Error()))
	}
	return strings.Join(parts, " ")
}
