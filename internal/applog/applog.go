// Package applog provides the process-wide text logger written to
// $REMEM_DATA_DIR/remem.log with size-based rotation, plus a mirror to
// stderr for interactive visibility. Levels and the Timer helper follow
// the shape of the memory pipeline's original logging module; rotation
// is handled by lumberjack the way the host repo's own dependency list
// intends it to be used.
package applog

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultMaxBytes = 10 * 1024 * 1024 // 10 MiB

var (
	mu     sync.Mutex
	writer *lumberjack.Logger
)

// Init opens the rotating log file under dataDir. Safe to call more than
// once; later calls replace the writer. maxBytesEnv, when parseable,
// overrides the default 10 MiB per-file size (rounded down to whole MiB,
// at least 1 MiB); the file count stays at 3.
func Init(dataDir, maxBytesEnv string) {
	mu.Lock()
	defer mu.Unlock()

	maxBytes := defaultMaxBytes
	if n, err := strconv.Atoi(maxBytesEnv); err == nil && n > 0 {
		maxBytes = n
	}
	maxMB := maxBytes / (1024 * 1024) // lumberjack counts in MB
	if maxMB < 1 {
		maxMB = 1 // 0 would make lumberjack fall back to its own 100 MB default
	}

	writer = &lumberjack.Logger{
		Filename: dataDir + string(os.PathSeparator) + "remem.log",
		MaxSize:  maxMB,
		MaxBackups: 3,
		Compress:   false,
	}
}

func write(level, component, msg string) {
	line := fmt.Sprintf("[%s] [%s] [%s] %s", time.Now().Format("2006-01-02 15:04:05"), level, component, msg)
	fmt.Fprintln(os.Stderr, line)

	mu.Lock()
	w := writer
	mu.Unlock()
	if w != nil {
		_, _ = fmt.Fprintln(w, line)
	}
}

// Debug logs at debug level, gated on REMEM_DEBUG being set.
func Debug(component, msg string) {
	if os.Getenv("REMEM_DEBUG") != "" {
		write("DEBUG", component, msg)
	}
}

// Info logs at info level.
func Info(component, msg string) { write("INFO", component, msg) }

// Warn logs at warn level.
func Warn(component, msg string) { write("WARN", component, msg) }

// Error logs at error level.
func Error(component, msg string) { write("ERROR", component, msg) }

// Timer times a unit of work and logs START/DONE/FAIL lines around it.
type Timer struct {
	component string
	start     time.Time
}

// StartTimer logs the START line and returns a Timer to close out with
// Done or DoneWithError.
func StartTimer(component, msg string) *Timer {
	Info(component, "START "+msg)
	return &Timer{component: component, start: time.Now()}
}

// Done logs the DONE line with elapsed milliseconds.
func (t *Timer) Done(msg string) {
	ms := time.Since(t.start).Milliseconds()
	Info(t.component, fmt.Sprintf("DONE %dms %s", ms, msg))
}

// DoneWithError logs a FAIL line with elapsed milliseconds.
func (t *Timer) DoneWithError(err error) {
	ms := time.Since(t.start).Milliseconds()
	Error(t.component, fmt.Sprintf("FAIL %dms %v", ms, err))
}
