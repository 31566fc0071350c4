// -----------------------------------------------------------------------
// Crash Protection - Fatal error handling and crash file generation
// -----------------------------------------------------------------------

package common

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// CrashLogDir is where crash reports are written. InstallCrashHandler
// overrides it during startup; the default catches panics that happen
// before configuration is loaded.
var CrashLogDir = "./logs"

var processStart = time.Now()

// InstallCrashHandler sets the crash report directory and ensures it
// exists. Call once during startup, before any background goroutines spawn.
func InstallCrashHandler(logDir string) {
	if logDir != "" {
		CrashLogDir = logDir
	}

	if err := os.MkdirAll(CrashLogDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "CRASH: Failed to create log directory: %v\n", err)
	}
}

// WriteCrashFile persists a crash report and returns its path. Call from
// panic recovery before the process exits or the goroutine unwinds. The
// report is written unbuffered and synced so it survives a process that
// dies immediately after.
func WriteCrashFile(panicVal interface{}, stackTrace string) string {
	now := time.Now()
	filename := fmt.Sprintf("crash-%s-%d.log", now.Format("2006-01-02T15-04-05"), os.Getpid())
	crashPath := filepath.Join(CrashLogDir, filename)

	var report bytes.Buffer

	fmt.Fprintf(&report, "=== PERSONA CRASH REPORT ===\n")
	fmt.Fprintf(&report, "Time: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&report, "Version: %s\n", GetFullVersion())
	fmt.Fprintf(&report, "Uptime: %s\n", now.Sub(processStart).Round(time.Second))
	fmt.Fprintf(&report, "\n=== PANIC ===\n%v\n", panicVal)
	fmt.Fprintf(&report, "\n=== STACK TRACE ===\n%s\n", stackTrace)
	fmt.Fprintf(&report, "\n=== ALL GOROUTINES ===\n%s\n", GetAllGoroutineStacks())

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	fmt.Fprintf(&report, "\n=== RUNTIME ===\n")
	fmt.Fprintf(&report, "NumGoroutine: %d (spawned via SafeGo: %d)\n", runtime.NumGoroutine(), GetGoroutineCount())
	fmt.Fprintf(&report, "GOOS: %s GOARCH: %s NumCPU: %d\n", runtime.GOOS, runtime.GOARCH, runtime.NumCPU())
	fmt.Fprintf(&report, "Alloc: %d MB TotalAlloc: %d MB Sys: %d MB NumGC: %d\n",
		mem.Alloc/1024/1024, mem.TotalAlloc/1024/1024, mem.Sys/1024/1024, mem.NumGC)
	fmt.Fprintf(&report, "\n=== END CRASH REPORT ===\n")

	file, err := os.OpenFile(crashPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		// Last resort: dump the whole report to stderr
		fmt.Fprintf(os.Stderr, "CRASH: Failed to create crash file: %v\n%s", err, report.String())
		return ""
	}

	if _, err := file.Write(report.Bytes()); err != nil {
		fmt.Fprintf(os.Stderr, "CRASH: Failed to write crash file: %v\n%s", err, report.String())
	}

	file.Sync()
	file.Close()

	fmt.Fprintf(os.Stderr, "\n!!! FATAL CRASH - Report saved to: %s !!!\n", crashPath)
	fmt.Fprintf(os.Stderr, "Panic: %v\n", panicVal)

	return crashPath
}

// GetAllGoroutineStacks dumps every goroutine's stack, growing the buffer
// until the dump fits.
func GetAllGoroutineStacks() string {
	buf := make([]byte, 64*1024)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			return string(buf[:n])
		}
		buf = make([]byte, len(buf)*2)
		if len(buf) > 64*1024*1024 { // Max 64MB
			return string(buf[:runtime.Stack(buf, true)])
		}
	}
}

// GetStackTrace returns the current goroutine's stack trace.
func GetStackTrace() string {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// RecoverWithCrashFile writes a crash report for an escaped panic and
// exits. Usage: defer common.RecoverWithCrashFile()
func RecoverWithCrashFile() {
	if r := recover(); r != nil {
		WriteCrashFile(r, GetStackTrace())
		os.Exit(1)
	}
}
