package infra

import (
	"fmt"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"
)

// GoRecoverable runs f on its own goroutine and restarts it after a
// panic, spending one restart from maxPanics each time. A negative
// budget restarts forever; an exhausted budget is fatal. Restarts are
// sequential, never stacked: f runs at most once at a time.
func GoRecoverable(maxPanics int, id string, f func()) {
	go func() {
		logger := log.WithField("job", id)
		for {
			if runGuarded(logger, f) {
				return
			}
			if maxPanics == 0 {
				logger.Fatal("panic budget exhausted, exiting")
			}
			if maxPanics > 0 {
				maxPanics--
				logger.WithField("restarts_left", maxPanics).Debug("restarting job")
			}
		}
	}()
}

func runGuarded(logger *log.Entry, f func()) (completed bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(log.Fields{
				"panic": r,
				"at":    panicOrigin(),
			}).Error("recovered job panic")
		}
	}()
	f()
	return true
}

// panicOrigin walks the stack past the runtime frames to the first
// caller frame, best effort.
func panicOrigin() string {
	var pc [16]uintptr
	n := runtime.Callers(4, pc[:])

	var name, file string
	var line int
	for _, counter := range pc[:n] {
		fn := runtime.FuncForPC(counter)
		if fn == nil {
			continue
		}
		file, line = fn.FileLine(counter)
		name = fn.Name()
		if !strings.HasPrefix(name, "runtime.") {
			break
		}
	}

	switch {
	case name != "":
		return fmt.Sprintf("%s:%d", name, line)
	case file != "":
		return fmt.Sprintf("%s:%d", file, line)
	}
	return "unknown"
}
