package lfmalloc

import "sync/atomic"

import golog "github.com/bnclabs/golog"

var logok int64

// LogComponents enables golog-backed diagnostic logging for lfmalloc.
// By default logging is disabled; call with "alloc", "audit", "self",
// or "all" to turn it on.
func LogComponents(components ...string) {
	for _, comp := range components {
		switch comp {
		case "alloc", "audit", "self", "all":
			atomic.StoreInt64(&logok, 1)
		}
	}
}

func debugf(format string, v ...interface{}) {
	if atomic.LoadInt64(&logok) > 0 {
		golog.Debugf(format, v...)
	}
}

func errorf(format string, v ...interface{}) {
	if atomic.LoadInt64(&logok) > 0 {
		golog.Errorf(format, v...)
	}
}

func infof(format string, v ...interface{}) {
	if atomic.LoadInt64(&logok) > 0 {
		golog.Infof(format, v...)
	}
}
