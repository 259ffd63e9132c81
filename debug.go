package tangram

import (
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"
)

// DebugFlag selects a debug behavior of the label engine.
type DebugFlag uint32

const (
	// DebugDrawAllLabels bypasses dead-state culling during collection,
	// so dead labels still enter the occlusion pass. They stay dead and
	// emit no vertices.
	DebugDrawAllLabels DebugFlag = 1 << iota

	// DebugLabels enables the label debug overlay (bounding boxes,
	// parent links, broad-phase grid).
	DebugLabels
)

// debugFlags is a process-wide bit-set, read once at the top of each
// frame. Stored atomically so a UI thread can toggle flags while the
// render loop runs.
var debugFlags atomic.Uint32

// SetDebugFlag sets or clears a debug flag.
func SetDebugFlag(flag DebugFlag, on bool) {
	for {
		old := debugFlags.Load()
		var next uint32
		if on {
			next = old | uint32(flag)
		} else {
			next = old &^ uint32(flag)
		}
		if debugFlags.CompareAndSwap(old, next) {
			return
		}
	}
}

// GetDebugFlag reports whether a debug flag is set.
func GetDebugFlag(flag DebugFlag) bool {
	return debugFlags.Load()&uint32(flag) != 0
}

// ToggleDebugFlag flips a debug flag and returns its new value.
func ToggleDebugFlag(flag DebugFlag) bool {
	for {
		old := debugFlags.Load()
		next := old ^ uint32(flag)
		if debugFlags.CompareAndSwap(old, next) {
			return next&uint32(flag) != 0
		}
	}
}

// debugEnv mirrors the recognized flags as environment switches.
type debugEnv struct {
	DrawAllLabels bool `envconfig:"DRAW_ALL_LABELS"`
	Labels        bool `envconfig:"LABELS"`
}

// DebugFlagsFromEnv primes the debug flags from TANGRAM_-prefixed
// environment variables (TANGRAM_DRAW_ALL_LABELS, TANGRAM_LABELS).
// Unset variables leave the corresponding flag untouched; unknown
// variables are ignored.
func DebugFlagsFromEnv() error {
	var env debugEnv
	if err := envconfig.Process("tangram", &env); err != nil {
		return err
	}
	if env.DrawAllLabels {
		SetDebugFlag(DebugDrawAllLabels, true)
	}
	if env.Labels {
		SetDebugFlag(DebugLabels, true)
	}
	return nil
}
