package spaghetti

import (
	"fmt"
	"log/slog"
)

// pkgLogger is the logger set with SetLogger. nil means slog.Default().
var pkgLogger *slog.Logger

// SetLogger replaces the package logger. nil restores slog.Default().
func SetLogger(l *slog.Logger) {
	pkgLogger = l
}

// Logger returns the package logger. Subpackages log through it so one
// SetLogger call configures the whole engine.
func Logger() *slog.Logger { return logger() }

func logger() *slog.Logger {
	if pkgLogger != nil {
		return pkgLogger
	}
	return slog.Default()
}

// debugLog logs traversal stats at debug level.
func (s *Scene) debugLog(stats RenderStats) {
	if !s.debug {
		return
	}
	logger().Debug("render",
		"scene", s.name,
		"visited", stats.Visited,
		"skipped", stats.Skipped,
		"draws", stats.Draws,
		"took", stats.Duration,
	)
}

// debugCheckDestroyed panics when a destroyed entity is used. Only called
// in debug mode.
func debugCheckDestroyed(e *Entity, op string) {
	if e.destroyed {
		panic(fmt.Sprintf("spaghetti debug: %s on destroyed entity %q (ID was %s)", op, e.name, e.id))
	}
}

// debugCheckTreeDepth warns if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(e *Entity) {
	depth := 0
	for p := e; p != nil; p = p.Parent() {
		depth++
	}
	if depth > debugMaxTreeDepth {
		logger().Warn("tree depth exceeds threshold", "entity", e.name, "depth", depth, "threshold", debugMaxTreeDepth)
	}
}

// debugCheckChildCount warns if an entity has more than 1000 children.
const debugMaxChildCount = 1000

func debugCheckChildCount(e *Entity) {
	if len(e.children) > debugMaxChildCount {
		logger().Warn("child count exceeds threshold", "entity", e.name, "children", len(e.children), "threshold", debugMaxChildCount)
	}
}
