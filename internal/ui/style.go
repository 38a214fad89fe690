package ui

import (
	"strconv"

	"github.com/fatih/color"
)

// Sprint color functions for building styled strings.
var (
	Bold       = color.New(color.Bold).SprintFunc()
	Dim        = color.New(color.Faint).SprintFunc()
	Cyan       = color.New(color.FgCyan).SprintFunc()
	Green      = color.New(color.FgGreen).SprintFunc()
	Yellow     = color.New(color.FgYellow).SprintFunc()
	BoldCyan   = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen  = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed    = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow = color.New(color.Bold, color.FgYellow).SprintFunc()
)

// SetEnabled forces colour output on or off, overriding terminal detection.
func SetEnabled(on bool) {
	color.NoColor = !on
}

// pidColors is a palette of distinct bold colors for differentiating processes.
var pidColors = []func(a ...interface{}) string{
	color.New(color.Bold, color.FgMagenta).SprintFunc(),
	BoldCyan,
	BoldYellow,
	BoldGreen,
	color.New(color.Bold, color.FgHiBlue).SprintFunc(),
	color.New(color.Bold, color.FgHiRed).SprintFunc(),
}

// PIDLabel returns "P<pid>" coloured by pid, or a dimmed "idle" for pid < 0.
func PIDLabel(pid int) string {
	if pid < 0 {
		return Dim("idle")
	}
	c := pidColors[pid%len(pidColors)]
	return c("P" + strconv.Itoa(pid))
}

// EventKind colours a scheduler event name.
func EventKind(kind string) string {
	switch kind {
	case "Dispatch":
		return Green(kind)
	case "Preempt":
		return BoldYellow(kind)
	case "Block":
		return Cyan(kind)
	case "Finish":
		return BoldGreen(kind)
	case "Idle":
		return Dim(kind)
	default:
		return kind
	}
}
