package command

import (
	"fmt"
	"strconv"
	"strings"

	"voxelcraft.ai/guardbot/internal/agent/collab"
)

// ValidationError is a rejected argument. Its message is the chat reply.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Plugin names that can be started and stopped from chat.
const PluginAutoEat = "autoeat"

var (
	Plugins       = []string{PluginAutoEat}
	PluginActions = []string{"start", "stop"}
)

func ParseDestination(s string) (collab.Destination, error) {
	for _, d := range collab.Destinations {
		if string(d) == s {
			return d, nil
		}
	}
	names := make([]string, 0, len(collab.Destinations))
	for _, d := range collab.Destinations {
		names = append(names, string(d))
	}
	return "", invalid("%s is not a valid destination. (%s)", s, strings.Join(names, ", "))
}

func ParseCount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, invalid("%s is not a valid count.", s)
	}
	if n < 1 {
		return 0, invalid("Count must be at least 1.")
	}
	return n, nil
}

func ParsePlugin(s string) (string, error) {
	for _, p := range Plugins {
		if p == s {
			return p, nil
		}
	}
	return "", invalid("%s is not a valid plugin. (%s)", s, strings.Join(Plugins, ", "))
}

func ParsePluginAction(s string) (string, error) {
	for _, a := range PluginActions {
		if a == s {
			return a, nil
		}
	}
	return "", invalid("%s is not a valid action. (%s)", s, strings.Join(PluginActions, ", "))
}
