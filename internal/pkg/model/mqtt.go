package model

import "fmt"

// TTSTopic is where text to speech messages are published.
const TTSTopic = "tts"

// LogTopic returns the bus topic log lines are mirrored to, empty when no base is configured.
func LogTopic(base string) string {
	if base == "" {
		return ""
	}
	return fmt.Sprintf("%s/log", base)
}

// StartedTopic is where the connect notice goes. Unlike LogTopic it is used
// even without a base, which yields "/log".
func StartedTopic(base string) string {
	return fmt.Sprintf("%s/log", base)
}
