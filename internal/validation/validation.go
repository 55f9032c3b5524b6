package validation

import (
	"os"
	"strconv"
	"strings"
)

func MaxMessageLength() int {
	maxStr := os.Getenv("MAX_MESSAGE_LENGTH")
	if maxStr == "" {
		return 4000
	}
	max, err := strconv.Atoi(maxStr)
	if err != nil || max < 1 {
		return 4000
	}
	return max
}

// TrimAndLimit trims whitespace and truncates to max runes.
func TrimAndLimit(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max])
	}
	return s
}

func ValidateRoomName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && len(name) <= 255
}

// reactionKinds is the closed set of supported reactions.
var reactionKinds = map[string]bool{
	"👍": true,
	"❤️": true,
	"😂": true,
	"😮": true,
	"😢": true,
	"😠": true,
}

func ValidReaction(kind string) bool {
	return reactionKinds[kind]
}
