package types

import (
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex cfn_01J9Z3K6Q4W8X2M5N7P0R1S3T4
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

// ValidateUUIDWithPrefix reports whether id is prefix_ followed by a well-formed identifier
func ValidateUUIDWithPrefix(id, prefix string) bool {
	rest, ok := strings.CutPrefix(id, prefix+"_")
	if !ok {
		return false
	}
	_, err := ulid.ParseStrict(rest)
	return err == nil
}

const (
	UUID_PREFIX_NUMBER_BINDING    = "cfn"
	UUID_PREFIX_CALL_EVENT        = "call"
	UUID_PREFIX_LEAVE_MESSAGE     = "lmsg"
	UUID_PREFIX_PUSH_SUBSCRIPTION = "push"
	UUID_PREFIX_MESSAGE_ATTEMPT   = "msga"
	UUID_PREFIX_TASK              = "task"
	UUID_PREFIX_PREPARE_STATUS    = "prep"
)
