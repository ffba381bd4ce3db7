package service

import (
	"fmt"
	"time"
)

// requiredSignupKeys is the exact key set a signup payload must carry after
// the server injects the creation timestamp.
var requiredSignupKeys = []string{
	"first_name",
	"last_name",
	"email",
	"user_name",
	"password",
	"creation_date_time",
}

// ValidatePayload reports whether payload is a complete signup payload.
//
// It injects the current UTC timestamp under "creation_date_time" before
// comparing key sets, so the caller's map is mutated. A value passes the
// content check when its string rendering is non-empty; a numeric zero is
// therefore valid content. Stricter form validation is a client-side
// concern.
func ValidatePayload(payload map[string]any) bool {
	if payload == nil {
		return false
	}

	payload["creation_date_time"] = time.Now().UTC()

	if len(payload) != len(requiredSignupKeys) {
		return false
	}
	for _, key := range requiredSignupKeys {
		value, ok := payload[key]
		if !ok {
			return false
		}
		if len(fmt.Sprint(value)) == 0 {
			return false
		}
	}
	return true
}
