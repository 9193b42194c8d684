package env

import (
	"os"
	"strings"
	"time"
)

// GetOptionalDuration retrieves a duration-typed environment variable that
// may legitimately be absent (meaning "no limit"). An unset variable, an
// empty value, or the literal "null" all report ok=false; any other value
// is parsed with time.ParseDuration and panics on malformed input, matching
// GetEnv's "fail loud on malformed config" behavior.
func GetOptionalDuration(key string) (dur time.Duration, ok bool) {
	val, present := os.LookupEnv(key)
	if !present || val == "" || strings.EqualFold(val, "null") {
		return 0, false
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		panic("env: failed to parse duration " + key + "=" + val + ": " + err.Error())
	}

	return d, true
}
