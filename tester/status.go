package tester

import (
	"encoding/json"
	"fmt"

	"github.com/plugtest/plugtest/plugin"
)

// Status is where a scraper's test stands.
type Status int

const (
	// Idle means loaded but never run.
	Idle Status = iota
	// Running means a test is in flight.
	Running
	// OK means the script ran and found at least one stream.
	OK
	// OKEmpty means the script ran and found nothing.
	OKEmpty
	// Fail means the script could not be fetched or raised an error.
	Fail
)

var statusNames = map[Status]string{
	Idle:    "idle",
	Running: "running",
	OK:      "ok",
	OKEmpty: "ok-empty",
	Fail:    "fail",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Terminal reports whether s is a finished outcome.
func (s Status) Terminal() bool {
	return s == OK || s == OKEmpty || s == Fail
}

// ParseStatus is the inverse of String.
func ParseStatus(name string) (Status, error) {
	for status, n := range statusNames {
		if n == name {
			return status, nil
		}
	}
	return Idle, fmt.Errorf("unknown status %q", name)
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}

	parsed, err := ParseStatus(name)
	if err != nil {
		return err
	}

	*s = parsed
	return nil
}

// Classify maps a finished execution to its outcome. An error always means Fail; a run
// without streams, including one that returned no output at all, is OKEmpty.
func Classify(out *plugin.Output, err error) Status {
	switch {
	case err != nil:
		return Fail
	case out == nil || len(out.Streams) == 0:
		return OKEmpty
	default:
		return OK
	}
}
