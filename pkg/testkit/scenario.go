// Package testkit runs JSON scenario files against an http.Handler.
//
// A scenario names one request and what must come back:
//
//	{
//	  "name": "SleepShort",
//	  "requestMethod": "GET",
//	  "requestUrl": "/api/sleep/20",
//	  "expectedCode": 200,
//	  "responseFileName": "sleep_short_res.json",
//	  "minDurationMs": 20
//	}
//
// Scenario files live in a testdata directory next to the test:
//
//	func TestAPI(t *testing.T) {
//	    testkit.RunDir(t, handler, "testdata")
//	}
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Scenario describes a single REST API test case loaded from a JSON file.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	RequestMethod   string            `json:"requestMethod"`
	RequestURL      string            `json:"requestUrl"`
	RequestFileName string            `json:"requestFileName"` // relative to the scenario file
	Headers         map[string]string `json:"headers"`

	ExpectedCode     int    `json:"expectedCode"`
	ResponseFileName string `json:"responseFileName"` // expected JSON body
	ResponseContains string `json:"responseContains"` // substring of the body

	// Duration bounds on handler latency. Zero means unbounded.
	MinDurationMs int `json:"minDurationMs"`
	MaxDurationMs int `json:"maxDurationMs"`

	dir string
}

// LoadScenario reads and validates a scenario from a JSON file.
func LoadScenario(path string) (*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve path %q: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}

	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("testkit: invalid scenario %q: %w", abs, err)
	}

	s.dir = filepath.Dir(abs)
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.RequestURL == "" {
		return fmt.Errorf("requestUrl is required")
	}
	if s.ExpectedCode == 0 {
		return fmt.Errorf("expectedCode is required")
	}
	if s.MinDurationMs < 0 || s.MaxDurationMs < 0 {
		return fmt.Errorf("duration bounds must not be negative")
	}
	if s.MaxDurationMs > 0 && s.MinDurationMs > s.MaxDurationMs {
		return fmt.Errorf("minDurationMs exceeds maxDurationMs")
	}
	if s.RequestMethod == "" {
		s.RequestMethod = "GET"
	}
	return nil
}

// MinDuration returns the lower latency bound.
func (s *Scenario) MinDuration() time.Duration {
	return time.Duration(s.MinDurationMs) * time.Millisecond
}

// MaxDuration returns the upper latency bound, or 0 when unbounded.
func (s *Scenario) MaxDuration() time.Duration {
	return time.Duration(s.MaxDurationMs) * time.Millisecond
}

// RequestBodyPath returns the absolute request body path, or "".
func (s *Scenario) RequestBodyPath() string {
	return s.resolve(s.RequestFileName)
}

// ResponseBodyPath returns the absolute expected response path, or "".
func (s *Scenario) ResponseBodyPath() string {
	return s.resolve(s.ResponseFileName)
}

func (s *Scenario) resolve(name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}
