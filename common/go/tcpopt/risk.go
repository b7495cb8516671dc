package tcpopt

import (
	"fmt"
	"strings"
)

// Risk is the fingerprinting risk of a timestamp value.
//
// Levels are ordered, so they can be compared with relational operators.
type Risk uint8

const (
	// RiskLow means the timestamp reveals nothing, e.g. it is zero.
	RiskLow Risk = iota
	// RiskMedium means the timestamp reveals relative uptime only.
	RiskMedium
	// RiskHigh means the timestamp exposes tick frequency or boot time.
	RiskHigh
	// RiskCritical is reserved. AssessRisk never returns it.
	RiskCritical
)

var riskNames = [...]string{
	RiskLow:      "Low",
	RiskMedium:   "Medium",
	RiskHigh:     "High",
	RiskCritical: "Critical",
}

func (m Risk) String() string {
	if int(m) < len(riskNames) {
		return riskNames[m]
	}

	return fmt.Sprintf("Risk(%d)", uint8(m))
}

// ParseRisk parses a risk level name, case-insensitively.
func ParseRisk(s string) (Risk, error) {
	for idx, name := range riskNames {
		if strings.EqualFold(s, name) {
			return Risk(idx), nil
		}
	}

	return RiskLow, fmt.Errorf("unknown risk level %q", s)
}

func (m Risk) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Risk) UnmarshalText(text []byte) error {
	risk, err := ParseRisk(string(text))
	if err != nil {
		return err
	}

	*m = risk
	return nil
}

// Timer frequencies commonly used by OS kernels. A timestamp that is a
// multiple of one of them is presumed to leak the host tick rate.
var tickFrequencies = [...]uint32{100, 250, 300, 1000}

// bootWindow is the TSval below which the host is considered recently booted.
const bootWindow = 10000

// AssessRisk classifies a TSval.
//
// Rules are evaluated in order, the first match wins:
//   - zero is Low, it signals disabled timestamps;
//   - a multiple of a common tick frequency is High;
//   - a multiple of 1000 is Medium (shadowed by the previous rule);
//   - a value below 10000 is High, the host has just booted;
//   - anything else is Medium.
func AssessRisk(tsVal uint32) Risk {
	if tsVal == 0 {
		return RiskLow
	}

	for _, hz := range tickFrequencies {
		if tsVal%hz == 0 {
			return RiskHigh
		}
	}

	if tsVal%1000 == 0 {
		return RiskMedium
	}

	if tsVal < bootWindow {
		return RiskHigh
	}

	return RiskMedium
}
