package league

import (
	"fmt"
	"strconv"
	"strings"
)

// Window is the statistical split a period covers.
type Window string

const (
	WindowTotal     Window = "total"
	WindowLast7     Window = "last_7"
	WindowLast15    Window = "last_15"
	WindowLast30    Window = "last_30"
	WindowProjected Window = "projected"
)

// Period identifies a statistical period, e.g. "2026_total" or "2026_last_15".
type Period struct {
	Season int
	Window Window
}

// ParsePeriod parses the "<season>_<window>" form used by the API.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	idx := strings.Index(s, "_")
	if idx <= 0 {
		return Period{}, fmt.Errorf("invalid period %q", s)
	}

	season, err := strconv.Atoi(s[:idx])
	if err != nil || season < 2000 {
		return Period{}, fmt.Errorf("invalid period season in %q", s)
	}

	w := Window(s[idx+1:])
	switch w {
	case WindowTotal, WindowLast7, WindowLast15, WindowLast30, WindowProjected:
	default:
		return Period{}, fmt.Errorf("invalid period window in %q", s)
	}

	return Period{Season: season, Window: w}, nil
}

// DefaultPeriod is the full-season period for a season.
func DefaultPeriod(season int) Period {
	return Period{Season: season, Window: WindowTotal}
}

func (p Period) String() string {
	return fmt.Sprintf("%d_%s", p.Season, p.Window)
}

// MarshalText lets periods serialize as their string form.
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses the string form.
func (p *Period) UnmarshalText(b []byte) error {
	parsed, err := ParsePeriod(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePeriods parses a comma separated list of periods.
func ParsePeriods(list string) ([]Period, error) {
	var out []Period
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		p, err := ParsePeriod(part)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
