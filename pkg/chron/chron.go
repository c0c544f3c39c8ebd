// Package chron converts between mission-elapsed seconds and day-of-year
// date strings. All timestamp/date pairs carried on command records must be
// produced by this package so the two representations never diverge.
package chron

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Mission epoch: 1998:001:00:00:00.000. Mission-elapsed seconds count from
// this instant.
var epoch = time.Date(1998, time.January, 1, 0, 0, 0, 0, time.UTC)

// SecsFromDate parses a day-of-year date string and returns mission-elapsed
// seconds. Accepted forms, from shortest to longest:
//
//	2020:100
//	2020:100:12
//	2020:100:12:30
//	2020:100:12:30:45
//	2020:100:12:30:45.250
//
// Omitted trailing components are zero.
func SecsFromDate(date string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(date), ":")
	if len(parts) < 2 || len(parts) > 5 {
		return 0, fmt.Errorf("malformed date %q", date)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("malformed year in date %q", date)
	}
	doy, err := strconv.Atoi(parts[1])
	if err != nil || doy < 1 || doy > 366 {
		return 0, fmt.Errorf("malformed day-of-year in date %q", date)
	}

	var hh, mm int
	var ss float64
	if len(parts) > 2 {
		if hh, err = strconv.Atoi(parts[2]); err != nil || hh < 0 || hh > 23 {
			return 0, fmt.Errorf("malformed hour in date %q", date)
		}
	}
	if len(parts) > 3 {
		if mm, err = strconv.Atoi(parts[3]); err != nil || mm < 0 || mm > 59 {
			return 0, fmt.Errorf("malformed minute in date %q", date)
		}
	}
	if len(parts) > 4 {
		if ss, err = strconv.ParseFloat(parts[4], 64); err != nil || ss < 0 || ss >= 60 {
			return 0, fmt.Errorf("malformed second in date %q", date)
		}
	}

	t := time.Date(year, time.January, 1, hh, mm, 0, 0, time.UTC).
		AddDate(0, 0, doy-1)
	return t.Sub(epoch).Seconds() + ss, nil
}

// DateFromSecs renders mission-elapsed seconds as a full day-of-year date
// string with millisecond precision, e.g. "2020:100:12:30:45.250".
func DateFromSecs(secs float64) string {
	// Round to the millisecond so formatting is stable under float noise.
	ms := int64(math.Round(secs * 1000.0))
	t := epoch.Add(time.Duration(ms) * time.Millisecond)
	return fmt.Sprintf("%04d:%03d:%02d:%02d:%02d.%03d",
		t.Year(), t.YearDay(), t.Hour(), t.Minute(), t.Second(),
		t.Nanosecond()/1e6)
}

// MustSecs is SecsFromDate for dates known to be well-formed (fixed
// constants, test fixtures). It panics on parse failure.
func MustSecs(date string) float64 {
	secs, err := SecsFromDate(date)
	if err != nil {
		panic(err)
	}
	return secs
}
