package timezone

import (
	"time"
	_ "time/tzdata"
)

const DefaultLocation = "Asia/Jerusalem"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation(DefaultLocation)
	if err != nil {
		panic(err)
	}
}

// SetLocation replaces the site timezone, an empty name keeps the current one.
func SetLocation(name string) error {
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return err
	}
	Location = loc
	return nil
}

// force the site's timezone so that "today" matches the calendar of the
// reservation site regardless of where the scanner runs.
func Now() time.Time {
	return time.Now().In(Location)
}

// Today returns midnight of the current day in Location.
func Today() time.Time {
	now := Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, Location)
}
