package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Moscow")
	if err != nil {
		panic(err)
	}
}

// force the timezone to match the university portal because the
// servers this runs on can end up in arbitrary regions, which breaks
// "today"/"tomorrow" math done via <time.Time>.Year()/Month()/Day()
func Now() time.Time {
	return time.Now().In(Location)
}
