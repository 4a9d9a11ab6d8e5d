package normalizer

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// reiwaOffset converts a Reiwa year to the Gregorian year (Reiwa 1 is 2019).
// Dates from any other era are converted with this offset too and come out wrong.
const reiwaOffset = 2018

// DateLayout is the ISO date format used for as-of dates.
const DateLayout = "2006-01-02"

var reiwaDate = regexp.MustCompile(`令和[\s\p{Zs}]*([0-9０-９]+)年[\s\p{Zs}]*([0-9０-９]+)月[\s\p{Zs}]*([0-9０-９]+)日`)

// Clock returns the current time.
type Clock func() time.Time

// ExtractAsOfDate finds the first Reiwa date in text and returns it as YYYY-MM-DD.
// When there is none it returns today's date from now and found is false.
func ExtractAsOfDate(text string, now Clock) (date string, found bool) {
	m := reiwaDate.FindStringSubmatch(text)
	if m == nil {
		return today(now), false
	}

	year, errY := strconv.Atoi(Fold(m[1]))
	month, errM := strconv.Atoi(Fold(m[2]))
	day, errD := strconv.Atoi(Fold(m[3]))

	if errY != nil || errM != nil || errD != nil {
		return today(now), false
	}

	return fmt.Sprintf("%04d-%02d-%02d", year+reiwaOffset, month, day), true
}

func today(now Clock) string {
	if now == nil {
		now = time.Now
	}

	return now().Format(DateLayout)
}
