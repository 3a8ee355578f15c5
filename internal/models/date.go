package models

import (
	"time"

	"gorm.io/datatypes"
)

const DateLayout = "2006-01-02"

// ParseDate reads a YYYY-MM-DD string as a UTC calendar date.
func ParseDate(s string) (datatypes.Date, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return datatypes.Date{}, err
	}
	return datatypes.Date(t), nil
}

// FormatDate prints a calendar date as YYYY-MM-DD.
func FormatDate(d datatypes.Date) string {
	t := time.Time(d)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Format(DateLayout)
}

// ISODate is the UTC calendar day of a timestamp.
func ISODate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
