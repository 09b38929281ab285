package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a timestamp that travels over JSON as a plain YYYY-MM-DD date.
// The full instant is kept internally so persistence and ordering retain
// their precision; only the wire format is truncated.
type Date struct {
	time.Time
}

// NewDate wraps a timestamp for date-only serialization.
func NewDate(t time.Time) Date {
	return Date{Time: t}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.In(time.UTC).Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Scan implements sql.Scanner; date columns are read as full timestamps.
func (d *Date) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		d.Time = time.Time{}
	case time.Time:
		d.Time = v
	default:
		return fmt.Errorf("unsupported type %T for Date", value)
	}
	return nil
}

// Value implements driver.Valuer; the full timestamp is stored.
func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}
