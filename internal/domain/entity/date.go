package entity

import "time"

// DateFormat formato de fecha de calendario usado en API y base de datos.
const DateFormat = "2006-01-02"

// DateOf reduce un instante a su fecha de calendario (00:00 UTC).
// Todas las comparaciones de vencimiento y de programación se hacen sobre fechas, no instantes.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate interpreta "YYYY-MM-DD" como fecha de calendario.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateFormat, s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// AddDays suma n días de calendario.
func AddDays(d time.Time, n int) time.Time {
	return DateOf(d).AddDate(0, 0, n)
}
