package shiftplan

import "time"

type MonthRef struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// OperatingMonth liefert den Monat, für den aktuell Wünsche abgegeben und
// standardmäßig geprüft werden: immer der Folgemonat, über den
// Jahreswechsel hinweg.
func OperatingMonth(ref time.Time) (year int, month int) {
	if ref.Month() == time.December {
		return ref.Year() + 1, 1
	}
	return ref.Year(), int(ref.Month()) + 1
}

// AvailableMonths zählt für die Monatsauswahl im Admin-Bereich alle Monate
// von 12 Monaten vor bis 3 Monaten nach dem Referenzmonat auf.
func AvailableMonths(ref time.Time) []MonthRef {
	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -12, 0)

	months := make([]MonthRef, 0, 16)
	for i := 0; i < 16; i++ {
		t := start.AddDate(0, i, 0)
		months = append(months, MonthRef{Year: t.Year(), Month: int(t.Month())})
	}
	return months
}

// monthBounds: erster und letzter Tag des Monats, jeweils 00:00 UTC.
func monthBounds(year, month int) (time.Time, time.Time) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last
}
