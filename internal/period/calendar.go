package period

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DateLayout formats day labels (dd/MM/yyyy).
const DateLayout = "02/01/2006"

// ErrUnsupportedLocale is returned by NewCalendar.
var ErrUnsupportedLocale = errors.New("period: unsupported locale")

type localeData struct {
	weekStart time.Weekday
	months    [12]string
}

var supportedTags = []language.Tag{language.Spanish, language.English}

var locales = map[language.Tag]localeData{
	language.Spanish: {
		weekStart: time.Monday,
		months: [12]string{
			"enero", "febrero", "marzo", "abril", "mayo", "junio",
			"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
		},
	},
	language.English: {
		weekStart: time.Sunday,
		months: [12]string{
			"January", "February", "March", "April", "May", "June",
			"July", "August", "September", "October", "November", "December",
		},
	},
}

var matcher = language.NewMatcher(supportedTags)

// Calendar carries the locale rules used for bucketing: time zone, first
// day of the week and month names.
type Calendar struct {
	tag       language.Tag
	loc       *time.Location
	weekStart time.Weekday
	months    [12]string
}

// NewCalendar resolves a BCP 47 locale (es, es-AR, en-US, ...) against the
// supported locales. A nil location means time.Local.
func NewCalendar(locale string, loc *time.Location) (*Calendar, error) {
	requested, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLocale, locale)
	}
	_, idx, confidence := matcher.Match(requested)
	if confidence == language.No {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLocale, locale)
	}
	tag := supportedTags[idx]
	if loc == nil {
		loc = time.Local
	}
	data := locales[tag]
	return &Calendar{tag: tag, loc: loc, weekStart: data.weekStart, months: data.months}, nil
}

// Location is the calendar time zone.
func (c *Calendar) Location() *time.Location { return c.loc }

// FormatDate renders t as a day label.
func (c *Calendar) FormatDate(t time.Time) string {
	return t.In(c.loc).Format(DateLayout)
}

// MonthName is the locale name of the month of t.
func (c *Calendar) MonthName(t time.Time) string {
	return c.months[t.In(c.loc).Month()-1]
}

// MinTimestamp is the lower bound of the records a lapse covers.
func (c *Calendar) MinTimestamp(l Lapse, now time.Time) time.Time {
	now = now.In(c.loc)
	switch l {
	case Month:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, c.loc)
	case Year:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, c.loc)
	default:
		return now.AddDate(0, 0, -7)
	}
}

// BucketLabels lists the chart categories of a lapse in chronological
// order.
func (c *Calendar) BucketLabels(l Lapse, now time.Time) []string {
	now = now.In(c.loc)
	switch l {
	case Month:
		return c.monthLabels(now)
	case Year:
		labels := make([]string, len(c.months))
		copy(labels, c.months[:])
		return labels
	default:
		labels := make([]string, 0, 8)
		for days := 7; days >= 0; days-- {
			labels = append(labels, c.FormatDate(now.AddDate(0, 0, -days)))
		}
		return labels
	}
}

func (c *Calendar) monthLabels(now time.Time) []string {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, c.loc)
	last := c.StartOfWeek(now)
	var labels []string
	for week := c.StartOfWeek(first); !week.After(last); week = week.AddDate(0, 0, 7) {
		labels = append(labels, c.FormatDate(week))
	}
	today := c.FormatDate(now)
	if !slices.Contains(labels, today) {
		labels = append(labels, today)
	}
	return labels
}

// BucketKey names the bucket a timestamp falls into. An empty key means the
// timestamp lies outside every bucket.
func (c *Calendar) BucketKey(l Lapse, ts time.Time, labels []string) string {
	switch l {
	case Month:
		idx := c.WeekOfMonth(ts) - 1
		if idx < 0 || idx >= len(labels) {
			return ""
		}
		return labels[idx]
	case Year:
		return c.MonthName(ts)
	default:
		return c.FormatDate(ts)
	}
}

// StartOfWeek returns midnight of the first day of the week containing t.
func (c *Calendar) StartOfWeek(t time.Time) time.Time {
	t = t.In(c.loc)
	back := (7 + int(t.Weekday()) - int(c.weekStart)) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-back, 0, 0, 0, 0, c.loc)
}

// WeekOfMonth is the 1-based week of the month of t. Week one ends on the
// day before the first week start of the month.
func (c *Calendar) WeekOfMonth(t time.Time) int {
	t = t.In(c.loc)
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, c.loc)
	lastDayOfFirstWeek := int(c.weekStart) - int(first.Weekday())
	if lastDayOfFirstWeek <= 0 {
		lastDayOfFirstWeek += 7
	}
	remaining := t.Day() - lastDayOfFirstWeek
	return int(math.Ceil(float64(remaining)/7)) + 1
}

// CategoryLabels orders the keys of a category fold with the locale
// collation.
func (c *Calendar) CategoryLabels(t Totals) []string {
	labels := make([]string, 0, len(t))
	for k := range t {
		labels = append(labels, k)
	}
	collate.New(c.tag, collate.IgnoreCase).SortStrings(labels)
	return labels
}
