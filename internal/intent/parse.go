package intent

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const weekdayNames = `sunday|monday|tuesday|wednesday|thursday|friday|saturday`

const monthNames = `jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?`

var (
	titleRe = regexp.MustCompile(`schedule\s+(?:(?:a|an)\s+)?(.+?)(?:\s+(?:on|at|from|for|by|next|today|tomorrow|` + weekdayNames + `)\b|\s*$)`)

	timeRangeRe = regexp.MustCompile(`\bfrom\s+(\d{1,2})(?::?(\d{2}))?\s*(am|pm)?\s+to\s+(\d{1,2})(?::?(\d{2}))?\s*(am|pm)?\b`)
	timeAtRe    = regexp.MustCompile(`\bat\s+(\d{1,2})(?::?(\d{2}))?\s*(am|pm)?\b`)
	timeBareRe  = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)

	relativeDayRe = regexp.MustCompile(`\b(today|tomorrow|` + weekdayNames + `)\b`)
	dayMonAbbrRe  = regexp.MustCompile(`\b(\d{1,2})-(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)`)
	numericDateRe = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})(?:[/-](\d{4}|\d{2}))?\b`)
	monthDayRe    = regexp.MustCompile(`\b(` + monthNames + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b(?:,?\s+(\d{4})\b)?`)
	dayMonthRe    = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(` + monthNames + `)\b(?:,?\s+(\d{4})\b)?`)
)

var monthAbbr = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

type clock struct {
	hour, minute int
}

type span struct {
	start, end int
}

// extractTitle expects a lower-cased message.
func extractTitle(text string) string {
	m := titleRe.FindStringSubmatch(text)
	if m == nil {
		return DefaultTitle
	}
	title := strings.TrimSpace(m[1])
	if title == "" {
		return DefaultTitle
	}
	return title
}

// extractDate returns the calendar day in now's location and the span of
// text it was read from, so time extraction can skip those digits.
func extractDate(text string, now time.Time) (y int, mo time.Month, d int, used span, ok bool) {
	if m := relativeDayRe.FindStringSubmatchIndex(text); m != nil {
		word := text[m[2]:m[3]]
		base := now
		switch word {
		case "today":
		case "tomorrow":
			base = now.AddDate(0, 0, 1)
		default:
			diff := (int(weekdays[word]) - int(now.Weekday()) + 7) % 7
			if diff == 0 {
				diff = 7
			}
			base = now.AddDate(0, 0, diff)
		}
		y, mo, d = base.Date()
		return y, mo, d, span{m[0], m[1]}, true
	}

	if m := dayMonAbbrRe.FindStringSubmatchIndex(text); m != nil {
		day := atoi(text[m[2]:m[3]])
		month := monthIndex(text[m[4]:m[5]])
		if validDay(now.Year(), month, day, now.Location()) {
			return now.Year(), month, day, span{m[0], m[1]}, true
		}
	}

	if m := numericDateRe.FindStringSubmatchIndex(text); m != nil {
		month := time.Month(atoi(text[m[2]:m[3]]))
		day := atoi(text[m[4]:m[5]])
		year := now.Year()
		if m[6] >= 0 {
			raw := text[m[6]:m[7]]
			year = atoi(raw)
			if len(raw) == 2 {
				year += 2000
			}
		}
		if validDay(year, month, day, now.Location()) {
			return year, month, day, span{m[0], m[1]}, true
		}
	}

	if m := monthDayRe.FindStringSubmatchIndex(text); m != nil {
		month := monthIndex(text[m[2]:m[3]])
		day := atoi(text[m[4]:m[5]])
		year := optionalYear(text, m[6], m[7], now.Year())
		if validDay(year, month, day, now.Location()) {
			return year, month, day, span{m[0], m[1]}, true
		}
	}

	if m := dayMonthRe.FindStringSubmatchIndex(text); m != nil {
		day := atoi(text[m[2]:m[3]])
		month := monthIndex(text[m[4]:m[5]])
		year := optionalYear(text, m[6], m[7], now.Year())
		if validDay(year, month, day, now.Location()) {
			return year, month, day, span{m[0], m[1]}, true
		}
	}

	return 0, 0, 0, span{}, false
}

// extractTimes returns start and, for a range, end clock times.
func extractTimes(text string) (start clock, end *clock, ok bool) {
	if m := timeRangeRe.FindStringSubmatch(text); m != nil {
		s, okStart := toClock(m[1], m[2], m[3])
		e, okEnd := toClock(m[4], m[5], m[6])
		if okStart && okEnd {
			return s, &e, true
		}
	}

	if m := timeAtRe.FindStringSubmatch(text); m != nil {
		if c, valid := toClock(m[1], m[2], m[3]); valid {
			return c, nil, true
		}
	}

	// без "at" число считается временем только с двоеточием или am/pm
	for _, m := range timeBareRe.FindAllStringSubmatch(text, -1) {
		if m[2] == "" && m[3] == "" {
			continue
		}
		if c, valid := toClock(m[1], m[2], m[3]); valid {
			return c, nil, true
		}
	}

	return clock{}, nil, false
}

// toClock converts 12-hour input: pm adds 12 except for 12 pm, 12 am is midnight.
func toClock(h, m, meridiem string) (clock, bool) {
	hour := atoi(h)
	minute := 0
	if m != "" {
		minute = atoi(m)
	}

	switch meridiem {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}

	if hour > 23 || minute > 59 {
		return clock{}, false
	}
	return clock{hour: hour, minute: minute}, true
}

// blank replaces the span with spaces, keeping offsets stable.
func blank(text string, s span) string {
	if s.end <= s.start {
		return text
	}
	return text[:s.start] + strings.Repeat(" ", s.end-s.start) + text[s.end:]
}

func optionalYear(text string, from, to, def int) int {
	if from < 0 {
		return def
	}
	return atoi(text[from:to])
}

func validDay(year int, month time.Month, day int, loc *time.Location) bool {
	if month < time.January || month > time.December || day < 1 {
		return false
	}
	t := time.Date(year, month, day, 12, 0, 0, 0, loc)
	return t.Day() == day && t.Month() == month
}

func monthIndex(name string) time.Month {
	for i, abbr := range monthAbbr {
		if strings.HasPrefix(name, abbr) {
			return time.Month(i + 1)
		}
	}
	return 0
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
