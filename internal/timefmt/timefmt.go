// Package timefmt renders clock times, durations and dates for display in
// English or Korean.
package timefmt

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
)

type Locale int

const (
	English Locale = iota
	Korean
)

var supported = []language.Tag{language.English, language.Korean}

var matcher = language.NewMatcher(supported)

// ParseLocale picks the closest supported locale for a BCP 47 tag such as
// "ko-KR" or "en_US". Unknown or empty tags fall back to English.
func ParseLocale(s string) Locale {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", "-")
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return English
	}
	tag, err := language.Parse(s)
	if err != nil {
		return English
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return English
	}
	return Locale(idx)
}

func (l Locale) String() string {
	return supported[l].String()
}

// Clock formats the hour and minute of t, e.g. "3:04 PM" or "오후 3:04".
func Clock(t time.Time, l Locale) string {
	if l == Korean {
		return meridiemKo(t) + " " + t.Format("3:04")
	}
	return t.Format("3:04 PM")
}

func meridiemKo(t time.Time) string {
	if t.Hour() < 12 {
		return "오전"
	}
	return "오후"
}

type unit struct {
	d      time.Duration
	en, ko string
}

var (
	hourUnit   = unit{time.Hour, "h", "시간"}
	minuteUnit = unit{time.Minute, "m", "분"}
	secondUnit = unit{time.Second, "s", "초"}
)

// Duration formats the span from start to end in narrow style, e.g.
// "1h 5m" or "1시간 5분". Zero fields are left out. Seconds are shown when
// withSeconds is set or the span is shorter than a minute.
func Duration(start, end time.Time, l Locale, withSeconds bool) string {
	d := end.Sub(start)
	if d < 0 {
		d = 0
	}
	return Span(d, l, withSeconds)
}

// Span is Duration for an already computed length.
func Span(d time.Duration, l Locale, withSeconds bool) string {
	if d < time.Minute {
		withSeconds = true
	}
	units := []unit{hourUnit, minuteUnit}
	if withSeconds {
		units = append(units, secondUnit)
	} else {
		d = d.Truncate(time.Minute)
	}

	var parts []string
	for _, u := range units {
		n := d / u.d
		d -= n * u.d
		if n == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%d%s", n, u.label(l)))
	}
	if len(parts) == 0 {
		last := units[len(units)-1]
		return "0" + last.label(l)
	}
	return strings.Join(parts, " ")
}

func (u unit) label(l Locale) string {
	if l == Korean {
		return u.ko
	}
	return u.en
}

// DayTitle formats a calendar date without the year, e.g. "Oct 16" or
// "10월 16일".
func DayTitle(t time.Time, l Locale) string {
	if l == Korean {
		return fmt.Sprintf("%d월 %d일", int(t.Month()), t.Day())
	}
	return t.Format("Jan 2")
}

var koMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Second, Format: "방금", DivBy: time.Second},
	{D: time.Minute, Format: "%d초 %s", DivBy: time.Second},
	{D: time.Hour, Format: "%d분 %s", DivBy: time.Minute},
	{D: humanize.Day, Format: "%d시간 %s", DivBy: time.Hour},
	{D: humanize.Week, Format: "%d일 %s", DivBy: humanize.Day},
	{D: humanize.Year, Format: "%d주 %s", DivBy: humanize.Week},
	{D: math.MaxInt64, Format: "오래 %s", DivBy: 1},
}

// Since describes then relative to now, e.g. "5 minutes ago" or "5분 전".
func Since(then, now time.Time, l Locale) string {
	if l == Korean {
		return humanize.CustomRelTime(then, now, "전", "후", koMagnitudes)
	}
	return humanize.RelTime(then, now, "ago", "from now")
}
