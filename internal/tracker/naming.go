package tracker

import (
	"math"
	"regexp"
	"strconv"
)

const (
	DefaultOrdinalSuffix = "번째"
	DefaultLapLabel      = "판"
)

// Namer derives lap names of the form "<n><suffix> <label>". The counter is
// not stored anywhere: it is read back from the previous lap's name, so a
// user rename changes what the next lap is called.
type Namer struct {
	Suffix       string
	DefaultLabel string

	re *regexp.Regexp
}

func NewNamer(suffix, defaultLabel string) Namer {
	if suffix == "" {
		suffix = DefaultOrdinalSuffix
	}
	if defaultLabel == "" {
		defaultLabel = DefaultLapLabel
	}
	return Namer{
		Suffix:       suffix,
		DefaultLabel: defaultLabel,
		re:           regexp.MustCompile(`(?s)([0-9]+)` + regexp.QuoteMeta(suffix) + ` *(.+)?`),
	}
}

// Parse finds the first "<digits><suffix>" in name. label is whatever follows
// the suffix and any spaces; it is empty when nothing follows.
func (n Namer) Parse(name string) (count int, label string, ok bool) {
	m := n.pattern().FindStringSubmatch(name)
	if m == nil {
		return 0, "", false
	}
	count, err := strconv.Atoi(m[1])
	if err != nil || count == math.MaxInt {
		return 0, "", false
	}
	return count, m[2], true
}

// First is the name given to the lap created with a new block.
func (n Namer) First() string {
	return n.format(1, n.DefaultLabel)
}

// Next names the lap that follows names, which must be in start order.
// Only the last name is consulted; if it does not parse, numbering restarts
// at 1 with the default label.
func (n Namer) Next(names []string) string {
	if len(names) == 0 {
		return n.First()
	}
	count, label, ok := n.Parse(names[len(names)-1])
	if !ok {
		return n.First()
	}
	return n.format(count+1, label)
}

func (n Namer) format(count int, label string) string {
	name := strconv.Itoa(count) + n.Suffix
	if label != "" {
		name += " " + label
	}
	return name
}

func (n Namer) pattern() *regexp.Regexp {
	if n.re == nil {
		return NewNamer(n.Suffix, n.DefaultLabel).re
	}
	return n.re
}
