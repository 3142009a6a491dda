// Package assessmentid builds human readable assessment identifiers of the form
// SITE-SPONSOR-PROTOCOL-YYYYMMDD-NNN. The sponsor segment is left out when the
// study has no sponsor code.
package assessmentid

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"risk-assessment/internal/apperr"
	"risk-assessment/internal/models"
)

const (
	unknown    = "UNK"
	dateLayout = "20060102"
)

var flourishSites = []struct {
	city string
	code string
}{
	{"san antonio", "FSA"},
	{"san diego", "FSD"},
	{"new york", "FNY"},
	{"los angeles", "FLA"},
	{"texas", "FTX"},
	{"california", "FCA"},
}

// SiteCode abbreviates a site name
func SiteCode(site string) string {
	site = strings.TrimSpace(site)
	if site == "" || site == unknown {
		return unknown
	}

	lower := strings.ToLower(site)
	if strings.Contains(lower, "flourish") {
		for _, s := range flourishSites {
			if strings.Contains(lower, s.city) {
				return s.code
			}
		}
		return "FLR"
	}

	words := strings.Fields(site)
	switch len(words) {
	case 1:
		return strings.ToUpper(prefix(words[0], 3))
	case 2:
		return strings.ToUpper(prefix(words[0], 1) + prefix(words[1], 2))
	default:
		return strings.ToUpper(prefix(words[0], 1) + prefix(words[1], 1) + prefix(words[2], 1))
	}
}

// ProtocolCode keeps the first three characters of the protocol
func ProtocolCode(protocol string) string {
	protocol = strings.TrimSpace(protocol)
	if protocol == "" {
		return unknown
	}
	return prefix(protocol, 3)
}

// ParseDate accepts YYYY-MM-DD or YYYYMMDD
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	if len(s) == len(dateLayout) {
		if t, err := time.Parse(dateLayout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Validation("invalid date format %q, expected YYYY-MM-DD or YYYYMMDD", s)
}

// Prefix returns the identifier without its sequence number, including the trailing dash
func Prefix(study models.Study, date time.Time) string {
	parts := []string{SiteCode(study.Site)}
	if code := strings.TrimSpace(study.SponsorCode); code != "" {
		parts = append(parts, code)
	}
	parts = append(parts, ProtocolCode(study.Protocol), date.Format(dateLayout))
	return strings.Join(parts, "-") + "-"
}

// Parts are the components of an identifier
type Parts struct {
	SiteCode     string
	SponsorCode  string
	ProtocolCode string
	Date         time.Time
	Sequence     int
}

// Parse splits an identifier into its components. Date and sequence are read
// from the right, so a protocol code containing dashes stays intact.
func Parse(id string) (Parts, error) {
	var p Parts
	segs := strings.Split(id, "-")
	if len(segs) < 4 {
		return p, apperr.Validation("invalid assessment id %q", id)
	}

	date, seq := segs[len(segs)-2], segs[len(segs)-1]
	head := segs[:len(segs)-2]
	switch len(head) {
	case 2:
		p.SiteCode, p.ProtocolCode = head[0], head[1]
	default:
		p.SiteCode, p.SponsorCode, p.ProtocolCode = head[0], head[1], strings.Join(head[2:], "-")
	}

	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return p, apperr.Validation("invalid date in assessment id %q", id)
	}
	n, err := strconv.Atoi(seq)
	if err != nil {
		return p, apperr.Validation("invalid sequence in assessment id %q", id)
	}

	p.Date = t
	p.Sequence = n
	return p, nil
}

// SequenceSource finds the highest identifier already issued for a prefix
type SequenceSource interface {
	LastCodeWithPrefix(ctx context.Context, prefix string) (string, error)
}

// Generator issues new identifiers
type Generator struct {
	seq SequenceSource
}

// NewGenerator creates a generator backed by seq
func NewGenerator(seq SequenceSource) *Generator {
	return &Generator{seq: seq}
}

// Generate returns the next identifier for a study and assessment date.
// The sequence restarts at 1 when nothing was issued yet or the last code is unreadable.
func (g *Generator) Generate(ctx context.Context, study models.Study, date time.Time) (string, error) {
	pfx := Prefix(study, date)

	last, err := g.seq.LastCodeWithPrefix(ctx, pfx)
	if err != nil {
		return "", fmt.Errorf("failed to look up assessment sequence: %w", err)
	}

	next := 1
	if last != "" {
		if p, err := Parse(last); err == nil {
			next = p.Sequence + 1
		}
	}

	return fmt.Sprintf("%s%03d", pfx, next), nil
}

func prefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
