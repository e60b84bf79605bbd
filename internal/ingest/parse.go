package ingest

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/cart-monitor/internal/model"
)

var dateRe = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)

// FileDate extracts the first YYYY-MM-DD found in a file name.
func FileDate(name string) (string, bool) {
	m := dateRe.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	if _, err := time.Parse(time.DateOnly, m[1]); err != nil {
		return "", false
	}
	return m[1], true
}

// timestampLayouts are tried in order. Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"02.01.2006",
}

// excelEpoch is day zero of the 1900 date system as Excel counts it.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ParseTimestamp coerces a raw dump cell into a UTC timestamp. Excel serial
// day numbers are accepted. Anything unparseable is missing, never an error.
func ParseTimestamp(raw string) model.Timestamp {
	s := strings.TrimSpace(raw)
	if s == "" {
		return model.Timestamp{}
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.NewTimestamp(t)
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		// Serials outside 1900-01-01..9999-12-31 are not dates.
		if serial < 1 || serial > 2958465 || math.IsNaN(serial) {
			return model.Timestamp{}
		}
		whole, frac := math.Modf(serial)
		t := excelEpoch.AddDate(0, 0, int(whole)).Add(time.Duration(math.Round(frac*86400)) * time.Second)
		return model.NewTimestamp(t)
	}

	return model.Timestamp{}
}

var spaceRe = regexp.MustCompile(`\s+`)

// normalizeHeader lowercases a column name, treats underscores as spaces and
// collapses whitespace so synonym lookups tolerate formatting drift between
// dumps.
func normalizeHeader(s string) string {
	s = norm.NFKC.String(strings.TrimPrefix(s, "\ufeff"))
	s = strings.ReplaceAll(s, "_", " ")
	s = spaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
	return strings.ToLower(s)
}

// cleanKey coerces a business key cell to a trimmed string. Excel stores
// numeric IDs as floats, so integral values lose their ".0".
func cleanKey(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasSuffix(s, ".0") {
		if _, err := strconv.ParseInt(strings.TrimSuffix(s, ".0"), 10, 64); err == nil {
			return strings.TrimSuffix(s, ".0")
		}
	}
	return s
}
