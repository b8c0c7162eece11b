package acmi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/OCAP2/extractor/internal/util"
	"github.com/OCAP2/extractor/pkg/core"
)

type recordKind uint8

const (
	recordMarker recordKind = iota
	recordObject
	recordRemove
	recordGlobal
)

type prop struct {
	key   string
	value string
}

// record is one logical line of a recording.
type record struct {
	kind   recordKind
	line   int
	marker float64
	id     string
	props  []prop
}

func (r record) get(key string) (string, bool) {
	// later duplicates win
	for i := len(r.props) - 1; i >= 0; i-- {
		if r.props[i].key == key {
			return r.props[i].value, true
		}
	}
	return "", false
}

// isDefinition reports whether the line declares what the object is, as
// opposed to only moving it.
func (r record) isDefinition() bool {
	for _, p := range r.props {
		switch p.key {
		case "Type", "Coalition", "Color":
			return true
		}
	}
	return false
}

// logicalLines splits text into lines, joining lines that end in a
// backslash with the next one. The returned numbers are the physical line
// each logical line starts on.
func logicalLines(text string) (lines []string, numbers []int) {
	text = strings.TrimPrefix(text, "\ufeff")
	physical := strings.Split(text, "\n")

	var pending strings.Builder
	start := 0
	joining := false
	for i, l := range physical {
		l = strings.TrimSuffix(l, "\r")
		if !joining {
			start = i + 1
		}
		if strings.HasSuffix(l, `\`) && !strings.HasSuffix(l, `\\`) {
			pending.WriteString(l[:len(l)-1])
			pending.WriteByte('\n')
			joining = true
			continue
		}
		pending.WriteString(l)
		lines = append(lines, pending.String())
		numbers = append(numbers, start)
		pending.Reset()
		joining = false
	}
	if joining {
		lines = append(lines, strings.TrimSuffix(pending.String(), "\n"))
		numbers = append(numbers, start)
	}
	return lines, numbers
}

// parseRecords classifies every line. Header lines, comments and blank
// lines produce no record.
func parseRecords(text string) ([]record, error) {
	lines, numbers := logicalLines(text)
	records := make([]record, 0, len(lines))
	for i, raw := range lines {
		n := numbers[i]
		l := strings.TrimSpace(raw)
		switch {
		case l == "", strings.HasPrefix(l, "//"):
			continue
		case strings.HasPrefix(l, "FileType="), strings.HasPrefix(l, "FileVersion="):
			continue
		case l[0] == '#':
			m, err := strconv.ParseFloat(strings.TrimSpace(l[1:]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: bad time marker %q", core.ErrData, n, l)
			}
			records = append(records, record{kind: recordMarker, line: n, marker: m})
		case l[0] == '-':
			id := normalizeID(l[1:])
			if id == "" {
				return nil, fmt.Errorf("%w: line %d: removal without object id", core.ErrData, n)
			}
			records = append(records, record{kind: recordRemove, line: n, id: id})
		default:
			rec, err := parseObjectLine(l, n)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

func parseObjectLine(l string, n int) (record, error) {
	fields := util.SplitEscaped(l, ',')
	id := normalizeID(fields[0])
	if id == "" || !isHex(id) {
		return record{}, fmt.Errorf("%w: line %d: bad object id %q", core.ErrData, n, fields[0])
	}

	rec := record{kind: recordObject, line: n, id: id}
	if id == "0" {
		rec.kind = recordGlobal
	}
	for _, f := range fields[1:] {
		if f == "" {
			continue
		}
		key, value, ok := strings.Cut(f, "=")
		if !ok {
			return record{}, fmt.Errorf("%w: line %d: property %q has no value", core.ErrData, n, f)
		}
		rec.props = append(rec.props, prop{key: strings.TrimSpace(key), value: util.Unescape(value)})
	}
	return rec, nil
}

func normalizeID(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
