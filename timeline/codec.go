package timeline

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"go-perform/action"
	"go-perform/debug"
)

// RowsPerOrder groups rows for display and persistence only.
const RowsPerOrder = 64

// SectionHeader opens the events fragment of a save file.
const SectionHeader = "[Events]"

// defaultValue is what a loaded event gets when no value key was written.
const defaultValue = 127

// Encode writes the events fragment: one line per distinct row, with
// simultaneous events comma-joined.
//
//	[Events]
//	EVT_01_00=CHANNEL_MUTE ch:3, MUTE_ALL
func (t *Timeline) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, SectionHeader)

	events := t.Events()
	for i := 0; i < len(events); {
		row := events[i].Row
		var items []string
		for ; i < len(events) && events[i].Row == row; i++ {
			if item := formatEvent(events[i]); item != "" {
				items = append(items, item)
			}
		}
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(bw, "EVT_%02d_%02d=%s\n", row/RowsPerOrder, row%RowsPerOrder, strings.Join(items, ", "))
	}
	return bw.Flush()
}

func formatEvent(e Event) string {
	if !e.Action.Recordable() {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(e.Action.String())
	if key := e.Action.ParamKey(); key != "" {
		fmt.Fprintf(&sb, " %s:%d", key, e.Param)
	}
	if e.Value != 0 {
		fmt.Fprintf(&sb, " value:%d", e.Value)
	}
	return sb.String()
}

// Decode reads the events fragment from r. Reading starts after the
// [Events] header and stops at the next section header. Malformed lines
// are skipped and counted; unknown action names and recorder controls are
// dropped silently.
// The returned events are in file order.
func Decode(r io.Reader) (events []Event, skipped int, err error) {
	sc := bufio.NewScanner(r)
	inSection := false
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			if inSection {
				break
			}
			inSection = strings.EqualFold(line, SectionHeader)
			continue
		}
		if !inSection {
			continue
		}

		parsed, perr := parseLine(line)
		if perr != nil {
			skipped++
			debug.Warn("timeline", perr, "skipping line %d", lineNo)
			continue
		}
		events = append(events, parsed...)
	}
	if err := sc.Err(); err != nil {
		return events, skipped, err
	}
	return events, skipped, nil
}

func parseLine(line string) ([]Event, error) {
	key, val, ok := strings.Cut(line, "=")
	if !ok {
		return nil, fmt.Errorf("missing '=' in %q", line)
	}
	row, err := parseRowKey(strings.TrimSpace(key))
	if err != nil {
		return nil, err
	}

	var out []Event
	for _, item := range strings.Split(val, ",") {
		fields := strings.Fields(item)
		if len(fields) == 0 {
			continue
		}
		a, known := action.Parse(fields[0])
		e := Event{Row: row, Action: a, Value: defaultValue}
		for _, f := range fields[1:] {
			k, v, ok := strings.Cut(f, ":")
			if !ok {
				return nil, fmt.Errorf("bad parameter %q", f)
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("bad parameter %q: %w", f, err)
			}
			switch k {
			case "value":
				e.Value = n
			case "ch", "order", "pattern", "pad", "phrase":
				e.Param = n
			}
		}
		if !known || !a.Recordable() {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// parseRowKey turns EVT_<order>_<row> into an absolute row.
func parseRowKey(key string) (int, error) {
	rest, ok := strings.CutPrefix(strings.ToUpper(key), "EVT_")
	if !ok {
		return 0, fmt.Errorf("bad key %q", key)
	}
	o, r, ok := strings.Cut(rest, "_")
	if !ok {
		return 0, fmt.Errorf("bad key %q", key)
	}
	order, err := strconv.Atoi(o)
	if err != nil || order < 0 || order >= math.MaxInt/RowsPerOrder {
		return 0, fmt.Errorf("bad order in %q", key)
	}
	row, err := strconv.Atoi(r)
	if err != nil || row < 0 || row >= RowsPerOrder {
		return 0, fmt.Errorf("bad row in %q", key)
	}
	return order*RowsPerOrder + row, nil
}

// Load replaces the buffer with the events decoded from r and rewinds the
// clock. Events past capacity are dropped. It returns the number of
// malformed lines that were skipped.
func (t *Timeline) Load(r io.Reader) (int, error) {
	if t == nil {
		return 0, nil
	}
	events, skipped, err := Decode(r)
	if err != nil {
		return skipped, err
	}
	slices.SortStableFunc(events, func(a, b Event) int { return a.Row - b.Row })
	if len(events) > t.capacity {
		debug.Warn("timeline", ErrCapacityExceeded, "dropping %d loaded events", len(events)-t.capacity)
		events = events[:t.capacity]
	}

	t.events = append(t.events[:0], events...)
	t.row = 0
	t.cursor = 0
	debug.Log("timeline", "loaded %d events (%d lines skipped)", len(events), skipped)
	return skipped, nil
}
