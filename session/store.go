package session

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go-perform/action"
	"go-perform/config"
	"go-perform/debug"
	"go-perform/timeline"
)

// perfExt is the performance file extension
const perfExt = ".perf"

const headerSection = "[Performance]"

var ErrNoPerformance = errors.New("session: performance not found")

// PerformanceInfo describes a saved performance (for listing)
type PerformanceInfo struct {
	Name   string
	Module string
	Tempo  int
	Events int
	Saved  time.Time
}

// PerformancesDir returns the performances directory path
func PerformancesDir() (string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "performances"), nil
}

func perfPath(dir, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("session: bad performance name %q", name)
	}
	return filepath.Join(dir, name+perfExt), nil
}

// SavePerformance writes the current module header and recorded events to
// dir/<name>.perf, replacing any earlier save.
func (s *Session) SavePerformance(dir, name string) error {
	path, err := perfPath(dir, name)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	s.mu.Lock()
	st := s.engine.Snapshot()
	writeHeader(&buf, PerformanceInfo{Module: st.Module.Name, Tempo: st.Tempo, Saved: time.Now()})
	err = s.timeline.Encode(&buf)
	n := s.timeline.Len()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: %w", timeline.ErrFileUnavailable, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("%w: %w", timeline.ErrFileUnavailable, err)
	}
	debug.Log("session", "saved %s (%d events)", path, n)
	return nil
}

// LoadPerformance replaces the recorded events with dir/<name>.perf. The
// saved tempo is applied; the module name is informational. It returns the
// number of malformed lines skipped.
func (s *Session) LoadPerformance(dir, name string) (int, error) {
	path, err := perfPath(dir, name)
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", ErrNoPerformance, name)
		}
		return 0, fmt.Errorf("%w: %w", timeline.ErrFileUnavailable, err)
	}
	info := readHeader(bytes.NewReader(data))

	defer s.publish()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeline.SetRecording(false)
	s.timeline.SetPlayback(false)
	skipped, err := s.timeline.Load(bytes.NewReader(data))
	if err != nil {
		return skipped, err
	}
	if info.Tempo > 0 {
		s.engine.Execute(action.TempoSet, 0, info.Tempo)
	}
	if info.Module != "" && info.Module != s.engine.Snapshot().Module.Name {
		debug.Log("session", "%s was recorded on %q", name, info.Module)
	}
	return skipped, nil
}

// ListPerformances returns saved performances, newest first
func ListPerformances(dir string) ([]PerformanceInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []PerformanceInfo{}, nil
		}
		return nil, err
	}

	var perfs []PerformanceInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), perfExt) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		info := readHeader(bytes.NewReader(data))
		info.Name = strings.TrimSuffix(entry.Name(), perfExt)
		events, _, _ := timeline.Decode(bytes.NewReader(data))
		info.Events = len(events)
		if info.Saved.IsZero() {
			if fi, err := entry.Info(); err == nil {
				info.Saved = fi.ModTime()
			}
		}
		perfs = append(perfs, info)
	}

	sort.Slice(perfs, func(i, j int) bool {
		return perfs[i].Saved.After(perfs[j].Saved)
	})
	return perfs, nil
}

// DeletePerformance removes dir/<name>.perf
func DeletePerformance(dir, name string) error {
	path, err := perfPath(dir, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNoPerformance, name)
		}
		return err
	}
	return nil
}

func writeHeader(w io.Writer, info PerformanceInfo) {
	fmt.Fprintln(w, headerSection)
	fmt.Fprintf(w, "module=%s\n", info.Module)
	fmt.Fprintf(w, "tempo=%d\n", info.Tempo)
	fmt.Fprintf(w, "saved=%s\n", info.Saved.UTC().Format(time.RFC3339))
	fmt.Fprintln(w)
}

// readHeader parses the [Performance] section; missing keys stay zero.
func readHeader(r io.Reader) PerformanceInfo {
	var info PerformanceInfo
	sc := bufio.NewScanner(r)
	in := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "[") {
			if in {
				break
			}
			in = strings.EqualFold(line, headerSection)
			continue
		}
		if !in {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)
		switch strings.TrimSpace(key) {
		case "module":
			info.Module = val
		case "tempo":
			info.Tempo, _ = strconv.Atoi(val)
		case "saved":
			info.Saved, _ = time.Parse(time.RFC3339, val)
		}
	}
	return info
}
