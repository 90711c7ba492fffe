package gamelog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"est8.games/internal/sim/session"
)

const actPrefix = "acts"

// ActLogger writes one JSONL entry per table event under <dataDir>/<tableID>/.
type ActLogger struct{ w *JSONLZstdWriter }

func NewActLogger(dataDir, tableID string) *ActLogger {
	return &ActLogger{w: NewJSONLZstdWriter(TableDir(dataDir, tableID), actPrefix)}
}

func TableDir(dataDir, tableID string) string { return filepath.Join(dataDir, tableID) }

func (l *ActLogger) WriteEntry(e session.LogEntry) error { return l.w.Write(e) }
func (l *ActLogger) Close() error                        { return l.w.Close() }

// ListFiles returns the act log files of one table directory in write order.
func ListFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, actPrefix+"-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// ReadEntries decodes every entry of a table directory in sequence order.
func ReadEntries(dir string) ([]session.LogEntry, error) {
	files, err := ListFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no act logs in %s", dir)
	}
	var out []session.LogEntry
	for _, path := range files {
		entries, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}
	for i := 1; i < len(out); i++ {
		if out[i].Seq != out[i-1].Seq+1 {
			return nil, fmt.Errorf("gap in act log: seq %d follows %d", out[i].Seq, out[i-1].Seq)
		}
	}
	return out, nil
}

func ReadFile(path string) ([]session.LogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	var out []session.LogEntry
	for sc.Scan() {
		var e session.LogEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return out, nil
}
