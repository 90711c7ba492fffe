package gamelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"est8.games/internal/sim/session"
)

func TestActLogger_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewActLogger(dir, "T1")
	entries := []session.LogEntry{
		{Seq: 1, TableID: "T1", Kind: session.EntryCreate, Seed: 7, Digest: "a"},
		{Seq: 2, TableID: "T1", Kind: session.EntryJoin, PlayerID: "P1", Name: "ada", Digest: "b"},
		{Seq: 3, TableID: "T1", Kind: session.EntryAct, PlayerID: "P1", Act: &session.Act{Kind: session.ActBuild, Choice: 1, Street: 2, Plot: 3}, Round: 1, Digest: "c"},
	}
	for _, e := range entries {
		if err := l.WriteEntry(e); err != nil {
			t.Fatalf("WriteEntry: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := ReadEntries(TableDir(dir, "T1"))
	if err != nil {
		t.Fatalf("ReadEntries: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("entries=%d want=3", len(got))
	}
	if got[2].Act == nil || got[2].Act.Plot != 3 || got[2].Act.Kind != session.ActBuild {
		t.Fatalf("act=%+v", got[2].Act)
	}
	if got[0].Seed != 7 || got[1].Name != "ada" {
		t.Fatalf("entries=%+v", got)
	}
}

func TestJSONLZstdWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, actPrefix)
	clock := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	if err := w.Write(session.LogEntry{Seq: 1}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	clock = clock.Add(2 * time.Minute)
	if err := w.Write(session.LogEntry{Seq: 2}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "acts-2026-03-01-10.jsonl.zst" {
		t.Fatalf("files=%v", files)
	}
	got, err := ReadEntries(dir)
	if err != nil {
		t.Fatalf("ReadEntries: %v", err)
	}
	if len(got) != 2 || got[1].Seq != 2 {
		t.Fatalf("entries=%+v", got)
	}
}

func TestReadEntries_DetectsGaps(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, actPrefix)
	for _, seq := range []uint64{1, 3} {
		if err := w.Write(session.LogEntry{Seq: seq}); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	_ = w.Close()
	if _, err := ReadEntries(dir); err == nil {
		t.Fatalf("expected gap error")
	}
}

func TestReadEntries_Empty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadEntries(dir); err == nil {
		t.Fatalf("expected error for directory without logs")
	}
}
