package producer_test

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lguimbarda/kvflow/flow"
	"github.com/lguimbarda/kvflow/flow/producer"
)

func TestLines(t *testing.T) {
	got := items(t, producer.Lines(strings.NewReader("alpha\nbravo\n\ncharlie")))
	want := []flow.Item[int, string]{
		{Key: 1, Value: "alpha"},
		{Key: 2, Value: "bravo"},
		{Key: 3, Value: ""},
		{Key: 4, Value: "charlie"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	if err := os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := flow.From(producer.File(path)).
		Filter(func(v string, _ int) bool { return strings.HasPrefix(v, "t") }).
		Values(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"two", "three"}, got); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestFileMissing(t *testing.T) {
	p := producer.File(filepath.Join(t.TempDir(), "missing.txt"))
	_, err := flow.From(p).Values(context.Background())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err = %v, want fs.ErrNotExist", err)
	}
	if !errors.Is(p.Err(), fs.ErrNotExist) {
		t.Errorf("Err() = %v, want fs.ErrNotExist", p.Err())
	}
}

func TestLinesTooLong(t *testing.T) {
	p := producer.Lines(strings.NewReader("ok\n"+strings.Repeat("x", 32)+"\n"), producer.WithMaxLineSize(16))
	got, err := flow.From(p).Values(context.Background())
	if !errors.Is(err, bufio.ErrTooLong) {
		t.Fatalf("err = %v, want bufio.ErrTooLong", err)
	}
	if diff := cmp.Diff([]string{"ok"}, got); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestCSV(t *testing.T) {
	input := "# people\nalice; 30\nbob; 25\n"
	p := producer.CSV(strings.NewReader(input),
		producer.WithComma(';'),
		producer.WithComment('#'),
		producer.WithTrimLeadingSpace(true))

	want := []flow.Item[int, []string]{
		{Key: 0, Value: []string{"alice", "30"}},
		{Key: 1, Value: []string{"bob", "25"}},
	}
	if diff := cmp.Diff(want, items(t, p)); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(path, []byte("a,b\nc,d\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	n, err := flow.From(producer.CSVFile(path)).Count(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("Count() = %d, %v, want 2", n, err)
	}
}

func TestCSVRows(t *testing.T) {
	input := "name,age\nalice,30\nbob,25\n"
	got, err := flow.From(producer.CSVRows(strings.NewReader(input))).
		Filter(func(row map[string]string, _ int) bool { return row["age"] > "26" }).
		Values(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []map[string]string{{"name": "alice", "age": "30"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestCSVErrors(t *testing.T) {
	t.Run("missing header", func(t *testing.T) {
		_, err := flow.From(producer.CSVRows(strings.NewReader(""))).Values(context.Background())
		if !errors.Is(err, producer.ErrNoHeader) {
			t.Fatalf("err = %v, want ErrNoHeader", err)
		}
	})

	t.Run("malformed record", func(t *testing.T) {
		p := producer.CSV(strings.NewReader("a,b\nc,\"d\n"))
		got, err := flow.From(p).Values(context.Background())
		var perr *csv.ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("err = %v, want *csv.ParseError", err)
		}
		if len(got) != 1 {
			t.Errorf("got %d records before the failure, want 1", len(got))
		}
	})

	t.Run("field count", func(t *testing.T) {
		p := producer.CSV(strings.NewReader("a,b\nc\n"), producer.WithFieldsPerRecord(2))
		_, err := flow.From(p).Values(context.Background())
		if !errors.Is(err, csv.ErrFieldCount) {
			t.Fatalf("err = %v, want csv.ErrFieldCount", err)
		}
	})

	t.Run("variable fields allowed", func(t *testing.T) {
		p := producer.CSV(strings.NewReader("a,b\nc\n"), producer.WithFieldsPerRecord(-1))
		got, err := flow.From(p).Values(context.Background())
		if err != nil || len(got) != 2 {
			t.Fatalf("got %v, %v", got, err)
		}
	})

	t.Run("lazy quotes", func(t *testing.T) {
		p := producer.CSV(strings.NewReader("a \"quoted\" b,c\n"), producer.WithLazyQuotes(true))
		got, err := flow.From(p).Values(context.Background())
		if err != nil || len(got) != 1 || got[0][0] != "a \"quoted\" b" {
			t.Fatalf("got %q, %v", got, err)
		}
	})
}
