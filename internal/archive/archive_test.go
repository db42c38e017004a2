package archive

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func TestFileName(t *testing.T) {
	start := time.Date(2026, 4, 2, 9, 3, 7, 0, time.FixedZone("CET", 3600))
	got := FileName("wrist/01 left", start)
	want := "wrist_01_left_20260402T080307Z.csv"
	if got != want {
		t.Fatalf("FileName=%q, want %q", got, want)
	}
}

func TestStore_CreateAppendOpen(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, "/data/sessions")
	start := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)

	path, err := s.Create("wrist-01", start)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if path != "/data/sessions/wrist-01_20260402T090000Z.csv" {
		t.Fatalf("path=%q", path)
	}

	if err := s.Append(path, []int{50000, 50120}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(path, []int{-3}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	rc, err := s.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = rc.Close() }()

	raw, _ := io.ReadAll(rc)
	if string(raw) != "50000\n50120\n-3\n" {
		t.Fatalf("content=%q", raw)
	}
}

func TestStore_Errors(t *testing.T) {
	s := New(afero.NewMemMapFs(), "/x")
	if err := s.Append("", []int{1}); !errors.Is(err, ErrEmptyPath) {
		t.Fatalf("want ErrEmptyPath, got %v", err)
	}
	if err := s.Append("/x/missing.csv", []int{1}); err == nil {
		t.Fatalf("append to missing file should fail")
	}
	if _, err := s.Open("/x/missing.csv"); err == nil {
		t.Fatalf("open missing file should fail")
	}

	ro := New(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/ro")
	if _, err := ro.Create("d", time.Now()); err == nil {
		t.Fatalf("create on read-only fs should fail")
	}
}

func TestReadSamples(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    []int
		wantErr bool
	}{
		{"plain", "1\n2\n3\n", []int{1, 2, 3}, false},
		{"header_and_blank_lines", "ir\n\n10\n 20 \n", []int{10, 20}, false},
		{"csv_first_column", "ir,red\n5,7\n6,8\n", []int{5, 6}, false},
		{"garbage_after_header", "1\nabc\n", nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ReadSamples(strings.NewReader(tc.in))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadSamples: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
			}
		})
	}
}
