package results

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/humbal1/pierce-doc-links-scrapper/models"
)

var fixedTime = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func newStore(t *testing.T, format string) *Store {
	t.Helper()
	s, err := New(t.TempDir(), format, nil)
	require.NoError(t, err)
	s.now = func() time.Time { return fixedTime }
	return s
}

func sample() []models.Record {
	return []models.Record{
		{Instrument: "202401050123", RecordedDate: "01/05/2024", DocumentType: "TRUSTEE SALE", Grantor: "SMITH, JOHN", Grantee: "BANK", ImageLink: "https://armsweb.co.pierce.wa.us/RealEstate/SearchResults.aspx?global_id=OPR1&type=img"},
		{Instrument: "Unknown", DocumentType: "TRUSTEE SALE", Grantor: `O"BRIEN`},
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"TRUSTEE SALE", "TRUSTEE_SALE_20240309_140507.csv"},
		{"DEED OF TRUST (DOT)", "DEED_OF_TRUST_DOT_20240309_140507.csv"},
		{"  LIS-PENDENS / NOTICE ", "LIS-PENDENS__NOTICE_20240309_140507.csv"},
		{"???", "documents_20240309_140507.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.in, fixedTime, "csv"))
		})
	}
}

func TestNew_RejectsUnknownFormat(t *testing.T) {
	_, err := New(t.TempDir(), "json", nil)
	assert.Error(t, err)

	s, err := New(t.TempDir(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, s.format)
}

func TestSave_EmptyWritesNothing(t *testing.T) {
	s := newStore(t, "csv")

	name, err := s.Save(context.Background(), "DEED", nil)
	require.NoError(t, err)
	assert.Empty(t, name)

	files, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestSave_CSV(t *testing.T) {
	s := newStore(t, "csv")

	name, err := s.Save(context.Background(), "TRUSTEE SALE", sample())
	require.NoError(t, err)
	assert.Equal(t, "TRUSTEE_SALE_20240309_140507.csv", name)

	f, err := os.Open(filepath.Join(s.Dir(), name))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, "SMITH, JOHN", rows[1][3])
	assert.Equal(t, `O"BRIEN`, rows[2][3])
	assert.Equal(t, "Unknown", rows[2][0])
}

func TestSave_XLSX(t *testing.T) {
	s := newStore(t, "xlsx")

	name, err := s.Save(context.Background(), "TRUSTEE SALE", sample())
	require.NoError(t, err)
	assert.Equal(t, "TRUSTEE_SALE_20240309_140507.xlsx", name)

	f, err := excelize.OpenFile(filepath.Join(s.Dir(), name))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, "202401050123", rows[1][0])
	assert.Equal(t, sample()[0].ImageLink, rows[1][5])
}

func TestSave_SameSecondDoesNotOverwrite(t *testing.T) {
	s := newStore(t, "csv")

	first, err := s.Save(context.Background(), "DEED", sample())
	require.NoError(t, err)
	second, err := s.Save(context.Background(), "DEED", sample()[:1])
	require.NoError(t, err)

	assert.Equal(t, "DEED_20240309_140507.csv", first)
	assert.Equal(t, "DEED_20240309_140507_2.csv", second)
}

func TestSave_ConcurrentSameSecondKeepsEveryFile(t *testing.T) {
	s := newStore(t, "csv")

	const n = 8
	names := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name, err := s.Save(context.Background(), "DEED", sample())
			assert.NoError(t, err)
			names[i] = name
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, name := range names {
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true

		f, err := os.Open(filepath.Join(s.Dir(), name))
		require.NoError(t, err)
		rows, err := csv.NewReader(f).ReadAll()
		f.Close()
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	}
}

func TestSave_NeverTruncatesExistingFile(t *testing.T) {
	s := newStore(t, "csv")
	existing := filepath.Join(s.Dir(), "DEED_20240309_140507.csv")
	require.NoError(t, os.WriteFile(existing, []byte("keep me"), 0o644))

	name, err := s.Save(context.Background(), "DEED", sample())
	require.NoError(t, err)
	assert.Equal(t, "DEED_20240309_140507_2.csv", name)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data))
}

func TestList_NewestFirst(t *testing.T) {
	s := newStore(t, "csv")
	require.NoError(t, os.MkdirAll(s.Dir(), 0o755))

	write := func(name string, age time.Duration) {
		p := filepath.Join(s.Dir(), name)
		require.NoError(t, os.WriteFile(p, make([]byte, 2048), 0o644))
		ts := time.Now().Add(-age)
		require.NoError(t, os.Chtimes(p, ts, ts))
	}
	write("old.csv", 2*time.Hour)
	write("new.xlsx", time.Minute)
	write("mid.csv", time.Hour)
	write("notes.txt", 0)

	files, err := s.List()
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "new.xlsx", files[0].Filename)
	assert.Equal(t, "mid.csv", files[1].Filename)
	assert.Equal(t, "old.csv", files[2].Filename)
	assert.Equal(t, 2.0, files[0].SizeKB)
	_, err = time.Parse(time.RFC3339, files[0].Created)
	assert.NoError(t, err)
}

func TestList_MissingDirectory(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "absent"), "csv", nil)
	require.NoError(t, err)

	files, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestPath(t *testing.T) {
	s := newStore(t, "csv")
	name, err := s.Save(context.Background(), "DEED", sample())
	require.NoError(t, err)

	p, err := s.Path(name)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), name), p)

	for _, bad := range []string{"", "../" + name, "sub/" + name, `..\` + name, ".hidden.csv", "missing.csv", "notes.txt", ".."} {
		_, err := s.Path(bad)
		assert.ErrorIs(t, err, ErrNotFound, bad)
	}
}
