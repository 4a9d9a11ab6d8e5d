// Package snapshot persists the artifacts of one as-of date and publishes the JSON copies.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"unicode/utf8"

	"ecpharm/internal/config"
	"ecpharm/internal/models"
	"ecpharm/internal/sheet"
	"ecpharm/pkg/digest"
)

// ErrNoSnapshot is returned when the data directory holds no JSON snapshot.
var ErrNoSnapshot = errors.New("no snapshot found")

var snapshotName = regexp.MustCompile(`^data_(\d{4}-\d{2}-\d{2})\.json$`)

// Paths lists the artifact files of one as-of date.
type Paths struct {
	RawXLSX   string
	CleanXLSX string
	CleanCSV  string
	JSON      string
	Summary   string
}

// Store writes artifacts under a data directory.
type Store struct {
	dataDir string
	mirrors []string
}

// NewStore creates a store from output settings.
func NewStore(out config.OutputConfig) *Store {
	return &Store{
		dataDir: out.DataDir,
		mirrors: append([]string(nil), out.Mirrors...),
	}
}

// Paths returns the artifact paths for asOf.
func (s *Store) Paths(asOf string) Paths {
	return Paths{
		RawXLSX:   filepath.Join(s.dataDir, "source_raw_"+asOf+".xlsx"),
		CleanXLSX: filepath.Join(s.dataDir, "mhlw_ec_pharmacies_cleaned_"+asOf+".xlsx"),
		CleanCSV:  filepath.Join(s.dataDir, "mhlw_ec_pharmacies_cleaned_"+asOf+".csv"),
		JSON:      filepath.Join(s.dataDir, "data_"+asOf+".json"),
		Summary:   filepath.Join(s.dataDir, "summary_"+asOf+".md"),
	}
}

// Mirrors returns the configured copy destinations.
func (s *Store) Mirrors() []string {
	return append([]string(nil), s.mirrors...)
}

// Exists reports whether the JSON snapshot for asOf has already been written.
func (s *Store) Exists(asOf string) (bool, error) {
	_, err := os.Stat(s.Paths(asOf).JSON)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, fmt.Errorf("failed to stat snapshot: %w", err)
}

// Latest returns the newest as-of date with a JSON snapshot.
func (s *Store) Latest() (string, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return "", fmt.Errorf("failed to list data directory: %w", err)
	}

	var dates []string
	for _, e := range entries {
		if m := snapshotName.FindStringSubmatch(e.Name()); m != nil && !e.IsDir() {
			dates = append(dates, m[1])
		}
	}

	if len(dates) == 0 {
		return "", ErrNoSnapshot
	}

	sort.Strings(dates)

	return dates[len(dates)-1], nil
}

// LoadSnapshot reads and decodes the JSON snapshot for asOf.
func (s *Store) LoadSnapshot(asOf string) (models.Payload, error) {
	var payload models.Payload

	data, err := os.ReadFile(s.Paths(asOf).JSON)
	if err != nil {
		return payload, fmt.Errorf("failed to read JSON snapshot: %w", err)
	}

	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, fmt.Errorf("failed to parse JSON snapshot: %w", err)
	}

	return payload, nil
}

// WriteRaw stores the downloaded workbook as-is.
func (s *Store) WriteRaw(asOf string, data []byte) (string, error) {
	path := s.Paths(asOf).RawXLSX
	if err := writeFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("failed to write raw spreadsheet: %w", err)
	}

	return path, nil
}

// WriteTables writes the cleaned workbook and CSV.
func (s *Store) WriteTables(asOf string, clean *sheet.Frame, meta models.Meta) error {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	paths := s.Paths(asOf)

	if err := sheet.WriteXLSX(paths.CleanXLSX, clean, meta); err != nil {
		return fmt.Errorf("failed to write cleaned spreadsheet: %w", err)
	}

	if err := sheet.WriteCSV(paths.CleanCSV, clean); err != nil {
		return fmt.Errorf("failed to write cleaned CSV: %w", err)
	}

	return nil
}

// WriteSummary stores the markdown summary.
func (s *Store) WriteSummary(asOf, summary string) (string, error) {
	path := s.Paths(asOf).Summary
	if err := writeFileAtomic(path, []byte(summary)); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}

	return path, nil
}

// WriteJSON encodes the snapshot and writes data_<asOf>.json. Once this file
// exists the as-of date counts as done, so it is written last and atomically.
func (s *Store) WriteJSON(snap models.Snapshot) (string, error) {
	data, err := EncodePayload(snap.Payload())
	if err != nil {
		return "", err
	}

	path := s.Paths(snap.Meta.AsOf).JSON
	if err := writeFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("failed to write JSON snapshot: %w", err)
	}

	return path, nil
}

// Publish copies the JSON at source to every mirror and checks the copies match.
func (s *Store) Publish(source string) ([]digest.Sum, error) {
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON snapshot: %w", err)
	}

	for _, m := range s.mirrors {
		if err := writeFileAtomic(m, data); err != nil {
			return nil, fmt.Errorf("failed to write mirror %s: %w", m, err)
		}
	}

	return s.Verify(source)
}

// Verify checks every mirror is byte-identical to source and returns all digests.
func (s *Store) Verify(source string) ([]digest.Sum, error) {
	if err := digest.Verify(source, s.mirrors...); err != nil {
		return nil, err
	}

	sums := make([]digest.Sum, 0, len(s.mirrors)+1)
	for _, p := range append([]string{source}, s.mirrors...) {
		sum, err := digest.File(p)
		if err != nil {
			return nil, err
		}
		sums = append(sums, sum)
	}

	return sums, nil
}

// EncodePayload renders the payload compactly with non-ASCII text and <, >, &
// left unescaped. U+2028 and U+2029 are written as raw characters too. There is
// no trailing newline.
func EncodePayload(p models.Payload) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return unescapeLineSeparators(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes written by
// encoding/json back into raw characters. Escaped backslashes are skipped as a
// pair so text that literally contains "\u2028" keeps its escape.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 >= len(data) {
			out = append(out, data[i])
			continue
		}

		if rest := data[i:]; bytes.HasPrefix(rest, []byte(`\u2028`)) || bytes.HasPrefix(rest, []byte(`\u2029`)) {
			out = utf8.AppendRune(out, 0x2028+rune(rest[5]-'8'))
			i += 5
			continue
		}

		out = append(out, data[i], data[i+1])
		i++
	}

	return out
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
