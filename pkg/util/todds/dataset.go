package todds

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/richard-senior/todds/internal/logger"
)

// yearFilePattern matches the per-year files from the primary source
var yearFilePattern = regexp.MustCompile(`^atp_matches_(\d{4})\.csv$`)

// Dataset is the merged, filtered collection of match records that the
// predictor trains on
type Dataset struct {
	Matches []*MatchRecord
}

// LoadAndMerge reads every available source file into a single Dataset.
// Per-file failures (unreadable, malformed, wrong shape) skip that file
// with a warning. Only a total failure, no file contributing any rows,
// returns an error.
func LoadAndMerge() (*Dataset, error) {
	d := &Dataset{}
	filesLoaded := 0

	for _, path := range primaryFiles() {
		year := yearFromFilename(filepath.Base(path))
		rows, err := readCSVRows(path)
		if err != nil {
			logger.Warn("Skipping unreadable file", path, err)
			continue
		}
		d.appendRows(rows, year, SourceArchive)
		filesLoaded++
	}

	if rows, err := readCSVRows(KaggleCSVPath()); err == nil {
		// The secondary pull has no year in its filename, rows carry it
		d.appendRows(rows, -1, SourceKaggle)
		filesLoaded++
	} else if !os.IsNotExist(err) {
		logger.Warn("Skipping secondary source", err)
	}

	if filesLoaded == 0 || len(d.Matches) == 0 {
		return nil, fmt.Errorf("no match data could be loaded from %s", Config.DataPath)
	}

	// Assign stable row identities after the merge
	for i, m := range d.Matches {
		m.ID = i + 1
	}

	logger.Info("Dataset loaded", len(d.Matches), "matches from", filesLoaded, "files")
	return d, nil
}

// primaryFiles returns the per-year CSV paths inside the data directory
// that fall within the configured year range, in filename order
func primaryFiles() []string {
	entries, err := os.ReadDir(Config.DataPath)
	if err != nil {
		logger.Warn("Cannot read data directory", Config.DataPath, err)
		return nil
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		year := yearFromFilename(entry.Name())
		if year < Config.FirstYear || year > Config.LastYear {
			continue
		}
		paths = append(paths, filepath.Join(Config.DataPath, entry.Name()))
	}

	sort.Strings(paths)
	return paths
}

// yearFromFilename extracts the year from a per-year filename, returning
// -1 when the name does not match
func yearFromFilename(name string) int {
	m := yearFilePattern.FindStringSubmatch(name)
	if m == nil {
		return -1
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return -1
	}
	return year
}

// readCSVRows parses a CSV file into header-keyed row maps. Rows with a
// field count differing from the header are skipped rather than aborting
// the file.
func readCSVRows(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s has no data rows", path)
	}

	header := records[0]
	var rows []map[string]string
	for _, record := range records[1:] {
		if len(record) != len(header) {
			continue
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			row[col] = record[i]
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// appendRows converts raw rows to records, keeping only those complete
// enough for prediction
func (d *Dataset) appendRows(rows []map[string]string, year int, source string) {
	for _, row := range rows {
		m := ParseMatchRow(row, year, source)
		if !m.IsComplete() {
			continue
		}
		d.Matches = append(d.Matches, m)
	}
}

/////////////////////////////////////////////////////////////////////////
////// Queries
/////////////////////////////////////////////////////////////////////////

// Players returns the sorted set of distinct player names in the dataset
func (d *Dataset) Players() []string {
	seen := make(map[string]bool)
	for _, m := range d.Matches {
		seen[m.WinnerName] = true
		seen[m.LoserName] = true
	}
	return sortedKeys(seen)
}

// Surfaces returns the sorted set of distinct surfaces in the dataset
func (d *Dataset) Surfaces() []string {
	seen := make(map[string]bool)
	for _, m := range d.Matches {
		seen[m.Surface] = true
	}
	return sortedKeys(seen)
}

// Levels returns the sorted set of distinct tournament levels
func (d *Dataset) Levels() []string {
	seen := make(map[string]bool)
	for _, m := range d.Matches {
		seen[m.TourneyLevel] = true
	}
	return sortedKeys(seen)
}

// HeadToHead returns every match contested between the two named players
func (d *Dataset) HeadToHead(a, b string) []*MatchRecord {
	var matches []*MatchRecord
	for _, m := range d.Matches {
		if m.Involves(a, b) {
			matches = append(matches, m)
		}
	}
	return matches
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

/////////////////////////////////////////////////////////////////////////
////// Persistence
/////////////////////////////////////////////////////////////////////////

// SaveDataset persists the merged dataset to the local database.
// This exists for offline inspection of the merged data, the prediction
// pipeline reads only from the in-memory dataset, so failures here are
// reported to the caller but are safe to ignore.
func SaveDataset(d *Dataset) error {
	if err := createTables(); err != nil {
		return err
	}

	objects := make([]Persistable, 0, len(d.Matches))
	for _, m := range d.Matches {
		objects = append(objects, m)
	}

	if err := BulkSave(objects); err != nil {
		return fmt.Errorf("failed to persist dataset: %w", err)
	}

	logger.Info("Dataset persisted", len(objects), "rows")
	return nil
}
