package todds

import (
	"fmt"
	"strings"
	"time"

	"github.com/richard-senior/todds/pkg/util"
)

// Compile-time check to ensure MatchRecord implements Persistable interface
var _ Persistable = (*MatchRecord)(nil)

// Source labels for the two acquisition paths
const (
	SourceArchive = "archive"
	SourceKaggle  = "kaggle"
)

// MatchRecord represents one historical tennis match with database
// persistence annotations. Identity is the row position assigned at load
// time, the sources themselves carry no primary key and duplicates across
// sources are deliberately kept.
type MatchRecord struct {
	// Primary key (row ordinal assigned during load)
	ID int `json:"id" column:"id" dbtype:"INTEGER" primary:"true"`

	// Provenance
	Year   int    `json:"year" column:"year" dbtype:"INTEGER DEFAULT -1" index:"true"`
	Source string `json:"source" column:"source" dbtype:"TEXT"`

	// Core match data
	WinnerName   string `json:"winnerName" column:"winnerName" dbtype:"TEXT NOT NULL" index:"true"`
	LoserName    string `json:"loserName" column:"loserName" dbtype:"TEXT NOT NULL" index:"true"`
	Surface      string `json:"surface" column:"surface" dbtype:"TEXT" index:"true"`
	TourneyLevel string `json:"tourneyLevel" column:"tourneyLevel" dbtype:"TEXT" index:"true"`

	// Supplementary columns carried through when the source has them
	TourneyName string `json:"tourneyName,omitempty" column:"tourneyName" dbtype:"TEXT"`
	Round       string `json:"round,omitempty" column:"round" dbtype:"TEXT"`
	Score       string `json:"score,omitempty" column:"score" dbtype:"TEXT"`
	BestOf      int    `json:"bestOf,omitempty" column:"bestOf" dbtype:"INTEGER DEFAULT -1"`

	// Metadata
	CreatedAt time.Time `json:"createdAt" column:"created_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
}

// NewMatchRecord creates a new MatchRecord with default values for numeric
// fields. Numeric fields default to -1 to distinguish from valid zero values.
func NewMatchRecord() *MatchRecord {
	return &MatchRecord{
		Year:   -1,
		BestOf: -1,
	}
}

/////////////////////////////////////////////////////////////////////////
////// Persistable Interface Implementation
/////////////////////////////////////////////////////////////////////////

// GetPrimaryKey returns the primary key as a map
func (m *MatchRecord) GetPrimaryKey() map[string]interface{} {
	return map[string]any{
		"id": m.ID,
	}
}

// SetPrimaryKey sets the primary key from a map
func (m *MatchRecord) SetPrimaryKey(pk map[string]interface{}) error {
	if id, ok := pk["id"]; ok {
		i, err := util.GetAsInteger(id)
		if err != nil {
			return fmt.Errorf("primary key 'id' must be an integer: %w", err)
		}
		m.ID = i
		return nil
	}
	return fmt.Errorf("primary key 'id' not found")
}

// GetTableName returns the table name for match records
func (m *MatchRecord) GetTableName() string {
	return "match"
}

// BeforeSave is called before saving the record
func (m *MatchRecord) BeforeSave() error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	return nil
}

// AfterSave is called after saving the record
func (m *MatchRecord) AfterSave() error {
	return nil
}

// BeforeDelete is called before deleting the record
func (m *MatchRecord) BeforeDelete() error {
	return nil
}

// AfterDelete is called after deleting the record
func (m *MatchRecord) AfterDelete() error {
	return nil
}

/////////////////////////////////////////////////////////////////////////
////// Row Parsing
/////////////////////////////////////////////////////////////////////////

// ParseMatchRow converts a header-keyed CSV row into a MatchRecord.
// Column names follow the Sackmann ATP schema (winner_name, loser_name,
// surface, tourney_level, ...). The secondary source is assumed to share
// this schema for the columns we consume, columns it lacks come through
// as empty strings and such rows are removed by the completeness filter.
func ParseMatchRow(row map[string]string, year int, source string) *MatchRecord {
	m := NewMatchRecord()
	m.Year = year
	m.Source = source
	m.WinnerName = strings.TrimSpace(row["winner_name"])
	m.LoserName = strings.TrimSpace(row["loser_name"])
	m.Surface = strings.TrimSpace(row["surface"])
	m.TourneyLevel = strings.TrimSpace(row["tourney_level"])
	m.TourneyName = strings.TrimSpace(row["tourney_name"])
	m.Round = strings.TrimSpace(row["round"])
	m.Score = strings.TrimSpace(row["score"])

	if bo := strings.TrimSpace(row["best_of"]); bo != "" {
		if n, err := util.GetAsInteger(bo); err == nil {
			m.BestOf = n
		}
	}

	// Some secondary source pulls carry their own year column, prefer it
	// over the -1 the caller passes when the filename gives no year
	if m.Year < 0 {
		if y := strings.TrimSpace(row["year"]); y != "" {
			if n, err := util.GetAsInteger(y); err == nil {
				m.Year = n
			}
		} else if td := strings.TrimSpace(row["tourney_date"]); len(td) >= 4 {
			if n, err := util.GetAsInteger(td[:4]); err == nil {
				m.Year = n
			}
		}
	}

	return m
}

// IsComplete returns true when the record carries all four fields the
// predictor depends on. Incomplete records are dropped during load.
func (m *MatchRecord) IsComplete() bool {
	return m.WinnerName != "" && m.LoserName != "" && m.Surface != "" && m.TourneyLevel != ""
}

// Involves returns true if both named players took part in this match
func (m *MatchRecord) Involves(a, b string) bool {
	return (m.WinnerName == a && m.LoserName == b) || (m.WinnerName == b && m.LoserName == a)
}
