package todds

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(id int) *MatchRecord {
	m := NewMatchRecord()
	m.ID = id
	m.Year = 2022
	m.Source = SourceArchive
	m.WinnerName = "Carlos Alcaraz"
	m.LoserName = "Casper Ruud"
	m.Surface = "Hard"
	m.TourneyLevel = "G"
	m.TourneyName = "US Open"
	m.Round = "F"
	m.Score = "6-4 2-6 7-6 6-3"
	m.BestOf = 5
	return m
}

func TestSaveAndFind(t *testing.T) {
	withTestConfig(t)
	require.NoError(t, createTables())

	require.NoError(t, Save(sampleRecord(1)))
	require.NoError(t, Save(sampleRecord(2)))

	results, err := FindAll(&MatchRecord{})
	require.NoError(t, err)
	require.Len(t, results, 2)

	found, ok := results[0].(*MatchRecord)
	require.True(t, ok)
	assert.Equal(t, "Carlos Alcaraz", found.WinnerName)
	assert.Equal(t, 5, found.BestOf)
	assert.False(t, found.CreatedAt.IsZero(), "BeforeSave should stamp the record")
}

func TestSaveUpdatesExistingRecord(t *testing.T) {
	withTestConfig(t)
	require.NoError(t, createTables())

	m := sampleRecord(7)
	require.NoError(t, Save(m))

	m.Score = "walkover"
	require.NoError(t, Save(m), "Saving the same primary key should update")

	results, err := FindWhere(&MatchRecord{}, "id = ?", 7)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "walkover", results[0].(*MatchRecord).Score)
}

func TestDeleteRemovesRecord(t *testing.T) {
	withTestConfig(t)
	require.NoError(t, createTables())

	m := sampleRecord(3)
	require.NoError(t, Save(m))

	exists, err := Exists(m)
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, Delete(m))

	exists, err = Exists(m)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFindWhereFiltersByIndexedColumn(t *testing.T) {
	withTestConfig(t)
	require.NoError(t, createTables())

	a := sampleRecord(10)
	b := sampleRecord(11)
	b.Surface = "Clay"
	require.NoError(t, Save(a))
	require.NoError(t, Save(b))

	results, err := FindWhere(&MatchRecord{}, "surface = ?", "Clay")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 11, results[0].(*MatchRecord).ID)
}

func TestMatchRecordPrimaryKeyRoundTrip(t *testing.T) {
	m := NewMatchRecord()
	require.NoError(t, m.SetPrimaryKey(map[string]interface{}{"id": 42}))
	assert.Equal(t, map[string]interface{}{"id": 42}, m.GetPrimaryKey())

	require.Error(t, m.SetPrimaryKey(map[string]interface{}{"nope": 1}))
}

func TestParseMatchRowYearFallbacks(t *testing.T) {
	row := map[string]string{
		"winner_name":   "A",
		"loser_name":    "B",
		"surface":       "Hard",
		"tourney_level": "M",
		"tourney_date":  "20230115",
	}

	m := ParseMatchRow(row, -1, SourceKaggle)
	assert.Equal(t, 2023, m.Year, "Year should fall back to the tourney date prefix")

	row["year"] = "2019"
	m = ParseMatchRow(row, -1, SourceKaggle)
	assert.Equal(t, 2019, m.Year, "An explicit year column should win over the date")

	m = ParseMatchRow(row, 2001, SourceArchive)
	assert.Equal(t, 2001, m.Year, "A caller-supplied year should not be second-guessed")
}

func TestCreatedAtSurvivesRoundTrip(t *testing.T) {
	withTestConfig(t)
	require.NoError(t, createTables())

	m := sampleRecord(20)
	m.CreatedAt = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, Save(m))

	results, err := FindWhere(&MatchRecord{}, "id = ?", 20)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2024, results[0].(*MatchRecord).CreatedAt.Year())
}
