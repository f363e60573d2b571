package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"cogniquiz-service/internal/domain"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleRecords() []domain.ScoreRecord {
	return []domain.ScoreRecord{
		{
			ID:               "r1",
			Score:            40,
			TotalCorrect:     2,
			TotalQuestions:   3,
			Difficulty:       domain.DifficultyMedium,
			Category:         "9",
			NumQuestions:     3,
			TimePerChallenge: 20,
			Timestamp:        time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
		},
	}
}

func TestExportYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, exportRecords(&buf, sampleRecords(), "yaml"))

	var decoded []domain.ScoreRecord
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	require.Equal(t, 40, decoded[0].Score)
	require.Equal(t, domain.DifficultyMedium, decoded[0].Difficulty)
}

func TestExportJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, exportRecords(&buf, nil, "json"))
	require.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestExportUnknownFormat(t *testing.T) {
	require.Error(t, exportRecords(&bytes.Buffer{}, nil, "csv"))
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, sampleRecords(), domain.DefaultCategories()))
	out := buf.String()
	require.Contains(t, out, "Adept")
	require.Contains(t, out, "General Knowledge")
	require.Contains(t, out, "2/3")

	buf.Reset()
	require.NoError(t, writeTable(&buf, nil, nil))
	require.Equal(t, "No scores yet.\n", buf.String())
}

func TestOptionKey(t *testing.T) {
	q := sampleView()
	key, err := optionKey(q, " 2 ")
	require.NoError(t, err)
	require.Equal(t, "option3", key)

	_, err = optionKey(q, "5")
	require.Error(t, err)
	_, err = optionKey(q, "abc")
	require.Error(t, err)
}
