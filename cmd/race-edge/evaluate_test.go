package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/race-edge/internal/config"
	"github.com/yourusername/race-edge/internal/models"
	"github.com/yourusername/race-edge/internal/pipeline"
)

const raceYAML = `race_id: race-001
budget: 10000
participants:
  - name: Horse A
    odds: 2.5
    win_probability: 0.5
    price_history: [2.8, 2.6, 2.5]
  - name: Horse B
    odds: 15
    win_probability: 0.15
    price_history: [20, 18, 15]
  - name: Horse C
    odds: 5
    win_probability: 0.25
    price_history: [5, 5, 5]
  - name: Horse D
    odds: 50
    win_probability: 0.02
    price_history: [60, 55, 50]
`

const raceJSON = `{
  "race_id": "race-json",
  "risk_tolerance": 0.25,
  "participants": [
    {"name": "Solo", "odds": 3.0, "win_probability": 0.5}
  ]
}`

func useMissingConfig(t *testing.T) {
	t.Helper()
	prev := configFile
	configFile = filepath.Join(t.TempDir(), "missing.yaml")
	t.Cleanup(func() { configFile = prev })
}

func TestParseRaceYAML(t *testing.T) {
	in, hasBudget, err := parseRace([]byte(raceYAML))
	require.NoError(t, err)

	assert.True(t, hasBudget)
	assert.Equal(t, "race-001", in.RaceID)
	assert.Equal(t, 10000.0, in.Budget)
	require.Len(t, in.Participants, 4)
	assert.Equal(t, 1, in.Participants[1].Index)
	assert.Equal(t, 15.0, in.Participants[1].MarketOdds)
	assert.Equal(t, []float64{20, 18, 15}, in.Participants[1].PriceHistory)
}

func TestParseRaceJSON(t *testing.T) {
	in, hasBudget, err := parseRace([]byte(raceJSON))
	require.NoError(t, err)

	assert.False(t, hasBudget)
	assert.Equal(t, "race-json", in.RaceID)
	require.NotNil(t, in.RiskTolerance)
	assert.Equal(t, 0.25, *in.RiskTolerance)
	require.Len(t, in.Participants, 1)
	assert.Equal(t, "Solo", in.Participants[0].Name)
}

func TestParseRaceInvalid(t *testing.T) {
	_, _, err := parseRace([]byte("participants: [unclosed"))
	assert.Error(t, err)
}

func TestParseRaceRequiresPriceAndProbability(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantIndex int
		wantField string
	}{
		{
			name:      "missing win probability",
			body:      "participants:\n  - name: A\n    odds: 3.0\n",
			wantIndex: 0,
			wantField: "win_probability",
		},
		{
			name:      "missing odds on second runner",
			body:      "participants:\n  - {name: A, odds: 3.0, win_probability: 0.4}\n  - {name: B, win_probability: 0.2}\n",
			wantIndex: 1,
			wantField: "odds",
		},
		{
			name:      "missing probability in json",
			body:      `{"participants": [{"odds": 2.0, "win_probability": 0.5}, {"odds": 4.0}]}`,
			wantIndex: 1,
			wantField: "win_probability",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseRace([]byte(tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrInvalidInput)

			var ve *models.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantIndex, ve.Index)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestReadRaceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "race.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raceYAML), 0o600))

	in, _, err := readRaceFile(path)
	require.NoError(t, err)
	assert.Len(t, in.Participants, 4)

	_, _, err = readRaceFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestRunEvaluateTables(t *testing.T) {
	useMissingConfig(t)
	in, _, err := parseRace([]byte(raceYAML))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runEvaluate(context.Background(), &out, in, evaluateOptions{}))

	text := out.String()
	assert.Contains(t, text, "Race race-001")
	assert.Contains(t, text, "P:1 G:0 S:2 B:1")
	assert.Contains(t, text, "Horse B")
	assert.Contains(t, text, "PLATINUM")
	assert.Contains(t, text, "Total staked 1500.00")
}

func TestRunEvaluateJSON(t *testing.T) {
	useMissingConfig(t)
	in, _, err := parseRace([]byte(raceJSON))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runEvaluate(context.Background(), &out, in, evaluateOptions{asJSON: true, defaultBudget: true}))

	var decision models.Decision
	require.NoError(t, json.Unmarshal(out.Bytes(), &decision))
	assert.Equal(t, "race-json", decision.RaceID)
	assert.Equal(t, 10000.0, decision.Budget)
	assert.Equal(t, 0.25, decision.RiskTolerance)
	assert.NotEmpty(t, decision.ID)
}

func TestRunEvaluateRejectsInvalidRace(t *testing.T) {
	useMissingConfig(t)
	in := models.RaceInput{
		Budget:       100,
		Participants: []models.ParticipantObservation{{Index: 0, MarketOdds: 0.9, WinProbability: 0.5}},
	}

	err := runEvaluate(context.Background(), &bytes.Buffer{}, in, evaluateOptions{})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestEvaluateCommandFlags(t *testing.T) {
	useMissingConfig(t)
	path := filepath.Join(t.TempDir(), "race.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raceYAML), 0o600))

	cmd := newEvaluateCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"-f", path, "--budget", "50000", "--risk", "1", "--json"})
	require.NoError(t, cmd.Execute())

	var decision models.Decision
	require.NoError(t, json.Unmarshal(out.Bytes(), &decision))
	assert.Equal(t, 50000.0, decision.Budget)
	assert.Equal(t, 1.0, decision.RiskTolerance)
}

func TestPolicyFromDefaults(t *testing.T) {
	cfg, err := config.LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, pipeline.DefaultPolicy(), policyFromConfig(cfg))
}

func TestVersionCommand(t *testing.T) {
	cmd := newVersionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "race-edge dev")
}
