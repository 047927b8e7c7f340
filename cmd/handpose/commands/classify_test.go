package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/handpose/internal/detector"
	"github.com/ayusman/handpose/internal/gesture"
	"github.com/ayusman/handpose/testdata"
)

func writeHandFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hand.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestReadHand(t *testing.T) {
	victory := detector.VictoryLandmarks()
	object, err := json.Marshal(victory)
	require.NoError(t, err)
	hands, err := json.Marshal([]detector.HandLandmarks{victory, detector.FistLandmarks()})
	require.NoError(t, err)
	points, err := json.Marshal(victory.Points[:])
	require.NoError(t, err)
	short, err := json.Marshal(victory.Points[:20])
	require.NoError(t, err)

	tests := []struct {
		name      string
		data      []byte
		stdin     bool
		wantErr   string
		malformed bool
	}{
		{name: "hand object", data: object},
		{name: "hand object from stdin", data: object, stdin: true},
		{name: "array of hands", data: hands},
		{name: "bare point array", data: points},
		{name: "bare point array from stdin", data: append([]byte("\n  "), points...), stdin: true},
		{name: "20 points in an object", data: []byte(`{"points":` + string(short) + `}`), malformed: true},
		{name: "20 bare points", data: short, malformed: true},
		{name: "empty array", data: []byte(`[]`), wantErr: "no hands"},
		{name: "not json", data: []byte(`hand`), wantErr: "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, stdin := "-", bytes.NewReader(tt.data)
			if !tt.stdin {
				path = writeHandFile(t, tt.data)
			}

			hand, err := readHand(path, stdin)
			switch {
			case tt.malformed:
				require.ErrorIs(t, err, detector.ErrMalformedHand)
			case tt.wantErr != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			default:
				require.NoError(t, err)
				assert.Equal(t, victory.Points, hand.Points)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := readHand(filepath.Join(t.TempDir(), "missing.json"), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read hand")
	})
}

func TestReadHand_RecordedFixture(t *testing.T) {
	raw, err := testdata.LoadRaw("victory")
	require.NoError(t, err)

	hand, err := readHand("-", bytes.NewReader(raw))
	require.NoError(t, err)

	var out strings.Builder
	printMatches(&out, gesture.NewClassifier(gesture.MustLibrary(), gesture.DefaultThreshold), hand)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "* victory"), "got %q", lines[0])
	assert.Equal(t, "gesture: victory", lines[3])
}
