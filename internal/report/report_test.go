package report

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t0 }
}

func TestRecorderRoundTripsThroughFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	rec := NewRecorder(path)
	rec.now = fixedClock()

	require.NoError(t, rec.Add(Result{Instance: "a", Problem: "gemm 64x64x64", Status: StatusPass, Launches: 3, Duration: time.Millisecond, GFLOPS: 1.5}))
	require.NoError(t, rec.Fail("b", "gemm 64x64x64", errors.New("workspace too small")))

	got, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(rec.Results(), got); diff != "" {
		t.Errorf("loaded results mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "workspace too small", got[1].Error)
	assert.Equal(t, StatusFail, got[1].Status)
}

func TestRecorderInMemory(t *testing.T) {
	rec := NewRecorder("")
	require.NoError(t, rec.Add(Result{Instance: "a", Status: StatusPass}))

	res := rec.Results()
	require.Len(t, res, 1)
	res[0].Instance = "changed"
	assert.Equal(t, "a", rec.Results()[0].Instance)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	var buf bytes.Buffer
	passed, failed := Summarize(&buf, []Result{
		{Instance: "a", Status: StatusPass, Duration: time.Microsecond, GFLOPS: 2},
		{Instance: "b", Status: StatusFail, Error: "mismatch"},
		{Instance: "c", Status: StatusPass},
	})
	assert.Equal(t, 2, passed)
	assert.Equal(t, 1, failed)
	assert.Contains(t, buf.String(), "2.00 GFLOP/s")
	assert.Contains(t, buf.String(), "mismatch")
	assert.Contains(t, buf.String(), "total 3, passed 2, failed 1")
}
