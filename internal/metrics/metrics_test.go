package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_WriteTextfile(t *testing.T) {
	t.Parallel()

	r := New()
	r.RecordSync("env", ResultUpdated, 0.02)
	r.RecordSync("env", ResultUpdated, 0.03)
	r.RecordSync("ssm", ResultMissing, 0.01)
	r.RecordDiscovered("env", 4)
	r.RecordLockRetry()
	r.RecordMissing("ssm", 2)

	path := filepath.Join(t.TempDir(), "paramdocs.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, `paramdocs_sync_total{result="updated",section="env"} 2`)
	assert.Contains(t, out, `paramdocs_sync_total{result="missing",section="ssm"} 1`)
	assert.Contains(t, out, `paramdocs_discovered_parameters{section="env"} 4`)
	assert.Contains(t, out, `paramdocs_lock_retries_total 1`)
	assert.Contains(t, out, `paramdocs_audit_missing_parameters{section="ssm"} 2`)
	assert.Contains(t, out, `paramdocs_sync_duration_seconds_count{section="env"} 2`)
}

func TestRecorder_Isolated(t *testing.T) {
	t.Parallel()

	a, b := New(), New()
	a.RecordLockRetry()

	families, err := b.Registry().Gather()
	require.NoError(t, err)

	found := false
	for _, f := range families {
		if f.GetName() != "paramdocs_lock_retries_total" {
			continue
		}
		found = true
		require.Len(t, f.GetMetric(), 1)
		assert.Zero(t, f.GetMetric()[0].GetCounter().GetValue(), "recorders do not share collectors")
	}
	assert.True(t, found)
}

func TestRecorder_NilIsNoop(t *testing.T) {
	t.Parallel()

	var r *Recorder
	assert.NotPanics(t, func() {
		r.RecordSync("env", ResultFailed, 1)
		r.RecordDiscovered("env", 1)
		r.RecordLockRetry()
		r.RecordMissing("env", 1)
	})
	assert.Nil(t, r.Registry())
	assert.NoError(t, r.WriteTextfile("/should/not/be/written"))
}

func TestRecorder_EmptyPathSkipsExport(t *testing.T) {
	t.Parallel()

	assert.NoError(t, New().WriteTextfile(""))
}
