package auditlog_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/minecraftwithtwink/Modpack-Updater/config/auditlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteLogger_EmitAndQuery(t *testing.T) {
	logger, err := auditlog.NewSQLiteLogger(":memory:")
	require.NoError(t, err)
	defer logger.Close()

	logger.Emit(auditlog.NewEvent(auditlog.EventJobStarted, "sync", "sync started",
		auditlog.WithInstance("/games/pack"),
		auditlog.WithBranch("main"),
	))

	events, err := logger.Query(auditlog.QueryFilter{Instance: "/games/pack", Limit: 10})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, auditlog.EventJobStarted, events[0].Kind)
	assert.Equal(t, "sync", events[0].JobKind)
	assert.Equal(t, "main", events[0].Branch)
	assert.Equal(t, "info", events[0].Level)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestSQLiteLogger_QueryFilterByJobKind(t *testing.T) {
	logger, err := auditlog.NewSQLiteLogger(":memory:")
	require.NoError(t, err)
	defer logger.Close()

	logger.Emit(auditlog.NewEvent(auditlog.EventJobStarted, "sync", ""))
	logger.Emit(auditlog.NewEvent(auditlog.EventJobStarted, "branch_list", ""))

	events, err := logger.Query(auditlog.QueryFilter{JobKind: "branch_list", Limit: 10})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "branch_list", events[0].JobKind)
}

func TestSQLiteLogger_QueryFilterByKind(t *testing.T) {
	logger, err := auditlog.NewSQLiteLogger(":memory:")
	require.NoError(t, err)
	defer logger.Close()

	logger.Emit(auditlog.NewEvent(auditlog.EventJobStarted, "sync", ""))
	logger.Emit(auditlog.NewEvent(auditlog.EventJobFailed, "sync", "merge conflict detected"))

	events, err := logger.Query(auditlog.QueryFilter{
		Kinds: []auditlog.EventKind{auditlog.EventJobFailed},
		Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "error", events[0].Level, "failures default to error level")
}

func TestSQLiteLogger_QueryOrderDesc(t *testing.T) {
	logger, err := auditlog.NewSQLiteLogger(":memory:")
	require.NoError(t, err)
	defer logger.Close()

	logger.Emit(auditlog.Event{Kind: auditlog.EventJobStarted, Message: "first"})
	time.Sleep(time.Millisecond)
	logger.Emit(auditlog.Event{Kind: auditlog.EventJobSucceeded, Message: "second"})

	events, err := logger.Query(auditlog.QueryFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "second", events[0].Message) // newest first
}

func TestSQLiteLogger_QueryAfter(t *testing.T) {
	logger, err := auditlog.NewSQLiteLogger(":memory:")
	require.NoError(t, err)
	defer logger.Close()

	old := time.Now().Add(-time.Hour)
	logger.Emit(auditlog.Event{Kind: auditlog.EventJobStarted, Timestamp: old, Message: "old"})
	logger.Emit(auditlog.Event{Kind: auditlog.EventJobStarted, Message: "new"})

	events, err := logger.Query(auditlog.QueryFilter{After: time.Now().Add(-time.Minute)})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "new", events[0].Message)
}

func TestSQLiteLogger_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	logger, err := auditlog.Open(dir)
	require.NoError(t, err)
	logger.Emit(auditlog.NewEvent(auditlog.EventSelfUpdate, "", "updated to v1.2.0"))
	require.NoError(t, logger.Close())

	assert.FileExists(t, filepath.Join(dir, auditlog.DBFileName))

	reopened, err := auditlog.Open(dir)
	require.NoError(t, err)
	defer reopened.Close()
	events, err := reopened.Query(auditlog.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "updated to v1.2.0", events[0].Message)
}

func TestNopLogger(t *testing.T) {
	l := auditlog.NopLogger()
	l.Emit(auditlog.Event{Kind: auditlog.EventJobStarted})
	events, err := l.Query(auditlog.QueryFilter{})
	assert.NoError(t, err)
	assert.Empty(t, events)
	assert.NoError(t, l.Close())
}
