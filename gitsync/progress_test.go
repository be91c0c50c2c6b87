package gitsync

import (
	"testing"

	"github.com/minecraftwithtwink/Modpack-Updater/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type update struct {
	msg   string
	ratio float64
}

func recorder(got *[]update) job.Reporter {
	return job.ReporterFunc(func(msg string, ratio float64) {
		*got = append(*got, update{msg, ratio})
	})
}

func TestFetchProgress_ParsesSidebandLines(t *testing.T) {
	var got []update
	p := newFetchProgress(recorder(&got))

	// carriage returns rewrite the same line; a line may arrive in pieces
	_, err := p.Write([]byte("Enumerating objects: 10, done.\nReceiving objects:  50% (5/10)\rReceiving obj"))
	require.NoError(t, err)
	_, err = p.Write([]byte("ects: 100% (10/10), 3.00 MiB | 1 MiB/s, done.\n"))
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "Downloading objects: 5 / 10 (0 MB)", got[0].msg)
	assert.InDelta(t, 0.5, got[0].ratio, 1e-9)
	assert.Equal(t, "Downloading objects: 10 / 10 (0 MB)", got[1].msg)
	assert.InDelta(t, 1.0, got[1].ratio, 1e-9)
}

func TestFetchProgress_BytesWithUnknownTotal(t *testing.T) {
	var got []update
	p := newFetchProgress(recorder(&got))

	p.addBytes(5 * mib)
	require.Len(t, got, 1)
	assert.Equal(t, "Downloading objects: 0 / 0 (5 MB)", got[0].msg)
	assert.Zero(t, got[0].ratio)

	// throttled
	p.addBytes(6 * mib)
	assert.Len(t, got, 1)
}

func TestByteCounter_CountsAttachedResponses(t *testing.T) {
	var seen int64
	c := &byteCounter{onChange: func(total int64) { seen = total }}
	c.add(10)
	c.add(0)
	c.add(5)
	assert.Equal(t, int64(15), c.Load())
	assert.Equal(t, int64(15), seen)
}
