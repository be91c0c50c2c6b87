package gitsync

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/minecraftwithtwink/Modpack-Updater/job"
	"github.com/minecraftwithtwink/Modpack-Updater/log"
)

const mib = 1024 * 1024

// objectsLine matches server progress such as
// "Counting objects:  45% (450/1000)" or "Receiving objects: 3% (3/100), 1.2 MiB".
var objectsLine = regexp.MustCompile(`objects:\s+\d+%\s+\((\d+)/(\d+)\)`)

// fetchProgress turns sideband progress text and transport byte counts into
// job updates. Writes come from the fetch goroutine; byte counts may come
// from the transport, so state is guarded.
type fetchProgress struct {
	r job.Reporter

	mu       sync.Mutex
	partial  []byte
	received int
	total    int
	bytes    int64
	lastSent time.Time
	every    *log.Every
}

func newFetchProgress(r job.Reporter) *fetchProgress {
	return &fetchProgress{r: r, every: log.NewEvery(2 * time.Second)}
}

// Write consumes sideband progress. Lines end in either \r or \n.
func (p *fetchProgress) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.partial = append(p.partial, b...)
	for {
		i := bytes.IndexAny(p.partial, "\r\n")
		if i < 0 {
			break
		}
		line := p.partial[:i]
		p.partial = p.partial[i+1:]
		p.parseLine(line)
	}
	return len(b), nil
}

func (p *fetchProgress) parseLine(line []byte) {
	m := objectsLine.FindSubmatch(line)
	if m == nil {
		return
	}
	received, err1 := strconv.Atoi(string(m[1]))
	total, err2 := strconv.Atoi(string(m[2]))
	if err1 != nil || err2 != nil {
		return
	}
	p.received, p.total = received, total
	p.emit(true)
}

// addBytes records the cumulative transfer size.
func (p *fetchProgress) addBytes(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bytes = total
	p.emit(false)
}

// emit sends an update. Byte-only changes are throttled so a fast transfer
// does not flood the channel.
func (p *fetchProgress) emit(force bool) {
	now := time.Now()
	if !force && now.Sub(p.lastSent) < 50*time.Millisecond {
		return
	}
	p.lastSent = now

	msg, ratio := p.snapshot()
	if p.every.ShouldLog() {
		log.InfoLog.Print(msg)
	}
	p.r.Update(msg, ratio)
}

func (p *fetchProgress) snapshot() (string, float64) {
	ratio := 0.0
	if p.total > 0 {
		ratio = float64(p.received) / float64(p.total)
	}
	return fmt.Sprintf("Downloading objects: %d / %d (%d MB)", p.received, p.total, p.bytes/mib), ratio
}
