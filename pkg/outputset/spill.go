package outputset

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/matzehuels/juliaset/pkg/errors"
	"github.com/matzehuels/juliaset/pkg/observability"
	"github.com/matzehuels/juliaset/pkg/point"
)

// spill writes pts to a new file in the spill directory. A write failure is
// logged and leaves the points resident.
func (o *OutputSet) spill(pts []complex128) {
	o.io.Lock()
	defer o.io.Unlock()

	if o.State() == StateDeleted {
		return
	}

	start := time.Now()
	path, err := writeSpill(o.spillDir, o.id, pts)
	observability.Spill().OnSpill(context.Background(), o.id, len(pts), time.Since(start), err)
	if err != nil {
		o.logger.Warn("spill failed, keeping points in memory", "err", err)
		return
	}

	o.mu.Lock()
	deleted := o.state == StateDeleted
	if !deleted {
		o.spillPath = path
	}
	o.mu.Unlock()

	if deleted {
		_ = os.Remove(path)
		return
	}
	o.logger.Debug("spilled", "points", len(pts), "path", path)
}

func writeSpill(dir string, id int64, pts []complex128) (string, error) {
	f, err := os.CreateTemp(dir, fmt.Sprintf("outputset-%d-*.dat", id))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "create spill file")
	}
	w := bufio.NewWriterSize(f, 1<<16)
	if err := point.Write(w, pts); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", errors.Wrap(errors.ErrCodeIO, err, "write spill file")
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", errors.Wrap(errors.ErrCodeIO, err, "flush spill file")
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", errors.Wrap(errors.ErrCodeIO, err, "close spill file")
	}
	return f.Name(), nil
}

// startReloadLocked starts reading the spill file back unless a reload is
// already running, and returns a channel closed when it ends. o.mu must be
// held.
func (o *OutputSet) startReloadLocked() <-chan struct{} {
	if o.reloading != nil {
		return o.reloading
	}
	ch := make(chan struct{})
	o.reloading = ch
	path := o.spillPath

	go func() {
		defer close(ch)

		o.io.Lock()
		start := time.Now()
		pts, err := readSpill(path)
		o.io.Unlock()
		observability.Spill().OnReload(context.Background(), o.id, len(pts), time.Since(start), err)

		o.mu.Lock()
		o.reloading = nil
		ready := false
		if err != nil {
			// State is left unchanged; a later Points call retries.
			o.logger.Warn("reload failed", "path", path, "err", err)
		} else if o.state == StateSpilled {
			o.points.Store(&pts)
			o.state = StateResident
			ready = true
		}
		o.mu.Unlock()

		if ready && o.sink != nil {
			o.sink.OutputSetReady(o)
		}
	}()
	return ch
}

func readSpill(path string) ([]complex128, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "open spill file")
	}
	defer f.Close()
	return point.Read(bufio.NewReaderSize(f, 1<<16))
}
