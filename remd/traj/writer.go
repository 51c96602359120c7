// Package traj persists per-replica trajectories as zstd-compressed
// JSONL, one file per temperature rank.
package traj

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/remd-sim/remd-sim/remd"
)

// Writer implements remd.FrameSink. Each rank gets its own
// traj-rank<N>.jsonl.zst file under the base directory, opened lazily
// on the first frame for that rank.
type Writer struct {
	baseDir string

	mu    sync.Mutex
	files map[int]*rankFile
}

type rankFile struct {
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// NewWriter creates the base directory and returns a Writer.
func NewWriter(baseDir string) (*Writer, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("empty trajectory dir")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}
	return &Writer{baseDir: baseDir, files: make(map[int]*rankFile)}, nil
}

// WriteFrame appends one frame to the rank's trajectory file.
func (w *Writer) WriteFrame(frame remd.Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rf, ok := w.files[frame.Rank]
	if !ok {
		var err error
		rf, err = w.openLocked(frame.Rank)
		if err != nil {
			return err
		}
	}
	b, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	if _, err := rf.w.Write(b); err != nil {
		return err
	}
	if err := rf.w.WriteByte('\n'); err != nil {
		return err
	}
	return rf.w.Flush()
}

func (w *Writer) openLocked(rank int) (*rankFile, error) {
	p := filepath.Join(w.baseDir, fmt.Sprintf("traj-rank%d.jsonl.zst", rank))
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	rf := &rankFile{f: f, enc: enc, w: bufio.NewWriterSize(enc, 128*1024)}
	w.files[rank] = rf
	return rf, nil
}

// Close flushes and closes every rank file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var first error
	for rank, rf := range w.files {
		_ = rf.w.Flush()
		if err := rf.enc.Close(); err != nil && first == nil {
			first = err
		}
		if err := rf.f.Close(); err != nil && first == nil {
			first = err
		}
		delete(w.files, rank)
	}
	return first
}

// ReadAll decodes every frame from one rank's trajectory file.
// Intended for tests and post-run analysis.
func ReadAll(path string) ([]remd.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var frames []remd.Frame
	jd := json.NewDecoder(dec)
	for jd.More() {
		var fr remd.Frame
		if err := jd.Decode(&fr); err != nil {
			return nil, err
		}
		frames = append(frames, fr)
	}
	return frames, nil
}
