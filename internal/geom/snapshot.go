package geom

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// SnapshotExt is the file extension of compressed dataset snapshots.
const SnapshotExt = ".lsz"

var snapshotMagic = [4]byte{'L', 'S', 'Z', '1'}

// ErrBadSnapshot is returned for files that are not snapshots or are cut
// short.
var ErrBadSnapshot = errors.New("not a latentmap snapshot")

// SaveSnapshot writes d zstd-compressed. Row order, metadata and NaN
// coordinates round-trip exactly.
func SaveSnapshot(path string, d *Dataset) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	bufWriter := bufio.NewWriterSize(file, 1024*1024)
	enc, err := zstd.NewWriter(bufWriter,
		zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if err := writeDataset(enc, d); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to close encoder: %w", err)
	}
	if err := bufWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush buffer: %w", err)
	}
	return file.Close()
}

func writeDataset(w io.Writer, d *Dataset) error {
	bw := &binWriter{w: w}
	bw.put(snapshotMagic)
	bw.put(uint32(d.Len()))
	for i, p := range d.Points {
		bw.put(p[0])
		bw.put(p[1])
		bw.put(int32(d.Cluster[i]))
		var flags uint8
		if d.Deleted[i] {
			flags = 1
		}
		bw.put(flags)
		bw.put(d.Activation[i])
		label := []byte(d.Label[i])
		bw.put(uint32(len(label)))
		bw.put(label)
	}
	if bw.err != nil {
		return fmt.Errorf("failed to write snapshot: %w", bw.err)
	}
	return nil
}

// LoadSnapshot reads a file written by SaveSnapshot.
func LoadSnapshot(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	dec, err := zstd.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()
	return readDataset(dec)
}

// maxLabel bounds a single label so a corrupt length cannot exhaust memory.
const maxLabel = 1 << 20

func readDataset(r io.Reader) (*Dataset, error) {
	var magic [4]byte
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil || magic != snapshotMagic {
		return nil, ErrBadSnapshot
	}
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	d := &Dataset{}
	for i := uint32(0); i < n; i++ {
		var rec struct {
			X, Y       float64
			Cluster    int32
			Flags      uint8
			Activation float64
			LabelLen   uint32
		}
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrBadSnapshot, i, err)
		}
		if rec.LabelLen > maxLabel {
			return nil, fmt.Errorf("%w: row %d: label of %d bytes", ErrBadSnapshot, i, rec.LabelLen)
		}
		label := make([]byte, rec.LabelLen)
		if _, err := io.ReadFull(r, label); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrBadSnapshot, i, err)
		}
		d.Add(Row{
			X:          rec.X,
			Y:          rec.Y,
			Cluster:    int(rec.Cluster),
			Deleted:    rec.Flags&1 != 0,
			Label:      string(label),
			Activation: rec.Activation,
		})
	}
	return d, nil
}

// binWriter keeps the first write error so callers check once.
type binWriter struct {
	w   io.Writer
	err error
}

func (b *binWriter) put(v any) {
	if b.err != nil {
		return
	}
	b.err = binary.Write(b.w, binary.LittleEndian, v)
}
