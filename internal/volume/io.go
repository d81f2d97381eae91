package volume

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
)

// header is the gob record written ahead of the raw samples.
type header struct {
	Batch, Channels, Frames, Height, Width int
}

// Save writes the volume to a file using gob encoding.
func (v *Volume) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return v.Encode(file)
}

// Encode writes the volume to an io.Writer using gob encoding.
func (v *Volume) Encode(w io.Writer) error {
	encoder := gob.NewEncoder(w)
	h := header{v.Batch, v.Channels, v.Frames, v.Height, v.Width}
	if err := encoder.Encode(h); err != nil {
		return fmt.Errorf("failed to encode shape: %w", err)
	}
	if err := encoder.Encode(v.Data); err != nil {
		return fmt.Errorf("failed to encode samples: %w", err)
	}
	return nil
}

// Load reads a volume previously written by Save.
func Load(filename string) (*Volume, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Decode(file)
}

// Decode reads a volume from an io.Reader.
func Decode(r io.Reader) (*Volume, error) {
	decoder := gob.NewDecoder(r)

	var h header
	if err := decoder.Decode(&h); err != nil {
		return nil, fmt.Errorf("failed to read shape: %w", err)
	}
	var data []float64
	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to read samples: %w", err)
	}
	if len(data) != h.Batch*h.Channels*h.Frames*h.Height*h.Width {
		return nil, fmt.Errorf("%w: %d samples for shape %+v", ErrShapeMismatch, len(data), h)
	}
	return FromData(data, h.Batch, h.Channels, h.Frames, h.Height, h.Width), nil
}
