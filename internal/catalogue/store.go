package catalogue

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/example/go-relp-tts/internal/safetensors"
)

// FormatV1 identifies the catalogue layout inside a safetensors container.
const FormatV1 = "relptts-catalogue/v1"

const (
	metaFormat     = "format"
	metaSampleRate = "sample_rate"
	metaIndex      = "index"
)

type indexEntry struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Duration float64 `json:"duration"`
	Context  Context `json:"context"`
	Tensor   string  `json:"tensor"`
}

// Load reads a catalogue file written by Write. opts.SampleRate, when set,
// must agree with the file.
func Load(path string, opts Options) (*Catalogue, error) {
	store, err := safetensors.OpenStore(path)
	if err != nil {
		return nil, fmt.Errorf("catalogue: %w", err)
	}
	defer store.Close()

	c, err := fromStore(store, opts)
	if err != nil {
		return nil, fmt.Errorf("catalogue %s: %w", path, err)
	}

	return c, nil
}

// Decode parses an in-memory catalogue file.
func Decode(data []byte, opts Options) (*Catalogue, error) {
	store, err := safetensors.OpenStoreFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("catalogue: %w", err)
	}
	defer store.Close()

	return fromStore(store, opts)
}

func fromStore(store *safetensors.Store, opts Options) (*Catalogue, error) {
	if f, _ := store.Meta(metaFormat); f != FormatV1 {
		return nil, fmt.Errorf("unsupported catalogue format %q (want %q)", f, FormatV1)
	}

	if raw, ok := store.Meta(metaSampleRate); ok {
		sr, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid sample_rate %q: %w", raw, err)
		}

		if opts.SampleRate != 0 && opts.SampleRate != sr {
			return nil, fmt.Errorf("sample rate %d does not match configured %d", sr, opts.SampleRate)
		}

		opts.SampleRate = sr
	}

	rawIndex, ok := store.Meta(metaIndex)
	if !ok {
		return nil, fmt.Errorf("missing %q metadata", metaIndex)
	}

	var index []indexEntry
	if err := json.Unmarshal([]byte(rawIndex), &index); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}

	units := make([]*CandidateUnit, 0, len(index))

	for _, e := range index {
		u, err := readUnit(store, e)
		if err != nil {
			return nil, fmt.Errorf("unit %s (%s): %w", e.ID, e.Name, err)
		}

		units = append(units, u)
	}

	return New(units, opts)
}

func readUnit(store *safetensors.Store, e indexEntry) (*CandidateUnit, error) {
	u := &CandidateUnit{
		ID:       e.ID,
		Name:     e.Name,
		Duration: e.Duration,
		Context:  e.Context,
	}

	var err error

	if u.LeftJoin, _, err = store.Float64s(e.Tensor+".left_join", 1); err != nil {
		return nil, err
	}

	if u.RightJoin, _, err = store.Float64s(e.Tensor+".right_join", 1); err != nil {
		return nil, err
	}

	if u.Residual, _, err = store.Float64s(e.Tensor+".residual", 1); err != nil {
		return nil, err
	}

	if u.LPC.Times, _, err = store.Float64s(e.Tensor+".lpc_times", 1); err != nil {
		return nil, err
	}

	coefs, shape, err := store.Float64s(e.Tensor+".lpc_coefs", 2)
	if err != nil {
		return nil, err
	}

	frames, order := int(shape[0]), int(shape[1])
	if frames != len(u.LPC.Times) {
		return nil, fmt.Errorf("lpc track has %d time marks but %d coefficient frames", len(u.LPC.Times), frames)
	}

	u.LPC.Coefs = make([][]float64, frames)
	for i := range frames {
		u.LPC.Coefs[i] = coefs[i*order : (i+1)*order : (i+1)*order]
	}

	return u, nil
}

// Encode serializes the catalogue as a safetensors container. Tensor data is
// stored as F32.
func (c *Catalogue) Encode() ([]byte, error) {
	meta, tensors, err := c.container()
	if err != nil {
		return nil, err
	}

	return safetensors.EncodeTensors(meta, tensors)
}

// Write stores the catalogue at path.
func (c *Catalogue) Write(path string) error {
	meta, tensors, err := c.container()
	if err != nil {
		return err
	}

	return safetensors.WriteFile(path, meta, tensors)
}

func (c *Catalogue) container() (map[string]string, []safetensors.Tensor, error) {
	units := c.Units()
	index := make([]indexEntry, len(units))
	tensors := make([]safetensors.Tensor, 0, 5*len(units))

	for i, u := range units {
		prefix := fmt.Sprintf("u%05d", i)
		index[i] = indexEntry{ID: u.ID, Name: u.Name, Duration: u.Duration, Context: u.Context, Tensor: prefix}

		order := u.LPC.Order()
		coefs := make([]float64, 0, len(u.LPC.Coefs)*order)

		for f, frame := range u.LPC.Coefs {
			if len(frame) != order {
				return nil, nil, fmt.Errorf("catalogue: unit %s frame %d has order %d, want %d", u.ID, f, len(frame), order)
			}

			coefs = append(coefs, frame...)
		}

		tensors = append(tensors,
			vectorTensor(prefix+".left_join", u.LeftJoin),
			vectorTensor(prefix+".right_join", u.RightJoin),
			vectorTensor(prefix+".residual", u.Residual),
			vectorTensor(prefix+".lpc_times", u.LPC.Times),
			safetensors.Tensor{
				Name:  prefix + ".lpc_coefs",
				Shape: []int64{int64(len(u.LPC.Coefs)), int64(order)},
				Data:  narrow(coefs),
			},
		)
	}

	indexJSON, err := json.Marshal(index)
	if err != nil {
		return nil, nil, fmt.Errorf("catalogue: encode index: %w", err)
	}

	meta := map[string]string{
		metaFormat:     FormatV1,
		metaSampleRate: strconv.Itoa(c.sampleRate),
		metaIndex:      string(indexJSON),
	}

	return meta, tensors, nil
}

func vectorTensor(name string, v []float64) safetensors.Tensor {
	return safetensors.Tensor{Name: name, Shape: []int64{int64(len(v))}, Data: narrow(v)}
}

func narrow(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}

	return out
}
