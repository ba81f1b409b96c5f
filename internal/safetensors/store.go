// Package safetensors reads and writes the safetensors container used for
// unit catalogues: an 8-byte little-endian header length, a JSON header
// describing each tensor plus an optional "__metadata__" string map, and the
// raw tensor bytes.
package safetensors

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"os"
	"sort"
	"strings"
)

const (
	dtypeF32  = "F32"
	dtypeF16  = "F16"
	dtypeBF16 = "BF16"

	metadataKey = "__metadata__"
)

// Tensor is one named tensor, always widened to float32 on read.
type Tensor struct {
	Name  string
	Shape []int64
	Data  []float32
}

// Store is a parsed container. Tensor data is decoded lazily on access.
type Store struct {
	raw      []byte
	entries  map[string]storeEntry
	names    []string
	metadata map[string]string
}

type storeEntry struct {
	DType string
	Shape []int64
	Start int
	End   int
}

type storeHeaderEntry struct {
	DType   string  `json:"dtype"`
	Shape   []int64 `json:"shape"`
	Offsets [2]int  `json:"data_offsets"`
}

func OpenStore(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("safetensors: read %s: %w", path, err)
	}

	return OpenStoreFromBytes(data)
}

func OpenStoreFromBytes(data []byte) (*Store, error) {
	headerEnd, header, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}

	s := &Store{
		raw:      data,
		entries:  make(map[string]storeEntry, len(header)),
		names:    make([]string, 0, len(header)),
		metadata: map[string]string{},
	}

	for name, rawEntry := range header {
		if name == metadataKey {
			if err := json.Unmarshal(rawEntry, &s.metadata); err != nil {
				return nil, fmt.Errorf("safetensors: decode %s: %w", metadataKey, err)
			}

			continue
		}

		entry, err := s.addEntry(name, rawEntry, headerEnd)
		if err != nil {
			return nil, err
		}

		s.entries[name] = entry
		s.names = append(s.names, name)
	}

	if len(s.entries) == 0 {
		return nil, errors.New("safetensors: no tensors found")
	}

	sort.Strings(s.names)

	return s, nil
}

func (s *Store) addEntry(name string, rawEntry json.RawMessage, headerEnd int) (storeEntry, error) {
	var entry storeHeaderEntry
	if err := json.Unmarshal(rawEntry, &entry); err != nil {
		return storeEntry{}, fmt.Errorf("safetensors: decode header entry %q: %w", name, err)
	}

	if err := validateHeaderEntry(name, entry); err != nil {
		return storeEntry{}, err
	}

	start := headerEnd + entry.Offsets[0]
	end := headerEnd + entry.Offsets[1]

	if end > len(s.raw) {
		return storeEntry{}, fmt.Errorf(
			"safetensors: tensor %q data [%d:%d] exceeds file size %d",
			name, start, end, len(s.raw),
		)
	}

	elemCount, err := shapeElementCount(entry.Shape)
	if err != nil {
		return storeEntry{}, fmt.Errorf("safetensors: tensor %q: %w", name, err)
	}

	elemBytes, err := dtypeBytes(entry.DType)
	if err != nil {
		return storeEntry{}, fmt.Errorf("safetensors: tensor %q: %w", name, err)
	}

	if need := int(elemCount) * elemBytes; end-start < need {
		return storeEntry{}, fmt.Errorf("safetensors: tensor %q needs %d bytes but data has %d", name, need, end-start)
	}

	return storeEntry{
		DType: strings.ToUpper(entry.DType),
		Shape: append([]int64(nil), entry.Shape...),
		Start: start,
		End:   end,
	}, nil
}

func (s *Store) Names() []string {
	return append([]string(nil), s.names...)
}

func (s *Store) Has(name string) bool {
	_, ok := s.entries[name]
	return ok
}

// Metadata returns a copy of the "__metadata__" map (empty when absent).
func (s *Store) Metadata() map[string]string {
	return maps.Clone(s.metadata)
}

// Meta returns one metadata value.
func (s *Store) Meta(key string) (string, bool) {
	v, ok := s.metadata[key]
	return v, ok
}

func (s *Store) Tensor(name string) (*Tensor, error) {
	entry, ok := s.entries[name]
	if !ok {
		return nil, fmt.Errorf("safetensors: tensor %q not found (available: %s)", name, summarizeNames(s.names))
	}

	data, err := decodeTensorData(s.raw[entry.Start:entry.End], entry.DType, entry.Shape)
	if err != nil {
		return nil, fmt.Errorf("safetensors: tensor %q decode: %w", name, err)
	}

	return &Tensor{
		Name:  name,
		Shape: append([]int64(nil), entry.Shape...),
		Data:  data,
	}, nil
}

// Float64s decodes a tensor and widens it to float64. rank, when positive,
// is the number of dimensions the tensor must have.
func (s *Store) Float64s(name string, rank int) ([]float64, []int64, error) {
	t, err := s.Tensor(name)
	if err != nil {
		return nil, nil, err
	}

	if rank > 0 && len(t.Shape) != rank {
		return nil, nil, fmt.Errorf("safetensors: tensor %q has rank %d (shape %v), want %d", name, len(t.Shape), t.Shape, rank)
	}

	out := make([]float64, len(t.Data))
	for i, v := range t.Data {
		out[i] = float64(v)
	}

	return out, t.Shape, nil
}

func (s *Store) Close() {
	s.raw = nil
	s.entries = nil
	s.names = nil
	s.metadata = nil
}

func decodeHeader(data []byte) (int, map[string]json.RawMessage, error) {
	if len(data) < 8 {
		return 0, nil, fmt.Errorf("safetensors: file too short (%d bytes)", len(data))
	}

	headerLen := binary.LittleEndian.Uint64(data[:8])
	if headerLen > uint64(len(data)-8) {
		return 0, nil, fmt.Errorf("safetensors: header length %d exceeds file size %d", headerLen, len(data))
	}

	headerEnd := 8 + int(headerLen)

	var header map[string]json.RawMessage
	if err := json.Unmarshal(data[8:headerEnd], &header); err != nil {
		return 0, nil, fmt.Errorf("safetensors: parse header: %w", err)
	}

	return headerEnd, header, nil
}

func validateHeaderEntry(name string, entry storeHeaderEntry) error {
	if _, err := dtypeBytes(entry.DType); err != nil {
		return fmt.Errorf("safetensors: tensor %q has unsupported dtype %q", name, entry.DType)
	}

	if entry.Offsets[0] < 0 || entry.Offsets[1] < entry.Offsets[0] {
		return fmt.Errorf("safetensors: tensor %q has invalid data offsets %v", name, entry.Offsets)
	}

	return nil
}

func shapeElementCount(shape []int64) (int64, error) {
	total := int64(1)

	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("negative dimension %d", d)
		}

		if d == 0 {
			return 0, nil
		}

		if total > math.MaxInt64/d {
			return 0, fmt.Errorf("shape %v overflows element count", shape)
		}

		total *= d
	}

	return total, nil
}

func dtypeBytes(dtype string) (int, error) {
	switch strings.ToUpper(dtype) {
	case dtypeF32:
		return 4, nil
	case dtypeF16, dtypeBF16:
		return 2, nil
	default:
		return 0, fmt.Errorf("unsupported dtype %q", dtype)
	}
}

func decodeTensorData(raw []byte, dtype string, shape []int64) ([]float32, error) {
	elemCount, err := shapeElementCount(shape)
	if err != nil {
		return nil, err
	}

	width, err := dtypeBytes(dtype)
	if err != nil {
		return nil, err
	}

	n := int(elemCount)
	if len(raw) < n*width {
		return nil, fmt.Errorf("need %d bytes for %s, got %d", n*width, dtype, len(raw))
	}

	out := make([]float32, n)

	switch dtype {
	case dtypeF32:
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		}
	case dtypeF16:
		for i := range out {
			out[i] = float16ToFloat32(binary.LittleEndian.Uint16(raw[i*2:]))
		}
	case dtypeBF16:
		for i := range out {
			out[i] = math.Float32frombits(uint32(binary.LittleEndian.Uint16(raw[i*2:])) << 16)
		}
	}

	return out, nil
}

func float16ToFloat32(h uint16) float32 {
	sign := uint32(h>>15) & 0x1
	exp := uint32(h>>10) & 0x1f
	frac := uint32(h & 0x03ff)

	var bits uint32

	switch exp {
	case 0:
		if frac == 0 {
			bits = sign << 31
			break
		}
		// Subnormal: normalize.
		e := int32(-14)
		for (frac & 0x0400) == 0 {
			frac <<= 1
			e--
		}

		frac &= 0x03ff
		bits = (sign << 31) | (uint32(e+127) << 23) | (frac << 13)
	case 0x1f:
		bits = (sign << 31) | 0x7f800000 | (frac << 13)
	default:
		bits = (sign << 31) | ((exp + 127 - 15) << 23) | (frac << 13)
	}

	return math.Float32frombits(bits)
}

func summarizeNames(names []string) string {
	if len(names) == 0 {
		return "none"
	}

	const maxNames = 8
	if len(names) <= maxNames {
		return strings.Join(names, ", ")
	}

	return strings.Join(names[:maxNames], ", ") + ", ..."
}
