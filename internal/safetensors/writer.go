package safetensors

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// EncodeTensors serializes float32 tensors, plus optional string metadata,
// into safetensors format. Tensors are laid out in name order.
func EncodeTensors(metadata map[string]string, tensors []Tensor) ([]byte, error) {
	if len(tensors) == 0 {
		return nil, errors.New("safetensors: no tensors to encode")
	}

	sorted := make([]Tensor, len(tensors))
	copy(sorted, tensors)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	header := make(map[string]any, len(sorted)+1)
	if len(metadata) > 0 {
		header[metadataKey] = metadata
	}

	total := 0
	for _, tensor := range sorted {
		total += len(tensor.Data) * 4
	}

	raw := make([]byte, 0, total)

	for _, tensor := range sorted {
		name := strings.TrimSpace(tensor.Name)
		if name == "" {
			return nil, errors.New("safetensors: tensor name must not be empty")
		}

		if name == metadataKey {
			return nil, fmt.Errorf("safetensors: tensor name %q is reserved", name)
		}

		if _, exists := header[name]; exists {
			return nil, fmt.Errorf("safetensors: duplicate tensor name %q", name)
		}

		elemCount, err := shapeElementCount(tensor.Shape)
		if err != nil {
			return nil, fmt.Errorf("safetensors: tensor %q: %w", name, err)
		}

		if int64(len(tensor.Data)) != elemCount {
			return nil, fmt.Errorf(
				"safetensors: tensor %q shape %v expects %d elements, got %d",
				name, tensor.Shape, elemCount, len(tensor.Data),
			)
		}

		start := len(raw)
		for _, v := range tensor.Data {
			raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(v))
		}

		header[name] = storeHeaderEntry{
			DType:   dtypeF32,
			Shape:   append([]int64(nil), tensor.Shape...),
			Offsets: [2]int{start, len(raw)},
		}
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("safetensors: encode header: %w", err)
	}

	out := make([]byte, 0, 8+len(headerJSON)+len(raw))
	out = binary.LittleEndian.AppendUint64(out, uint64(len(headerJSON)))
	out = append(out, headerJSON...)
	out = append(out, raw...)

	return out, nil
}

// WriteFile encodes tensors and metadata and writes them to path through a
// temporary file in the same directory.
func WriteFile(path string, metadata map[string]string, tensors []Tensor) error {
	data, err := EncodeTensors(metadata, tensors)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".safetensors-*")
	if err != nil {
		return fmt.Errorf("safetensors: write %s: %w", path, err)
	}

	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("safetensors: write %s: %w", path, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("safetensors: write %s: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("safetensors: write %s: %w", path, err)
	}

	return nil
}
