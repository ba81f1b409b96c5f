package safetensors

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFile_RoundTripWithMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalogue.safetensors")

	want := Tensor{
		Name:  "u00000.residual",
		Shape: []int64{2, 4},
		Data:  []float32{1.5, -0.25, 3.25, 4.0, -1.0, 0.5, 2.5, 9.0},
	}

	if err := WriteFile(path, map[string]string{"sample_rate": "16000"}, []Tensor{want}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}

	if v, _ := store.Meta("sample_rate"); v != "16000" {
		t.Errorf("sample_rate metadata = %q", v)
	}

	got, err := store.Tensor(want.Name)
	if err != nil {
		t.Fatalf("Tensor: %v", err)
	}

	assertFloatSliceNear(t, got.Data, want.Data, 0)

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %d entries", len(entries))
	}
}

func TestEncodeTensors_EmptyTensorAllowed(t *testing.T) {
	blob, err := EncodeTensors(nil, []Tensor{
		{Name: "b", Shape: []int64{2}, Data: []float32{3, 4}},
		{Name: "a", Shape: []int64{0}, Data: nil},
	})
	if err != nil {
		t.Fatalf("EncodeTensors: %v", err)
	}

	store, err := OpenStoreFromBytes(blob)
	if err != nil {
		t.Fatalf("OpenStoreFromBytes: %v", err)
	}

	names := store.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("Names() = %v, want [a b]", names)
	}

	a, err := store.Tensor("a")
	if err != nil || len(a.Data) != 0 {
		t.Fatalf("Tensor(a) = %v, %v", a, err)
	}
}

func TestEncodeTensors_ValidationErrors(t *testing.T) {
	cases := map[string][]Tensor{
		"no tensors":     nil,
		"empty name":     {{Name: " ", Shape: []int64{1}, Data: []float32{1}}},
		"reserved name":  {{Name: "__metadata__", Shape: []int64{1}, Data: []float32{1}}},
		"duplicate":      {{Name: "x", Shape: []int64{1}, Data: []float32{1}}, {Name: "x", Shape: []int64{1}, Data: []float32{2}}},
		"shape mismatch": {{Name: "x", Shape: []int64{3}, Data: []float32{1}}},
	}

	for name, tensors := range cases {
		if _, err := EncodeTensors(nil, tensors); err == nil {
			t.Errorf("%s: EncodeTensors should fail", name)
		}
	}
}
