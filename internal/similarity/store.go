package similarity

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/hyperjump/susume/internal/models"
)

// Artifact file format: magic (4), version (4), n (4), then per product
// id/description/category as length-prefixed strings, then n*n float64
// matrix cells in row order. Everything little-endian. Matrix, row mapping,
// and product table live in one file so they can never be mixed across builds.
const (
	artifactMagic   = 0x53555355 // "SUSU"
	artifactVersion = 1
)

// Save writes the artifact to path atomically (write temp file, then rename).
// Parent directories are created if needed.
func Save(path string, a *Artifact) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create artifact file: %w", err)
	}

	if err := writeArtifact(f, a); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close artifact file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace artifact file: %w", err)
	}
	return nil
}

func writeArtifact(f *os.File, a *Artifact) error {
	w := bufio.NewWriter(f)
	for _, v := range []uint32{artifactMagic, artifactVersion, uint32(a.Dimension())} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for _, p := range a.products {
		for _, s := range []string{p.ID, p.Description, p.Category} {
			if err := writeString(w, s); err != nil {
				return fmt.Errorf("write product %s: %w", p.ID, err)
			}
		}
	}
	for _, row := range a.matrix {
		for _, cell := range row {
			if err := binary.Write(w, binary.LittleEndian, math.Float64bits(cell)); err != nil {
				return fmt.Errorf("write matrix: %w", err)
			}
		}
	}
	return w.Flush()
}

// Load reads an artifact from path. A missing file is reported with the
// underlying os.IsNotExist error so callers can treat it as "not
// preprocessed yet" rather than fatal.
func Load(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var magic, version, n uint32
	for _, v := range []*uint32{&magic, &version, &n} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("read artifact header: %w", err)
		}
	}
	if magic != artifactMagic {
		return nil, fmt.Errorf("not a similarity artifact: %s", path)
	}
	if version != artifactVersion {
		return nil, fmt.Errorf("unsupported artifact version %d", version)
	}

	products := make([]models.Product, n)
	for i := range products {
		for _, dst := range []*string{&products[i].ID, &products[i].Description, &products[i].Category} {
			s, err := readString(r)
			if err != nil {
				return nil, fmt.Errorf("read product %d: %w", i, err)
			}
			*dst = s
		}
	}

	matrix := make([][]float64, n)
	for i := range matrix {
		row := make([]float64, n)
		for j := range row {
			var bits uint64
			if err := binary.Read(r, binary.LittleEndian, &bits); err != nil {
				return nil, fmt.Errorf("read matrix row %d: %w", i, err)
			}
			row[j] = math.Float64frombits(bits)
		}
		matrix[i] = row
	}

	return NewArtifact(matrix, products)
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
