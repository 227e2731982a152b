package store

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/standardbeagle/pagetour/internal/annotation"
)

// exportDoc is the YAML export layout.
type exportDoc struct {
	Version     int                     `yaml:"version"`
	Annotations []annotation.Annotation `yaml:"annotations"`
}

// Export writes every annotation in s to w as YAML.
func Export(ctx context.Context, s Store, w io.Writer) error {
	list, err := s.List(ctx)
	if err != nil {
		return err
	}
	return Encode(w, list)
}

// Encode writes list to w in the export layout.
func Encode(w io.Writer, list []annotation.Annotation) error {
	if list == nil {
		list = []annotation.Annotation{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(exportDoc{Version: SchemaVersion, Annotations: list}); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return enc.Close()
}

// Import reads a YAML export from r and saves each annotation into s,
// returning the number saved. Import stops at the first failed save.
func Import(ctx context.Context, s Store, r io.Reader) (int, error) {
	var doc exportDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to decode import: %w", err)
	}
	if doc.Version != SchemaVersion {
		return 0, fmt.Errorf("import has schema version %d, want %d", doc.Version, SchemaVersion)
	}
	for i, a := range doc.Annotations {
		if _, err := s.Save(ctx, a); err != nil {
			return i, fmt.Errorf("annotation %d (%s): %w", i, a.ID, err)
		}
	}
	return len(doc.Annotations), nil
}
