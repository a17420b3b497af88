package dataset

import (
	"embed"
	"fmt"
)

// sampleFS holds a small bundled network used in test mode and by tests.
//
//go:embed sample/*.json
var sampleFS embed.FS

// Sample returns the embedded sample dataset.
func Sample() (*Dataset, error) {
	var raw [3][]byte
	for i, name := range []string{DistancesFile, MetaFile, FaresFile} {
		data, err := sampleFS.ReadFile("sample/" + name)
		if err != nil {
			return nil, fmt.Errorf("read sample %s: %w", name, err)
		}
		raw[i] = data
	}
	ds, err := Parse(raw[0], raw[1], raw[2])
	if err != nil {
		return nil, err
	}
	ds.Source = "sample"
	return ds, nil
}
