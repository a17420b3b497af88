package dataset

import (
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Document file names, relative to a data directory or base URL.
const (
	DistancesFile = "distances.json"
	MetaFile      = "stations-meta.json"
	FaresFile     = "fares.json"
)

var validate = validator.New()

// Decode unmarshals one document. The format is chosen from the file
// extension: .yaml/.yml use YAML, anything else JSON.
func Decode(name string, data []byte, out any) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s: %w", name, err)
		}
	default:
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s: %w", name, err)
		}
	}
	return nil
}

// Parse decodes and validates the three raw documents into a Dataset.
func Parse(distances, meta, fares []byte, names ...string) (*Dataset, error) {
	n := [3]string{DistancesFile, MetaFile, FaresFile}
	copy(n[:], names)

	ds := &Dataset{}
	if err := Decode(n[0], distances, &ds.Distances); err != nil {
		return nil, err
	}
	if err := Decode(n[1], meta, &ds.Meta); err != nil {
		return nil, err
	}
	if err := Decode(n[2], fares, &ds.Fares); err != nil {
		return nil, err
	}
	if err := Validate(ds); err != nil {
		return nil, err
	}
	ds.Version = ComputeVersion(ds)
	return ds, nil
}

// LoadDir reads the three documents from dir. For each document the .json
// file is preferred; a .yaml sibling with the same base name is accepted.
func LoadDir(dir string) (*Dataset, error) {
	var raw [3][]byte
	var names [3]string
	for i, name := range []string{DistancesFile, MetaFile, FaresFile} {
		data, used, err := readEither(dir, name)
		if err != nil {
			return nil, err
		}
		raw[i], names[i] = data, used
	}
	ds, err := Parse(raw[0], raw[1], raw[2], names[:]...)
	if err != nil {
		return nil, err
	}
	ds.Source = "dir"
	return ds, nil
}

func readEither(dir, name string) ([]byte, string, error) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	for _, candidate := range []string{name, base + ".yaml", base + ".yml"} {
		data, err := os.ReadFile(filepath.Join(dir, candidate))
		if err == nil {
			return data, candidate, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("read %s: %w", candidate, err)
		}
	}
	return nil, "", fmt.Errorf("read %s: %w", name, fs.ErrNotExist)
}

// Validate checks struct-level constraints on all three documents plus the
// ordering of the distance zones.
func Validate(ds *Dataset) error {
	if err := validate.Struct(ds.Distances); err != nil {
		return fmt.Errorf("invalid distance document: %w", err)
	}
	if err := validate.Struct(ds.Meta); err != nil {
		return fmt.Errorf("invalid station metadata: %w", err)
	}
	if err := validate.Struct(ds.Fares); err != nil {
		return fmt.Errorf("invalid fare document: %w", err)
	}
	zones := ds.Fares.DistanceZones
	for i := 1; i < len(zones); i++ {
		prev, cur := zones[i-1].MaxKm, zones[i].MaxKm
		if prev == nil {
			return fmt.Errorf("invalid fare document: zone %d follows the open-ended zone %d", zones[i].Zone, zones[i-1].Zone)
		}
		if cur != nil && *cur < *prev {
			return fmt.Errorf("invalid fare document: zone thresholds not ascending at zone %d", zones[i].Zone)
		}
	}
	return nil
}

// ComputeVersion hashes the documents into a short version string. Map
// iteration order does not affect the result.
func ComputeVersion(ds *Dataset) string {
	h := md5.New()
	enc := json.NewEncoder(h)
	enc.Encode(ds.Distances)
	enc.Encode(ds.Meta)
	enc.Encode(ds.Fares)
	return fmt.Sprintf("%x", h.Sum(nil))[:8]
}

// StationSet returns the distance document's station names as a set.
func (ds *Dataset) StationSet() map[string]bool {
	set := make(map[string]bool, len(ds.Distances.Stations))
	for _, s := range ds.Distances.Stations {
		set[s] = true
	}
	return set
}
