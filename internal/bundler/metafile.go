package bundler

import (
	"encoding/json"
	"fmt"
)

// metafile mirrors the esbuild metafile JSON.
type metafile struct {
	Inputs  map[string]metafileInput  `json:"inputs"`
	Outputs map[string]metafileOutput `json:"outputs"`
}

type metafileInput struct {
	Bytes   int              `json:"bytes"`
	Imports []metafileImport `json:"imports"`
	Format  string           `json:"format,omitempty"`
}

type metafileImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
	Original string `json:"original,omitempty"`
}

type metafileOutput struct {
	Bytes      int                     `json:"bytes"`
	Inputs     map[string]inputContrib `json:"inputs"`
	Imports    []metafileImport        `json:"imports"`
	Exports    []string                `json:"exports"`
	EntryPoint string                  `json:"entryPoint,omitempty"`
}

type inputContrib struct {
	BytesInOutput int `json:"bytesInOutput"`
}

func parseMetafile(raw string) (*metafile, error) {
	var m metafile
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("failed to parse esbuild metafile: %w", err)
	}
	return &m, nil
}
