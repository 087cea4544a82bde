package placeholder

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadSample reads sample values from a YAML file shaped like Context.
// Fields the file leaves out keep their built-in values; keys outside the
// recognised paths are rejected.
func LoadSample(path string) (Context, error) {
	f, err := os.Open(path)
	if err != nil {
		return Context{}, fmt.Errorf("open sample data: %w", err)
	}
	defer f.Close()
	return DecodeSample(f)
}

// DecodeSample is LoadSample over a reader.
func DecodeSample(r io.Reader) (Context, error) {
	ctx := Sample()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&ctx); err != nil && !errors.Is(err, io.EOF) {
		return Context{}, fmt.Errorf("decode sample data: %w", err)
	}
	return ctx, nil
}
