package shop

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
)

//go:embed data/fixture.json
var defaultFixture []byte

// Fixture is the seed document the store is built from.
type Fixture struct {
	Categories []Category `json:"categories"`
	Products   []Product  `json:"products"`
	Cart       []CartLine `json:"cart,omitempty"`
}

func LoadFixture(r io.Reader) (Fixture, error) {
	var f Fixture
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return Fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	return f, nil
}

func LoadFixtureFile(path string) (Fixture, error) {
	fh, err := os.Open(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("open fixture: %w", err)
	}
	defer fh.Close()

	f, err := LoadFixture(fh)
	if err != nil {
		return Fixture{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// DefaultFixture returns the demo catalog compiled into the binary.
func DefaultFixture() (Fixture, error) {
	return LoadFixture(bytes.NewReader(defaultFixture))
}
