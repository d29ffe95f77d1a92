package catalog

import (
	"bytes"
	_ "embed"
)

// defaultSource is the catalog shipped with the binary. A user catalog given
// via configuration replaces it wholesale; the two are never merged.
//
//go:embed keywords.yaml
var defaultSource []byte

// Default loads the embedded catalog. It panics on error: the embedded
// source is part of the build and failing to load it is a programming bug,
// not a runtime condition.
func Default() *Catalog {
	c, err := Load(bytes.NewReader(defaultSource))
	if err != nil {
		panic("catalog: embedded source invalid: " + err.Error())
	}
	return c
}
