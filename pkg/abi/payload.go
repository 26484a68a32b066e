// Package abi loads contract ABI documents and renders them for splicing into
// the contract registry.
package abi

import (
	"bytes"
	"errors"
	"io/fs"
	"os"

	logging "github.com/ipfs/go-log/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

var log = logging.Logger("abi")

var renderOptions = &pretty.Options{
	// Width 0 keeps every array element on its own line, short arrays included.
	Width:    0,
	Prefix:   "",
	Indent:   "  ",
	SortKeys: false,
}

// Payload is an ABI JSON array read from Source.
type Payload struct {
	Source string
	Raw    []byte
}

// Load reads the ABI at path. The file may hold either a bare ABI array or a
// compiler artifact object (Foundry, Hardhat) with the array under "abi".
func Load(path string) (Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Payload{}, &MissingFileError{Path: path, Cause: err}
		}
		return Payload{}, err
	}
	return Parse(path, data)
}

// Parse extracts the ABI array from data. source names the input in errors.
func Parse(source string, data []byte) (Payload, error) {
	if !gjson.ValidBytes(data) {
		return Payload{}, &MalformedPayloadError{Path: source, Reason: "not valid JSON"}
	}

	doc := gjson.ParseBytes(data)
	switch {
	case doc.IsArray():
		return Payload{Source: source, Raw: []byte(doc.Raw)}, nil
	case doc.IsObject():
		field := doc.Get("abi")
		if !field.IsArray() {
			return Payload{}, &MalformedPayloadError{Path: source, Reason: `artifact object has no "abi" array`}
		}
		log.Debugw("extracted abi from artifact", "source", source)
		return Payload{Source: source, Raw: []byte(field.Raw)}, nil
	default:
		return Payload{}, &MalformedPayloadError{Path: source, Reason: "expected a JSON array or an artifact object"}
	}
}

// Render returns the payload as JSON indented by two spaces, one element per
// line, object keys in source order and no trailing newline. The output is a
// function of the JSON content alone, so re-rendering is stable.
func (p Payload) Render() string {
	out := pretty.PrettyOptions(p.Raw, renderOptions)
	return string(bytes.TrimRight(out, "\n"))
}

// Len returns the number of top-level ABI items.
func (p Payload) Len() int {
	return len(gjson.ParseBytes(p.Raw).Array())
}
