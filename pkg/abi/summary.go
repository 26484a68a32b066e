package abi

import (
	"bytes"
	"fmt"
	"sort"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/tidwall/gjson"
)

// Summary counts the members of an ABI. It is informational only; payloads
// that go-ethereum cannot decode are still spliced as-is.
type Summary struct {
	Functions   int      `json:"functions" yaml:"functions"`
	Events      int      `json:"events" yaml:"events"`
	Errors      int      `json:"errors" yaml:"errors"`
	Constructor bool     `json:"constructor" yaml:"constructor"`
	Methods     []string `json:"methods,omitempty" yaml:"methods,omitempty"`
}

func (s Summary) String() string {
	return fmt.Sprintf("%d functions, %d events, %d errors", s.Functions, s.Events, s.Errors)
}

// Summarize decodes the payload with go-ethereum's ABI parser.
func (p Payload) Summarize() (Summary, error) {
	parsed, err := gethabi.JSON(bytes.NewReader(p.Raw))
	if err != nil {
		return Summary{}, fmt.Errorf("decoding abi %s: %w", p.Source, err)
	}

	methods := make([]string, 0, len(parsed.Methods))
	for _, m := range parsed.Methods {
		methods = append(methods, m.Sig)
	}
	sort.Strings(methods)

	return Summary{
		Functions:   len(parsed.Methods),
		Events:      len(parsed.Events),
		Errors:      len(parsed.Errors),
		// The parsed constructor is a zero Method when absent and carries no
		// Sig when present, so look at the raw items instead.
		Constructor: gjson.GetBytes(p.Raw, `#(type=="constructor")`).Exists(),
		Methods:     methods,
	}, nil
}
