package patcher

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const contractsTS = `import type { Address } from "viem";

// Addresses and ABIs below are regenerated; keep hand edits outside them.
export const CONTRACTS = {
  AgentNFA: {
    address: "0x0000000000000000000000000000000000000001" as Address,
    abi: [
      {
        "type": "function",
        "name": "ownerOf",
        "inputs": [{ "name": "tokenId", "type": "uint256" }],
        "outputs": [{ "name": "", "type": "address" }]
      }
    ] as const,
  },
  ListingManager: {
    address: "0x0000000000000000000000000000000000000002" as Address,
    abi: [] as const,
  },
};

export type ContractName = keyof typeof CONTRACTS;
`

const policyGuardABI = `[
  {
    "type": "function",
    "name": "check",
    "inputs": [],
    "outputs": [
      {
        "name": "",
        "type": "bool"
      }
    ]
  }
]`

func TestApply_EndToEnd(t *testing.T) {
	doc := `const c = { Foo: { address: "0xAAA", abi: [1,2,3] } };`

	out, results, err := New().Apply(doc, []Request{
		{Name: "Foo", Address: "0xBBB", Payload: "[4,5,6,7]"},
	})
	require.NoError(t, err)
	require.Equal(t, `const c = { Foo: { address: "0xBBB", abi: [4,5,6,7] } };`, out)

	require.Len(t, results, 1)
	res := results[0]
	require.Equal(t, ActionUpdated, res.Action)
	require.Equal(t, "0xAAA", res.PreviousAddress)
	require.Equal(t, "[1,2,3]", res.PreviousPayload)
	require.Equal(t, "0xBBB", out[res.Address.Start:res.Address.End])
	require.Equal(t, "[4,5,6,7]", out[res.Payload.Start:res.Payload.End])
	require.Equal(t, `Foo: { address: "0xBBB", abi: [4,5,6,7] }`, out[res.Block.Start:res.Block.End])
}

func TestApply_Idempotent(t *testing.T) {
	p := New(WithFallbackAnchor("ListingManager"))
	requests := []Request{
		{Name: "AgentNFA", Address: "0xb65ca34b1526c926c75129ef934c3ba9fe6f29f6", Payload: `[
  {
    "type": "event",
    "name": "Transfer",
    "inputs": []
  }
]`},
		{Name: "ListingManager", Address: "0x71597c159007E9FF35bcF47822913cA78B182156", Payload: "[]"},
		{Name: "PolicyGuard", Address: "0xf087B0e4e829109603533FA3c81BAe101e46934b", Payload: policyGuardABI},
	}

	once, results, err := p.Apply(contractsTS, requests)
	require.NoError(t, err)
	require.Equal(t, ActionInserted, results[2].Action)

	twice, results, err := p.Apply(once, requests)
	require.NoError(t, err)
	require.Equal(t, once, twice)

	// The second run finds the inserted entry and takes the update path.
	for _, res := range results {
		require.Equal(t, ActionUpdated, res.Action, res.Name)
	}
}

func TestApply_Locality(t *testing.T) {
	newABI := `[
  {
    "type": "function",
    "name": "list"
  }
]`
	out, results, err := New().Apply(contractsTS, []Request{
		{Name: "ListingManager", Address: "0xabc", Payload: newABI},
	})
	require.NoError(t, err)
	res := results[0]

	oldAddr := strings.Index(contractsTS, "0x0000000000000000000000000000000000000002")
	oldPayload := strings.Index(contractsTS, "[] as const")

	// Everything before the address literal is untouched.
	require.Equal(t, contractsTS[:oldAddr], out[:res.Address.Start])
	// Between the two replaced spans.
	require.Equal(t,
		contractsTS[oldAddr+len("0x0000000000000000000000000000000000000002"):oldPayload],
		out[res.Address.End:res.Payload.Start])
	// Everything after the payload block.
	require.Equal(t, contractsTS[oldPayload+len("[]"):], out[res.Payload.End:])
	require.Equal(t, newABI, out[res.Payload.Start:res.Payload.End])
}

func TestApply_RelocatesAfterAddressEdit(t *testing.T) {
	// The new address is much longer than the old one, so any payload offset
	// computed before the address edit would point into the wrong bytes.
	doc := `X: { address: "0x1", abi: [0] }, Y: { address: "0x2", abi: [9] }`
	long := "0x" + strings.Repeat("a", 40)

	out, _, err := New().Apply(doc, []Request{
		{Name: "X", Address: long, Payload: "[1,2]"},
		{Name: "Y", Address: "0x3", Payload: `[{"k":[]}]`},
	})
	require.NoError(t, err)
	require.Equal(t, `X: { address: "`+long+`", abi: [1,2] }, Y: { address: "0x3", abi: [{"k":[]}] }`, out)
}

func TestApply_InsertWhenAbsent(t *testing.T) {
	p := New(WithFallbackAnchor("ListingManager"))

	out, results, err := p.Apply(contractsTS, []Request{
		{Name: "PolicyGuard", Address: "0xf087B0e4e829109603533FA3c81BAe101e46934b", Payload: "[]"},
	})
	require.NoError(t, err)

	block := `,
  PolicyGuard: {
    address: "0xf087B0e4e829109603533FA3c81BAe101e46934b" as Address,
    abi: [] as const,
  }`
	listingEnd := strings.Index(contractsTS, "abi: [] as const,\n  }") + len("abi: [] as const,\n  }")
	want := contractsTS[:listingEnd] + block + contractsTS[listingEnd:]
	require.Equal(t, want, out)

	res := results[0]
	require.Equal(t, ActionInserted, res.Action)
	require.Empty(t, res.PreviousAddress)
	require.Empty(t, res.PreviousPayload)
	require.Equal(t, Span{Start: listingEnd, End: listingEnd + len(block)}, res.Block)
	require.Equal(t, "0xf087B0e4e829109603533FA3c81BAe101e46934b", out[res.Address.Start:res.Address.End])
	require.Equal(t, "[]", out[res.Payload.Start:res.Payload.End])
	require.Contains(t, out, "  },\n  PolicyGuard: {")
	require.True(t, strings.HasSuffix(out, "  },\n};\n\nexport type ContractName = keyof typeof CONTRACTS;\n"))
}

func TestApply_InsertAfterEntryWithNestedObjects(t *testing.T) {
	// The fallback entry's payload holds object literals; the first '}' inside
	// it must not be taken as the end of the entry.
	doc := `{ A: { address: "0x1", abi: [{"inputs": [{}]}, {}] }, Z: 1 }`
	tmpl, err := ParseEntryTemplate(`, {{.Name}}: { address: "{{.Address}}", abi: {{.ABI}} }`)
	require.NoError(t, err)

	out, _, err := New(WithFallbackAnchor("A"), WithEntryTemplate(tmpl)).Apply(doc, []Request{
		{Name: "B", Address: "0x2", Payload: "[true]"},
	})
	require.NoError(t, err)
	require.Equal(t, `{ A: { address: "0x1", abi: [{"inputs": [{}]}, {}] }, B: { address: "0x2", abi: [true] }, Z: 1 }`, out)
}

func TestApply_SameMissingNameTwice(t *testing.T) {
	tmpl, err := ParseEntryTemplate(`, {{.Name}}: { address: "{{.Address}}", abi: {{.ABI}} }`)
	require.NoError(t, err)
	p := New(WithFallbackAnchor("A"), WithEntryTemplate(tmpl))

	out, results, err := p.Apply(`{ A: { address: "0x1", abi: [] } }`, []Request{
		{Name: "B", Address: "0x2", Payload: "[1]"},
		{Name: "B", Address: "0x3", Payload: "[2]"},
	})
	require.NoError(t, err)
	require.Equal(t, `{ A: { address: "0x1", abi: [] }, B: { address: "0x3", abi: [2] } }`, out)
	require.Equal(t, ActionInserted, results[0].Action)
	require.Equal(t, ActionUpdated, results[1].Action)
	require.Equal(t, "0x2", results[1].PreviousAddress)
}

func TestApply_MalformedEntries(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		entry  string
		anchor string
	}{
		{
			name: "missing address field does not borrow the next entry's",
			doc: `{
  Foo: { abi: [1] },
  Bar: { address: "0x2", abi: [2] },
}`,
			entry:  "Foo",
			anchor: "address:",
		},
		{
			name: "missing abi field does not borrow the next entry's",
			doc: `{
  Foo: { address: "0x1" },
  Bar: { address: "0x2", abi: [2] },
}`,
			entry:  "Foo",
			anchor: "abi:",
		},
		{
			name:   "address is not a string literal",
			doc:    `{ Foo: { address: ADDR, abi: ["0x1"] } }`,
			entry:  "Foo",
			anchor: `address: "`,
		},
		{
			name:   "unterminated address literal",
			doc:    `{ Foo: { address: "0x1, abi: [1] } }`,
			entry:  "Foo",
			anchor: `closing "`,
		},
		{
			name:   "abi field without a bracket",
			doc:    `{ Foo: { address: "0x1", abi: ABI } }`,
			entry:  "Foo",
			anchor: "abi: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, results, err := New().Apply(tt.doc, []Request{
				{Name: tt.entry, Address: "0x9", Payload: "[9]"},
			})
			require.Error(t, err)
			require.Empty(t, out)
			require.Nil(t, results)

			var anf *AnchorNotFoundError
			require.ErrorAs(t, err, &anf)
			require.Equal(t, tt.entry, anf.Entry)
			require.Equal(t, tt.anchor, anf.Anchor)
		})
	}
}

func TestApply_UnbalancedEntry(t *testing.T) {
	_, _, err := New().Apply(`{ Foo: { address: "0x1", abi: [1] `, []Request{
		{Name: "Foo", Address: "0x2", Payload: "[2]"},
	})
	var ude *UnbalancedDelimiterError
	require.ErrorAs(t, err, &ude)
	require.Equal(t, byte('{'), ude.Open)
}

func TestApply_PayloadEscapesEntry(t *testing.T) {
	_, _, err := New().Apply(`{ Foo: { address: "0x1", abi: [1 }, Bar: { x: ] } }`, []Request{
		{Name: "Foo", Address: "0x2", Payload: "[2]"},
	})
	var ude *UnbalancedDelimiterError
	require.ErrorAs(t, err, &ude)
	require.Equal(t, byte('['), ude.Open)
}

func TestApply_FallbackMissing(t *testing.T) {
	t.Run("fallback entry absent from document", func(t *testing.T) {
		_, _, err := New(WithFallbackAnchor("ListingManager")).Apply(`{ A: { address: "0x1", abi: [] } }`, []Request{
			{Name: "B", Address: "0x2", Payload: "[]"},
		})
		var anf *AnchorNotFoundError
		require.ErrorAs(t, err, &anf)
		require.Equal(t, "B", anf.Entry)
		require.Equal(t, "ListingManager: {", anf.Anchor)
	})

	t.Run("no fallback configured", func(t *testing.T) {
		_, _, err := New().Apply(`{ A: { address: "0x1", abi: [] } }`, []Request{
			{Name: "B", Address: "0x2", Payload: "[]"},
		})
		var anf *AnchorNotFoundError
		require.ErrorAs(t, err, &anf)
		require.Equal(t, "B: {", anf.Anchor)
	})
}

func TestApply_AbortsWholeRun(t *testing.T) {
	doc := `{ A: { address: "0x1", abi: [] }, B: { abi: [] } }`
	out, results, err := New().Apply(doc, []Request{
		{Name: "A", Address: "0x2", Payload: "[1]"},
		{Name: "B", Address: "0x3", Payload: "[2]"},
	})
	require.Error(t, err)
	require.Empty(t, out)
	require.Nil(t, results)
}

func TestApply_WordBoundary(t *testing.T) {
	doc := `{ MyFoo: { address: "0x1", abi: [] }, Foo: { address: "0x2", abi: [] } }`
	req := []Request{{Name: "Foo", Address: "0x3", Payload: "[3]"}}

	t.Run("first textual occurrence by default", func(t *testing.T) {
		out, _, err := New().Apply(doc, req)
		require.NoError(t, err)
		require.Equal(t, `{ MyFoo: { address: "0x3", abi: [3] }, Foo: { address: "0x2", abi: [] } }`, out)
	})

	t.Run("identifier-prefixed occurrences skipped when enabled", func(t *testing.T) {
		out, _, err := New(WithWordBoundary(true)).Apply(doc, req)
		require.NoError(t, err)
		require.Equal(t, `{ MyFoo: { address: "0x1", abi: [] }, Foo: { address: "0x3", abi: [3] } }`, out)
	})
}

func TestApply_QuoteAware(t *testing.T) {
	doc := `{ Foo: { address: "0x1", abi: ["]"] } }`
	req := []Request{{Name: "Foo", Address: "0x2", Payload: `["[", "x"]`}}

	t.Run("plain scanning rejects payloads it could not find again", func(t *testing.T) {
		_, _, err := New().Apply(doc, req)
		var ude *UnbalancedDelimiterError
		require.ErrorAs(t, err, &ude)
	})

	t.Run("quote-aware scanning", func(t *testing.T) {
		out, results, err := New(WithQuoteAware(true)).Apply(doc, req)
		require.NoError(t, err)
		require.Equal(t, `{ Foo: { address: "0x2", abi: ["[", "x"] } }`, out)
		require.Equal(t, `["]"]`, results[0].PreviousPayload)
	})
}

func TestApply_CustomAnchors(t *testing.T) {
	doc := `registry = { Vault: { addr: '0x1', iface: { "a": 1 } } }`
	out, _, err := New(
		WithAddressAnchor("addr:"),
		WithPayloadAnchor("iface:"),
		WithPayloadDelimiters('{', '}'),
	).Apply(doc, []Request{{Name: "Vault", Address: "0x2", Payload: `{ "b": { "c": 2 } }`}})
	require.NoError(t, err)
	require.Equal(t, `registry = { Vault: { addr: '0x2', iface: { "b": { "c": 2 } } } }`, out)
}

func TestApply_InvalidRequests(t *testing.T) {
	doc := `{ Foo: { address: "0x1", abi: [] } }`
	tests := []struct {
		name string
		req  Request
	}{
		{name: "empty name", req: Request{Address: "0x1", Payload: "[]"}},
		{name: "address with quote", req: Request{Name: "Foo", Address: `0x1"`, Payload: "[]"}},
		{name: "address with newline", req: Request{Name: "Foo", Address: "0x1\n", Payload: "[]"}},
		{name: "address holding the payload anchor", req: Request{Name: "Foo", Address: "abi: [0]", Payload: "[]"}},
		{name: "address holding the address anchor", req: Request{Name: "Foo", Address: "x address: y", Payload: "[]"}},
		{name: "payload not bracketed", req: Request{Name: "Foo", Address: "0x1", Payload: `{"a":1}`}},
		{name: "empty payload", req: Request{Name: "Foo", Address: "0x1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := New().Apply(doc, []Request{tt.req})
			require.ErrorIs(t, err, ErrInvalidRequest)
		})
	}

	t.Run("trailing text after payload", func(t *testing.T) {
		_, _, err := New().Apply(doc, []Request{{Name: "Foo", Address: "0x1", Payload: "[1] [2]"}})
		var ude *UnbalancedDelimiterError
		require.ErrorAs(t, err, &ude)
	})
}

func TestApply_UnpatchableTemplate(t *testing.T) {
	tmpl, err := ParseEntryTemplate(`, {{.Name}}: { abi: {{.ABI}} }`)
	require.NoError(t, err)

	_, _, err = New(WithFallbackAnchor("A"), WithEntryTemplate(tmpl)).Apply(`{ A: { address: "0x1", abi: [] } }`, []Request{
		{Name: "B", Address: "0x2", Payload: "[]"},
	})
	var anf *AnchorNotFoundError
	require.ErrorAs(t, err, &anf)
	require.Equal(t, "address:", anf.Anchor)

	tmpl, err = ParseEntryTemplate(`, {{.Name}}Entry: { address: "{{.Address}}", abi: {{.ABI}} }`)
	require.NoError(t, err)
	_, _, err = New(WithFallbackAnchor("A"), WithEntryTemplate(tmpl)).Apply(`{ A: { address: "0x1", abi: [] } }`, []Request{
		{Name: "B", Address: "0x2", Payload: "[]"},
	})
	require.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestParseEntryTemplate(t *testing.T) {
	_, err := ParseEntryTemplate("{{.Name")
	require.Error(t, err)

	tmpl, err := ParseEntryTemplate(DefaultEntryTemplate)
	require.NoError(t, err)
	require.NotNil(t, tmpl)
}
