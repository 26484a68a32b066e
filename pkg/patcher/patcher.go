package patcher

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("patcher")

const (
	DefaultAddressAnchor = "address:"
	DefaultPayloadAnchor = "abi:"
)

// DefaultEntryTemplate renders an entry in the shape of a TypeScript
// `as const` contract registry. It is spliced directly after the closing brace
// of the fallback entry, so it leads with the separating comma.
const DefaultEntryTemplate = `,
  {{.Name}}: {
    address: "{{.Address}}" as Address,
    abi: {{.ABI}} as const,
  }`

const quoteChars = "\"'`"

// Request asks for the named entry to carry the given address and payload.
// Payload is the serialized text that replaces the entry's bracketed block.
type Request struct {
	Name    string
	Address string
	Payload string
}

// Action reports what a request did to the document.
type Action string

const (
	ActionUpdated  Action = "updated"
	ActionInserted Action = "inserted"
)

// Span is a half-open byte range [Start, End).
type Span struct {
	Start int
	End   int
}

// Result describes one applied request. Spans are offsets into the document as
// it stood right after the request was applied; later requests may shift them.
type Result struct {
	Name   string
	Action Action
	// PreviousAddress and PreviousPayload hold the replaced text. Both are
	// empty for inserted entries.
	PreviousAddress string
	PreviousPayload string
	Address         Span
	Payload         Span
	// Block is the spliced entry for inserts, the whole entry for updates.
	Block Span
}

// Patcher applies update requests to a document by locating entries through
// text anchors and balanced-delimiter scans.
type Patcher struct {
	addressAnchor string
	payloadAnchor string
	payloadOpen   byte
	payloadClose  byte
	fallback      string
	wordBoundary  bool
	scan          ScanFunc
	entryTmpl     *template.Template
}

type Option func(*Patcher)

// WithAddressAnchor sets the text that precedes an entry's address literal.
func WithAddressAnchor(anchor string) Option {
	return func(p *Patcher) {
		if anchor != "" {
			p.addressAnchor = anchor
		}
	}
}

// WithPayloadAnchor sets the text that precedes an entry's payload block.
func WithPayloadAnchor(anchor string) Option {
	return func(p *Patcher) {
		if anchor != "" {
			p.payloadAnchor = anchor
		}
	}
}

// WithPayloadDelimiters sets the delimiter pair enclosing a payload block.
func WithPayloadDelimiters(open, close byte) Option {
	return func(p *Patcher) {
		p.payloadOpen = open
		p.payloadClose = close
	}
}

// WithFallbackAnchor names the existing entry new entries are inserted after.
func WithFallbackAnchor(name string) Option {
	return func(p *Patcher) {
		p.fallback = name
	}
}

// WithWordBoundary skips anchor occurrences that are preceded by an
// identifier character, so "Foo: {" does not match inside "MyFoo: {".
func WithWordBoundary(enabled bool) Option {
	return func(p *Patcher) {
		p.wordBoundary = enabled
	}
}

// WithQuoteAware selects FindMatchingCloseQuoted for every scan.
func WithQuoteAware(enabled bool) Option {
	return func(p *Patcher) {
		if enabled {
			p.scan = FindMatchingCloseQuoted
		} else {
			p.scan = FindMatchingClose
		}
	}
}

// WithEntryTemplate sets the template used to synthesize inserted entries.
// It is executed with a value carrying Name, Address and ABI fields. A nil
// template keeps the current one.
func WithEntryTemplate(tmpl *template.Template) Option {
	return func(p *Patcher) {
		if tmpl != nil {
			p.entryTmpl = tmpl
		}
	}
}

// ParseEntryTemplate parses an entry template.
func ParseEntryTemplate(text string) (*template.Template, error) {
	tmpl, err := template.New("entry").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing entry template: %w", err)
	}
	return tmpl, nil
}

func New(opts ...Option) *Patcher {
	p := &Patcher{
		addressAnchor: DefaultAddressAnchor,
		payloadAnchor: DefaultPayloadAnchor,
		payloadOpen:   '[',
		payloadClose:  ']',
		scan:          FindMatchingClose,
		entryTmpl:     template.Must(ParseEntryTemplate(DefaultEntryTemplate)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Apply applies the requests to doc in order and returns the patched document.
// Every request locates its entry in the document produced by the previous
// one. The first failure aborts the whole run and no document is returned.
func (p *Patcher) Apply(doc string, requests []Request) (string, []Result, error) {
	results := make([]Result, 0, len(requests))
	for _, req := range requests {
		var (
			res Result
			err error
		)
		doc, res, err = p.apply(doc, req)
		if err != nil {
			return "", nil, err
		}
		results = append(results, res)
	}
	return doc, results, nil
}

func (p *Patcher) apply(doc string, req Request) (string, Result, error) {
	if err := p.checkRequest(req); err != nil {
		return "", Result{}, err
	}

	e, found, err := p.locate(doc, req.Name)
	if err != nil {
		return "", Result{}, err
	}
	if !found {
		return p.insert(doc, req)
	}
	return p.update(doc, e, req)
}

func (p *Patcher) update(doc string, e entry, req Request) (string, Result, error) {
	res := Result{Name: req.Name, Action: ActionUpdated}

	addr, err := p.addressSpan(doc, e, req.Name)
	if err != nil {
		return "", Result{}, err
	}
	res.PreviousAddress = doc[addr.Start:addr.End]
	doc = splice(doc, addr, req.Address)
	res.Address = Span{Start: addr.Start, End: addr.Start + len(req.Address)}

	// The address edit may have changed the document length, so every offset
	// past it is stale.
	e, found, err := p.locate(doc, req.Name)
	if err != nil {
		return "", Result{}, err
	}
	if !found {
		return "", Result{}, &AnchorNotFoundError{Entry: req.Name, Anchor: entryAnchor(req.Name)}
	}

	payload, err := p.payloadSpan(doc, e, req.Name)
	if err != nil {
		return "", Result{}, err
	}
	res.PreviousPayload = doc[payload.Start:payload.End]
	doc = splice(doc, payload, req.Payload)
	res.Payload = Span{Start: payload.Start, End: payload.Start + len(req.Payload)}
	res.Block = Span{Start: e.start, End: e.end - (payload.End - payload.Start) + len(req.Payload)}

	log.Debugw("updated entry", "entry", req.Name, "address", req.Address, "payload_bytes", len(req.Payload))
	return doc, res, nil
}

func (p *Patcher) insert(doc string, req Request) (string, Result, error) {
	if p.fallback == "" {
		return "", Result{}, fmt.Errorf("entry %s not found and no fallback entry is configured: %w",
			req.Name, &AnchorNotFoundError{Entry: req.Name, Anchor: entryAnchor(req.Name)})
	}

	fb, found, err := p.locate(doc, p.fallback)
	if err != nil {
		return "", Result{}, err
	}
	if !found {
		return "", Result{}, &AnchorNotFoundError{Entry: req.Name, Anchor: entryAnchor(p.fallback)}
	}

	block, err := p.render(req)
	if err != nil {
		return "", Result{}, err
	}
	doc = splice(doc, Span{Start: fb.end, End: fb.end}, block)

	// The synthesized entry has to be patchable by the update path, or the
	// next run would insert it again.
	e, found, err := p.locate(doc, req.Name)
	if err != nil {
		return "", Result{}, fmt.Errorf("entry template: %w", err)
	}
	if !found || e.start < fb.end || e.end > fb.end+len(block) {
		return "", Result{}, fmt.Errorf("%w: entry template does not produce a locatable %q anchor", ErrInvalidRequest, entryAnchor(req.Name))
	}
	addr, err := p.addressSpan(doc, e, req.Name)
	if err != nil {
		return "", Result{}, fmt.Errorf("entry template: %w", err)
	}
	payload, err := p.payloadSpan(doc, e, req.Name)
	if err != nil {
		return "", Result{}, fmt.Errorf("entry template: %w", err)
	}

	log.Infow("inserted entry", "entry", req.Name, "after", p.fallback)
	return doc, Result{
		Name:    req.Name,
		Action:  ActionInserted,
		Address: addr,
		Payload: payload,
		Block:   Span{Start: fb.end, End: fb.end + len(block)},
	}, nil
}

func (p *Patcher) render(req Request) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Name    string
		Address string
		ABI     string
	}{req.Name, req.Address, req.Payload}
	if err := p.entryTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering entry %s: %w", req.Name, err)
	}
	return buf.String(), nil
}

// checkRequest rejects requests whose values could not be found again by the
// same anchors on the next run.
func (p *Patcher) checkRequest(req Request) error {
	if req.Name == "" {
		return fmt.Errorf("%w: empty entry name", ErrInvalidRequest)
	}
	if strings.ContainsAny(req.Address, quoteChars+"\n") {
		return fmt.Errorf("%w: entry %s: address %q contains a quote or newline", ErrInvalidRequest, req.Name, req.Address)
	}
	// An anchor inside the literal would be found before the real field.
	for _, anchor := range []string{p.addressAnchor, p.payloadAnchor} {
		if strings.Contains(req.Address, anchor) {
			return fmt.Errorf("%w: entry %s: address %q contains anchor %q", ErrInvalidRequest, req.Name, req.Address, anchor)
		}
	}
	if req.Payload == "" || req.Payload[0] != p.payloadOpen {
		return fmt.Errorf("%w: entry %s: payload must start with %q", ErrInvalidRequest, req.Name, p.payloadOpen)
	}
	end, err := p.scan(req.Payload, 0, p.payloadOpen, p.payloadClose)
	if err != nil {
		return fmt.Errorf("entry %s: payload: %w", req.Name, err)
	}
	if end != len(req.Payload) {
		return fmt.Errorf("entry %s: payload: %w", req.Name,
			&UnbalancedDelimiterError{Open: p.payloadOpen, Close: p.payloadClose, Offset: end})
	}
	return nil
}

// entry is the located span of a named entry: start is the anchor offset,
// open the offset of its '{' and end one past the matching '}'.
type entry struct {
	start int
	open  int
	end   int
}

func entryAnchor(name string) string {
	return name + ": {"
}

func (p *Patcher) locate(doc, name string) (entry, bool, error) {
	anchor := entryAnchor(name)
	start := p.find(doc, anchor, 0, len(doc))
	if start < 0 {
		return entry{}, false, nil
	}
	open := start + len(anchor) - 1
	end, err := p.scan(doc, open, '{', '}')
	if err != nil {
		return entry{}, true, fmt.Errorf("entry %s: %w", name, err)
	}
	return entry{start: start, open: open, end: end}, true, nil
}

// addressSpan returns the span strictly between the quotes of the entry's
// address literal.
func (p *Patcher) addressSpan(doc string, e entry, name string) (Span, error) {
	at := p.find(doc, p.addressAnchor, e.open, e.end)
	if at < 0 {
		return Span{}, &AnchorNotFoundError{Entry: name, Anchor: p.addressAnchor}
	}
	// Only whitespace may separate the anchor from the literal's opening quote.
	q := at + len(p.addressAnchor)
	for q < e.end && strings.IndexByte(" \t\r\n", doc[q]) >= 0 {
		q++
	}
	if q >= e.end || strings.IndexByte(quoteChars, doc[q]) < 0 {
		return Span{}, &AnchorNotFoundError{Entry: name, Anchor: p.addressAnchor + ` "`}
	}
	c := strings.IndexByte(doc[q+1:e.end], doc[q])
	if c < 0 {
		return Span{}, &AnchorNotFoundError{Entry: name, Anchor: "closing " + string(doc[q])}
	}
	return Span{Start: q + 1, End: q + 1 + c}, nil
}

// payloadSpan returns the span of the entry's payload block, delimiters
// included.
func (p *Patcher) payloadSpan(doc string, e entry, name string) (Span, error) {
	at := p.find(doc, p.payloadAnchor, e.open, e.end)
	if at < 0 {
		return Span{}, &AnchorNotFoundError{Entry: name, Anchor: p.payloadAnchor}
	}
	from := at + len(p.payloadAnchor)
	b := strings.IndexByte(doc[from:e.end], p.payloadOpen)
	if b < 0 {
		return Span{}, &AnchorNotFoundError{Entry: name, Anchor: p.payloadAnchor + " " + string(p.payloadOpen)}
	}
	b += from
	end, err := p.scan(doc, b, p.payloadOpen, p.payloadClose)
	if err != nil {
		return Span{}, fmt.Errorf("entry %s: %w", name, err)
	}
	if end > e.end {
		return Span{}, fmt.Errorf("entry %s: payload runs past the end of the entry: %w", name,
			&UnbalancedDelimiterError{Open: p.payloadOpen, Close: p.payloadClose, Offset: b})
	}
	return Span{Start: b, End: end}, nil
}

// find returns the offset of the first occurrence of anchor that lies
// entirely within doc[from:limit], or -1.
func (p *Patcher) find(doc, anchor string, from, limit int) int {
	for from < limit {
		i := strings.Index(doc[from:limit], anchor)
		if i < 0 {
			return -1
		}
		i += from
		if !p.wordBoundary || i == 0 || !isIdentByte(doc[i-1]) {
			return i
		}
		from = i + 1
	}
	return -1
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

func splice(doc string, s Span, text string) string {
	var b strings.Builder
	b.Grow(len(doc) - (s.End - s.Start) + len(text))
	b.WriteString(doc[:s.Start])
	b.WriteString(text)
	b.WriteString(doc[s.End:])
	return b.String()
}
