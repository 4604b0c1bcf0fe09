// Package lsp provides a Language Server Protocol (LSP) server that
// converts SRC documents to TGT on the fly and reports any construct it
// cannot lower as a diagnostic.
package lsp

import (
	"log"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/ruby2js/ruby2go/pkg/compilererr"
	"github.com/ruby2js/ruby2go/pkg/compiler"
	"github.com/ruby2js/ruby2go/pkg/filterpipe"
	"github.com/ruby2js/ruby2go/pkg/parsing"
)

// DocumentStore is a thread-safe store for document contents keyed by URI.
type DocumentStore struct {
	documents map[string]string // URI -> content.
	mu        sync.RWMutex
}

// NewDocumentStore creates a new empty DocumentStore.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]string),
	}
}

// Set stores document content for the given URI.
func (ds *DocumentStore) Set(uri, content string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.documents[uri] = content
}

// Get retrieves document content by URI.
func (ds *DocumentStore) Get(uri string) (string, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	content, ok := ds.documents[uri]

	return content, ok
}

// Delete removes document content by URI.
func (ds *DocumentStore) Delete(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	delete(ds.documents, uri)
}

// Server implements the convert-on-save/convert-on-change LSP server: every
// didOpen/didChange/didSave re-runs the document through compiler.Convert
// and republishes whatever CompileError it hits as a diagnostic.
type Server struct {
	store    *DocumentStore
	handler  protocol.Handler
	compiler *compiler.Compiler
	opts     filterpipe.Options
}

// NewServer creates an LSP server that converts documents with parser,
// using opts as the filterpipe configuration for every conversion.
func NewServer(parser parsing.Parser, opts filterpipe.Options) *Server {
	srv := &Server{
		store:    NewDocumentStore(),
		compiler: compiler.New(parser),
		opts:     opts,
	}

	srv.handler = protocol.Handler{
		Initialize:             srv.initialize,
		Initialized:            srv.initialized,
		Shutdown:               srv.shutdown,
		SetTrace:               srv.setTrace,
		TextDocumentDidOpen:    srv.didOpen,
		TextDocumentDidChange:  srv.didChange,
		TextDocumentDidSave:    srv.didSave,
		TextDocumentDidClose:   srv.didClose,
		TextDocumentCompletion: srv.completion,
		TextDocumentHover:      srv.hover,
	}

	return srv
}

// Handler returns the glsp protocol.Handler backing this server, so a
// caller embedding this server in its own process (or a test exercising
// one LSP notification in isolation) can invoke a handler method directly
// without reaching into an unexported field.
func (srv *Server) Handler() *protocol.Handler {
	return &srv.handler
}

// Run starts the LSP server on stdio.
func (srv *Server) Run() {
	lspServer := server.NewServer(&srv.handler, "ruby2go", false)

	err := lspServer.RunStdio()
	if err != nil {
		log.Printf("LSP server error: %v", err)
	}
}

func (srv *Server) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	capabilities := srv.handler.CreateServerCapabilities()
	version := "0.1.0"

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    "ruby2go",
			Version: &version,
		},
	}, nil
}

func (srv *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (srv *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)

	return nil
}

func (srv *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)

	return nil
}

func (srv *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	srv.store.Set(uri, text)
	srv.publishDiagnostics(ctx, uri)

	return nil
}

func (srv *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	if len(params.ContentChanges) > 0 {
		if change, changeOK := params.ContentChanges[0].(map[string]any); changeOK {
			if text, textOK := change["text"].(string); textOK {
				srv.store.Set(uri, text)
				srv.publishDiagnostics(ctx, uri)
			}
		}
	}

	return nil
}

func (srv *Server) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI

	if _, ok := srv.store.Get(uri); ok {
		srv.publishDiagnostics(ctx, uri)
	}

	return nil
}

func (srv *Server) didClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	srv.store.Delete(uri)

	return nil
}

var (
	pragmaKeywords = []protocol.CompletionItem{
		completionItem("Pragma: or", protocol.CompletionItemKindKeyword, "Force ?? or || for this line's disjunctions"),
		completionItem("Pragma: skip", protocol.CompletionItemKindKeyword, "Leave the following statement unrewritten"),
		completionItem("Pragma: type", protocol.CompletionItemKindKeyword, "Force a specific TGT type for an ambiguous literal"),
		completionItem("Pragma: function", protocol.CompletionItemKindKeyword, "Force function (not arrow) emission"),
		completionItem("Pragma: entries", protocol.CompletionItemKindKeyword, "Force Object.entries-based iteration"),
	}

	pragmaDocs = map[string]string{
		"Pragma: or":       "`# Pragma: or ??` / `# Pragma: or ||` overrides the default disjunction operator for this line.",
		"Pragma: skip":     "`# Pragma: skip` leaves the following statement exactly as parsed, with no rewrite applied.",
		"Pragma: type":     "`# Pragma: type <Type>` forces an ambiguous literal to emit as the named TGT type.",
		"Pragma: function": "`# Pragma: function` forces function emission for the following block instead of an arrow.",
		"Pragma: entries":  "`# Pragma: entries` forces Object.entries-based iteration for the following loop.",
	}
)

func completionItem(label string, kind protocol.CompletionItemKind, detail string) protocol.CompletionItem {
	return protocol.CompletionItem{
		Label:  label,
		Kind:   &kind,
		Detail: &detail,
	}
}

func (srv *Server) completion(_ *glsp.Context, _ *protocol.CompletionParams) (any, error) {
	// Suggest the recognized `# Pragma: ...` comment forms.
	items := make([]protocol.CompletionItem, len(pragmaKeywords))
	copy(items, pragmaKeywords)

	return protocol.CompletionList{IsIncomplete: false, Items: items}, nil
}

func (srv *Server) hover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	// Find the line under the cursor and match it against known pragmas.
	uri := params.TextDocument.URI
	pos := params.Position

	text, ok := srv.store.Get(uri)
	if !ok {
		return nil, nil // LSP protocol expects nil hover when no document found.
	}

	lineText := lineAt(text, int(pos.Line))

	for key, doc := range pragmaDocs {
		if strings.Contains(lineText, key) {
			return &protocol.Hover{
				Contents: protocol.MarkupContent{
					Kind:  protocol.MarkupKindMarkdown,
					Value: doc,
				},
			}, nil
		}
	}

	return nil, nil // LSP protocol expects nil hover when no docs available.
}

// lineAt returns the zero-indexed line of text, or "" past the end.
func lineAt(text string, line int) string {
	lines := splitLines(text)
	if line < 0 || line >= len(lines) {
		return ""
	}

	return lines[line]
}

func splitLines(input string) []string {
	return strings.Split(input, "\n")
}

// publishDiagnostics re-converts the document at uri and republishes the
// result: an empty diagnostic set on success, or a single diagnostic
// located at the offending node's line when compiler.Convert raises a
// CompileError. Any other error is reported at the top of the file, since
// it indicates a problem the parser collaborator hit before the core ever
// saw a tree to rewrite.
func (srv *Server) publishDiagnostics(ctx *glsp.Context, uri string) {
	text, ok := srv.store.Get(uri)
	if !ok {
		return
	}

	opts := srv.opts
	opts.File = uri

	diagnostics := []protocol.Diagnostic{}

	_, err := srv.compiler.Convert(text, opts)
	if err != nil {
		diagnostics = append(diagnostics, diagnosticFor(err))
	}

	ctx.Notify("textDocument/publishDiagnostics", &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func diagnosticFor(err error) protocol.Diagnostic {
	line := 0
	severity := protocol.DiagnosticSeverityError

	if ce, ok := compilererr.As(err); ok && ce.Node != nil && ce.Node.Loc != nil {
		line = ce.Node.Loc.Line - 1
		if line < 0 {
			line = 0
		}
	}

	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: protocol.UInteger(line), Character: 0},
			End:   protocol.Position{Line: protocol.UInteger(line), Character: 0},
		},
		Severity: &severity,
		Source:   strPtr("ruby2go"),
		Message:  err.Error(),
	}
}

func strPtr(s string) *string { return &s }
