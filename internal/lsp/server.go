// Package lsp serves elm make diagnostics over the Language Server Protocol
// on stdio.
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"

	"elmdiag/internal/diag"
	"elmdiag/internal/elm/elmmake"
	"elmdiag/internal/logging"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// InvokerFunc builds the compiler invoker for one check.
type InvokerFunc func(tool, dir string) elmmake.Invoker

// ServerOptions configures LSP server behavior.
type ServerOptions struct {
	// ElmPath is the compiler executable; empty means elmmake.DefaultTool.
	ElmPath string
	// NewInvoker defaults to an elmmake.ExecInvoker.
	NewInvoker InvokerFunc
	Logger     *log.Logger
	Version    string
}

// Server handles stdio JSON-RPC for elmdiag.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex
	mu     sync.Mutex
	// publishMu orders publish state changes with their writes; taken before mu.
	publishMu sync.Mutex

	openDocs map[string]int
	// published maps a checked document to the URIs its latest applied
	// check reported against.
	published  map[string]map[string]struct{}
	checkSeq   map[string]uint64
	appliedSeq map[string]uint64

	workspaceRoot     string
	elmPath           string
	shutdownRequested bool

	newInvoker InvokerFunc
	logger     *log.Logger
	version    string
	baseCtx    context.Context
	checks     sync.WaitGroup
	toolNotice sync.Once
}

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	newInvoker := opts.NewInvoker
	if newInvoker == nil {
		newInvoker = func(tool, dir string) elmmake.Invoker {
			return &elmmake.ExecInvoker{Tool: tool, Dir: dir}
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Server{
		in:         bufio.NewReader(in),
		out:        bufio.NewWriter(out),
		openDocs:   make(map[string]int),
		published:  make(map[string]map[string]struct{}),
		checkSeq:   make(map[string]uint64),
		appliedSeq: make(map[string]uint64),
		elmPath:    opts.ElmPath,
		newInvoker: newInvoker,
		logger:     logger.WithPrefix("lsp"),
		version:    opts.Version,
		baseCtx:    context.Background(),
	}
}

// Run serves LSP requests until exit or end of input.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()
	for {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logger.Warn("failed to parse message", logging.FieldError, err)
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

// Wait blocks until every in-flight check has published or failed.
func (s *Server) Wait() {
	s.checks.Wait()
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	s.logger.Debug("message", logging.FieldMethod, msg.Method)
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		s.mu.Lock()
		requested := s.shutdownRequested
		s.mu.Unlock()
		if requested {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeMethodNotFound, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	root := ""
	if params.RootURI != "" {
		root = diag.URIToPath(params.RootURI)
	}
	if root == "" && params.RootPath != "" {
		root = params.RootPath
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = diag.URIToPath(params.WorkspaceFolders[0].URI)
	}
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	s.mu.Lock()
	s.workspaceRoot = root
	s.mu.Unlock()
	s.applySettings(params.InitializationOptions)
	s.logger.Info("initialized", logging.FieldRoot, root)

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    0,
				Save:      saveOptions{IncludeText: false},
			},
		},
		ServerInfo: serverInfo{Name: "elmdiag", Version: s.version},
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	s.mu.Unlock()
	s.clearAllPublished()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.notificationError(msg, err)
	}
	uri := params.TextDocument.URI
	if diag.URIToPath(uri) == "" {
		return nil
	}
	s.mu.Lock()
	s.openDocs[uri] = params.TextDocument.Version
	s.mu.Unlock()
	s.scheduleCheck(uri)
	return nil
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.notificationError(msg, err)
	}
	uri := params.TextDocument.URI
	if diag.URIToPath(uri) == "" {
		return nil
	}
	s.mu.Lock()
	if _, ok := s.openDocs[uri]; !ok {
		s.openDocs[uri] = 0
	}
	s.mu.Unlock()
	s.scheduleCheck(uri)
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.notificationError(msg, err)
	}
	uri := params.TextDocument.URI
	if uri == "" {
		return nil
	}
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	s.mu.Lock()
	delete(s.openDocs, uri)
	// Results of checks still in flight for this document are dropped.
	s.appliedSeq[uri] = s.checkSeq[uri]
	prev := s.published[uri]
	delete(s.published, uri)
	stale := s.unheldLocked(prev, nil)
	s.mu.Unlock()
	s.clearURIs(stale)
	return nil
}

// notificationError logs a malformed notification; notifications cannot be
// answered, so the server keeps running.
func (s *Server) notificationError(msg *rpcMessage, err error) error {
	s.logger.Warn("invalid params", logging.FieldMethod, msg.Method, logging.FieldError, err)
	if len(msg.ID) > 0 {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	return nil
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) sendNotification(method string, params any) error {
	return s.send(map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	})
}

func (s *Server) sendPublish(uri string, list []diag.Diagnostic) error {
	if list == nil {
		list = []diag.Diagnostic{}
	}
	return s.sendNotification("textDocument/publishDiagnostics", publishDiagnosticsParams{
		URI:         uri,
		Diagnostics: list,
	})
}

func (s *Server) showMessage(kind int, message string) {
	if err := s.sendNotification("window/showMessage", showMessageParams{Type: kind, Message: message}); err != nil {
		s.logger.Error("failed to send message", logging.FieldError, err)
	}
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}
