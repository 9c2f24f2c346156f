// Package lsp serves document formatting for XML files over the Language
// Server Protocol on stdio.
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"sync"

	"github.com/antchfx/xmlembed"
	"github.com/antchfx/xmlembed/config"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// ConfigFunc returns the configuration for documents in dir.
type ConfigFunc func(dir string) (*config.Config, error)

// ServerOptions configures a Server.
type ServerOptions struct {
	Logger *zap.Logger
	// Config defaults to config.LoadFor.
	Config  ConfigFunc
	Version string
}

// Server answers formatting requests for the documents a client has open.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex

	mu                sync.Mutex
	openDocs          map[string]string
	scriptTags        []string
	shutdownRequested bool

	logger   *zap.Logger
	loadConf ConfigFunc
	version  string
}

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loadConf := opts.Config
	if loadConf == nil {
		loadConf = config.LoadFor
	}
	return &Server{
		in:       bufio.NewReader(in),
		out:      bufio.NewWriter(out),
		openDocs: make(map[string]string),
		logger:   logger,
		loadConf: loadConf,
		version:  opts.Version,
	}
}

// Run serves requests until the client exits or closes the input.
func (s *Server) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logger.Warn("failed to parse message", zap.Error(err))
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(ctx, &msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(ctx context.Context, msg *rpcMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		s.mu.Lock()
		s.shutdownRequested = true
		s.mu.Unlock()
		return s.sendResponse(msg.ID, nil)
	case "exit":
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.shutdownRequested {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/formatting":
		return s.handleFormatting(ctx, msg)
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
	s.applySettings(params.InitializationOptions)

	return s.sendResponse(msg.ID, initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    textDocumentSyncFull,
			},
			DocumentFormattingProvider: true,
		},
		ServerInfo: serverInfo{Name: "xmlembed", Version: s.version},
	})
}

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	var params didChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Warn("ignoring malformed configuration", zap.Error(err))
		return nil
	}
	s.applySettings(params.Settings)
	return nil
}

func (s *Server) applySettings(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var st settings
	if err := json.Unmarshal(raw, &st); err != nil {
		s.logger.Warn("ignoring malformed settings", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.scriptTags = st.XMLEmbed.ScriptTags
	s.mu.Unlock()
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Warn("ignoring malformed didOpen", zap.Error(err))
		return nil
	}
	s.mu.Lock()
	s.openDocs[params.TextDocument.URI] = params.TextDocument.Text
	s.mu.Unlock()
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Warn("ignoring malformed didChange", zap.Error(err))
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, change := range params.ContentChanges {
		// Only full document sync is advertised; a ranged change from a
		// misbehaving client is applied anyway.
		if change.Range != nil {
			text := s.openDocs[params.TextDocument.URI]
			s.openDocs[params.TextDocument.URI] = applyRange(text, *change.Range, change.Text)
			continue
		}
		s.openDocs[params.TextDocument.URI] = change.Text
	}
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Warn("ignoring malformed didClose", zap.Error(err))
		return nil
	}
	s.mu.Lock()
	delete(s.openDocs, params.TextDocument.URI)
	s.mu.Unlock()
	return nil
}

// handleFormatting replies with one edit replacing the whole document, or
// with no edits and an error message shown to the user.
func (s *Server) handleFormatting(ctx context.Context, msg *rpcMessage) error {
	var params documentFormattingParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	uri := params.TextDocument.URI
	s.mu.Lock()
	text, ok := s.openDocs[uri]
	scriptTags := s.scriptTags
	s.mu.Unlock()
	if !ok {
		return s.sendError(msg.ID, codeInvalidRequest, "document is not open: "+uri)
	}

	res, err := s.format(ctx, uri, text, scriptTags)
	if err != nil {
		s.logger.Info("formatting failed", zap.String("uri", uri), zap.Error(err))
		if err := s.notify("window/showMessage", showMessageParams{
			Type:    messageError,
			Message: fmt.Sprintf("Formatting error: %v", err),
		}); err != nil {
			return err
		}
		return s.sendResponse(msg.ID, []xmlembed.TextEdit{})
	}
	for _, fb := range res.Fallbacks {
		if err := s.notify("window/logMessage", showMessageParams{
			Type:    messageWarning,
			Message: fmt.Sprintf("%s left unformatted: %v", fb.Path, fb.Err),
		}); err != nil {
			return err
		}
	}
	return s.sendResponse(msg.ID, []xmlembed.TextEdit{xmlembed.FullDocumentEdit(text, res.Text)})
}

func (s *Server) format(ctx context.Context, uri, text string, scriptTags []string) (*xmlembed.Result, error) {
	cfg, err := s.loadConf(documentDir(uri))
	if err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	if len(scriptTags) > 0 {
		c := *cfg
		c.ScriptTags = scriptTags
		cfg = &c
	}
	f, err := cfg.NewFormatter(s.logger)
	if err != nil {
		return nil, errors.Wrap(err, "configure formatter")
	}
	return f.Format(ctx, text)
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	return s.send(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	})
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	return s.send(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error":   rpcError{Code: code, Message: message},
	})
}

func (s *Server) notify(method string, params any) error {
	return s.send(map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	})
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

// documentDir returns the directory of a file URI, or "" for other URIs.
func documentDir(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return ""
	}
	return filepath.Dir(filepath.FromSlash(u.Path))
}
