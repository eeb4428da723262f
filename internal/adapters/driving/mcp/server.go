package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docrag/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

const (
	// readHeaderTimeout bounds how long a client may take to send headers.
	readHeaderTimeout = 10 * time.Second

	// shutdownTimeout bounds draining in-flight requests after cancellation.
	shutdownTimeout = 30 * time.Second
)

// Server exposes question answering and index maintenance over MCP.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "docrag",
		Version: Version,
	}

	s := &Server{
		ports: ports,
		server: mcp.NewServer(impl, &mcp.ServerOptions{
			Instructions: instructions(ports.Document != nil),
		}),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// instructions tells the client how the tools relate. Every call is scoped
// to a user_id and nothing is shared between users.
func instructions(withDocuments bool) string {
	var b strings.Builder
	b.WriteString("docrag answers questions from a user's own documents. ")
	b.WriteString("Every tool takes a user_id. ")
	b.WriteString("Call index_status to see whether the user has an index and how many documents are embedded. ")
	b.WriteString("Call rebuild_index after new documents arrive; it embeds only documents without a vector. ")
	b.WriteString("Call ask with a question to get an answer citing the documents it used. ")
	b.WriteString("ask fails until rebuild_index has built the user's index.")
	if withDocuments {
		b.WriteString(" Read " + uriScheme + "users/{userId}/documents to list a user's documents.")
	}
	return b.String()
}

// Run serves MCP over stdio until the context is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	logger.Info("mcp: serving docrag over stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until the context is
// cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("mcp: listen on %s: %w", addr, err)
	}
	return s.serve(ctx, ln)
}

// serve owns ln and closes it on return.
func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	done := make(chan struct{})
	defer close(done)
	shutdown := make(chan error, 1)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdown <- httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("mcp: serving docrag on http://%s", ln.Addr())
	err := httpServer.Serve(ln)
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	// Serve returns as soon as shutdown starts; wait for open requests to drain.
	if err := <-shutdown; err != nil {
		logger.Warn("mcp: shutdown: %v", err)
	}
	return nil
}
