package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported to MCP hosts during the initialize handshake.
const Version = "0.1.0"

// serverInstructions tells the host when to reach for the knowledge
// tools instead of answering from its own context.
const serverInstructions = `frontdesk serves per-business knowledge for customer-facing agents.
Call retrieve_context before answering any question about a business's
services, policies, hours, or pricing. Ingest new knowledge with
index_document when the operator provides it.`

// Server bridges the retrieval and indexing ports onto the Model
// Context Protocol. What it exposes depends on the ports it was built
// with: retrieval is always available, ingestion and document browsing
// only when those ports are wired.
type Server struct {
	ports *Ports
	mcp   *mcp.Server
}

// NewServer builds a Server from the given ports. The Retriever port
// is required; everything else degrades gracefully when absent.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{
		ports: ports,
		mcp: mcp.NewServer(
			&mcp.Implementation{Name: "frontdesk", Version: Version},
			&mcp.ServerOptions{Instructions: serverInstructions},
		),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves MCP over stdio until the context is cancelled. This is
// the mode hosts spawn the binary in.
func (s *Server) Run(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves MCP over streamable HTTP on addr, for hosts that
// connect remotely or for debugging with the MCP Inspector. Cancelling
// the context shuts the listener down.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr: addr,
		Handler: mcp.NewStreamableHTTPHandler(
			func(*http.Request) *mcp.Server { return s.mcp }, nil),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
