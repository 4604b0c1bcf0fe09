package mcpserver_test

import (
	"context"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ruby2js/ruby2go/internal/mcpserver"
	"github.com/ruby2js/ruby2go/pkg/ast"
	"github.com/ruby2js/ruby2go/pkg/parsing"
)

func stubParser(root *ast.Node, err error) parsing.Parser {
	return parsing.Func(func(string, string) (*ast.Node, *ast.Comments, error) {
		return root, ast.NewComments(), err
	})
}

func TestMCPServer_InMemoryTransport_ToolsList(t *testing.T) {
	t.Parallel()

	srv := mcpserver.NewServer(stubParser(ast.New(ast.TagInt, int64(1)), nil), mcpserver.ServerDeps{})

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	serverDone := make(chan error, 1)

	go func() {
		serverDone <- srv.RunWithTransport(ctx, serverTransport)
	}()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "1.0.0"}, nil)

	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	defer func() {
		_ = session.Close()
	}()

	toolsResult, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	require.NotNil(t, toolsResult)

	toolNames := make([]string, 0, len(toolsResult.Tools))
	for _, tool := range toolsResult.Tools {
		toolNames = append(toolNames, tool.Name)
		assert.NotNil(t, tool.InputSchema, "tool %s missing input schema", tool.Name)
	}

	assert.Contains(t, toolNames, mcpserver.ToolNameConvert)
	assert.Len(t, toolNames, 1)

	cancel()
	<-serverDone
}

func TestMCPServer_InMemoryTransport_CallConvert_Success(t *testing.T) {
	t.Parallel()

	srv := mcpserver.NewServer(stubParser(ast.New(ast.TagInt, int64(1)), nil), mcpserver.ServerDeps{})

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	serverDone := make(chan error, 1)

	go func() {
		serverDone <- srv.RunWithTransport(ctx, serverTransport)
	}()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "1.0.0"}, nil)

	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	defer func() {
		_ = session.Close()
	}()

	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      mcpserver.ToolNameConvert,
		Arguments: map[string]any{"source": "1"},
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)
	assert.NotEmpty(t, result.Content)

	cancel()
	<-serverDone
}

func TestMCPServer_InMemoryTransport_CallConvert_EmptySourceIsError(t *testing.T) {
	t.Parallel()

	srv := mcpserver.NewServer(stubParser(ast.New(ast.TagInt, int64(1)), nil), mcpserver.ServerDeps{})

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	serverDone := make(chan error, 1)

	go func() {
		serverDone <- srv.RunWithTransport(ctx, serverTransport)
	}()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "1.0.0"}, nil)

	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	defer func() {
		_ = session.Close()
	}()

	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      mcpserver.ToolNameConvert,
		Arguments: map[string]any{"source": ""},
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)

	cancel()
	<-serverDone
}

func TestMCPServer_InMemoryTransport_CallConvert_ErrorResultRecordsSpanError(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	srv := mcpserver.NewServer(stubParser(ast.New(ast.TagInt, int64(1)), nil),
		mcpserver.ServerDeps{Tracer: tp.Tracer("test")})

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	serverDone := make(chan error, 1)

	go func() {
		serverDone <- srv.RunWithTransport(ctx, serverTransport)
	}()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "1.0.0"}, nil)

	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	defer func() {
		_ = session.Close()
	}()

	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      mcpserver.ToolNameConvert,
		Arguments: map[string]any{"source": ""},
	})
	require.NoError(t, err)
	require.True(t, result.IsError)

	cancel()
	<-serverDone

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	require.NotEmpty(t, spans[0].Events)
}

func TestServer_ListToolNames_IsSorted(t *testing.T) {
	t.Parallel()

	srv := mcpserver.NewServer(stubParser(ast.New(ast.TagInt, int64(1)), nil), mcpserver.ServerDeps{})

	assert.Equal(t, []string{mcpserver.ToolNameConvert}, srv.ListToolNames())
}
