package mcp

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-clinical-pdf/internal/api"
	"github.com/a3tai/mcp-clinical-pdf/internal/config"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestServer_Run_ServerMode(t *testing.T) {
	s, _ := newTestServer(t)
	s.config.Mode = config.ModeServer
	s.config.Port = freePort(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	healthURL := "http://" + s.config.Address() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(healthURL)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_Run_ServerModeListenError(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	s, _ := newTestServer(t)
	s.config.Mode = config.ModeServer
	s.config.Port = l.Addr().(*net.TCPAddr).Port

	err = s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to serve HTTP")
}

// postJSONRPC sends one JSON-RPC message to the streamable endpoint
func postJSONRPC(t *testing.T, url, sessionID, body string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp, decoded
}

func TestStreamableHTTPTools(t *testing.T) {
	s, _ := newTestServer(t)

	streamable := server.NewStreamableHTTPServer(s.MCPServer(), server.WithEndpointPath(MCPEndpoint))
	ts := httptest.NewServer(api.NewServer(s.pdfService, api.Options{MCP: streamable}))
	defer ts.Close()

	url := ts.URL + MCPEndpoint

	resp, initResult := postJSONRPC(t, url, "", `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{`+
		`"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sessionID := resp.Header.Get("Mcp-Session-Id")
	require.NotEmpty(t, sessionID)

	serverInfo := initResult["result"].(map[string]any)["serverInfo"].(map[string]any)
	assert.Equal(t, "test-server", serverInfo["name"])

	resp, listResult := postJSONRPC(t, url, sessionID, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	tools := listResult["result"].(map[string]any)["tools"].([]any)
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.(map[string]any)["name"].(string))
	}
	assert.ElementsMatch(t, []string{
		"discharge_summary_check",
		"referral_form_extract",
		"pdf_form_fields",
		"pdf_page_text",
		"detect_document_type",
		"pdf_validate_file",
		"pdf_server_info",
	}, names)

	resp, callResult := postJSONRPC(t, url, sessionID, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{`+
		`"name":"discharge_summary_check","arguments":{"path":"summary.pdf","threshold":80}}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	content := callResult["result"].(map[string]any)["content"].([]any)
	require.NotEmpty(t, content)
	assert.Contains(t, content[0].(map[string]any)["text"], "Discharge summary check:")
}
