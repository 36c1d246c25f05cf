package mcp

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/qshape-go/internal/decompose"
	"github.com/Benny93/qshape-go/internal/predicates"
	"github.com/Benny93/qshape-go/internal/storage"
)

const foafQuery = `PREFIX foaf: <http://xmlns.com/foaf/0.1/>
SELECT * WHERE { ?p foaf:name ?n ; foaf:knows ?q . ?q foaf:name ?m }`

func newTestStore(t *testing.T) *storage.MemoryBackend {
	t.Helper()

	store := storage.NewMemoryBackend()
	require.NoError(t, store.Initialize("", false))
	t.Cleanup(func() { _ = store.Close() })

	ctx := t.Context()
	require.NoError(t, store.MergeSummary(ctx,
		map[string]int64{`["1,2","1"]`: 7, `["1"]`: 3},
		map[string]int64{"GROUP": 10, "OPTIONAL": 2}))
	require.NoError(t, store.SetMeta(ctx, storage.MetaTotalLines, "12"))
	return store
}

func newTestPredicates(t *testing.T) *predicates.Map {
	t.Helper()
	preds, err := predicates.FromEntries([]predicates.Entry{
		{URI: "http://xmlns.com/foaf/0.1/name", ID: 1},
		{URI: "http://xmlns.com/foaf/0.1/knows", ID: 2},
	})
	require.NoError(t, err)
	return preds
}

func TestNewServer(t *testing.T) {
	t.Parallel()

	t.Run("CreatesServer", func(t *testing.T) {
		server := NewServer(nil, nil, decompose.Options{}, "1.2.3")

		assert.NotNil(t, server)
		assert.NotNil(t, server.server)
		assert.NotNil(t, server.predicates)
		assert.Equal(t, "qshape", server.impl.Name)
		assert.Equal(t, "1.2.3", server.impl.Version)
	})

	t.Run("DefaultVersion", func(t *testing.T) {
		server := NewServer(nil, nil, decompose.Options{}, "")
		assert.Equal(t, "dev", server.impl.Version)
	})
}

func TestServer_Tools(t *testing.T) {
	t.Parallel()

	server := NewServer(nil, nil, decompose.Options{}, "")
	tools := server.ListTools()

	names := make(map[string]bool)
	for _, tool := range tools {
		names[tool.Name] = true
		assert.NotEmpty(t, tool.Description)
		assert.NotNil(t, tool.InputSchema)
	}
	for _, expected := range []string{"qshape_decompose", "qshape_top_shapes", "qshape_predicate"} {
		assert.True(t, names[expected], "Should have tool: %s", expected)
	}
}

func TestServer_HandleToolCalls(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	server := NewServer(store, newTestPredicates(t), decompose.Options{}, "")
	ctx := t.Context()

	t.Run("Decompose", func(t *testing.T) {
		result, err := server.CallTool(ctx, "qshape_decompose", map[string]any{"query": foafQuery})
		require.NoError(t, err)
		assert.Contains(t, result, "**Outcome:** shaped")
		assert.Contains(t, result, "`[\"1,2\",\"1\"]`")
		assert.Contains(t, result, "http://xmlns.com/foaf/0.1/knows")
		assert.Contains(t, result, "Pattern Graphs (1)")
	})

	t.Run("DecomposeRejected", func(t *testing.T) {
		result, err := server.CallTool(ctx, "qshape_decompose", map[string]any{"query": "SELECT * { ?s ?p ?o }"})
		require.NoError(t, err)
		assert.Contains(t, result, "rejected")
		assert.Contains(t, result, "VARIABLE_PREDICATE")
		assert.NotContains(t, result, "Signature")
	})

	t.Run("DecomposeSyntaxError", func(t *testing.T) {
		result, err := server.CallTool(ctx, "qshape_decompose", map[string]any{"query": "SELECT"})
		require.NoError(t, err)
		assert.Contains(t, result, "does not parse")
	})

	t.Run("DecomposeMissingQuery", func(t *testing.T) {
		result, err := server.CallTool(ctx, "qshape_decompose", map[string]any{})
		require.NoError(t, err)
		assert.Contains(t, result, "No query provided")
	})

	t.Run("TopShapes", func(t *testing.T) {
		result, err := server.CallTool(ctx, "qshape_top_shapes", map[string]any{"limit": float64(1)})
		require.NoError(t, err)
		assert.Contains(t, result, "Top 1 of 2 shapes")
		assert.Contains(t, result, "**7**")
		assert.NotContains(t, result, "**3**")
	})

	t.Run("PredicateByID", func(t *testing.T) {
		result, err := server.CallTool(ctx, "qshape_predicate", map[string]any{"predicate": "2"})
		require.NoError(t, err)
		assert.Equal(t, "2\thttp://xmlns.com/foaf/0.1/knows", result)
	})

	t.Run("PredicateByURI", func(t *testing.T) {
		result, err := server.CallTool(ctx, "qshape_predicate", map[string]any{"predicate": "<http://xmlns.com/foaf/0.1/name>"})
		require.NoError(t, err)
		assert.Equal(t, "1\thttp://xmlns.com/foaf/0.1/name", result)
	})

	t.Run("PredicateUnknown", func(t *testing.T) {
		result, err := server.CallTool(ctx, "qshape_predicate", map[string]any{"predicate": "99"})
		require.NoError(t, err)
		assert.Contains(t, result, "No predicate")
	})

	t.Run("UnknownTool", func(t *testing.T) {
		result, err := server.CallTool(ctx, "unknown_tool", map[string]any{})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown tool")
		assert.Empty(t, result)
	})
}

func TestServer_WithoutStore(t *testing.T) {
	t.Parallel()

	server := NewServer(nil, nil, decompose.Options{}, "")

	result, err := server.CallTool(t.Context(), "qshape_top_shapes", nil)
	require.NoError(t, err)
	assert.Contains(t, result, "No analysis stored")

	content, err := server.ReadResource(t.Context(), "qshape://features")
	require.NoError(t, err)
	assert.Contains(t, content, "No analysis stored")
}

func TestServer_Resources(t *testing.T) {
	t.Parallel()

	server := NewServer(newTestStore(t), newTestPredicates(t), decompose.Options{}, "")
	ctx := t.Context()

	t.Run("ListResources", func(t *testing.T) {
		uris := make(map[string]bool)
		for _, res := range server.ListResources() {
			uris[res.URI] = true
			assert.NotEmpty(t, res.Name)
			assert.NotEmpty(t, res.Description)
			assert.NotEmpty(t, res.MimeType)
		}
		for _, expected := range []string{"qshape://overview", "qshape://features", "qshape://schema"} {
			assert.True(t, uris[expected], "Should have resource: %s", expected)
		}
	})

	t.Run("ReadOverview", func(t *testing.T) {
		content, err := server.ReadResource(ctx, "qshape://overview")
		require.NoError(t, err)
		assert.Contains(t, content, "**Distinct shapes:** 2")
		assert.Contains(t, content, "**Lines:** 12")
		assert.Contains(t, content, "**Predicates:** 2")
	})

	t.Run("ReadFeatures", func(t *testing.T) {
		content, err := server.ReadResource(ctx, "qshape://features")
		require.NoError(t, err)
		assert.Less(t, strings.Index(content, "GROUP"), strings.Index(content, "OPTIONAL"))
	})

	t.Run("ReadSchema", func(t *testing.T) {
		content, err := server.ReadResource(ctx, "qshape://schema")
		require.NoError(t, err)
		assert.Contains(t, content, "Signatures")
		assert.Contains(t, content, "UNSUPPORTED_FEATURE")
	})

	t.Run("ReadUnknownResource", func(t *testing.T) {
		content, err := server.ReadResource(ctx, "qshape://unknown")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown resource")
		assert.Empty(t, content)
	})
}

func TestServer_Run(t *testing.T) {
	t.Parallel()

	server := NewServer(newTestStore(t), newTestPredicates(t), decompose.Options{}, "0.9.0")

	t.Run("RunWithNilStreams", func(t *testing.T) {
		err := server.Run(t.Context(), nil, nil)
		assert.Error(t, err)
	})

	t.Run("Session", func(t *testing.T) {
		in := strings.Join([]string{
			`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
			`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
			`not json`,
			`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
			`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"qshape_predicate","arguments":{"predicate":"1"}}}`,
			`{"jsonrpc":"2.0","id":4,"method":"resources/read","params":{"uri":"qshape://schema"}}`,
			`{"jsonrpc":"2.0","id":5,"method":"bogus"}`,
		}, "\n")

		var out bytes.Buffer
		require.NoError(t, server.Run(t.Context(), strings.NewReader(in), &out))

		var responses []map[string]any
		for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
			var resp map[string]any
			require.NoError(t, json.Unmarshal([]byte(line), &resp))
			responses = append(responses, resp)
		}
		require.Len(t, responses, 5)

		info := responses[0]["result"].(map[string]any)["serverInfo"].(map[string]any)
		assert.Equal(t, "0.9.0", info["version"])

		tools := responses[1]["result"].(map[string]any)["tools"].([]any)
		assert.Len(t, tools, 3)

		content := responses[2]["result"].(map[string]any)["content"].([]any)
		assert.Equal(t, "1\thttp://xmlns.com/foaf/0.1/name", content[0].(map[string]any)["text"])

		assert.Contains(t, responses[3], "result")

		rpcErr := responses[4]["error"].(map[string]any)
		assert.EqualValues(t, -32601, rpcErr["code"])
	})
}
