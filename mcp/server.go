// Package mcp provides the MCP (Model Context Protocol) server for qshape.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Benny93/qshape-go/internal/decompose"
	"github.com/Benny93/qshape-go/internal/ingestion"
	"github.com/Benny93/qshape-go/internal/predicates"
	"github.com/Benny93/qshape-go/internal/storage"
)

// protocolVersion is the MCP revision the stdio loop speaks.
const protocolVersion = "2024-11-05"

// ShapeStore is the read side of a storage.ShapeStore.
type ShapeStore interface {
	TopShapes(ctx context.Context, n int) ([]storage.ShapeFrequency, error)
	ShapeCount(ctx context.Context, signature string) (int64, error)
	FeatureCounts(ctx context.Context) ([]storage.FeatureFrequency, error)
	GetMeta(ctx context.Context, key string) (string, bool, error)
	ShapeTotal() int
}

// Server represents the MCP server.
type Server struct {
	store      ShapeStore
	predicates *predicates.Map
	builder    *decompose.Builder
	impl       *mcp.Implementation
	server     *mcp.Server
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Resource represents an MCP resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// NewServer creates a new MCP server. store may be nil, in which case the
// tools reading stored statistics report that nothing was analyzed.
// Queries decomposed through the server intern their predicates into
// preds.
func NewServer(store ShapeStore, preds *predicates.Map, opts decompose.Options, version string) *Server {
	if preds == nil {
		preds = predicates.New()
	}
	if version == "" {
		version = "dev"
	}
	s := &Server{
		store:      store,
		predicates: preds,
		builder:    decompose.NewBuilder(preds, opts),
		impl:       &mcp.Implementation{Name: "qshape", Version: version},
	}
	s.server = mcp.NewServer(s.impl, nil)
	return s
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []Tool {
	return []Tool{
		{
			Name:        "qshape_decompose",
			Description: "Decompose a SPARQL query into its alternative pattern graphs and report their star shape signature and the query features met.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"query": {Type: "string", Description: "SPARQL query text"},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        "qshape_top_shapes",
			Description: "List the most frequent star shape signatures of the analyzed query logs.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"limit": {Type: "integer", Description: "Maximum number of shapes"},
				},
			},
		},
		{
			Name:        "qshape_predicate",
			Description: "Translate between a predicate URI and its numeric id in shape signatures.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"predicate": {Type: "string", Description: "Predicate id or URI"},
				},
				Required: []string{"predicate"},
			},
		},
	}
}

// ListResources returns all registered resources.
func (s *Server) ListResources() []Resource {
	return []Resource{
		{
			URI:         "qshape://overview",
			Name:        "Analysis Overview",
			Description: "Counters of the analyzed query logs",
			MimeType:    "text/plain",
		},
		{
			URI:         "qshape://features",
			Name:        "Feature Report",
			Description: "How often each query feature was met",
			MimeType:    "text/plain",
		},
		{
			URI:         "qshape://schema",
			Name:        "Shape Schema",
			Description: "How signatures and feature tags are formed",
			MimeType:    "text/plain",
		},
	}
}

// CallTool executes a tool with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case "qshape_decompose":
		query, _ := args["query"].(string)
		return s.handleDecompose(query)
	case "qshape_top_shapes":
		limit, _ := args["limit"].(float64)
		if limit <= 0 {
			limit = 20
		}
		return s.handleTopShapes(ctx, int(limit))
	case "qshape_predicate":
		predicate, _ := args["predicate"].(string)
		return s.handlePredicate(predicate)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case "qshape://overview":
		return s.getOverview(ctx)
	case "qshape://features":
		return s.getFeatures(ctx)
	case "qshape://schema":
		return getSchema(), nil
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

// Run serves JSON-RPC requests read line by line from stdin until stdin
// is exhausted or ctx is cancelled.
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if stdin == nil || stdout == nil {
		return fmt.Errorf("stdin and stdout must not be nil")
	}

	reader := bufio.NewReader(stdin)
	// One compact JSON message per line.
	encoder := json.NewEncoder(stdout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			var req map[string]any
			if jsonErr := json.Unmarshal(line, &req); jsonErr == nil {
				// Notifications carry no id and get no response.
				if _, hasID := req["id"]; hasID {
					if encErr := encoder.Encode(s.handleRequest(ctx, req)); encErr != nil {
						return encErr
					}
				}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (s *Server) handleRequest(ctx context.Context, req map[string]any) map[string]any {
	method, _ := req["method"].(string)
	id := req["id"]

	switch method {
	case "initialize":
		return s.handleInitialize(id)
	case "ping":
		return result(id, map[string]any{})
	case "tools/list":
		return s.handleToolsList(id)
	case "tools/call":
		return s.handleToolsCall(ctx, id, req)
	case "resources/list":
		return s.handleResourcesList(id)
	case "resources/read":
		return s.handleResourcesRead(ctx, id, req)
	default:
		return errorResponse(id, -32601, "Method not found: "+method)
	}
}

func (s *Server) handleInitialize(id any) map[string]any {
	return result(id, map[string]any{
		"protocolVersion": protocolVersion,
		"serverInfo": map[string]any{
			"name":    s.impl.Name,
			"version": s.impl.Version,
		},
		"capabilities": map[string]any{
			"tools":     map[string]any{"listChanged": false},
			"resources": map[string]any{"listChanged": false},
		},
	})
}

func (s *Server) handleToolsList(id any) map[string]any {
	tools := s.ListTools()
	toolList := make([]map[string]any, len(tools))
	for i, tool := range tools {
		toolList[i] = map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": tool.InputSchema,
		}
	}
	return result(id, map[string]any{"tools": toolList})
}

func (s *Server) handleToolsCall(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	name, _ := params["name"].(string)
	args, _ := params["arguments"].(map[string]any)

	text, err := s.CallTool(ctx, name, args)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}
	return result(id, map[string]any{
		"content": []map[string]any{{"type": "text", "text": text}},
	})
}

func (s *Server) handleResourcesList(id any) map[string]any {
	resources := s.ListResources()
	resourceList := make([]map[string]any, len(resources))
	for i, res := range resources {
		resourceList[i] = map[string]any{
			"uri":         res.URI,
			"name":        res.Name,
			"description": res.Description,
			"mimeType":    res.MimeType,
		}
	}
	return result(id, map[string]any{"resources": resourceList})
}

func (s *Server) handleResourcesRead(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	uri, _ := params["uri"].(string)
	content, err := s.ReadResource(ctx, uri)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}
	return result(id, map[string]any{
		"contents": []map[string]any{{"uri": uri, "mimeType": "text/plain", "text": content}},
	})
}

// Tool Handlers

func (s *Server) handleDecompose(query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "No query provided", nil
	}

	a, err := ingestion.Analyze(s.builder, query)
	if err != nil {
		return fmt.Sprintf("Query does not parse: %v\n", err), nil
	}

	var sb strings.Builder
	sb.WriteString("# Query Decomposition\n\n")
	fmt.Fprintf(&sb, "**Outcome:** %s\n", a.Outcome())
	fmt.Fprintf(&sb, "**Features:** %s\n", a.Result.Features)
	if a.Outcome() != ingestion.OutcomeShaped {
		return sb.String(), nil
	}

	decoded, err := ingestion.DecodeSignature(a.Signature, s.predicates)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&sb, "**Signature:** `%s`\n", a.Signature)
	fmt.Fprintf(&sb, "**Predicates:** `%s`\n", decoded)

	fmt.Fprintf(&sb, "\n## Pattern Graphs (%d)\n", len(a.Result.Graphs))
	for i, g := range a.Result.Graphs {
		fmt.Fprintf(&sb, "\n### Graph %d\n\n", i+1)
		for _, e := range g.Edges() {
			uri, _ := s.predicates.URI(e.Predicate)
			fmt.Fprintf(&sb, "- `%s` -[%d: %s]-> `%s`\n", e.Source, e.Predicate, uri, e.Target)
		}
	}
	return sb.String(), nil
}

func (s *Server) handleTopShapes(ctx context.Context, limit int) (string, error) {
	if s.store == nil {
		return "No analysis stored. Run `qshape analyze --store` first.", nil
	}

	top, err := s.store.TopShapes(ctx, limit)
	if err != nil {
		return "", err
	}
	if len(top) == 0 {
		return "No shapes recorded yet.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Top %d of %d shapes\n\n", len(top), s.store.ShapeTotal())
	for i, sh := range top {
		decoded, err := ingestion.DecodeSignature(sh.Signature, s.predicates)
		if err != nil {
			decoded = sh.Signature
		}
		fmt.Fprintf(&sb, "%d. **%d** `%s`\n   %s\n", i+1, sh.Count, sh.Signature, decoded)
	}
	return sb.String(), nil
}

func (s *Server) handlePredicate(predicate string) (string, error) {
	predicate = strings.TrimSpace(predicate)
	if predicate == "" {
		return "No predicate provided", nil
	}

	if id, err := strconv.Atoi(predicate); err == nil {
		uri, ok := s.predicates.URI(id)
		if !ok {
			return fmt.Sprintf("No predicate with id %d", id), nil
		}
		return fmt.Sprintf("%d\t%s", id, uri), nil
	}

	uri := strings.TrimSuffix(strings.TrimPrefix(predicate, "<"), ">")
	id, ok := s.predicates.Lookup(uri)
	if !ok {
		return fmt.Sprintf("Predicate %s has not been seen", uri), nil
	}
	return fmt.Sprintf("%d\t%s", id, uri), nil
}

// Resource Handlers

func (s *Server) getOverview(ctx context.Context) (string, error) {
	var sb strings.Builder
	sb.WriteString("# qshape Overview\n\n")
	fmt.Fprintf(&sb, "**Predicates:** %d\n", s.predicates.Size())
	if s.store == nil {
		sb.WriteString("\nNo analysis stored.\n")
		return sb.String(), nil
	}

	fmt.Fprintf(&sb, "**Distinct shapes:** %d\n", s.store.ShapeTotal())
	for _, m := range []struct{ key, label string }{
		{storage.MetaTotalLines, "Lines"},
		{storage.MetaTotalQuery, "Queries"},
		{storage.MetaValidQuery, "Valid queries"},
		{storage.MetaShapedQuery, "Shaped queries"},
		{storage.MetaLastRun, "Last run"},
	} {
		v, ok, err := s.store.GetMeta(ctx, m.key)
		if err != nil {
			return "", err
		}
		if ok {
			fmt.Fprintf(&sb, "**%s:** %s\n", m.label, v)
		}
	}
	return sb.String(), nil
}

func (s *Server) getFeatures(ctx context.Context) (string, error) {
	var sb strings.Builder
	sb.WriteString("# Query Features\n\n")
	if s.store == nil {
		sb.WriteString("No analysis stored.\n")
		return sb.String(), nil
	}

	features, err := s.store.FeatureCounts(ctx)
	if err != nil {
		return "", err
	}
	sb.WriteString("| Feature | Queries |\n")
	sb.WriteString("|---------|---------|\n")
	for _, f := range features {
		fmt.Fprintf(&sb, "| `%s` | %d |\n", f.Feature, f.Count)
	}
	return sb.String(), nil
}

func getSchema() string {
	var sb strings.Builder
	sb.WriteString("# qshape Shape Schema\n\n")
	sb.WriteString("A query is decomposed into pattern graphs, one per alternative basic graph pattern. ")
	sb.WriteString("Vertices are the terms of the pattern; each triple pattern is an edge labelled with the numeric id of its predicate.\n\n")
	sb.WriteString("## Signatures\n\n")
	sb.WriteString("The star of a vertex is the sorted set of predicate ids on its outgoing edges. ")
	sb.WriteString("A signature lists the distinct stars of all graphs of a query in first-seen order, e.g. `[\"1,2\",\"1\",\"3\"]`.\n\n")
	sb.WriteString("## Feature Tags\n\n")
	sb.WriteString("| Tag | Meaning |\n")
	sb.WriteString("|-----|---------|\n")
	for _, f := range []struct {
		tag     decompose.Feature
		meaning string
	}{
		{decompose.FeatureOptional, "OPTIONAL doubles the alternatives"},
		{decompose.FeatureUnion, "UNION branches become separate alternatives"},
		{decompose.FeatureFilterExists, "EXISTS pattern kept as an auxiliary graph"},
		{decompose.FeatureFilterNotExists, "NOT EXISTS pattern kept as an auxiliary graph"},
		{decompose.FeatureMinus, "MINUS pattern kept as an auxiliary graph"},
		{decompose.FeaturePropertyPath, "property path expanded into triple sequences"},
		{decompose.FeatureVariablePredicate, "variable predicate; query rejected"},
		{decompose.FeatureNegatedProps, "negated property set; query rejected"},
		{decompose.FeatureSubQuery, "nested SELECT"},
		{decompose.FeatureNoGraphPattern, "query has no WHERE clause"},
		{decompose.FeatureEmptyGraphPattern, "pattern without triples"},
		{decompose.FeatureUnsupported, "query rejected, no graphs"},
		{decompose.FeatureTooManyAlternatives, "alternative ceiling exceeded; query rejected"},
	} {
		fmt.Fprintf(&sb, "| `%s` | %s |\n", f.tag, f.meaning)
	}
	return sb.String()
}

// Helper functions

func result(id any, body map[string]any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  body,
	}
}

func errorResponse(id any, code int, message string) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
}
