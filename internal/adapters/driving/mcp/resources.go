package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quietpages/bookchat/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for bookchat resources.
	uriScheme = "bookchat://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Index == nil {
		return
	}

	// Static resource describing the index.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "index",
		Name:        "index",
		Description: "Embedding model, dimensions and files of the chunk index",
		MIMEType:    "application/json",
	}, s.handleIndexResource)

	// Template for the excerpts of one file.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "files/{+path}",
		Name:        "file-excerpts",
		Description: "Indexed excerpts of one book file, in reading order",
		MIMEType:    "text/plain",
	}, s.handleFileResource)
}

// handleIndexResource returns a summary of the chunk index.
func (s *Server) handleIndexResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	index, err := s.ports.Index.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading index: %w", err)
	}

	type fileInfo struct {
		Path   string `json:"path"`
		Chunks int    `json:"chunks"`
	}
	type indexInfo struct {
		Model      string     `json:"model"`
		Dimensions int        `json:"dimensions"`
		Chunks     int        `json:"chunks"`
		Files      []fileInfo `json:"files"`
	}

	counts := make(map[string]int)
	for _, c := range index.Chunks() {
		counts[c.FilePath]++
	}
	info := indexInfo{
		Model:      index.Model(),
		Dimensions: index.Dimensions(),
		Chunks:     index.Len(),
		Files:      make([]fileInfo, 0, len(counts)),
	}
	for path, n := range counts {
		info.Files = append(info.Files, fileInfo{Path: path, Chunks: n})
	}
	sort.Slice(info.Files, func(i, j int) bool { return info.Files[i].Path < info.Files[j].Path })

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling index: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleFileResource returns the excerpts of a single file.
func (s *Server) handleFileResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	path := extractFilePath(req.Params.URI)
	if path == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	index, err := s.ports.Index.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading index: %w", err)
	}

	var chunks []domain.Chunk
	for _, c := range index.Chunks() {
		if c.FilePath == path {
			chunks = append(chunks, c)
		}
	}
	if len(chunks) == 0 {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].ChunkIndex < chunks[j].ChunkIndex })

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     strings.Join(texts, "\n\n"),
		}},
	}, nil
}

// extractFilePath extracts the file path from a URI like bookchat://files/{path}.
func extractFilePath(uri string) string {
	const prefix = uriScheme + "files/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
