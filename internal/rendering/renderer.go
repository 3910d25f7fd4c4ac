package rendering

import (
	"bytes"
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	g "maragu.dev/gomponents"
)

// Renderer defines the contract for rendering gomponents nodes.
type Renderer interface {
	// RenderComponent renders a node to a slice of bytes. Useful for HTMX fragments.
	RenderComponent(ctx context.Context, node g.Node) ([]byte, error)

	// RenderPage writes a full HTTP response.
	RenderPage(c echo.Context, status int, node g.Node) error
}

// NodeRenderer renders gomponents nodes.
type NodeRenderer struct{}

// New creates a NodeRenderer.
func New() *NodeRenderer {
	return &NodeRenderer{}
}

// RenderComponent implements the Renderer interface.
func (r *NodeRenderer) RenderComponent(_ context.Context, node g.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := node.Render(&buf); err != nil {
		return nil, fmt.Errorf("failed to render component to bytes: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPage implements the Renderer interface for full HTTP responses.
// The node is rendered to a buffer first so a render error can still
// produce a clean error response.
func (r *NodeRenderer) RenderPage(c echo.Context, status int, node g.Node) error {
	body, err := r.RenderComponent(c.Request().Context(), node)
	if err != nil {
		return err
	}
	return c.HTMLBlob(status, body)
}
