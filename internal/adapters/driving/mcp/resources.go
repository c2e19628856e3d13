package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/policypal/policypal/internal/core/domain"
)

// uriScheme is the custom URI scheme for PolicyPal resources.
const uriScheme = "policypal://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing ingested orders.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "orders",
		Name:        "orders",
		Description: "List of all ingested Executive Orders",
		MIMEType:    "application/json",
	}, s.handleOrdersResource)

	// Template for a single order's full text.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "orders/{orderNumber}",
		Name:        "order-text",
		Description: "Full text of a specific Executive Order",
		MIMEType:    "text/plain",
	}, s.handleOrderTextResource)
}

// handleOrdersResource returns the list of ingested orders.
func (s *Server) handleOrdersResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Documents == nil {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "[]",
			}},
		}, nil
	}

	docs, err := s.ports.Documents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	type orderInfo struct {
		OrderNumber    string `json:"order_number"`
		Title          string `json:"title"`
		President      string `json:"president,omitempty"`
		Administration string `json:"administration,omitempty"`
		PublishedDate  string `json:"published_date,omitempty"`
	}

	infos := make([]orderInfo, len(docs))
	for i, doc := range docs {
		info := orderInfo{
			OrderNumber:    doc.OrderNumber,
			Title:          doc.Title,
			President:      doc.President,
			Administration: doc.Administration,
		}
		if !doc.PublishedDate.IsZero() {
			info.PublishedDate = doc.PublishedDate.Format("2006-01-02")
		}
		infos[i] = info
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling orders: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleOrderTextResource returns one order's full text by order number.
func (s *Server) handleOrderTextResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Documents == nil {
		return nil, fmt.Errorf("order resources unavailable: %w", domain.ErrNotFound)
	}

	orderNumber := strings.TrimPrefix(req.Params.URI, uriScheme+"orders/")
	if orderNumber == "" || strings.Contains(orderNumber, "/") {
		return nil, fmt.Errorf("invalid order URI %q", req.Params.URI)
	}

	doc, err := s.ports.Documents.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("loading order %s: %w", orderNumber, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     doc.FullText,
		}},
	}, nil
}
