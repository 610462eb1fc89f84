package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"brandpatrol/internal/models"
)

func registerTools(s *server.MCPServer, deps Deps) {
	// detect_listing
	detectTool := mcp.NewTool("detect_listing",
		mcp.WithDescription("Judge whether a marketplace listing is a pirated copy of a genuine product"),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Listing title"),
		),
		mcp.WithString("shop_name",
			mcp.Description("Seller shop name"),
		),
		mcp.WithNumber("price",
			mcp.Description("Listing price"),
		),
		mcp.WithString("description",
			mcp.Description("Listing description"),
		),
		mcp.WithString("platform",
			mcp.Description("Source platform id"),
		),
	)
	s.AddTool(detectTool, handleDetectListing(deps))

	// list_reports
	listTool := mcp.NewTool("list_reports",
		mcp.WithDescription("List filed abuse reports, newest first"),
		mcp.WithString("status",
			mcp.Description("Filter by status: pending, submitted, failed"),
		),
		mcp.WithString("platform",
			mcp.Description("Filter by platform id"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum records to return (default: 20)"),
		),
	)
	s.AddTool(listTool, handleListReports(deps))

	// report_stats
	statsTool := mcp.NewTool("report_stats",
		mcp.WithDescription("Report counts grouped by platform and status"),
	)
	s.AddTool(statsTool, handleReportStats(deps))

	// catalog_stats
	catalogTool := mcp.NewTool("catalog_stats",
		mcp.WithDescription("Genuine-product catalog counts grouped by platform and category"),
	)
	s.AddTool(catalogTool, handleCatalogStats(deps))
}

func handleDetectListing(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title := request.GetString("title", "")
		if title == "" {
			return mcp.NewToolResultError("title is required"), nil
		}
		obs := models.ProductObservation{
			Title:       title,
			ShopName:    request.GetString("shop_name", ""),
			Price:       request.GetFloat("price", 0),
			Description: request.GetString("description", ""),
			Platform:    request.GetString("platform", ""),
		}
		obs.RawText = obs.Title + " " + obs.Description

		verdict := deps.Detector.Detect(obs)
		data, _ := json.MarshalIndent(verdict, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
}

func handleListReports(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		status := request.GetString("status", "")
		platform := request.GetString("platform", "")
		limit := request.GetInt("limit", 20)

		records := deps.Reports.List()
		if status != "" || platform != "" {
			filtered := records[:0]
			for _, rec := range records {
				if status != "" && string(rec.Status) != status {
					continue
				}
				if platform != "" && rec.Platform != platform {
					continue
				}
				filtered = append(filtered, rec)
			}
			records = filtered
		}
		if len(records) > limit {
			records = records[:limit]
		}

		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode error: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func handleReportStats(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, _ := json.MarshalIndent(deps.Reports.Stats(), "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
}

func handleCatalogStats(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, _ := json.MarshalIndent(deps.Catalog.Stats(), "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
}
