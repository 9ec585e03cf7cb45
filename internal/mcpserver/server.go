// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes jobtrail tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/jobtrail/internal/models"
	"github.com/starford/jobtrail/internal/tracker"
)

// RecordFormatURI is the URI of the record format resource.
const RecordFormatURI = "jobtrail://record-format"

// Server wraps the MCP server with jobtrail tools.
type Server struct {
	mcp *server.MCPServer
	svc *tracker.Service
	now func() time.Time
}

// New creates a new MCP server with all jobtrail tools registered.
func New(svc *tracker.Service) *Server {
	s := &Server{svc: svc, now: time.Now}

	s.mcp = server.NewMCPServer(
		"jobtrail",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_events",
		mcp.WithDescription("List application events (applied, interview, rejected, withdrawn, offer). "+
			"Optionally restrict to an inclusive date range."),
		mcp.WithString("from", mcp.Description("Start date YYYY-MM-DD (requires to)")),
		mcp.WithString("to", mcp.Description("End date YYYY-MM-DD (requires from)")),
	), s.listEvents)

	s.mcp.AddTool(mcp.NewTool("month_stats",
		mcp.WithDescription("Event counts for a month compared with the previous month."),
		mcp.WithNumber("year", mcp.Required(), mcp.Description("Year, e.g. 2024")),
		mcp.WithNumber("month", mcp.Required(), mcp.Description("Month 1-12")),
	), s.monthStats)

	s.mcp.AddTool(mcp.NewTool("calendar_month",
		mcp.WithDescription("Events of a month grouped by day, Monday-first grid order."),
		mcp.WithNumber("year", mcp.Required(), mcp.Description("Year, e.g. 2024")),
		mcp.WithNumber("month", mcp.Required(), mcp.Description("Month 1-12")),
	), s.calendarMonth)

	s.mcp.AddTool(mcp.NewTool("upcoming_interviews",
		mcp.WithDescription("Interviews that have not happened yet, earliest first, with countdowns."),
	), s.upcomingInterviews)

	s.mcp.AddTool(mcp.NewTool("add_record",
		mcp.WithDescription("Append a raw record to a collection. The record MUST follow the "+
			"record format contract; read it first via get_record_contract or the "+
			RecordFormatURI+" resource."),
		mcp.WithString("collection", mcp.Required(),
			mcp.Enum("applications", "interviews", "rejections", "withdrawals", "offers"),
			mcp.Description("Target collection")),
		mcp.WithString("record", mcp.Required(), mcp.Description("Record as a JSON object")),
	), s.addRecord)

	s.mcp.AddTool(mcp.NewTool("get_record_contract",
		mcp.WithDescription("Returns the record format contract. "+
			"Call this before adding records to ensure correct structure."),
	), s.getRecordContract)

	// Resource: record format contract.
	s.mcp.AddResource(
		mcp.NewResource(RecordFormatURI, "Record Format Contract",
			mcp.WithResourceDescription("Fields each collection's records use."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRecordFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func requireMonth(req mcp.CallToolRequest) (int, time.Month, error) {
	year, err := req.RequireInt("year")
	if err != nil {
		return 0, 0, err
	}
	month, err := req.RequireInt("month")
	if err != nil {
		return 0, 0, err
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("month must be between 1 and 12, got %d", month)
	}
	return year, time.Month(month), nil
}

func (s *Server) listEvents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from := req.GetString("from", "")
	to := req.GetString("to", "")

	var (
		events []models.Event
		err    error
	)
	if from == "" && to == "" {
		events, err = s.svc.Events(ctx)
	} else {
		events, err = s.svc.EventsBetween(ctx, from, to)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(events), nil
}

func (s *Server) monthStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	year, month, err := requireMonth(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := s.svc.Report(ctx, year, month)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(report), nil
}

func (s *Server) calendarMonth(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	year, month, err := requireMonth(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cal, err := s.svc.Calendar(ctx, year, month)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	// Only days with events; the full 42-cell grid is noise for an LLM.
	days := make(map[string][]models.Event)
	for _, c := range cal.Cells {
		if c.InCurrentMonth && len(c.Events) > 0 {
			days[c.ISO] = c.Events
		}
	}
	return jsonResult(days), nil
}

func (s *Server) upcomingInterviews(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	now := s.now()
	up, err := s.svc.Upcoming(ctx, now)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if up.Next == nil {
		return mcp.NewToolResultText("no upcoming interviews"), nil
	}
	var views []*tracker.CountdownView
	for _, ev := range append([]models.Event{*up.Next}, up.Later...) {
		v, err := s.svc.Countdown(ctx, ev.ID, now)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		views = append(views, v)
	}
	return jsonResult(views), nil
}

func (s *Server) addRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("collection")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("record")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, ok := models.ParseCollection(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown collection: %s", name)), nil
	}
	var rec models.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil || rec == nil {
		return mcp.NewToolResultError("record must be a JSON object"), nil
	}
	res, err := s.svc.AddRecord(ctx, c, rec, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added: %s/%s", c, res.Record.ID())), nil
}

func (s *Server) getRecordContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RecordFormatContract), nil
}

func (s *Server) readRecordFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      RecordFormatURI,
			MIMEType: "text/markdown",
			Text:     RecordFormatContract,
		},
	}, nil
}
