package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/humbal1/pierce-doc-links-scrapper/models"
)

// registerTools adds every tool backed by c to s.
func registerTools(s *server.MCPServer, c *apiClient) {
	s.AddTool(mcp.NewTool("start_job",
		mcp.WithDescription("Start a scrape of the Pierce County recorded-documents site for one document type. Returns the job ID; set wait to block until the job finishes."),
		mcp.WithString("document_type",
			mcp.Required(),
			mcp.Description("Exact document type label as shown on the search form, e.g. 'TRUSTEE SALE'"),
		),
		mcp.WithBoolean("wait",
			mcp.Description("Wait for the job to finish and return its result (default: false)"),
		),
	), handleStartJob(c))

	s.AddTool(mcp.NewTool("get_job",
		mcp.WithDescription("Get the state, progress log and result of a scrape job."),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("Job ID returned by start_job"),
		),
	), handleGetJob(c))

	s.AddTool(mcp.NewTool("list_jobs",
		mcp.WithDescription("List every known scrape job with its state."),
	), handleListJobs(c))

	s.AddTool(mcp.NewTool("auto_sync",
		mcp.WithDescription("Start a job for every spreadsheet row whose Search Status is 'Start'."),
	), handleAutoSync(c))

	s.AddTool(mcp.NewTool("list_results",
		mcp.WithDescription("List saved result files, newest first."),
	), handleListResults(c))
}

func handleStartJob(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		docType, err := request.RequireString("document_type")
		if err != nil || strings.TrimSpace(docType) == "" {
			return mcp.NewToolResultError("document_type is required"), nil
		}

		var resp models.StartJobResponse
		if err := c.do(ctx, http.MethodPost, "/api/v1/jobs", models.StartJobRequest{DocumentType: docType}, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !request.GetBool("wait", false) {
			return mcp.NewToolResultText(fmt.Sprintf("%s\nJob ID: %s", resp.Message, resp.JobID)), nil
		}

		job, err := c.waitForJob(ctx, resp.JobID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("waiting for job %s failed: %v", resp.JobID, err)), nil
		}
		return mcp.NewToolResultText(formatJob(job, false)), nil
	}
}

func handleGetJob(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("job_id")
		if err != nil {
			return mcp.NewToolResultError("job_id is required"), nil
		}
		var resp models.JobResponse
		if err := c.do(ctx, http.MethodGet, "/api/v1/jobs/"+id, nil, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatJob(resp.Job, true)), nil
	}
}

func handleListJobs(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var resp models.JobsResponse
		if err := c.do(ctx, http.MethodGet, "/api/v1/jobs", nil, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(resp.Jobs) == 0 {
			return mcp.NewToolResultText("No jobs."), nil
		}
		var sb strings.Builder
		for _, j := range resp.Jobs {
			sb.WriteString(fmt.Sprintf("%s  %-9s  %s", j.ID, j.State, j.DocumentType))
			if j.Result != nil {
				sb.WriteString("  " + j.Result.Message)
			}
			sb.WriteString("\n")
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleAutoSync(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var resp models.AutoSyncResponse
		if err := c.do(ctx, http.MethodPost, "/api/v1/auto-sync", nil, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		var sb strings.Builder
		sb.WriteString(resp.Message + "\n")
		for _, j := range resp.Jobs {
			sb.WriteString(fmt.Sprintf("row %s: %s (%s)\n", j.RowRef, j.DocumentType, j.JobID))
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleListResults(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var resp models.ResultsResponse
		if err := c.do(ctx, http.MethodGet, "/api/v1/results", nil, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(resp.Files) == 0 {
			return mcp.NewToolResultText("No result files."), nil
		}
		var sb strings.Builder
		for _, f := range resp.Files {
			sb.WriteString(fmt.Sprintf("%s  %.2f KB  %s\n", f.Filename, f.SizeKB, f.Created))
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// formatJob renders a job summary, optionally with its progress log.
func formatJob(j models.Job, withProgress bool) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Job %s: %s (%s)\n", j.ID, j.State, j.DocumentType))
	if j.Result != nil {
		sb.WriteString(fmt.Sprintf("Result: %s, %d records\n", j.Result.Message, j.Result.RecordCount))
		if j.Result.OutputRef != "" {
			sb.WriteString("File: " + j.Result.OutputRef + "\n")
		}
	}
	if withProgress && len(j.Progress) > 0 {
		sb.WriteString("\nProgress:\n")
		for _, p := range j.Progress {
			sb.WriteString(fmt.Sprintf("  %s  %s\n", p.Time.Format("15:04:05"), p.Message))
		}
	}
	return sb.String()
}
