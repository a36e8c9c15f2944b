package server

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/macharden/macharden/internal/report"
	"github.com/macharden/macharden/pkg/catalog"
	"github.com/macharden/macharden/pkg/harden"
)

// Service backs the MCP tools. Calls that touch the host are serialized so
// only one run is active at a time.
type Service struct {
	mu       sync.Mutex
	catalog  *catalog.Catalog
	planner  harden.ActionPlanner
	executor harden.Executor
	config   harden.RunnerConfig
}

func NewService(cat *catalog.Catalog, planner harden.ActionPlanner, executor harden.Executor, config harden.RunnerConfig) *Service {
	return &Service{
		catalog:  cat,
		planner:  planner,
		executor: executor,
		config:   config,
	}
}

func RegisterTools(s *server.MCPServer, svc *Service) {
	s.AddTool(ListRulesTool(), ListRulesHandler(svc))
	s.AddTool(PlanRuleTool(), PlanRuleHandler(svc))
	s.AddTool(RunRuleTool(), RunRuleHandler(svc))
}

func ListRulesTool() mcp.Tool {
	return mcp.NewTool("list_rules",
		mcp.WithDescription("List the hardening rules of the catalog with their summaries, in run order."),
	)
}

func PlanRuleTool() mcp.Tool {
	return mcp.NewTool("plan_rule",
		mcp.WithDescription("Show the commands the given rules would run on this machine now, without running them."),
		mcp.WithString("rule_ids",
			mcp.Required(),
			mcp.Description("Comma-separated rule ids (e.g. 'c17_disable_remote_login,c34_configure_sleep_settings_based_on_cpu')"),
		),
	)
}

func RunRuleTool() mcp.Tool {
	return mcp.NewTool("run_rule",
		mcp.WithDescription("Apply the given hardening rules to this machine. Changes system configuration and may require elevated privileges."),
		mcp.WithString("rule_ids",
			mcp.Required(),
			mcp.Description("Comma-separated rule ids, or 'all' for the whole catalog"),
		),
		mcp.WithBoolean("dry_run",
			mcp.Description("Plan and report without running (default: false)"),
		),
	)
}

func ListRulesHandler(svc *Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var b strings.Builder
		for _, rule := range svc.catalog.Rules {
			fmt.Fprintf(&b, "%s\t%s\n", rule.ID, rule.Summary)
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

func PlanRuleHandler(svc *Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rules, errResult := svc.selectRules(request)
		if errResult != nil {
			return errResult, nil
		}

		config := svc.config
		config.DryRun = true
		text, summary := svc.run(ctx, config, rules)
		if !summary.OK() {
			return mcp.NewToolResultError(text), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func RunRuleHandler(svc *Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rules, errResult := svc.selectRules(request)
		if errResult != nil {
			return errResult, nil
		}

		config := svc.config
		config.DryRun = config.DryRun || request.GetBool("dry_run", false)
		text, summary := svc.run(ctx, config, rules)
		if !summary.OK() {
			return mcp.NewToolResultError(text), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func (s *Service) selectRules(request mcp.CallToolRequest) ([]harden.Rule, *mcp.CallToolResult) {
	raw, err := request.RequireString("rule_ids")
	if err != nil {
		return nil, mcp.NewToolResultError("rule_ids is required")
	}

	ids := parseIDs(raw)
	if len(ids) == 0 {
		return nil, mcp.NewToolResultError("rule_ids is empty")
	}
	if len(ids) == 1 && ids[0] == "all" {
		ids = nil
	}

	rules, err := s.catalog.Select(ids)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("selection error: %v", err))
	}
	return rules, nil
}

func (s *Service) run(ctx context.Context, config harden.RunnerConfig, rules []harden.Rule) (string, harden.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	console := report.NewConsole(&buf, false)
	summary := harden.NewRunner(config, s.planner, s.executor, console).Run(ctx, rules)
	console.Summary(summary)
	return buf.String(), summary
}

func parseIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
