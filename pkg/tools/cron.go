package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/skiff-ai/skiff/pkg/cron"
	"github.com/skiff-ai/skiff/pkg/utils"
)

// CronTool lets the model schedule reminders and recurring prompts.
// Jobs fire back into the inbound queue as messages from sender "cron".
type CronTool struct {
	service *cron.Service
}

func NewCronTool(service *cron.Service) *CronTool {
	return &CronTool{service: service}
}

func (t *CronTool) Name() string {
	return "cron"
}

func (t *CronTool) Description() string {
	return "Schedule reminders and recurring tasks. Actions: add (schedule a job), list (show jobs), remove (delete a job by id)."
}

func (t *CronTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"action": map[string]interface{}{
				"type": "string",
				"enum": []string{"add", "list", "remove"},
			},
			"name": map[string]interface{}{
				"type":        "string",
				"description": "Short name for the job (add)",
			},
			"message": map[string]interface{}{
				"type":        "string",
				"description": "Prompt delivered to the agent when the job fires (add)",
			},
			"at": map[string]interface{}{
				"type":        "string",
				"description": "One-shot RFC3339 time, e.g. 2026-09-01T15:00:00Z (add)",
			},
			"every_seconds": map[string]interface{}{
				"type":        "number",
				"description": "Repeat interval in seconds (add)",
			},
			"cron_expr": map[string]interface{}{
				"type":        "string",
				"description": "Cron expression, e.g. '0 9 * * 1-5' (add)",
			},
			"job_id": map[string]interface{}{
				"type":        "string",
				"description": "Job ID to remove",
			},
		},
		"required": []string{"action"},
	}
}

func (t *CronTool) Execute(ctx context.Context, args map[string]interface{}, tc ToolContext) *ToolResult {
	if t.service == nil {
		return ErrorResult("Scheduler not available")
	}

	action, _ := args["action"].(string)
	switch action {
	case "add":
		return t.add(args, tc)
	case "list":
		return t.list()
	case "remove":
		jobID, _ := args["job_id"].(string)
		if jobID == "" {
			return ErrorResult("job_id is required for remove")
		}
		if !t.service.Remove(jobID) {
			return ErrorResult(fmt.Sprintf("No job with ID %s", jobID))
		}
		return SuccessResult(fmt.Sprintf("Removed job %s", jobID))
	default:
		return ErrorResult(fmt.Sprintf("Unknown action: %s", action))
	}
}

func (t *CronTool) add(args map[string]interface{}, tc ToolContext) *ToolResult {
	message, _ := args["message"].(string)
	if strings.TrimSpace(message) == "" {
		return ErrorResult("message is required for add")
	}
	name, _ := args["name"].(string)
	if name == "" {
		name = utils.Truncate(message, 40)
	}

	schedule, err := scheduleFromArgs(args)
	if err != nil {
		return ErrorResult(err.Error())
	}

	// Fire back into the conversation that scheduled the job.
	job, err := t.service.Add(name, schedule, message, tc.Channel, tc.ChatID)
	if err != nil {
		return ErrorResult(fmt.Sprintf("scheduling job: %v", err)).WithError(err)
	}

	next := time.UnixMilli(job.NextRunMs).Format(time.RFC3339)
	return SuccessResult(fmt.Sprintf("Scheduled job %s (%s), next run %s", job.ID, job.Name, next))
}

func (t *CronTool) list() *ToolResult {
	jobs := t.service.List()
	if len(jobs) == 0 {
		return SuccessResult("No scheduled jobs.")
	}

	var sb strings.Builder
	for _, job := range jobs {
		next := time.UnixMilli(job.NextRunMs).Format(time.RFC3339)
		state := ""
		if !job.Enabled {
			state = " (disabled)"
		}
		fmt.Fprintf(&sb, "- %s: %s, next %s%s\n", job.ID, job.Name, next, state)
	}
	return SuccessResult(sb.String())
}

func scheduleFromArgs(args map[string]interface{}) (cron.Schedule, error) {
	if at, ok := args["at"].(string); ok && at != "" {
		if _, err := time.Parse(time.RFC3339, at); err != nil {
			return cron.Schedule{}, fmt.Errorf("invalid 'at' time %q: use RFC3339", at)
		}
		return cron.Schedule{Kind: cron.ScheduleKindAt, At: at}, nil
	}
	if every, ok := args["every_seconds"].(float64); ok && every > 0 {
		return cron.Schedule{Kind: cron.ScheduleKindEvery, EveryMs: int64(every * 1000)}, nil
	}
	if expr, ok := args["cron_expr"].(string); ok && expr != "" {
		return cron.Schedule{Kind: cron.ScheduleKindCron, Expr: expr}, nil
	}
	return cron.Schedule{}, fmt.Errorf("one of at, every_seconds, cron_expr is required")
}
