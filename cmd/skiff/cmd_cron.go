// Skiff - Async conversational agent runtime
// License: MIT

package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/skiff-ai/skiff/pkg/bus"
	"github.com/skiff-ai/skiff/pkg/cron"
)

func cronCmd() {
	if len(os.Args) < 3 {
		cronHelp()
		return
	}

	// The store is shared with the gateway; commands here only edit it,
	// the scheduler lives in the gateway process.
	service := cron.NewService(getCronStorePath(), bus.NewMessageBus())

	switch os.Args[2] {
	case "list":
		cronListCmd(service)
	case "add":
		cronAddCmd(service, os.Args[3:])
	case "remove", "rm":
		if len(os.Args) < 4 {
			fmt.Println("Usage: skiff cron remove <job-id>")
			return
		}
		cronRemoveCmd(service, os.Args[3])
	case "enable", "disable":
		if len(os.Args) < 4 {
			fmt.Printf("Usage: skiff cron %s <job-id>\n", os.Args[2])
			return
		}
		cronToggleCmd(service, os.Args[3], os.Args[2] == "enable")
	default:
		fmt.Printf("Unknown cron command: %s\n", os.Args[2])
		cronHelp()
	}
}

func cronHelp() {
	fmt.Println("Usage: skiff cron <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  list                      List scheduled jobs")
	fmt.Println("  add [flags]               Add a job")
	fmt.Println("  remove <job-id>           Remove a job")
	fmt.Println("  enable|disable <job-id>   Toggle a job")
	fmt.Println()
	fmt.Println("Add flags:")
	fmt.Println("  -n <name>        Job name")
	fmt.Println("  -m <message>     Prompt delivered to the agent (required)")
	fmt.Println("  --every <secs>   Fixed interval schedule")
	fmt.Println("  --cron <expr>    Cron expression schedule")
	fmt.Println("  --at <rfc3339>   One-shot schedule")
	fmt.Println("  --channel <ch>   Delivery channel (default cli)")
	fmt.Println("  --chat <id>      Delivery chat ID (default cron)")
}

func cronListCmd(service *cron.Service) {
	jobs := service.List()
	if len(jobs) == 0 {
		fmt.Println("No scheduled jobs.")
		return
	}

	for _, job := range jobs {
		status := ""
		if !job.Enabled {
			status = " (disabled)"
		}
		next := "-"
		if job.NextRunMs > 0 {
			next = time.UnixMilli(job.NextRunMs).Format(time.RFC3339)
		}
		fmt.Printf("%s  %s%s\n", job.ID, job.Name, status)
		fmt.Printf("    schedule: %s  next: %s\n", describeSchedule(job.Schedule), next)
		fmt.Printf("    message: %s\n", job.Message)
	}
}

func cronAddCmd(service *cron.Service, args []string) {
	name := ""
	message := ""
	channel := "cli"
	chatID := "cron"
	var schedule *cron.Schedule

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-n", "--name":
			if i+1 < len(args) {
				name = args[i+1]
				i++
			}
		case "-m", "--message":
			if i+1 < len(args) {
				message = args[i+1]
				i++
			}
		case "--every":
			if i+1 < len(args) {
				secs, err := strconv.ParseInt(args[i+1], 10, 64)
				if err != nil || secs <= 0 {
					fmt.Printf("Invalid --every value: %s\n", args[i+1])
					return
				}
				schedule = &cron.Schedule{Kind: cron.ScheduleKindEvery, EveryMs: secs * 1000}
				i++
			}
		case "--cron":
			if i+1 < len(args) {
				schedule = &cron.Schedule{Kind: cron.ScheduleKindCron, Expr: args[i+1]}
				i++
			}
		case "--at":
			if i+1 < len(args) {
				if _, err := time.Parse(time.RFC3339, args[i+1]); err != nil {
					fmt.Printf("Invalid --at value (want RFC3339): %s\n", args[i+1])
					return
				}
				schedule = &cron.Schedule{Kind: cron.ScheduleKindAt, At: args[i+1]}
				i++
			}
		case "--channel":
			if i+1 < len(args) {
				channel = args[i+1]
				i++
			}
		case "--chat":
			if i+1 < len(args) {
				chatID = args[i+1]
				i++
			}
		}
	}

	if message == "" {
		fmt.Println("A message is required (-m).")
		return
	}
	if schedule == nil {
		fmt.Println("A schedule is required (--every, --cron or --at).")
		return
	}
	if name == "" {
		name = message
	}

	job, err := service.Add(name, *schedule, message, channel, chatID)
	if err != nil {
		fmt.Printf("Error adding job: %v\n", err)
		return
	}
	fmt.Printf("Added job %s (%s)\n", job.ID, job.Name)
}

func cronRemoveCmd(service *cron.Service, id string) {
	if service.Remove(id) {
		fmt.Printf("Removed job %s\n", id)
	} else {
		fmt.Printf("Job not found: %s\n", id)
	}
}

func cronToggleCmd(service *cron.Service, id string, enabled bool) {
	if service.SetEnabled(id, enabled) {
		state := "disabled"
		if enabled {
			state = "enabled"
		}
		fmt.Printf("Job %s %s\n", id, state)
	} else {
		fmt.Printf("Job not found: %s\n", id)
	}
}

func describeSchedule(s cron.Schedule) string {
	switch s.Kind {
	case cron.ScheduleKindAt:
		return fmt.Sprintf("at %s", s.At)
	case cron.ScheduleKindEvery:
		return fmt.Sprintf("every %ds", s.EveryMs/1000)
	case cron.ScheduleKindCron:
		return fmt.Sprintf("cron %q", s.Expr)
	}
	return string(s.Kind)
}
