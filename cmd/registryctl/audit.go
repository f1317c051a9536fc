package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Browse the audit trail",
}

var (
	auditEventType string
	auditPageSize  int
	auditPageToken string
)

var auditListCmd = &cobra.Command{
	Use:   "list [subjectType subjectKey]",
	Short: "List audit events, optionally scoped to one subject",
	Args:  cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := fmt.Sprintf("%s/audit/events?pageSize=%d", apiBase, auditPageSize)
		if len(args) == 2 {
			path = fmt.Sprintf("%s/audit/events/%s/%s?pageSize=%d", apiBase, args[0], args[1], auditPageSize)
		} else if len(args) == 1 {
			return fmt.Errorf("subject scoping requires both subjectType and subjectKey")
		}
		if auditEventType != "" {
			path += "&eventType=" + auditEventType
		}
		if auditPageToken != "" {
			path += "&pageToken=" + auditPageToken
		}

		var result struct {
			Events []struct {
				ID          string `json:"id"`
				EventType   string `json:"eventType"`
				Actor       string `json:"actor"`
				SubjectType string `json:"subjectType"`
				SubjectKey  string `json:"subjectKey"`
				Action      string `json:"action"`
				Outcome     string `json:"outcome"`
				CreatedAt   string `json:"createdAt"`
			} `json:"events"`
			NextPageToken string `json:"nextPageToken"`
			TotalSize     int    `json:"totalSize"`
		}
		if err := newClient().getJSON(path, &result); err != nil {
			return fmt.Errorf("failed to list audit events: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(result)
		}

		headers := []string{"ID", "Type", "Actor", "Subject", "Action", "Outcome", "Created"}
		rows := make([][]string, 0, len(result.Events))
		for _, e := range result.Events {
			rows = append(rows, []string{
				truncate(e.ID, 12),
				e.EventType,
				e.Actor,
				fmt.Sprintf("%s/%s", e.SubjectType, truncate(e.SubjectKey, 24)),
				e.Action,
				e.Outcome,
				e.CreatedAt,
			})
		}
		printTable(headers, rows)
		fmt.Printf("Total: %d\n", result.TotalSize)
		if result.NextPageToken != "" {
			fmt.Printf("Next page token: %s\n", result.NextPageToken)
		}
		return nil
	},
}

var auditGetCmd = &cobra.Command{
	Use:   "get <eventId>",
	Short: "Get one audit event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var result map[string]any
		if err := newClient().getJSON(apiBase+"/audit/events/"+args[0], &result); err != nil {
			return fmt.Errorf("failed to get audit event: %w", err)
		}
		return printOutput(result)
	},
}

func init() {
	auditListCmd.Flags().StringVar(&auditEventType, "event-type", "", "Filter by event type")
	auditListCmd.Flags().IntVar(&auditPageSize, "page-size", 20, "Page size")
	auditListCmd.Flags().StringVar(&auditPageToken, "page-token", "", "Page token from a previous listing")

	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditGetCmd)

	rootCmd.AddCommand(auditCmd)
}
