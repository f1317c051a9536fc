package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var inspectionsCmd = &cobra.Command{
	Use:   "inspections",
	Short: "Manage inspections and approvals",
}

var (
	inspectionNotes     string
	inspectionDate      string
	inspectionInspector string
	inspectionLead      string
	inspectionHead      string
)

var inspectionsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an inspection",
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{
			"notes":              inspectionNotes,
			"inspectorId":        inspectionInspector,
			"leadAssignedUserId": inspectionLead,
			"headAssignedUserId": inspectionHead,
		}
		if inspectionDate != "" {
			body["date"] = inspectionDate
		}

		var result map[string]any
		if err := newClient().postJSON(apiBase+"/inspections", body, &result); err != nil {
			return fmt.Errorf("failed to create inspection: %w", err)
		}
		return printOutput(result)
	},
}

var (
	listStatus    string
	listInspector string
	listPageSize  int
	listPageToken string
)

var inspectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List inspections, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := fmt.Sprintf("%s/inspections?pageSize=%d", apiBase, listPageSize)
		if listStatus != "" {
			path += "&status=" + listStatus
		}
		if listInspector != "" {
			path += "&inspectorId=" + listInspector
		}
		if listPageToken != "" {
			path += "&pageToken=" + listPageToken
		}

		var result struct {
			Inspections []struct {
				ID          string `json:"id"`
				Date        string `json:"date"`
				InspectorID string `json:"inspectorId"`
				Status      string `json:"status"`
				Lead        struct {
					Signed bool `json:"signed"`
				} `json:"lead"`
				Head struct {
					Signed bool `json:"signed"`
				} `json:"head"`
			} `json:"inspections"`
			NextPageToken string `json:"nextPageToken"`
			TotalSize     int    `json:"totalSize"`
		}
		if err := newClient().getJSON(path, &result); err != nil {
			return fmt.Errorf("failed to list inspections: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(result)
		}

		headers := []string{"ID", "Date", "Inspector", "Status", "Lead", "Head"}
		rows := make([][]string, 0, len(result.Inspections))
		for _, insp := range result.Inspections {
			rows = append(rows, []string{
				truncate(insp.ID, 12),
				insp.Date,
				insp.InspectorID,
				insp.Status,
				signedMark(insp.Lead.Signed),
				signedMark(insp.Head.Signed),
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

func signedMark(signed bool) string {
	if signed {
		return "signed"
	}
	return "-"
}

var inspectionsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get an inspection with its items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var result map[string]any
		if err := newClient().getJSON(apiBase+"/inspections/"+args[0], &result); err != nil {
			return fmt.Errorf("failed to get inspection: %w", err)
		}
		return printOutput(result)
	},
}

var inspectionsStartCmd = &cobra.Command{
	Use:   "start <id>",
	Short: "Start a pending inspection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var result map[string]any
		if err := newClient().postJSON(apiBase+"/inspections/"+args[0]+"/start", map[string]any{}, &result); err != nil {
			return fmt.Errorf("failed to start inspection: %w", err)
		}
		return printOutput(result)
	},
}

var inspectionsCancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancel an inspection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var result map[string]any
		if err := newClient().postJSON(apiBase+"/inspections/"+args[0]+"/cancel", map[string]any{}, &result); err != nil {
			return fmt.Errorf("failed to cancel inspection: %w", err)
		}
		return printOutput(result)
	},
}

var (
	itemLogicalKey   string
	itemAssetVersion int
)

var inspectionsAddItemCmd = &cobra.Command{
	Use:   "add-item <id>",
	Short: "Link an asset snapshot to an inspection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if itemLogicalKey == "" {
			return fmt.Errorf("--asset is required")
		}

		var result map[string]any
		err := newClient().postJSON(apiBase+"/inspections/"+args[0]+"/items", map[string]any{
			"logicalKey":   itemLogicalKey,
			"assetVersion": itemAssetVersion,
		}, &result)
		if err != nil {
			return fmt.Errorf("failed to add item: %w", err)
		}
		return printOutput(result)
	},
}

var signatureData string

var inspectionsSignCmd = &cobra.Command{
	Use:   "sign <id> <role>",
	Short: "Sign an approval slot (role: lead or head)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if signatureData == "" {
			return fmt.Errorf("--signature is required")
		}

		var result map[string]any
		err := newClient().postJSON(
			fmt.Sprintf("%s/inspections/%s/approvals/%s", apiBase, args[0], args[1]),
			map[string]any{"signatureData": signatureData},
			&result)
		if err != nil {
			return fmt.Errorf("failed to sign: %w", err)
		}
		return printOutput(result)
	},
}

var inspectionsRevokeCmd = &cobra.Command{
	Use:   "revoke <id> <role>",
	Short: "Revoke a signature (role: lead or head)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var result map[string]any
		err := newClient().delete(
			fmt.Sprintf("%s/inspections/%s/approvals/%s", apiBase, args[0], args[1]),
			&result)
		if err != nil {
			return fmt.Errorf("failed to revoke: %w", err)
		}
		return printOutput(result)
	},
}

func init() {
	inspectionsCreateCmd.Flags().StringVar(&inspectionNotes, "notes", "", "Inspection notes")
	inspectionsCreateCmd.Flags().StringVar(&inspectionDate, "date", "", "Inspection date (RFC3339)")
	inspectionsCreateCmd.Flags().StringVar(&inspectionInspector, "inspector", "", "Inspector user id (default: acting user)")
	inspectionsCreateCmd.Flags().StringVar(&inspectionLead, "lead", "", "Assigned lead user id")
	inspectionsCreateCmd.Flags().StringVar(&inspectionHead, "head", "", "Assigned head user id")

	inspectionsListCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status")
	inspectionsListCmd.Flags().StringVar(&listInspector, "inspector", "", "Filter by inspector user id")
	inspectionsListCmd.Flags().IntVar(&listPageSize, "page-size", 20, "Page size")
	inspectionsListCmd.Flags().StringVar(&listPageToken, "page-token", "", "Page token from a previous listing")

	inspectionsAddItemCmd.Flags().StringVar(&itemLogicalKey, "asset", "", "Logical key of the asset")
	inspectionsAddItemCmd.Flags().IntVar(&itemAssetVersion, "version", 0, "Asset version (default: latest)")

	inspectionsSignCmd.Flags().StringVar(&signatureData, "signature", "", "Signature payload (e.g. base64 image)")

	inspectionsCmd.AddCommand(inspectionsCreateCmd)
	inspectionsCmd.AddCommand(inspectionsListCmd)
	inspectionsCmd.AddCommand(inspectionsGetCmd)
	inspectionsCmd.AddCommand(inspectionsStartCmd)
	inspectionsCmd.AddCommand(inspectionsCancelCmd)
	inspectionsCmd.AddCommand(inspectionsAddItemCmd)
	inspectionsCmd.AddCommand(inspectionsSignCmd)
	inspectionsCmd.AddCommand(inspectionsRevokeCmd)

	rootCmd.AddCommand(inspectionsCmd)
}
