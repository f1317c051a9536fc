package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Manage registered assets",
}

var assetPayloadFile string

// loadPayload reads the asset payload from --payload-file or inline JSON arg.
func loadPayload(inline string) (map[string]any, error) {
	var data []byte
	switch {
	case assetPayloadFile != "":
		b, err := os.ReadFile(assetPayloadFile)
		if err != nil {
			return nil, fmt.Errorf("read payload file: %w", err)
		}
		data = b
	case inline != "":
		data = []byte(inline)
	default:
		return nil, fmt.Errorf("payload is required (inline JSON argument or --payload-file)")
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}
	return payload, nil
}

var assetsCreateCmd = &cobra.Command{
	Use:   "create <logicalKey> [payloadJSON]",
	Short: "Register a new asset",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		inline := ""
		if len(args) > 1 {
			inline = args[1]
		}
		payload, err := loadPayload(inline)
		if err != nil {
			return err
		}

		var result map[string]any
		err = newClient().postJSON(apiBase+"/assets", map[string]any{
			"logicalKey": args[0],
			"payload":    payload,
		}, &result)
		if err != nil {
			return fmt.Errorf("failed to create asset: %w", err)
		}

		return printOutput(result)
	},
}

var assetsGetCmd = &cobra.Command{
	Use:   "get <logicalKey>",
	Short: "Get the latest snapshot of an asset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var result map[string]any
		if err := newClient().getJSON(apiBase+"/assets/"+args[0], &result); err != nil {
			return fmt.Errorf("failed to get asset: %w", err)
		}
		return printOutput(result)
	},
}

var assetExpectedVersion int

var assetsUpdateCmd = &cobra.Command{
	Use:   "update <logicalKey> [payloadJSON]",
	Short: "Append a new version to an asset",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if assetExpectedVersion < 1 {
			return fmt.Errorf("--expected-version is required")
		}
		inline := ""
		if len(args) > 1 {
			inline = args[1]
		}
		payload, err := loadPayload(inline)
		if err != nil {
			return err
		}

		var result map[string]any
		err = newClient().putJSON(apiBase+"/assets/"+args[0], map[string]any{
			"expectedVersion": assetExpectedVersion,
			"payload":         payload,
		}, &result)
		if err != nil {
			return fmt.Errorf("failed to update asset: %w", err)
		}

		return printOutput(result)
	},
}

var assetsDeleteCmd = &cobra.Command{
	Use:   "delete <logicalKey>",
	Short: "Soft-delete an asset (history stays readable)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().delete(apiBase+"/assets/"+args[0], nil); err != nil {
			return fmt.Errorf("failed to delete asset: %w", err)
		}
		fmt.Printf("asset %s deleted\n", args[0])
		return nil
	},
}

var assetsHistoryCmd = &cobra.Command{
	Use:   "history <logicalKey>",
	Short: "List all versions of an asset, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var result struct {
			LogicalKey string `json:"logicalKey"`
			Snapshots  []struct {
				SnapshotID string `json:"snapshotId"`
				Version    int    `json:"version"`
				IsLatest   bool   `json:"isLatest"`
				CreatedBy  string `json:"createdBy"`
				CreatedAt  string `json:"createdAt"`
			} `json:"snapshots"`
		}
		if err := newClient().getJSON(apiBase+"/assets/"+args[0]+"/history", &result); err != nil {
			return fmt.Errorf("failed to get history: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(result)
		}

		headers := []string{"Version", "Latest", "Snapshot", "Created By", "Created"}
		rows := make([][]string, 0, len(result.Snapshots))
		for _, s := range result.Snapshots {
			latest := ""
			if s.IsLatest {
				latest = "*"
			}
			rows = append(rows, []string{
				fmt.Sprintf("%d", s.Version),
				latest,
				truncate(s.SnapshotID, 12),
				s.CreatedBy,
				s.CreatedAt,
			})
		}
		printTable(headers, rows)
		return nil
	},
}

var assetsChangesCmd = &cobra.Command{
	Use:   "changes <logicalKey>",
	Short: "Show per-version change sets of an asset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var result map[string]any
		if err := newClient().getJSON(apiBase+"/assets/"+args[0]+"/changes", &result); err != nil {
			return fmt.Errorf("failed to get changes: %w", err)
		}
		return printOutput(result)
	},
}

func init() {
	assetsCreateCmd.Flags().StringVar(&assetPayloadFile, "payload-file", "", "Path to JSON payload file")
	assetsUpdateCmd.Flags().StringVar(&assetPayloadFile, "payload-file", "", "Path to JSON payload file")
	assetsUpdateCmd.Flags().IntVar(&assetExpectedVersion, "expected-version", 0, "Version the update is based on")

	assetsCmd.AddCommand(assetsCreateCmd)
	assetsCmd.AddCommand(assetsGetCmd)
	assetsCmd.AddCommand(assetsUpdateCmd)
	assetsCmd.AddCommand(assetsDeleteCmd)
	assetsCmd.AddCommand(assetsHistoryCmd)
	assetsCmd.AddCommand(assetsChangesCmd)

	rootCmd.AddCommand(assetsCmd)
}
