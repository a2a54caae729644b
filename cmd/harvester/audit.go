package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/user/illust-harvester/internal/adapter/jsonl"
	"github.com/user/illust-harvester/internal/repository"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect and prune the download audit log",
}

var auditReadCmd = &cobra.Command{
	Use:   "read",
	Short: "Show one page of the audit log",
	Args:  cobra.NoArgs,
	RunE:  runAuditRead,
}

var auditDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete matching audit records and, optionally, their image",
	Long: `Delete every audit line equal to the given JSON record.

--image must be the file a record in the log points at; other paths are refused.

Examples:
  harvester audit delete --record '{"number":"P1_3", ...}' --image ./images/image_day_p1_3_1712.jpg`,
	Args: cobra.NoArgs,
	RunE: runAuditDelete,
}

func init() {
	auditReadCmd.Flags().Int("page", 1, "Page number, starting at 1")
	auditReadCmd.Flags().Int("size", jsonl.DefaultPageSize, "Records per page")

	auditDeleteCmd.Flags().String("record", "", "Audit record as JSON")
	auditDeleteCmd.Flags().String("image", "", "Image file to delete with the record")
	_ = auditDeleteCmd.MarkFlagRequired("record")

	auditCmd.AddCommand(auditReadCmd, auditDeleteCmd)
	rootCmd.AddCommand(auditCmd)
}

func runAuditRead(cmd *cobra.Command, _ []string) error {
	page, _ := cmd.Flags().GetInt("page")
	size, _ := cmd.Flags().GetInt("size")

	a, err := newApp(cmd.Context(), backends{})
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.auditFile.ReadPage(cmd.Context(), page, size)
	if err != nil {
		return err
	}

	t := newTable()
	t.SetTitle(a.auditFile.Path())
	t.AppendHeader(table.Row{"#", "Type", "Image", "Author", "Title", "Downloaded"})
	for _, item := range result.Items {
		t.AppendRow(table.Row{item["number"], item["type"], item["imageName"], item["author"], item["title"], item["DownloadTime"]})
	}
	t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("page %d of %d", result.Page, result.TotalPages), fmt.Sprintf("%d records", result.TotalItems)})
	t.Render()
	return nil
}

func runAuditDelete(cmd *cobra.Command, _ []string) error {
	raw, _ := cmd.Flags().GetString("record")
	image, _ := cmd.Flags().GetString("image")

	var record map[string]any
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return fmt.Errorf("--record is not a JSON object: %w", err)
	}

	a, err := newApp(cmd.Context(), backends{})
	if err != nil {
		return err
	}
	defer a.close()

	if image != "" {
		err := a.auditFile.DeleteImage(cmd.Context(), image)
		if errors.Is(err, repository.ErrUntrackedImage) {
			return err
		}
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}
	}

	n, err := a.auditFile.DeleteRecord(cmd.Context(), record)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d record(s)\n", n)
	return nil
}
