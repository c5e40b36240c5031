package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/eiken/internal/report"
)

func newReportCommand() *cobra.Command {
	var (
		templatePath string
		outputDir    string
		pdf          bool
	)
	command := &cobra.Command{
		Use:   "report <session-id>",
		Short: "Export the results of a session as Markdown, and optionally PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := parseID(args[0])
			if err != nil {
				return err
			}
			cfg, c, err := newClient()
			if err != nil {
				return err
			}
			defer func() {
				_ = c.Close()
			}()

			tmpl, err := report.ParseTemplate(templatePath)
			if err != nil {
				return err
			}
			results, err := c.Results(cmd.Context(), sessionID)
			if err != nil {
				return err
			}

			if outputDir == "" {
				outputDir = cfg.Client.ReportDirectory
			}
			mdPath, err := report.WriteMarkdown(outputDir, tmpl, results)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "markdown: %s\n", mdPath); err != nil {
				return err
			}
			if !pdf {
				return nil
			}

			pdfPath, err := report.ConvertMarkdownToPDF(mdPath)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "pdf: %s\n", pdfPath)
			return err
		},
	}
	command.Flags().StringVar(&templatePath, "template", "", "custom Markdown template (defaults to the bundled one)")
	command.Flags().StringVar(&outputDir, "output", "", "output directory (defaults to client.report_directory)")
	command.Flags().BoolVar(&pdf, "pdf", false, "also convert the Markdown to PDF")
	return command
}
