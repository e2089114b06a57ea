package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/ballot-registry/internal/app"
	"github.com/joseph-ayodele/ballot-registry/internal/export"
)

var outPath string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the registry",
}

var exportCSVCmd = &cobra.Command{
	Use:   "csv",
	Short: "Write the registry as ';'-separated CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		docs, err := a.Registry.List(cmd.Context(), registryName(), false)
		if err != nil {
			return err
		}
		path := outPath
		if path == "" {
			path = export.CSVFileName(time.Now())
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := a.Export.WriteCSV(f, docs); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d rows)\n", path, len(docs))
		return nil
	},
}

var exportXLSXCmd = &cobra.Command{
	Use:   "xlsx",
	Short: "Write the registry as an Excel workbook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		docs, err := a.Registry.List(cmd.Context(), registryName(), false)
		if err != nil {
			return err
		}
		data, err := a.Export.XLSX(docs)
		if err != nil {
			return err
		}
		path := outPath
		if path == "" {
			path = registryName() + ".xlsx"
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d rows)\n", path, len(docs))
		return nil
	},
}

var exportPDFCmd = &cobra.Command{
	Use:   "pdf",
	Short: "Write one PDF per document into a directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		docs, err := a.Registry.List(cmd.Context(), registryName(), true)
		if err != nil {
			return err
		}
		dir := outPath
		if dir == "" {
			dir = filepath.Join(".", registryName()+"_pdf")
		}
		paths, err := a.Export.WritePDFs(cmd.Context(), dir, docs)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d PDFs into %s\n", len(paths), dir)
		return nil
	},
}

func init() {
	exportCmd.PersistentFlags().StringVarP(&outPath, "out", "o", "", "output file (csv, xlsx) or directory (pdf)")
	exportCmd.AddCommand(exportCSVCmd, exportXLSXCmd, exportPDFCmd)
}
