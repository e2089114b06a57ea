package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/ballot-registry/internal/app"
	"github.com/joseph-ayodele/ballot-registry/internal/common"
	"github.com/joseph-ayodele/ballot-registry/internal/core/grouping"
	"github.com/joseph-ayodele/ballot-registry/internal/ingest"
	"github.com/joseph-ayodele/ballot-registry/internal/services/registry"
)

var skipHidden bool

var processCmd = &cobra.Command{
	Use:   "process <file|dir>...",
	Short: "Recognize and group scanned ballots into the registry",
	Long: `Renders every PDF page (and every JPG/PNG as one page), recognizes each page
and groups the pages into documents in one run, in argument order. The run is
then consolidated into the registry. If the provider rejects the API key the
run stops and the documents grouped so far are kept.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, stats, err := ingest.CollectFiles(args, skipHidden)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no pdf/jpg/png files under %v", args)
		}

		a, err := openApp(cmd, app.Options{Processing: true})
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "files: %d (scanned %d)\n", len(files), stats.Scanned)
		progress := func(p grouping.Progress) {
			fmt.Fprintf(cmd.ErrOrStderr(), "\r[%d/%d] %s", p.Current, p.Total, p.Status)
		}

		res, err := a.Registry.Ingest(cmd.Context(), registry.IngestRequest{Registry: registryName(), Paths: files}, progress)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil && len(res.Documents) == 0 {
			return err
		}

		fmt.Fprintf(out, "run %s: %d pages, %d documents (%d degraded pages)\n",
			res.Run.RunID, res.Run.Pages, len(res.Run.Documents), res.Run.Degraded)
		for _, c := range res.Consolidations {
			if c.Match == grouping.MatchNone {
				fmt.Fprintf(out, "  new      %s (%d pages)\n", c.TargetID, c.AddedPages)
				continue
			}
			fmt.Fprintf(out, "  merged   %s into %s by %s (+%d pages)\n", c.IncomingID, c.TargetID, c.Match, c.AddedPages)
		}
		fmt.Fprintf(out, "registry %q now holds %d documents\n", registryName(), len(res.Documents))

		if errors.Is(err, common.ErrAuthorizationExpired) {
			fmt.Fprintln(out, "the API key was rejected; update it and re-run the remaining files")
		}
		return err
	},
}

func init() {
	processCmd.Flags().BoolVar(&skipHidden, "skip-hidden", true, "skip hidden files and directories")
}
