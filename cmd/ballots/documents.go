package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/ballot-registry/constants"
	"github.com/joseph-ayodele/ballot-registry/internal/app"
	"github.com/joseph-ayodele/ballot-registry/internal/entity"
	"github.com/joseph-ayodele/ballot-registry/internal/services/registry"
)

func registryName() string {
	return strings.TrimSpace(registryFlag)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the documents of a registry",
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

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tID\tNAME\tSNILS\tPAGES\tSTATUS")
		for i, d := range docs {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n",
				i+1, d.ID, d.Name, d.Record.Snils.Or("-"), len(d.Pages), constants.VerificationLabel(d.IsVerified))
		}
		return tw.Flush()
	},
}

var unverify bool

var verifyCmd = &cobra.Command{
	Use:   "verify <document-id>",
	Short: "Mark a document as checked by an operator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Registry.Verify(cmd.Context(), registryName(), args[0], !unverify)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Delete a document and its pages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Registry.Delete(cmd.Context(), registryName(), args[0])
	},
}

var setCmd = &cobra.Command{
	Use:   "set <document-id> <field> <value>",
	Short: "Correct one field of a document (\"\" clears it, ERROR marks it illegible)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		doc, err := a.Registry.UpdateField(cmd.Context(), registry.UpdateFieldRequest{
			Registry: registryName(),
			ID:       args[0],
			Field:    entity.FieldName(args[1]),
			Value:    args[2],
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s = %q\n", doc.Name, args[1], doc.Record.Get(entity.FieldName(args[1])).String())
		return nil
	},
}

func init() {
	verifyCmd.Flags().BoolVar(&unverify, "undo", false, "return the document to draft")
}
