package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage stored documents",
	Long:  `Upload, list, or delete the typed documents behind the query index.`,
}

var documentUploadCmd = &cobra.Command{
	Use:   "upload [type] [file]",
	Short: "Upload and index a document",
	Long: `Validates the file as a document of the given type, stores it and
indexes its records. Uploading under an existing name replaces that
document.`,
	Args: cobra.ExactArgs(2),
	RunE: runDocumentUpload,
}

var documentListCmd = &cobra.Command{
	Use:   "list [type]",
	Short: "List documents of a type",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentList,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [type] [name]",
	Short: "Delete a document and its index records",
	Args:  cobra.ExactArgs(2),
	RunE:  runDocumentDelete,
}

var documentTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the configured document types",
	Args:  cobra.NoArgs,
	RunE:  runDocumentTypes,
}

// uploadName overrides the document name derived from the file name.
var uploadName string

func init() {
	documentUploadCmd.Flags().StringVarP(&uploadName, "name", "n", "", "store under this name instead of the file name")

	documentCmd.AddCommand(documentUploadCmd)
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentTypesCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentUpload(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	typeName, path := args[0], args[1]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	name := uploadName
	if name == "" {
		name = filepath.Base(path)
	}

	doc, err := documentService.Upload(context.Background(), typeName, name, data)
	if err != nil {
		return fmt.Errorf("uploading document: %w", err)
	}

	cmd.Printf("Uploaded %s as %s (%d bytes, id %s)\n", path, doc.Name, doc.Filesize, doc.ID)
	return nil
}

func runDocumentList(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	typeName := args[0]
	docs, err := documentService.List(context.Background(), typeName)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Printf("No %s documents stored.\n", typeName)
		return nil
	}

	cmd.Printf("Documents of type %s:\n\n", typeName)
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].Name)
		cmd.Printf("    Size:     %d bytes\n", docs[i].Filesize)
		cmd.Printf("    Modified: %s\n", docs[i].ModifiedAt.Format("2006-01-02 15:04:05"))
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentTypes(cmd *cobra.Command, _ []string) error {
	if registry == nil {
		return errors.New("document registry not configured")
	}

	for _, name := range registry.Names() {
		cmd.Println(name)
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	typeName, name := args[0], args[1]
	if err := documentService.Delete(context.Background(), typeName, name); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	cmd.Printf("Deleted %s document %s.\n", typeName, name)
	return nil
}
