// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"edutools/internal/gworkspace"
)

var (
	docFolder    string
	docContent   string
	docShareWith []string

	folderParent string

	driveUploadFolder string
	driveFindFolders  bool

	shareRole string
)

func init() {
	docCmd.AddCommand(docCreateCmd)
	docCreateCmd.Flags().StringVar(&docFolder, "folder", "", "Drive folder ID to create the document in")
	docCreateCmd.Flags().StringVar(&docContent, "content", "", "path to a text file with the initial document content")
	docCreateCmd.Flags().StringArrayVar(&docShareWith, "share", nil, "email address to share the document with (repeatable)")

	folderCmd.AddCommand(folderCreateCmd)
	folderCreateCmd.Flags().StringVar(&folderParent, "parent", "", "parent folder ID")

	driveCmd.AddCommand(driveUploadCmd)
	driveCmd.AddCommand(driveListCmd)
	driveCmd.AddCommand(driveFindCmd)
	driveCmd.AddCommand(driveDownloadCmd)
	driveCmd.AddCommand(driveRmCmd)
	driveUploadCmd.Flags().StringVar(&driveUploadFolder, "folder", "", "Drive folder ID to upload into")
	driveFindCmd.Flags().BoolVar(&driveFindFolders, "folders", false, "restrict the search to folders")

	shareCmd.Flags().StringVar(&shareRole, "role", "reader", "role to grant: reader, commenter or writer")
}

var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Google Docs operations",
}

var docCreateCmd = &cobra.Command{
	Use:     "create <title>",
	Short:   "Create a Google Doc, optionally with content and sharing",
	Example: "  edutools doc create \"Lab 3 notes\" --content notes.txt --share student@u.boisestate.edu",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		title := args[0]
		ctx := cmd.Context()
		w := workspace()

		var docID string
		var err error
		if docContent != "" {
			data, readErr := os.ReadFile(docContent)
			if readErr != nil {
				fail("Error reading %s: %v", docContent, readErr)
			}
			docID, err = w.CreateDocWithContent(ctx, title, string(data), docFolder)
		} else {
			docID, err = w.CreateDoc(ctx, title, docFolder)
		}
		if err != nil {
			fail("Error creating document: %v", err)
		}

		for _, email := range docShareWith {
			if _, err := w.Share(ctx, docID, email, "writer"); err != nil {
				fail("Error sharing with %s: %v", email, err)
			}
			statusColor.Printf("Shared with %s\n", email)
		}

		successColor.Printf("Created document %s\n", docID)
		fmt.Printf("https://docs.google.com/document/d/%s/edit\n", docID)
	},
}

var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Google Drive folder operations",
}

var folderCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a Drive folder",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		w := workspace()

		folderID, err := w.CreateFolder(cmd.Context(), args[0], folderParent)
		if err != nil {
			fail("Error creating folder: %v", err)
		}
		successColor.Printf("Created folder %s\n", folderID)
	},
}

var driveCmd = &cobra.Command{
	Use:   "drive",
	Short: "Google Drive file operations",
}

var driveUploadCmd = &cobra.Command{
	Use:     "upload <file>",
	Short:   "Upload a text file to Drive",
	Example: "  edutools drive upload ec2-ssh.sh --folder 1AbC...",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]
		w := workspace()

		data, err := os.ReadFile(path)
		if err != nil {
			fail("Error reading %s: %v", path, err)
		}

		fileID, err := w.UploadTextFile(cmd.Context(), filepath.Base(path), string(data), driveUploadFolder)
		if err != nil {
			fail("Error uploading: %v", err)
		}
		successColor.Printf("Uploaded %s as %s\n", path, fileID)
	},
}

var driveListCmd = &cobra.Command{
	Use:   "list <folder-id>",
	Short: "List the contents of a Drive folder",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		w := workspace()

		files, err := w.ListFolder(cmd.Context(), args[0])
		if err != nil {
			fail("Error listing folder: %v", err)
		}
		printDriveFiles(files)
	},
}

var driveFindCmd = &cobra.Command{
	Use:     "find <name-prefix>",
	Short:   "Find Drive files by name prefix",
	Example: "  edutools drive find cs453- --folders",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		w := workspace()

		mimeType := ""
		if driveFindFolders {
			mimeType = gworkspace.FolderMIMEType
		}

		files, err := w.FindByPrefix(cmd.Context(), args[0], mimeType)
		if err != nil {
			fail("Error searching: %v", err)
		}
		printDriveFiles(files)
	},
}

var driveDownloadCmd = &cobra.Command{
	Use:   "download <file-id>",
	Short: "Print the content of a Drive text file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		w := workspace()

		content, err := w.DownloadText(cmd.Context(), args[0])
		if err != nil {
			fail("Error downloading: %v", err)
		}
		fmt.Print(content)
	},
}

var driveRmCmd = &cobra.Command{
	Use:   "rm <file-id>",
	Short: "Delete a Drive file or folder",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		w := workspace()

		if err := w.Delete(cmd.Context(), args[0]); err != nil {
			fail("Error deleting: %v", err)
		}
		successColor.Printf("Deleted %s\n", args[0])
	},
}

var shareCmd = &cobra.Command{
	Use:     "share <file-id> <email>",
	Short:   "Share a Drive file or folder with a user",
	Example: "  edutools share 1AbC... student@u.boisestate.edu --role writer",
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		w := workspace()

		if _, err := w.Share(cmd.Context(), args[0], args[1], shareRole); err != nil {
			fail("Error sharing: %v", err)
		}
		successColor.Printf("Shared %s with %s (%s)\n", args[0], args[1], shareRole)
	},
}

func printDriveFiles(files []gworkspace.DriveFile) {
	if len(files) == 0 {
		fmt.Println("No files found.")
		return
	}
	for _, f := range files {
		kind := ""
		if f.MimeType == gworkspace.FolderMIMEType {
			kind = identifierColor.Sprint(" [folder]")
		}
		fmt.Printf("%-44s %s%s\n", f.ID, f.Name, kind)
	}
}
