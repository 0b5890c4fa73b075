package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pagemint/pagemint/internal/engine"
	"github.com/pagemint/pagemint/internal/model"
	"github.com/pagemint/pagemint/internal/service"
)

func init() {
	rootCmd.AddCommand(createDocCmd())
	rootCmd.AddCommand(getDocCmd())
	rootCmd.AddCommand(listDocCmd())
	rootCmd.AddCommand(editDocCmd())
	rootCmd.AddCommand(moveDocCmd())
	rootCmd.AddCommand(shareDocCmd())
	rootCmd.AddCommand(publishDocCmd())
	rootCmd.AddCommand(versionsCmd())
	rootCmd.AddCommand(archiveDocCmd())
	rootCmd.AddCommand(eraseDocCmd())
}

func createDocCmd() *cobra.Command {
	var workspaceID string
	var parentID string
	var userID string
	var title string

	var required = []string{"user-id"}

	command := &cobra.Command{
		Use:     "create",
		Short:   "create a document",
		Example: "pagemint create -w <workspace-id> -u <user-id> -t <title>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			request := &service.CreateDocumentRequest{
				OwnerID: userID,
				Title:   title,
			}
			if workspaceID != "" {
				request.WorkspaceID = &workspaceID
			}
			if parentID != "" {
				request.ParentID = &parentID
			}

			doc, err := newService().CreateDocument(context.Background(), request)
			if err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("document created with id: %s", doc.ID)
		},
	}

	command.Flags().StringVarP(&workspaceID, "workspace-id", "w", "", "workspace id")
	command.Flags().StringVarP(&parentID, "parent-id", "p", "", "parent document id")
	command.Flags().StringVarP(&userID, "user-id", "u", "", "acting user id (required)")
	command.Flags().StringVarP(&title, "title", "t", "", "title of the document")

	command.Flags().SortFlags = false

	return command
}

func getDocCmd() *cobra.Command {
	var docID string
	var userID string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:     "get",
		Short:   "get a document with its current tree",
		Example: "pagemint get -d <doc-id> -u <user-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			svc := newService()
			doc, err := svc.GetDocument(context.Background(), docID, userID)
			if err != nil {
				logrus.Error(err)
				return
			}

			state, err := svc.GetDocumentState(context.Background(), docID, userID)
			if err != nil {
				logrus.Error(err)
				return
			}

			color.Green("%s (version %d)", doc.Title, doc.Version)
			if state == nil {
				fmt.Println("document has no content yet")
				return
			}

			content, err := json.MarshalIndent(state.Tree, "", "  ")
			if err != nil {
				logrus.Error(err)
				return
			}
			fmt.Println(string(content))
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	command.Flags().StringVarP(&userID, "user-id", "u", "", "acting user id")

	command.Flags().SortFlags = false

	return command
}

func listDocCmd() *cobra.Command {
	var workspaceID string
	var userID string

	var required = []string{"workspace-id"}

	command := &cobra.Command{
		Use:     "list",
		Short:   "list the documents of a workspace",
		Example: "pagemint list -w <workspace-id> -u <user-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			docs, err := newService().ListDocuments(context.Background(), workspaceID, userID)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Title", "Parent", "Order", "Version", "Access", "Archived"})
			for _, doc := range docs {
				parent := ""
				if doc.ParentID != nil {
					parent = *doc.ParentID
				}
				table.Append([]string{
					doc.ID,
					doc.Title,
					parent,
					strconv.Itoa(doc.Order),
					strconv.FormatInt(doc.Version, 10),
					doc.GeneralAccess,
					strconv.FormatBool(doc.IsArchived),
				})
			}
			table.Render()
		},
	}

	command.Flags().StringVarP(&workspaceID, "workspace-id", "w", "", "workspace id (required)")
	command.Flags().StringVarP(&userID, "user-id", "u", "", "acting user id")

	command.Flags().SortFlags = false

	return command
}

func editDocCmd() *cobra.Command {
	var docID string
	var userID string
	var opsJSON string
	var seed string

	var required = []string{"doc-id", "user-id", "ops"}

	command := &cobra.Command{
		Use:     "edit",
		Short:   "apply a structured edit batch",
		Long:    `apply a JSON array of block operations to the document, committed as one atomic step`,
		Example: `pagemint edit -d <doc-id> -u <user-id> -o '[{"kind":"append_paragraph","text":"hello"}]'`,
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			var ops []engine.Op
			if err := json.Unmarshal([]byte(opsJSON), &ops); err != nil {
				logrus.Errorf("invalid ops json: %v", err)
				return
			}

			result, err := newService().ApplyStructuredEdit(context.Background(), &service.ApplyEditRequest{
				DocumentID:      docID,
				ActorID:         userID,
				Ops:             ops,
				IdempotencySeed: seed,
			})
			if err != nil {
				logrus.Error(err)
				return
			}

			if !result.OK {
				color.Red("edit failed: %s", result.Error)
				return
			}
			logrus.Infof("updated blocks: %v", result.UpdatedBlockIDs)
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	command.Flags().StringVarP(&userID, "user-id", "u", "", "acting user id (required)")
	command.Flags().StringVarP(&opsJSON, "ops", "o", "", "ops as a JSON array (required)")
	command.Flags().StringVarP(&seed, "seed", "s", "", "idempotency seed for safe retries")

	command.Flags().SortFlags = false

	return command
}

func moveDocCmd() *cobra.Command {
	var docID string
	var userID string
	var parentID string
	var newOrder int

	var required = []string{"doc-id", "user-id", "order"}

	command := &cobra.Command{
		Use:     "move",
		Short:   "move a document among its siblings or to a new parent",
		Example: "pagemint move -d <doc-id> -u <user-id> -n 2 [-p <parent-id>]",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			var parent *string
			if parentID != "" {
				parent = &parentID
			}

			err := newService().ReorderDocument(context.Background(), docID, userID, newOrder, parent)
			if err != nil {
				logrus.Error(err)
				return
			}
			logrus.Infof("document %s moved to order %d", docID, newOrder)
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	command.Flags().StringVarP(&userID, "user-id", "u", "", "acting user id (required)")
	command.Flags().IntVarP(&newOrder, "order", "n", 0, "new position among siblings (required)")
	command.Flags().StringVarP(&parentID, "parent-id", "p", "", "new parent document id")

	command.Flags().SortFlags = false

	return command
}

func shareDocCmd() *cobra.Command {
	var docID string
	var userID string
	var granteeID string
	var level string

	var required = []string{"doc-id", "user-id", "grantee-id"}

	command := &cobra.Command{
		Use:     "share",
		Short:   "grant a user explicit access to a document",
		Example: "pagemint share -d <doc-id> -u <user-id> -g <grantee-id> -l edit",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			err := newService().GrantPermission(context.Background(), docID, userID, granteeID, model.AccessLevel(level))
			if err != nil {
				logrus.Error(err)
				return
			}
			logrus.Infof("granted %s access to %s", level, granteeID)
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	command.Flags().StringVarP(&userID, "user-id", "u", "", "acting user id (required)")
	command.Flags().StringVarP(&granteeID, "grantee-id", "g", "", "grantee user id (required)")
	command.Flags().StringVarP(&level, "level", "l", "view", "access level: full, edit, comment, view")

	command.Flags().SortFlags = false

	return command
}

func publishDocCmd() *cobra.Command {
	var docID string
	var userID string
	var version string

	var required = []string{"doc-id", "user-id"}

	command := &cobra.Command{
		Use:     "publish",
		Short:   "publish the current document tree",
		Example: "pagemint publish -d <doc-id> -u <user-id> [-v 1.2.0]",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			published, err := newService().PublishDocument(context.Background(), docID, userID, version)
			if err != nil {
				logrus.Error(err)
				return
			}
			color.Green("published %s as version %s", docID, published.Version)
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	command.Flags().StringVarP(&userID, "user-id", "u", "", "acting user id (required)")
	command.Flags().StringVarP(&version, "version", "v", "", "explicit semver version")

	command.Flags().SortFlags = false

	return command
}

func versionsCmd() *cobra.Command {
	var docID string
	var userID string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:     "versions",
		Short:   "list the published versions of a document",
		Example: "pagemint versions -d <doc-id> -u <user-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			versions, err := newService().ListPublishedVersions(context.Background(), docID, userID)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Version", "Title", "Published At"})
			for _, published := range versions {
				table.Append([]string{
					published.Version,
					published.Title,
					published.CreatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			table.Render()
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	command.Flags().StringVarP(&userID, "user-id", "u", "", "acting user id")

	command.Flags().SortFlags = false

	return command
}

func archiveDocCmd() *cobra.Command {
	var docID string
	var userID string

	var required = []string{"doc-id", "user-id"}

	command := &cobra.Command{
		Use:     "archive",
		Short:   "archive a document",
		Example: "pagemint archive -d <doc-id> -u <user-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			err := newService().ArchiveDocument(context.Background(), docID, userID)
			if err != nil {
				logrus.Error(err)
				return
			}
			logrus.Infof("document %s archived", docID)
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	command.Flags().StringVarP(&userID, "user-id", "u", "", "acting user id (required)")

	command.Flags().SortFlags = false

	return command
}

func eraseDocCmd() *cobra.Command {
	var docID string
	var userID string

	var required = []string{"doc-id", "user-id"}

	command := &cobra.Command{
		Use:     "erase",
		Short:   "permanently delete a document and its subtree",
		Example: "pagemint erase -d <doc-id> -u <user-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			err := newService().EraseDocument(context.Background(), docID, userID)
			if err != nil {
				logrus.Error(err)
				return
			}
			logrus.Infof("document %s erased", docID)
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	command.Flags().StringVarP(&userID, "user-id", "u", "", "acting user id (required)")

	command.Flags().SortFlags = false

	return command
}
