package main

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"filesmanager/internal/api"
	"filesmanager/internal/models"
)

// detectFileType picks image for files whose extension maps to an image mime type.
func detectFileType(path string) models.FileType {
	if strings.HasPrefix(mime.TypeByExtension(strings.ToLower(filepath.Ext(path))), "image/") {
		return models.TypeImage
	}
	return models.TypeFile
}

func newUploadCmd(state *cliState) *cobra.Command {
	var (
		fileType string
		parentID string
		name     string
		public   bool
	)

	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a local file or image",
		Args:  requireExactlyArgs(1, "path is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := state.requireToken(); err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if name == "" {
				name = filepath.Base(args[0])
			}
			if fileType == "" {
				fileType = string(detectFileType(args[0]))
			}

			file, err := state.client().CreateFile(cmd.Context(), api.CreateFileRequest{
				Name:     name,
				Type:     fileType,
				ParentID: models.ParseParentID(parentID),
				IsPublic: public,
				Data:     base64.StdEncoding.EncodeToString(data),
			})
			if err != nil {
				return err
			}
			return state.write(file, func(w io.Writer) error {
				return writeFileDetail(w, file)
			})
		},
	}

	cmd.Flags().StringVar(&fileType, "type", "", "file or image (default from extension)")
	cmd.Flags().StringVar(&parentID, "parent", "", "parent folder id (default root)")
	cmd.Flags().StringVar(&name, "name", "", "stored name (default base name of path)")
	cmd.Flags().BoolVar(&public, "public", false, "make the file public")
	return cmd
}

func newMkdirCmd(state *cliState) *cobra.Command {
	var (
		parentID string
		public   bool
	)

	cmd := &cobra.Command{
		Use:   "mkdir <name>",
		Short: "Create a folder",
		Args:  requireExactlyArgs(1, "folder name is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := state.requireToken(); err != nil {
				return err
			}
			folder, err := state.client().CreateFile(cmd.Context(), api.CreateFileRequest{
				Name:     args[0],
				Type:     string(models.TypeFolder),
				ParentID: models.ParseParentID(parentID),
				IsPublic: public,
			})
			if err != nil {
				return err
			}
			return state.write(folder, func(w io.Writer) error {
				return writeFileDetail(w, folder)
			})
		},
	}

	cmd.Flags().StringVar(&parentID, "parent", "", "parent folder id (default root)")
	cmd.Flags().BoolVar(&public, "public", false, "make the folder public")
	return cmd
}

func newListCmd(state *cliState) *cobra.Command {
	var (
		parentID string
		page     int
	)

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List your files under a folder",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := state.requireToken(); err != nil {
				return err
			}
			if page < 0 {
				return fmt.Errorf("--page must be >= 0")
			}
			files, err := state.client().ListFiles(cmd.Context(), parentID, page)
			if err != nil {
				return err
			}
			return state.write(files, func(w io.Writer) error {
				return writeFileList(w, files)
			})
		},
	}

	cmd.Flags().StringVar(&parentID, "parent", "", "parent folder id (default root)")
	cmd.Flags().IntVar(&page, "page", 0, "page number, 20 files per page")
	return cmd
}

func newShowCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show file metadata",
		Args:  requireFileID,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := state.requireToken(); err != nil {
				return err
			}
			file, err := state.client().GetFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return state.write(file, func(w io.Writer) error {
				return writeFileDetail(w, file)
			})
		},
	}
}

func newPublishCmd(state *cliState, publish bool) *cobra.Command {
	use, short := "publish <id>", "Make a file readable by anyone"
	if !publish {
		use, short = "unpublish <id>", "Make a file private again"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  requireFileID,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := state.requireToken(); err != nil {
				return err
			}
			client := state.client()
			var (
				file api.File
				err  error
			)
			if publish {
				file, err = client.Publish(cmd.Context(), args[0])
			} else {
				file, err = client.Unpublish(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return state.write(file, func(w io.Writer) error {
				return writeLines(w, formatFileLine(file))
			})
		},
	}
}

func newDownloadCmd(state *cliState) *cobra.Command {
	var (
		size   int
		output string
	)

	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download file content, or a thumbnail with --size",
		Args:  requireFileID,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" || output == "-" {
				_, err := state.client().Download(cmd.Context(), args[0], size, cmd.OutOrStdout())
				return err
			}

			tmp := output + ".part"
			f, err := os.Create(tmp)
			if err != nil {
				return err
			}
			contentType, err := state.client().Download(cmd.Context(), args[0], size, f)
			if closeErr := f.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				_ = os.Remove(tmp)
				return err
			}
			if err := os.Rename(tmp, output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "saved %s (%s)\n", output, contentType)
			return nil
		},
	}

	cmd.Flags().IntVar(&size, "size", 0, "thumbnail width: 100, 250 or 500")
	cmd.Flags().StringVarP(&output, "file", "f", "", "write to file instead of stdout")
	return cmd
}
