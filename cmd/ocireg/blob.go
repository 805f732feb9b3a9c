package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dirdmaster/ocireg/internal/blob"
	"github.com/dirdmaster/ocireg/internal/reference"
)

// newBlobCmd creates the blob parent command.
func newBlobCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blob",
		Short: "Download content-addressed blobs",
	}
	cmd.AddCommand(newBlobGetCmd(flags))
	return cmd
}

// newBlobGetCmd creates "blob get <ref> <digest> -o <file>".
func newBlobGetCmd(flags *rootFlags) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "get <ref> <digest>",
		Short: "Stream a digest-verified blob to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := reference.Parse(args[0])
			if err != nil {
				return err
			}
			digest := args[1]

			ctx := cmd.Context()
			client := buildClient(flags, ref.Registry)
			if err := client.Authenticate(ctx, pullScope(ref.Repository)); err != nil {
				return fmt.Errorf("authenticate: %w", err)
			}

			fetcher := blob.NewFetcher(client)
			stream, err := fetcher.GetBlobStream(ctx, ref.Repository, digest, "")
			if err != nil {
				return fmt.Errorf("get blob: %w", err)
			}
			defer stream.Close()

			out := cmd.OutOrStdout()
			var dst io.Writer = out
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				dst = f
			}

			n, err := io.Copy(dst, stream)
			if err != nil {
				return fmt.Errorf("download blob: %w", err)
			}
			if outPath != "" {
				fmt.Fprintf(out, "wrote %d bytes to %s\n", n, outPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file path (defaults to stdout)")
	return cmd
}
