package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dirdmaster/ocireg/internal/blob"
	"github.com/dirdmaster/ocireg/internal/manifest"
	"github.com/dirdmaster/ocireg/internal/reference"
)

// newManifestCmd creates the manifest parent command.
func newManifestCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect image manifests",
	}
	cmd.AddCommand(newManifestGetCmd(flags))
	cmd.AddCommand(newManifestHeadCmd(flags))
	return cmd
}

// wireRef returns the path component a manifest/blob request should use
// for the reference's version: a digest string without its "@" prefix, or
// a tag.
func wireRef(ref reference.Reference) string {
	if ref.IsDigest() {
		return ref.Digest()
	}
	return ref.Tag()
}

func pullScope(repository string) []string {
	return []string{fmt.Sprintf("repository:%s:pull", repository)}
}

// newManifestGetCmd creates "manifest get <ref>".
func newManifestGetCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <ref>",
		Short: "Fetch and print a manifest's architectures and layers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := reference.Parse(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client := buildClient(flags, ref.Registry)
			if err := client.Authenticate(ctx, pullScope(ref.Repository)); err != nil {
				return fmt.Errorf("authenticate: %w", err)
			}

			blobs := blob.NewFetcher(client)
			fetcher := manifest.NewFetcher(client, blobs)

			m, err := fetcher.GetManifest(ctx, ref.Repository, wireRef(ref), "")
			if err != nil {
				return fmt.Errorf("get manifest: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "kind: %s\n", m.Kind)
			if m.Digest != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "digest: %s\n", m.Digest)
			}

			archs, err := m.Architectures()
			if err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "architectures: %v\n", archs)
			}

			layers, err := m.LayersDigests("")
			if err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "layers:\n")
				for _, l := range layers {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", l)
				}
			}

			return nil
		},
	}
}

// newManifestHeadCmd creates "manifest head <ref>".
func newManifestHeadCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "head <ref>",
		Short: "Check whether a manifest exists and print its digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := reference.Parse(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client := buildClient(flags, ref.Registry)
			if err := client.Authenticate(ctx, pullScope(ref.Repository)); err != nil {
				return fmt.Errorf("authenticate: %w", err)
			}

			blobs := blob.NewFetcher(client)
			fetcher := manifest.NewFetcher(client, blobs)

			mt, ok, err := fetcher.HasManifest(ctx, ref.Repository, wireRef(ref), "", nil)
			if err != nil {
				return fmt.Errorf("head manifest: %w", err)
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "not found")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "media type: %s\n", mt.ToMime())

			digest, err := fetcher.GetManifestRef(ctx, ref.Repository, wireRef(ref), "")
			if err != nil {
				return fmt.Errorf("get manifest ref: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "digest: %s\n", digest)
			return nil
		},
	}
}
