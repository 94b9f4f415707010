package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ayusman/abhinaya/internal/rig"
)

var avatarOutput string

var avatarCmd = &cobra.Command{
	Use:   "avatar",
	Short: "Manage avatar manifests",
}

var avatarFetchCmd = &cobra.Command{
	Use:   "fetch URL",
	Short: "Download an avatar manifest and validate it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAvatarFetch(args[0])
	},
}

func init() {
	avatarFetchCmd.Flags().StringVarP(&avatarOutput, "output", "o", "", "Output path (default <data-dir>/avatars/<name>.json)")
	avatarCmd.AddCommand(avatarFetchCmd)
	rootCmd.AddCommand(avatarCmd)
}

func runAvatarFetch(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("fetch avatar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch avatar: network error: status %d", resp.StatusCode)
	}

	bar := progressbar.DefaultBytes(resp.ContentLength, "Downloading avatar")
	var buf []byte
	{
		data, err := io.ReadAll(io.TeeReader(resp.Body, bar))
		if err != nil {
			return fmt.Errorf("read avatar manifest: %w", err)
		}
		buf = data
	}

	// Validate before writing anything to disk.
	avatar, err := rig.Parse(buf)
	if err != nil {
		return fmt.Errorf("invalid avatar manifest: %w", err)
	}

	out := avatarOutput
	if out == "" {
		avatarDir := filepath.Join(dataDir, "avatars")
		if err := os.MkdirAll(avatarDir, 0755); err != nil {
			return err
		}
		out = filepath.Join(avatarDir, avatar.Name+".json")
	}

	if err := os.WriteFile(out, buf, 0644); err != nil {
		return fmt.Errorf("write avatar manifest: %w", err)
	}

	fmt.Printf("Saved avatar %q (%d meshes, pose scale %.0f) to %s\n",
		avatar.Name, len(avatar.Meshes), avatar.PoseScale, out)
	return nil
}
