package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// Version is the application version.
const Version = "0.1.0"

var dataDir string

var rootCmd = &cobra.Command{
	Use:     "abhinaya",
	Short:   "Webcam face tracking and avatar retargeting",
	Long:    "Abhinaya drives a 3D avatar's face rig from webcam facial expressions.",
	Version: Version, // This enables the --version flag
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if dataDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			dataDir = filepath.Join(home, ".abhinaya")
		}
		return os.MkdirAll(dataDir, 0755)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default ~/.abhinaya)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
