package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"covermosaic/internal/spotify"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download album cover art from a Spotify playlist",
	Long: `Download every unique album cover referenced by a Spotify playlist into
a local directory, ready to serve as the tile library for a mosaic.

Credentials are read from SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET,
either from the environment or from a .env file in the working directory.

Examples:
  covermosaic fetch --playlist "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M"
  covermosaic fetch --playlist 37i9dQZF1DXcBWIGoYBM5M --output ./covers`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().String("playlist", "", "playlist ID, URL, or URI (required)")
	fetchCmd.Flags().String("output", "./album_covers", "directory to write cover images into")
	fetchCmd.Flags().Duration("delay", 50*time.Millisecond, "pause between downloads")

	viper.BindPFlag("fetch.playlist", fetchCmd.Flags().Lookup("playlist"))
	viper.BindPFlag("fetch.output", fetchCmd.Flags().Lookup("output"))
	viper.BindPFlag("fetch.delay", fetchCmd.Flags().Lookup("delay"))
}

func runFetch(cmd *cobra.Command, args []string) error {
	playlist := viper.GetString("fetch.playlist")
	if playlist == "" {
		return fmt.Errorf("playlist is required (use --playlist)")
	}

	// A missing .env is fine; the variables may come from the environment.
	_ = godotenv.Load()

	clientID := os.Getenv("SPOTIFY_CLIENT_ID")
	clientSecret := os.Getenv("SPOTIFY_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set")
	}

	outDir := viper.GetString("fetch.output")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	client, err := spotify.NewClient(clientID, clientSecret)
	if err != nil {
		return err
	}

	art, err := client.PlaylistArtwork(playlist, viper.GetDuration("fetch.delay"))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Found %d unique album covers\n", len(art))

	delay := viper.GetDuration("fetch.delay")
	downloaded, cached, failed := 0, 0, 0
	for i, a := range art {
		path, existed, err := client.Download(a, outDir)
		if err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s (%v)\n", a.Album, err)
			continue
		}
		if existed {
			cached++
			continue
		}
		downloaded++
		fmt.Fprintf(cmd.ErrOrStderr(), "%d/%d: %s -> %s\n", i+1, len(art), a.Album, path)
		if delay > 0 {
			time.Sleep(delay)
		}
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Done: %d downloaded, %d already present, %d failed\n",
		downloaded, cached, failed)
	return nil
}
