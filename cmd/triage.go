package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"covermosaic/pkg/tile"
)

var triageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Flag text-card tiles that would spoil a mosaic",
	Long: `Scan a tile directory and flag images that look like text placeholder
cards (mostly-white with very few distinct colors) rather than artwork.

Flagged files can optionally be moved aside so the mosaic only draws from
real covers.

Examples:
  covermosaic triage --tiles ./album_covers
  covermosaic triage --tiles ./album_covers --move ./rejected`,
	RunE: runTriage,
}

func init() {
	rootCmd.AddCommand(triageCmd)

	triageCmd.Flags().String("tiles", "", "directory containing tile images (required)")
	triageCmd.Flags().String("move", "", "move flagged files into this directory instead of just listing them")

	viper.BindPFlag("triage.tiles", triageCmd.Flags().Lookup("tiles"))
	viper.BindPFlag("triage.move", triageCmd.Flags().Lookup("move"))
}

func runTriage(cmd *cobra.Command, args []string) error {
	dir := viper.GetString("triage.tiles")
	if dir == "" {
		return fmt.Errorf("tiles directory is required (use --tiles)")
	}

	moveDir := viper.GetString("triage.move")
	if moveDir != "" {
		if err := os.MkdirAll(moveDir, 0o755); err != nil {
			return fmt.Errorf("create move directory: %w", err)
		}
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return err
	}

	flagged, artwork, unreadable := 0, 0, 0
	for _, p := range paths {
		img, err := imaging.Open(p)
		if err != nil {
			unreadable++
			continue
		}

		m := tile.Analyze(img)
		if !m.TextCard() {
			artwork++
			continue
		}

		flagged++
		fmt.Fprintf(cmd.OutOrStdout(), "text card: %s (white %.0f%%, %d colors)\n",
			filepath.Base(p), m.WhiteRatio*100, m.UniqueColors)
		if moveDir != "" {
			dst := filepath.Join(moveDir, filepath.Base(p))
			if err := os.Rename(p, dst); err != nil {
				return fmt.Errorf("move %s: %w", p, err)
			}
		}
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Checked %d files: %d artwork, %d text cards, %d unreadable\n",
		flagged+artwork+unreadable, artwork, flagged, unreadable)
	return nil
}
