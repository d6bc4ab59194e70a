package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"covermosaic/internal/mosaic"
	"covermosaic/pkg/tile"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "covermosaic",
	Short: "Build a photo mosaic of a logo from album cover tiles",
	Long: `covermosaic rebuilds a target image as a mosaic of small tile images,
typically album covers fetched from a playlist.

Each grid cell of the target is matched to the tile with the nearest mean
color. Background areas can be detected and flat-filled, tile reuse can be
limited or spread out, and the original image can be blended back over the
result for readability.

Examples:
  # Basic mosaic
  covermosaic --target logo.png --tiles ./album_covers -o mosaic.png

  # Skip the white background, spread tile usage, subtle original overlay
  covermosaic -t logo.png -i ./covers --background auto --diversity 0.5 --overlay 0.2 -o out.png

  # Every tile at most twice, never closer than 4 cells to itself
  covermosaic -t logo.png -i ./covers --max-reuse 2 --min-distance 4 -o out.png

  # Region tinting from a custom palette
  covermosaic -t logo.png -i ./covers --region-tint --palette "pink=F472B6:F472B6" --palette "white=FFFFFF:none" -o out.png

  # Fetch album art first, then start the HTTP API
  covermosaic fetch --playlist PLAYLIST_ID --output ./covers
  covermosaic serve --port 8080`,
	RunE: runGenerate,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.covermosaic.yaml)")

	// Inputs and output
	rootCmd.Flags().StringP("target", "t", "", "target image to recreate as a mosaic (required)")
	rootCmd.Flags().StringP("tiles", "i", "", "directory containing tile images (required)")
	rootCmd.Flags().StringP("output", "o", "mosaic.png", "output image path")
	rootCmd.Flags().Bool("recursive", false, "scan the tile directory recursively")

	// Geometry
	rootCmd.Flags().IntP("cell-size", "s", 40, "pixel edge length of each grid cell")
	rootCmd.Flags().IntP("enlarge", "e", 1, "output enlargement factor")

	// Reuse policy
	rootCmd.Flags().Bool("no-reuse", false, "place each tile at most once")
	rootCmd.Flags().Int("max-reuse", 0, "max times a single tile can be used (0 = unlimited)")
	rootCmd.Flags().Int("min-distance", 3, "min grid distance before the same tile can repeat")

	// Background
	rootCmd.Flags().String("background", "none", "background to skip: 'auto', 'white', 'black', 'R,G,B', hex, or 'none'")
	rootCmd.Flags().Float64("bg-threshold", 0.7, "fraction of a cell that must match the background to skip it")

	// Selection
	rootCmd.Flags().Float64("diversity", 0, "usage penalty weight; 0 = pure color match")
	rootCmd.Flags().Bool("no-color-match", false, "pick tiles randomly instead of by color similarity")
	rootCmd.Flags().Int64("seed", 0, "random seed for --no-color-match (0 = time-based)")

	// Tinting and overlay
	rootCmd.Flags().String("tint", "", "uniform tint color for every tile (hex or R,G,B)")
	rootCmd.Flags().Float64("tint-alpha", 0.25, "tint strength (0.0-1.0)")
	rootCmd.Flags().String("blend-mode", "normal", "blend mode: normal, multiply, screen, overlay, soft_light, color")
	rootCmd.Flags().Bool("region-tint", false, "tint each tile by the target's color region at that cell")
	rootCmd.Flags().StringSlice("palette", nil, "region palette entry name=MATCH[:TINT], repeatable")
	rootCmd.Flags().Float64("overlay", 0, "blend the original image over the mosaic (0.0-1.0)")

	for _, name := range []string{
		"target", "tiles", "output", "recursive",
		"cell-size", "enlarge",
		"no-reuse", "max-reuse", "min-distance",
		"background", "bg-threshold",
		"diversity", "no-color-match", "seed",
		"tint", "tint-alpha", "blend-mode", "region-tint", "palette", "overlay",
	} {
		viper.BindPFlag(name, rootCmd.Flags().Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".covermosaic" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".covermosaic")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	target := viper.GetString("target")
	tiles := viper.GetString("tiles")
	if target == "" && tiles == "" && len(args) == 0 {
		return cmd.Help()
	}
	if target == "" {
		return fmt.Errorf("no target image specified (use --target or a config file)")
	}
	if tiles == "" {
		return fmt.Errorf("no tiles directory specified (use --tiles or a config file)")
	}
	if info, err := os.Stat(tiles); err != nil || !info.IsDir() {
		return fmt.Errorf("tiles directory not found: %s", tiles)
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	gen := mosaic.NewGenerator(cfg)
	res, err := gen.GenerateFile(target, tiles, viper.GetString("output"))
	if err != nil {
		return err
	}

	if res.Relaxations > 0 {
		fmt.Fprintf(os.Stderr, "==Relaxed reuse constraints for %d cells\n", res.Relaxations)
	}
	fmt.Fprintf(os.Stderr, "==Usage: mean %.2f, variance %.2f across %d tiles\n",
		res.UsageMean, res.UsageVariance, res.TilesLoaded)
	return nil
}

// buildConfig assembles the run configuration from viper (flags merged
// over the config file).
func buildConfig() (*mosaic.Config, error) {
	cfg := mosaic.DefaultConfig()

	cfg.CellSize = viper.GetInt("cell-size")
	cfg.Enlarge = viper.GetInt("enlarge")
	cfg.Recursive = viper.GetBool("recursive")

	switch {
	case viper.GetBool("no-reuse"):
		cfg.Reuse = mosaic.ReuseNone
	case viper.GetInt("max-reuse") > 0:
		cfg.Reuse = mosaic.ReuseMax
		cfg.MaxReuse = viper.GetInt("max-reuse")
	}
	cfg.MinDistance = viper.GetInt("min-distance")

	switch bg := viper.GetString("background"); bg {
	case "", "none":
	case "auto":
		cfg.Background = mosaic.BackgroundAuto
	default:
		c, err := tile.ParseColor(bg)
		if err != nil {
			return nil, fmt.Errorf("--background: %w", err)
		}
		cfg.Background = mosaic.BackgroundFixed
		cfg.BackgroundColor = c
	}
	cfg.BackgroundThreshold = viper.GetFloat64("bg-threshold")

	cfg.DiversityWeight = viper.GetFloat64("diversity")
	cfg.ColorMatch = !viper.GetBool("no-color-match")
	cfg.Seed = viper.GetInt64("seed")
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	mode, err := mosaic.ParseBlendMode(viper.GetString("blend-mode"))
	if err != nil {
		return nil, err
	}
	cfg.TintBlend = mode
	cfg.OverlayBlend = mode
	cfg.TintAlpha = viper.GetFloat64("tint-alpha")

	if entries := viper.GetStringSlice("palette"); len(entries) > 0 {
		palette, err := mosaic.ParsePalette(entries)
		if err != nil {
			return nil, err
		}
		cfg.Palette = palette
	}
	switch {
	case viper.GetBool("region-tint"):
		cfg.Tint = mosaic.TintRegion
	case viper.GetString("tint") != "":
		c, err := tile.ParseColor(viper.GetString("tint"))
		if err != nil {
			return nil, fmt.Errorf("--tint: %w", err)
		}
		cfg.Tint = mosaic.TintUniform
		cfg.TintColor = c
	}

	cfg.Overlay = viper.GetFloat64("overlay")

	return cfg, cfg.Validate()
}
