package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"linerestore/internal/models"
	"linerestore/pkg/config"
	"linerestore/pkg/imageio"
	"linerestore/pkg/reconstruction"
)

var (
	logger     *zap.Logger
	cfg        *config.Config
	configPath string
	verbose    bool

	// restore flag overrides
	lineWidth    int
	step         int
	patchExtend  int
	shiftPenalty int64
	workers      int
	noAnnotate   bool
	outDir       string
)

var rootCmd = &cobra.Command{
	Use:   "linerestore",
	Short: "Remove a thin vertical line from a scan using a second, clean scan",
	Long: `linerestore locates a thin vertical artifact band (a scanner seam or a
gridline) in a damaged image and rebuilds the occluded columns by matching
horizontal stripes of the damaged image against a reference image of the same
content that does not contain the line.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return err
		}

		zcfg := zap.NewProductionConfig()
		if verbose || cfg.Output.Verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <damaged-image> <reference-image>",
	Short: "Rebuild the columns under the line from the reference image",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyOverrides(cmd)
		return runRestore(args[0], args[1])
	},
}

var locateCmd = &cobra.Command{
	Use:   "locate <image>",
	Short: "Print the columns covered by the vertical line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyOverrides(cmd)
		img, err := imageio.Load(args[0])
		if err != nil {
			return err
		}
		line, err := reconstruction.NewReconstructor(cfg, logger).Locate(imageio.ToGray(img))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
		return nil
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config <path>",
	Short: "Write the default configuration as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.CreateDefaultConfigFile(args[0]); err != nil {
			return err
		}
		logger.Info("Default configuration written", zap.String("path", args[0]))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	for _, c := range []*cobra.Command{restoreCmd, locateCmd} {
		c.Flags().IntVar(&lineWidth, "width", 4, "Columns occupied by the line")
	}
	restoreCmd.Flags().IntVar(&step, "step", 220, "Stripe height in rows")
	restoreCmd.Flags().IntVar(&patchExtend, "extend", 150, "Context columns on each side of the line")
	restoreCmd.Flags().Int64Var(&shiftPenalty, "penalty", 2000, "Weight of the squared displacement in the match score")
	restoreCmd.Flags().IntVar(&workers, "workers", 0, "Goroutines per stripe search (0 keeps the configured value)")
	restoreCmd.Flags().BoolVar(&noAnnotate, "no-annotate", false, "Skip the tagged diagnostic images")
	restoreCmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "Directory for the output images (default: next to the damaged image)")

	rootCmd.AddCommand(restoreCmd, locateCmd, initConfigCmd)
}

// applyOverrides copies explicitly set flags over the loaded configuration.
func applyOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("width") {
		cfg.Detection.LineWidth = lineWidth
	}
	if flags.Lookup("step") == nil {
		return
	}
	if flags.Changed("step") {
		cfg.Matching.Step = step
	}
	if flags.Changed("extend") {
		cfg.Matching.PatchExtend = patchExtend
	}
	if flags.Changed("penalty") {
		cfg.Matching.ShiftPenalty = shiftPenalty
	}
	if workers > 0 {
		cfg.Matching.Workers = workers
	}
	if noAnnotate {
		cfg.Annotation.Enabled = false
	}
}

func runRestore(damagedPath, referencePath string) error {
	damagedImg, err := imageio.Load(damagedPath)
	if err != nil {
		return fmt.Errorf("failed to load damaged image: %w", err)
	}
	referenceImg, err := imageio.Load(referencePath)
	if err != nil {
		return fmt.Errorf("failed to load reference image: %w", err)
	}

	gray := imageio.ToGray(damagedImg)
	damaged, reference := imageio.ToArrays(damagedImg, referenceImg)
	logger.Info("Images loaded",
		zap.String("damaged", damagedPath),
		zap.Int("rows", damaged.Rows),
		zap.Int("cols", damaged.Cols),
		zap.Int("channels", damaged.Channels),
		zap.String("reference", referencePath))

	startTime := time.Now()
	result, err := reconstruction.NewReconstructor(cfg, logger).RemoveVertLine(gray, damaged, reference)
	if err != nil {
		return fmt.Errorf("reconstruction failed: %w", err)
	}
	logger.Info("Reconstruction completed", zap.Duration("elapsed", time.Since(startTime)))

	base := damagedPath
	if outDir != "" {
		base = filepath.Join(outDir, filepath.Base(damagedPath))
	}
	outputs := []struct {
		suffix string
		arr    *models.PixelArray
	}{
		{cfg.Output.RecoveredSuffix, damaged},
		{cfg.Output.TaggedSuffix, result.Tagged},
		{cfg.Output.TaggedReferenceSuffix, result.TaggedReference},
	}
	for _, out := range outputs {
		if out.arr.Empty() {
			continue
		}
		path := imageio.OutputPath(base, out.suffix, cfg.Output.Format)
		if err := imageio.SaveArray(out.arr, path); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		logger.Info("Image written", zap.String("path", path))
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
