package main

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bsduhaime/waddle/internal/backup"
	"github.com/bsduhaime/waddle/internal/filter"
	"github.com/bsduhaime/waddle/internal/parser"
	"github.com/bsduhaime/waddle/internal/render"
	"github.com/bsduhaime/waddle/internal/wad"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the archive header",
	RunE:  info,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List textures with their geometry and checksums",
	RunE:  list,
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Write one PNG per selected texture",
	RunE:  extract,
}

var rewriteCmd = &cobra.Command{
	Use:   "rewrite",
	Short: "Decode and re-encode an archive with a canonical layout",
	RunE:  rewrite,
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore an archive from its compressed backup",
	RunE:  restore,
}

func init() {
	extractCmd.Flags().StringP("output-dir", "o", ".", "directory to write PNG files to")
	extractCmd.Flags().Int("mip", 0, "mipmap level to extract (0-3)")
	extractCmd.Flags().Int("cache-size", render.DefaultCacheSize, "number of rendered images kept in memory")
	extractCmd.Flags().Bool("dry-run", false, "render without writing files")

	rewriteCmd.Flags().StringP("output", "o", "", "path to write the archive to (default: rewrite input in place)")
	rewriteCmd.Flags().Int("backup-keep", 1, "compressed backups kept when rewriting in place (0 disables)")
	rewriteCmd.Flags().Bool("dry-run", false, "encode without writing output (validation)")

	restoreCmd.Flags().String("from", "", "backup file to restore (default: newest backup of input)")

	viper.BindPFlag("output_dir", extractCmd.Flags().Lookup("output-dir"))
	viper.BindPFlag("mip_level", extractCmd.Flags().Lookup("mip"))
	viper.BindPFlag("cache_size", extractCmd.Flags().Lookup("cache-size"))
	viper.BindPFlag("output", rewriteCmd.Flags().Lookup("output"))
	viper.BindPFlag("backup_keep", rewriteCmd.Flags().Lookup("backup-keep"))

	// both commands own a dry-run flag; bind whichever is running
	for _, c := range []*cobra.Command{extractCmd, rewriteCmd} {
		c.PreRun = func(cmd *cobra.Command, args []string) {
			viper.BindPFlag("dry_run", cmd.Flags().Lookup("dry-run"))
		}
	}
}

// info prints the header fields of the input archive
func info(cmd *cobra.Command, args []string) error {
	cfg, closeLog, err := loadConfig()
	if err != nil {
		return err
	}
	defer closeLog()

	a, err := parser.Load(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("error parsing %s: %w", cfg.InputFile, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "file:         %s\n", cfg.InputFile)
	fmt.Fprintf(out, "magic:        %s\n", a.Header.Magic[:])
	fmt.Fprintf(out, "entries:      %d\n", a.Header.EntryCount)
	fmt.Fprintf(out, "directory at: %d\n", a.Header.DirOffset)
	fmt.Fprintf(out, "file size:    %d\n", a.Header.FileSize)

	return nil
}

// list prints one line per selected texture and flags textures whose
// content duplicates an earlier one
func list(cmd *cobra.Command, args []string) error {
	cfg, closeLog, err := loadConfig()
	if err != nil {
		return err
	}
	defer closeLog()

	f, err := filter.New(cfg.Match, cfg.Exclude)
	if err != nil {
		return err
	}

	a, err := parser.Load(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("error parsing %s: %w", cfg.InputFile, err)
	}

	out := cmd.OutOrStdout()
	seen := make(map[uint64]string, a.Len())
	for _, i := range f.Select(a) {
		e, t := a.At(i)
		sum := t.Checksum()

		line := fmt.Sprintf("%4d  %-15s  %4dx%-4d  %-9s  %8d  %016x",
			i, e.Name, t.Width, t.Height, wad.LumpTypeName(e.Type), e.DiskSize, sum)
		if first, ok := seen[sum]; ok {
			line += "  duplicate of " + first
		} else {
			seen[sum] = e.Name.String()
		}
		fmt.Fprintln(out, line)
	}

	return nil
}

// extract renders the selected textures at the configured mip level and
// writes them as PNG files named after the texture
func extract(cmd *cobra.Command, args []string) error {
	cfg, closeLog, err := loadConfig()
	if err != nil {
		return err
	}
	defer closeLog()

	if cfg.MipLevel < 0 || cfg.MipLevel >= wad.MipLevels {
		return fmt.Errorf("%w: %d", wad.ErrMipLevel, cfg.MipLevel)
	}

	f, err := filter.New(cfg.Match, cfg.Exclude)
	if err != nil {
		return err
	}

	r, err := render.New(cfg.CacheSize)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := parser.Load(ctx, cfg)
	if err != nil {
		return fmt.Errorf("error parsing %s: %w", cfg.InputFile, err)
	}

	if !cfg.DryRun {
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	written := 0
	for _, i := range f.Select(a) {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, t := a.At(i)
		img, err := r.Image(t, cfg.MipLevel)
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", t.Name, err)
		}

		path := filepath.Join(cfg.OutputDir, fileName(t.Name.String())+".png")
		if cfg.DryRun {
			slog.Debug("would write texture", "name", t.Name.String(), "path", path)
			continue
		}

		if err := writeImage(path, img); err != nil {
			return err
		}
		written++
	}

	slog.Info("extracted textures",
		"count", written,
		"output_dir", cfg.OutputDir,
		"mip_level", cfg.MipLevel,
		"cached", r.Len(),
	)

	return nil
}

func writeImage(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := render.WritePNG(file, img); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return file.Close()
}

// rewrite re-encodes the input archive. Without an output path the input is
// replaced, after taking a compressed backup when backup_keep > 0.
func rewrite(cmd *cobra.Command, args []string) error {
	cfg, closeLog, err := loadConfig()
	if err != nil {
		return err
	}
	defer closeLog()

	a, err := parser.Load(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("error parsing %s: %w", cfg.InputFile, err)
	}

	if cfg.DryRun {
		data, err := wad.Encode(a)
		if err != nil {
			return fmt.Errorf("failed to encode archive: %w", err)
		}
		slog.Info("dry run, nothing written",
			"entries", a.Len(),
			"size", len(data),
			"dir_offset", a.Header.DirOffset,
		)
		return nil
	}

	target := cfg.OutputFile
	if target == "" {
		target = cfg.InputFile
		if _, err := backup.Create(cfg.InputFile, cfg.BackupKeep); err != nil {
			return fmt.Errorf("failed to back up %s: %w", cfg.InputFile, err)
		}
	}

	if _, err := parser.Save(target, a); err != nil {
		return err
	}

	return nil
}

// restore replaces the input archive with the contents of a backup
func restore(cmd *cobra.Command, args []string) error {
	cfg, closeLog, err := loadConfig()
	if err != nil {
		return err
	}
	defer closeLog()

	from, err := cmd.Flags().GetString("from")
	if err != nil {
		return err
	}
	if from == "" {
		from = backup.Path(cfg.InputFile)
	}

	if err := backup.Restore(from, cfg.InputFile); err != nil {
		return err
	}

	// make sure what came back is still a readable archive
	if _, err := parser.Load(cmd.Context(), cfg); err != nil {
		return fmt.Errorf("restored file does not parse: %w", err)
	}

	slog.Info("restored archive", "file", cfg.InputFile, "from", from)

	return nil
}

// fileName replaces characters that are not allowed in file names on common
// platforms, e.g. the leading '*' of liquid textures.
func fileName(name string) string {
	if name == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '_'
		}
		if r < 0x20 {
			return '_'
		}
		return r
	}, name)
}
