package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/tech-arch1tect/vault-importer/config"
	"github.com/tech-arch1tect/vault-importer/internal/audit"
	"github.com/tech-arch1tect/vault-importer/internal/importer"
	"github.com/tech-arch1tect/vault-importer/internal/logging"
	"github.com/tech-arch1tect/vault-importer/internal/preferences"
	"github.com/tech-arch1tect/vault-importer/internal/storage"
	"github.com/tech-arch1tect/vault-importer/internal/validation"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	successColor = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#81C784"}
	warningColor = lipgloss.AdaptiveColor{Light: "#EF6C00", Dark: "#FFB74D"}
	errorColor   = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#E57373"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#757575", Dark: "#9E9E9E"}

	errorStyle = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
)

type importOptions struct {
	vault       string
	configDir   string
	preferences string
	importPath  string
	overwrite   bool
	logLevel    string
}

func newImportCmd() *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:           "import <archive.zip>",
		Short:         "Import a ZIP archive into a vault",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runImport(ctx, cmd, opts, args[0])
		},
	}

	cfg := config.NewConfig()
	flags := cmd.Flags()
	flags.StringVar(&opts.vault, "vault", cfg.VaultLocation, "vault directory")
	flags.StringVar(&opts.configDir, "config-dir", cfg.VaultConfigDir, "vault configuration directory, relative to the vault")
	flags.StringVar(&opts.preferences, "preferences", cfg.PreferencesFile, "preferences file supplying defaults")
	flags.StringVar(&opts.importPath, "import-path", "", "folder inside the vault to import into (default from preferences)")
	flags.BoolVar(&opts.overwrite, "overwrite", false, "replace files that already exist (default from preferences)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	return cmd
}

func runImport(ctx context.Context, cmd *cobra.Command, opts *importOptions, archivePath string) error {
	logger, err := logging.NewLogger(opts.logLevel, "stderr")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	prefs, err := preferences.Load(opts.preferences)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("import-path") {
		prefs.ImportPath = opts.importPath
	}
	if cmd.Flags().Changed("overwrite") {
		prefs.OverwriteFiles = opts.overwrite
	}
	if err := validation.ValidateImportPath(prefs.ImportPath); err != nil {
		return fmt.Errorf("invalid import path: %w", err)
	}

	data, err := os.ReadFile(archivePath)
	if err != nil {
		return fmt.Errorf("cannot read archive: %w", err)
	}

	vault, err := storage.NewLocalVault(opts.vault, opts.configDir, logger)
	if err != nil {
		return err
	}

	cfg := config.NewConfig()
	auditService, err := audit.NewServiceFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = auditService.Close() }()

	service := importer.NewService(vault, auditService, logger)
	importCfg := importer.NewConfig(prefs.ImportPath, prefs.OverwriteFiles, vault.ConfigDir())

	out := cmd.OutOrStdout()
	summary, err := service.Import(importer.WithSource(ctx, "cli"), data, importCfg, newNoticePrinter(out))
	if summary != nil {
		printSummary(out, summary)
	}
	return err
}

// noticePrinter renders notices as coloured lines.
type noticePrinter struct {
	out     io.Writer
	info    lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
}

func newNoticePrinter(out io.Writer) *noticePrinter {
	renderer := lipgloss.NewRenderer(out)
	return &noticePrinter{
		out:     out,
		info:    renderer.NewStyle().Foreground(successColor),
		warning: renderer.NewStyle().Foreground(warningColor),
		failure: renderer.NewStyle().Foreground(errorColor).Bold(true),
	}
}

func (p *noticePrinter) Notify(n importer.Notice) {
	style := p.info
	switch n.Level {
	case importer.LevelWarning:
		style = p.warning
	case importer.LevelError:
		style = p.failure
	}
	fmt.Fprintln(p.out, style.Render(n.Message))
}

func printSummary(out io.Writer, summary *importer.Summary) {
	muted := lipgloss.NewRenderer(out).NewStyle().Foreground(mutedColor)
	fmt.Fprintln(out, muted.Render(fmt.Sprintf(
		"%d created, %d overwritten, %d skipped, %d failed, %d ignored in %dms",
		summary.Created,
		summary.Overwritten,
		summary.Skipped,
		summary.Failed,
		summary.Ignored,
		summary.DurationMs,
	)))
}
