package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-md-translator/internal/config"
	"github.com/nerdneilsfield/go-md-translator/internal/extract"
	"github.com/nerdneilsfield/go-md-translator/internal/logger"
	"github.com/nerdneilsfield/go-md-translator/internal/pipeline"
	"github.com/nerdneilsfield/go-md-translator/internal/render"
	"github.com/nerdneilsfield/go-md-translator/pkg/formats"
)

var normalizeOutput string

// NewNormalizeCommand 创建 normalize 命令：去重并规范化已有的 Markdown 文件
func NewNormalizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize <file.md>",
		Short: "Deduplicate and normalize an existing Markdown file",
		Long: `Runs the same repair pass that is applied to assembled translations:
consecutive duplicate lines are removed, headings are forced onto single lines
with unique text, list markers and tables are cleaned and blank lines are
normalized. The result goes to stdout unless -o is given.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.NewLogger(debugMode)
			defer func() {
				_ = log.Sync()
			}()

			text, err := readMarkdown(args[0])
			if err != nil {
				return err
			}

			result := formats.NewMarkdownPostProcessor(log).ProcessMarkdown(text)
			if normalizeOutput == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), result)
				return err
			}
			if err := os.WriteFile(normalizeOutput, []byte(result), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", normalizeOutput, err)
			}
			log.Info("normalized", zap.String("input", args[0]), zap.String("output", normalizeOutput))
			return nil
		},
	}

	cmd.Flags().StringVarP(&normalizeOutput, "output", "o", "", "write the result to this file")
	return cmd
}

// NewRenderCommand 创建 render 命令：把已有的 Markdown 渲染为输出格式
func NewRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <file.md>",
		Short: "Render an existing Markdown file to md, html, pdf and docx",
		Long: `Normalizes a Markdown file and runs the renderers on it without translating.
Formats, output folder and font folder come from the config unless overridden.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := newLogger(cfg)
			defer func() {
				_ = log.Sync()
			}()

			text, err := readMarkdown(args[0])
			if err != nil {
				return err
			}
			md := formats.NewMarkdownPostProcessor(log).ProcessMarkdown(text)

			base := cfg.OutputName
			if base == "" {
				base = render.Stem(args[0])
			}
			base = render.BaseName(base, nil)
			targetCode := config.TargetCode(cfg.LangPair)

			res, err := render.NewGenerator(cfg.FontDir, log).Generate(md, cfg.OutputDir, base, cfg.Formats, render.Options{
				Title: pipeline.ExtractTitle(md, base),
				Lang:  targetCode,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, f := range res.Files {
				fmt.Fprintf(out, "  %-5s %s\n", f.Format, f.Path)
			}
			for _, f := range res.Skipped {
				fmt.Fprintf(out, "  %-5s skipped\n", f)
			}
			for _, e := range res.Errors {
				fmt.Fprintf(out, "  error %s\n", e.Error())
			}
			if len(res.Files) == 0 {
				return fmt.Errorf("no output generated")
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&formatSpec, "format", "f", "", "output formats: all, md, html, pdf, docx or a comma list")
	flags.StringVarP(&outputName, "output", "o", "", "output base name")
	flags.StringVar(&outputDir, "output-dir", "", "output folder")
	flags.StringVarP(&langPair, "lang", "l", "", "language pair, its target sets the document language")
	flags.StringVar(&fontDir, "font-dir", "", "folder with DejaVu fonts for PDF output")
	return cmd
}

// NewLanguagesCommand 创建 languages 命令
func NewLanguagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported language pairs",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			tw := newTable(cmd.OutOrStdout(), "Language pairs")
			tw.AppendHeader(table.Row{"Pair", "Source", "Target"})
			for _, pair := range config.LangPairs() {
				lang := config.LookupLanguage(pair)
				tw.AppendRow(table.Row{pair, lang.Source, lang.Target})
			}
			tw.Render()
		},
	}
}

// readMarkdown 读取 Markdown 文件，编码自动检测
func readMarkdown(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text, err := extract.DecodeText(data, "")
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(text, "\r\n", "\n"), nil
}
