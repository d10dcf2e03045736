package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/xhad/brikmate/internal/app"
	"github.com/xhad/brikmate/internal/errs"
	"github.com/xhad/brikmate/internal/models"
	"github.com/xhad/brikmate/pkg/config"
	"github.com/xhad/brikmate/pkg/extractor"
	"github.com/xhad/brikmate/pkg/ingest"
	"github.com/xhad/brikmate/pkg/logging"
)

type options struct {
	configPath  string
	file        string
	list        bool
	openAIKey   string
	pineconeKey string
	verbose     bool
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load .env: %v", err)
	}

	opts := parseFlags()
	if err := run(opts); err != nil {
		color.Red("✗ %v", err)
		os.Exit(1)
	}
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to config file")
	flag.StringVar(&opts.file, "file", "", "Lease document to ingest (PDF or text)")
	flag.BoolVar(&opts.list, "list", false, "List stored leases")
	flag.StringVar(&opts.openAIKey, "openai-key", os.Getenv("OPENAI_API_KEY"), "OpenAI API key")
	flag.StringVar(&opts.pineconeKey, "pinecone-key", os.Getenv("PINECONE_API_KEY"), "Pinecone API key")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose logging")
	flag.Parse()
	return opts
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("questions"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(opts options) error {
	if opts.file == "" && !opts.list {
		flag.Usage()
		return fmt.Errorf("either -file or -list is required")
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if verrs := cfg.Validate(); len(verrs) > 0 {
		return fmt.Errorf("invalid configuration: %v", verrs[0])
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	logger, err := logging.New(level, true)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if opts.file != "" {
		if err := ingestFile(ctx, a, opts); err != nil {
			return err
		}
	}
	if opts.list {
		return listLeases(ctx, a)
	}
	return nil
}

// mediaTypeFor guesses the upload type from the extension, the way a
// browser fills in the multipart Content-Type.
func mediaTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return extractor.MediaTypePDF
	case ".txt", ".text", ".md", ".markdown", "":
		return extractor.MediaTypeText
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return extractor.MediaTypeBinary
}

func ingestFile(ctx context.Context, a *app.App, opts options) error {
	data, err := os.ReadFile(opts.file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", opts.file, err)
	}

	color.Cyan("\nIngesting %s", filepath.Base(opts.file))

	spinner := getSpinner(" Extracting and indexing...")
	var bar *progressbar.ProgressBar

	result, err := a.Service.Ingest(ctx, ingest.Request{
		Filename:  filepath.Base(opts.file),
		MediaType: mediaTypeFor(opts.file),
		Data:      data,
		Credentials: models.Credentials{
			OpenAIAPIKey:   opts.openAIKey,
			PineconeAPIKey: opts.pineconeKey,
		},
		OnProgress: func(e ingest.Event) {
			if e.Field == nil {
				spinner.Describe(color.CyanString(" %s...", e.Message))
				return
			}
			if bar == nil {
				spinner.Finish()
				fmt.Println()
				bar = getProgressBar(e.Field.Total, " Asking questions")
			}
			bar.Describe(color.BlueString(" %-32s", e.Field.Label))
			bar.Add(1)
		},
	})
	if bar != nil {
		bar.Finish()
	} else {
		spinner.Finish()
	}
	fmt.Println()

	if err != nil {
		if errs.Is(err, errs.MissingCredentials) {
			color.Yellow("Set OPENAI_API_KEY and PINECONE_API_KEY or pass -openai-key / -pinecone-key")
		}
		return err
	}

	color.Green("✓ Saved lease %s\n", result.Lease.ID)
	for _, f := range models.Fields {
		value := *f.Value(result.Lease)
		if value == "" {
			value = color.New(color.Faint).Sprint("(empty)")
		}
		fmt.Printf("%s %s\n", color.New(color.Bold).Sprintf("%-40s", f.Label+":"), value)
	}
	for _, w := range result.Warnings {
		color.Yellow("! %s: %s", w.Label, w.Message)
	}
	return nil
}

func listLeases(ctx context.Context, a *app.App) error {
	leases, err := a.Leases.List(ctx)
	if err != nil {
		return err
	}
	if len(leases) == 0 {
		color.Yellow("No leases stored")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	header := []string{"ID", "CREATED"}
	for _, name := range models.TableColumns {
		f, _ := models.FieldByName(name)
		header = append(header, strings.ToUpper(f.Label))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for i := range leases {
		row := []string{leases[i].ID, leases[i].CreatedAt.Format("2006-01-02 15:04")}
		for _, name := range models.TableColumns {
			row = append(row, truncate(leases[i].Get(name), 40))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	color.Green("\n%d lease(s)", len(leases))
	return nil
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
