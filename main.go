package main

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"doc-translator/internal/assemble"
	"doc-translator/internal/config"
	"doc-translator/internal/document"
	"doc-translator/internal/logger"
	"doc-translator/internal/translate"
	"doc-translator/internal/types"
)

//go:embed all:frontend/dist
var assets embed.FS

// Command line flags
var (
	fileFlag   = flag.String("file", "", "Local document to translate (pdf, docx, md, or txt)")
	langFlag   = flag.String("lang", "", "Target language as a BCP-47 tag (empty = Chinese/English auto-detect)")
	outputFlag = flag.String("output", "", "Output path for the translated file")
	cliFlag    = flag.Bool("cli", false, "Run in CLI mode without GUI")
)

// printHelp displays the help information for command line usage.
func printHelp() {
	fmt.Println("doc-translator - translate documents with an OpenAI-compatible endpoint")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  doc-translator [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --file <PATH>    document to translate (pdf, docx, md, txt)")
	fmt.Println("  --lang <TAG>     target language, e.g. zh or fr (default: zh/en auto-detect)")
	fmt.Println("  --output <PATH>  where to write the translated file")
	fmt.Println("  --cli            run without the GUI (requires --file)")
	fmt.Println("  -h, --help       show this help")
	fmt.Println()
	fmt.Println("Without options the GUI is started. Endpoint credentials come from the")
	fmt.Println("config file or the OPENAI_API_KEY / OPENAI_BASE_URL environment variables.")
}

func main() {
	flag.Usage = printHelp
	flag.Parse()

	if *cliFlag {
		if *fileFlag == "" {
			fmt.Fprintln(os.Stderr, "error: --cli requires --file")
			printHelp()
			os.Exit(1)
		}
		runTranslationCLI(*fileFlag, *langFlag, *outputFlag)
		return
	}

	logger.Init(&logger.Config{
		LogFilePath: "doc-translator.log",
		Level:       logger.LevelInfo,
	})
	defer logger.Close()

	app := NewApp()
	app.SetWailsRuntime(true)

	err := wails.Run(&options.App{
		Title:  "Document Translator",
		Width:  1024,
		Height: 768,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		OnStartup:        app.startup,
		OnShutdown:       app.shutdown,
		OnBeforeClose: func(ctx context.Context) (prevent bool) {
			if !app.IsTranslating() {
				return false
			}
			result, err := runtime.MessageDialog(ctx, runtime.MessageDialogOptions{
				Type:          runtime.QuestionDialog,
				Title:         "Confirm exit",
				Message:       "A translation is in progress. Quit anyway?",
				Buttons:       []string{"Cancel", "Quit"},
				DefaultButton: "Cancel",
				CancelButton:  "Cancel",
			})
			if err != nil {
				return false
			}
			if result == "Cancel" {
				return true
			}
			app.CancelTranslation()
			return false
		},
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		logger.Error("failed to start application", err)
	}
}

// runTranslationCLI translates a single local file without the GUI.
func runTranslationCLI(path, targetLanguage, outputPath string) {
	logger.Init(&logger.Config{
		LogFilePath:   "doc-translator-cli.log",
		Level:         logger.LevelInfo,
		EnableConsole: false,
	})
	defer logger.Close()

	ctx := context.Background()

	manager, err := config.NewManager("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot open config: %v\n", err)
		os.Exit(1)
	}
	if err := manager.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: using default config: %v\n", err)
	}
	if targetLanguage == "" {
		targetLanguage = manager.GetTargetLanguage()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot read %s: %v\n", path, err)
		os.Exit(1)
	}
	if len(data) > MaxUploadBytes {
		fmt.Fprintf(os.Stderr, "error: %s exceeds the 10 MiB limit\n", path)
		os.Exit(1)
	}

	doc, err := document.Parse(filepath.Base(path), data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot parse %s: %v\n", path, err)
		os.Exit(1)
	}

	client, err := translate.NewClient(ctx, translate.ClientConfig{
		APIKey:         manager.GetAPIKey(),
		BaseURL:        manager.GetBaseURL(),
		Model:          manager.GetModel(),
		TargetLanguage: targetLanguage,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("translating %s (model %s)\n", path, manager.GetModel())

	artifact, err := assemble.Reassemble(ctx, client, doc, assemble.Options{
		FileLabel: doc.FileName,
		Workers:   manager.GetWorkers(),
		OnProgress: func(completed, total int) {
			fmt.Printf("  [%d/%d] done\n", completed, total)
		},
		OnLog: func(entry types.LogEntry) {
			if entry.Severity == types.SeverityError || entry.Severity == types.SeverityWarning {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", entry.Severity, entry.Message)
			}
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: translation failed: %v\n", err)
		os.Exit(1)
	}

	if outputPath == "" {
		outputPath = filepath.Join(filepath.Dir(path), artifact.Name)
	}
	if err := os.WriteFile(outputPath, artifact.Data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot write %s: %v\n", outputPath, err)
		os.Exit(1)
	}
	fmt.Printf("translated file written to %s\n", outputPath)
}
