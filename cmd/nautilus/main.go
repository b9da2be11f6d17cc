package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/nautilus-cli/nautilus/internal/appflow"
	"github.com/nautilus-cli/nautilus/internal/config"
	"github.com/nautilus-cli/nautilus/internal/ui"
	"github.com/nautilus-cli/nautilus/internal/util"
	"github.com/nautilus-cli/nautilus/internal/version"
)

func main() {
	continueFlag := flag.Bool("c", false, "continue the most recent watch history entry")
	flag.BoolVar(continueFlag, "continue", false, "continue the most recent watch history entry")
	downloadFlag := flag.Bool("d", false, "download the stream instead of playing it")
	flag.BoolVar(downloadFlag, "download", false, "download the stream instead of playing it")
	linkFlag := flag.Bool("l", false, "print the stream URL and exit")
	flag.BoolVar(linkFlag, "link", false, "print the stream URL and exit")
	jsonFlag := flag.Bool("j", false, "print the raw stream payload as JSON and exit")
	flag.BoolVar(jsonFlag, "json", false, "print the raw stream payload as JSON and exit")
	providerFlag := flag.String("p", "", "auto-select this provider by exact name")
	flag.StringVar(providerFlag, "provider", "", "auto-select this provider by exact name")
	qualityFlag := flag.String("q", "", "preferred stream quality, e.g. 1080")
	flag.StringVar(qualityFlag, "quality", "", "preferred stream quality, e.g. 1080")
	noSubsFlag := flag.Bool("n", false, "skip subtitle tracks")
	flag.BoolVar(noSubsFlag, "no-subs", false, "skip subtitle tracks")
	editFlag := flag.Bool("e", false, "open the config file in an editor")
	flag.BoolVar(editFlag, "edit", false, "open the config file in an editor")
	debugFlag := flag.Bool("debug", false, "enable debug logging")
	versionFlag := flag.Bool("version", false, "show version information")
	helpFlag := flag.Bool("help", false, "show help message")
	altHelpFlag := flag.Bool("h", false, "show help message")
	flag.Usage = util.Helper

	flag.Parse()

	if *versionFlag || version.HasVersionArg() {
		version.ShowVersion()
		return
	}
	if *helpFlag || *altHelpFlag {
		util.Helper()
		return
	}

	util.SetDebugMode(*debugFlag)
	util.InitLogger()

	if *editFlag {
		editConfig()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		util.Warn("using default configuration", "error", err)
	}
	if *providerFlag != "" {
		cfg.Provider = *providerFlag
	}
	if *qualityFlag != "" {
		cfg.Quality = *qualityFlag
	}
	if *noSubsFlag {
		cfg.NoSubs = true
	}

	mode := appflow.ModePlay
	switch {
	case *linkFlag:
		mode = appflow.ModeLink
	case *jsonFlag:
		mode = appflow.ModeJSON
	case *downloadFlag:
		mode = appflow.ModeDownload
	}

	// Ctrl+C cancels in-flight requests and backoff sleeps cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := appflow.New(&cfg, mode)
	defer app.Close()

	if *continueFlag {
		if err := app.Continue(ctx); err != nil {
			util.Error(util.ErrorHandler(err))
			os.Exit(1)
		}
		return
	}

	if mode == appflow.ModePlay {
		fmt.Print(ui.Banner())
		if len(flag.Args()) == 0 {
			app.RecentHint()
		}
	}

	query, err := util.GetSearchQuery(flag.Args())
	if err != nil {
		util.Error(util.ErrorHandler(err))
		os.Exit(1)
	}

	if err := app.Run(ctx, query); err != nil {
		util.Error(util.ErrorHandler(err))
		os.Exit(1)
	}
}

// editConfig opens the config file, creating it with defaults first.
func editConfig() {
	path, err := config.WriteDefault()
	if err != nil {
		util.Error(util.ErrorHandler(err))
		os.Exit(1)
	}

	editor := config.DefaultEditor()
	cmd := exec.Command(editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		util.Error(util.ErrorHandler(err))
		os.Exit(1)
	}
}
