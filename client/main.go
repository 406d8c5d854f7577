package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/corddisc/corddisc/backend"
	"github.com/corddisc/corddisc/backend/memory"
	"github.com/corddisc/corddisc/backend/remote"
	"github.com/corddisc/corddisc/chat"
)

func main() {
	_ = godotenv.Load() // optional .env, same overrides as the environment

	configFile := flag.String("config", "corddisc.json", "Path to configuration file")
	server := flag.String("server", "", "backend host:port (overrides config)")
	local := flag.Bool("local", false, "run against an in-process backend (single-user demo)")
	flag.Parse()

	cfg := NewConfig(*configFile)
	if err := cfg.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
	}

	// The TUI owns the terminal, so logs go to a file.
	logFile, err := tea.LogToFile(cfg.LogFile, "debug")
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
	defer logFile.Close()

	var be backend.Backend
	if *local {
		be = memory.New()
	} else {
		host := cfg.ServerHost
		if *server != "" {
			host = *server
		}
		client, err := remote.Dial(host)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not reach backend at %s: %v\n", host, err)
			os.Exit(1)
		}
		defer client.Close()
		be = client
	}

	state := chat.NewState()
	app := newApp(be, state)
	app.session.Start()
	defer app.shutdown()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Printf("program error: %v", err)
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
