// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"edutools/internal/canvas"
	"edutools/internal/config"
	"edutools/internal/logger"
	"edutools/internal/ui"
)

// RunTUI initializes and runs the Bubble Tea course browser.
func RunTUI() {
	logger.InitLogger(true)

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	client, err := canvas.NewClient(cfg.Canvas)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	m := ui.InitialModel(client)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Alas, there's been an error: %v\n", err)
		os.Exit(1)
	}
}
