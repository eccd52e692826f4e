package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/richard-senior/todds/internal/logger"
	"github.com/richard-senior/todds/pkg/util"
	"github.com/richard-senior/todds/pkg/util/todds"
)

func main() {
	// Configure logging
	logger.SetShowDateTime(true)
	logger.SetLogOutput('c')

	cfg, err := todds.LoadConfig()
	if err != nil {
		logger.Fatal("Configuration error:", err)
	}
	todds.UpdateConfig(cfg)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "update":
		runUpdate()
	case "players":
		d := loadDataset()
		for _, p := range d.Players() {
			fmt.Println(p)
		}
	case "surfaces":
		d := loadDataset()
		for _, s := range d.Surfaces() {
			fmt.Println(s)
		}
	case "predict":
		runPredict(os.Args[2:])
	default:
		logger.Error("Unknown command:", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: todds <command>")
	fmt.Fprintln(os.Stderr, "  update                                 fetch and cache the match data")
	fmt.Fprintln(os.Stderr, "  players                                list known players")
	fmt.Fprintln(os.Stderr, "  surfaces                               list known surfaces")
	fmt.Fprintln(os.Stderr, "  predict <playerA> <playerB> <surface> <level>")
}

// runUpdate acquires both sources and persists the merged dataset
func runUpdate() {
	if err := todds.EnsurePrimarySource(); err != nil {
		logger.Fatal("Primary source acquisition failed:", err)
	}
	if err := todds.EnsureSecondarySource(); err != nil {
		logger.Warn("Secondary source acquisition failed:", err)
	}

	d := loadDataset()

	if err := todds.SaveDataset(d); err != nil {
		logger.Warn("Could not persist dataset:", err)
	}
	defer todds.CloseDatabase()

	logger.Highlight("Update complete,", len(d.Matches), "matches available")
}

// loadDataset merges whatever sources are locally available
func loadDataset() *todds.Dataset {
	d, err := todds.LoadAndMerge()
	if err != nil {
		logger.Fatal("No usable match data, run 'todds update' first:", err)
	}
	return d
}

// runPredict answers one head-to-head query from the command line
func runPredict(args []string) {
	if len(args) != 4 {
		usage()
		os.Exit(1)
	}

	d := loadDataset()

	playerA := resolvePlayer(d, args[0])
	playerB := resolvePlayer(d, args[1])
	surface := args[2]
	level := args[3]

	p, err := todds.Predict(d, playerA, playerB, surface, level)
	if err != nil {
		logger.Fatal("Prediction failed:", err)
	}

	fmt.Printf("%s beats %s on %s with %.2f%% confidence (%d head-to-head matches)\n",
		p.Winner, otherPlayer(p.Winner, playerA, playerB), surface, p.Confidence*100.0, p.Matches)
}

// resolvePlayer maps a possibly partial or misspelled name onto the best
// matching known player
func resolvePlayer(d *todds.Dataset, name string) string {
	players := d.Players()
	for _, p := range players {
		if strings.EqualFold(p, name) {
			return p
		}
	}

	bestScore := 0.0
	best := name
	for _, p := range players {
		if score := util.FuzzyMatchScore(name, p); score > bestScore {
			bestScore = score
			best = p
		}
	}

	if !strings.EqualFold(best, name) {
		logger.Info("Resolved", name, "to", best)
	}
	return best
}

func otherPlayer(winner, a, b string) string {
	if winner == a {
		return b
	}
	return a
}
