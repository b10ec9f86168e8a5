// Command mapgen writes a synthetic building graph JSON file in the format
// cmd/seed consumes.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/mpetrenko/campusnav/internal/domain"
	"github.com/mpetrenko/campusnav/internal/generator"
	"github.com/mpetrenko/campusnav/internal/nav"
)

type buildingFile struct {
	University string       `json:"university"`
	Address    string       `json:"address"`
	Graph      domain.Graph `json:"graph"`
}

func main() {
	var (
		floors     = flag.Int("floors", 3, "Number of floors")
		rooms      = flag.Int("rooms", 8, "Rooms per floor")
		seed       = flag.Int64("seed", 1, "Random seed")
		university = flag.String("university", "Demo University", "University label")
		address    = flag.String("address", "1 Demo Street", "Building address (unique key)")
		out        = flag.String("out", "building.json", "Output file path")
	)
	flag.Parse()

	graph := generator.Generate(generator.Config{
		Floors:        *floors,
		RoomsPerFloor: *rooms,
		Seed:          *seed,
	})

	if _, err := nav.BuildModel(graph); err != nil {
		fmt.Fprintf(os.Stderr, "generated graph failed validation: %v\n", err)
		os.Exit(1)
	}

	payload, err := json.MarshalIndent(buildingFile{
		University: *university,
		Address:    *address,
		Graph:      graph,
	}, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode building: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, payload, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *out, err)
		os.Exit(1)
	}

	fmt.Printf("wrote %s (%d nodes, %d edges)\n", *out, len(graph.Nodes), len(graph.Edges))
}
