// Package generator produces synthetic multi-floor building graphs for
// demos, seeding and load tests. Output always passes snapshot validation.
package generator

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/mpetrenko/campusnav/internal/domain"
)

// Config controls the shape of a generated building.
type Config struct {
	Floors        int
	RoomsPerFloor int
	Seed          int64
}

// DefaultConfig returns a small three-floor building.
func DefaultConfig() Config {
	return Config{Floors: 3, RoomsPerFloor: 8, Seed: 1}
}

// Generate builds a building graph: each floor is a corridor chain with
// rooms hanging off it, and a stairwell per floor links adjacent floors.
func Generate(cfg Config) domain.Graph {
	if cfg.Floors < 1 {
		cfg.Floors = 1
	}
	if cfg.RoomsPerFloor < 1 {
		cfg.RoomsPerFloor = 1
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	var g domain.Graph
	for floor := 1; floor <= cfg.Floors; floor++ {
		var prevCorridor string
		for i := 1; i <= cfg.RoomsPerFloor; i++ {
			corridorID := fmt.Sprintf("f%d-c%d", floor, i)
			corridorX := float64(i) * 5
			corridorY := 0.0
			g.Nodes = append(g.Nodes, domain.Node{
				ID:    corridorID,
				X:     corridorX,
				Y:     corridorY,
				Floor: floor,
				Type:  domain.NodeTypeCorridor,
			})

			roomID := fmt.Sprintf("f%d-r%d", floor, i)
			roomType := domain.NodeTypeCabinet
			if rng.Intn(10) == 0 {
				roomType = domain.NodeTypeToilet
			}
			roomX := corridorX + rng.Float64()
			roomY := 3 + rng.Float64()
			g.Nodes = append(g.Nodes, domain.Node{
				ID:    roomID,
				X:     roomX,
				Y:     roomY,
				Floor: floor,
				Type:  roomType,
			})
			g.Edges = append(g.Edges, domain.Edge{
				From:   corridorID,
				To:     roomID,
				Weight: distance(corridorX, corridorY, roomX, roomY),
			})

			if prevCorridor != "" {
				g.Edges = append(g.Edges, domain.Edge{
					From:   prevCorridor,
					To:     corridorID,
					Weight: 5,
				})
			}
			prevCorridor = corridorID
		}

		stairsID := fmt.Sprintf("f%d-stairs", floor)
		g.Nodes = append(g.Nodes, domain.Node{
			ID:    stairsID,
			X:     0,
			Y:     0,
			Floor: floor,
			Type:  domain.NodeTypeStairs,
		})
		g.Edges = append(g.Edges, domain.Edge{
			From:   stairsID,
			To:     fmt.Sprintf("f%d-c1", floor),
			Weight: 5,
		})
		if floor > 1 {
			g.Edges = append(g.Edges, domain.Edge{
				From:   fmt.Sprintf("f%d-stairs", floor-1),
				To:     stairsID,
				Weight: 8,
			})
		}
	}
	return g
}

func distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}
