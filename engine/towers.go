// towers.go - Konstruktion der Device-Towers
//
// Enthaelt:
// - ConnectTowers: Ruft ConnectDataAndNetwork einmal je Device auf
package engine

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ConnectTowers baut die Batch-Berechnung einmal je Device-Tower auf.
// Jeder Tower erhaelt seine eigene Sicht auf den Gradienten-Collector;
// die konstruierten Teilgraphen sind unabhaengig voneinander.
func ConnectTowers(ctx context.Context, app Application, outputs *OutputsCollector, gradients *GradientsCollector, numDevices int) error {
	if numDevices < 1 {
		numDevices = 1
	}

	g, _ := errgroup.WithContext(ctx)
	for device := 0; device < numDevices; device++ {
		tower := gradients.Tower(device)
		g.Go(func() error {
			return app.ConnectDataAndNetwork(outputs, tower)
		})
	}
	return g.Wait()
}
