// cmd_run_test.go - Tests fuer die Lauf-Ausfuehrung
package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/vaeflow/vaeflow/config"
	"github.com/vaeflow/vaeflow/store"

	_ "github.com/vaeflow/vaeflow/network/networks"
)

// writeFeatureManifest legt zwei Subjekte mit den gegebenen
// Feature-Codes an und gibt den Manifest-Pfad zurueck
func writeFeatureManifest(t *testing.T, dir, codes string) string {
	t.Helper()

	var lines string
	for _, id := range []string{"sub_a", "sub_b"} {
		path := filepath.Join(dir, id+".csv")
		if err := os.WriteFile(path, []byte(codes), 0o644); err != nil {
			t.Fatal(err)
		}
		lines += id + "," + path + "\n"
	}

	manifest := filepath.Join(dir, "manifest.csv")
	if err := os.WriteFile(manifest, []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}
	return manifest
}

func TestRunApplicationFinishesFailedRun(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "runs.db")
	t.Setenv("VAEFLOW_RUNS_DB", dbPath)

	// drei Feature-Werte je Subjekt passen nicht in die Latent-Shape
	// [2 4]; der Lauf scheitert am ersten Batch
	manifest := writeFeatureManifest(t, dir, "0.1,0.2,0.3")

	p := runParams{
		net: config.Net{Name: "vae", BatchSize: 2, LatentDim: 4},
		action: config.Action{
			SpatialWindowSize: []int{2, 2},
			SaveOutputDir:     filepath.Join(dir, "out"),
			NumDevices:        1,
			Seed:              7,
		},
		data:     config.Data{Sources: map[string]config.Source{"feature": {ManifestPath: manifest}}},
		task:     config.Autoencoder{InferenceType: "linear_interpolation", NInterpolations: 2},
		maxSteps: 1,
	}

	if err := runApplication(context.Background(), p); err == nil {
		t.Fatal("erwartet Fehler durch unpassende Feature-Codes")
	}

	// auch der fehlgeschlagene Lauf ist in der Historie abgeschlossen
	runs := &store.Store{DBPath: dbPath}
	defer runs.Close()
	entries, err := runs.Runs()
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Runs liefert %d Eintraege, erwartet 1", len(entries))
	}
	if entries[0].FinishedAt.IsZero() {
		t.Error("fehlgeschlagener Lauf muss abgeschlossen sein")
	}
	if entries[0].Batches != 0 {
		t.Errorf("Batches = %d, erwartet 0", entries[0].Batches)
	}
}
