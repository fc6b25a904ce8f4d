package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	trigger "github.com/supernemo-dbd/trigger_go/pkg"
)

var logger = Logger{log: slog.New(slog.NewTextHandler(os.Stderr, nil))}

// memgen writes the five tracker memories and prints the configuration
// entries pointing to them.
func main() {
	dir := flag.String("dir", ".", "Output directory for mem1.conf to mem5.conf")
	rowThreshold := flag.Int("row-threshold", 1, "Fired rows needed in a subzone row projection")
	layerThreshold := flag.Int("layer-threshold", 3, "Fired layers needed in a subzone layer projection")
	flag.Parse()

	trigger.SetLogger(logger)

	if *rowThreshold < 1 || *rowThreshold > trigger.GEIGER_LEVEL_ONE_SUBZONE_ROW_SIZE {
		logger.Error(fmt.Sprintf("row threshold must be between 1 and %d", trigger.GEIGER_LEVEL_ONE_SUBZONE_ROW_SIZE))
		os.Exit(1)
	}
	if *layerThreshold < 1 || *layerThreshold > trigger.GEIGER_LEVEL_ONE_SUBZONE_LAYER_SIZE {
		logger.Error(fmt.Sprintf("layer threshold must be between 1 and %d", trigger.GEIGER_LEVEL_ONE_SUBZONE_LAYER_SIZE))
		os.Exit(1)
	}
	if err := os.MkdirAll(*dir, 0o755); err != nil {
		logger.Error(fmt.Errorf("error creating %s: %w", *dir, err).Error())
		os.Exit(1)
	}

	maker := trigger.MemoryMaker{RowThreshold: *rowThreshold, LayerThreshold: *layerThreshold}
	tracker, err := maker.WriteAll(*dir)
	if err != nil {
		logger.Error(fmt.Errorf("error writing memories: %w", err).Error())
		os.Exit(1)
	}

	config := struct {
		MemRowFile    string `json:"mem_row_file"`
		MemLayerFile  string `json:"mem_layer_file"`
		MemZoneFile   string `json:"mem_zone_file"`
		MemSideFile   string `json:"mem_side_file"`
		MemFinaleFile string `json:"mem_finale_file"`
	}{tracker.MemRowFile, tracker.MemLayerFile, tracker.MemZoneFile, tracker.MemSideFile, tracker.MemFinaleFile}
	out, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	fmt.Println(string(out))
}
