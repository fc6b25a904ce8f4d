package main

import (
	"encoding/json"
	"fmt"
	"os"

	trigger "github.com/supernemo-dbd/trigger_go/pkg"
)

func LoadConfiguration(filename string) (trigger.Configuration, error) {
	config := trigger.DefaultConfiguration()

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, err
	}
	return config, nil
}

func printConfiguration(config trigger.Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("File in: %s", config.FileIn), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Write data: %t", config.WriteData), "config")
	logger.Info(fmt.Sprintf("Write geiger matrix: %t", config.WriteMatrix), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	if !config.NoDB {
		logger.Info(fmt.Sprintf("DB driver: %s", config.DBDriver), "config")
		logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
		logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	}
	logger.Info(fmt.Sprintf("Run number: %d", config.RunNumber), "config")
	logger.Info(fmt.Sprintf("Skip: %d", config.Skip), "config")
	logger.Info(fmt.Sprintf("Max events: %d", config.MaxEvents), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("Memories: %s %s %s %s %s", config.MemRowFile, config.MemLayerFile,
		config.MemZoneFile, config.MemSideFile, config.MemFinaleFile), "config")
	logger.Info(fmt.Sprintf("Calorimeter gate size: %d", config.CalorimeterGateSize), "config")
	logger.Info(fmt.Sprintf("Calo circular buffer depth: %d", config.CaloCircularBufferDepth), "config")
	logger.Info(fmt.Sprintf("Calo multiplicity threshold: %d", config.CaloTotalMultiplicityThreshold), "config")
	logger.Info(fmt.Sprintf("Calo single side coincidence: %t", config.CaloSingleSideCoincidence), "config")
}
