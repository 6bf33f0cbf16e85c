package main

import (
	"fmt"
	"log"
	"path/filepath"

	"monumentfinder/database"
	"monumentfinder/logging"
	"monumentfinder/types"
	"monumentfinder/utils"

	cli "github.com/spf13/cobra"
)

var (
	catalogCmd = &cli.Command{
		Use:   "catalog",
		Short: "Manage the stored monument catalog",
	}

	catalogAddCmd = &cli.Command{
		Use:   "add",
		Short: "Store a reference image for a monument",
		Args:  cli.NoArgs,
		Run:   handleCatalogAdd,
	}

	catalogListCmd = &cli.Command{
		Use:   "list",
		Short: "List stored monuments in scan order",
		Args:  cli.NoArgs,
		Run:   handleCatalogList,
	}
)

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogAddCmd, catalogListCmd)

	catalogAddCmd.Flags().StringP("name", "n", "", "Monument name")
	catalogAddCmd.Flags().StringP("image", "i", "", "Path to the reference image")
	catalogAddCmd.Flags().String("lat", "", "Latitude in decimal degrees")
	catalogAddCmd.Flags().String("lon", "", "Longitude in decimal degrees")
	catalogAddCmd.Flags().Float64("alt", 0, "Altitude in meters")
	catalogAddCmd.Flags().Float64("direction", 0, "Camera direction in degrees")

	_ = catalogAddCmd.MarkFlagRequired("name")
	_ = catalogAddCmd.MarkFlagRequired("image")
}

func handleCatalogAdd(cmd *cli.Command, args []string) {
	cfg := loadConfig(cmd)
	defer logging.CloseLogger()

	name, _ := cmd.Flags().GetString("name")
	imagePath, _ := cmd.Flags().GetString("image")
	latStr, _ := cmd.Flags().GetString("lat")
	lonStr, _ := cmd.Flags().GetString("lon")

	lat, err := utils.ParseCoordinate(latStr, 90)
	if err != nil {
		log.Fatalf("%v", err)
	}
	lon, err := utils.ParseCoordinate(lonStr, 180)
	if err != nil {
		log.Fatalf("%v", err)
	}
	loc := types.Location{Latitude: lat, Longitude: lon}
	loc.Altitude, _ = cmd.Flags().GetFloat64("alt")
	loc.Direction, _ = cmd.Flags().GetFloat64("direction")

	absPath, err := filepath.Abs(imagePath)
	if err != nil {
		log.Fatalf("Cannot resolve %s: %v", imagePath, err)
	}

	// The image must produce features now so the catalog never stores an
	// entry that would fail registration later.
	features, geoTagger := newFeatureHandler(cfg)
	defer features.Close()
	if geoTagger != nil {
		defer geoTagger.Close()
	}
	img, err := features.ProcessImage(absPath)
	if err != nil {
		log.Fatalf("Failed to process %s: %v", imagePath, err)
	}
	keypoints := img.KeypointCount()
	if loc.IsZero() {
		loc = img.Location()
	}
	img.Close()

	db, err := database.InitDatabase(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	id, err := database.StoreMonument(db, types.MonumentInfo{Name: name, Path: absPath, Location: loc})
	if err != nil {
		log.Fatalf("Failed to store monument: %v", err)
	}
	logging.LogInfo("Stored monument %s (id %d) with %d keypoints", name, id, keypoints)
	fmt.Printf("Added monument %s (id %d) from %s with %d keypoints\n", name, id, absPath, keypoints)
}

func handleCatalogList(cmd *cli.Command, args []string) {
	cfg := loadConfig(cmd)
	defer logging.CloseLogger()

	db, err := database.InitDatabase(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	monuments, err := database.ListMonuments(db)
	if err != nil {
		log.Fatalf("Failed to list monuments: %v", err)
	}
	for _, m := range monuments {
		if m.Location.IsZero() {
			fmt.Printf("%d\t%s\t%s\n", m.ID, m.Name, m.Path)
			continue
		}
		fmt.Printf("%d\t%s\t%s\t%.6f,%.6f\n", m.ID, m.Name, m.Path, m.Location.Latitude, m.Location.Longitude)
	}

	stats, err := database.GetCatalogStats(db)
	if err != nil {
		log.Fatalf("Failed to read catalog stats: %v", err)
	}
	fmt.Printf("%d monuments (%d distinct names, %d geolocated) in %s\n",
		stats.TotalEntries, stats.UniqueNames, stats.Geolocated, cfg.DatabasePath)
}
