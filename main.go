package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"sync"

	"monumentfinder/catalog"
	"monumentfinder/config"
	"monumentfinder/database"
	"monumentfinder/imageprocessor"
	"monumentfinder/logging"
	"monumentfinder/recognizer"
	"monumentfinder/utils"

	cli "github.com/spf13/cobra"
)

var (
	// The root command only carries the shared flags
	rootCmd = &cli.Command{
		Use:   "monumentfinder",
		Short: "Recognize monuments in photos by matching local image features against a catalog",
		PersistentPreRun: func(cmd *cli.Command, args []string) {
			setupLogging(cmd)
		},
		SilenceUsage: true,
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.Bool("debug", false, "Write a debug log")
	flags.String("logfile", "monumentfinder.log", "Path of the debug log")
	flags.String("detector", "orb", "Keypoint detector: orb, akaze, brisk, kaze, sift, fast, gftt, agast")
	flags.String("descriptor", "orb", "Descriptor extractor: orb, akaze, brisk, kaze, sift")
	flags.String("matcher", "bruteforce-hamming", "Descriptor matcher: bruteforce, bruteforce-l1, bruteforce-hamming, bruteforce-hamming2, flann")
	flags.Float64("ratio", recognizer.DefaultRatio, "Ratio test threshold in (0, 1]")
	flags.Int("threshold", recognizer.DefaultMatchThreshold, "Minimum good matches to accept a monument")
	flags.Bool("show-matches", false, "Show the matches of each recognized image and wait for a key press")
	flags.String("policy", "first", "Catalog policy: first (first entry above threshold) or best")
	flags.StringArrayP("monument", "m", nil, "Register a catalog entry as NAME=PATH (repeatable)")
	flags.String("db", "", "Catalog database (defaults to monuments.db next to the executable)")
	flags.Bool("auto-orient", false, "Apply EXIF orientation before feature detection")
	flags.Int("max-dimension", 0, "Downscale images so the longest side is at most this many pixels (0 keeps the original size)")
	flags.Bool("geotag", false, "Read GPS tags from images with exiftool")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(cmd *cli.Command) {
	debug, _ := cmd.Flags().GetBool("debug")
	if !debug {
		return
	}
	logPath, _ := cmd.Flags().GetString("logfile")
	if err := logging.SetupLogger(logPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to setup logging: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "Debug mode enabled. Logging to: %s\n", logPath)
}

// loadConfig reads the environment and lets explicitly set flags override it
func loadConfig(cmd *cli.Command) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	flags := cmd.Flags()
	if flags.Changed("detector") {
		cfg.Detector, _ = flags.GetString("detector")
	}
	if flags.Changed("descriptor") {
		cfg.Descriptor, _ = flags.GetString("descriptor")
	}
	if flags.Changed("matcher") {
		cfg.Matcher, _ = flags.GetString("matcher")
	}
	if flags.Changed("ratio") {
		cfg.Ratio, _ = flags.GetFloat64("ratio")
	}
	if flags.Changed("threshold") {
		cfg.MatchThreshold, _ = flags.GetInt("threshold")
	}
	if flags.Changed("show-matches") {
		cfg.ShowMatches, _ = flags.GetBool("show-matches")
	}
	if flags.Changed("policy") {
		cfg.Policy, _ = flags.GetString("policy")
	}
	if flags.Changed("db") {
		cfg.DatabasePath, _ = flags.GetString("db")
	}
	if flags.Changed("auto-orient") {
		cfg.AutoOrient, _ = flags.GetBool("auto-orient")
	}
	if flags.Changed("max-dimension") {
		cfg.MaxDimension, _ = flags.GetInt("max-dimension")
	}
	if flags.Changed("geotag") {
		cfg.GeoTag, _ = flags.GetBool("geotag")
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = utils.GetDefaultDatabasePath()
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

// app holds everything a recognition command needs and releases it on exit
type app struct {
	cfg        *config.Config
	geoTagger  *imageprocessor.GeoTagger
	features   *imageprocessor.FeatureHandler
	catalog    *catalog.Registry
	visualizer *imageprocessor.WindowVisualizer
	engine     *recognizer.Engine
	closeOnce  sync.Once
}

// newFeatureHandler builds the gocv pipeline named by the configuration
func newFeatureHandler(cfg *config.Config) (*imageprocessor.FeatureHandler, *imageprocessor.GeoTagger) {
	detector, err := imageprocessor.ParseDetector(cfg.Detector)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	descriptor, err := imageprocessor.ParseDescriptorExtractor(cfg.Descriptor)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	matcher, err := imageprocessor.ParseDescriptorMatcher(cfg.Matcher)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	var geoTagger *imageprocessor.GeoTagger
	if cfg.GeoTag {
		geoTagger, err = imageprocessor.NewGeoTagger()
		if err != nil {
			// Recognition still works without coordinates
			logging.LogWarning("GPS tagging disabled: %v", err)
			geoTagger = nil
		}
	}

	handler, err := imageprocessor.NewFeatureHandler(imageprocessor.FeatureHandlerOptions{
		Detector:   detector,
		Descriptor: descriptor,
		Matcher:    matcher,
		Loader: imageprocessor.LoaderOptions{
			AutoOrient:   cfg.AutoOrient,
			MaxDimension: cfg.MaxDimension,
		},
		GeoTagger: geoTagger,
	})
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return handler, geoTagger
}

// setupApp builds the feature handler, registers the catalog and creates the engine.
// Registration failures are fatal.
func setupApp(cmd *cli.Command) *app {
	cfg := loadConfig(cmd)
	a := &app{cfg: cfg}
	a.features, a.geoTagger = newFeatureHandler(cfg)
	a.catalog = catalog.NewRegistry(a.features)

	if err := registerStoredMonuments(a.catalog, cfg.DatabasePath); err != nil {
		a.close()
		log.Fatalf("Failed to register catalog: %v", err)
	}

	monuments, _ := cmd.Flags().GetStringArray("monument")
	for _, arg := range monuments {
		m, err := utils.ParseMonumentArg(arg)
		if err != nil {
			a.close()
			log.Fatalf("%v", err)
		}
		if err := a.catalog.Register(m.Name, m.Path); err != nil {
			a.close()
			log.Fatalf("Failed to register monument %s: %v", m.Name, err)
		}
	}
	logging.LogInfo("Catalog holds %d monuments", a.catalog.Len())

	policy, err := recognizer.ParsePolicy(cfg.Policy)
	if err != nil {
		a.close()
		log.Fatalf("Invalid configuration: %v", err)
	}
	opts := recognizer.Options{
		Ratio:          cfg.Ratio,
		MatchThreshold: cfg.MatchThreshold,
		Policy:         policy,
		ShowMatches:    cfg.ShowMatches,
	}
	if cfg.ShowMatches {
		a.visualizer = imageprocessor.NewWindowVisualizer("Matches")
		opts.Visualizer = a.visualizer
	}
	a.engine = recognizer.New(a.features, a.catalog, opts)
	return a
}

// registerStoredMonuments registers the rows of the catalog database in id
// order. A missing database file means an empty stored catalog.
func registerStoredMonuments(reg *catalog.Registry, dbPath string) error {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		logging.DebugLog("No catalog database at %s", dbPath)
		return nil
	}

	db, err := database.OpenDatabase(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	return registerRows(reg, db)
}

func registerRows(reg *catalog.Registry, db *sql.DB) error {
	rows, err := database.ListMonuments(db)
	if err != nil {
		return err
	}
	for _, m := range rows {
		if err := reg.RegisterAt(m.Name, m.Path, m.Location); err != nil {
			return fmt.Errorf("monument %s (id %d): %w", m.Name, m.ID, err)
		}
	}
	return nil
}

// close runs once, whether deferred or called before an early exit
func (a *app) close() {
	a.closeOnce.Do(a.release)
}

func (a *app) release() {
	if a.visualizer != nil {
		_ = a.visualizer.Close()
	}
	if a.catalog != nil {
		if err := a.catalog.Close(); err != nil {
			logging.LogWarning("Failed to release catalog: %v", err)
		}
	}
	if a.features != nil {
		_ = a.features.Close()
	}
	if a.geoTagger != nil {
		_ = a.geoTagger.Close()
	}
	logging.CloseLogger()
}
