package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"reorient/internal/models"
	"reorient/internal/ui"
	"reorient/pkg/config"
	"reorient/pkg/nifti"
	"reorient/pkg/script"
	"reorient/pkg/session"
	"reorient/pkg/visualization"
)

func main() {
	// Parse command line arguments
	input := flag.String("input", "", "NIfTI volume to reorient (.nii or .nii.gz)")
	configPath := flag.String("config", "reorient.yaml", "Configuration file")
	initConfig := flag.Bool("init-config", false, "Write a default configuration file and exit")
	tool := flag.String("tool", "", "Starting tool: Translate, Rotate or Select (overrides config)")
	loadMatrix := flag.String("load-matrix", "", "Replace the voxel-to-world matrix with this file")
	appendMatrix := flag.String("append-matrix", "", "Compose this matrix file with the current one")
	loadSelection := flag.String("load-selection", "", "Load the crop box from this file")
	scriptPath := flag.String("script", "", "YAML gesture script to replay")
	saveMatrix := flag.String("save-matrix", "", "Save the resulting matrix (use - for the configured name)")
	saveSelection := flag.String("save-selection", "", "Save the crop box (use - for the configured name)")
	output := flag.String("output", "", "Export the cropped volume (use - for the configured name)")
	slicesDir := flag.String("slices-dir", "", "Directory to save renders of the three views (overrides config)")
	sequence := flag.Int("sequence", -1, "Slices to save per plane under the slices directory (overrides config)")
	numCores := flag.Int("cores", runtime.NumCPU(), "Number of CPU cores to use for export (default: all available)")
	verbose := flag.Bool("v", false, "Verbose logging (overrides config)")
	flag.Parse()

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		ui.PrintSuccess(fmt.Sprintf("Default configuration written to %s", *configPath))
		return
	}

	// Validate inputs
	if *input == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *tool != "" {
		cfg.Session.Tool = *tool
	}
	if *slicesDir != "" {
		cfg.Output.SlicesDir = *slicesDir
	}
	if *sequence >= 0 {
		cfg.Output.Sequence = *sequence
	}
	if *verbose {
		cfg.Output.Verbose = true
	}

	startTool, err := cfg.Tool()
	if err != nil {
		log.Fatalf("Invalid tool: %v", err)
	}

	logger := log.New(io.Discard, "", 0)
	if cfg.Output.Verbose {
		logger = log.New(os.Stderr, "reorient: ", log.LstdFlags)
	}

	vol, err := nifti.Load(*input)
	if err != nil {
		log.Fatalf("Failed to load volume: %v", err)
	}
	mean, std := vol.Stats()
	logger.Printf("loaded %s: dim %v, pixdim %v, mean %.2f, std %.2f",
		vol.Name(), vol.Dim(), vol.Pixdim(), mean, std)

	box := cfg.CropBox()
	s := session.New(vol, session.Options{
		Tool:    startTool,
		CropBox: &box,
		Canvas:  cfg.ViewCanvas(),
		Logger:  logger,
		Workers: *numCores,
	})

	// Imports run in the order a user would click them
	if *loadMatrix != "" {
		if err := withFile(*loadMatrix, s.LoadMatrix); err != nil {
			log.Fatalf("Failed to load matrix: %v", err)
		}
		ui.PrintSuccess("Loaded matrix " + *loadMatrix)
	}
	if *appendMatrix != "" {
		if err := withFile(*appendMatrix, s.AppendMatrix); err != nil {
			log.Fatalf("Failed to append matrix: %v", err)
		}
		ui.PrintSuccess("Appended matrix " + *appendMatrix)
	}
	if *loadSelection != "" {
		if err := withFile(*loadSelection, s.LoadSelection); err != nil {
			log.Fatalf("Failed to load selection: %v", err)
		}
		ui.PrintSuccess("Loaded selection " + *loadSelection)
	}
	if *scriptPath != "" {
		if err := runScript(s, *scriptPath); err != nil {
			log.Fatalf("Script failed: %v", err)
		}
		ui.PrintSuccess("Replayed " + *scriptPath)
	}

	fmt.Println(ui.RenderInfo(s.Info()))

	// Saves; an empty name is a cancelled dialog
	if name := outputName(*saveMatrix, cfg.Output.MatrixFile); name != "" {
		if err := createFile(name, s.SaveMatrix); err != nil {
			ui.PrintError(fmt.Sprintf("Failed to save matrix: %v", err))
		} else {
			ui.PrintSuccess("Matrix saved to " + name)
		}
	}
	if name := outputName(*saveSelection, cfg.Output.SelectionFile); name != "" {
		if err := createFile(name, s.SaveSelection); err != nil {
			ui.PrintError(fmt.Sprintf("Failed to save selection: %v", err))
		} else {
			ui.PrintSuccess("Selection saved to " + name)
		}
	}
	if name := outputName(*output, cfg.Output.VolumeFile); name != "" {
		cropped, err := s.ExportCrop()
		if err == nil {
			err = nifti.Save(cropped, name)
		}
		if err != nil {
			ui.PrintError(fmt.Sprintf("Failed to export volume: %v", err))
		} else {
			ui.PrintSuccess(fmt.Sprintf("Cropped volume %v saved to %s", cropped.Dim(), name))
		}
	}

	if cfg.Output.SlicesDir != "" {
		c := cfg.ViewCanvas()
		viewer := visualization.NewViewer(vol, c.Width, c.Height)
		files, err := viewer.SavePlanes(cfg.Output.SlicesDir)
		if err != nil {
			log.Printf("Warning: Failed to save views: %v", err)
		}
		for _, f := range files {
			fmt.Printf("View saved to: %s\n", f)
		}

		// Extract and save slices along each plane
		if n := cfg.Output.Sequence; n > 0 {
			for _, p := range models.Planes {
				planeDir := filepath.Join(cfg.Output.SlicesDir, p.String())
				fmt.Printf("Saving %d %s slices to: %s\n", n, p, planeDir)
				if err := viewer.SavePlaneSequence(p, n, planeDir); err != nil {
					log.Printf("Warning: Failed to save %s slices: %v", p, err)
				}
			}
		}
	}
}

// outputName resolves a save flag: "-" picks the configured name.
func outputName(flagValue, configured string) string {
	if flagValue == "-" {
		return configured
	}
	return flagValue
}

func withFile(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return fn(f)
}

func createFile(path string, fn func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runScript(s *session.Session, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc, err := script.Load(f)
	if err != nil {
		return err
	}
	return script.Run(s, sc.Steps)
}
