// Command validate provides a small CLI that validates arena preset JSON
// files in the ../configs directory. It checks:
//   - JSON structure and field types
//   - Arena dimensions against the spawn padding
//   - Positive base speed, food target, and initial length
//
// Run it from this directory after editing presets; it exits non-zero when
// any preset is invalid.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/snake-arena/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validatePreset loads and validates a single preset JSON file.
func validatePreset(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	var cfg engine.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid JSON: %v", err))
		return result
	}

	cfg.ApplyDefaults()
	if err := engine.ValidateConfig(&cfg); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	if cfg.Name == "" {
		result.Errors = append(result.Errors, "Warning: preset has no name")
	}

	// Informational data
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", cfg.Name))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Arena: %.0fx%.0f", cfg.Width, cfg.Height))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Base speed: %.1f", cfg.BaseSpeed))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Food target: %d", cfg.TargetFoodCount))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Initial length: %d", cfg.InitialLength))

	return result
}

// main scans ../configs for *.json files and validates each one, printing a
// concise report and exiting with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding preset files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validatePreset(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All presets are valid!")
	} else {
		fmt.Println("❌ Some presets have errors")
		os.Exit(1)
	}
}
