package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/matchday/tifo/dsl"
	"github.com/matchday/tifo/generate"
	"github.com/matchday/tifo/layout"
	"github.com/matchday/tifo/psd"
	"github.com/matchday/tifo/renderer/raster"
	"github.com/matchday/tifo/template"
)

func main() {
	templates := flag.String("templates", "examples/pack.tifo", "template definition file")
	contentType := flag.String("type", "matchday", "content type to generate")
	dataJSON := flag.String("data", "", "entity attributes as JSON")
	output := flag.String("out", "", "output path (default output/post.png, or output/layout.json with -extract)")
	debug := flag.String("debug", "", "artifact debug JSON output path")
	extract := flag.String("extract", "", "PSD file to extract instead of generating")
	flag.Parse()

	if *extract != "" {
		out := outputPath(*output, true)
		if err := runExtract(*extract, out); err != nil {
			log.Fatalf("extract failed: %v", err)
		}
		fmt.Printf("extracted layout: %s\n", out)
		return
	}

	out := outputPath(*output, false)
	if err := runGenerate(*templates, *contentType, *dataJSON, out, *debug); err != nil {
		log.Fatalf("generate failed: %v", err)
	}
	fmt.Printf("generated post: %s\n", out)
}

// outputPath applies the mode-specific default when -out is not set.
func outputPath(out string, extract bool) string {
	if out != "" {
		return out
	}
	if extract {
		return "output/layout.json"
	}
	return "output/post.png"
}

// runExtract parses a PSD into layer metadata JSON.
func runExtract(inputPath, outputPath string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", inputPath, err)
	}
	doc, err := psd.Extract(data)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return layout.WriteDebugJSON(doc, outputPath)
}

// runGenerate wires the pipeline from CLI inputs and renders one post.
func runGenerate(templatePath, contentType, dataJSON, outputPath, debugPath string) error {
	file, err := os.Open(templatePath)
	if err != nil {
		return fmt.Errorf("open template file %s: %w", templatePath, err)
	}
	defer file.Close()

	templates, err := dsl.Parse(file)
	if err != nil {
		return err
	}
	registry, err := template.NewRegistry(templates...)
	if err != nil {
		return err
	}

	attrs := map[string]any{}
	if dataJSON != "" {
		if err := json.Unmarshal([]byte(dataJSON), &attrs); err != nil {
			return fmt.Errorf("parse data JSON: %w", err)
		}
	}

	fetcher := generate.NewHTTPFetcher(0)
	generator, err := generate.New(generate.Config{
		Templates: registry,
		Entities:  generate.StaticProvider{"cli": attrs},
		Assets:    fetcher,
		Renderer:  raster.New(raster.Options{Fetcher: fetcher}),
	})
	if err != nil {
		return err
	}

	artifact, err := generator.Generate(context.Background(), template.ContentType(contentType), "cli")
	if err != nil {
		return err
	}
	for _, w := range artifact.Warnings {
		log.Printf("warning: %s", w)
	}

	if debugPath != "" {
		if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		if err := layout.WriteDebugJSON(artifact, debugPath); err != nil {
			return fmt.Errorf("write debug JSON: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, artifact.Image, 0o644); err != nil {
		return fmt.Errorf("write PNG: %w", err)
	}
	return nil
}
