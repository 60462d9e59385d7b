package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"img2cmyk/contracts"
	"img2cmyk/converter"
	"img2cmyk/files_manager"
	"img2cmyk/icc_info"
	"img2cmyk/pdf_writer"
)

type InputFlags = contracts.InputFlags

func main() {
	input := flag.String("input", "", "Input image file or directory")
	output := flag.String("output", "", "Output directory for converted TIFFs")
	rgbProfile := flag.String("rgb-profile", "", "Source RGB ICC profile path")
	cmykProfile := flag.String("cmyk-profile", "", "Destination CMYK ICC profile path")
	intent := flag.String("intent", contracts.IntentPerceptual, "Rendering intent: perceptual, relative, saturation, absolute")
	dpi := flag.Float64("dpi", converter.DefaultDPI, "Resolution written into output files")
	keepDPI := flag.Bool("keep-dpi", false, "Reuse the input file's resolution metadata when present")
	proof := flag.Bool("proof", false, "Write a soft-proof PDF next to each converted folder")
	describe := flag.Bool("describe", false, "Print profile details and exit")
	workers := flag.Int("workers", max(runtime.NumCPU()-1, 1), "Concurrent folder conversions")
	verbose := flag.Bool("v", false, "Verbose diagnostics")
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	args := InputFlags{
		InputPath:   *input,
		OutputDir:   *output,
		RGBProfile:  *rgbProfile,
		CMYKProfile: *cmykProfile,
		Intent:      *intent,
		DPI:         *dpi,
		KeepDPI:     *keepDPI,
		Proof:       *proof,
		Describe:    *describe,
		Workers:     max(*workers, 1),
	}

	if args.RGBProfile == "" || args.CMYKProfile == "" {
		fmt.Println("[ERROR]: both -rgb-profile and -cmyk-profile are required")
		os.Exit(1)
	}

	if args.Describe {
		describeProfiles(args.RGBProfile, args.CMYKProfile)
		return
	}

	if args.InputPath == "" || args.OutputDir == "" {
		fmt.Println("[ERROR]: -input and -output are required")
		os.Exit(1)
	}

	converter.InitDecoder()
	defer converter.ShutdownDecoder()

	startTime := time.Now()
	defer func() {
		fmt.Printf("Total time taken: %s\n", time.Since(startTime))
	}()

	stat, err := os.Stat(args.InputPath)
	if err != nil {
		fmt.Printf("[ERROR]: %v\n", err)
		os.Exit(1)
	}

	var failed int
	if stat.IsDir() {
		failed = convertTree(args)
	} else {
		failed = convertSingle(args)
	}
	if failed > 0 {
		fmt.Printf("Finished with %d failed conversion(s).\n", failed)
		os.Exit(1)
	}
	fmt.Println("Conversion completed successfully.")
}

func describeProfiles(paths ...string) {
	for _, path := range paths {
		info, err := icc_info.Inspect(path)
		if err != nil {
			fmt.Printf("[ERROR]: %v\n", err)
			continue
		}
		fmt.Println(info)
	}
}

func pipelineOptions(args InputFlags) contracts.PipelineOptions {
	return contracts.PipelineOptions{
		Intent:      args.Intent,
		DPI:         args.DPI,
		KeepDPI:     args.KeepDPI,
		KeepPreview: args.Proof,
	}
}

func outputName(inputPath string) string {
	base := filepath.Base(inputPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".tif"
}

func convertSingle(args InputFlags) int {
	if err := os.MkdirAll(args.OutputDir, 0o755); err != nil {
		fmt.Printf("[ERROR]: %v\n", err)
		return 1
	}

	folder := contracts.ImageFolder{
		ImagePaths: []string{args.InputPath},
		Name:       strings.TrimSuffix(filepath.Base(args.InputPath), filepath.Ext(args.InputPath)),
		Path:       filepath.Dir(args.InputPath),
	}
	return convertFolder(folder, args.OutputDir, args)
}

func convertTree(args InputFlags) int {
	if err := os.MkdirAll(args.OutputDir, 0o755); err != nil {
		fmt.Printf("[ERROR]: %v\n", err)
		return 1
	}
	if err := files_manager.CheckProvidedDirs(args.InputPath, args.OutputDir); err != nil {
		fmt.Printf("[ERROR]: %v\n", err)
		return 1
	}

	folders, err := files_manager.GetImageFolders(args.InputPath)
	if err != nil {
		fmt.Printf("[ERROR]: %v\n", err)
		return 1
	}
	if len(folders) == 0 {
		fmt.Println("No image files found in the input directory.")
		return 1
	}
	fmt.Printf("Found %d folder(s) to convert.\n", len(folders))

	sem := make(chan struct{}, args.Workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0

	fmt.Println("Starting conversion...")
	for _, folder := range folders {
		wg.Add(1)
		go func(folder contracts.ImageFolder) {
			defer wg.Done()

			sem <- struct{}{}        // Acquire a token
			defer func() { <-sem }() // Release the token

			outDir := args.OutputDir
			if folder.Path != args.InputPath {
				outDir = filepath.Join(args.OutputDir, folder.Name)
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					fmt.Printf("[ERROR]: %v\n", err)
					mu.Lock()
					failed += len(folder.ImagePaths)
					mu.Unlock()
					return
				}
			}

			n := convertFolder(folder, outDir, args)
			mu.Lock()
			failed += n
			mu.Unlock()
		}(folder)
	}
	wg.Wait()
	return failed
}

// convertFolder runs one pipeline over every image in the folder. One
// pipeline per call: the handles are not reentrant, so concurrency happens
// across folders, never within one.
func convertFolder(folder contracts.ImageFolder, outDir string, args InputFlags) int {
	p := converter.NewPipeline(pipelineOptions(args))
	defer p.Cleanup()

	if err := p.Initialize(args.RGBProfile, args.CMYKProfile); err != nil {
		fmt.Printf("[ERROR]: folder %s: %v\n", folder.Name, err)
		return len(folder.ImagePaths)
	}

	failed := 0
	var pages []pdf_writer.ProofPage
	for _, imgPath := range folder.ImagePaths {
		outPath := filepath.Join(outDir, outputName(imgPath))
		res, err := p.Convert(imgPath, outPath)
		if err != nil {
			fmt.Printf("[ERROR]: %s: %v\n", imgPath, err)
			failed++
			continue
		}
		fmt.Printf("Converted %s -> %s (%dx%d @ %.0f dpi)\n",
			imgPath, outPath, res.Width, res.Height, res.DPI)

		if args.Proof && res.Preview != nil {
			pages = append(pages, pdf_writer.ProofPage{
				Name:    filepath.Base(res.OutputPath),
				Preview: res.Preview,
				Width:   res.Width,
				Height:  res.Height,
				DPI:     res.DPI,
			})
		}
	}

	if args.Proof && len(pages) > 0 {
		proofPath := filepath.Join(outDir, folder.Name+"_proof.pdf")
		if err := pdf_writer.WriteProofSheet(proofPath, pages); err != nil {
			fmt.Printf("[ERROR]: %v\n", err)
			failed++
		} else {
			fmt.Printf("Proof sheet written to %s\n", proofPath)
		}
	}
	return failed
}
