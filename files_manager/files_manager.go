package files_manager

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"img2cmyk/contracts"
)

type ImageFolder = contracts.ImageFolder

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
	".webp": true,
}

func IsImagePath(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

func CheckProvidedDirs(inputDir string, outputDir string) error {
	if inputDir == "" || outputDir == "" {
		return fmt.Errorf("input and output directories required")
	}
	if stat, err := os.Stat(inputDir); err != nil || !stat.IsDir() {
		return fmt.Errorf("input directory does not exist or is not a directory")
	}
	if stat, err := os.Stat(outputDir); err != nil || !stat.IsDir() {
		return fmt.Errorf("output directory does not exist or is not a directory")
	}
	inAbs, err := filepath.Abs(inputDir)
	if err != nil {
		return err
	}
	outAbs, err := filepath.Abs(outputDir)
	if err != nil {
		return err
	}
	if inAbs == outAbs {
		return fmt.Errorf("input and output directories must be different")
	}
	if strings.HasPrefix(inAbs, outAbs+string(filepath.Separator)) ||
		strings.HasPrefix(outAbs, inAbs+string(filepath.Separator)) {
		return fmt.Errorf("input and output directories must not be nested")
	}
	return nil
}

// GetImagePaths lists the image files directly inside dir, skipping macOS
// "._" droppings, plus their combined size in bytes.
func GetImagePaths(dir string) ([]string, int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, err
	}
	paths := make([]string, 0, len(entries))
	var size int64 = 0
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "._") {
			continue
		}
		if !IsImagePath(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
		if info, err := entry.Info(); err == nil {
			size += info.Size()
		}
	}
	return paths, size, nil
}

// GetImageFolders returns one ImageFolder per subdirectory of root that
// contains image files, plus a folder for root's own files when present.
func GetImageFolders(root string) ([]ImageFolder, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	folders := make([]ImageFolder, 0, len(entries)+1)

	rootPaths, rootSize, err := GetImagePaths(root)
	if err != nil {
		return nil, err
	}
	if len(rootPaths) > 0 {
		folders = append(folders, ImageFolder{
			ImagePaths: rootPaths,
			Name:       filepath.Base(filepath.Clean(root)),
			Path:       root,
			ImageBytes: rootSize,
		})
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		subDirPath := filepath.Join(root, entry.Name())
		paths, size, err := GetImagePaths(subDirPath)
		if err != nil || len(paths) == 0 {
			continue
		}
		folders = append(folders, ImageFolder{
			ImagePaths: paths,
			Name:       entry.Name(),
			Path:       subDirPath,
			ImageBytes: size,
		})
	}
	return folders, nil
}
