package contracts

type ImageFolder struct {
	ImagePaths []string
	Name       string
	Path       string
	ImageBytes int64
}
