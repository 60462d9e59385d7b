package contracts

type InputFlags struct {
	InputPath   string
	OutputDir   string
	RGBProfile  string
	CMYKProfile string
	Intent      string
	DPI         float64
	KeepDPI     bool
	Proof       bool
	Describe    bool
	Workers     int
}
