package config

// Quillfile represents the structure of the quill.yaml configuration file.
// Absent fields keep their default values.
type Quillfile struct {
	Page          *PageDTO          `yaml:"page"`
	Text          *TextDTO          `yaml:"text"`
	Footer        *bool             `yaml:"footer"`
	Numbering     *bool             `yaml:"numbering"`
	Cache         *CacheDTO         `yaml:"cache"`
	Stabilization *StabilizationDTO `yaml:"stabilization"`
	Parallelism   *int              `yaml:"parallelism"`
	Trace         *bool             `yaml:"trace"`
}

// PageDTO represents the page geometry section.
type PageDTO struct {
	Width  *float64 `yaml:"width"`
	Height *float64 `yaml:"height"`
	Margin *float64 `yaml:"margin"`
}

// TextDTO represents the text style section.
type TextDTO struct {
	Size    *float64 `yaml:"size"`
	Leading *float64 `yaml:"leading"`
}

// CacheDTO represents the memoization cache section.
type CacheDTO struct {
	MaxAge     *uint64 `yaml:"max_age"`
	Variants   *int    `yaml:"variants"`
	CrossCheck *bool   `yaml:"cross_check"`
}

// StabilizationDTO represents the layout iteration section.
type StabilizationDTO struct {
	MaxIterations *int `yaml:"max_iterations"`
}
