package analyzer

import "fmt"

// NewDetector creates a detector by name. The empty name selects "contrast".
func NewDetector(variant string) (Detector, error) {
	switch variant {
	case "contrast", "":
		return NewContrastDetector(), nil
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}
