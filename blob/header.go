package blob

import (
	"fmt"

	"github.com/arloliu/osmpbf/errs"
	"github.com/arloliu/osmpbf/format"
	"github.com/arloliu/osmpbf/schema"
)

// SupportedFeatures lists the required features this module can read.
var SupportedFeatures = []string{format.FeatureOsmSchemaV06, format.FeatureDenseNodes}

// CheckFeatures returns an error wrapping errs.ErrUnsupportedFeature for the
// first required feature of h that is not supported. Optional features are
// not checked.
func CheckFeatures(h *schema.HeaderBlock) error {
	for _, f := range h.RequiredFeatures {
		if !supported(f) {
			return fmt.Errorf("%w: %q", errs.ErrUnsupportedFeature, f)
		}
	}

	return nil
}

func supported(feature string) bool {
	for _, f := range SupportedFeatures {
		if f == feature {
			return true
		}
	}

	return false
}

// NewHeader returns a HeaderBlock declaring the features written by this
// module's encoder.
func NewHeader(writingProgram string) *schema.HeaderBlock {
	return &schema.HeaderBlock{
		RequiredFeatures: append([]string(nil), SupportedFeatures...),
		WritingProgram:   writingProgram,
	}
}
