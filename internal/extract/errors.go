package extract

import (
	"fmt"

	"github.com/bull/docqa/internal/errs"
)

// ExtractionError reports the page that stopped an extraction.
// Page is 1-based; 0 means the failure was not tied to a page.
type ExtractionError struct {
	Page int
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Page == 0 {
		return fmt.Sprintf("%v: %v", errs.ErrExtraction, e.Err)
	}
	return fmt.Sprintf("%v: page %d: %v", errs.ErrExtraction, e.Page, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, errs.ErrExtraction) hold for every ExtractionError.
func (e *ExtractionError) Is(target error) bool {
	return target == errs.ErrExtraction
}
