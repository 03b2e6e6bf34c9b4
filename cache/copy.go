package cache

import (
	"fmt"

	"github.com/mitchellh/copystructure"
)

// deepCopy returns an independent copy of v.
func deepCopy(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	out, err := copystructure.Copy(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %T: %v", ErrCopyFailed, v, err)
	}
	return out, nil
}
