package clipboard

import (
	"errors"
	"testing"
)

func TestNothingToCopy(t *testing.T) {
	if err := WriteImage(nil); !errors.Is(err, errNothing) {
		t.Fatalf("WriteImage(nil) = %v", err)
	}
	if err := WriteResults(nil); !errors.Is(err, errNothing) {
		t.Fatalf("WriteResults(nil) = %v", err)
	}
}
