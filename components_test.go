package lfmalloc

import "testing"

func TestLogComponentsGate(t *testing.T) {
	LogComponents("none")
	if Enabled := logok; Enabled != 0 {
		t.Fatalf("expected logging disabled by default/unknown component")
	}

	LogComponents("alloc")
	if logok == 0 {
		t.Fatalf("expected logging enabled after LogComponents(\"alloc\")")
	}

	// exercise the gated wrappers; they must not panic either way.
	debugf("test debug %v", 1)
	errorf("test error %v", 2)
	infof("test info %v", 3)
}
