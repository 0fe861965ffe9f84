package logger

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
)

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags)
		SetLevel("info")
	})

	var tests = []struct {
		level   string
		ok      bool
		logged  []string
		dropped []string
	}{
		{"debug", true, []string{"[DEBUG] d", "[INFO ] i", "[WARN ] w", "[ERROR] e"}, nil},
		{"WARN", true, []string{"[WARN ] w", "[ERROR] e"}, []string{"[DEBUG] d", "[INFO ] i"}},
		{"bogus", false, []string{"[WARN ] w", "[ERROR] e"}, []string{"[INFO ] i"}},
		{"error", true, []string{"[ERROR] e"}, []string{"[WARN ] w"}},
	}

	for _, tt := range tests {
		// Use t.Run to run each case as a subtest with a descriptive name
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			if ok := SetLevel(tt.level); ok != tt.ok {
				t.Errorf("\nSetLevel(%q) = %v, wanted %v", tt.level, ok, tt.ok)
			}
			Debug("d")
			Info("i")
			Warn("w")
			Error("e")

			out := buf.String()
			for _, s := range tt.logged {
				if !strings.Contains(out, s) {
					t.Errorf("\nexpected %q in output %q", s, out)
				}
			}
			for _, s := range tt.dropped {
				if strings.Contains(out, s) {
					t.Errorf("\ndid not expect %q in output %q", s, out)
				}
			}
		})
	}
}
