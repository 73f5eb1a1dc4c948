package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func Test_Main_Silence(t *testing.T) {
	var file = filepath.Join(t.TempDir(), "silence.raw")
	if err := os.WriteFile(file, make([]byte, 48000*2), 0o600); err != nil {
		t.Fatal(err)
	}

	os.Args = []string{"lmrdecode", "--input", file, "--log-level", "error"}
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)

	main()
}
