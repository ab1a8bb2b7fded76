package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"

	"github.com/PolarWolf314/zkgit/internal/ui"
)

// startSpinner starts a spinner with message unless verbose or debug output
// would interleave with it. The returned cleanup stops it and prints
// FinalMSG, which needs no trailing newline.
func startSpinner(out io.Writer, message string) (*spinner.Spinner, func()) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		Logger.Debugf("Failed to set spinner color: %v", err)
	}

	quiet := !verbose && !debug
	if quiet {
		s.Start()
	} else {
		Logger.Infof("%s", message)
	}

	cleanup := func() {
		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			s.FinalMSG = ""
		}
		if quiet {
			s.Stop()
		}
		if finalMsg != "" {
			fmt.Fprint(out, finalMsg)
		}
	}
	return s, cleanup
}
