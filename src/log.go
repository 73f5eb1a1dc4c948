package lmrdecode

/*------------------------------------------------------------------
 *
 * Purpose:	Diagnostic logging for the decode pipeline.
 *
 * Description:	Everything in the package logs through one structured
 *		logger.  Pipelines and decoders derive child loggers
 *		with "pipeline" / "decoder" keys attached so that
 *		interleaved output from several channels can be told apart.
 *
 *		Decoded messages are NOT logged here.  They go to message
 *		listeners.  This is for faults, configuration and state
 *		changes like DCD and AFC.
 *
 *------------------------------------------------------------------*/

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix:          "lmrdecode",
	ReportTimestamp: true,
})

// SetLogger replaces the package logger.  nil silences logging.
// Call before building pipelines; existing pipelines keep the logger
// they were built with.
func SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard)
	}
	logger = l
}

// Logger returns the package logger.
func Logger() *log.Logger {
	return logger
}

// SetLogLevel parses a level name ("debug", "info", "warn", "error").
func SetLogLevel(level string) error {
	var lvl, err = log.ParseLevel(level)
	if err != nil {
		return configError("log level %q: %v", level, err)
	}
	logger.SetLevel(lvl)
	return nil
}
