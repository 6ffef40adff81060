/*
NAME
  config.go

DESCRIPTION
  Package config parses and validates the tsrewrite CLI surface, modeled
  on ausocean-av/revid/config's Config-struct-plus-Validate shape but
  sized to this program's flat flag.FlagSet rather than revid's
  variable-table/Update machinery, since tsrewrite's configuration is set
  once at startup and never hot-reloaded from a cloud variable feed.

LICENSE
  Copyright (C) 2026 the tsrewrite contributors.

  Licensed under the Apache License, Version 2.0 (the "License");
  you may not use this file except in compliance with the License.
  You may obtain a copy of the License at

      http://www.apache.org/licenses/LICENSE-2.0
*/

// Package config parses and validates command-line configuration for
// tsrewrite.
package config

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/ts-rewriter/tsrewrite/arib"
	"github.com/ts-rewriter/tsrewrite/servicefilter"
)

// ReadMode selects how the driver reads from its source.
type ReadMode int

const (
	// ModeStreaming reads a growing file or pipe; short reads mean wait.
	ModeStreaming ReadMode = 0
	// ModePreallocated reads a fully-sized, possibly-preallocated file;
	// short reads mean reseek to the last known good offset and retry.
	ModePreallocated ReadMode = 1
	// ModeNonBlocking reads a non-blocking pipe; short reads mean the
	// idle-seconds watchdog governs completion.
	ModeNonBlocking ReadMode = 2
)

// UsageError marks a configuration error that should map to exit code 2
// rather than the exit code 1 used for runtime I/O failures.
type UsageError struct{ err error }

func (e *UsageError) Error() string { return e.err.Error() }
func (e *UsageError) Unwrap() error { return e.err }

// IsUsage reports whether err (or one it wraps) is a UsageError.
func IsUsage(err error) bool {
	var u *UsageError
	return errors.As(err, &u)
}

func usageErrorf(format string, args ...interface{}) error {
	return &UsageError{pkgerrors.Errorf(format, args...)}
}

// Config holds the fully parsed and validated tsrewrite CLI surface.
type Config struct {
	Src string // "-" for stdin, else a file path.

	SeekOffset    int64
	LimitBytesSec int
	TimeoutSec    int
	ReadMode      ReadMode
	ExcludePIDs   map[int]bool

	ProgramNumberOrIndex int
	Audio1Raw            int
	Audio2Raw            int
	CaptionRaw           int
	SuperimposeRaw       int

	TracePath string // "" disables tracing, "-" traces to stdout.

	ID3Flags int

	LogPath string
}

// Default returns a Config with every field at its zero-effect default:
// passthrough filtering, ID3 conversion disabled, no trace, no log file.
func Default() *Config {
	return &Config{ExcludePIDs: make(map[int]bool)}
}

// Parse parses args (excluding the program name, i.e. os.Args[1:]) into a
// Config and validates it, mirroring tsreadex.cpp's argument loop.
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("tsrewrite", flag.ContinueOnError)

	seek := fs.Int64("s", 0, "start byte offset, negative means from end")
	limit := fs.Int("l", 0, "read-rate limit KB/s (0 disables)")
	timeout := fs.Int("t", 0, "idle-seconds timeout")
	mode := fs.Int("m", 0, "read mode: 0 streaming, 1 preallocated, 2 non-blocking")
	exclude := fs.String("x", "", "PIDs to drop, slash-separated")
	progNum := fs.Int("n", 0, "program selector; negative = index")
	aud1 := fs.Int("a", 0, "audio1 mode")
	aud2 := fs.Int("b", 0, "audio2 mode")
	cap_ := fs.Int("c", 0, "caption mode")
	sup := fs.Int("u", 0, "superimpose mode")
	trace := fs.String("r", "", "trace file path, or - for stdout")
	id3Flags := fs.Int("d", 0, "ID3 conversion flags")
	logPath := fs.String("log", "", "rotating log file path")

	if err := fs.Parse(args); err != nil {
		return nil, &UsageError{err}
	}

	rest := fs.Args()
	if len(rest) != 1 || rest[0] == "" {
		return nil, usageErrorf("expected exactly one source argument (got %d)", len(rest))
	}

	c := Default()
	c.Src = rest[0]
	c.SeekOffset = *seek
	c.LimitBytesSec = *limit * 1024
	c.TimeoutSec = *timeout
	c.ReadMode = ReadMode(*mode)
	c.ProgramNumberOrIndex = *progNum
	c.Audio1Raw = *aud1
	c.Audio2Raw = *aud2
	c.CaptionRaw = *cap_
	c.SuperimposeRaw = *sup
	c.TracePath = *trace
	c.ID3Flags = *id3Flags
	c.LogPath = *logPath

	if *exclude != "" {
		for _, tok := range strings.Split(*exclude, "/") {
			pid, err := strconv.Atoi(tok)
			if err != nil {
				return nil, usageErrorf("invalid PID %q in -x: %v", tok, err)
			}
			c.ExcludePIDs[pid] = true
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks every field against the bounds tsreadex.cpp enforces.
func (c *Config) Validate() error {
	if c.LimitBytesSec < 0 || c.LimitBytesSec > 32*1024*1024 {
		return usageErrorf("-l out of range")
	}
	if c.TimeoutSec < 0 || c.TimeoutSec > 600 {
		return usageErrorf("-t out of range")
	}
	if c.ReadMode < ModeStreaming || c.ReadMode > ModeNonBlocking {
		return usageErrorf("-m must be 0, 1, or 2")
	}
	for pid := range c.ExcludePIDs {
		if pid < 0 || pid > 8191 {
			return usageErrorf("-x PID %d out of range", pid)
		}
	}
	if c.ProgramNumberOrIndex < -256 || c.ProgramNumberOrIndex > 65535 {
		return usageErrorf("-n out of range")
	}
	if c.Audio1Raw < 0 || c.Audio1Raw > 13 || c.Audio1Raw%4 > 1 {
		return usageErrorf("-a out of range")
	}
	if c.Audio2Raw < 0 || c.Audio2Raw > 7 || c.Audio2Raw%4 > 3 {
		return usageErrorf("-b out of range")
	}
	if c.CaptionRaw < 0 || c.CaptionRaw > 6 || c.CaptionRaw%4 > 2 {
		return usageErrorf("-c out of range")
	}
	if c.SuperimposeRaw < 0 || c.SuperimposeRaw > 6 || c.SuperimposeRaw%4 > 2 {
		return usageErrorf("-u out of range")
	}
	if c.ReadMode == ModeNonBlocking {
		if c.TimeoutSec == 0 {
			return usageErrorf("-t must not be 0 in non-blocking mode (-m 2)")
		}
		if c.SeekOffset != 0 {
			return usageErrorf("cannot seek in non-blocking mode (-m 2)")
		}
	}
	return nil
}

// audioMode decodes the -a/-b bit layout shared by both audio flags:
// low 2 bits select passthrough/synthesize/drop, bit 2 requests
// mono-to-stereo upmix, bit 3 (audio1 only) requests dual-mono split.
func audioMode(raw int, isSecondary bool) servicefilter.AudioMode {
	switch {
	case !isSecondary && raw&8 != 0:
		return servicefilter.AudioDualMonoSplit
	case isSecondary && raw&3 == 3:
		return servicefilter.AudioDualMonoSplit // mirror audio1's split.
	case raw&4 != 0:
		return servicefilter.AudioMonoToStereo
	case isSecondary:
		return servicefilter.AudioRemove // raw&3 in {0,1,2}: all drop audio2.
	case raw&3 == 1:
		return servicefilter.AudioSynthesize
	default:
		return servicefilter.AudioPassthrough
	}
}

func componentMode(raw int) servicefilter.ComponentMode {
	switch raw & 3 {
	case 1:
		return servicefilter.ComponentSynthesize
	case 2:
		return servicefilter.ComponentRemove
	default:
		return servicefilter.ComponentPassthrough
	}
}

// ApplyFilter configures f per the parsed audio/caption/superimpose modes
// and program selector.
func (c *Config) ApplyFilter(f *servicefilter.Filter) {
	f.ProgramNumberOrIndex = c.ProgramNumberOrIndex
	f.Audio1Mode = audioMode(c.Audio1Raw, false)
	f.Audio2Mode = audioMode(c.Audio2Raw, true)
	f.CaptionMode = componentMode(c.CaptionRaw)
	f.SuperimposeMode = componentMode(c.SuperimposeRaw)
}

// ConverterOptions decodes the -d bitfield into arib.ConverterOptions.
func (c *Config) ConverterOptions() arib.ConverterOptions {
	return arib.ConverterOptions{
		Enabled:                   c.ID3Flags&1 != 0,
		TreatUnknownAsSuperimpose: c.ID3Flags&2 != 0,
		InsertInappropriate5Bytes: c.ID3Flags&4 != 0,
		ForceMonotonousPTS:        c.ID3Flags&8 != 0,
	}
}

// TraceToStdout reports whether -r was given the literal value "-".
func (c *Config) TraceToStdout() bool { return c.TracePath == "-" }

// String renders the effective configuration for debug logging.
func (c *Config) String() string {
	return fmt.Sprintf(
		"src=%s mode=%d seek=%d limit=%d timeout=%d n=%d a=%d b=%d c=%d u=%d d=%d trace=%q log=%q excl=%d",
		c.Src, c.ReadMode, c.SeekOffset, c.LimitBytesSec, c.TimeoutSec,
		c.ProgramNumberOrIndex, c.Audio1Raw, c.Audio2Raw, c.CaptionRaw, c.SuperimposeRaw,
		c.ID3Flags, c.TracePath, c.LogPath, len(c.ExcludePIDs),
	)
}
