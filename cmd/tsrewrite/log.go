/*
NAME
  log.go

DESCRIPTION
  journalWriter adapts the systemd journal as an io.Writer backend for
  the driver's logger, selected when $JOURNAL_STREAM indicates stdout or
  stderr is already connected to the journal, per SPEC_FULL.md's ambient
  logging section.

LICENSE
  Copyright (C) 2026 the tsrewrite contributors.

  Licensed under the Apache License, Version 2.0 (the "License");
  you may not use this file except in compliance with the License.
  You may obtain a copy of the License at

      http://www.apache.org/licenses/LICENSE-2.0
*/

package main

import (
	"os"

	"github.com/coreos/go-systemd/journal"
)

// journalWriter forwards each Write as one journal entry at info
// priority; tsrewrite's logger always passes one already-formatted
// message per call, so no line-splitting is needed.
type journalWriter struct{}

func (journalWriter) Write(p []byte) (int, error) {
	if err := journal.Send(string(p), journal.PriInfo, nil); err != nil {
		return 0, err
	}
	return len(p), nil
}

// useJournal reports whether the journal is reachable and
// $JOURNAL_STREAM indicates this process's output is journald-managed.
func useJournal() bool {
	return os.Getenv("JOURNAL_STREAM") != "" && journal.Enabled()
}
