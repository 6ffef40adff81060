/*
NAME
  filewatch.go

DESCRIPTION
  waitForGrowth blocks until a preallocated source file is written to (or
  a timeout elapses), replacing tsreadex.cpp's blind 200ms poll-and-reseek
  retry with an event-driven, fsnotify-based wait for file growth.

LICENSE
  Copyright (C) 2026 the tsrewrite contributors.

  Licensed under the Apache License, Version 2.0 (the "License");
  you may not use this file except in compliance with the License.
  You may obtain a copy of the License at

      http://www.apache.org/licenses/LICENSE-2.0
*/

package main

import (
	"time"

	"github.com/fsnotify/fsnotify"
)

// waitForGrowth returns as soon as path receives a write/create event, a
// watch error occurs, or timeout elapses, whichever is first. It never
// returns an error: any failure to watch degrades to a plain sleep, since
// the caller's retry loop remains correct either way.
func waitForGrowth(path string, timeout time.Duration) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		time.Sleep(timeout)
		return
	}
	defer w.Close()
	if err := w.Add(path); err != nil {
		time.Sleep(timeout)
		return
	}
	select {
	case <-w.Events:
	case <-w.Errors:
	case <-time.After(timeout):
	}
}
