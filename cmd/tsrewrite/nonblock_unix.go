//go:build unix

/*
NAME
  nonblock_unix.go

DESCRIPTION
  setNonblock puts a source file descriptor into non-blocking mode for
  -m 2, mirroring tsreadex.cpp's fcntl(file, F_SETFL, O_NONBLOCK).

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

	"golang.org/x/sys/unix"
)

func setNonblock(f *os.File) error {
	return unix.SetNonblock(int(f.Fd()), true)
}
