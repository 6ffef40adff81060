//go:build !unix

/*
NAME
  nonblock_other.go

DESCRIPTION
  Non-unix fallback for setNonblock: Windows has no fcntl O_NONBLOCK
  equivalent for anonymous pipes via os.File, so -m 2 degrades to
  blocking reads governed solely by the idle-seconds watchdog.

LICENSE
  Copyright (C) 2026 the tsrewrite contributors.

  Licensed under the Apache License, Version 2.0 (the "License");
  you may not use this file except in compliance with the License.
  You may obtain a copy of the License at

      http://www.apache.org/licenses/LICENSE-2.0
*/

package main

import "os"

func setNonblock(f *os.File) error { return nil }
