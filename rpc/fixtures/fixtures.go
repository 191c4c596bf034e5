// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fixtures - shared setup for the RPC tests
package fixtures

import (
	"os"

	"github.com/bitmark-inc/logger"
)

// test log file
const (
	LogCategory = "testing"
	logFile     = "test.log"
)

// SetupTestLogger - log into the current directory
func SetupTestLogger() {
	removeFiles()
	_ = logger.Initialise(logger.Configuration{
		Directory: ".",
		File:      logFile,
		Size:      50000,
		Count:     10,
		Levels:    map[string]string{logger.DefaultTag: "critical"},
	})
}

// TeardownTestLogger - stop logging and remove the log
func TeardownTestLogger() {
	logger.Finalise()
	removeFiles()
}

func removeFiles() {
	os.RemoveAll(logFile)
}
