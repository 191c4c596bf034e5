// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/protectedstore/chain"
	"github.com/bitmark-inc/protectedstore/expiry"
	"github.com/bitmark-inc/protectedstore/fault"
	"github.com/bitmark-inc/protectedstore/network"
	"github.com/bitmark-inc/protectedstore/persistence"
	"github.com/bitmark-inc/protectedstore/publish"
	"github.com/bitmark-inc/protectedstore/rpc"
	"github.com/bitmark-inc/protectedstore/store"
	"github.com/bitmark-inc/protectedstore/util"
)

// basic defaults, files are relative to the data directory
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultDatabaseDirectory = "data"
	defaultSnapshotFile      = "entries.snapshot"
	defaultPeerFile          = "peers.dat"

	defaultPublishPublicKeyFile  = "publish.public"
	defaultPublishPrivateKeyFile = "publish.private"
	defaultKeyFile               = "rpc.key"
	defaultCertificateFile       = "rpc.crt"

	defaultLogDirectory = "log"
	defaultLogFile      = "protectedstored.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size

	defaultRPCClients = 10
)

// LoglevelMap - log level for each logger channel
type LoglevelMap map[string]string

var (
	defaultLogLevels = LoglevelMap{
		"main":            "info",
		logger.DefaultTag: "critical",
	}
)

// StoreType - store timing, durations are in seconds
type StoreType struct {
	SweepInterval  float64 `gluamapper:"sweep_interval" json:"sweep_interval"`
	SaveInterval   float64 `gluamapper:"save_interval" json:"save_interval"`
	PurgeAge       float64 `gluamapper:"purge_age" json:"purge_age"`
	PurgeThreshold int     `gluamapper:"purge_threshold" json:"purge_threshold"`
}

// PersistenceType - where the store is kept
type PersistenceType struct {
	Database         string `gluamapper:"database" json:"database"`
	SnapshotFile     string `gluamapper:"snapshot_file" json:"snapshot_file"`
	FailureThreshold int    `gluamapper:"failure_threshold" json:"failure_threshold"`
}

// Configuration - the whole configuration file
type Configuration struct {
	DataDirectory string                `gluamapper:"data_directory" json:"data_directory"`
	PidFile       string                `gluamapper:"pidfile" json:"pidfile"`
	Chain         string                `gluamapper:"chain" json:"chain"`
	Store         StoreType             `gluamapper:"store" json:"store"`
	Persistence   PersistenceType       `gluamapper:"persistence" json:"persistence"`
	Peering       network.Configuration `gluamapper:"p2p" json:"p2p"`
	Publishing    publish.Configuration `gluamapper:"publish" json:"publish"`
	ClientRPC     rpc.Configuration     `gluamapper:"client_rpc" json:"client_rpc"`
	Logging       logger.Configuration  `gluamapper:"logging" json:"logging"`
}

// Get - read and check a configuration file, all file names in the
// result are absolute and the database and log directories exist
func Get(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{
		DataDirectory: defaultDataDirectory,
		PidFile:       "", // no PidFile by default
		Chain:         chain.Live,

		Store: StoreType{
			SweepInterval:  expiry.DefaultInterval.Seconds(),
			SaveInterval:   store.DefaultSaveInterval.Seconds(),
			PurgeThreshold: 0,
		},

		Persistence: PersistenceType{
			Database:         defaultDatabaseDirectory,
			SnapshotFile:     defaultSnapshotFile,
			FailureThreshold: persistence.DefaultFailureThreshold,
		},

		Peering: network.Configuration{
			PeerFile: defaultPeerFile,
		},

		Publishing: publish.Configuration{
			PublicKey:  defaultPublishPublicKeyFile,
			PrivateKey: defaultPublishPrivateKeyFile,
		},

		ClientRPC: rpc.Configuration{
			MaximumConnections: defaultRPCClients,
			Certificate:        defaultCertificateFile,
			PrivateKey:         defaultKeyFile,
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := ParseConfigurationFile(configurationFileName, options); nil != err {
		return nil, err
	}

	options.Chain = strings.ToLower(options.Chain)
	if !chain.Valid(options.Chain) {
		return nil, fault.ErrInvalidChain
	}

	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, errors.New(fmt.Sprintf("Path: %q is not a valid directory", options.DataDirectory))
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	} else {
		options.DataDirectory = filepath.Clean(options.DataDirectory)
	}

	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, errors.New(fmt.Sprintf("Path: %q is not a directory", options.DataDirectory))
	}

	mustBeAbsolute := []*string{
		&options.Persistence.Database,
		&options.Persistence.SnapshotFile,
		&options.Publishing.PublicKey,
		&options.Publishing.PrivateKey,
		&options.ClientRPC.Certificate,
		&options.ClientRPC.PrivateKey,
		&options.Logging.Directory,
	}
	for _, f := range mustBeAbsolute {
		if "" != *f {
			*f = util.EnsureAbsolute(options.DataDirectory, *f)
		}
	}

	optionalAbsolute := []*string{
		&options.PidFile,
		&options.Peering.PeerFile,
	}
	for _, f := range optionalAbsolute {
		if "" != *f {
			*f = util.EnsureAbsolute(options.DataDirectory, *f)
		}
	}

	if filepath.Base(options.Logging.File) != options.Logging.File {
		return nil, errors.New(fmt.Sprintf("Files: %q is not plain name", options.Logging.File))
	}

	if "" != options.Persistence.Database {
		if err := os.MkdirAll(filepath.Dir(options.Persistence.Database), 0700); nil != err {
			return nil, err
		}
	}
	if err := os.MkdirAll(options.Logging.Directory, 0700); nil != err {
		return nil, err
	}

	return options, nil
}

// StoreConfiguration - the store block as store settings
func (c *Configuration) StoreConfiguration() store.Configuration {
	return store.Configuration{
		SweepInterval:  seconds(c.Store.SweepInterval),
		SaveInterval:   seconds(c.Store.SaveInterval),
		PurgeAge:       seconds(c.Store.PurgeAge),
		PurgeThreshold: c.Store.PurgeThreshold,
	}
}

// PersistenceConfiguration - the persistence block as gateway settings
func (c *Configuration) PersistenceConfiguration() persistence.Configuration {
	return persistence.Configuration{
		Database:         c.Persistence.Database,
		SnapshotFile:     c.Persistence.SnapshotFile,
		FailureThreshold: c.Persistence.FailureThreshold,
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
