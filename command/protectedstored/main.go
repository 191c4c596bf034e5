// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/protectedstore/configuration"
	"github.com/bitmark-inc/protectedstore/messagebus"
	"github.com/bitmark-inc/protectedstore/network"
	"github.com/bitmark-inc/protectedstore/persistence"
	"github.com/bitmark-inc/protectedstore/publish"
	"github.com/bitmark-inc/protectedstore/rpc"
	"github.com/bitmark-inc/protectedstore/rpc/node"
	"github.com/bitmark-inc/protectedstore/store"
	"github.com/bitmark-inc/protectedstore/zmqutil"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// outbound gossip waiting to be published
const broadcastQueueSize = 1000

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
		{Long: "memory-stats", HasArg: getoptions.NO_ARGUMENT, Short: 'm'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		processSetupCommand(program, []string{"version"})
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand(program, []string{"help"})
		return
	}

	// these commands do not require the configuration and
	// process data needed for initial setup
	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	theConfiguration, err := configuration.Get(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// these commands require the configuration and
	// perform enquiries on the configuration
	if len(arguments) > 0 && processConfigCommand(arguments, theConfiguration) {
		return
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("theConfiguration: %v", theConfiguration)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	// general info
	log.Infof("chain: %s", theConfiguration.Chain)
	log.Infof("database: %q", theConfiguration.Persistence.Database)
	log.Infof("snapshot: %q", theConfiguration.Persistence.SnapshotFile)

	// connection info
	log.Debugf("%s = %#v", "ClientRPC", theConfiguration.ClientRPC)
	log.Debugf("%s = %#v", "Peering", theConfiguration.Peering)
	log.Debugf("%s = %#v", "Publishing", theConfiguration.Publishing)

	// durable state
	log.Info("initialise persistence")
	gateway, err := persistence.New(theConfiguration.PersistenceConfiguration(), logger.New("persistence"))
	if nil != err {
		log.Criticalf("persistence initialise error: %s", err)
		exitwithstatus.Message("persistence initialise error: %s", err)
	}
	defer gateway.Close()

	// local event feed
	listeners := []store.Listener{}
	if 0 != len(theConfiguration.Publishing.Broadcast) {
		err = zmqutil.StartAuthentication()
		if nil != err {
			log.Criticalf("zmq.AuthStart: error: %s", err)
			exitwithstatus.Message("zmq.AuthStart: error: %s", err)
		}

		publisher, err := publish.New(theConfiguration.Publishing, theConfiguration.Chain, logger.New("publish"))
		if nil != err {
			log.Criticalf("publish initialise error: %s", err)
			exitwithstatus.Message("publish initialise error: %s", err)
		}
		defer publisher.Stop()
		listeners = append(listeners, publisher)
	} else {
		log.Info("disable: publish")
	}

	// the store only broadcasts when peering is enabled
	peering := 0 != len(theConfiguration.Peering.Listen)
	queue := messagebus.New(broadcastQueueSize)
	var broadcaster store.Broadcaster
	if peering {
		broadcaster = network.NewBroadcaster(queue, logger.New("network"))
	}

	log.Info("initialise store")
	theStore, err := store.New(theConfiguration.StoreConfiguration(), gateway, broadcaster, listeners, logger.New("store"))
	if nil != err {
		log.Criticalf("store initialise error: %s", err)
		exitwithstatus.Message("store initialise error: %s", err)
	}
	defer theStore.Stop()

	// start up the peering background processes
	var networkInfo node.Network
	if peering {
		p2p, err := network.New(theConfiguration.Peering, theConfiguration.Chain, theStore, queue, logger.New("network"))
		if nil != err {
			log.Criticalf("network initialise error: %s", err)
			exitwithstatus.Message("network initialise error: %s", err)
		}
		defer p2p.Stop()
		networkInfo = p2p
		log.Infof("peer id: %s", p2p.ID())
	} else {
		log.Info("disable: p2p")
	}

	// start up the rpc background processes
	server, err := rpc.New(theConfiguration.ClientRPC, theConfiguration.Chain, version, theStore, networkInfo, logger.New("rpc"))
	if nil != err {
		log.Criticalf("rpc initialise error: %s", err)
		exitwithstatus.Message("rpc initialise error: %s", err)
	}
	server.Start()
	defer server.Stop()

	// apply configuration changes that do not need a restart
	watcher, err := newConfigurationWatcher(configurationFile, theStore, logger.New("watcher"))
	if nil != err {
		log.Warnf("configuration watcher error: %s", err)
	} else {
		defer watcher.Stop()
	}

	// if memory logging enabled
	if len(options["memory-stats"]) > 0 {
		go memstats(theStore)
	}

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	log.Infof("received signal: %v", sig)
	if 0 == len(options["quiet"]) {
		fmt.Printf("\nreceived signal: %v\n", sig)
		fmt.Printf("\nshutting down…\n")
	}

	log.Info("shutting down…")
}
