// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import "github.com/alvinbaena/breachguard/internal/config"

var (
	// root
	cfg config.Config
	// root
	configFile string
	// root
	verbose bool
	// root
	profile bool
	// root
	pprofPort uint16
	// audit
	inputFile string
	// audit
	threads int
	// audit
	requestsPerSecond int
	// analyze
	interactive bool
	// analyze
	fromStdin bool
	// analyze
	hashed bool
	// analyze, audit
	jsonOutput bool
	// serve
	selfTLS bool
	// serve
	tlsCert string
	// serve
	tlsKey string
	// serve
	port uint16
)
