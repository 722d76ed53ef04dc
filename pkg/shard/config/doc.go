/*
Package config loads workload descriptions for shard example programs.

# Overview

A Workload says how many threads accumulate into a cell, under which policy,
and where aggregation snapshots go. Files are YAML or JSON:

	name: requests
	threads: 8
	rounds: 100
	policy: retained
	initial: 0
	timeout: 30s
	metrics: true
	snapshot:
	  store: sqlite
	  path: ./snapshots.db
	logging:
	  level: debug
	  format: json

Missing keys take the values from Default. Load picks the parser by file
extension:

	w, err := config.Load("workload.yaml")
	if err != nil {
	    log.Fatal(err)
	}

# Values

Values is the typed, defaulted view over a decoded document that FromValues
is built on. It tolerates the numeric types produced by both YAML (int) and
JSON (float64):

	v := config.NewValues(map[string]any{"threads": 8.0})
	v.Int("threads", 1) // 8

# Errors

Invalid fields produce a *ValidationError naming the field. Unknown file
extensions wrap ErrUnsupportedFormat.
*/
package config
