// Package harness provides conformance testing for dataset responses.
//
// A scenario loads a catalog and table rows into a fresh in-memory store,
// sends a list of requests through the engine and decodes every response
// into a token trace. Assertions run against the trace and the response log,
// and the whole trace can be compared against a golden file.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	specs: ../specs            # directory of CUE descriptors, or
//	schema: |                  # inline CUE
//	  dataset: ...
//	tables:
//	  - name: stations
//	    columns: [id, station_name]
//	    rows:
//	      - [1, Alpha]
//	requests:
//	  - dataset: stations
//	    project: [stations.id]
//	    select: ["id > 1"]
//	    range: ["stations[0:2:*]"]
//	    chunk: 8
//	    sync: true
//	    expect:
//	      rows: 2
//	assertions:
//	  - type: trace_tokens
//	    request: 0
//	    tokens: [SOI, "i32:2", EOS]
//
// # Trace Tokens
//
// A trace is the decoded response: SOI and EOS for the markers, and one
// typed token per field value, for example i32:7, f64:2.5, s:Alpha or
// bytes:0a0b.
//
// # Assertion Types
//
//   - trace_tokens: the trace of a request equals tokens exactly
//   - trace_contains: tokens appear consecutively in the trace of a request
//   - trace_count: token appears exactly count times in the trace of a request
//   - response_log: the response log holds exactly count entries
package harness
