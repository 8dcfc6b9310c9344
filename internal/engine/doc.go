// Package engine answers data requests.
//
// For each request the engine:
//  1. looks up the dataset in the catalog and builds its Sequence tree over
//     the store's data tables
//  2. applies the request's projection, row ranges and selection clauses
//  3. serializes the tree through the wire codec into an ordered writer
//  4. records the outcome in the response log
//
// One request is served at a time per Respond call; the only concurrency is
// the ordered writer's single in-flight write. A failed write is reported
// when the response is closed, after the serializer has stopped producing.
//
// The engine also provides the two client-side paths: Intern materializes a
// response in memory and Decode reads a response stream back into rows.
package engine
