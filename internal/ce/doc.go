// Package ce applies constraints to a Sequence tree before transmission.
//
// A Constraint has three parts:
//
//   - a projection, which marks the fields to send;
//   - selection clauses (field op literal), combined with AND and evaluated
//     by the leaf sequence for each candidate row;
//   - row ranges [start:stride:stop] on named sequences.
//
// Field paths are dotted names such as "stations.casts.depth". A path may
// omit the name of the top-level sequence. In a selection clause a bare
// field name is looked up in the evaluated sequence first and then in each
// enclosing sequence, so a leaf can test fields of its parent rows.
package ce
