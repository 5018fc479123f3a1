// Package resolver answers IP-to-AS and AS-to-name queries against the
// currently active dataset snapshot.
//
// The active snapshot is held behind an atomic pointer. Each query loads the
// pointer once and runs entirely against that snapshot, so a query racing a
// refresh sees either the old or the new dataset, never a mix of both.
// Queries never block.
package resolver
