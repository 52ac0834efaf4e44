// Package tasks runs long library operations with real-time progress reporting.
//
// [Snapshot] pages through the entire catalog, loads the subscription list, then renders
// both listings in every requested format with a pool of workers:
//
//	dir/
//	  catalog.json
//	  catalog.csv
//	  subscriptions.json
//	  subscriptions.csv
//	  export_manifest.json
//
// Progress is reported on an optional channel. Sends never block, so a slow or absent
// reader only loses updates. Fetch failures go through the library's session policy
// (a rejected token clears the session); per-file write failures are recorded in the
// manifest and counted in [SnapshotResult.Failed].
package tasks
