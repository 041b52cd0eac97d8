// Package harvest drives a download run. A direct run fetches one extension;
// a batch run walks the manifest one platform category at a time and fetches
// each category's entries through a bounded worker window. Item failures are
// logged and recorded in the Report; only structural failures (bad input,
// unusable destination, interruption) fail the run.
package harvest
