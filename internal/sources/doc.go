// Package sources acquires catalog source repositories and parses them into
// catalog data.
//
// A Fetcher keeps one working copy per source under a cache root in a
// go-billy filesystem. Every fetch updates the working copy (pull, falling
// back to a fresh clone), checks the repository layout and walks the item
// directories:
//
//	repo/
//	  metadata.yml            repository metadata (or metadata.<locale>.yml)
//	  mcp-servers/<item>/     items of type mcp-server
//	  roles/<item>/           items of type role
//	  storage-systems/<item>/ items of type storage
//	  items/<item>/           items of any type, including packages
//
// Each item directory holds its own metadata file. Package items list their
// sub-items under an items key and may hold further sub-item directories.
//
// Failures never escape as a missing result. FetchRepository always returns a
// repository; when acquisition or layout validation fails it is empty, it
// carries the error message, and the returned error is a *FetchError. A
// single unreadable item is logged and skipped.
package sources
