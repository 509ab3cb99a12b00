// Package http provides the HTTP client used for catalog, thumbnail and
// package downloads.
//
// The Client in this package handles:
//   - User-Agent headers
//   - Timeout handling and an optional bandwidth limit
//   - File downloads with progress tracking
//   - Asynchronous fetches driven by a taskqueue.Queue
//
// # Basic Usage
//
//	client := http.NewClient()
//
//	// Download the catalog with a progress callback
//	client.DownloadFile(ctx, catalogURL, "/path/to/plugins.xml", func(written, total int64) {
//	    fmt.Printf("%.1f%%\n", float64(written)/float64(total)*100)
//	})
//
// # Queue Fetcher
//
// Client implements taskqueue.Fetcher. Each Issue runs in its own
// goroutine; Cancel aborts it without a settlement and Wait blocks until
// all issued requests are done:
//
//	q := taskqueue.New(client, taskqueue.DefaultCeiling)
//	q.Submit(task)
//	...
//	q.Clear()
//	client.Wait()
package http
