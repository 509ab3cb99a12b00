// Package taskqueue provides a bounded queue for network fetches.
//
// A Queue keeps at most a fixed number of requests in flight. Extra
// requests wait in submission order and are started as soon as a running
// request settles, so the in-flight set stays full while there is demand.
//
// # Basic Usage
//
//	q := taskqueue.New(fetcher, taskqueue.DefaultCeiling)
//
//	_, err := q.Submit(taskqueue.Task{
//	    TargetID: plugin.ID,
//	    URL:      taskqueue.ResolveURL(prefix, plugin.ThumbnailURL()),
//	    OnComplete: func(o taskqueue.Outcome) {
//	        if !o.OK {
//	            fmt.Printf("HTTP %d\n", o.StatusCode)
//	            return
//	        }
//	        save(o.Payload)
//	    },
//	})
//
//	// On teardown: cancel everything, no callbacks fire afterwards.
//	q.Clear()
//
// # Fetchers
//
// The queue does no I/O itself. A Fetcher issues each request and reports
// the HTTP status and payload once; status 200 is success, anything else
// (0 for transport errors) is delivered to the callback as a failure.
// Failures free the slot exactly like successes and are never retried.
package taskqueue
