// Package download ties the catalog to the network.
//
// A Manager loads plugins.xml, then serves two consumers, each with its own
// bounded queue from package taskqueue:
//
//   - the thumbnail fetcher (FetchThumbnails), which fills a JPEG cache
//   - the plugin downloader (DownloadPlugin), which saves .gg packages
//
// Basic use:
//
//	manager := download.NewManager(settings, func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//	defer manager.Close()
//
//	if err := manager.LoadCatalog(ctx, false); err != nil {
//	    log.Fatal(err)
//	}
//	if err := manager.DownloadPlugin(id, false); err != nil {
//	    log.Fatal(err)
//	}
//	manager.Wait(ctx)
//
// Progress is reported through the callback as ProgressEvent values with a
// level of Info, Verbose, Warning, Error or Success.
package download
