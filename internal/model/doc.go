// Package model defines the core data structures used throughout
// the gadget browser.
//
// # Plugin
//
// Plugin is one entry of the plugins.xml catalog:
//
//	p := model.NewPlugin(map[string]string{
//	    "guid":         "2d7ef9d5-...",
//	    "name":         "Clock",
//	    "download_url": "/plugins/clock.gg",
//	    "updated_date": "November 10, 2007",
//	})
//	fmt.Println(p.Title("de"))           // localized title or the name attribute
//	fmt.Println(p.PackagePath(gadgetDir)) // where the package is saved
//
// # Download Status
//
// DownloadStatus follows a package download: None → Adding → Added or Error.
package model
